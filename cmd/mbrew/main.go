package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/nightconcept/minibrew-go/internal/cli/initcmd"
	"github.com/nightconcept/minibrew-go/internal/cli/install"
	"github.com/nightconcept/minibrew-go/internal/cli/list"
	"github.com/nightconcept/minibrew-go/internal/cli/self"
	"github.com/nightconcept/minibrew-go/internal/core/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "v0.1.0"

func newApp() *cli.App {
	return &cli.App{
		Name:    "mbrew",
		Usage:   "Builds and installs packages from source into a shared prefix",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "home",
				Usage:   "Directory holding packages.toml, repos/ and pkgs/",
				EnvVars: []string{config.HomeEnv},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			level := slog.LevelInfo
			if c.Bool("verbose") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
		Action: func(c *cli.Context) error {
			_ = cli.ShowAppHelp(c)
			return nil
		},
		Commands: []*cli.Command{
			initcmd.GetInitCommand(),
			install.NewInstallCommand(),
			list.ListCmd,
			self.NewSelfCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
