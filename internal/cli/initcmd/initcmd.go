// Package initcmd implements "mbrew init", which seeds a home directory with
// the built-in package catalogue so it can be edited.
package initcmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/nightconcept/minibrew-go/internal/core/config"
)

// GetInitCommand returns the definition for the "init" command.
func GetInitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write the built-in package catalogue to packages.toml in the home directory",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Overwrite an existing packages.toml",
			},
		},
		Action: func(c *cli.Context) error {
			home, err := config.ResolveHome(c.String("home"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}

			target := filepath.Join(home, config.PackagesTomlName)
			if _, err := os.Stat(target); err == nil && !c.Bool("force") {
				return cli.Exit(fmt.Sprintf("Error: %s already exists. Use --force to overwrite it.", target), 1)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return cli.Exit(fmt.Sprintf("Error checking %s: %v", target, err), 1)
			}

			proj, err := config.DefaultPackages()
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			if err := os.MkdirAll(home, 0o755); err != nil {
				return cli.Exit(fmt.Sprintf("Error creating %s: %v", home, err), 1)
			}
			if err := config.WritePackagesToml(home, proj); err != nil {
				return cli.Exit(fmt.Sprintf("Error writing %s: %v", target, err), 1)
			}

			_, _ = fmt.Fprintf(c.App.Writer, "Wrote %d packages to %s\n", len(proj.Package), target)
			return nil
		},
	}
}
