package install

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/minibrew-go/internal/core/build"
	"github.com/nightconcept/minibrew-go/internal/core/config"
	"github.com/nightconcept/minibrew-go/internal/core/engine"
	"github.com/nightconcept/minibrew-go/internal/core/graph"
	"github.com/nightconcept/minibrew-go/internal/core/ledger"
	"github.com/nightconcept/minibrew-go/internal/core/logfields"
	"github.com/nightconcept/minibrew-go/internal/core/walker"
)

// runner overrides the build runner; nil runs real subprocesses.
var runner build.Runner

// NewInstallCommand creates a new cli.Command for the "install" command.
func NewInstallCommand() *cli.Command {
	return &cli.Command{
		Name:      "install",
		Usage:     "Fetches, builds and installs a package and its dependencies",
		ArgsUsage: "<package>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Show what would be installed without doing it",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
		},
		Action: installAction,
	}
}

func installAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("Error: install requires exactly one package name.", 1)
	}
	name := c.Args().First()
	out := c.App.Writer

	paths, g, err := config.Load(c.String("home"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error loading package definitions: %v", err), 1)
	}
	store, err := ledger.Open(paths.Ledger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	logger := slog.Default()
	if c.Bool("verbose") {
		logger = slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	logger.Debug("Loaded install ledger", logfields.Path(store.Path()), slog.Int("entries", len(store.Names())))

	env := build.Env{Prefix: paths.Prefix, Runner: runner}
	eng := engine.New(g, store, env,
		engine.WithObserver(newConsoleObserver(out)),
		engine.WithLogger(logger),
	)

	if c.Bool("dry-run") {
		plan, err := eng.Plan(name)
		if err != nil {
			return exitFor(err)
		}
		printPlan(out, plan)
		return nil
	}

	if err := eng.Install(name); err != nil {
		return exitFor(err)
	}
	_, _ = fmt.Fprintf(out, "%s is up to date.\n", name)
	return nil
}

func exitFor(err error) error {
	var notFound *graph.PackageNotFoundError
	if errors.As(err, &notFound) {
		return cli.Exit(fmt.Sprintf("Error: %v. Run 'mbrew list' to see available packages.", err), 1)
	}
	return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
}

func printPlan(w io.Writer, plan *walker.Plan) {
	if plan.UpToDate() {
		_, _ = fmt.Fprintln(w, "Everything is up to date.")
		return
	}
	header := color.New(color.FgCyan, color.Bold).SprintFunc()
	nameColor := color.New(color.FgWhite, color.Bold).SprintFunc()
	dim := color.New(color.FgHiBlack).SprintFunc()

	_, _ = fmt.Fprintln(w, header("would install:"))
	for _, n := range plan.Build {
		_, _ = fmt.Fprintf(w, "  %s %s\n", nameColor(n.Name), dim("("+plan.Reason(n)+")"))
	}
	if len(plan.Skip) > 0 {
		_, _ = fmt.Fprintln(w, header("up to date:"))
		for _, n := range plan.Skip {
			_, _ = fmt.Fprintf(w, "  %s\n", dim(n.Name))
		}
	}
}

// consoleObserver prints one line per package state change.
type consoleObserver struct {
	w       io.Writer
	name    func(a ...interface{}) string
	ok      func(a ...interface{}) string
	failed  func(a ...interface{}) string
	dim     func(a ...interface{}) string
	pending func(a ...interface{}) string
}

func newConsoleObserver(w io.Writer) *consoleObserver {
	return &consoleObserver{
		w:       w,
		name:    color.New(color.FgWhite, color.Bold).SprintFunc(),
		ok:      color.New(color.FgGreen).SprintFunc(),
		failed:  color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:     color.New(color.FgHiBlack).SprintFunc(),
		pending: color.New(color.FgYellow).SprintFunc(),
	}
}

func (o *consoleObserver) Skipped(n *graph.Node) {
	_, _ = fmt.Fprintf(o.w, "%s %s\n", o.name(n.Name), o.dim("already installed"))
}

func (o *consoleObserver) Transition(n *graph.Node, s engine.State) {
	switch s {
	case engine.Fetching, engine.Building:
		_, _ = fmt.Fprintf(o.w, "%s %s\n", o.name(n.Name), o.pending(string(s)+"..."))
	case engine.Installed:
		_, _ = fmt.Fprintf(o.w, "%s %s\n", o.name(n.Name), o.ok("installed"))
	case engine.Failed:
		_, _ = fmt.Fprintf(o.w, "%s %s\n", o.name(n.Name), o.failed("failed"))
	}
}
