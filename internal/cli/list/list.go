package list

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/minibrew-go/internal/core/config"
	"github.com/nightconcept/minibrew-go/internal/core/ledger"
)

// Ledger states shown by --status.
const (
	statusInstalled    = "installed"
	statusOutdated     = "outdated"
	statusNotInstalled = "not installed"
)

// ListCmd defines the structure for the 'list' command.
var ListCmd = &cli.Command{
	Name:    "list",
	Aliases: []string{"ls"},
	Usage:   "Displays the registered packages in declaration order.",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "status",
			Aliases: []string{"s"},
			Usage:   "Show install state and dependencies of each package",
		},
	},
	Action: func(c *cli.Context) error {
		paths, g, err := config.Load(c.String("home"))
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error loading package definitions: %v", err), 1)
		}
		out := c.App.Writer

		if !c.Bool("status") {
			for _, name := range g.Names() {
				_, _ = fmt.Fprintln(out, name)
			}
			return nil
		}

		lf, err := ledger.Load(paths.Ledger)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
		}

		nameColor := color.New(color.FgWhite).SprintFunc()
		statusColors := map[string]func(a ...interface{}) string{
			statusInstalled:    color.New(color.FgGreen).SprintFunc(),
			statusOutdated:     color.New(color.FgYellow).SprintFunc(),
			statusNotInstalled: color.New(color.FgHiBlack).SprintFunc(),
		}
		depColor := color.New(color.FgHiBlack).SprintFunc()

		for _, name := range g.Names() {
			node, err := g.Lookup(name)
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}

			status := statusNotInstalled
			if recorded, ok := lf.Installed[name]; ok {
				status = statusOutdated
				if recorded == node.Fingerprint() {
					status = statusInstalled
				}
			}

			line := fmt.Sprintf("%s %s", nameColor(name), statusColors[status](status))
			if len(node.Deps) > 0 {
				deps := make([]string, 0, len(node.Deps))
				for _, d := range node.Deps {
					deps = append(deps, d.Name)
				}
				line += " " + depColor("(deps: "+strings.Join(deps, ", ")+")")
			}
			_, _ = fmt.Fprintln(out, line)
		}
		return nil
	},
}
