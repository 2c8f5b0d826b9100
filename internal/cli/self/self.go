package self

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/urfave/cli/v2"
)

// DefaultRepository is where release binaries are published.
const DefaultRepository = "nightconcept/minibrew-go"

// NewSelfCommand creates a new command for self-management.
func NewSelfCommand() *cli.Command {
	return &cli.Command{
		Name:  "self",
		Usage: "Manage the mbrew CLI application itself",
		Subcommands: []*cli.Command{
			{
				Name:  "update",
				Usage: "Update mbrew to the latest version",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Automatically confirm the update",
					},
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Check for available updates without installing",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Specify a custom GitHub update source as 'owner/repo' (e.g., '" + DefaultRepository + "')",
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "Enable verbose output",
					},
				},
				Action: updateAction,
			},
		},
	}
}

// parseVersion accepts vX.Y.Z or X.Y.Z.
func parseVersion(v string) (*semver.Version, error) {
	parsed, err := semver.NewVersion(strings.TrimPrefix(v, "v"))
	if err != nil {
		return nil, fmt.Errorf("error parsing current version '%s': %w. Ensure version is like vX.Y.Z or X.Y.Z", v, err)
	}
	return parsed, nil
}

// repositorySlug validates an owner/repo flag value, falling back to DefaultRepository.
func repositorySlug(flagValue string) (string, error) {
	if flagValue == "" {
		return DefaultRepository, nil
	}
	parts := strings.Split(flagValue, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("invalid --source format. Expected 'owner/repo', got: %s", flagValue)
	}
	return flagValue, nil
}

// confirm reads a y/N answer from r.
func confirm(w io.Writer, r io.Reader) bool {
	_, _ = fmt.Fprint(w, "Do you want to update? (y/N): ")
	input, _ := bufio.NewReader(r).ReadString('\n')
	return strings.TrimSpace(strings.ToLower(input)) == "y"
}

func updateAction(c *cli.Context) error {
	out := c.App.Writer
	currentVersionStr := c.App.Version
	verbose := c.Bool("verbose")

	currentSemVer, err := parseVersion(currentVersionStr)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if verbose {
		_, _ = fmt.Fprintf(out, "mbrew current version: %s\n", currentSemVer.String())
	}

	repoSlug, err := repositorySlug(c.String("source"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if verbose {
		_, _ = fmt.Fprintf(out, "Using GitHub source: %s\n", repoSlug)
	}

	ghSource, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error creating GitHub source: %v", err), 1)
	}
	updater, err := selfupdate.NewUpdater(selfupdate.Config{Source: ghSource})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to initialize updater: %v", err), 1)
	}

	latestRelease, found, err := updater.DetectLatest(c.Context, selfupdate.ParseSlug(repoSlug))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error detecting latest version: %v", err), 1)
	}
	if !found {
		_, _ = fmt.Fprintf(out, "Current version %s is already the latest.\n", currentVersionStr)
		return nil
	}
	if verbose {
		_, _ = fmt.Fprintf(out, "Latest version detected: %s (Release URL: %s)\n", latestRelease.Version(), latestRelease.URL)
		if latestRelease.ReleaseNotes != "" {
			_, _ = fmt.Fprintf(out, "Release Notes:\n%s\n", latestRelease.ReleaseNotes)
		}
	}

	if !latestRelease.GreaterThan(currentSemVer.String()) {
		_, _ = fmt.Fprintf(out, "Current version %s is already the latest or newer.\n", currentVersionStr)
		return nil
	}
	_, _ = fmt.Fprintf(out, "New version available: %s (current: %s)\n", latestRelease.Version(), currentVersionStr)

	if c.Bool("check") {
		return nil
	}
	if !c.Bool("yes") && !confirm(out, os.Stdin) {
		_, _ = fmt.Fprintln(out, "Update cancelled.")
		return nil
	}

	_, _ = fmt.Fprintf(out, "Updating to %s...\n", latestRelease.Version())
	execPath, err := os.Executable()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Could not get executable path: %v", err), 1)
	}
	if err := updater.UpdateTo(c.Context, latestRelease, execPath); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to update: %v", err), 1)
	}

	_, _ = fmt.Fprintf(out, "Successfully updated to version %s.\n", latestRelease.Version())
	return nil
}
