package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/nightconcept/minibrew-go/internal/core/graph"
	"github.com/nightconcept/minibrew-go/internal/core/ledger"
	"github.com/nightconcept/minibrew-go/internal/core/project"
)

const PackagesTomlName = "packages.toml"

// HomeEnv overrides the home directory when no --home flag is given.
const HomeEnv = "MINIBREW_HOME"

//go:embed packages.toml
var defaultPackages []byte

// Paths are the directories and files derived from a home directory.
type Paths struct {
	Home   string
	Repos  string // one checkout per package
	Prefix string // shared install prefix
	Ledger string
}

// NewPaths derives the layout under home.
func NewPaths(home string) Paths {
	prefix := filepath.Join(home, "pkgs")
	return Paths{
		Home:   home,
		Repos:  filepath.Join(home, "repos"),
		Prefix: prefix,
		Ledger: filepath.Join(prefix, ledger.LedgerName),
	}
}

// ResolveHome picks the home directory: flagValue, then $MINIBREW_HOME, then the working directory.
func ResolveHome(flagValue string) (string, error) {
	home := flagValue
	if home == "" {
		home = os.Getenv(HomeEnv)
	}
	if home == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
		home = wd
	}
	abs, err := filepath.Abs(home)
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory %s: %w", home, err)
	}
	return abs, nil
}

// LoadPackagesToml reads packages.toml from dirPath. When the file does not
// exist the built-in catalogue is returned.
func LoadPackagesToml(dirPath string) (*project.Project, error) {
	fullPath := filepath.Join(dirPath, PackagesTomlName)
	data, err := os.ReadFile(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultPackages()
	}
	if err != nil {
		return nil, err
	}
	return decode(fullPath, data)
}

// DefaultPackages returns the built-in catalogue.
func DefaultPackages() (*project.Project, error) {
	return decode("built-in "+PackagesTomlName, defaultPackages)
}

func decode(name string, data []byte) (*project.Project, error) {
	proj := project.NewProject()
	md, err := toml.Decode(string(data), proj)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("failed to parse %s: unknown key '%s'", name, undecoded[0])
	}
	return proj, nil
}

// WritePackagesToml marshals the Project data and writes it to dirPath,
// overwriting any existing file.
func WritePackagesToml(dirPath string, data *project.Project) error {
	buf := new(bytes.Buffer)
	if err := toml.NewEncoder(buf).Encode(data); err != nil {
		return err
	}

	fullPath := filepath.Join(dirPath, PackagesTomlName)
	file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, err = file.Write(buf.Bytes())
	return err
}

// BuildGraph registers every declaration in file order.
func BuildGraph(proj *project.Project, reposDir string) (*graph.Graph, error) {
	g := graph.New(reposDir)
	for _, decl := range proj.Package {
		src, err := decl.ResolveSource()
		if err != nil {
			return nil, fmt.Errorf("package %q: %w", decl.Name, err)
		}
		step, err := decl.ResolveStep()
		if err != nil {
			return nil, fmt.Errorf("package %q: %w", decl.Name, err)
		}
		if _, err := g.Register(decl.Name, src, step, decl.Deps...); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Load resolves the home layout and builds the package graph from it.
func Load(homeFlag string) (Paths, *graph.Graph, error) {
	home, err := ResolveHome(homeFlag)
	if err != nil {
		return Paths{}, nil, err
	}
	paths := NewPaths(home)

	proj, err := LoadPackagesToml(home)
	if err != nil {
		return Paths{}, nil, err
	}
	g, err := BuildGraph(proj, paths.Repos)
	if err != nil {
		return Paths{}, nil, err
	}
	return paths, g, nil
}
