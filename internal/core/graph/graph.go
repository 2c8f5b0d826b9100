// Package graph holds the registered package definitions and the
// dependency edges between them.
package graph

import (
	"fmt"
	"path/filepath"

	"github.com/nightconcept/minibrew-go/internal/core/build"
	"github.com/nightconcept/minibrew-go/internal/core/fingerprint"
	"github.com/nightconcept/minibrew-go/internal/core/source"
)

// Node is a registered package. Nodes are never mutated after registration.
type Node struct {
	Name   string
	Source source.Source
	Step   build.Step
	Deps   []*Node

	reposDir string
}

// WorkDir is where the package source is fetched and built.
func (n *Node) WorkDir() string {
	return filepath.Join(n.reposDir, n.Name)
}

// Fingerprint identifies the current source and build recipe of n.
func (n *Node) Fingerprint() string {
	return fingerprint.Of(n.Source, n.Step)
}

// Graph is the set of registered packages. Dependencies must be registered
// before their dependents, which rules out cycles.
type Graph struct {
	reposDir string
	nodes    map[string]*Node
	order    []string
}

// New creates an empty graph whose nodes check out under reposDir.
func New(reposDir string) *Graph {
	return &Graph{
		reposDir: reposDir,
		nodes:    make(map[string]*Node),
	}
}

// Register adds a package. Every name in deps must already be registered.
func (g *Graph) Register(name string, src source.Source, step build.Step, deps ...string) (*Node, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: package name is required", ErrInvalidDependency)
	}
	if src == nil || step == nil {
		return nil, fmt.Errorf("package %q: source and build step are required", name)
	}
	if _, exists := g.nodes[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicatePackage, name)
	}

	seen := make(map[string]bool, len(deps))
	resolved := make([]*Node, 0, len(deps))
	for _, dep := range deps {
		if dep == name {
			return nil, fmt.Errorf("%w: %q depends on itself", ErrInvalidDependency, name)
		}
		if seen[dep] {
			return nil, fmt.Errorf("%w: %q lists %q more than once", ErrInvalidDependency, name, dep)
		}
		seen[dep] = true

		node, ok := g.nodes[dep]
		if !ok {
			return nil, &DependencyNotFoundError{Package: name, Dependency: dep}
		}
		resolved = append(resolved, node)
	}

	node := &Node{
		Name:     name,
		Source:   src,
		Step:     step,
		Deps:     resolved,
		reposDir: g.reposDir,
	}
	g.nodes[name] = node
	g.order = append(g.order, name)
	return node, nil
}

// Lookup returns the node registered as name.
func (g *Graph) Lookup(name string) (*Node, error) {
	node, ok := g.nodes[name]
	if !ok {
		return nil, &PackageNotFoundError{Name: name}
	}
	return node, nil
}

// Names returns registered names in registration order.
func (g *Graph) Names() []string {
	return append([]string(nil), g.order...)
}

// Len is the number of registered packages.
func (g *Graph) Len() int { return len(g.order) }
