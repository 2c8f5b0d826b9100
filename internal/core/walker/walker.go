// Package walker classifies the transitive dependencies of a package as
// already installed or needing install, and orders the latter for building.
package walker

import (
	"fmt"
	"strings"

	"github.com/nightconcept/minibrew-go/internal/core/graph"
)

// Classification is the state of a node within one walk.
type Classification int

const (
	Unvisited Classification = iota
	InProgress
	AlreadyInstalled
	NeedsInstall
)

func (c Classification) String() string {
	switch c {
	case Unvisited:
		return "unvisited"
	case InProgress:
		return "in progress"
	case AlreadyInstalled:
		return "already installed"
	case NeedsInstall:
		return "needs install"
	default:
		return fmt.Sprintf("Classification(%d)", int(c))
	}
}

// Installed is the read side of the install ledger.
type Installed interface {
	Get(name string) (string, bool)
}

// CyclicDependencyError is returned when a node is reached again while its
// own dependencies are still being visited.
type CyclicDependencyError struct {
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	return "cyclic dependency: " + strings.Join(e.Path, " -> ")
}

// Plan is the result of a walk.
type Plan struct {
	// Build lists the packages needing install; every dependency precedes its dependents.
	Build []*graph.Node
	// Skip lists the packages that are up to date. Order is not significant.
	Skip []*graph.Node

	states  map[*graph.Node]Classification
	reasons map[*graph.Node]string
}

// Classification returns the state n reached in the walk, or Unvisited.
func (p *Plan) Classification(n *graph.Node) Classification {
	return p.states[n]
}

// Reason explains why n needs install. Empty for skipped nodes.
func (p *Plan) Reason(n *graph.Node) string {
	return p.reasons[n]
}

// UpToDate reports whether nothing needs building.
func (p *Plan) UpToDate() bool {
	return len(p.Build) == 0
}

// Walk visits root and everything reachable from it exactly once, dependencies
// first in declared order. A node needs install when its fingerprint differs
// from the recorded one or any of its dependencies needs install.
func Walk(root *graph.Node, installed Installed) (*Plan, error) {
	w := &walk{
		installed: installed,
		plan: &Plan{
			states:  make(map[*graph.Node]Classification),
			reasons: make(map[*graph.Node]string),
		},
	}
	if _, err := w.visit(root); err != nil {
		return nil, err
	}
	return w.plan, nil
}

type walk struct {
	installed Installed
	plan      *Plan
	stack     []*graph.Node
}

func (w *walk) visit(n *graph.Node) (Classification, error) {
	switch state := w.plan.states[n]; state {
	case AlreadyInstalled, NeedsInstall:
		return state, nil
	case InProgress:
		return Unvisited, w.cycle(n)
	}

	w.plan.states[n] = InProgress
	w.stack = append(w.stack, n)

	var rebuiltDep string
	for _, dep := range n.Deps {
		state, err := w.visit(dep)
		if err != nil {
			return Unvisited, err
		}
		if state == NeedsInstall && rebuiltDep == "" {
			rebuiltDep = dep.Name
		}
	}
	w.stack = w.stack[:len(w.stack)-1]

	reason := w.reason(n, rebuiltDep)
	if reason == "" {
		w.plan.states[n] = AlreadyInstalled
		w.plan.Skip = append(w.plan.Skip, n)
		return AlreadyInstalled, nil
	}

	w.plan.states[n] = NeedsInstall
	w.plan.reasons[n] = reason
	w.plan.Build = append(w.plan.Build, n)
	return NeedsInstall, nil
}

func (w *walk) reason(n *graph.Node, rebuiltDep string) string {
	recorded, ok := w.installed.Get(n.Name)
	switch {
	case !ok:
		return "not installed"
	case recorded != n.Fingerprint():
		return "fingerprint changed"
	case rebuiltDep != "":
		return fmt.Sprintf("dependency %s needs install", rebuiltDep)
	default:
		return ""
	}
}

func (w *walk) cycle(n *graph.Node) error {
	start := 0
	for i, s := range w.stack {
		if s == n {
			start = i
			break
		}
	}
	path := make([]string, 0, len(w.stack)-start+1)
	for _, s := range w.stack[start:] {
		path = append(path, s.Name)
	}
	return &CyclicDependencyError{Path: append(path, n.Name)}
}
