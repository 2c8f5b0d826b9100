// Package engine drives fetch, build and ledger updates for a package and
// everything it depends on, in dependency order.
package engine

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nightconcept/minibrew-go/internal/core/build"
	"github.com/nightconcept/minibrew-go/internal/core/graph"
	"github.com/nightconcept/minibrew-go/internal/core/logfields"
	"github.com/nightconcept/minibrew-go/internal/core/walker"
)

// State is the position of one package in an install run.
type State string

const (
	Pending   State = "pending"
	Fetching  State = "fetching"
	Building  State = "building"
	Installed State = "installed"
	Failed    State = "failed"
)

// Phase names where an install failed.
const (
	PhaseFetch  = "fetch"
	PhaseBuild  = "build"
	PhaseRecord = "record"
)

// Ledger is the install ledger as seen by the engine.
type Ledger interface {
	walker.Installed
	Set(name, fingerprint string)
	Delete(name string)
	Persist() error
}

// Observer is notified of progress. Skipped packages never enter the state machine.
type Observer interface {
	Skipped(n *graph.Node)
	Transition(n *graph.Node, s State)
}

type nopObserver struct{}

func (nopObserver) Skipped(*graph.Node)           {}
func (nopObserver) Transition(*graph.Node, State) {}

// InstallError wraps the failure of one package.
type InstallError struct {
	Package string
	Phase   string
	Err     error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install %s: %s failed: %v", e.Package, e.Phase, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// Engine holds the package graph and the loaded ledger for one process.
type Engine struct {
	graph    *graph.Graph
	ledger   Ledger
	env      build.Env
	observer Observer
	log      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates an Engine.
func New(g *graph.Graph, l Ledger, env build.Env, opts ...Option) *Engine {
	e := &Engine{
		graph:    g,
		ledger:   l,
		env:      env,
		observer: nopObserver{},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Plan resolves rootName and classifies its dependency closure without side effects.
func (e *Engine) Plan(rootName string) (*walker.Plan, error) {
	root, err := e.graph.Lookup(rootName)
	if err != nil {
		return nil, err
	}
	return walker.Walk(root, e.ledger)
}

// Install brings rootName and its dependencies up to date. It stops at the
// first failure; packages completed before it stay recorded in the ledger.
func (e *Engine) Install(rootName string) error {
	plan, err := e.Plan(rootName)
	if err != nil {
		return err
	}

	for _, n := range plan.Skip {
		e.log.Debug("Skipping package", logfields.Package(n.Name), logfields.Fingerprint(n.Fingerprint()))
		e.observer.Skipped(n)
	}
	if plan.UpToDate() {
		e.log.Info("Everything up to date", logfields.Package(rootName))
		return nil
	}

	if e.env.Prefix != "" {
		if err := os.MkdirAll(e.env.Prefix, 0o755); err != nil {
			return fmt.Errorf("failed to create install prefix %s: %w", e.env.Prefix, err)
		}
	}

	for _, n := range plan.Build {
		e.transition(n, Pending)
		if err := e.installOne(n, plan.Reason(n)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) installOne(n *graph.Node, reason string) error {
	e.log.Info("Installing package", logfields.Package(n.Name), slog.String("reason", reason))

	e.transition(n, Fetching)
	if err := n.Source.Fetch(n.WorkDir()); err != nil {
		return e.fail(n, PhaseFetch, err)
	}

	e.transition(n, Building)
	if err := n.Step.Build(e.env, n.WorkDir()); err != nil {
		return e.fail(n, PhaseBuild, err)
	}

	fp := n.Fingerprint()
	prev, hadPrev := e.ledger.Get(n.Name)
	e.ledger.Set(n.Name, fp)
	if err := e.ledger.Persist(); err != nil {
		// Keep memory in line with disk so a later run in this process rebuilds it.
		if hadPrev {
			e.ledger.Set(n.Name, prev)
		} else {
			e.ledger.Delete(n.Name)
		}
		return e.fail(n, PhaseRecord, err)
	}

	e.transition(n, Installed)
	e.log.Info("Package installed", logfields.Package(n.Name), logfields.Fingerprint(fp))
	return nil
}

func (e *Engine) transition(n *graph.Node, s State) {
	e.log.Debug("Package state", logfields.Package(n.Name), logfields.State(string(s)))
	e.observer.Transition(n, s)
}

func (e *Engine) fail(n *graph.Node, phase string, err error) error {
	e.transition(n, Failed)
	e.log.Error("Package install failed", logfields.Package(n.Name), logfields.Phase(phase), logfields.Error(err))
	return &InstallError{Package: n.Name, Phase: phase, Err: err}
}
