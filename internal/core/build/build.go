// Package build describes how fetched source is turned into artifacts
// installed under a shared prefix.
package build

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrNoStep is returned by SwitchOnPlatform when the host has no configured branch.
var ErrNoStep = errors.New("no build step for platform")

// Step is a closed set of build recipes: ConfigureAndMake, CopyInclude,
// MSBuild, Sequence and SwitchOnPlatform.
type Step interface {
	// Key is a stable identity string used for fingerprinting.
	Key() string
	// Build installs the package whose source is checked out at srcDir.
	Build(env Env, srcDir string) error
}

// Env is what a build step needs from the host.
type Env struct {
	// Prefix is the shared install prefix holding include/, lib/ and bin/.
	Prefix string
	// OS is a GOOS value; empty means runtime.GOOS.
	OS string
	// Runner executes external tools; nil means ExecRunner.
	Runner Runner
}

func (e Env) goos() string {
	if e.OS == "" {
		return runtime.GOOS
	}
	return e.OS
}

func (e Env) runner() Runner {
	if e.Runner == nil {
		return ExecRunner{}
	}
	return e.Runner
}

// BuildError reports a failed build step.
type BuildError struct {
	Step    string
	Command []string
	Err     error
}

func (e *BuildError) Error() string {
	if len(e.Command) == 0 {
		return fmt.Sprintf("build %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("build %s: %s: %v", e.Step, strings.Join(e.Command, " "), e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

func joinKeys(steps []Step) string {
	keys := make([]string, len(steps))
	for i, s := range steps {
		keys[i] = s.Key()
	}
	return strings.Join(keys, ",")
}
