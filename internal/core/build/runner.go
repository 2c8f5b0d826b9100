package build

import (
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/nightconcept/minibrew-go/internal/core/logfields"
)

// Command is a single external tool invocation.
type Command struct {
	Args []string
	Dir  string
	// Env holds KEY=VALUE pairs added on top of the current environment.
	Env []string
}

// Runner executes external commands synchronously.
type Runner interface {
	Run(cmd Command) error
}

// ExecRunner runs commands as subprocesses, streaming their output.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (r ExecRunner) Run(cmd Command) error {
	slog.Debug("Running command", logfields.Command(cmd.Args), logfields.Path(cmd.Dir))

	c := exec.Command(cmd.Args[0], cmd.Args[1:]...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.Env...)
	c.Stdout = r.Stdout
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	c.Stderr = r.Stderr
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	return c.Run()
}
