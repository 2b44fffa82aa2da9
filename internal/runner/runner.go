package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command describes one external process invocation.
type Command struct {
	Name  string
	Args  []string
	Dir   string
	Env   []string // appended to the inherited environment
	Stdin io.Reader
}

// Runner executes external commands. Implementations run each command to
// completion before returning; there is no retry anywhere.
type Runner interface {
	// Run executes the command and folds captured output into the returned
	// error on failure.
	Run(ctx context.Context, cmd Command) error
	// Stream executes the command with stdout and stderr attached to the
	// given writers, for log tailing and dump redirection.
	Stream(ctx context.Context, cmd Command, stdout, stderr io.Writer) error
}

// Exec is the production Runner backed by os/exec.
type Exec struct{}

// New returns an Exec runner.
func New() Exec {
	return Exec{}
}

func (Exec) build(ctx context.Context, cmd Command) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.Stdin = cmd.Stdin
	return c
}

func (e Exec) Run(ctx context.Context, cmd Command) error {
	output, err := e.build(ctx, cmd).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", cmd.Name, strings.Join(cmd.Args, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (e Exec) Stream(ctx context.Context, cmd Command, stdout, stderr io.Writer) error {
	c := e.build(ctx, cmd)
	c.Stdout = stdout
	c.Stderr = stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", cmd.Name, strings.Join(cmd.Args, " "), err)
	}
	return nil
}

// ExitCode extracts the subprocess exit code carried by err, or -1 when the
// error did not originate from a finished process.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
