// Package compose is the typed client for the container-orchestration
// collaborator. It drives a declared docker compose service group; it never
// creates or removes group members, only operates on the declared set.
package compose

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/almaops/deployctl/internal/runner"
	"github.com/almaops/deployctl/pkg/config"
)

// Client wraps docker compose invocations for one project.
type Client struct {
	runner   runner.Runner
	dir      string
	file     string
	project  string
	services []string
}

// New constructs a compose client bound to the configured project and its
// declared service group.
func New(r runner.Runner, cfg config.DeployConfig) *Client {
	return &Client{
		runner:   r,
		dir:      cfg.ProjectDir,
		file:     cfg.ComposeFile,
		project:  cfg.ComposeProject,
		services: cfg.ServiceGroup(),
	}
}

func (c *Client) command(args ...string) runner.Command {
	base := []string{"compose", "-f", c.file, "-p", c.project}
	return runner.Command{
		Name: "docker",
		Args: append(base, args...),
		Dir:  c.dir,
	}
}

// Build builds images for the full service group.
func (c *Client) Build(ctx context.Context) error {
	return c.runner.Run(ctx, c.command("build"))
}

// Up starts the declared service group in the background. Starting an already
// running group succeeds without error.
func (c *Client) Up(ctx context.Context) error {
	args := append([]string{"up", "-d"}, c.services...)
	return c.runner.Run(ctx, c.command(args...))
}

// Down stops and removes the service group. Stopping an already stopped
// group succeeds without error.
func (c *Client) Down(ctx context.Context) error {
	return c.runner.Run(ctx, c.command("down"))
}

// Restart restarts the declared service group.
func (c *Client) Restart(ctx context.Context) error {
	args := append([]string{"restart"}, c.services...)
	return c.runner.Run(ctx, c.command(args...))
}

// Ps writes the service listing to w.
func (c *Client) Ps(ctx context.Context, w io.Writer) error {
	return c.runner.Stream(ctx, c.command("ps"), w, w)
}

// Logs streams recent output to w, filtered to one service when non-empty.
func (c *Client) Logs(ctx context.Context, w io.Writer, tail int, service string) error {
	args := []string{"logs", "--tail", strconv.Itoa(tail)}
	if service != "" {
		args = append(args, service)
	}
	return c.runner.Stream(ctx, c.command(args...), w, w)
}

// Exec runs a command inside a running service without a TTY. Extra
// environment entries are passed as KEY=VALUE pairs.
func (c *Client) Exec(ctx context.Context, service string, env []string, cmd ...string) error {
	if service == "" {
		return fmt.Errorf("compose exec: service name required")
	}
	args := []string{"exec", "-T"}
	for _, kv := range env {
		args = append(args, "-e", kv)
	}
	args = append(args, service)
	args = append(args, cmd...)
	return c.runner.Run(ctx, c.command(args...))
}

// ExecStream runs a command inside a running service with stdout redirected
// to w. Used for dump-to-stream primitives. Stderr is captured and folded
// into the returned error so a failed dump carries its diagnostic text.
func (c *Client) ExecStream(ctx context.Context, service string, w io.Writer, cmd ...string) error {
	if service == "" {
		return fmt.Errorf("compose exec: service name required")
	}
	args := append([]string{"exec", "-T", service}, cmd...)
	var diag bytes.Buffer
	if err := c.runner.Stream(ctx, c.command(args...), w, &diag); err != nil {
		if msg := strings.TrimSpace(diag.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// RunOneOff runs a one-shot container for the given service and removes it
// afterwards.
func (c *Client) RunOneOff(ctx context.Context, service string, cmd ...string) error {
	if service == "" {
		return fmt.Errorf("compose run: service name required")
	}
	args := append([]string{"run", "--rm", service}, cmd...)
	return c.runner.Run(ctx, c.command(args...))
}
