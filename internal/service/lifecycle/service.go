// Package lifecycle provides the idempotent start/stop/restart/status
// commands over the managed service group.
package lifecycle

import (
	"context"
	"io"
	"log/slog"
)

// Orchestrator is the group-level surface of the container-orchestration
// collaborator.
type Orchestrator interface {
	Up(ctx context.Context) error
	Down(ctx context.Context) error
	Restart(ctx context.Context) error
	Ps(ctx context.Context, w io.Writer) error
	Logs(ctx context.Context, w io.Writer, tail int, service string) error
}

// Guard gates mutating commands on the secrets configuration.
type Guard interface {
	Check() error
}

// DaemonPinger reports Docker daemon connectivity.
type DaemonPinger interface {
	PingDaemon(ctx context.Context) error
}

// Service maps lifecycle verbs 1:1 onto group primitives.
type Service struct {
	guard   Guard
	group   Orchestrator
	daemon  DaemonPinger
	out     io.Writer
	logTail int
	logger  *slog.Logger
}

// New constructs a lifecycle service writing listings and logs to out.
func New(guard Guard, group Orchestrator, daemon DaemonPinger, out io.Writer, logTail int, logger *slog.Logger) Service {
	return Service{guard: guard, group: group, daemon: daemon, out: out, logTail: logTail, logger: logger}
}

// Start brings the full group up. It re-checks the environment guard;
// starting an already running group succeeds without error.
func (s Service) Start(ctx context.Context) error {
	if err := s.guard.Check(); err != nil {
		return err
	}
	s.logger.Info("starting service group")
	return s.group.Up(ctx)
}

// Stop takes the full group down. Stopping an already stopped group
// succeeds without error.
func (s Service) Stop(ctx context.Context) error {
	s.logger.Info("stopping service group")
	return s.group.Down(ctx)
}

// Restart restarts the full group.
func (s Service) Restart(ctx context.Context) error {
	s.logger.Info("restarting service group")
	return s.group.Restart(ctx)
}

// Status lists the group's processes. When a daemon pinger is wired a dead
// daemon reads as a clear error instead of a confusing listing failure.
func (s Service) Status(ctx context.Context) error {
	if s.daemon != nil {
		if err := s.daemon.PingDaemon(ctx); err != nil {
			return err
		}
	}
	return s.group.Ps(ctx, s.out)
}

// Logs streams recent output of the whole group, or of one named subsystem
// when service is non-empty. Streaming failures are best-effort: they are
// reported but never fail the command.
func (s Service) Logs(ctx context.Context, service string) error {
	if err := s.group.Logs(ctx, s.out, s.logTail, service); err != nil {
		s.logger.Warn("log streaming interrupted", "service", service, "error", err)
	}
	return nil
}
