// Package update composes backup, fetch, rebuild, migrate and publish into
// one ordered workflow.
package update

import (
	"context"
	"fmt"
	"log/slog"
)

// StepError reports which workflow step failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("update step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Guard gates the workflow on the secrets configuration.
type Guard interface {
	Check() error
}

// Backupper creates a pre-update snapshot.
type Backupper interface {
	Backup(ctx context.Context) (string, error)
}

// Fetcher pulls the latest revision from the configured remote/branch.
type Fetcher interface {
	Fetch(ctx context.Context) error
}

// Rebuilder rebuilds and restarts the full service group.
type Rebuilder interface {
	Build(ctx context.Context) error
	Up(ctx context.Context) error
}

// Publisher applies schema changes and publishes static assets.
type Publisher interface {
	Migrate(ctx context.Context) error
	CollectStatic(ctx context.Context) error
}

// Service runs the update pipeline: a sequence of named fallible steps,
// each gating the next. The driver halts at the first failure and reports
// which step failed; already-applied steps are not undone. The backup step
// always precedes fetch, so a failed update leaves a pre-update snapshot
// available for manual restore.
type Service struct {
	guard   Guard
	backups Backupper
	fetch   Fetcher
	group   Rebuilder
	app     Publisher
	logger  *slog.Logger
}

// New constructs the update workflow.
func New(guard Guard, backups Backupper, fetch Fetcher, group Rebuilder, app Publisher, logger *slog.Logger) Service {
	return Service{guard: guard, backups: backups, fetch: fetch, group: group, app: app, logger: logger}
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

func (s Service) steps() []step {
	return []step{
		{"backup", func(ctx context.Context) error {
			_, err := s.backups.Backup(ctx)
			return err
		}},
		{"fetch", s.fetch.Fetch},
		{"build", s.group.Build},
		{"restart", s.group.Up},
		{"migrate", s.app.Migrate},
		{"collectstatic", s.app.CollectStatic},
	}
}

// Update executes the pipeline.
func (s Service) Update(ctx context.Context) error {
	if err := s.guard.Check(); err != nil {
		return err
	}
	for _, st := range s.steps() {
		s.logger.Info("update step starting", "step", st.name)
		if err := st.run(ctx); err != nil {
			s.logger.Error("update step failed", "step", st.name, "error", err)
			return &StepError{Step: st.name, Err: err}
		}
		s.logger.Info("update step done", "step", st.name)
	}
	s.logger.Info("update complete")
	return nil
}
