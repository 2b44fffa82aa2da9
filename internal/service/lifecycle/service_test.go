package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeGuard struct {
	err    error
	checks int
}

func (g *fakeGuard) Check() error {
	g.checks++
	return g.err
}

type fakeGroup struct {
	ups, downs, restarts int
	logsService          []string
	logsErr              error
}

func (g *fakeGroup) Up(ctx context.Context) error {
	g.ups++
	return nil
}

func (g *fakeGroup) Down(ctx context.Context) error {
	g.downs++
	return nil
}

func (g *fakeGroup) Restart(ctx context.Context) error {
	g.restarts++
	return nil
}

func (g *fakeGroup) Ps(ctx context.Context, w io.Writer) error {
	return nil
}

func (g *fakeGroup) Logs(ctx context.Context, w io.Writer, tail int, service string) error {
	g.logsService = append(g.logsService, service)
	return g.logsErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(guard *fakeGuard, group *fakeGroup) Service {
	return New(guard, group, nil, io.Discard, 100, discardLogger())
}

func TestStartIsIdempotent(t *testing.T) {
	group := &fakeGroup{}
	svc := newTestService(&fakeGuard{}, group)

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("second start should succeed: %v", err)
	}
	if group.ups != 2 {
		t.Fatalf("expected two up calls, got %d", group.ups)
	}
}

func TestStartRechecksGuard(t *testing.T) {
	guard := &fakeGuard{err: errors.New("secrets missing")}
	group := &fakeGroup{}
	svc := newTestService(guard, group)

	if err := svc.Start(context.Background()); err == nil {
		t.Fatal("expected guard failure to propagate")
	}
	if group.ups != 0 {
		t.Fatal("group must not start when the guard fails")
	}
}

func TestStopAndRestartSkipGuard(t *testing.T) {
	guard := &fakeGuard{err: errors.New("secrets missing")}
	group := &fakeGroup{}
	svc := newTestService(guard, group)

	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("stop should not consult the guard: %v", err)
	}
	if err := svc.Restart(context.Background()); err != nil {
		t.Fatalf("restart should not consult the guard: %v", err)
	}
	if guard.checks != 0 {
		t.Fatalf("expected zero guard checks, got %d", guard.checks)
	}
}

func TestLogsStreamsAllOrOneSubsystem(t *testing.T) {
	group := &fakeGroup{}
	svc := newTestService(&fakeGuard{}, group)

	if err := svc.Logs(context.Background(), ""); err != nil {
		t.Fatalf("combined logs: %v", err)
	}
	if err := svc.Logs(context.Background(), "db"); err != nil {
		t.Fatalf("filtered logs: %v", err)
	}
	if len(group.logsService) != 2 || group.logsService[0] != "" || group.logsService[1] != "db" {
		t.Fatalf("expected [\"\" db], got %v", group.logsService)
	}
}

func TestLogsFailureIsBestEffort(t *testing.T) {
	group := &fakeGroup{logsErr: errors.New("pipe closed")}
	svc := newTestService(&fakeGuard{}, group)

	if err := svc.Logs(context.Background(), ""); err != nil {
		t.Fatalf("log streaming failure must not fail the command: %v", err)
	}
}
