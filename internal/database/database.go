// Package database is the typed client for the database collaborator:
// dump-to-stream and readiness primitives, nothing more.
package database

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
)

// StreamExecer runs a command inside a running service with stdout attached
// to a writer.
type StreamExecer interface {
	ExecStream(ctx context.Context, service string, w io.Writer, cmd ...string) error
}

// Client exposes the two database primitives the orchestrator needs.
type Client struct {
	exec    StreamExecer
	service string
	user    string
	name    string
	dsn     string
}

// New returns a database client. Dumps run through the containerized
// pg_dump; readiness connects directly over the wire.
func New(exec StreamExecer, service, user, name, dsn string) Client {
	return Client{exec: exec, service: service, user: user, name: name, dsn: dsn}
}

// Dump writes a plain-SQL point-in-time dump to w.
func (c Client) Dump(ctx context.Context, w io.Writer) error {
	if err := c.exec.ExecStream(ctx, c.service, w, "pg_dump", "-U", c.user, c.name); err != nil {
		return fmt.Errorf("database dump: %w", err)
	}
	return nil
}

// Ready reports whether the database accepts connections.
func (c Client) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	conn, err := pgx.Connect(ctx, c.dsn)
	if err != nil {
		return fmt.Errorf("database connect: %w", err)
	}
	defer conn.Close(ctx)
	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}
