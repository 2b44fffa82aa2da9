// Package health polls three heterogeneous subsystems via their own
// protocols and reports each independently. No aggregate verdict is
// computed; the operator interprets the lines.
package health

import (
	"context"
	"fmt"

	"github.com/almaops/deployctl/internal/cache"
)

// Status of a single subsystem check.
type Status string

const (
	StatusOK   Status = "OK"
	StatusFail Status = "FAIL"
)

// Check is one ephemeral health line.
type Check struct {
	Subsystem string
	Status    Status
	Detail    string
}

// WebProber probes the web application's liveness path and returns the HTTP
// status code; transport errors return code 0.
type WebProber interface {
	Probe(ctx context.Context) (int, error)
}

// CachePinger returns the cache's raw ping reply.
type CachePinger interface {
	Ping(ctx context.Context) (string, error)
}

// DatabaseReadier reports database readiness.
type DatabaseReadier interface {
	Ready(ctx context.Context) error
}

// Service runs the three probes.
type Service struct {
	web WebProber
	ch  CachePinger
	db  DatabaseReadier
}

// New constructs the health probe.
func New(web WebProber, ch CachePinger, db DatabaseReadier) Service {
	return Service{web: web, ch: ch, db: db}
}

// Run executes all three checks without short-circuiting: one subsystem
// failing never suppresses the others' results. Always returns exactly
// three entries, in web/cache/database order.
func (s Service) Run(ctx context.Context) []Check {
	return []Check{
		s.checkWeb(ctx),
		s.checkCache(ctx),
		s.checkDatabase(ctx),
	}
}

func (s Service) checkWeb(ctx context.Context) Check {
	code, err := s.web.Probe(ctx)
	if err != nil {
		// Transport-level failure reads as code 000, mirroring curl.
		return Check{Subsystem: "web", Status: StatusFail, Detail: "000"}
	}
	if code != 200 {
		return Check{Subsystem: "web", Status: StatusFail, Detail: fmt.Sprintf("%03d", code)}
	}
	return Check{Subsystem: "web", Status: StatusOK, Detail: "200"}
}

func (s Service) checkCache(ctx context.Context) Check {
	reply, err := s.ch.Ping(ctx)
	if err != nil {
		return Check{Subsystem: "cache", Status: StatusFail, Detail: err.Error()}
	}
	if reply != cache.ExpectedReply {
		return Check{Subsystem: "cache", Status: StatusFail, Detail: fmt.Sprintf("unexpected reply %q", reply)}
	}
	return Check{Subsystem: "cache", Status: StatusOK, Detail: reply}
}

func (s Service) checkDatabase(ctx context.Context) Check {
	if err := s.db.Ready(ctx); err != nil {
		return Check{Subsystem: "database", Status: StatusFail, Detail: err.Error()}
	}
	return Check{Subsystem: "database", Status: StatusOK, Detail: "accepting connections"}
}
