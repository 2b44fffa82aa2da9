// Package bootstrap implements the two-step phase transition: insecure init
// first, TLS securing second. Certificate issuance deliberately never runs
// during init: the webroot challenge needs a live plain-HTTP endpoint, so
// the two phases must be invoked separately by the operator.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Guard gates both transitions on the secrets configuration.
type Guard interface {
	Check() error
}

// Router installs and swaps routing-config variants.
type Router interface {
	ActivateBootstrap() error
	ActivateSecured() error
}

// GroupStarter builds and starts the full service group.
type GroupStarter interface {
	Build(ctx context.Context) error
	Up(ctx context.Context) error
}

// Migrator applies pending schema changes synchronously.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// CertIssuer requests one certificate for the given names.
type CertIssuer interface {
	Obtain(ctx context.Context, domains []string) error
}

// ProxyRestarter restarts only the reverse-proxy container.
type ProxyRestarter interface {
	Restart(ctx context.Context) error
}

// Service drives init and ssl.
type Service struct {
	guard       Guard
	routing     Router
	group       GroupStarter
	migrator    Migrator
	certs       CertIssuer
	proxy       ProxyRestarter
	dirs        []string
	settleDelay time.Duration
	domain      string
	logger      *slog.Logger
}

// New constructs the bootstrap service. dirs are the persistent directories
// init creates; domain is the apex name certificates are issued for.
func New(guard Guard, routing Router, group GroupStarter, migrator Migrator, certs CertIssuer, proxy ProxyRestarter, dirs []string, settleDelay time.Duration, domain string, logger *slog.Logger) Service {
	return Service{
		guard:       guard,
		routing:     routing,
		group:       group,
		migrator:    migrator,
		certs:       certs,
		proxy:       proxy,
		dirs:        dirs,
		settleDelay: settleDelay,
		domain:      domain,
		logger:      logger,
	}
}

// Init performs the insecure bootstrap: directories, bootstrap routing
// variant, build and start of the full group, settle wait, then schema
// migration. Strictly ordered and fail-fast; there is no rollback, re-running
// init is the recovery path.
func (s Service) Init(ctx context.Context) error {
	if err := s.guard.Check(); err != nil {
		return err
	}

	for _, dir := range s.dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create persistent dir %s: %w", dir, err)
		}
	}

	s.logger.Info("installing bootstrap routing config")
	if err := s.routing.ActivateBootstrap(); err != nil {
		return err
	}

	s.logger.Info("building service group")
	if err := s.group.Build(ctx); err != nil {
		return err
	}
	s.logger.Info("starting service group")
	if err := s.group.Up(ctx); err != nil {
		return err
	}

	s.logger.Info("waiting for services to settle", "delay", s.settleDelay)
	if err := s.settle(ctx); err != nil {
		return err
	}

	s.logger.Info("applying schema migrations")
	if err := s.migrator.Migrate(ctx); err != nil {
		return err
	}

	s.logger.Info("init complete; run the ssl command once the site answers plain HTTP")
	return nil
}

// SSL requests a certificate for apex, www and api names, then swaps the
// secured routing variant into place and restarts only the proxy. A failed
// issuance leaves the system safely on the bootstrap variant; re-invocation
// is idempotent.
func (s Service) SSL(ctx context.Context) error {
	if err := s.guard.Check(); err != nil {
		return err
	}
	if s.domain == "" {
		return fmt.Errorf("ssl: domain not configured")
	}

	domains := []string{s.domain, "www." + s.domain, "api." + s.domain}
	s.logger.Info("requesting certificate", "domains", domains)
	if err := s.certs.Obtain(ctx, domains); err != nil {
		return err
	}

	s.logger.Info("activating secured routing config")
	if err := s.routing.ActivateSecured(); err != nil {
		return err
	}

	s.logger.Info("restarting proxy")
	if err := s.proxy.Restart(ctx); err != nil {
		return err
	}

	s.logger.Info("ssl complete")
	return nil
}

func (s Service) settle(ctx context.Context) error {
	if s.settleDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.settleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
