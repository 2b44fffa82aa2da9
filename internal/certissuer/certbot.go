// Package certissuer invokes the certificate-issuer collaborator as an
// opaque external step. The issuance protocol itself is out of scope.
package certissuer

import (
	"context"
	"fmt"
)

// OneOffRunner runs a one-shot container for a declared service.
type OneOffRunner interface {
	RunOneOff(ctx context.Context, service string, cmd ...string) error
}

// Certbot requests certificates through the group's certbot service using a
// file-based webroot challenge, which requires a live plain-HTTP endpoint.
type Certbot struct {
	runner  OneOffRunner
	service string
	webroot string
	email   string
}

// New returns a certbot client.
func New(runner OneOffRunner, service, webroot, email string) Certbot {
	return Certbot{runner: runner, service: service, webroot: webroot, email: email}
}

// Obtain requests one certificate covering all given names. No retry: a
// failed issuance is reported and the caller stays on plain HTTP.
func (c Certbot) Obtain(ctx context.Context, domains []string) error {
	if len(domains) == 0 {
		return fmt.Errorf("certificate issuance: no domains configured")
	}
	if c.email == "" {
		return fmt.Errorf("certificate issuance: contact email not configured")
	}
	args := []string{
		"certonly",
		"--webroot",
		"--webroot-path", c.webroot,
		"--email", c.email,
		"--agree-tos",
		"--no-eff-email",
		"--non-interactive",
	}
	for _, d := range domains {
		args = append(args, "-d", d)
	}
	if err := c.runner.RunOneOff(ctx, c.service, args...); err != nil {
		return fmt.Errorf("certificate issuance: %w", err)
	}
	return nil
}
