// Package webapp reaches the managed web application through its management
// entry points and one HTTP liveness path. Business logic stays on the other
// side of this boundary.
package webapp

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Execer runs a command inside a running service of the group.
type Execer interface {
	Exec(ctx context.Context, service string, env []string, cmd ...string) error
}

// Manage invokes the application's management commands inside its container.
type Manage struct {
	exec    Execer
	service string
}

// NewManage returns a management client bound to the web service.
func NewManage(exec Execer, service string) Manage {
	return Manage{exec: exec, service: service}
}

// Migrate applies pending schema changes synchronously.
func (m Manage) Migrate(ctx context.Context) error {
	if err := m.exec.Exec(ctx, m.service, nil, "python", "manage.py", "migrate", "--noinput"); err != nil {
		return fmt.Errorf("schema migration: %w", err)
	}
	return nil
}

// CollectStatic publishes static assets.
func (m Manage) CollectStatic(ctx context.Context) error {
	if err := m.exec.Exec(ctx, m.service, nil, "python", "manage.py", "collectstatic", "--noinput"); err != nil {
		return fmt.Errorf("publish static assets: %w", err)
	}
	return nil
}

// CreateSuperuser creates a privileged account non-interactively. Credentials
// are passed through the container environment so they never appear in the
// process argument list.
func (m Manage) CreateSuperuser(ctx context.Context, username, email, password string) error {
	env := []string{
		"DJANGO_SUPERUSER_USERNAME=" + username,
		"DJANGO_SUPERUSER_EMAIL=" + email,
		"DJANGO_SUPERUSER_PASSWORD=" + password,
	}
	if err := m.exec.Exec(ctx, m.service, env, "python", "manage.py", "createsuperuser", "--noinput"); err != nil {
		return fmt.Errorf("create superuser: %w", err)
	}
	return nil
}

// Liveness probes the application's documentation path over HTTP.
type Liveness struct {
	url    string
	client *http.Client
}

// NewLiveness returns a probe for the given URL.
func NewLiveness(url string) Liveness {
	return Liveness{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Probe issues one GET and returns the status code. A transport-level
// failure returns code 0 alongside the error.
func (l Liveness) Probe(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
