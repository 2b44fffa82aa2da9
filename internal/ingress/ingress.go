// Package ingress manages the reverse-proxy container through the Docker
// daemon, independently of the compose surface.
package ingress

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
)

// Proxy restarts the reverse-proxy container after a routing-config swap and
// exposes daemon connectivity for status reporting.
type Proxy struct {
	client    *client.Client
	container string
}

// New constructs a proxy controller for the named container.
func New(container string) (*Proxy, error) {
	container = strings.TrimSpace(container)
	if container == "" {
		return nil, fmt.Errorf("proxy container name required")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &Proxy{client: cli, container: container}, nil
}

// Restart restarts only the proxy container, not the whole group.
func (p *Proxy) Restart(ctx context.Context) error {
	if err := p.client.ContainerRestart(ctx, p.container, container.StopOptions{}); err != nil {
		if errdefs.IsNotFound(err) {
			return fmt.Errorf("proxy container %s not found", p.container)
		}
		return fmt.Errorf("restart proxy: %w", err)
	}
	return nil
}

// PingDaemon validates connectivity to the Docker daemon.
func (p *Proxy) PingDaemon(ctx context.Context) error {
	ping, err := p.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("docker ping: %w", err)
	}
	if ping.APIVersion == "" {
		return fmt.Errorf("docker ping returned empty API version")
	}
	return nil
}

// Close releases resources held by the Docker client.
func (p *Proxy) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
