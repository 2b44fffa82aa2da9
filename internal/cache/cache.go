// Package cache is the typed client for the cache collaborator.
package cache

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// ExpectedReply is the literal a healthy cache answers to PING.
const ExpectedReply = "PONG"

// Pinger issues the cache ping primitive.
type Pinger struct {
	addr     string
	password string
	db       int
}

// NewPinger returns a pinger for the given redis endpoint.
func NewPinger(addr, password string, db int) Pinger {
	return Pinger{addr: addr, password: password, db: db}
}

// Ping connects, sends PING and returns the raw reply. The caller compares
// it against ExpectedReply; any other reply is a failure.
func (p Pinger) Ping(ctx context.Context) (string, error) {
	client := redis.NewClient(&redis.Options{Addr: p.addr, Password: p.password, DB: p.db})
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return client.Ping(ctx).Result()
}
