// Package pool amortizes the cost of opening multiplexed Redis connections
// and spreads work across them. Open fails fast if the first PING does not
// succeed.
package pool

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectError wraps a failure to establish or verify the pool's first
// connection.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("pool: connect to %s: %v", e.Addr, e.Err)
}
func (e *ConnectError) Unwrap() error { return e.Err }

// Pool is N multiplexed go-redis clients selected round-robin by an atomic
// counter. A single *redis.Client already multiplexes its own pipeline;
// multiple clients here only spread kernel-level scheduling and TLS state
// across CPUs.
type Pool struct {
	clients []*redis.Client
	counter atomic.Uint64
}

// Open builds a pool of exactly n clients against url, failing with
// *ConnectError if the first PING does not succeed.
func Open(ctx context.Context, url string, n int) (*Pool, error) {
	if n < 1 {
		n = 1
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, &ConnectError{Addr: url, Err: err}
	}

	clients := make([]*redis.Client, 0, n)
	for i := 0; i < n; i++ {
		clients = append(clients, redis.NewClient(opts))
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := clients[0].Ping(pingCtx).Err(); err != nil {
		for _, c := range clients {
			_ = c.Close()
		}
		return nil, &ConnectError{Addr: url, Err: err}
	}

	return &Pool{clients: clients}, nil
}

// Acquire returns a client handle selected by counter.fetch_add(1) mod N.
// It never blocks and never fails.
func (p *Pool) Acquire() *redis.Client {
	idx := p.counter.Add(1) - 1
	return p.clients[int(idx)%len(p.clients)]
}

// Size returns the number of underlying connections.
func (p *Pool) Size() int { return len(p.clients) }

// Close shuts down every underlying client.
func (p *Pool) Close() error {
	var first error
	for _, c := range p.clients {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
