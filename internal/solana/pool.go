package solana

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultFailureThreshold is the consecutive-failure count after which
// an endpoint is deprioritized.
const DefaultFailureThreshold = 3

// EndpointPool rotates requests across multiple RPC endpoints.
// Endpoints that fail repeatedly are deprioritized but never removed;
// a single success restores full standing.
type EndpointPool struct {
	mu        sync.Mutex
	endpoints []*pooledEndpoint
	next      int
	threshold int
}

type pooledEndpoint struct {
	client   RPCClient
	name     string
	failures int
}

func (e *pooledEndpoint) healthy(threshold int) bool {
	return e.failures < threshold
}

// PoolOption configures EndpointPool.
type PoolOption func(*EndpointPool)

// WithFailureThreshold sets the consecutive-failure count that
// deprioritizes an endpoint.
func WithFailureThreshold(n int) PoolOption {
	return func(p *EndpointPool) {
		if n > 0 {
			p.threshold = n
		}
	}
}

// NewEndpointPool creates a pool over the given clients.
func NewEndpointPool(clients []RPCClient, opts ...PoolOption) (*EndpointPool, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("endpoint pool requires at least one client")
	}

	p := &EndpointPool{threshold: DefaultFailureThreshold}
	for i, c := range clients {
		name := fmt.Sprintf("endpoint-%d", i)
		if hc, ok := c.(*HTTPClient); ok {
			name = hc.Endpoint()
		}
		p.endpoints = append(p.endpoints, &pooledEndpoint{client: c, name: name})
	}

	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Size returns the number of endpoints in the pool.
func (p *EndpointPool) Size() int {
	return len(p.endpoints)
}

// Healthy returns the number of endpoints below the failure threshold.
func (p *EndpointPool) Healthy() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, e := range p.endpoints {
		if e.healthy(p.threshold) {
			n++
		}
	}
	return n
}

// ordered returns endpoints starting at the rotation cursor, healthy
// endpoints first, deprioritized ones appended last.
func (p *EndpointPool) ordered() []*pooledEndpoint {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.endpoints)
	start := p.next
	p.next = (p.next + 1) % n

	var healthy, degraded []*pooledEndpoint
	for i := 0; i < n; i++ {
		e := p.endpoints[(start+i)%n]
		if e.healthy(p.threshold) {
			healthy = append(healthy, e)
		} else {
			degraded = append(degraded, e)
		}
	}
	return append(healthy, degraded...)
}

func (p *EndpointPool) recordSuccess(e *pooledEndpoint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e.failures = 0
}

func (p *EndpointPool) recordFailure(e *pooledEndpoint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e.failures++
	if e.failures == p.threshold {
		log.Warn().Str("endpoint", e.name).Int("failures", e.failures).
			Msg("endpoint deprioritized")
	}
}

// Do runs fn against successive endpoints until one succeeds.
// Every endpoint is tried at most once per call.
func (p *EndpointPool) Do(ctx context.Context, fn func(ctx context.Context, client RPCClient) error) error {
	var lastErr error

	for _, e := range p.ordered() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := fn(ctx, e.client); err != nil {
			p.recordFailure(e)
			lastErr = err
			continue
		}

		p.recordSuccess(e)
		return nil
	}

	return fmt.Errorf("all endpoints failed: %w", lastErr)
}
