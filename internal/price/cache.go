package price

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/solana"
)

// DefaultTTL bounds how long a cached curve snapshot serves reads.
const DefaultTTL = 2 * time.Second

// ErrCurveNotFound is returned when the bonding curve account does not
// exist, which happens after migration to a DEX closes it.
var ErrCurveNotFound = errors.New("bonding curve account not found")

type cacheEntry struct {
	state     *domain.BondingCurveState
	fetchedAt time.Time
}

// Cache is a read-through TTL cache of bonding curve states keyed by
// curve address. Concurrent readers of a fresh entry share one
// snapshot; a stale entry triggers a single refetch per caller.
type Cache struct {
	pool *solana.EndpointPool
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type CacheOption func(*Cache)

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCache(pool *solana.EndpointPool, opts ...CacheOption) (*Cache, error) {
	if pool == nil {
		return nil, errors.New("endpoint pool is required")
	}
	c := &Cache{
		pool:    pool,
		ttl:     DefaultTTL,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the curve state for the given curve address, fetching
// from an RPC endpoint when the cached snapshot is missing or stale.
func (c *Cache) Get(ctx context.Context, curveAddr string) (*domain.BondingCurveState, error) {
	c.mu.RLock()
	entry, ok := c.entries[curveAddr]
	c.mu.RUnlock()

	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.state, nil
	}

	state, err := c.fetch(ctx, curveAddr)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[curveAddr] = cacheEntry{state: state, fetchedAt: c.now()}
	size := len(c.entries)
	c.mu.Unlock()
	observability.UpdatePriceCacheSize(size)

	return state, nil
}

// Invalidate drops the cached snapshot for a curve, typically after a
// position in it closes.
func (c *Cache) Invalidate(curveAddr string) {
	c.mu.Lock()
	delete(c.entries, curveAddr)
	size := len(c.entries)
	c.mu.Unlock()
	observability.UpdatePriceCacheSize(size)
}

// Len returns the number of cached curves.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) fetch(ctx context.Context, curveAddr string) (*domain.BondingCurveState, error) {
	var info *solana.AccountInfo
	err := c.pool.Do(ctx, func(ctx context.Context, client solana.RPCClient) error {
		var callErr error
		info, callErr = client.GetAccountInfo(ctx, curveAddr)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrCurveNotFound, curveAddr)
	}
	data, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode curve account %s: %w", curveAddr, err)
	}
	return domain.DecodeBondingCurve(data)
}
