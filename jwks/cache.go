package jwks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// memoryCache is the default Cache. Entries are refreshed in the background
// once 80% of their TTL has elapsed, and expire at 100%.
type memoryCache struct {
	fetcher    *fetcher
	refreshTTL time.Duration
	now        func() time.Time

	mu      sync.RWMutex
	entries map[string]*cachedJWKS
}

type cachedJWKS struct {
	set        jwk.Set
	expiresAt  time.Time
	refreshAt  time.Time
	refreshing atomic.Bool
	fetchMu    sync.Mutex
}

func newMemoryCache(f *fetcher, ttl time.Duration) *memoryCache {
	return &memoryCache{
		fetcher:    f,
		refreshTTL: ttl,
		now:        time.Now,
		entries:    make(map[string]*cachedJWKS),
	}
}

func (c *memoryCache) Get(ctx context.Context, jwksURI string) (jwk.Set, error) {
	now := c.now()

	c.mu.RLock()
	cached, exists := c.entries[jwksURI]
	if exists && now.Before(cached.expiresAt) {
		result := cached.set
		shouldRefresh := now.After(cached.refreshAt)
		c.mu.RUnlock()

		if shouldRefresh && cached.refreshing.CompareAndSwap(false, true) {
			go c.backgroundRefresh(jwksURI, cached)
		}
		return result, nil
	}
	c.mu.RUnlock()

	if !exists {
		c.mu.Lock()
		if cached, exists = c.entries[jwksURI]; !exists {
			cached = &cachedJWKS{}
			c.entries[jwksURI] = cached
		}
		c.mu.Unlock()
	}

	// One fetch per URI at a time; waiters reuse its result.
	cached.fetchMu.Lock()
	defer cached.fetchMu.Unlock()

	c.mu.RLock()
	isValid := now.Before(cached.expiresAt)
	result := cached.set
	c.mu.RUnlock()
	if isValid {
		return result, nil
	}

	set, servedTTL, err := c.fetcher.fetch(ctx, jwksURI)
	if err != nil {
		return nil, fmt.Errorf("could not fetch JWKS: %w", err)
	}
	c.store(cached, set, servedTTL)

	return set, nil
}

func (c *memoryCache) store(cached *cachedJWKS, set jwk.Set, servedTTL time.Duration) {
	ttl := effectiveTTL(c.refreshTTL, servedTTL)
	now := c.now()

	c.mu.Lock()
	cached.set = set
	cached.expiresAt = now.Add(ttl)
	cached.refreshAt = now.Add(ttl * 4 / 5)
	c.mu.Unlock()
}

func (c *memoryCache) backgroundRefresh(jwksURI string, cached *cachedJWKS) {
	defer cached.refreshing.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	set, servedTTL, err := c.fetcher.fetch(ctx, jwksURI)
	if err != nil {
		// The current set stays in use until it expires.
		return
	}
	c.store(cached, set, servedTTL)
}
