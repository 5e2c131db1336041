package authz

import (
	"context"
	"sync"
	"time"
)

// DefaultPrincipalCacheTTL is the default time-to-live for cached principals.
const DefaultPrincipalCacheTTL = 10 * time.Second

type cacheEntry struct {
	principal Principal
	expiresAt time.Time
}

// CachedResolver wraps another PrincipalResolver with a short-lived in-memory
// cache so every authenticated request does not hit the accounts table.
// Lookup failures are never cached.
type CachedResolver struct {
	inner PrincipalResolver
	ttl   time.Duration
	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewCachedResolver creates a CachedResolver that wraps inner with the given TTL.
func NewCachedResolver(inner PrincipalResolver, ttl time.Duration) *CachedResolver {
	if ttl <= 0 {
		ttl = DefaultPrincipalCacheTTL
	}
	return &CachedResolver{
		inner: inner,
		ttl:   ttl,
		cache: make(map[string]cacheEntry),
	}
}

// ResolvePrincipal checks the cache first and delegates to the inner resolver on miss.
func (c *CachedResolver) ResolvePrincipal(ctx context.Context, employeeID string) (Principal, error) {
	key := NormalizeID(employeeID)

	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()

	if ok && time.Now().Before(entry.expiresAt) {
		return entry.principal, nil
	}

	p, err := c.inner.ResolvePrincipal(ctx, key)
	if err != nil {
		return Principal{}, err
	}

	c.mu.Lock()
	c.cache[key] = cacheEntry{principal: p, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return p, nil
}

// Invalidate drops any cached entry for employeeID, e.g. after a roster import.
func (c *CachedResolver) Invalidate(employeeID string) {
	c.mu.Lock()
	delete(c.cache, NormalizeID(employeeID))
	c.mu.Unlock()
}

// Purge drops every cached entry.
func (c *CachedResolver) Purge() {
	c.mu.Lock()
	c.cache = make(map[string]cacheEntry)
	c.mu.Unlock()
}
