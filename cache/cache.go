// Package cache provides an in-process TTL cache for listing views.
// It replaces ad hoc per-request memoization with an explicit
// abstraction whose staleness tests can control deterministically via
// an injected clock.
package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL is the freshness window for cached listing views.
const DefaultTTL = 30 * time.Second

// Clock returns the current time; swapped out in tests.
type Clock func() time.Time

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a thread-safe key→value store with per-cache TTL.
type Cache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	now   Clock
	items map[string]entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock injects a clock, letting tests advance time explicitly.
func WithClock(now Clock) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache with the given TTL (DefaultTTL if ttl <= 0).
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key if present and fresh.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the cache's TTL.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.items[key] = entry{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops a single key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// InvalidatePrefix drops every key with the given prefix. Listing views
// share a key prefix so one capsule creation clears them all.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
}
