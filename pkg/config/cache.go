package config

import (
	"sync"
	"time"
)

// TTLCache is a tenant-keyed cache with a fixed time-to-live. It backs the
// catalog and tenant-settings lookups so each turn reads at most once per
// TTL window. Safe for concurrent use.
type TTLCache[V any] struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]ttlEntry[V]
	now     func() time.Time
}

type ttlEntry[V any] struct {
	value   V
	expires time.Time
}

// NewTTLCache creates a cache with the given TTL.
func NewTTLCache[V any](ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		ttl:     ttl,
		entries: make(map[string]ttlEntry[V]),
		now:     time.Now,
	}
}

// Get returns the cached value for key if present and unexpired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expires) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key for one TTL window.
func (c *TTLCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = ttlEntry[V]{value: value, expires: c.now().Add(c.ttl)}
}

// Invalidate drops the entry for key. Writes invalidate on the writing node
// only; other replicas converge within one TTL.
func (c *TTLCache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
