// Package cache is a small in-process TTL cache. Expired entries are never
// returned; there is no stale-while-error mode.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	data      V
	expiresAt time.Time
}

type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]
	ttl   time.Duration
	now   func() time.Time
}

// New returns a cache holding entries for ttl. A ttl of zero or less
// disables it: Set is a no-op and Get always misses.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{items: make(map[string]entry[V]), ttl: ttl, now: time.Now}
}

func (c *Cache[V]) Enabled() bool {
	return c != nil && c.ttl > 0
}

func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	if !c.Enabled() {
		return zero, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return zero, false
	}
	return e.data, true
}

func (c *Cache[V]) Set(key string, data V) {
	if !c.Enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.items[key] = entry[V]{data: data, expiresAt: now.Add(c.ttl)}
	// Drop expired entries while we hold the lock so the map stays bounded
	// by the set of sensors seen within one ttl.
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
		}
	}
}

// Len counts stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
