package cache

import (
	"math"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryCache is an in-memory LRU cache backed by golang-lru.
type MemoryCache[V any] struct {
	lru    *lru.Cache[string, V]
	policy Policy

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewMemoryCache creates a new in-memory cache with the given policy. An
// unbounded policy never evicts.
func NewMemoryCache[V any](policy Policy) *MemoryCache[V] {
	size := math.MaxInt
	if policy.Bounded() {
		size = policy.MaxEntries
	}
	l, err := lru.New[string, V](size)
	if err != nil {
		// size is always positive.
		panic(err)
	}
	return &MemoryCache[V]{lru: l, policy: policy}
}

// Get retrieves a value and marks it most recently used.
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		return v, false
	}
	c.hits.Add(1)
	return v, true
}

// Set stores a value. A disabled policy stores nothing.
func (c *MemoryCache[V]) Set(key string, value V) {
	if !c.policy.ShouldCache() {
		return
	}
	if evicted := c.lru.Add(key, value); evicted {
		c.evictions.Add(1)
	}
}

// Delete removes a value from the cache. Idempotent - no error on miss.
func (c *MemoryCache[V]) Delete(key string) {
	c.lru.Remove(key)
}

// Len returns the number of cached entries.
func (c *MemoryCache[V]) Len() int {
	return c.lru.Len()
}

// Stats returns a snapshot of hit, miss, and eviction counts.
func (c *MemoryCache[V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Ensure MemoryCache implements Cache
var _ Cache[int] = (*MemoryCache[int])(nil)
