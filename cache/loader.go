package cache

import (
	"golang.org/x/sync/singleflight"
)

// LoadFunc produces the value for a key on a cache miss.
type LoadFunc[V any] func(key string) (V, error)

// Loader wraps a Cache with load-on-miss.
// Concurrent misses for the same key share one load. Errors are not cached.
type Loader[V any] struct {
	cache  Cache[V]
	keyer  Keyer
	policy Policy
	group  singleflight.Group
}

// NewLoader creates a loader. A nil keyer uses DefaultKeyer.
func NewLoader[V any](c Cache[V], keyer Keyer, policy Policy) (*Loader[V], error) {
	if c == nil {
		return nil, ErrNilCache
	}
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	return &Loader[V]{cache: c, keyer: keyer, policy: policy}, nil
}

// Get returns the cached value for src without loading.
func (l *Loader[V]) Get(src string) (V, bool) {
	key, err := l.keyer.Key(src)
	if err != nil {
		var zero V
		return zero, false
	}
	return l.cache.Get(key)
}

// GetOrLoad returns the cached value for src, running load on a miss.
// load receives the normalized source, not the derived key.
func (l *Loader[V]) GetOrLoad(src string, load LoadFunc[V]) (V, error) {
	var zero V
	if load == nil {
		return zero, ErrNilLoad
	}

	normalized := NormalizeKey(src)
	if !l.policy.ShouldCache() {
		return load(normalized)
	}

	key, err := l.keyer.Key(src)
	if err != nil {
		// Key derivation failed - load without caching
		return load(normalized)
	}

	if cached, ok := l.cache.Get(key); ok {
		return cached, nil
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		if cached, ok := l.cache.Get(key); ok {
			return cached, nil
		}
		value, err := load(normalized)
		if err != nil {
			return nil, err
		}
		l.cache.Set(key, value)
		return value, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(V), nil
}

// Forget removes src from the cache.
func (l *Loader[V]) Forget(src string) {
	if key, err := l.keyer.Key(src); err == nil {
		l.cache.Delete(key)
	}
}
