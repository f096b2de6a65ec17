package cache

import (
	"errors"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilCache   = errors.New("cache: cache is nil")
	ErrNilLoad    = errors.New("cache: load function is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Cache stores values by key.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Get never errors; it returns the zero value and false on miss.
// - Capacity: implementations may evict entries at any time.
type Cache[V any] interface {
	// Get retrieves a cached value.
	Get(key string) (V, bool)

	// Set stores a value, replacing any previous value for key.
	Set(key string, value V)

	// Delete removes a cached value. Idempotent.
	Delete(key string)

	// Len returns the number of cached entries.
	Len() int
}

// Stats reports cache activity.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Keys are single-line
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
