package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

// Keyer derives deterministic cache keys from source text.
//
// Contract:
// - Determinism: sources that differ only in insignificant whitespace map
// to the same key.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key derives a cache key from src.
	Key(src string) (string, error)
}

// DefaultKeyer uses the normalized source as the key, hashing sources that
// would exceed MaxKeyLength.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key returns NormalizeKey(src), or sha256:<hex> of it when too long.
func (k *DefaultKeyer) Key(src string) (string, error) {
	key := NormalizeKey(src)
	if key == "" {
		return "", fmt.Errorf("%w: empty source", ErrInvalidKey)
	}
	if len(key) > MaxKeyLength {
		hash := sha256.Sum256([]byte(key))
		return "sha256:" + hex.EncodeToString(hash[:]), nil
	}
	return key, nil
}

// NormalizeKey trims src and collapses every whitespace run to one space.
func NormalizeKey(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	space := false
	for _, r := range strings.TrimSpace(src) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
