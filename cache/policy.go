package cache

// Policy configures caching behavior.
type Policy struct {
	// MaxEntries bounds the number of cached entries; the least recently
	// used entry is evicted past it. Zero means unbounded.
	MaxEntries int

	// Disabled turns caching off; every load runs.
	Disabled bool
}

// DefaultPolicy returns the default caching policy: 4096 entries.
func DefaultPolicy() Policy {
	return Policy{MaxEntries: 4096}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{Disabled: true}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return !p.Disabled
}

// Bounded reports whether the policy limits the entry count.
func (p Policy) Bounded() bool {
	return p.MaxEntries > 0
}
