package expr

import (
	"sync/atomic"

	"github.com/jonwraymond/statgauge/cache"
)

// Compiler compiles expressions through a shared cache so identical
// sources share one Program.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Keys: sources that differ only in whitespace share an entry.
// - Errors: parse failures are returned and never cached.
type Compiler struct {
	loader   *cache.Loader[*Program]
	compiles atomic.Uint64
}

// NewCompiler creates a compiler backed by a MemoryCache with policy.
func NewCompiler(policy cache.Policy) *Compiler {
	c, err := NewCompilerWithCache(cache.NewMemoryCache[*Program](policy), policy)
	if err != nil {
		// Only reachable with a nil cache.
		panic(err)
	}
	return c
}

// NewCompilerWithCache creates a compiler backed by a caller-supplied cache.
func NewCompilerWithCache(c cache.Cache[*Program], policy cache.Policy) (*Compiler, error) {
	loader, err := cache.NewLoader[*Program](c, cache.NewDefaultKeyer(), policy)
	if err != nil {
		return nil, err
	}
	return &Compiler{loader: loader}, nil
}

// Compile returns the cached Program for src, compiling it on first use.
func (c *Compiler) Compile(src string) (*Program, error) {
	return c.loader.GetOrLoad(src, func(normalized string) (*Program, error) {
		c.compiles.Add(1)
		return Compile(normalized)
	})
}

// Compilations returns how many times a source was actually parsed.
func (c *Compiler) Compilations() uint64 {
	return c.compiles.Load()
}
