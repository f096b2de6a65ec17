package cache

import (
	"fmt"
	"testing"
)

// BenchmarkMemoryCache_Get_Hit measures cache hit performance.
func BenchmarkMemoryCache_Get_Hit(b *testing.B) {
	c := NewMemoryCache[int](DefaultPolicy())
	c.Set("key", 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get("key")
	}
}

// BenchmarkMemoryCache_Set_Evicting measures insertion at capacity.
func BenchmarkMemoryCache_Set_Evicting(b *testing.B) {
	c := NewMemoryCache[int](Policy{MaxEntries: 128})
	keys := make([]string, 1024)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(keys[i%len(keys)], i)
	}
}

// BenchmarkLoader_Hit measures the loader fast path.
func BenchmarkLoader_Hit(b *testing.B) {
	l, _ := NewLoader[int](NewMemoryCache[int](DefaultPolicy()), nil, DefaultPolicy())
	load := func(string) (int, error) { return 1, nil }
	_, _ = l.GetOrLoad("base * (1 + increased)", load)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = l.GetOrLoad("base * (1 + increased)", load)
	}
}

// BenchmarkNormalizeKey measures source normalization.
func BenchmarkNormalizeKey(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = NormalizeKey("  Leader@Strength   *  0.1 ")
	}
}
