package expr

import (
	"testing"

	"github.com/jonwraymond/statgauge/cache"
)

func BenchmarkCompile(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Compile("base * (1 + increased) * more")
	}
}

func BenchmarkCompiler_Cached(b *testing.B) {
	c := NewCompiler(cache.DefaultPolicy())
	_, _ = c.Compile("base * (1 + increased) * more")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Compile("base * (1 + increased) * more")
	}
}

func BenchmarkProgram_Eval(b *testing.B) {
	p := MustCompile("base * (1 + increased) * more")
	resolve := func(string) (float64, error) { return 1.5, nil }

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = p.Eval(resolve)
	}
}
