package health

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkAggregator_Run(b *testing.B) {
	agg := NewAggregator()
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("check-%d", i)
		agg.Register(name, fixed(name, Healthy("ok")))
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		agg.Run(ctx)
	}
}

func BenchmarkAggregator_RunSequential(b *testing.B) {
	agg := NewAggregator(AggregatorConfig{Concurrency: 1})
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("check-%d", i)
		agg.Register(name, fixed(name, Healthy("ok")))
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		agg.Run(ctx)
	}
}
