package observe

import (
	"context"
	"io"
	"testing"
)

// BenchmarkLogger_Info measures logging throughput.
func BenchmarkLogger_Info(b *testing.B) {
	logger := NewLoggerWithWriter("info", io.Discard)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info(ctx, "benchmark message", Field{Key: "iteration", Value: i})
	}
}

// BenchmarkLogger_FilteredDebug measures the cost of a filtered-out entry.
func BenchmarkLogger_FilteredDebug(b *testing.B) {
	logger := NewLoggerWithWriter("info", io.Discard)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug(ctx, "dropped")
	}
}

// BenchmarkMiddleware_Noop measures the overhead of a disabled middleware.
func BenchmarkMiddleware_Noop(b *testing.B) {
	mw := NoopMiddleware()
	ctx := context.Background()
	meta := OpMeta{Op: OpEvaluate, Entity: 1, Path: "Strength"}
	fn := func(context.Context) error { return nil }

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = mw.Run(ctx, meta, fn)
	}
}
