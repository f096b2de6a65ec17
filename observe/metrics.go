package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Metric names.
const (
	MetricOpTotal         = "stats.op.total"
	MetricOpErrors        = "stats.op.errors"
	MetricOpDuration      = "stats.op.duration_ms"
	MetricCacheHits       = "stats.cache.hits"
	MetricRecomputeTotal  = "stats.recompute.total"
	MetricInvalidateTotal = "stats.invalidate.total"
)

// Metrics records engine metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordOp records one engine operation with duration and error status.
	RecordOp(ctx context.Context, meta OpMeta, duration time.Duration, err error)

	// RecordCache records cache hits and recomputations observed by one read.
	RecordCache(ctx context.Context, hits, recomputes int64)

	// RecordInvalidations records cache entries marked dirty by one mutation.
	RecordInvalidations(ctx context.Context, n int64)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter          metric.Meter
	totalCount     metric.Int64Counter
	errorCount     metric.Int64Counter
	durationHist   metric.Float64Histogram
	cacheHits      metric.Int64Counter
	recomputeCount metric.Int64Counter
	invalidations  metric.Int64Counter
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	m := &metricsImpl{meter: meter}
	var err error

	if m.totalCount, err = meter.Int64Counter(MetricOpTotal,
		metric.WithDescription("Total number of engine operations"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}

	if m.errorCount, err = meter.Int64Counter(MetricOpErrors,
		metric.WithDescription("Total number of failed engine operations"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if m.durationHist, err = meter.Float64Histogram(MetricOpDuration,
		metric.WithDescription("Engine operation duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.cacheHits, err = meter.Int64Counter(MetricCacheHits,
		metric.WithDescription("Reads served from a clean cache entry"),
		metric.WithUnit("{hit}"),
	); err != nil {
		return nil, err
	}

	if m.recomputeCount, err = meter.Int64Counter(MetricRecomputeTotal,
		metric.WithDescription("Stat values recomputed on read"),
		metric.WithUnit("{recompute}"),
	); err != nil {
		return nil, err
	}

	if m.invalidations, err = meter.Int64Counter(MetricInvalidateTotal,
		metric.WithDescription("Stats marked dirty by mutations"),
		metric.WithUnit("{stat}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordOp records metrics for an engine operation.
func (m *metricsImpl) RecordOp(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes(false)...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

// RecordCache records hits and recomputations.
func (m *metricsImpl) RecordCache(ctx context.Context, hits, recomputes int64) {
	if hits > 0 {
		m.cacheHits.Add(ctx, hits)
	}
	if recomputes > 0 {
		m.recomputeCount.Add(ctx, recomputes)
	}
}

// RecordInvalidations records dirtied stats.
func (m *metricsImpl) RecordInvalidations(ctx context.Context, n int64) {
	if n > 0 {
		m.invalidations.Add(ctx, n)
	}
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordOp(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
}
func (m *noopMetrics) RecordCache(ctx context.Context, hits, recomputes int64) {}
func (m *noopMetrics) RecordInvalidations(ctx context.Context, n int64)      {}
