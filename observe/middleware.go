package observe

import (
	"context"
	"time"
)

// OpFunc is the body of one engine operation.
type OpFunc func(ctx context.Context) error

// Middleware wraps engine operations with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
// Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// NoopMiddleware returns a Middleware that records nothing.
func NoopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// Run executes fn inside a span, then records metrics and a log line.
// Reads that succeed log at debug level; mutations that succeed log at info.
func (m *Middleware) Run(ctx context.Context, meta OpMeta, fn OpFunc) error {
	ctx, span := m.tracer.StartSpan(ctx, meta)
	start := time.Now()

	err := fn(ctx)

	duration := time.Since(start)
	m.tracer.EndSpan(span, err)
	m.metrics.RecordOp(ctx, meta, duration, err)

	opLogger := m.logger.With(meta)
	fields := []Field{
		{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000},
	}
	switch {
	case err != nil:
		fields = append(fields, Field{Key: "error", Value: err.Error()})
		opLogger.Error(ctx, "stat operation failed", fields...)
	case meta.IsRead():
		opLogger.Debug(ctx, "stat operation completed", fields...)
	default:
		opLogger.Info(ctx, "stat operation completed", fields...)
	}
	return err
}

// Metrics returns the metrics recorder.
func (m *Middleware) Metrics() Metrics {
	return m.metrics
}

// Logger returns the logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
