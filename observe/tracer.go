package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Tracer opens one span per engine operation.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span)
	EndSpan(span trace.Span, err error)
}

// opTracer names spans stats.<op> and marks failed operations.
type opTracer struct {
	tracer trace.Tracer
	detail bool
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return opTracer{tracer: t, detail: true}
}

func newNoopTracer() Tracer {
	return opTracer{tracer: tracenoop.NewTracerProvider().Tracer("statgauge")}
}

func (t opTracer) StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span) {
	if !t.detail {
		return t.tracer.Start(ctx, meta.SpanName())
	}
	attrs := append(meta.attributes(true), attribute.Bool("stats.error", false))
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

func (t opTracer) EndSpan(span trace.Span, err error) {
	defer span.End()
	if !t.detail {
		return
	}
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetAttributes(attribute.Bool("stats.error", true))
	span.SetStatus(codes.Error, err.Error())
}
