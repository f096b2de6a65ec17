package observe

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type testKey struct{}

// TestMiddleware_SuccessPath verifies a successful op records telemetry.
func TestMiddleware_SuccessPath(t *testing.T) {
	tracer, recorder := newRecordingTracer()
	metrics, reader := newTestMetrics(t)
	var buf bytes.Buffer
	mw := NewMiddleware(tracer, metrics, NewLoggerWithWriter("debug", &buf))

	called := false
	err := mw.Run(context.Background(), OpMeta{Op: OpAddModifier, Entity: 1, Path: "Strength.base"}, func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("Run() = %v, called=%v", err, called)
	}

	if spans := recorder.Ended(); len(spans) != 1 || spans[0].Name() != "stats.add_modifier" {
		t.Errorf("unexpected spans: %v", spans)
	}
	if got := sumValue(t, collect(t, reader), MetricOpTotal); got != 1 {
		t.Errorf("%s = %d, want 1", MetricOpTotal, got)
	}
	if !strings.Contains(buf.String(), `"level":"info"`) || !strings.Contains(buf.String(), "stat operation completed") {
		t.Errorf("log output = %q", buf.String())
	}
}

// TestMiddleware_ErrorPath verifies errors are returned unchanged and recorded.
func TestMiddleware_ErrorPath(t *testing.T) {
	tracer, recorder := newRecordingTracer()
	metrics, reader := newTestMetrics(t)
	var buf bytes.Buffer
	mw := NewMiddleware(tracer, metrics, NewLoggerWithWriter("info", &buf))

	sentinel := errors.New("unknown source")
	err := mw.Run(context.Background(), OpMeta{Op: OpEvaluate}, func(context.Context) error {
		return sentinel
	})
	if err != sentinel {
		t.Fatalf("Run() = %v, want sentinel unchanged", err)
	}
	if got := sumValue(t, collect(t, reader), MetricOpErrors); got != 1 {
		t.Errorf("%s = %d, want 1", MetricOpErrors, got)
	}
	if len(recorder.Ended()) != 1 {
		t.Error("expected one span")
	}
	if !strings.Contains(buf.String(), `"error":"unknown source"`) {
		t.Errorf("log output = %q", buf.String())
	}
}

// TestMiddleware_ReadsLogAtDebug verifies successful reads stay below info.
func TestMiddleware_ReadsLogAtDebug(t *testing.T) {
	var buf bytes.Buffer
	mw := NewMiddleware(nil, nil, NewLoggerWithWriter("info", &buf))
	_ = mw.Run(context.Background(), OpMeta{Op: OpEvaluate}, func(context.Context) error { return nil })
	if buf.Len() != 0 {
		t.Errorf("expected no info output for a read, got %q", buf.String())
	}
}

// TestMiddleware_PropagatesContext verifies the span context reaches the body.
func TestMiddleware_PropagatesContext(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	mw := NewMiddleware(NewTracer(tp.Tracer("test")), nil, nil)

	ctx := context.WithValue(context.Background(), testKey{}, "v")
	_ = mw.Run(ctx, OpMeta{Op: OpSet}, func(inner context.Context) error {
		if inner.Value(testKey{}) != "v" {
			t.Error("context value lost")
		}
		return nil
	})
}

// TestMiddlewareFromObserver verifies construction from an Observer.
func TestMiddlewareFromObserver(t *testing.T) {
	if _, err := MiddlewareFromObserver(nil); !errors.Is(err, ErrNilObserver) {
		t.Errorf("MiddlewareFromObserver(nil) = %v, want ErrNilObserver", err)
	}

	obs, err := NewObserver(context.Background(), Config{ServiceName: "mw"})
	if err != nil {
		t.Fatalf("NewObserver failed: %v", err)
	}
	mw, err := MiddlewareFromObserver(obs)
	if err != nil || mw == nil {
		t.Fatalf("MiddlewareFromObserver() = %v, %v", mw, err)
	}
	if mw.Metrics() == nil || mw.Logger() == nil {
		t.Error("expected non-nil metrics and logger")
	}
}

// TestMiddleware_DisabledNoop verifies the no-op middleware still runs the body.
func TestMiddleware_DisabledNoop(t *testing.T) {
	called := false
	if err := NoopMiddleware().Run(context.Background(), OpMeta{Op: OpDestroy}, func(context.Context) error {
		called = true
		return nil
	}); err != nil || !called {
		t.Errorf("Run() = %v, called=%v", err, called)
	}
}
