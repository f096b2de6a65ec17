package exporters

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

// TestExporter_InvalidName verifies unknown exporter names return ErrUnknownExporter.
func TestExporter_InvalidName(t *testing.T) {
	if _, err := NewTracingExporter(context.Background(), "invalid"); !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("NewTracingExporter error = %v, want ErrUnknownExporter", err)
	}
	if _, err := NewMetricsReader(context.Background(), "badvalue"); !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("NewMetricsReader error = %v, want ErrUnknownExporter", err)
	}
}

// TestExporter_StdoutTracing verifies stdout tracing exporter with a custom writer.
func TestExporter_StdoutTracing(t *testing.T) {
	var buf bytes.Buffer
	exp, err := NewTracingExporterWithOptions(context.Background(), Stdout, Options{Writer: &buf})
	if err != nil {
		t.Fatalf("failed to create stdout tracing exporter: %v", err)
	}
	if exp == nil {
		t.Fatal("expected non-nil exporter")
	}
}

// TestExporter_StdoutMetrics verifies stdout metrics reader.
func TestExporter_StdoutMetrics(t *testing.T) {
	reader, err := NewMetricsReader(context.Background(), Stdout)
	if err != nil {
		t.Fatalf("failed to create stdout metrics reader: %v", err)
	}
	if reader == nil {
		t.Fatal("expected non-nil reader")
	}
}

// TestExporter_OtlpMissingEndpoint verifies OTLP without endpoint env fails.
func TestExporter_OtlpMissingEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")

	if _, err := NewTracingExporter(context.Background(), OTLP); !errors.Is(err, ErrEndpointNotConfigured) {
		t.Errorf("tracing error = %v, want ErrEndpointNotConfigured", err)
	}
	if _, err := NewMetricsReader(context.Background(), OTLP); !errors.Is(err, ErrEndpointNotConfigured) {
		t.Errorf("metrics error = %v, want ErrEndpointNotConfigured", err)
	}
}

// TestExporter_OtlpWithEndpoint verifies OTLP with endpoint env succeeds.
func TestExporter_OtlpWithEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4317")

	exp, err := NewTracingExporter(context.Background(), OTLP)
	if err != nil {
		t.Fatalf("failed to create OTLP exporter with endpoint: %v", err)
	}
	if exp == nil {
		t.Fatal("expected non-nil exporter")
	}
}

// TestExporter_JaegerMissingEndpoint verifies Jaeger without endpoint fails.
func TestExporter_JaegerMissingEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_JAEGER_ENDPOINT", "")

	if _, err := NewTracingExporter(context.Background(), Jaeger); !errors.Is(err, ErrEndpointNotConfigured) {
		t.Errorf("error = %v, want ErrEndpointNotConfigured", err)
	}
}

// TestExporter_PrometheusReturnsReader verifies Prometheus metrics reader.
func TestExporter_PrometheusReturnsReader(t *testing.T) {
	reader, err := NewMetricsReader(context.Background(), Prometheus)
	if err != nil {
		t.Fatalf("failed to create Prometheus reader: %v", err)
	}
	if reader == nil {
		t.Fatal("expected non-nil reader")
	}
}

// TestExporter_None verifies 'none' and empty names build discarding exporters.
func TestExporter_None(t *testing.T) {
	for _, name := range []string{None, ""} {
		if _, err := NewTracingExporter(context.Background(), name); err != nil {
			t.Errorf("NewTracingExporter(%q) error = %v", name, err)
		}
		if _, err := NewMetricsReader(context.Background(), name); err != nil {
			t.Errorf("NewMetricsReader(%q) error = %v", name, err)
		}
	}
}
