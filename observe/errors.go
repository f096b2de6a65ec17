package observe

import (
	"errors"

	"github.com/jonwraymond/statgauge/observe/exporters"
)

var (
	// ErrMissingServiceName indicates Config.ServiceName is empty.
	ErrMissingServiceName = errors.New("observe: service name is required")

	// ErrInvalidSamplePct indicates Tracing.SamplePct outside [0, 1].
	ErrInvalidSamplePct = errors.New("observe: sample percentage must be between 0.0 and 1.0")

	// ErrInvalidTracingExporter indicates an unknown tracing exporter name.
	ErrInvalidTracingExporter = errors.New("observe: invalid tracing exporter")

	// ErrInvalidMetricsExporter indicates an unknown metrics exporter name.
	ErrInvalidMetricsExporter = errors.New("observe: invalid metrics exporter")

	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("observe: invalid log level")

	// ErrNilObserver indicates a nil Observer was passed.
	ErrNilObserver = errors.New("observe: observer is nil")

	// ErrMissingOp indicates OpMeta.Op is empty.
	ErrMissingOp = errors.New("observe: operation name is required")
)

// Accepted configuration values. The empty string selects the default.
var (
	ValidTracingExporters = []string{exporters.OTLP, exporters.Jaeger, exporters.Stdout, exporters.None, ""}
	ValidMetricsExporters = []string{exporters.OTLP, exporters.Prometheus, exporters.Stdout, exporters.None, ""}
	ValidLogLevels        = []string{"debug", "info", "warn", "error", ""}
)
