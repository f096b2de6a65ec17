// Package observe provides observability primitives for stat engine operations.
//
// It is a pure instrumentation library: an Observer owns the OpenTelemetry
// tracer and meter providers and a structured logger, and a Middleware wraps
// each engine operation with a span, metrics, and a log line. With every
// subsystem disabled it degrades to no-ops.
//
// Hosts that already log through hashicorp/go-hclog can pass NewHCLogger(l)
// wherever a Logger is accepted.
package observe
