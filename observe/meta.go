package observe

import (
	"go.opentelemetry.io/otel/attribute"
)

// Engine operation names.
const (
	OpEvaluate          = "evaluate"
	OpGetCached         = "get_cached"
	OpEvaluateMany      = "evaluate_many"
	OpAddModifier       = "add_modifier"
	OpRemoveModifier    = "remove_modifier"
	OpSet               = "set"
	OpRegisterSource    = "register_source"
	OpUnregisterSource  = "unregister_source"
	OpDestroy           = "destroy"
	OpApplySet          = "apply_set"
	OpRemoveSet         = "remove_set"
	OpCheckRequirements = "check_requirements"
	OpApplyInstant      = "apply_instant"
)

// OpMeta describes one engine operation for telemetry purposes.
type OpMeta struct {
	Op     string // Operation name (required), one of the Op* constants
	Entity uint64 // Entity the operation targets
	Path   string // Stat path as given by the caller (optional)
	Alias  string // Source alias for source operations (optional)
}

// SpanName returns the deterministic span name: stats.<op>.
func (m OpMeta) SpanName() string {
	return "stats." + m.Op
}

// Validate checks that the operation is named.
func (m OpMeta) Validate() error {
	if m.Op == "" {
		return ErrMissingOp
	}
	return nil
}

// IsRead reports whether the operation leaves engine state unchanged.
func (m OpMeta) IsRead() bool {
	switch m.Op {
	case OpEvaluate, OpGetCached, OpEvaluateMany, OpCheckRequirements:
		return true
	default:
		return false
	}
}

// attributes returns span and metric attributes. Paths are left out of
// metric attributes to bound cardinality.
func (m OpMeta) attributes(withDetail bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("stats.op", m.Op),
	}
	if !withDetail {
		return attrs
	}
	attrs = append(attrs, attribute.Int64("stats.entity", int64(m.Entity)))
	if m.Path != "" {
		attrs = append(attrs, attribute.String("stats.path", m.Path))
	}
	if m.Alias != "" {
		attrs = append(attrs, attribute.String("stats.alias", m.Alias))
	}
	return attrs
}
