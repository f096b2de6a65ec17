package observe

import (
	"context"

	"github.com/hashicorp/go-hclog"
)

// hcLogger forwards entries to a hashicorp/go-hclog logger, for hosts that
// already log through hclog. Level filtering is left to the wrapped logger.
type hcLogger struct {
	l hclog.Logger
}

// NewHCLogger adapts l to Logger. A nil l yields a no-op logger.
func NewHCLogger(l hclog.Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return hcLogger{l: l}
}

func (h hcLogger) With(meta OpMeta) Logger {
	args := []any{"stats.op", meta.Op, "stats.entity", meta.Entity}
	if meta.Path != "" {
		args = append(args, "stats.path", meta.Path)
	}
	if meta.Alias != "" {
		args = append(args, "stats.alias", meta.Alias)
	}
	return hcLogger{l: h.l.With(args...)}
}

func (h hcLogger) Debug(_ context.Context, msg string, fields ...Field) {
	h.l.Debug(msg, pairs(fields)...)
}

func (h hcLogger) Info(_ context.Context, msg string, fields ...Field) {
	h.l.Info(msg, pairs(fields)...)
}

func (h hcLogger) Warn(_ context.Context, msg string, fields ...Field) {
	h.l.Warn(msg, pairs(fields)...)
}

func (h hcLogger) Error(_ context.Context, msg string, fields ...Field) {
	h.l.Error(msg, pairs(fields)...)
}

func pairs(fields []Field) []any {
	if len(fields) == 0 {
		return nil
	}
	out := make([]any, 0, 2*len(fields))
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}

var _ Logger = hcLogger{}
