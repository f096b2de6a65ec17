package observe

import (
	"context"
	"testing"
	"time"
)

func TestLoggerContract_With(t *testing.T) {
	logger := NewNoopLogger()
	if logger.With(OpMeta{Op: OpEvaluate}) == nil {
		t.Fatalf("With should return non-nil logger")
	}
}

func TestMetricsContract_NoPanic(t *testing.T) {
	metrics := &noopMetrics{}
	metrics.RecordOp(context.Background(), OpMeta{Op: OpEvaluate}, 10*time.Millisecond, nil)
	metrics.RecordCache(context.Background(), 1, 1)
	metrics.RecordInvalidations(context.Background(), 1)
}
