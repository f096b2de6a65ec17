package stats

import (
	"github.com/jonwraymond/statgauge/expr"
	"github.com/jonwraymond/statgauge/observe"
)

// DefaultMaxDepth is the default recursion limit for one evaluation.
const DefaultMaxDepth = 64

// Option configures an Engine.
type Option func(*Engine)

// WithObserver instruments every engine operation with mw.
func WithObserver(mw *observe.Middleware) Option {
	return func(e *Engine) {
		if mw != nil {
			e.mw = mw
		}
	}
}

// WithLogger sets the logger for engine events. Defaults to the observer's logger.
func WithLogger(l observe.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxDepth sets the recursion limit. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// WithCompiler sets the compiler for expression modifiers. Defaults to the
// registry's compiler.
func WithCompiler(c *expr.Compiler) Option {
	return func(e *Engine) {
		if c != nil {
			e.compiler = c
		}
	}
}
