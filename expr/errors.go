package expr

import "errors"

// Sentinel errors for compilation and evaluation.
var (
	// ErrParse indicates the source is not a valid arithmetic expression.
	ErrParse = errors.New("expr: parse error")

	// ErrEval indicates evaluation failed, including division by zero.
	ErrEval = errors.New("expr: evaluation error")
)
