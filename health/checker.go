package health

import (
	"context"
	"time"
)

// Status is the outcome class of a check. Larger is worse.
type Status int

const (
	// StatusHealthy indicates no problem was found.
	StatusHealthy Status = iota
	// StatusDegraded indicates a problem that does not affect correctness.
	StatusDegraded
	// StatusUnhealthy indicates state that can produce wrong results.
	StatusUnhealthy
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result is the outcome of one check. Details carry check-specific counts
// such as the number of source bindings inspected.
type Result struct {
	Status    Status
	Message   string
	Details   map[string]any
	Duration  time.Duration
	Timestamp time.Time
	Error     error
}

func newResult(status Status, message string, err error) Result {
	return Result{Status: status, Message: message, Error: err, Timestamp: time.Now()}
}

// Healthy reports no problem.
func Healthy(message string) Result { return newResult(StatusHealthy, message, nil) }

// Degraded reports a problem that does not affect evaluated values.
func Degraded(message string) Result { return newResult(StatusDegraded, message, nil) }

// Unhealthy reports a problem that can produce wrong values.
func Unhealthy(message string, err error) Result { return newResult(StatusUnhealthy, message, err) }

// WithDetails returns a copy of r carrying details.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// Checker is one diagnostic.
//
// Contract:
// - Concurrency: Check may run concurrently with other checkers.
// - Context: Check should return promptly once ctx is done.
// - Errors: problems are reported in the Result, never by panicking.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a function to a named Checker.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a Checker from fn.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

// Name returns the checker's name.
func (f *CheckerFunc) Name() string {
	return f.name
}

// Check runs fn.
func (f *CheckerFunc) Check(ctx context.Context) Result {
	return f.fn(ctx)
}
