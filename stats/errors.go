package stats

import (
	"errors"

	"github.com/jonwraymond/statgauge/expr"
	"github.com/jonwraymond/statgauge/registry"
	"github.com/jonwraymond/statgauge/statpath"
)

// Errors shared with the packages that detect them.
var (
	// ErrMalformedPath indicates an unparseable path, or a path whose shape
	// does not fit its stat (tags on an untagged stat).
	ErrMalformedPath = statpath.ErrMalformedPath

	// ErrUnknownPart indicates a part the stat does not have.
	ErrUnknownPart = registry.ErrUnknownPart

	// ErrCyclicDependency indicates an edge that would close a dependency cycle.
	ErrCyclicDependency = registry.ErrCyclicDependency

	// ErrEval indicates an evaluation failure, including the recursion guard.
	ErrEval = expr.ErrEval

	// ErrParse indicates an expression modifier that does not compile.
	ErrParse = expr.ErrParse
)

// Engine errors.
var (
	// ErrUnknownSource indicates an alias not registered on the querying entity.
	ErrUnknownSource = errors.New("stats: unknown source")

	// ErrNotSettable indicates Set on a target that cannot be assigned.
	ErrNotSettable = errors.New("stats: not settable")

	// ErrNoSuchModifier indicates RemoveModifier found no matching modifier.
	ErrNoSuchModifier = errors.New("stats: no such modifier")

	// ErrUnsupportedModifier indicates a modifier the target stat cannot hold.
	ErrUnsupportedModifier = errors.New("stats: unsupported modifier")

	// ErrInvalidValue indicates a NaN value.
	ErrInvalidValue = errors.New("stats: invalid value")

	// ErrNilRegistry indicates New was given a nil registry.
	ErrNilRegistry = errors.New("stats: registry is nil")
)
