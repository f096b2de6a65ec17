package registry

import "errors"

// Sentinel errors for registry configuration.
var (
	// ErrRegistryFrozen indicates registration after Freeze.
	ErrRegistryFrozen = errors.New("registry: registry is frozen")

	// ErrUnknownKind indicates an unrecognized stat kind name.
	ErrUnknownKind = errors.New("registry: unknown stat kind")

	// ErrUnknownRelationship indicates an unrecognized relationship name.
	ErrUnknownRelationship = errors.New("registry: unknown relationship")

	// ErrInvalidName indicates a stat or part name that is not an identifier.
	ErrInvalidName = errors.New("registry: invalid name")

	// ErrInvalidTotal indicates a total expression that cannot be compiled or
	// does not fit the stat's kind.
	ErrInvalidTotal = errors.New("registry: invalid total expression")

	// ErrUnknownPart indicates a reference to a part the stat does not declare.
	ErrUnknownPart = errors.New("registry: unknown part")

	// ErrCyclicDependency indicates a total expression that closes a cycle
	// between stats.
	ErrCyclicDependency = errors.New("registry: cyclic dependency")
)
