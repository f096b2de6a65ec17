package registry

import (
	"fmt"
	"strings"
)

// Kind selects a stat's evaluation variant. The set is closed.
type Kind int

const (
	// Flat is a single directly settable value.
	Flat Kind = iota + 1
	// Modifiable is a base value combined with modifiers.
	Modifiable
	// Complex combines named parts through a total expression.
	Complex
	// Tagged is Complex with parts filtered by query tag masks.
	Tagged
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case Flat:
		return "flat"
	case Modifiable:
		return "modifiable"
	case Complex:
		return "complex"
	case Tagged:
		return "tagged"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the four kinds.
func (k Kind) Valid() bool {
	return k >= Flat && k <= Tagged
}

// HasParts reports whether the kind evaluates named parts through a total expression.
func (k Kind) HasParts() bool {
	return k == Complex || k == Tagged
}

// ParseKind parses a kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat":
		return Flat, nil
	case "modifiable":
		return Modifiable, nil
	case "complex":
		return Complex, nil
	case "tagged":
		return Tagged, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Relationship is how a part combines its base with its modifiers.
type Relationship int

const (
	// Add sums contributions onto the base.
	Add Relationship = iota
	// Mul multiplies contributions into the base.
	Mul
)

// String returns "add" or "mul".
func (r Relationship) String() string {
	if r == Mul {
		return "mul"
	}
	return "add"
}

// Identity returns 0 for Add and 1 for Mul.
func (r Relationship) Identity() float64 {
	if r == Mul {
		return 1
	}
	return 0
}

// Combine folds v into acc.
func (r Relationship) Combine(acc, v float64) float64 {
	if r == Mul {
		return acc * v
	}
	return acc + v
}

// ParseRelationship parses "add" or "mul", case-insensitively.
func ParseRelationship(s string) (Relationship, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add", "additive", "sum":
		return Add, nil
	case "mul", "multiplicative", "product":
		return Mul, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRelationship, s)
	}
}
