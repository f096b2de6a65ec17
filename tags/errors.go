package tags

import "errors"

// Sentinel errors for tag registration.
var (
	// ErrInvalidName indicates a tag name that is not an identifier.
	ErrInvalidName = errors.New("tags: invalid tag name")

	// ErrDuplicateTag indicates a tag or category name is already registered.
	ErrDuplicateTag = errors.New("tags: tag already registered")

	// ErrBitInUse indicates an explicit bit collides with a registered tag.
	ErrBitInUse = errors.New("tags: bit already in use")

	// ErrNotSingleBit indicates an explicit tag bit has zero or several bits set.
	ErrNotSingleBit = errors.New("tags: tag bit must have exactly one bit set")

	// ErrExhausted indicates all 32 tag bits are in use.
	ErrExhausted = errors.New("tags: no free tag bits")

	// ErrEmptyCategory indicates a category registered without members.
	ErrEmptyCategory = errors.New("tags: category has no members")

	// ErrFrozen indicates registration on a frozen universe.
	ErrFrozen = errors.New("tags: universe is frozen")
)
