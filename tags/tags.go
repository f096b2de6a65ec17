package tags

import (
	"math/bits"
	"strconv"
)

// Mask is a set of tag bits.
type Mask uint32

// None is the empty mask. Untagged modifiers carry it and it matches every query.
const None Mask = 0

// Matches reports whether a modifier tagged with mod contributes to a query
// tagged with query: the modifier's tags must be a subset of the query's.
func Matches(mod, query Mask) bool {
	return query&mod == mod
}

// HasAll reports whether every bit of other is set in m.
func (m Mask) HasAll(other Mask) bool {
	return m&other == other
}

// HasAny reports whether m and other share at least one bit.
func (m Mask) HasAny(other Mask) bool {
	return m&other != 0
}

// IsEmpty reports whether no bits are set.
func (m Mask) IsEmpty() bool {
	return m == 0
}

// Count returns the number of bits set.
func (m Mask) Count() int {
	return bits.OnesCount32(uint32(m))
}

// Union returns m | other.
func (m Mask) Union(other Mask) Mask {
	return m | other
}

// String returns the decimal form used in the canonical stat path syntax.
func (m Mask) String() string {
	return strconv.FormatUint(uint64(m), 10)
}

// Bits returns the individual single-bit masks of m in ascending order.
func (m Mask) Bits() []Mask {
	out := make([]Mask, 0, m.Count())
	for v := uint32(m); v != 0; v &= v - 1 {
		out = append(out, Mask(v&-v))
	}
	return out
}
