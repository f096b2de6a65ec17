package stats

import (
	"strconv"

	"github.com/jonwraymond/statgauge/expr"
	"github.com/jonwraymond/statgauge/statpath"
	"github.com/jonwraymond/statgauge/tags"
)

// Modifier is one contribution to a stat part: a literal value, or an
// expression over other stats when Expr is non-empty.
//
// Tags restricts the modifier to queries whose mask covers it. Tags from the
// path a modifier is added through are merged in.
type Modifier struct {
	Value float64
	Expr  string
	Tags  tags.Mask
}

// Literal returns a literal modifier.
func Literal(v float64) Modifier {
	return Modifier{Value: v}
}

// Expression returns an expression modifier. Variables are stat paths,
// resolved on the entity holding the modifier.
func Expression(src string) Modifier {
	return Modifier{Expr: src}
}

// WithTags returns m restricted to mask.
func (m Modifier) WithTags(mask tags.Mask) Modifier {
	m.Tags |= mask
	return m
}

// IsExpression reports whether m is an expression modifier.
func (m Modifier) IsExpression() bool {
	return m.Expr != ""
}

// String formats m for logs.
func (m Modifier) String() string {
	s := m.Expr
	if !m.IsExpression() {
		s = strconv.FormatFloat(m.Value, 'g', -1, 64)
	}
	if m.Tags != tags.None {
		s += " [" + m.Tags.String() + "]"
	}
	return s
}

// same reports whether two normalized modifiers are equal for removal.
// Literal values compare with exact float equality.
func (m Modifier) same(o Modifier) bool {
	if m.Tags != o.Tags || m.Expr != o.Expr {
		return false
	}
	return m.IsExpression() || m.Value == o.Value
}

// entry is one distinct modifier of a part with its multiplicity.
type entry struct {
	mod     Modifier
	program *expr.Program
	refs    map[string]statpath.Path
	count   int
}

// modifierList is an insertion-ordered multiset of modifiers.
type modifierList struct {
	entries []*entry
}

// add inserts en, or bumps the count of an equal entry.
func (l *modifierList) add(en *entry) {
	for _, cur := range l.entries {
		if cur.mod.same(en.mod) {
			cur.count++
			return
		}
	}
	en.count = 1
	l.entries = append(l.entries, en)
}

// remove drops one instance of mod and returns its entry.
func (l *modifierList) remove(mod Modifier) (*entry, bool) {
	for i, cur := range l.entries {
		if !cur.mod.same(mod) {
			continue
		}
		cur.count--
		if cur.count == 0 {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
		}
		return cur, true
	}
	return nil, false
}

func (l *modifierList) len() int {
	n := 0
	for _, en := range l.entries {
		n += en.count
	}
	return n
}
