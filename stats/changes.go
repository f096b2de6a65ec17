package stats

import (
	"cmp"
	"context"
	"maps"
	"slices"
)

// StatRef names one stat of one entity.
type StatRef struct {
	Entity Entity
	Stat   string
}

// Change describes one successful mutation.
//
// Contract:
// - Delivery: handlers run after the engine lock is released, on the
// mutating goroutine, so they may read from or mutate the engine.
// - Failed mutations produce no Change.
type Change struct {
	Op     string // observe.Op* constant of the mutation
	Entity Entity
	Path   string // path as given by the caller, if any
	Alias  string // alias for source operations, if any

	// Dirty lists the stats whose cached values the mutation invalidated,
	// the mutated stats included, sorted by entity then stat.
	Dirty []StatRef
}

// ChangeHandler receives engine changes.
type ChangeHandler func(ctx context.Context, c Change)

// WithChangeHandler registers h to be called after every successful
// mutation.
func WithChangeHandler(h ChangeHandler) Option {
	return func(e *Engine) {
		if h != nil {
			e.onChange = h
		}
	}
}

// touch records ref as invalidated when a change handler is registered.
func (m *mutation) touch(ref nodeRef) {
	if m.e.onChange == nil {
		return
	}
	if m.dirty == nil {
		m.dirty = make(map[StatRef]struct{})
	}
	m.dirty[StatRef{Entity: ref.ent, Stat: ref.stat}] = struct{}{}
}

func (m *mutation) change() Change {
	dirty := slices.SortedFunc(maps.Keys(m.dirty), func(a, b StatRef) int {
		if c := cmp.Compare(a.Entity, b.Entity); c != 0 {
			return c
		}
		return cmp.Compare(a.Stat, b.Stat)
	})
	return Change{
		Op:     m.meta.Op,
		Entity: Entity(m.meta.Entity),
		Path:   m.meta.Path,
		Alias:  m.meta.Alias,
		Dirty:  dirty,
	}
}
