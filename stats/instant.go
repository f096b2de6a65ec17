package stats

import (
	"context"
	"fmt"
	"math"

	"github.com/jonwraymond/statgauge/observe"
	"github.com/jonwraymond/statgauge/registry"
	"github.com/jonwraymond/statgauge/statpath"
	"github.com/jonwraymond/statgauge/tags"
)

// InstantOp is how an instant entry changes its target.
type InstantOp int

const (
	// InstantAssign overwrites the target.
	InstantAssign InstantOp = iota
	// InstantAdd adds to the target.
	InstantAdd
	// InstantSub subtracts from the target.
	InstantSub
)

func (op InstantOp) String() string {
	switch op {
	case InstantAssign:
		return "set"
	case InstantAdd:
		return "add"
	case InstantSub:
		return "sub"
	default:
		return fmt.Sprintf("InstantOp(%d)", int(op))
	}
}

// InstantEntry is one operation of an InstantSet.
type InstantEntry struct {
	Path  string
	Op    InstantOp
	Value Modifier
}

// InstantSet is a list of one-shot changes to settable values, such as the
// damage of a hit or the cost of a spell. Unlike a ModifierSet it leaves
// nothing behind to remove.
type InstantSet struct {
	entries []InstantEntry
}

// NewInstantSet returns an empty set.
func NewInstantSet() *InstantSet {
	return &InstantSet{}
}

// Assign appends an entry overwriting path with v and returns s.
func (s *InstantSet) Assign(path string, v Modifier) *InstantSet {
	return s.append(path, InstantAssign, v)
}

// Add appends an entry adding v to path and returns s.
func (s *InstantSet) Add(path string, v Modifier) *InstantSet {
	return s.append(path, InstantAdd, v)
}

// Sub appends an entry subtracting v from path and returns s.
func (s *InstantSet) Sub(path string, v Modifier) *InstantSet {
	return s.append(path, InstantSub, v)
}

func (s *InstantSet) append(path string, op InstantOp, v Modifier) *InstantSet {
	s.entries = append(s.entries, InstantEntry{Path: path, Op: op, Value: v})
	return s
}

// Entries returns a copy of the set's entries in insertion order.
func (s *InstantSet) Entries() []InstantEntry {
	return append([]InstantEntry(nil), s.entries...)
}

// Len returns the number of entries.
func (s *InstantSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// ApplyInstant applies set to ent.
//
// Contract:
// - Values: every entry's value is computed first, expressions against
// the state before any entry is applied. Expressions resolve on ent,
// including through its aliases.
// - Targets: the same targets Set accepts. Add and Sub change the settable
// value (a Flat value, a Modifiable base, or a Complex settable part), not
// the evaluated total, and accumulate across entries on the same target.
// - Atomicity: the set is applied entirely or not at all.
func (e *Engine) ApplyInstant(ctx context.Context, ent Entity, set *InstantSet) error {
	meta := observe.OpMeta{Op: observe.OpApplyInstant, Entity: uint64(ent)}
	return e.mutate(ctx, meta, func(m *mutation) error {
		if set.Len() == 0 {
			return nil
		}
		values, err := m.instantValues(ent, set)
		if err != nil {
			return err
		}

		type step struct {
			ent Entity
			p   statpath.Path
			v   float64
		}
		steps := make([]step, 0, len(set.entries))
		pending := make(map[StatRef]float64)
		for i, ie := range set.entries {
			p, err := e.reg.ParsePath(ie.Path)
			if err != nil {
				return err
			}
			target, p, kind, err := m.target(ent, p)
			if err != nil {
				return err
			}
			key := StatRef{Entity: target, Stat: p.Key()}
			cur, ok := pending[key]
			if !ok {
				if cur, err = e.settableLocked(target, p, kind); err != nil {
					return err
				}
			}

			v := values[i]
			switch ie.Op {
			case InstantAssign:
			case InstantAdd:
				v = cur + v
			case InstantSub:
				v = cur - v
			default:
				return fmt.Errorf("%w: %s on %s", ErrUnsupportedModifier, ie.Op, ie.Path)
			}
			if math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s %s overflows", ErrInvalidValue, ie.Op, ie.Path)
			}
			pending[key] = v
			steps = append(steps, step{ent: target, p: p, v: v})
		}

		for _, s := range steps {
			if err := m.set(s.ent, s.p, s.v); err != nil {
				return err
			}
		}
		m.log.Debug(m.ctx, "instant set applied", observe.Field{Key: "entries", Value: len(steps)})
		return nil
	})
}

// instantValues computes the value of every entry of set on ent.
func (m *mutation) instantValues(ent Entity, set *InstantSet) ([]float64, error) {
	e := m.e
	ev := e.newEvaluation()
	defer func() {
		e.hits.Add(uint64(ev.hits))
		e.recomputes.Add(uint64(ev.recomputes))
		e.mw.Metrics().RecordCache(m.ctx, ev.hits, ev.recomputes)
	}()
	resolve := ev.resolver(ent)

	out := make([]float64, len(set.entries))
	for i, ie := range set.entries {
		mod := ie.Value
		if mod.Tags != tags.None {
			return nil, fmt.Errorf("%w: tagged instant value on %s", ErrUnsupportedModifier, ie.Path)
		}
		if !mod.IsExpression() {
			if math.IsNaN(mod.Value) {
				return nil, fmt.Errorf("%w: NaN instant value on %s", ErrInvalidValue, ie.Path)
			}
			out[i] = mod.Value
			continue
		}
		prog, err := e.compiler.Compile(mod.Expr)
		if err != nil {
			return nil, err
		}
		if out[i], err = prog.Eval(resolve); err != nil {
			return nil, fmt.Errorf("%s: %w", ie.Path, err)
		}
	}
	return out, nil
}

// settableLocked returns the value Set would overwrite at the local path p.
func (e *Engine) settableLocked(ent Entity, p statpath.Path, kind registry.Kind) (float64, error) {
	inst := e.instanceLocked(ent, p.Stat)
	switch kind {
	case registry.Flat:
		return inst.value, nil
	case registry.Modifiable:
		return inst.base(e.reg, p.Stat, ""), nil
	case registry.Complex:
		settable := e.reg.SettablePart(p.Stat)
		if p.Part == "" || p.Part != settable {
			return 0, fmt.Errorf("%w: %s: only part %q of %s can be set", ErrNotSettable, p, settable, p.Stat)
		}
		return inst.base(e.reg, p.Stat, p.Part), nil
	default:
		return 0, fmt.Errorf("%w: %s: %s stats cannot be set", ErrNotSettable, p, kind)
	}
}
