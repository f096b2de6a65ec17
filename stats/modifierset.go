package stats

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/jonwraymond/statgauge/observe"
	"github.com/jonwraymond/statgauge/statpath"
)

// SetEntry is one modifier of a ModifierSet.
type SetEntry struct {
	Path     string
	Modifier Modifier
}

// ModifierSet groups modifiers applied and removed as a unit, such as the
// bonuses of one item or buff.
type ModifierSet struct {
	entries []SetEntry
}

// NewModifierSet returns an empty set.
func NewModifierSet() *ModifierSet {
	return &ModifierSet{}
}

// Add appends a modifier on path and returns s.
func (s *ModifierSet) Add(path string, mod Modifier) *ModifierSet {
	s.entries = append(s.entries, SetEntry{Path: path, Modifier: mod})
	return s
}

// Entries returns a copy of the set's entries in insertion order.
func (s *ModifierSet) Entries() []SetEntry {
	return append([]SetEntry(nil), s.entries...)
}

// Len returns the number of entries.
func (s *ModifierSet) Len() int {
	return len(s.entries)
}

// ApplySet adds every modifier of set to ent. On failure the modifiers
// already added are removed again and nothing changes.
func (e *Engine) ApplySet(ctx context.Context, ent Entity, set *ModifierSet) error {
	meta := observe.OpMeta{Op: observe.OpApplySet, Entity: uint64(ent)}
	return e.mutate(ctx, meta, func(m *mutation) error {
		if set == nil {
			return nil
		}
		paths, err := e.parseSet(set)
		if err != nil {
			return err
		}
		for i, se := range set.entries {
			if err := m.addModifier(ent, paths[i], se.Modifier); err != nil {
				err = fmt.Errorf("apply %s: %w", se.Path, err)
				return m.rollback(err, set.entries[:i], func(j int) error {
					return m.removeModifier(ent, paths[j], set.entries[j].Modifier)
				})
			}
		}
		return nil
	})
}

// RemoveSet removes every modifier of set from ent. On failure the
// modifiers already removed are added back and nothing changes.
func (e *Engine) RemoveSet(ctx context.Context, ent Entity, set *ModifierSet) error {
	meta := observe.OpMeta{Op: observe.OpRemoveSet, Entity: uint64(ent)}
	return e.mutate(ctx, meta, func(m *mutation) error {
		if set == nil {
			return nil
		}
		paths, err := e.parseSet(set)
		if err != nil {
			return err
		}
		for i, se := range set.entries {
			if err := m.removeModifier(ent, paths[i], se.Modifier); err != nil {
				err = fmt.Errorf("remove %s: %w", se.Path, err)
				return m.rollback(err, set.entries[:i], func(j int) error {
					return m.addModifier(ent, paths[j], set.entries[j].Modifier)
				})
			}
		}
		return nil
	})
}

// rollback undoes done in reverse order. Undo failures are logged and
// returned together with cause.
func (m *mutation) rollback(cause error, done []SetEntry, undo func(j int) error) error {
	var result *multierror.Error
	for j := len(done) - 1; j >= 0; j-- {
		if err := undo(j); err != nil {
			m.log.Warn(m.ctx, "modifier set rollback failed",
				observe.Field{Key: "path", Value: done[j].Path},
				observe.Field{Key: "error", Value: err.Error()})
			if result == nil {
				result = multierror.Append(result, cause)
			}
			result = multierror.Append(result, fmt.Errorf("rollback %s: %w", done[j].Path, err))
		}
	}
	if result == nil {
		return cause
	}
	return result
}

func (e *Engine) parseSet(set *ModifierSet) ([]statpath.Path, error) {
	paths := make([]statpath.Path, len(set.entries))
	for i, se := range set.entries {
		p, err := e.reg.ParsePath(se.Path)
		if err != nil {
			return nil, err
		}
		paths[i] = p
	}
	return paths, nil
}
