package stats

import (
	"context"
	"fmt"

	"github.com/jonwraymond/statgauge/observe"
	"github.com/jonwraymond/statgauge/statpath"
)

// RegisterSource binds alias on ent to target. Rebinding replaces the
// previous target. Stats of ent that read through alias are invalidated.
// A binding that would close a dependency cycle is rejected and the
// previous binding is kept.
func (e *Engine) RegisterSource(ctx context.Context, ent Entity, alias string, target Entity) error {
	meta := observe.OpMeta{Op: observe.OpRegisterSource, Entity: uint64(ent), Alias: alias}
	return e.mutate(ctx, meta, func(m *mutation) error {
		if !statpath.IsIdent(alias) {
			return fmt.Errorf("%w: invalid alias %q", ErrMalformedPath, alias)
		}

		st := e.entityForWriteLocked(ent)
		old, had := st.sources[alias]
		if had && old == target {
			return nil
		}

		st.sources[alias] = target
		if err := m.checkAlias(ent, alias, target); err != nil {
			if had {
				st.sources[alias] = old
			} else {
				delete(st.sources, alias)
			}
			return err
		}

		ref := sourceRef{owner: ent, alias: alias}
		if had {
			e.unbindLocked(old, ref)
		}
		e.bindLocked(target, ref)
		m.invalidateAlias(ent, alias)
		return nil
	})
}

// UnregisterSource removes alias from ent. Reads through it then fail with
// ErrUnknownSource.
func (e *Engine) UnregisterSource(ctx context.Context, ent Entity, alias string) error {
	meta := observe.OpMeta{Op: observe.OpUnregisterSource, Entity: uint64(ent), Alias: alias}
	return e.mutate(ctx, meta, func(m *mutation) error {
		st := e.entities[ent]
		if st == nil {
			return fmt.Errorf("%w: %q on entity %d", ErrUnknownSource, alias, ent)
		}
		target, ok := st.sources[alias]
		if !ok {
			return fmt.Errorf("%w: %q on entity %d", ErrUnknownSource, alias, ent)
		}
		delete(st.sources, alias)
		e.unbindLocked(target, sourceRef{owner: ent, alias: alias})
		m.invalidateAlias(ent, alias)
		return nil
	})
}

// Destroy drops every trace of ent: its stats, its cache, its own aliases,
// and aliases on other entities that point at it. Dependents on other
// entities are invalidated. Destroying an unknown entity is a no-op.
func (e *Engine) Destroy(ctx context.Context, ent Entity) error {
	meta := observe.OpMeta{Op: observe.OpDestroy, Entity: uint64(ent)}
	return e.mutate(ctx, meta, func(m *mutation) error {
		for ref := range e.sourcedBy[ent] {
			if owner := e.entities[ref.owner]; owner != nil {
				delete(owner.sources, ref.alias)
			}
			if ref.owner != ent {
				m.invalidateAlias(ref.owner, ref.alias)
			}
		}
		delete(e.sourcedBy, ent)

		if st := e.entities[ent]; st != nil {
			for alias, target := range st.sources {
				e.unbindLocked(target, sourceRef{owner: ent, alias: alias})
			}
		}
		delete(e.entities, ent)

		e.cacheMu.Lock()
		delete(e.nodes, ent)
		e.cacheMu.Unlock()
		return nil
	})
}

// checkAlias rejects the binding of alias on ent to target when a stat
// reading through it would come to depend on itself.
func (m *mutation) checkAlias(ent Entity, alias string, target Entity) error {
	for _, edge := range m.e.aliasEdgesLocked(ent, alias) {
		self := nodeRef{ent: ent, stat: edge.dep}
		dep := nodeRef{ent: target, stat: edge.stat}
		if dep == self || m.e.reachesLocked(dep, self) {
			return m.cycle(self, dep)
		}
	}
	return nil
}

// invalidateAlias invalidates every stat of ent that reads through alias.
func (m *mutation) invalidateAlias(ent Entity, alias string) {
	for _, edge := range m.e.aliasEdgesLocked(ent, alias) {
		m.invalidate(ent, edge.dep)
	}
}

func (e *Engine) bindLocked(target Entity, ref sourceRef) {
	refs, ok := e.sourcedBy[target]
	if !ok {
		refs = make(map[sourceRef]struct{})
		e.sourcedBy[target] = refs
	}
	refs[ref] = struct{}{}
}

func (e *Engine) unbindLocked(target Entity, ref sourceRef) {
	refs, ok := e.sourcedBy[target]
	if !ok {
		return
	}
	delete(refs, ref)
	if len(refs) == 0 {
		delete(e.sourcedBy, target)
	}
}
