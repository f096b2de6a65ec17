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

// mutation is one write operation. It runs under the engine's write lock.
type mutation struct {
	e           *Engine
	ctx         context.Context
	meta        observe.OpMeta
	log         observe.Logger
	invalidated int64
	dirty       map[StatRef]struct{}
}

// mutate runs fn exclusively inside the observer middleware.
func (e *Engine) mutate(ctx context.Context, meta observe.OpMeta, fn func(m *mutation) error) error {
	return e.mw.Run(ctx, meta, func(ctx context.Context) error {
		m := &mutation{e: e, ctx: ctx, meta: meta, log: e.logger.With(meta)}

		e.mu.Lock()
		err := fn(m)
		e.mu.Unlock()

		if m.invalidated > 0 {
			e.invalidations.Add(uint64(m.invalidated))
			e.mw.Metrics().RecordInvalidations(ctx, m.invalidated)
			m.log.Debug(ctx, "stats invalidated", observe.Field{Key: "invalidated", Value: m.invalidated})
		}
		if err == nil && e.onChange != nil {
			e.onChange(ctx, m.change())
		}
		return err
	})
}

// AddModifier adds mod to the stat or part at path. Tags in the path are
// merged into the modifier's tags.
func (e *Engine) AddModifier(ctx context.Context, ent Entity, path string, mod Modifier) error {
	meta := observe.OpMeta{Op: observe.OpAddModifier, Entity: uint64(ent), Path: path}
	return e.mutate(ctx, meta, func(m *mutation) error {
		p, err := e.reg.ParsePath(path)
		if err != nil {
			return err
		}
		return m.addModifier(ent, p, mod)
	})
}

// RemoveModifier removes one modifier equal to mod from path. Literals must
// match exactly; expressions match by normalized source.
func (e *Engine) RemoveModifier(ctx context.Context, ent Entity, path string, mod Modifier) error {
	meta := observe.OpMeta{Op: observe.OpRemoveModifier, Entity: uint64(ent), Path: path}
	return e.mutate(ctx, meta, func(m *mutation) error {
		p, err := e.reg.ParsePath(path)
		if err != nil {
			return err
		}
		return m.removeModifier(ent, p, mod)
	})
}

// Set assigns v to a Flat stat, a Modifiable stat's base, or the settable
// part of a Complex stat.
func (e *Engine) Set(ctx context.Context, ent Entity, path string, v float64) error {
	meta := observe.OpMeta{Op: observe.OpSet, Entity: uint64(ent), Path: path}
	return e.mutate(ctx, meta, func(m *mutation) error {
		p, err := e.reg.ParsePath(path)
		if err != nil {
			return err
		}
		return m.set(ent, p, v)
	})
}

// target resolves p from owner and checks it against the stat's kind.
func (m *mutation) target(owner Entity, p statpath.Path) (Entity, statpath.Path, registry.Kind, error) {
	ent, p, err := m.e.resolveLocked(owner, p)
	if err != nil {
		return 0, p, 0, err
	}
	kind := m.e.reg.Kind(p.Stat)
	if p, err = m.e.checkPath(p, kind); err != nil {
		return 0, p, 0, err
	}
	return ent, p, kind, nil
}

func (m *mutation) addModifier(owner Entity, p statpath.Path, mod Modifier) error {
	e := m.e
	if !mod.IsExpression() && math.IsNaN(mod.Value) {
		return fmt.Errorf("%w: NaN modifier on %s", ErrInvalidValue, p)
	}
	ent, p, kind, err := m.target(owner, p)
	if err != nil {
		return err
	}
	mod.Tags |= p.Tags
	if mod.Tags != tags.None && kind != registry.Tagged {
		return fmt.Errorf("%w: tagged modifier on %s stat %s", ErrUnsupportedModifier, kind, p.Stat)
	}

	if kind == registry.Flat {
		if mod.IsExpression() {
			return fmt.Errorf("%w: expression on flat stat %s", ErrUnsupportedModifier, p.Stat)
		}
		e.instanceForWriteLocked(ent, p.Stat).value += mod.Value
		m.invalidate(ent, p.Stat)
		return nil
	}
	if kind.HasParts() && p.Part == "" {
		return fmt.Errorf("%w: %s: modifiers on %s stats need a part", ErrUnknownPart, p, kind)
	}

	en, err := e.newEntry(mod)
	if err != nil {
		return err
	}
	if err := m.checkEdges(ent, p.Stat, en); err != nil {
		return err
	}

	inst := e.instanceForWriteLocked(ent, p.Stat)
	inst.ensurePart(e.reg, p.Stat, p.Part).mods.add(en)
	e.linkLocked(ent, p.Stat, en, 1)
	m.invalidate(ent, p.Stat)
	return nil
}

func (m *mutation) removeModifier(owner Entity, p statpath.Path, mod Modifier) error {
	e := m.e
	ent, p, kind, err := m.target(owner, p)
	if err != nil {
		return err
	}
	mod.Tags |= p.Tags

	if kind == registry.Flat {
		if mod.IsExpression() {
			return fmt.Errorf("%w: expression on flat stat %s", ErrUnsupportedModifier, p.Stat)
		}
		if math.IsNaN(mod.Value) {
			return fmt.Errorf("%w: NaN modifier on %s", ErrInvalidValue, p)
		}
		e.instanceForWriteLocked(ent, p.Stat).value -= mod.Value
		m.invalidate(ent, p.Stat)
		return nil
	}
	if kind.HasParts() && p.Part == "" {
		return fmt.Errorf("%w: %s: modifiers on %s stats need a part", ErrUnknownPart, p, kind)
	}

	if mod.IsExpression() {
		prog, err := e.compiler.Compile(mod.Expr)
		if err != nil {
			return err
		}
		mod.Expr, mod.Value = prog.Source(), 0
	}

	var pt *part
	if st := e.entities[ent]; st != nil {
		if inst := st.stats[p.Stat]; inst != nil {
			pt = inst.part(p.Part)
		}
	}
	if pt == nil {
		return fmt.Errorf("%w: %s on %s", ErrNoSuchModifier, mod, p)
	}
	en, ok := pt.mods.remove(mod)
	if !ok {
		return fmt.Errorf("%w: %s on %s", ErrNoSuchModifier, mod, p)
	}
	e.linkLocked(ent, p.Stat, en, -1)
	m.invalidate(ent, p.Stat)
	return nil
}

func (m *mutation) set(owner Entity, p statpath.Path, v float64) error {
	e := m.e
	if math.IsNaN(v) {
		return fmt.Errorf("%w: NaN assigned to %s", ErrInvalidValue, p)
	}
	ent, p, kind, err := m.target(owner, p)
	if err != nil {
		return err
	}

	switch kind {
	case registry.Flat:
		e.instanceForWriteLocked(ent, p.Stat).value = v
	case registry.Modifiable:
		e.instanceForWriteLocked(ent, p.Stat).ensurePart(e.reg, p.Stat, "").base = v
	case registry.Complex:
		settable := e.reg.SettablePart(p.Stat)
		if p.Part == "" || p.Part != settable {
			return fmt.Errorf("%w: %s: only part %q of %s can be set", ErrNotSettable, p, settable, p.Stat)
		}
		e.instanceForWriteLocked(ent, p.Stat).ensurePart(e.reg, p.Stat, p.Part).base = v
	default:
		return fmt.Errorf("%w: %s: %s stats cannot be set", ErrNotSettable, p, kind)
	}
	m.invalidate(ent, p.Stat)
	return nil
}

// newEntry compiles an expression modifier and parses its references.
// Literal modifiers pass through.
func (e *Engine) newEntry(mod Modifier) (*entry, error) {
	if !mod.IsExpression() {
		return &entry{mod: mod}, nil
	}
	prog, err := e.compiler.Compile(mod.Expr)
	if err != nil {
		return nil, err
	}
	vars := prog.Variables()
	refs := make(map[string]statpath.Path, len(vars))
	for _, v := range vars {
		p, err := e.reg.ParsePath(v)
		if err != nil {
			return nil, fmt.Errorf("modifier %q: %w", mod.Expr, err)
		}
		refs[v] = p
	}
	mod.Expr, mod.Value = prog.Source(), 0
	return &entry{mod: mod, program: prog, refs: refs}, nil
}

// checkEdges rejects en on stat of ent when one of its references already
// depends on that stat.
func (m *mutation) checkEdges(ent Entity, stat string, en *entry) error {
	e := m.e
	self := nodeRef{ent: ent, stat: stat}
	for _, p := range en.refs {
		target := ent
		if p.Alias != "" {
			st := e.entities[ent]
			if st == nil {
				continue
			}
			var ok bool
			if target, ok = st.sources[p.Alias]; !ok {
				continue
			}
		}
		dep := nodeRef{ent: target, stat: p.Stat}
		if dep == self || e.reachesLocked(dep, self) {
			return m.cycle(self, dep)
		}
	}
	return nil
}

func (m *mutation) cycle(self, dep nodeRef) error {
	m.log.Warn(m.ctx, "cyclic dependency rejected",
		observe.Field{Key: "stat", Value: self.stat},
		observe.Field{Key: "dependency_entity", Value: uint64(dep.ent)},
		observe.Field{Key: "dependency_stat", Value: dep.stat},
	)
	return fmt.Errorf("%w: %s on entity %d would depend on itself through %s on entity %d",
		ErrCyclicDependency, self.stat, self.ent, dep.stat, dep.ent)
}
