package stats

import (
	"fmt"

	"github.com/jonwraymond/statgauge/expr"
	"github.com/jonwraymond/statgauge/registry"
	"github.com/jonwraymond/statgauge/statpath"
	"github.com/jonwraymond/statgauge/tags"
)

// evaluation is one read. It runs under the engine's read lock.
type evaluation struct {
	e          *Engine
	fresh      bool // bypass the cache entirely
	hits       int64
	recomputes int64
}

func (e *Engine) newEvaluation() *evaluation {
	return &evaluation{e: e}
}

// ref evaluates p as seen from owner.
func (ev *evaluation) ref(owner Entity, p statpath.Path, depth int) (float64, error) {
	ent, p, err := ev.e.resolveLocked(owner, p)
	if err != nil {
		return 0, err
	}
	return ev.stat(ent, p, depth)
}

// cached is ref for GetCached: a dirty entry at the top level is returned as is.
func (ev *evaluation) cached(owner Entity, p statpath.Path) (float64, error) {
	e := ev.e
	ent, p, err := e.resolveLocked(owner, p)
	if err != nil {
		return 0, err
	}
	kind := e.reg.Kind(p.Stat)
	if p, err = e.checkPath(p, kind); err != nil {
		return 0, err
	}
	if kind != registry.Flat {
		if v, ok := e.peek(nodeRef{ent, p.Stat}, p.Key()); ok {
			ev.hits++
			return v, nil
		}
	}
	return ev.stat(ent, p, 0)
}

// stat evaluates a local path of ent.
func (ev *evaluation) stat(ent Entity, p statpath.Path, depth int) (float64, error) {
	e := ev.e
	if depth > e.maxDepth {
		return 0, fmt.Errorf("%w: recursion depth %d exceeded at %s on entity %d", ErrEval, e.maxDepth, p, ent)
	}

	kind := e.reg.Kind(p.Stat)
	p, err := e.checkPath(p, kind)
	if err != nil {
		return 0, err
	}
	inst := e.instanceLocked(ent, p.Stat)
	if ev.fresh {
		return ev.compute(ent, p, inst, depth)
	}

	ref := nodeRef{ent: ent, stat: p.Stat}
	key := p.Key()
	if v, ok := e.lookup(ref, key, kind != registry.Flat); ok {
		ev.hits++
		return v, nil
	}
	if kind == registry.Flat {
		return inst.value, nil
	}

	v, err := ev.compute(ent, p, inst, depth)
	if err != nil {
		return 0, err
	}
	e.store(ref, key, v)
	ev.recomputes++
	return v, nil
}

func (ev *evaluation) compute(ent Entity, p statpath.Path, inst *instance, depth int) (float64, error) {
	switch inst.kind {
	case registry.Modifiable:
		return ev.part(ent, p.Stat, inst, "", tags.None, depth)
	case registry.Complex, registry.Tagged:
		if p.Part != "" {
			return ev.part(ent, p.Stat, inst, p.Part, p.Tags, depth)
		}
		return ev.total(ent, p.Stat, inst, p.Tags, depth)
	default:
		return inst.value, nil
	}
}

// total evaluates the stat's total expression with every part computed
// against the query mask q.
func (ev *evaluation) total(ent Entity, stat string, inst *instance, q tags.Mask, depth int) (float64, error) {
	e := ev.e
	t := e.reg.Total(stat)
	return t.Program.Eval(func(name string) (float64, error) {
		for _, ref := range t.Refs {
			if ref.Var == name {
				return ev.ref(ent, ref.Path, depth+1)
			}
		}
		if !e.reg.HasPart(stat, name) {
			return 0, fmt.Errorf("%w: total of %s references %q", ErrUnknownPart, stat, name)
		}
		return ev.part(ent, stat, inst, name, q, depth)
	})
}

// part combines a part's base with every modifier matching q, using the
// part's relationship. Duplicate modifiers combine once per copy.
func (ev *evaluation) part(ent Entity, stat string, inst *instance, name string, q tags.Mask, depth int) (float64, error) {
	e := ev.e
	acc := inst.base(e.reg, stat, name)
	p := inst.part(name)
	if p == nil || len(p.mods.entries) == 0 {
		return acc, nil
	}

	rel := e.reg.Relationship(stat, name)
	query := e.reg.Universe().ExpandPermissive(q)
	for _, en := range p.mods.entries {
		if !tags.Matches(en.mod.Tags, query) {
			continue
		}
		v := en.mod.Value
		if en.program != nil {
			var err error
			if v, err = ev.expression(ent, en, depth); err != nil {
				return 0, err
			}
		}
		for i := 0; i < en.count; i++ {
			acc = rel.Combine(acc, v)
		}
	}
	return acc, nil
}

func (ev *evaluation) expression(ent Entity, en *entry, depth int) (float64, error) {
	return en.program.Eval(func(name string) (float64, error) {
		return ev.ref(ent, en.refs[name], depth+1)
	})
}

// resolver reads variables as stat paths on ent. It is used for programs
// compiled outside the engine, whose names are not pre-parsed.
func (ev *evaluation) resolver(ent Entity) expr.Resolver {
	return func(name string) (float64, error) {
		p, err := ev.e.reg.ParsePath(name)
		if err != nil {
			return 0, err
		}
		return ev.ref(ent, p, 0)
	}
}
