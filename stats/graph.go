package stats

import (
	"github.com/jonwraymond/statgauge/statpath"
)

// invalidate marks ref's entries dirty and walks its dependents. The
// mutated stat always propagates; other nodes stop the walk when already
// stale or never read.
func (m *mutation) invalidate(ent Entity, stat string) {
	e := m.e
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	stack := []nodeRef{{ent: ent, stat: stat}}
	root := true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		nd := e.nodes[cur.ent][cur.stat]
		if !root && (nd == nil || nd.stale) {
			continue
		}
		root = false
		m.touch(cur)
		if nd != nil {
			for _, ce := range nd.entries {
				if !ce.dirty {
					ce.dirty = true
					m.invalidated++
				}
			}
			nd.stale = true
		}
		stack = e.appendDependentsLocked(stack, cur)
	}
}

// appendDependentsLocked appends every stat that reads ref, on ref's entity
// and on entities sourcing from it.
func (e *Engine) appendDependentsLocked(out []nodeRef, ref nodeRef) []nodeRef {
	add := func(owner Entity, key refKey) {
		if st := e.entities[owner]; st != nil {
			for dep := range st.rdeps[key] {
				out = append(out, nodeRef{ent: owner, stat: dep})
			}
		}
		for _, dep := range e.totalDeps[key] {
			out = append(out, nodeRef{ent: owner, stat: dep})
		}
	}

	add(ref.ent, refKey{stat: ref.stat})
	for src := range e.sourcedBy[ref.ent] {
		add(src.owner, refKey{alias: src.alias, stat: ref.stat})
	}
	return out
}

// dependenciesLocked returns the stats ref reads, resolved through the
// current source bindings. References through unbound aliases are skipped.
func (e *Engine) dependenciesLocked(ref nodeRef) []nodeRef {
	var out []nodeRef
	st := e.entities[ref.ent]
	resolve := func(p statpath.Path) {
		if p.Alias == "" {
			out = append(out, nodeRef{ent: ref.ent, stat: p.Stat})
			return
		}
		if st == nil {
			return
		}
		if target, ok := st.sources[p.Alias]; ok {
			out = append(out, nodeRef{ent: target, stat: p.Stat})
		}
	}

	if e.reg.Kind(ref.stat).HasParts() {
		for _, r := range e.reg.Total(ref.stat).Refs {
			resolve(r.Path)
		}
	}
	if st == nil {
		return out
	}
	if inst := st.stats[ref.stat]; inst != nil {
		for _, pt := range inst.parts {
			for _, en := range pt.mods.entries {
				for _, p := range en.refs {
					resolve(p)
				}
			}
		}
	}
	return out
}

// reachesLocked reports whether from depends on to, directly or transitively.
func (e *Engine) reachesLocked(from, to nodeRef) bool {
	visited := map[nodeRef]bool{from: true}
	stack := []nodeRef{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range e.dependenciesLocked(cur) {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// linkLocked adds (delta > 0) or removes (delta < 0) the edges of en's
// references from stat on ent.
func (e *Engine) linkLocked(ent Entity, stat string, en *entry, delta int) {
	if len(en.refs) == 0 {
		return
	}
	st := e.entityForWriteLocked(ent)
	for _, p := range en.refs {
		key := refKey{alias: p.Alias, stat: p.Stat}
		deps, ok := st.rdeps[key]
		if !ok {
			deps = make(map[string]int)
			st.rdeps[key] = deps
		}
		deps[stat] += delta
		if deps[stat] <= 0 {
			delete(deps, stat)
		}
		if len(deps) == 0 {
			delete(st.rdeps, key)
		}
	}
}

// aliasEdge is a dependency of stat dep on stat through one alias.
type aliasEdge struct {
	dep  string
	stat string
}

// aliasEdgesLocked returns every edge on ent that reads through alias.
func (e *Engine) aliasEdgesLocked(ent Entity, alias string) []aliasEdge {
	var out []aliasEdge
	if st := e.entities[ent]; st != nil {
		for key, deps := range st.rdeps {
			if key.alias != alias {
				continue
			}
			for dep := range deps {
				out = append(out, aliasEdge{dep: dep, stat: key.stat})
			}
		}
	}
	for key, deps := range e.totalDeps {
		if key.alias != alias {
			continue
		}
		for _, dep := range deps {
			out = append(out, aliasEdge{dep: dep, stat: key.stat})
		}
	}
	return out
}

// findCycleLocked returns one dependency cycle among stored stats, or nil.
func (e *Engine) findCycleLocked() []nodeRef {
	const (
		white = iota
		grey
		black
	)
	color := make(map[nodeRef]int)
	var path []nodeRef
	var cycle []nodeRef

	var visit func(n nodeRef) bool
	visit = func(n nodeRef) bool {
		color[n] = grey
		path = append(path, n)
		for _, next := range e.dependenciesLocked(n) {
			switch color[next] {
			case grey:
				for i, p := range path {
					if p == next {
						cycle = append([]nodeRef(nil), path[i:]...)
						break
					}
				}
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		color[n] = black
		return false
	}

	for ent, st := range e.entities {
		for stat := range st.stats {
			n := nodeRef{ent: ent, stat: stat}
			if color[n] == white && visit(n) {
				return cycle
			}
		}
	}
	return nil
}
