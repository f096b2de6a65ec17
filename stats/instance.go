package stats

import (
	"github.com/jonwraymond/statgauge/registry"
)

// Entity identifies a host entity. The engine never allocates entities.
type Entity uint64

// part is a base value plus its modifiers.
type part struct {
	base float64
	mods modifierList
}

// instance is one stat of one entity. Modifiable stats keep their single
// part under the empty name; Flat stats use value only.
type instance struct {
	kind  registry.Kind
	value float64
	parts map[string]*part
}

func newInstance(reg *registry.Registry, stat string) *instance {
	inst := &instance{kind: reg.Kind(stat)}
	switch inst.kind {
	case registry.Flat:
		inst.value = reg.DefaultBase(stat, "")
	case registry.Modifiable:
		inst.parts = map[string]*part{"": {base: reg.DefaultBase(stat, "")}}
	case registry.Complex, registry.Tagged:
		inst.parts = make(map[string]*part)
	}
	return inst
}

// part returns the named part, or nil when it was never written.
func (i *instance) part(name string) *part {
	return i.parts[name]
}

// ensurePart returns the named part, creating it with its default base.
func (i *instance) ensurePart(reg *registry.Registry, stat, name string) *part {
	if p, ok := i.parts[name]; ok {
		return p
	}
	p := &part{base: reg.DefaultBase(stat, name)}
	i.parts[name] = p
	return p
}

// base returns the base of a part, or its default when the part is unset.
func (i *instance) base(reg *registry.Registry, stat, name string) float64 {
	if p := i.part(name); p != nil {
		return p.base
	}
	return reg.DefaultBase(stat, name)
}

// entityState is everything the engine stores for one entity.
type entityState struct {
	stats   map[string]*instance
	sources map[string]Entity

	// rdeps maps a referenced stat, as written in expression modifiers on
	// this entity, to the dependent stats and their edge counts.
	rdeps map[refKey]map[string]int
}

func newEntityState() *entityState {
	return &entityState{
		stats:   make(map[string]*instance),
		sources: make(map[string]Entity),
		rdeps:   make(map[refKey]map[string]int),
	}
}

// refKey is a stat reference relative to one entity.
type refKey struct {
	alias string
	stat  string
}

// nodeRef is a resolved stat: one stat of one entity.
type nodeRef struct {
	ent  Entity
	stat string
}

// sourceRef is one alias binding, seen from the target.
type sourceRef struct {
	owner Entity
	alias string
}
