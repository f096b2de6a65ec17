package stats

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jonwraymond/statgauge/expr"
	"github.com/jonwraymond/statgauge/observe"
	"github.com/jonwraymond/statgauge/registry"
	"github.com/jonwraymond/statgauge/statpath"
)

// Engine evaluates and caches stats for any number of entities.
//
// Contract:
// - Concurrency: safe for concurrent use. Mutations are exclusive; reads
// share a lock and serialize only on cache bookkeeping.
// - Consistency: a read after a mutation observes the mutation, including
// through expression references and source aliases.
// - Errors: every failure is returned; nothing is coerced to a default value.
// Missing stats are not failures and read as registry defaults.
type Engine struct {
	reg      *registry.Registry
	compiler *expr.Compiler
	mw       *observe.Middleware
	logger   observe.Logger
	maxDepth int
	onChange ChangeHandler

	mu        sync.RWMutex
	entities  map[Entity]*entityState
	sourcedBy map[Entity]map[sourceRef]struct{}
	totalDeps map[refKey][]string

	cacheMu sync.Mutex
	nodes   map[Entity]map[string]*node

	evaluations   atomic.Uint64
	hits          atomic.Uint64
	recomputes    atomic.Uint64
	invalidations atomic.Uint64
}

// New creates an engine over reg, freezing it.
func New(reg *registry.Registry, opts ...Option) (*Engine, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}
	if err := reg.Freeze(); err != nil {
		return nil, fmt.Errorf("stats: freeze registry: %w", err)
	}

	e := &Engine{
		reg:       reg,
		maxDepth:  DefaultMaxDepth,
		entities:  make(map[Entity]*entityState),
		sourcedBy: make(map[Entity]map[sourceRef]struct{}),
		nodes:     make(map[Entity]map[string]*node),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.mw == nil {
		e.mw = observe.NoopMiddleware()
	}
	if e.logger == nil {
		e.logger = e.mw.Logger()
	}
	if e.compiler == nil {
		e.compiler = reg.Compiler()
	}
	e.totalDeps = totalDependents(reg)
	return e, nil
}

// totalDependents indexes registered total expressions by the stats they
// reference.
func totalDependents(reg *registry.Registry) map[refKey][]string {
	deps := make(map[refKey][]string)
	for _, stat := range reg.StatNames() {
		if !reg.Kind(stat).HasParts() {
			continue
		}
		for _, ref := range reg.Total(stat).Refs {
			key := refKey{alias: ref.Path.Alias, stat: ref.Path.Stat}
			if !slices.Contains(deps[key], stat) {
				deps[key] = append(deps[key], stat)
			}
		}
	}
	return deps
}

// Registry returns the engine's registry.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Evaluate returns the current value of path on ent, recomputing it and
// anything it depends on when dirty.
func (e *Engine) Evaluate(ctx context.Context, ent Entity, path string) (float64, error) {
	var v float64
	meta := observe.OpMeta{Op: observe.OpEvaluate, Entity: uint64(ent), Path: path}
	err := e.mw.Run(ctx, meta, func(ctx context.Context) error {
		p, err := e.reg.ParsePath(path)
		if err != nil {
			return err
		}
		ev := e.newEvaluation()
		e.mu.RLock()
		v, err = ev.ref(ent, p, 0)
		e.mu.RUnlock()
		e.finish(ctx, meta, ev)
		return err
	})
	if err != nil {
		return 0, err
	}
	return v, nil
}

// GetCached returns the last computed value of path on ent even when it is
// dirty. A path that was never computed is evaluated.
func (e *Engine) GetCached(ctx context.Context, ent Entity, path string) (float64, error) {
	var v float64
	meta := observe.OpMeta{Op: observe.OpGetCached, Entity: uint64(ent), Path: path}
	err := e.mw.Run(ctx, meta, func(ctx context.Context) error {
		p, err := e.reg.ParsePath(path)
		if err != nil {
			return err
		}
		ev := e.newEvaluation()
		e.mu.RLock()
		v, err = ev.cached(ent, p)
		e.mu.RUnlock()
		e.finish(ctx, meta, ev)
		return err
	})
	if err != nil {
		return 0, err
	}
	return v, nil
}

// EvaluateMany evaluates several paths of ent under one read lock. Values are
// returned in path order; the first failure aborts the call.
func (e *Engine) EvaluateMany(ctx context.Context, ent Entity, paths ...string) ([]float64, error) {
	out := make([]float64, len(paths))
	meta := observe.OpMeta{Op: observe.OpEvaluateMany, Entity: uint64(ent), Path: strings.Join(paths, ",")}
	err := e.mw.Run(ctx, meta, func(ctx context.Context) error {
		parsed := make([]statpath.Path, len(paths))
		for i, s := range paths {
			p, err := e.reg.ParsePath(s)
			if err != nil {
				return err
			}
			parsed[i] = p
		}

		ev := e.newEvaluation()
		defer e.finish(ctx, meta, ev)
		e.mu.RLock()
		defer e.mu.RUnlock()
		for i, p := range parsed {
			v, err := ev.ref(ent, p, 0)
			if err != nil {
				return fmt.Errorf("%s: %w", paths[i], err)
			}
			out[i] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Sources returns a copy of ent's alias bindings.
func (e *Engine) Sources(ent Entity) map[string]Entity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st := e.entities[ent]
	if st == nil {
		return map[string]Entity{}
	}
	return maps.Clone(st.sources)
}

// Entities returns every entity with stored state, sorted.
func (e *Engine) Entities() []Entity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Sorted(maps.Keys(e.entities))
}

// finish folds one read's tallies into the counters and metrics.
func (e *Engine) finish(ctx context.Context, meta observe.OpMeta, ev *evaluation) {
	e.evaluations.Add(1)
	e.hits.Add(uint64(ev.hits))
	e.recomputes.Add(uint64(ev.recomputes))
	e.mw.Metrics().RecordCache(ctx, ev.hits, ev.recomputes)
	if ev.recomputes > 0 {
		e.logger.With(meta).Debug(ctx, "stats recomputed",
			observe.Field{Key: "recomputed", Value: ev.recomputes},
			observe.Field{Key: "cache_hits", Value: ev.hits},
		)
	}
}

// resolveLocked follows p's alias from owner. The returned path is local.
func (e *Engine) resolveLocked(owner Entity, p statpath.Path) (Entity, statpath.Path, error) {
	if p.Alias == "" {
		return owner, p, nil
	}
	if st := e.entities[owner]; st != nil {
		if target, ok := st.sources[p.Alias]; ok {
			return target, p.Local(), nil
		}
	}
	return 0, p, fmt.Errorf("%w: %q on entity %d", ErrUnknownSource, p.Alias, owner)
}

// checkPath validates p against kind and normalizes Modifiable paths to
// the stat itself.
func (e *Engine) checkPath(p statpath.Path, kind registry.Kind) (statpath.Path, error) {
	if p.Tags != 0 && kind != registry.Tagged {
		return p, fmt.Errorf("%w: %s: %s stat %s takes no tags", ErrMalformedPath, p, kind, p.Stat)
	}
	switch kind {
	case registry.Flat:
		if p.Part != "" {
			return p, fmt.Errorf("%w: %s: flat stat has no parts", ErrUnknownPart, p)
		}
	case registry.Modifiable:
		if p.Part != "" && p.Part != e.reg.SettablePart(p.Stat) {
			return p, fmt.Errorf("%w: %s: modifiable stat %s has no part %q", ErrUnknownPart, p, p.Stat, p.Part)
		}
		p.Part = ""
	case registry.Complex, registry.Tagged:
		if p.Part != "" && !e.reg.HasPart(p.Stat, p.Part) {
			return p, fmt.Errorf("%w: %s: %s has no part %q", ErrUnknownPart, p, p.Stat, p.Part)
		}
	}
	return p, nil
}

// instanceLocked returns ent's stored instance of stat, or a transient
// default one that is not stored.
func (e *Engine) instanceLocked(ent Entity, stat string) *instance {
	if st := e.entities[ent]; st != nil {
		if inst, ok := st.stats[stat]; ok {
			return inst
		}
	}
	return newInstance(e.reg, stat)
}

// instanceForWriteLocked returns ent's instance of stat, creating it.
func (e *Engine) instanceForWriteLocked(ent Entity, stat string) *instance {
	st := e.entityForWriteLocked(ent)
	inst, ok := st.stats[stat]
	if !ok {
		inst = newInstance(e.reg, stat)
		st.stats[stat] = inst
	}
	return inst
}

func (e *Engine) entityForWriteLocked(ent Entity) *entityState {
	st, ok := e.entities[ent]
	if !ok {
		st = newEntityState()
		e.entities[ent] = st
	}
	return st
}
