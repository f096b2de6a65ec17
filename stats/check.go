package stats

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonwraymond/statgauge/health"
)

// Checker names.
const (
	CheckGraph   = "stats.graph"
	CheckSources = "stats.sources"
	CheckCache   = "stats.cache"
)

// Checkers returns diagnostics over the engine's internal state:
//   - stats.graph: the resolved dependency graph has no cycle
//   - stats.sources: alias bindings and their reverse index agree
//   - stats.cache: every clean cache entry equals a fresh recomputation
func (e *Engine) Checkers() []health.Checker {
	return []health.Checker{
		health.NewCheckerFunc(CheckGraph, e.checkGraph),
		health.NewCheckerFunc(CheckSources, e.checkSources),
		health.NewCheckerFunc(CheckCache, e.checkCache),
	}
}

func (e *Engine) checkGraph(context.Context) health.Result {
	e.mu.RLock()
	cycle := e.findCycleLocked()
	e.mu.RUnlock()

	if cycle == nil {
		return health.Healthy("dependency graph is acyclic")
	}
	names := make([]string, len(cycle))
	for i, n := range cycle {
		names[i] = fmt.Sprintf("%d:%s", n.ent, n.stat)
	}
	return health.Unhealthy("dependency cycle", fmt.Errorf("%w: %s", ErrCyclicDependency, strings.Join(names, " -> ")))
}

func (e *Engine) checkSources(context.Context) health.Result {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var problems []string
	bindings := 0
	for owner, st := range e.entities {
		for alias, target := range st.sources {
			bindings++
			if _, ok := e.sourcedBy[target][sourceRef{owner: owner, alias: alias}]; !ok {
				problems = append(problems, fmt.Sprintf("%d@%s -> %d is not indexed", owner, alias, target))
			}
		}
	}
	for target, refs := range e.sourcedBy {
		for ref := range refs {
			st := e.entities[ref.owner]
			if st == nil || st.sources[ref.alias] != target {
				problems = append(problems, fmt.Sprintf("index lists %d@%s -> %d without a binding", ref.owner, ref.alias, target))
			}
		}
	}

	details := map[string]any{"bindings": bindings}
	if len(problems) > 0 {
		return health.Unhealthy("source index inconsistent",
			fmt.Errorf("%w: %s", health.ErrCheckFailed, strings.Join(problems, "; "))).WithDetails(details)
	}
	return health.Healthy("source bindings consistent").WithDetails(details)
}

func (e *Engine) checkCache(ctx context.Context) health.Result {
	e.mu.RLock()
	defer e.mu.RUnlock()

	type cached struct {
		ref   nodeRef
		key   string
		value float64
	}
	var clean []cached
	e.cacheMu.Lock()
	for ent, byStat := range e.nodes {
		for stat, nd := range byStat {
			for key, ce := range nd.entries {
				if !ce.dirty {
					clean = append(clean, cached{ref: nodeRef{ent: ent, stat: stat}, key: key, value: ce.value})
				}
			}
		}
	}
	e.cacheMu.Unlock()

	var problems []string
	ev := &evaluation{e: e, fresh: true}
	for _, c := range clean {
		if err := ctx.Err(); err != nil {
			return health.Unhealthy("cache check interrupted", err)
		}
		p, err := e.reg.ParsePath(c.key)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%d:%s: %v", c.ref.ent, c.key, err))
			continue
		}
		v, err := ev.stat(c.ref.ent, p, 0)
		switch {
		case err != nil:
			problems = append(problems, fmt.Sprintf("%d:%s: %v", c.ref.ent, c.key, err))
		case v != c.value:
			problems = append(problems, fmt.Sprintf("%d:%s: cached %g, computed %g", c.ref.ent, c.key, c.value, v))
		}
	}

	details := map[string]any{"clean_entries": len(clean)}
	if len(problems) > 0 {
		return health.Unhealthy("stale cache entries",
			fmt.Errorf("%w: %s", health.ErrCheckFailed, strings.Join(problems, "; "))).WithDetails(details)
	}
	return health.Healthy("cache consistent").WithDetails(details)
}
