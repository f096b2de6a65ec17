package stats

import (
	"context"
	"fmt"

	"github.com/jonwraymond/statgauge/expr"
	"github.com/jonwraymond/statgauge/observe"
)

// Requirements is a list of conditions over stats, such as
// "Strength >= 10" or "Leader@Level > 5 && Dexterity >= 8". The list is met
// when every condition holds. A Requirements value is immutable.
type Requirements struct {
	conds []*expr.Program
}

// NewRequirements compiles each source as a condition.
func NewRequirements(srcs ...string) (*Requirements, error) {
	r := &Requirements{conds: make([]*expr.Program, 0, len(srcs))}
	for _, src := range srcs {
		p, err := expr.CompileCondition(src)
		if err != nil {
			return nil, err
		}
		r.conds = append(r.conds, p)
	}
	return r, nil
}

// MustRequirements is like NewRequirements but panics on error.
func MustRequirements(srcs ...string) *Requirements {
	r, err := NewRequirements(srcs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Combine returns the conditions of r followed by those of other.
func (r *Requirements) Combine(other *Requirements) *Requirements {
	out := &Requirements{}
	if r != nil {
		out.conds = append(out.conds, r.conds...)
	}
	if other != nil {
		out.conds = append(out.conds, other.conds...)
	}
	return out
}

// Len returns the number of conditions.
func (r *Requirements) Len() int {
	if r == nil {
		return 0
	}
	return len(r.conds)
}

// Sources returns the normalized condition sources in order.
func (r *Requirements) Sources() []string {
	out := make([]string, 0, r.Len())
	if r == nil {
		return out
	}
	for _, p := range r.conds {
		out = append(out, p.Source())
	}
	return out
}

// RequirementsMet reports whether every condition of reqs holds on ent.
// Empty or nil requirements are always met.
func (e *Engine) RequirementsMet(ctx context.Context, ent Entity, reqs *Requirements) (bool, error) {
	unmet, err := e.UnmetRequirements(ctx, ent, reqs)
	if err != nil {
		return false, err
	}
	return len(unmet) == 0, nil
}

// UnmetRequirements returns the sources of the conditions of reqs that do
// not hold on ent, in order. Conditions are evaluated under one read lock,
// so they observe a single state of the engine.
func (e *Engine) UnmetRequirements(ctx context.Context, ent Entity, reqs *Requirements) ([]string, error) {
	var unmet []string
	meta := observe.OpMeta{Op: observe.OpCheckRequirements, Entity: uint64(ent)}
	err := e.mw.Run(ctx, meta, func(ctx context.Context) error {
		if reqs.Len() == 0 {
			return nil
		}
		ev := e.newEvaluation()
		defer e.finish(ctx, meta, ev)
		e.mu.RLock()
		defer e.mu.RUnlock()

		resolve := ev.resolver(ent)
		for _, cond := range reqs.conds {
			ok, err := cond.Holds(resolve)
			if err != nil {
				return fmt.Errorf("requirement %q: %w", cond.Source(), err)
			}
			if !ok {
				unmet = append(unmet, cond.Source())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return unmet, nil
}
