package stats

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/jonwraymond/statgauge/registry"
)

const (
	player Entity = 1
	leader Entity = 2
	other  Entity = 3
)

func newEngine(t *testing.T, setup func(r *registry.Registry), opts ...Option) *Engine {
	t.Helper()
	reg := registry.New()
	if setup != nil {
		setup(reg)
	}
	e, err := New(reg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func mustEval(t *testing.T, e *Engine, ent Entity, path string) float64 {
	t.Helper()
	v, err := e.Evaluate(context.Background(), ent, path)
	if err != nil {
		t.Fatalf("Evaluate(%d, %q) error = %v", ent, path, err)
	}
	return v
}

func wantEval(t *testing.T, e *Engine, ent Entity, path string, want float64) {
	t.Helper()
	if got := mustEval(t, e, ent, path); math.Abs(got-want) > 1e-9 {
		t.Errorf("Evaluate(%d, %q) = %v, want %v", ent, path, got, want)
	}
}

func wantErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("error = %v, want %v", err, want)
	}
}

// TestNew verifies construction freezes the registry and rejects bad input.
func TestNew(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNilRegistry) {
		t.Errorf("New(nil) = %v, want ErrNilRegistry", err)
	}

	reg := registry.New()
	mustNoErr(t, reg.RegisterStatType("Level", registry.Flat))
	mustNoErr(t, reg.RegisterParts("Level", "base"))
	if _, err := New(reg); !errors.Is(err, registry.ErrUnknownPart) {
		t.Errorf("New(invalid) = %v, want ErrUnknownPart", err)
	}
	if reg.Frozen() {
		t.Error("invalid registry should stay open")
	}

	e := newEngine(t, nil)
	if !e.Registry().Frozen() {
		t.Error("registry should be frozen after New")
	}
}

// TestEvaluate_MissingStatUsesDefaults verifies unknown stats read as defaults without being stored.
func TestEvaluate_MissingStatUsesDefaults(t *testing.T) {
	e := newEngine(t, func(r *registry.Registry) {
		mustNoErr(t, r.RegisterDefaultBase("Health", 100))
	})

	wantEval(t, e, player, "Strength", 0)
	wantEval(t, e, player, "Health", 100)
	if len(e.Entities()) != 0 {
		t.Errorf("reads should not create entity state, got %v", e.Entities())
	}
}

// TestCache_RepeatReadHits verifies read-after-write and that repeated reads are served from cache.
func TestCache_RepeatReadHits(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, nil)

	wantEval(t, e, player, "Strength", 0)
	mustNoErr(t, e.AddModifier(ctx, player, "Strength.base", Literal(5)))
	wantEval(t, e, player, "Strength", 5)

	before := e.Counters()
	wantEval(t, e, player, "Strength", 5)
	after := e.Counters()

	if after.Recomputations != before.Recomputations {
		t.Errorf("Recomputations changed from %d to %d on a clean read", before.Recomputations, after.Recomputations)
	}
	if after.Hits != before.Hits+1 {
		t.Errorf("Hits = %d, want %d", after.Hits, before.Hits+1)
	}
	if after.Compilations != before.Compilations {
		t.Errorf("Compilations changed on a clean read")
	}
	if after.Evaluations != before.Evaluations+1 {
		t.Errorf("Evaluations = %d, want %d", after.Evaluations, before.Evaluations+1)
	}
}

// TestCache_TransitiveInvalidation verifies dependents recompute after a dependency changes.
func TestCache_TransitiveInvalidation(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, nil)

	mustNoErr(t, e.Set(ctx, player, "Strength", 10))
	mustNoErr(t, e.AddModifier(ctx, player, "AttackPower.base", Expression("Strength * 2")))
	mustNoErr(t, e.AddModifier(ctx, player, "CritDamage.base", Expression("AttackPower / 4")))

	wantEval(t, e, player, "AttackPower", 20)
	wantEval(t, e, player, "CritDamage", 5)

	mustNoErr(t, e.AddModifier(ctx, player, "Strength.base", Literal(10)))
	wantEval(t, e, player, "CritDamage", 10)
	wantEval(t, e, player, "AttackPower", 40)

	before := e.Counters().Invalidations
	mustNoErr(t, e.Set(ctx, player, "Strength", 0))
	if got := e.Counters().Invalidations - before; got != 3 {
		t.Errorf("invalidated %d entries, want 3", got)
	}
	wantEval(t, e, player, "CritDamage", 0)
}

// TestCache_InvalidationStopsAtStaleNodes verifies a second mutation before any read dirties nothing new.
func TestCache_InvalidationStopsAtStaleNodes(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, nil)

	mustNoErr(t, e.AddModifier(ctx, player, "AttackPower.base", Expression("Strength")))
	wantEval(t, e, player, "AttackPower", 0)

	mustNoErr(t, e.Set(ctx, player, "Strength", 1))
	before := e.Counters().Invalidations
	mustNoErr(t, e.Set(ctx, player, "Strength", 2))
	if got := e.Counters().Invalidations - before; got != 0 {
		t.Errorf("second mutation invalidated %d entries, want 0", got)
	}
	wantEval(t, e, player, "AttackPower", 2)
}

// TestRelationships verifies additive and multiplicative combination.
func TestRelationships(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, func(r *registry.Registry) {
		mustNoErr(t, r.RegisterRelationship("Armor", registry.Mul))
		mustNoErr(t, r.RegisterStatType("Speed", registry.Complex))
		mustNoErr(t, r.RegisterTotalExpression("Speed", "base * more"))
		mustNoErr(t, r.RegisterParts("Speed", "base", "more"))
		mustNoErr(t, r.RegisterRelationship("more", registry.Mul))
	})

	mustNoErr(t, e.Set(ctx, player, "Strength", 100))
	mustNoErr(t, e.AddModifier(ctx, player, "Strength", Literal(10)))
	mustNoErr(t, e.AddModifier(ctx, player, "Strength", Literal(5)))
	wantEval(t, e, player, "Strength", 115)

	mustNoErr(t, e.Set(ctx, player, "Armor", 100))
	mustNoErr(t, e.AddModifier(ctx, player, "Armor", Literal(1.1)))
	mustNoErr(t, e.AddModifier(ctx, player, "Armor", Literal(1.2)))
	wantEval(t, e, player, "Armor", 132)

	mustNoErr(t, e.Set(ctx, player, "Speed.base", 100))
	wantEval(t, e, player, "Speed.more", 1)
	mustNoErr(t, e.AddModifier(ctx, player, "Speed.more", Literal(1.1)))
	mustNoErr(t, e.AddModifier(ctx, player, "Speed.more", Literal(1.2)))
	wantEval(t, e, player, "Speed", 132)
}

// TestRelationships_ModifiablePartKey verifies a relationship and default
// base registered under a Modifiable stat's part name apply to the stat.
func TestRelationships_ModifiablePartKey(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, func(r *registry.Registry) {
		mustNoErr(t, r.RegisterRelationship("Armor.base", registry.Mul))
		mustNoErr(t, r.RegisterDefaultBase("Armor.base", 100))
	})

	wantEval(t, e, player, "Armor", 100)
	mustNoErr(t, e.AddModifier(ctx, player, "Armor.base", Literal(1.1)))
	mustNoErr(t, e.AddModifier(ctx, player, "Armor.base", Literal(1.2)))
	wantEval(t, e, player, "Armor", 132)
	wantEval(t, e, player, "Armor.base", 132)
}

// TestEvaluate_DoublePrecision verifies expression modifiers round every
// step to float64, matching the same arithmetic in Go.
func TestEvaluate_DoublePrecision(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, nil)

	mustNoErr(t, e.Set(ctx, player, "Strength", 3))
	mustNoErr(t, e.AddModifier(ctx, player, "AttackPower", Expression("Strength * 0.1")))

	strength, factor := 3.0, 0.1
	want := strength * factor
	if got := mustEval(t, e, player, "AttackPower"); got != want {
		t.Errorf("Evaluate(AttackPower) = %.17g, want %.17g", got, want)
	}
}

// TestComplex verifies part evaluation, settable parts, and part errors.
func TestComplex(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, func(r *registry.Registry) {
		mustNoErr(t, r.RegisterTotalExpression("Damage", "(base + added) * (1 + increased / 100)"))
		mustNoErr(t, r.RegisterParts("Damage", "base", "added", "increased"))
		mustNoErr(t, r.RegisterDefaultBase("Damage.base", 4))
	})

	wantEval(t, e, player, "Damage", 4)
	mustNoErr(t, e.Set(ctx, player, "Damage.base", 10))
	mustNoErr(t, e.AddModifier(ctx, player, "Damage.increased", Literal(50)))
	wantEval(t, e, player, "Damage", 15)
	wantEval(t, e, player, "Damage.increased", 50)
	mustNoErr(t, e.AddModifier(ctx, player, "Damage.added", Literal(10)))
	wantEval(t, e, player, "Damage", 30)

	wantErr(t, e.Set(ctx, player, "Damage.increased", 1), ErrNotSettable)
	wantErr(t, e.Set(ctx, player, "Damage", 1), ErrNotSettable)
	wantErr(t, e.AddModifier(ctx, player, "Damage", Literal(1)), ErrUnknownPart)
	wantErr(t, e.AddModifier(ctx, player, "Damage.more", Literal(1)), ErrUnknownPart)
	_, err := e.Evaluate(ctx, player, "Damage.more")
	wantErr(t, err, ErrUnknownPart)
	_, err = e.Evaluate(ctx, player, "Damage.{7}")
	wantErr(t, err, ErrMalformedPath)
}

// TestFlat verifies flat stats hold one value and are never cached.
func TestFlat(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, func(r *registry.Registry) {
		mustNoErr(t, r.RegisterStatType("Level", registry.Flat))
	})

	mustNoErr(t, e.Set(ctx, player, "Level", 5))
	mustNoErr(t, e.AddModifier(ctx, player, "Level", Literal(2)))
	wantEval(t, e, player, "Level", 7)
	mustNoErr(t, e.RemoveModifier(ctx, player, "Level", Literal(2)))
	wantEval(t, e, player, "Level", 5)

	before := e.Counters()
	wantEval(t, e, player, "Level", 5)
	if after := e.Counters(); after.Recomputations != before.Recomputations || after.Hits != before.Hits {
		t.Errorf("flat read touched the cache: before %+v after %+v", before, after)
	}

	wantErr(t, e.AddModifier(ctx, player, "Level", Expression("Strength")), ErrUnsupportedModifier)
	wantErr(t, e.Set(ctx, player, "Level.base", 1), ErrUnknownPart)
	wantErr(t, e.Set(ctx, player, "Level", math.NaN()), ErrInvalidValue)

	mustNoErr(t, e.AddModifier(ctx, player, "AttackPower", Expression("Level * 10")))
	wantEval(t, e, player, "AttackPower", 50)
	mustNoErr(t, e.Set(ctx, player, "Level", 6))
	wantEval(t, e, player, "AttackPower", 60)
}

// TestRemoveModifier verifies multiset removal semantics.
func TestRemoveModifier(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, nil)

	mustNoErr(t, e.AddModifier(ctx, player, "Strength", Literal(5)))
	mustNoErr(t, e.AddModifier(ctx, player, "Strength", Literal(5)))
	wantEval(t, e, player, "Strength", 10)

	mustNoErr(t, e.RemoveModifier(ctx, player, "Strength", Literal(5)))
	wantEval(t, e, player, "Strength", 5)
	wantErr(t, e.RemoveModifier(ctx, player, "Strength", Literal(5.0000001)), ErrNoSuchModifier)
	mustNoErr(t, e.RemoveModifier(ctx, player, "Strength.base", Literal(5)))
	wantEval(t, e, player, "Strength", 0)
	wantErr(t, e.RemoveModifier(ctx, player, "Strength", Literal(5)), ErrNoSuchModifier)
	wantErr(t, e.RemoveModifier(ctx, player, "Unknown", Literal(1)), ErrNoSuchModifier)

	mustNoErr(t, e.AddModifier(ctx, player, "AttackPower", Expression("Strength  *  2")))
	mustNoErr(t, e.RemoveModifier(ctx, player, "AttackPower", Expression("Strength * 2")))
	if st := e.entities[player]; len(st.rdeps) != 0 {
		t.Errorf("edges left after removing the expression: %v", st.rdeps)
	}

	mustNoErr(t, e.AddModifier(ctx, player, "AttackPower", Literal(3)))
	mustNoErr(t, e.Set(ctx, player, "Strength", 100))
	wantEval(t, e, player, "AttackPower", 3)
}

// TestAddModifier_Errors verifies rejected modifiers leave state unchanged.
func TestAddModifier_Errors(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, nil)

	tests := []struct {
		name string
		path string
		mod  Modifier
		want error
	}{
		{"malformed path", "Strength..base", Literal(1), ErrMalformedPath},
		{"NaN literal", "Strength", Literal(math.NaN()), ErrInvalidValue},
		{"bad expression", "Strength", Expression("1 +"), ErrParse},
		{"unknown function", "Strength", Expression("sqrt(4)"), ErrParse},
		{"unknown part", "Strength.increased", Literal(1), ErrUnknownPart},
		{"tags on modifiable path", "Strength.7", Literal(1), ErrMalformedPath},
		{"tagged modifier", "Strength", Literal(1).WithTags(4), ErrUnsupportedModifier},
		{"unknown source", "Leader@Strength", Literal(1), ErrUnknownSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantErr(t, e.AddModifier(ctx, player, tt.path, tt.mod), tt.want)
		})
	}
	wantEval(t, e, player, "Strength", 0)
}

// TestCycleRejection verifies cycles are rejected at edge creation.
func TestCycleRejection(t *testing.T) {
	ctx := context.Background()

	t.Run("registry totals", func(t *testing.T) {
		reg := registry.New()
		mustNoErr(t, reg.RegisterTotalExpression("A", "B"))
		wantErr(t, reg.RegisterTotalExpression("B", "A"), ErrCyclicDependency)
		if got := reg.Total("B").Source(); got != registry.DefaultTotalExpression {
			t.Errorf("B total = %q, want default", got)
		}
	})

	t.Run("modifier expressions", func(t *testing.T) {
		e := newEngine(t, nil)
		mustNoErr(t, e.AddModifier(ctx, player, "A", Expression("B + 1")))
		wantErr(t, e.AddModifier(ctx, player, "B", Expression("A")), ErrCyclicDependency)
		wantErr(t, e.AddModifier(ctx, player, "C", Expression("C + 1")), ErrCyclicDependency)
		wantEval(t, e, player, "B", 0)
		wantEval(t, e, player, "A", 1)
	})

	t.Run("modifier against registry total", func(t *testing.T) {
		e := newEngine(t, func(r *registry.Registry) {
			mustNoErr(t, r.RegisterTotalExpression("Life", "base + Vitality * 10"))
		})
		wantErr(t, e.AddModifier(ctx, player, "Vitality", Expression("Life / 100")), ErrCyclicDependency)
	})

	t.Run("through sources", func(t *testing.T) {
		e := newEngine(t, nil)
		mustNoErr(t, e.AddModifier(ctx, player, "X", Expression("Peer@Y")))
		mustNoErr(t, e.AddModifier(ctx, leader, "Y", Expression("Peer@X")))
		mustNoErr(t, e.RegisterSource(ctx, player, "Peer", leader))
		wantErr(t, e.RegisterSource(ctx, leader, "Peer", player), ErrCyclicDependency)
		if got := e.Sources(leader); len(got) != 0 {
			t.Errorf("rejected binding was kept: %v", got)
		}
		_, err := e.Evaluate(ctx, leader, "Y")
		wantErr(t, err, ErrUnknownSource)
	})
}

// TestRecursionGuard verifies deep chains fail with ErrEval instead of overflowing.
func TestRecursionGuard(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, nil, WithMaxDepth(2))

	mustNoErr(t, e.AddModifier(ctx, player, "D1", Expression("D0")))
	mustNoErr(t, e.AddModifier(ctx, player, "D2", Expression("D1")))
	mustNoErr(t, e.AddModifier(ctx, player, "D3", Expression("D2")))

	_, err := e.Evaluate(ctx, player, "D3")
	wantErr(t, err, ErrEval)
	wantEval(t, e, player, "D2", 0)
}

// TestEvalErrors verifies evaluation failures propagate.
func TestEvalErrors(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, nil)

	mustNoErr(t, e.AddModifier(ctx, player, "Ratio", Expression("1 / Divisor")))
	_, err := e.Evaluate(ctx, player, "Ratio")
	wantErr(t, err, ErrEval)

	mustNoErr(t, e.Set(ctx, player, "Divisor", 4))
	wantEval(t, e, player, "Ratio", 0.25)
}

// TestGetCached verifies stale values are returned until the next Evaluate.
func TestGetCached(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, nil)

	got, err := e.GetCached(ctx, player, "Strength")
	if err != nil || got != 0 {
		t.Fatalf("GetCached() = %v, %v", got, err)
	}
	mustNoErr(t, e.Set(ctx, player, "Strength", 5))
	got, _ = e.GetCached(ctx, player, "Strength")
	if got != 0 {
		t.Errorf("GetCached() = %v, want stale 0", got)
	}
	wantEval(t, e, player, "Strength", 5)
	got, _ = e.GetCached(ctx, player, "Strength")
	if got != 5 {
		t.Errorf("GetCached() = %v, want 5", got)
	}
}

// TestEvaluateMany verifies batch reads.
func TestEvaluateMany(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, nil)
	mustNoErr(t, e.Set(ctx, player, "Strength", 3))
	mustNoErr(t, e.Set(ctx, player, "Agility", 4))

	got, err := e.EvaluateMany(ctx, player, "Strength", "Agility", "Luck")
	mustNoErr(t, err)
	if len(got) != 3 || got[0] != 3 || got[1] != 4 || got[2] != 0 {
		t.Errorf("EvaluateMany() = %v", got)
	}

	_, err = e.EvaluateMany(ctx, player, "Strength", "Leader@Strength")
	wantErr(t, err, ErrUnknownSource)
	_, err = e.EvaluateMany(ctx, player, "Strength", "{")
	wantErr(t, err, ErrMalformedPath)
}
