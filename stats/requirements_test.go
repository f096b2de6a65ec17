package stats

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestRequirements_Met verifies conditions are evaluated against current stats.
func TestRequirements_Met(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, nil)
	reqs := MustRequirements("Strength >= 10", "Dexterity >= 5 || Strength >= 20")

	met, err := e.RequirementsMet(ctx, player, reqs)
	mustNoErr(t, err)
	if met {
		t.Error("RequirementsMet = true on empty entity")
	}

	mustNoErr(t, e.Set(ctx, player, "Strength", 8))
	mustNoErr(t, e.AddModifier(ctx, player, "Strength", Literal(2)))
	unmet, err := e.UnmetRequirements(ctx, player, reqs)
	mustNoErr(t, err)
	if diff := cmp.Diff([]string{"Dexterity >= 5 || Strength >= 20"}, unmet); diff != "" {
		t.Errorf("UnmetRequirements mismatch (-want +got):\n%s", diff)
	}

	mustNoErr(t, e.Set(ctx, player, "Dexterity", 5))
	met, err = e.RequirementsMet(ctx, player, reqs)
	mustNoErr(t, err)
	if !met {
		t.Error("RequirementsMet = false after raising Dexterity")
	}
}

// TestRequirements_Sources verifies conditions read through aliases.
func TestRequirements_Sources(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, nil)
	reqs := MustRequirements("Leader@Level > 5")

	_, err := e.RequirementsMet(ctx, player, reqs)
	wantErr(t, err, ErrUnknownSource)

	mustNoErr(t, e.RegisterSource(ctx, player, "Leader", leader))
	mustNoErr(t, e.Set(ctx, leader, "Level", 6))
	met, err := e.RequirementsMet(ctx, player, reqs)
	mustNoErr(t, err)
	if !met {
		t.Error("RequirementsMet = false with Leader@Level 6")
	}
}

// TestRequirements_Combine verifies combined requirements keep both lists in order.
func TestRequirements_Combine(t *testing.T) {
	a := MustRequirements("Strength >= 10")
	b := MustRequirements("Level > 1", "Dexterity < 3")
	c := a.Combine(b)

	want := []string{"Strength >= 10", "Level > 1", "Dexterity < 3"}
	if diff := cmp.Diff(want, c.Sources()); diff != "" {
		t.Errorf("Sources mismatch (-want +got):\n%s", diff)
	}
	if a.Len() != 1 || b.Len() != 2 {
		t.Errorf("Combine modified its inputs: %d, %d", a.Len(), b.Len())
	}

	var none *Requirements
	if got := none.Combine(a).Len(); got != 1 {
		t.Errorf("nil.Combine(a).Len() = %d, want 1", got)
	}
}

// TestRequirements_Errors verifies malformed and failing conditions.
func TestRequirements_Errors(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, nil)

	for _, src := range []string{"Strength", "Strength + 1", "Strength >=", "Strength % 2 == 0"} {
		if _, err := NewRequirements(src); err == nil {
			t.Errorf("NewRequirements(%q) succeeded", src)
		} else {
			wantErr(t, err, ErrParse)
		}
	}

	_, err := e.RequirementsMet(ctx, player, MustRequirements("1 / Strength > 0"))
	wantErr(t, err, ErrEval)

	met, err := e.RequirementsMet(ctx, player, nil)
	mustNoErr(t, err)
	if !met {
		t.Error("RequirementsMet(nil) = false, want true")
	}
}
