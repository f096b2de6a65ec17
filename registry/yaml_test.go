package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleYAML = `
default_kind: modifiable
tags: [FIRE, COLD, LIGHTNING, AXE]
categories:
  ELEMENTAL: [FIRE, COLD, LIGHTNING]
relationships:
  more: mul
stats:
  Health:
    kind: flat
  Strength:
    base: 10
  Damage:
    kind: tagged
    total: "base * (1 + increased) * more"
    parts: [base, increased, more]
  Life:
    total: "base + Strength * 2"
    settable: base
    bases:
      base: 50
`

// TestLoadYAML verifies a full document is applied.
func TestLoadYAML(t *testing.T) {
	r := New()
	if err := LoadYAML(r, strings.NewReader(sampleYAML)); err != nil {
		t.Fatalf("LoadYAML error = %v", err)
	}
	if err := r.Freeze(); err != nil {
		t.Fatalf("Freeze error = %v", err)
	}

	if r.Kind("Health") != Flat || r.Kind("Damage") != Tagged || r.Kind("Life") != Complex {
		t.Errorf("kinds = %v %v %v", r.Kind("Health"), r.Kind("Damage"), r.Kind("Life"))
	}
	if got := r.DefaultBase("Strength", ""); got != 10 {
		t.Errorf("DefaultBase(Strength) = %v, want 10", got)
	}
	if got := r.DefaultBase("Life", "base"); got != 50 {
		t.Errorf("DefaultBase(Life.base) = %v, want 50", got)
	}
	if got := r.Relationship("Damage", "more"); got != Mul {
		t.Errorf("Relationship(Damage.more) = %v, want mul", got)
	}
	if diff := cmp.Diff([]string{"base", "increased", "more"}, r.Parts("Damage")); diff != "" {
		t.Errorf("Parts mismatch (-want +got):\n%s", diff)
	}

	fire, _ := r.Universe().Lookup("FIRE")
	elemental, _ := r.Universe().Lookup("ELEMENTAL")
	if r.Universe().ExpandPermissive(fire)&elemental == 0 {
		t.Error("FIRE should expand to ELEMENTAL")
	}
}

// TestLoadYAML_Errors verifies decode and apply errors.
func TestLoadYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"unknown kind", "stats:\n  X:\n    kind: derived\n", ErrUnknownKind},
		{"unknown relationship", "relationships:\n  more: pow\n", ErrUnknownRelationship},
		{"bad total", "stats:\n  X:\n    total: \"base +\"\n", ErrInvalidTotal},
		{"cycle", "stats:\n  A:\n    total: B\n  B:\n    total: A\n", ErrCyclicDependency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := LoadYAML(New(), strings.NewReader(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Errorf("LoadYAML error = %v, want %v", err, tt.want)
			}
		})
	}

	if err := LoadYAML(New(), strings.NewReader("bogus_field: 1\n")); err == nil {
		t.Error("unknown field should fail decoding")
	}
}

// TestLoadYAML_Empty verifies an empty document is a no-op.
func TestLoadYAML_Empty(t *testing.T) {
	if err := LoadYAML(New(), strings.NewReader("")); err != nil {
		t.Errorf("LoadYAML(empty) error = %v", err)
	}
}

// TestLoadYAMLFile verifies loading from disk.
func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	r := New()
	if err := LoadYAMLFile(r, path); err != nil {
		t.Fatalf("LoadYAMLFile error = %v", err)
	}
	if r.Kind("Damage") != Tagged {
		t.Errorf("Kind(Damage) = %v, want tagged", r.Kind("Damage"))
	}
	if err := LoadYAMLFile(New(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}
