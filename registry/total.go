package registry

import (
	"fmt"

	"github.com/jonwraymond/statgauge/expr"
	"github.com/jonwraymond/statgauge/statpath"
)

// Ref is a stat reference inside an expression.
type Ref struct {
	// Var is the variable name as written in the expression.
	Var string

	// Path is the parsed reference.
	Path statpath.Path
}

// Total is a compiled total expression with its variables classified into
// part names and stat references.
type Total struct {
	Program *expr.Program
	Parts   []string
	Refs    []Ref
}

// Source returns the normalized expression source.
func (t *Total) Source() string {
	return t.Program.Source()
}

// IsPartName reports whether an expression variable names a part of the
// stat being totalled: a bare identifier starting with a lower-case letter.
// Everything else is a stat reference.
func IsPartName(v string) bool {
	return statpath.IsIdent(v) && v[0] >= 'a' && v[0] <= 'z'
}

// ClassifyVariables splits p's variables into part names and stat references.
func ClassifyVariables(p *expr.Program, resolver statpath.TagResolver) ([]string, []Ref, error) {
	var (
		parts []string
		refs  []Ref
	)
	for _, v := range p.Variables() {
		if IsPartName(v) {
			parts = append(parts, v)
			continue
		}
		path, err := statpath.Parse(v, resolver)
		if err != nil {
			return nil, nil, fmt.Errorf("variable %q: %w", v, err)
		}
		refs = append(refs, Ref{Var: v, Path: path})
	}
	return parts, refs, nil
}

func (r *Registry) compileTotal(src string) (*Total, error) {
	p, err := r.compiler.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTotal, err)
	}
	parts, refs, err := ClassifyVariables(p, r.universe)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidTotal, src, err)
	}
	return &Total{Program: p, Parts: parts, Refs: refs}, nil
}
