package expr

import (
	"fmt"
	"math"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/jonwraymond/statgauge/cache"
)

// Resolver supplies the value of a variable by its name as written in the
// source. Errors are returned from Eval unchanged.
type Resolver func(name string) (float64, error)

// Program is a compiled expression. It is immutable and safe for
// concurrent use.
type Program struct {
	source string
	expr   hclsyntax.Expression
	vars   []string
	cond   bool
}

// Compile parses src as an arithmetic expression. It does not consult any
// cache.
func Compile(src string) (*Program, error) {
	return compile(src, false)
}

// CompileCondition parses src as a condition: comparisons (== != < <= > >=)
// between arithmetic operands, combined with && || and !. Conditions are
// evaluated with Holds.
func CompileCondition(src string) (*Program, error) {
	return compile(src, true)
}

func compile(src string, cond bool) (*Program, error) {
	source := cache.NormalizeKey(src)
	if source == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrParse)
	}

	rewritten, vars, err := rewrite(source)
	if err != nil {
		return nil, err
	}

	parsed, diags := hclsyntax.ParseExpression([]byte(rewritten), "expression", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %q: %s", ErrParse, source, diags.Error())
	}
	if diags := hclsyntax.VisitAll(parsed, nodeChecker(cond)); diags.HasErrors() {
		return nil, fmt.Errorf("%w: %q: %s", ErrParse, source, diags.Error())
	}
	if diags := checkShape(parsed, cond); diags.HasErrors() {
		return nil, fmt.Errorf("%w: %q: %s", ErrParse, source, diags.Error())
	}

	return &Program{source: source, expr: parsed, vars: vars, cond: cond}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) *Program {
	p, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return p
}

// Source returns the normalized source text.
func (p *Program) Source() string {
	return p.source
}

// String returns the normalized source text.
func (p *Program) String() string {
	return p.source
}

// Variables returns the distinct variable names in order of first use.
func (p *Program) Variables() []string {
	out := make([]string, len(p.vars))
	copy(out, p.vars)
	return out
}

// IsConstant reports whether the program references no variables.
func (p *Program) IsConstant() bool {
	return len(p.vars) == 0
}

// IsCondition reports whether the program was compiled by CompileCondition.
func (p *Program) IsCondition() bool {
	return p.cond
}

// Eval evaluates an arithmetic program, resolving every variable through
// resolve. A nil resolver is only valid for constant programs. Every
// intermediate result is a float64.
func (p *Program) Eval(resolve Resolver) (float64, error) {
	if p.cond {
		return 0, fmt.Errorf("%w: %q: condition evaluated as a number", ErrEval, p.source)
	}
	ev, err := p.bind(resolve)
	if err != nil {
		return 0, err
	}
	v, err := ev.num(p.expr)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q: result is infinite", ErrEval, p.source)
	}
	return v, nil
}

// Holds evaluates a condition program.
func (p *Program) Holds(resolve Resolver) (bool, error) {
	if !p.cond {
		return false, fmt.Errorf("%w: %q: number evaluated as a condition", ErrEval, p.source)
	}
	ev, err := p.bind(resolve)
	if err != nil {
		return false, err
	}
	return ev.truth(p.expr)
}

func (p *Program) bind(resolve Resolver) (*evaluator, error) {
	vars := make(map[string]float64, len(p.vars))
	for i, name := range p.vars {
		if resolve == nil {
			return nil, fmt.Errorf("%w: %q: no resolver for variable %q", ErrEval, p.source, name)
		}
		v, err := resolve(name)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(v) {
			return nil, fmt.Errorf("%w: %q: variable %q is NaN", ErrEval, p.source, name)
		}
		vars[syntheticName(i)] = v
	}
	return &evaluator{source: p.source, vars: vars}, nil
}

// nodeChecker admits arithmetic over numbers and calls to built-ins, plus
// comparisons and logical operators when cond is set.
func nodeChecker(cond bool) func(hclsyntax.Node) hcl.Diagnostics {
	return func(node hclsyntax.Node) hcl.Diagnostics {
		switch n := node.(type) {
		case *hclsyntax.LiteralValueExpr:
			if !n.Val.Type().Equals(cty.Number) {
				return unsupported(n.SrcRange, "only numeric literals are allowed")
			}
		case *hclsyntax.ScopeTraversalExpr:
			if len(n.Traversal) != 1 {
				return unsupported(n.SrcRange, "attribute or index access is not allowed")
			}
		case *hclsyntax.BinaryOpExpr:
			switch {
			case isArithmetic(n.Op):
			case cond && (isComparison(n.Op) || isLogical(n.Op)):
			case cond:
				return unsupported(n.SrcRange, "only + - * /, comparisons, && and || are allowed")
			default:
				return unsupported(n.SrcRange, "only + - * / are allowed")
			}
		case *hclsyntax.UnaryOpExpr:
			if n.Op != hclsyntax.OpNegate && !(cond && n.Op == hclsyntax.OpLogicalNot) {
				return unsupported(n.SrcRange, "only unary minus is allowed")
			}
		case *hclsyntax.ParenthesesExpr:
		case *hclsyntax.FunctionCallExpr:
			if _, ok := functions[n.Name]; !ok {
				return unsupported(n.NameRange, fmt.Sprintf("unknown function %q; available: %s",
					n.Name, strings.Join(Functions(), ", ")))
			}
			if n.ExpandFinal {
				return unsupported(n.NameRange, "argument expansion is not allowed")
			}
		default:
			return unsupported(node.Range(), fmt.Sprintf("unsupported construct %T", node))
		}
		return nil
	}
}

// checkShape verifies that numbers and conditions are used where each is
// expected: the root of a condition program is a condition, comparisons
// take numbers, and logical operators take conditions.
func checkShape(node hclsyntax.Expression, wantCond bool) hcl.Diagnostics {
	switch n := node.(type) {
	case *hclsyntax.ParenthesesExpr:
		return checkShape(n.Expression, wantCond)
	case *hclsyntax.BinaryOpExpr:
		switch {
		case isLogical(n.Op):
			if !wantCond {
				return unsupported(n.SrcRange, "a condition is not a number")
			}
			return append(checkShape(n.LHS, true), checkShape(n.RHS, true)...)
		case isComparison(n.Op):
			if !wantCond {
				return unsupported(n.SrcRange, "a comparison is not a number")
			}
			return append(checkShape(n.LHS, false), checkShape(n.RHS, false)...)
		default:
			if wantCond {
				return unsupported(n.SrcRange, "a number is not a condition")
			}
			return append(checkShape(n.LHS, false), checkShape(n.RHS, false)...)
		}
	case *hclsyntax.UnaryOpExpr:
		if n.Op == hclsyntax.OpLogicalNot {
			if !wantCond {
				return unsupported(n.SrcRange, "a condition is not a number")
			}
			return checkShape(n.Val, true)
		}
		if wantCond {
			return unsupported(n.SrcRange, "a number is not a condition")
		}
		return checkShape(n.Val, false)
	case *hclsyntax.FunctionCallExpr:
		if wantCond {
			return unsupported(n.NameRange, "a number is not a condition")
		}
		var diags hcl.Diagnostics
		for _, arg := range n.Args {
			diags = append(diags, checkShape(arg, false)...)
		}
		return diags
	default:
		if wantCond {
			return unsupported(node.Range(), "a number is not a condition")
		}
		return nil
	}
}

func unsupported(rng hcl.Range, detail string) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Unsupported expression",
		Detail:   detail,
		Subject:  rng.Ptr(),
	}}
}
