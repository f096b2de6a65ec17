package expr

import (
	"fmt"
	"math"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// evaluator walks a checked syntax tree in float64 arithmetic.
type evaluator struct {
	source string
	vars   map[string]float64
}

func (ev *evaluator) fail(format string, args ...any) error {
	return fmt.Errorf("%w: %q: %s", ErrEval, ev.source, fmt.Sprintf(format, args...))
}

func (ev *evaluator) num(node hclsyntax.Expression) (float64, error) {
	switch n := node.(type) {
	case *hclsyntax.LiteralValueExpr:
		return toFloat(n.Val), nil

	case *hclsyntax.ScopeTraversalExpr:
		v, ok := ev.vars[n.Traversal.RootName()]
		if !ok {
			return 0, ev.fail("unbound variable %s", n.Traversal.RootName())
		}
		return v, nil

	case *hclsyntax.ParenthesesExpr:
		return ev.num(n.Expression)

	case *hclsyntax.UnaryOpExpr:
		v, err := ev.num(n.Val)
		return -v, err

	case *hclsyntax.BinaryOpExpr:
		l, err := ev.num(n.LHS)
		if err != nil {
			return 0, err
		}
		r, err := ev.num(n.RHS)
		if err != nil {
			return 0, err
		}
		var v float64
		switch n.Op {
		case hclsyntax.OpAdd:
			v = l + r
		case hclsyntax.OpSubtract:
			v = l - r
		case hclsyntax.OpMultiply:
			v = l * r
		case hclsyntax.OpDivide:
			if r == 0 {
				return 0, ev.fail("division by zero")
			}
			v = l / r
		default:
			return 0, ev.fail("operator is not arithmetic")
		}
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, ev.fail("result out of range")
		}
		return v, nil

	case *hclsyntax.FunctionCallExpr:
		args := make([]cty.Value, len(n.Args))
		for i, arg := range n.Args {
			v, err := ev.num(arg)
			if err != nil {
				return 0, err
			}
			args[i] = cty.NumberFloatVal(v)
		}
		out, err := functions[n.Name].Call(args)
		if err != nil {
			return 0, ev.fail("%s: %v", n.Name, err)
		}
		return toFloat(out), nil

	default:
		return 0, ev.fail("unsupported construct %T", node)
	}
}

func (ev *evaluator) truth(node hclsyntax.Expression) (bool, error) {
	switch n := node.(type) {
	case *hclsyntax.ParenthesesExpr:
		return ev.truth(n.Expression)

	case *hclsyntax.UnaryOpExpr:
		b, err := ev.truth(n.Val)
		return !b, err

	case *hclsyntax.BinaryOpExpr:
		if isLogical(n.Op) {
			l, err := ev.truth(n.LHS)
			if err != nil {
				return false, err
			}
			if n.Op == hclsyntax.OpLogicalAnd && !l {
				return false, nil
			}
			if n.Op == hclsyntax.OpLogicalOr && l {
				return true, nil
			}
			return ev.truth(n.RHS)
		}

		l, err := ev.num(n.LHS)
		if err != nil {
			return false, err
		}
		r, err := ev.num(n.RHS)
		if err != nil {
			return false, err
		}
		switch n.Op {
		case hclsyntax.OpEqual:
			return l == r, nil
		case hclsyntax.OpNotEqual:
			return l != r, nil
		case hclsyntax.OpLessThan:
			return l < r, nil
		case hclsyntax.OpLessThanOrEqual:
			return l <= r, nil
		case hclsyntax.OpGreaterThan:
			return l > r, nil
		case hclsyntax.OpGreaterThanOrEqual:
			return l >= r, nil
		}
	}
	return false, ev.fail("unsupported condition %T", node)
}

// toFloat rounds a cty number to the nearest float64.
func toFloat(v cty.Value) float64 {
	f, _ := v.AsBigFloat().Float64()
	return f
}

func isArithmetic(op *hclsyntax.Operation) bool {
	return op == hclsyntax.OpAdd || op == hclsyntax.OpSubtract ||
		op == hclsyntax.OpMultiply || op == hclsyntax.OpDivide
}

func isComparison(op *hclsyntax.Operation) bool {
	switch op {
	case hclsyntax.OpEqual, hclsyntax.OpNotEqual,
		hclsyntax.OpLessThan, hclsyntax.OpLessThanOrEqual,
		hclsyntax.OpGreaterThan, hclsyntax.OpGreaterThanOrEqual:
		return true
	}
	return false
}

func isLogical(op *hclsyntax.Operation) bool {
	return op == hclsyntax.OpLogicalAnd || op == hclsyntax.OpLogicalOr
}
