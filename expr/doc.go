// Package expr compiles and evaluates arithmetic expressions over named
// variables.
//
// Expressions support + - * / unary minus, parentheses, numeric literals,
// and the functions min, max, abs, floor, and ceil. Variable names may be
// dotted or alias-qualified stat paths such as Strength, Damage.base, or
// Leader@Strength. Variable values are supplied at evaluation time by a
// Resolver, so the package never touches entity state.
//
// CompileCondition accepts the same operands joined by comparisons
// (== != < <= > >=) and the logical operators && || and !. Condition
// programs are evaluated with Holds; arithmetic programs with Eval.
//
// Parsing is delegated to HCL native syntax; before parsing, every variable
// path is replaced by a synthetic identifier so that path punctuation never
// reaches the HCL parser. Evaluation walks the parsed tree in float64
// arithmetic, so results match the same formula written in Go.
package expr
