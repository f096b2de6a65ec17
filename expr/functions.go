package expr

import (
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// functions are the calls available inside expressions.
var functions = map[string]function.Function{
	"min":   stdlib.MinFunc,
	"max":   stdlib.MaxFunc,
	"abs":   stdlib.AbsoluteFunc,
	"floor": stdlib.FloorFunc,
	"ceil":  stdlib.CeilFunc,
}

// Functions returns the names of the built-in functions.
func Functions() []string {
	return []string{"abs", "ceil", "floor", "max", "min"}
}
