package expr_test

import (
	"fmt"

	"github.com/jonwraymond/statgauge/expr"
)

func ExampleProgram_Eval() {
	p, err := expr.Compile("Leader@Strength * 0.1 + base")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(p.Variables())

	values := map[string]float64{"Leader@Strength": 50, "base": 10}
	v, err := p.Eval(func(name string) (float64, error) {
		return values[name], nil
	})
	fmt.Println(v, err)
	// Output:
	// [Leader@Strength base]
	// 15 <nil>
}
