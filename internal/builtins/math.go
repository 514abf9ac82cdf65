package builtins

import (
	"math"
	"math/rand"

	"github.com/ecmago/ecmago/internal/value"
	"github.com/ecmago/ecmago/internal/vm"
)

// installMath wires the Math namespace object: its constants and the
// common transcendental/rounding functions over float64, matching
// spec.md's "real but minimal" bar for this object (no full IEEE-754
// edge-case audit beyond what math.* already gives).
func installMath(v *vm.VM) {
	m := v.NewPlainObject()

	v.DefineValue(m, "PI", value.Float64(math.Pi))
	v.DefineValue(m, "E", value.Float64(math.E))
	v.DefineValue(m, "LN2", value.Float64(math.Ln2))
	v.DefineValue(m, "LN10", value.Float64(math.Log(10)))
	v.DefineValue(m, "SQRT2", value.Float64(math.Sqrt2))

	unary := func(name string, fn func(float64) float64) {
		v.DefineMethod(m, name, 1, func(this value.Value, args []value.Value) (value.Value, error) {
			return value.Float64(fn(v.ToNumber(arg(args, 0)))), nil
		})
	}
	unary("abs", math.Abs)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("trunc", math.Trunc)
	unary("sqrt", math.Sqrt)
	unary("cbrt", math.Cbrt)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("asin", math.Asin)
	unary("acos", math.Acos)
	unary("atan", math.Atan)
	unary("log", math.Log)
	unary("log2", math.Log2)
	unary("log10", math.Log10)
	unary("exp", math.Exp)
	unary("sign", func(f float64) float64 {
		switch {
		case f > 0:
			return 1
		case f < 0:
			return -1
		default:
			return f
		}
	})
	unary("round", func(f float64) float64 { return math.Floor(f + 0.5) })

	v.DefineMethod(m, "pow", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Float64(math.Pow(v.ToNumber(arg(args, 0)), v.ToNumber(arg(args, 1)))), nil
	})

	v.DefineMethod(m, "atan2", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Float64(math.Atan2(v.ToNumber(arg(args, 0)), v.ToNumber(arg(args, 1)))), nil
	})

	v.DefineMethod(m, "max", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Float64(math.Inf(-1)), nil
		}
		best := math.Inf(-1)
		for _, a := range args {
			n := v.ToNumber(a)
			if math.IsNaN(n) {
				return value.Float64(math.NaN()), nil
			}
			if n > best {
				best = n
			}
		}
		return value.Float64(best), nil
	})

	v.DefineMethod(m, "min", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Float64(math.Inf(1)), nil
		}
		best := math.Inf(1)
		for _, a := range args {
			n := v.ToNumber(a)
			if math.IsNaN(n) {
				return value.Float64(math.NaN()), nil
			}
			if n < best {
				best = n
			}
		}
		return value.Float64(best), nil
	})

	v.DefineMethod(m, "random", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Float64(rand.Float64()), nil
	})

	v.GlobalObject().Set(v.StringKey("Math"), value.ObjectVal(m))
}
