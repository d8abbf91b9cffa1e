package intrinsics

import (
	"math"
	"math/rand"

	"ecmacore/pkg/runtime"
)

// MathInitializer builds the Math namespace object. Grounded directly on
// the teacher's math_init.go method-for-method (same constants, same
// per-method NaN-on-no-args behavior, same min/max NaN-propagation and
// imul/clz32 bit-twiddling) with args coerced through pkg/runtime's
// Value.ToNumber instead of the teacher's Value.ToFloat.
type MathInitializer struct{}

func (m *MathInitializer) Name() string  { return "Math" }
func (m *MathInitializer) Priority() int { return PriorityMath }

func arg0(args []runtime.Value) (float64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	return args[0].ToNumber(), true
}

func unary(name string, f func(float64) float64) func(runtime.Value, []runtime.Value) (runtime.Value, error) {
	return func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		v, ok := arg0(args)
		if !ok {
			return runtime.NewNumber(nan()), nil
		}
		return runtime.NewNumber(f(v)), nil
	}
}

func (m *MathInitializer) Init(ctx *Context) error {
	obj := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	obj.DefineDataProperty("E", runtime.NewNumber(math.E), false, false, false)
	obj.DefineDataProperty("LN10", runtime.NewNumber(math.Ln10), false, false, false)
	obj.DefineDataProperty("LN2", runtime.NewNumber(math.Ln2), false, false, false)
	obj.DefineDataProperty("LOG10E", runtime.NewNumber(math.Log10E), false, false, false)
	obj.DefineDataProperty("LOG2E", runtime.NewNumber(math.Log2E), false, false, false)
	obj.DefineDataProperty("PI", runtime.NewNumber(math.Pi), false, false, false)
	obj.DefineDataProperty("SQRT1_2", runtime.NewNumber(math.Sqrt2/2), false, false, false)
	obj.DefineDataProperty("SQRT2", runtime.NewNumber(math.Sqrt2), false, false, false)

	obj.DefineMethod("abs", 1, unary("abs", math.Abs))
	obj.DefineMethod("acos", 1, unary("acos", math.Acos))
	obj.DefineMethod("acosh", 1, unary("acosh", math.Acosh))
	obj.DefineMethod("asin", 1, unary("asin", math.Asin))
	obj.DefineMethod("asinh", 1, unary("asinh", math.Asinh))
	obj.DefineMethod("atan", 1, unary("atan", math.Atan))
	obj.DefineMethod("atanh", 1, unary("atanh", math.Atanh))
	obj.DefineMethod("atan2", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) < 2 {
			return runtime.NewNumber(nan()), nil
		}
		return runtime.NewNumber(math.Atan2(args[0].ToNumber(), args[1].ToNumber())), nil
	})
	obj.DefineMethod("cbrt", 1, unary("cbrt", math.Cbrt))
	obj.DefineMethod("ceil", 1, unary("ceil", math.Ceil))
	obj.DefineMethod("clz32", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 {
			return runtime.NewNumber(32), nil
		}
		val := uint32(int64(args[0].ToNumber()))
		if val == 0 {
			return runtime.NewNumber(32), nil
		}
		count := 0
		for i := 31; i >= 0; i-- {
			if (val>>uint(i))&1 == 1 {
				break
			}
			count++
		}
		return runtime.NewNumber(float64(count)), nil
	})
	obj.DefineMethod("cos", 1, unary("cos", math.Cos))
	obj.DefineMethod("cosh", 1, unary("cosh", math.Cosh))
	obj.DefineMethod("exp", 1, unary("exp", math.Exp))
	obj.DefineMethod("expm1", 1, unary("expm1", math.Expm1))
	obj.DefineMethod("floor", 1, unary("floor", math.Floor))
	obj.DefineMethod("fround", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		v, ok := arg0(args)
		if !ok {
			return runtime.NewNumber(nan()), nil
		}
		return runtime.NewNumber(float64(float32(v))), nil
	})
	obj.DefineMethod("hypot", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 {
			return runtime.NewNumber(0), nil
		}
		sum := 0.0
		for _, a := range args {
			v := a.ToNumber()
			sum += v * v
		}
		return runtime.NewNumber(math.Sqrt(sum)), nil
	})
	obj.DefineMethod("imul", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) < 2 {
			return runtime.NewNumber(0), nil
		}
		a := int32(int64(args[0].ToNumber()))
		b := int32(int64(args[1].ToNumber()))
		return runtime.NewNumber(float64(a * b)), nil
	})
	obj.DefineMethod("log", 1, unary("log", math.Log))
	obj.DefineMethod("log1p", 1, unary("log1p", math.Log1p))
	obj.DefineMethod("log10", 1, unary("log10", math.Log10))
	obj.DefineMethod("log2", 1, unary("log2", math.Log2))
	obj.DefineMethod("max", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 {
			return runtime.NewNumber(math.Inf(-1)), nil
		}
		best := args[0].ToNumber()
		for i := 1; i < len(args); i++ {
			v := args[i].ToNumber()
			if v > best || math.IsNaN(v) {
				best = v
			}
		}
		return runtime.NewNumber(best), nil
	})
	obj.DefineMethod("min", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 {
			return runtime.NewNumber(math.Inf(1)), nil
		}
		best := args[0].ToNumber()
		for i := 1; i < len(args); i++ {
			v := args[i].ToNumber()
			if v < best || math.IsNaN(v) {
				best = v
			}
		}
		return runtime.NewNumber(best), nil
	})
	obj.DefineMethod("pow", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) < 2 {
			return runtime.NewNumber(nan()), nil
		}
		return runtime.NewNumber(math.Pow(args[0].ToNumber(), args[1].ToNumber())), nil
	})
	obj.DefineMethod("random", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewNumber(rand.Float64()), nil
	})
	obj.DefineMethod("round", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		v, ok := arg0(args)
		if !ok {
			return runtime.NewNumber(nan()), nil
		}
		return runtime.NewNumber(math.Round(v)), nil
	})
	obj.DefineMethod("sign", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		v, ok := arg0(args)
		if !ok {
			return runtime.NewNumber(nan()), nil
		}
		if math.IsNaN(v) || v == 0 {
			return runtime.NewNumber(v), nil
		}
		if v > 0 {
			return runtime.NewNumber(1), nil
		}
		return runtime.NewNumber(-1), nil
	})
	obj.DefineMethod("sin", 1, unary("sin", math.Sin))
	obj.DefineMethod("sinh", 1, unary("sinh", math.Sinh))
	obj.DefineMethod("sqrt", 1, unary("sqrt", math.Sqrt))
	obj.DefineMethod("tan", 1, unary("tan", math.Tan))
	obj.DefineMethod("tanh", 1, unary("tanh", math.Tanh))
	obj.DefineMethod("trunc", 1, unary("trunc", math.Trunc))

	ctx.DefineGlobal("Math", runtime.NewObject(obj))
	ctx.SetIntrinsic("Math", obj)
	return nil
}
