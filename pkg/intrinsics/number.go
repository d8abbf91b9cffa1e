package intrinsics

import (
	"math"
	"strconv"

	"ecmacore/pkg/runtime"
)

// NumberInitializer builds Number.prototype (toString with radix,
// toFixed, valueOf) and the Number constructor's static constants.
// Grounded on the teacher's number_init.go, including its toString radix
// validation (RangeError outside [2, 36]) and special-case handling for
// NaN/Infinity ahead of any radix conversion.
type NumberInitializer struct{}

func (n *NumberInitializer) Name() string  { return "Number" }
func (n *NumberInitializer) Priority() int { return PriorityNumber }

func numberOf(this runtime.Value) (float64, bool) {
	if this.IsNumber() {
		return this.AsNumber(), true
	}
	if this.Type() == runtime.TypeObject {
		if raw, ok := this.AsObject().Slots["primitive"]; ok {
			if v, ok := raw.(runtime.Value); ok && v.IsNumber() {
				return v.AsNumber(), true
			}
		}
	}
	return 0, false
}

func (n *NumberInitializer) Init(ctx *Context) error {
	proto := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	proto.Class = "Number"
	ctx.SetIntrinsic("NumberPrototype", proto)

	proto.DefineMethod("toString", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		num, ok := numberOf(this)
		if !ok {
			return runtime.Undefined, runtime.NewTypeErrorValue("Number.prototype.toString requires that 'this' be a Number")
		}
		radix := 10
		if len(args) > 0 && !args[0].IsUndefined() {
			radix = int(runtime.ToInteger(args[0].ToNumber()))
			if radix < 2 || radix > 36 {
				return runtime.Undefined, runtime.NewRangeErrorValue("toString() radix must be between 2 and 36")
			}
		}
		if math.IsNaN(num) {
			return runtime.NewString("NaN"), nil
		}
		if math.IsInf(num, 1) {
			return runtime.NewString("Infinity"), nil
		}
		if math.IsInf(num, -1) {
			return runtime.NewString("-Infinity"), nil
		}
		if radix == 10 {
			return runtime.NewString(runtime.NumberToString(num)), nil
		}
		return runtime.NewString(strconv.FormatInt(int64(num), radix)), nil
	})
	proto.DefineMethod("toFixed", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		num, ok := numberOf(this)
		if !ok {
			return runtime.Undefined, runtime.NewTypeErrorValue("Number.prototype.toFixed requires that 'this' be a Number")
		}
		digits := 0
		if len(args) > 0 && !args[0].IsUndefined() {
			digits = int(runtime.ToInteger(args[0].ToNumber()))
		}
		if digits < 0 || digits > 100 {
			return runtime.Undefined, runtime.NewRangeErrorValue("toFixed() digits argument must be between 0 and 100")
		}
		if math.IsNaN(num) {
			return runtime.NewString("NaN"), nil
		}
		return runtime.NewString(strconv.FormatFloat(num, 'f', digits, 64)), nil
	})
	proto.DefineMethod("toPrecision", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		num, ok := numberOf(this)
		if !ok {
			return runtime.Undefined, runtime.NewTypeErrorValue("Number.prototype.toPrecision requires that 'this' be a Number")
		}
		if len(args) == 0 || args[0].IsUndefined() {
			return runtime.NewString(runtime.NumberToString(num)), nil
		}
		prec := int(runtime.ToInteger(args[0].ToNumber()))
		return runtime.NewString(strconv.FormatFloat(num, 'g', prec, 64)), nil
	})
	proto.DefineMethod("valueOf", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		num, ok := numberOf(this)
		if !ok {
			return runtime.Undefined, runtime.NewTypeErrorValue("Number.prototype.valueOf requires that 'this' be a Number")
		}
		return runtime.NewNumber(num), nil
	})
	proto.DefineMethod("toLocaleString", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		num, ok := numberOf(this)
		if !ok {
			return runtime.Undefined, runtime.NewTypeErrorValue("Number.prototype.toLocaleString requires that 'this' be a Number")
		}
		return runtime.NewString(runtime.NumberToString(num)), nil
	})

	ctor := runtime.NewNativeFunction("Number", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 {
			return runtime.NewNumber(0), nil
		}
		return runtime.NewNumber(args[0].ToNumber()), nil
	})
	ctor.Construct = func(args []runtime.Value, newTarget runtime.Value) (runtime.Value, error) {
		n := 0.0
		if len(args) > 0 {
			n = args[0].ToNumber()
		}
		box := runtime.NewPlainObject(proto)
		box.Class = "Number"
		box.Slots = map[string]interface{}{"primitive": runtime.NewNumber(n)}
		return runtime.NewObject(box), nil
	}
	ctor.DefineDataProperty("prototype", runtime.NewObject(proto), false, false, false)
	proto.DefineDataProperty("constructor", runtime.NewObject(ctor), true, false, true)

	ctor.DefineDataProperty("MAX_SAFE_INTEGER", runtime.NewNumber(9007199254740991), false, false, false)
	ctor.DefineDataProperty("MIN_SAFE_INTEGER", runtime.NewNumber(-9007199254740991), false, false, false)
	ctor.DefineDataProperty("MAX_VALUE", runtime.NewNumber(math.MaxFloat64), false, false, false)
	ctor.DefineDataProperty("MIN_VALUE", runtime.NewNumber(5e-324), false, false, false)
	ctor.DefineDataProperty("EPSILON", runtime.NewNumber(2.220446049250313e-16), false, false, false)
	ctor.DefineDataProperty("POSITIVE_INFINITY", runtime.NewNumber(math.Inf(1)), false, false, false)
	ctor.DefineDataProperty("NEGATIVE_INFINITY", runtime.NewNumber(math.Inf(-1)), false, false, false)
	ctor.DefineDataProperty("NaN", runtime.NewNumber(math.NaN()), false, false, false)
	ctor.DefineMethod("isInteger", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		v := firstArgOrUndefined(args)
		if !v.IsNumber() {
			return runtime.NewBool(false), nil
		}
		n := v.AsNumber()
		return runtime.NewBool(!math.IsNaN(n) && !math.IsInf(n, 0) && n == math.Trunc(n)), nil
	})
	ctor.DefineMethod("isFinite", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		v := firstArgOrUndefined(args)
		return runtime.NewBool(v.IsNumber() && !math.IsNaN(v.AsNumber()) && !math.IsInf(v.AsNumber(), 0)), nil
	})
	ctor.DefineMethod("isNaN", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		v := firstArgOrUndefined(args)
		return runtime.NewBool(v.IsNumber() && math.IsNaN(v.AsNumber())), nil
	})
	ctor.DefineMethod("isSafeInteger", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		v := firstArgOrUndefined(args)
		if !v.IsNumber() {
			return runtime.NewBool(false), nil
		}
		n := v.AsNumber()
		return runtime.NewBool(!math.IsNaN(n) && !math.IsInf(n, 0) && n == math.Trunc(n) && math.Abs(n) <= 9007199254740991), nil
	})
	ctor.DefineMethod("parseFloat", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewNumber(firstArgOrUndefined(args).ToNumber()), nil
	})

	ctx.DefineGlobal("Number", runtime.NewObject(ctor))
	ctx.SetIntrinsic("Number", ctor)
	ctx.DefineGlobal("NaN", runtime.NewNumber(math.NaN()))
	ctx.DefineGlobal("Infinity", runtime.NewNumber(math.Inf(1)))
	return nil
}
