package intrinsics

import (
	"sort"

	"ecmacore/pkg/runtime"
)

// ArrayInitializer builds Array.prototype's core methods and the Array
// constructor's static helpers. Grounded on the teacher's array_init.go
// for which methods a complete implementation carries; the bodies here
// are rewritten against pkg/runtime's Array-exotic object rather than the
// teacher's bytecode-resident array representation.
type ArrayInitializer struct{}

func (a *ArrayInitializer) Name() string  { return "Array" }
func (a *ArrayInitializer) Priority() int { return PriorityArray }

func (a *ArrayInitializer) Init(ctx *Context) error {
	proto := runtime.NewArray(ctx.Intrinsic("ObjectPrototype"), 0)
	ctx.SetIntrinsic("ArrayPrototype", proto)

	readAll := func(this runtime.Value) []runtime.Value {
		obj := this.AsObject()
		n := obj.ArrayLength()
		out := make([]runtime.Value, n)
		for i := uint32(0); i < n; i++ {
			out[i], _ = obj.Get(runtime.StringKey(itoaHelper(i)), this)
		}
		return out
	}
	writeAll := func(this runtime.Value, items []runtime.Value) {
		obj := this.AsObject()
		for i, v := range items {
			obj.Set(runtime.StringKey(itoaHelper(uint32(i))), v, this, true)
		}
		obj.Set(runtime.StringKey("length"), runtime.NewNumber(float64(len(items))), this, true)
	}

	proto.DefineMethod("push", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items := readAll(this)
		items = append(items, args...)
		writeAll(this, items)
		return runtime.NewNumber(float64(len(items))), nil
	})
	proto.DefineMethod("pop", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items := readAll(this)
		if len(items) == 0 {
			return runtime.Undefined, nil
		}
		last := items[len(items)-1]
		writeAll(this, items[:len(items)-1])
		return last, nil
	})
	proto.DefineMethod("shift", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items := readAll(this)
		if len(items) == 0 {
			return runtime.Undefined, nil
		}
		first := items[0]
		writeAll(this, items[1:])
		return first, nil
	})
	proto.DefineMethod("unshift", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items := append(append([]runtime.Value{}, args...), readAll(this)...)
		writeAll(this, items)
		return runtime.NewNumber(float64(len(items))), nil
	})
	proto.DefineMethod("slice", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items := readAll(this)
		start, end := sliceBounds(args, len(items))
		out := append([]runtime.Value{}, items[start:end]...)
		return runtime.NewObject(arrayOf(ctx, out)), nil
	})
	proto.DefineMethod("splice", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items := readAll(this)
		start := clampIndex(argOr(args, 0, runtime.NewNumber(0)).ToNumber(), len(items))
		deleteCount := len(items) - start
		if len(args) > 1 {
			dc := int(runtime.ToInteger(args[1].ToNumber()))
			if dc < 0 {
				dc = 0
			}
			if dc < deleteCount {
				deleteCount = dc
			}
		}
		removed := append([]runtime.Value{}, items[start:start+deleteCount]...)
		inserted := restArgs(args, 2)
		rebuilt := append([]runtime.Value{}, items[:start]...)
		rebuilt = append(rebuilt, inserted...)
		rebuilt = append(rebuilt, items[start+deleteCount:]...)
		writeAll(this, rebuilt)
		return runtime.NewObject(arrayOf(ctx, removed)), nil
	})
	proto.DefineMethod("concat", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		out := readAll(this)
		for _, a := range args {
			if a.Type() == runtime.TypeObject && a.AsObject().Kind == runtime.KindArray {
				out = append(out, readAll(a)...)
			} else {
				out = append(out, a)
			}
		}
		return runtime.NewObject(arrayOf(ctx, out)), nil
	})
	proto.DefineMethod("join", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		sep := ","
		if len(args) > 0 && !args[0].IsUndefined() {
			sep = runtime.ToStringSimple(args[0])
		}
		items := readAll(this)
		parts := make([]string, len(items))
		for i, v := range items {
			if v.IsNullish() {
				parts[i] = ""
			} else {
				parts[i] = runtime.ToStringSimple(v)
			}
		}
		return runtime.NewString(joinStrings(parts, sep)), nil
	})
	proto.DefineMethod("indexOf", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items := readAll(this)
		target := firstArgOrUndefined(args)
		for i, v := range items {
			if runtime.StrictEquals(v, target) {
				return runtime.NewNumber(float64(i)), nil
			}
		}
		return runtime.NewNumber(-1), nil
	})
	proto.DefineMethod("lastIndexOf", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items := readAll(this)
		target := firstArgOrUndefined(args)
		for i := len(items) - 1; i >= 0; i-- {
			if runtime.StrictEquals(items[i], target) {
				return runtime.NewNumber(float64(i)), nil
			}
		}
		return runtime.NewNumber(-1), nil
	})
	proto.DefineMethod("includes", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items := readAll(this)
		target := firstArgOrUndefined(args)
		for _, v := range items {
			if runtime.SameValueZero(v, target) {
				return runtime.NewBool(true), nil
			}
		}
		return runtime.NewBool(false), nil
	})
	proto.DefineMethod("forEach", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		cb, thisArg := callbackArg(args)
		for i, v := range readAll(this) {
			if _, err := runtime.Call(cb, thisArg, []runtime.Value{v, runtime.NewNumber(float64(i)), this}); err != nil {
				return runtime.Undefined, err
			}
		}
		return runtime.Undefined, nil
	})
	proto.DefineMethod("map", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		cb, thisArg := callbackArg(args)
		items := readAll(this)
		out := make([]runtime.Value, len(items))
		for i, v := range items {
			r, err := runtime.Call(cb, thisArg, []runtime.Value{v, runtime.NewNumber(float64(i)), this})
			if err != nil {
				return runtime.Undefined, err
			}
			out[i] = r
		}
		return runtime.NewObject(arrayOf(ctx, out)), nil
	})
	proto.DefineMethod("filter", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		cb, thisArg := callbackArg(args)
		var out []runtime.Value
		for i, v := range readAll(this) {
			r, err := runtime.Call(cb, thisArg, []runtime.Value{v, runtime.NewNumber(float64(i)), this})
			if err != nil {
				return runtime.Undefined, err
			}
			if r.ToBoolean() {
				out = append(out, v)
			}
		}
		return runtime.NewObject(arrayOf(ctx, out)), nil
	})
	proto.DefineMethod("find", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		cb, thisArg := callbackArg(args)
		for i, v := range readAll(this) {
			r, err := runtime.Call(cb, thisArg, []runtime.Value{v, runtime.NewNumber(float64(i)), this})
			if err != nil {
				return runtime.Undefined, err
			}
			if r.ToBoolean() {
				return v, nil
			}
		}
		return runtime.Undefined, nil
	})
	proto.DefineMethod("findIndex", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		cb, thisArg := callbackArg(args)
		for i, v := range readAll(this) {
			r, err := runtime.Call(cb, thisArg, []runtime.Value{v, runtime.NewNumber(float64(i)), this})
			if err != nil {
				return runtime.Undefined, err
			}
			if r.ToBoolean() {
				return runtime.NewNumber(float64(i)), nil
			}
		}
		return runtime.NewNumber(-1), nil
	})
	proto.DefineMethod("some", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		cb, thisArg := callbackArg(args)
		for i, v := range readAll(this) {
			r, err := runtime.Call(cb, thisArg, []runtime.Value{v, runtime.NewNumber(float64(i)), this})
			if err != nil {
				return runtime.Undefined, err
			}
			if r.ToBoolean() {
				return runtime.NewBool(true), nil
			}
		}
		return runtime.NewBool(false), nil
	})
	proto.DefineMethod("every", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		cb, thisArg := callbackArg(args)
		for i, v := range readAll(this) {
			r, err := runtime.Call(cb, thisArg, []runtime.Value{v, runtime.NewNumber(float64(i)), this})
			if err != nil {
				return runtime.Undefined, err
			}
			if !r.ToBoolean() {
				return runtime.NewBool(false), nil
			}
		}
		return runtime.NewBool(true), nil
	})
	proto.DefineMethod("reduce", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return reduceArray(readAll(this), this, args, false)
	})
	proto.DefineMethod("reduceRight", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return reduceArray(readAll(this), this, args, true)
	})
	proto.DefineMethod("reverse", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items := readAll(this)
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		writeAll(this, items)
		return this, nil
	})
	proto.DefineMethod("sort", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items := readAll(this)
		var cmpErr error
		cmp := firstArgOrUndefined(args)
		sort.SliceStable(items, func(i, j int) bool {
			if cmpErr != nil {
				return false
			}
			a, b := items[i], items[j]
			if a.IsUndefined() {
				return false
			}
			if b.IsUndefined() {
				return true
			}
			if cmp.IsCallable() {
				r, err := runtime.Call(cmp, runtime.Undefined, []runtime.Value{a, b})
				if err != nil {
					cmpErr = err
					return false
				}
				return r.ToNumber() < 0
			}
			return runtime.ToStringSimple(a) < runtime.ToStringSimple(b)
		})
		if cmpErr != nil {
			return runtime.Undefined, cmpErr
		}
		writeAll(this, items)
		return this, nil
	})
	proto.DefineMethod("fill", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items := readAll(this)
		val := firstArgOrUndefined(args)
		start, end := sliceBounds(restArgs(args, 1), len(items))
		for i := start; i < end; i++ {
			items[i] = val
		}
		writeAll(this, items)
		return this, nil
	})
	proto.DefineMethod("flat", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		depth := 1
		if len(args) > 0 {
			depth = int(runtime.ToInteger(args[0].ToNumber()))
		}
		return runtime.NewObject(arrayOf(ctx, flatten(readAll(this), depth))), nil
	})
	proto.DefineMethod("flatMap", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		cb, thisArg := callbackArg(args)
		var mapped []runtime.Value
		for i, v := range readAll(this) {
			r, err := runtime.Call(cb, thisArg, []runtime.Value{v, runtime.NewNumber(float64(i)), this})
			if err != nil {
				return runtime.Undefined, err
			}
			mapped = append(mapped, r)
		}
		return runtime.NewObject(arrayOf(ctx, flatten(mapped, 1))), nil
	})
	proto.DefineMethod("toString", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		joinFn, _ := proto.Get(runtime.StringKey("join"), this)
		return runtime.Call(joinFn, this, nil)
	})
	proto.DefineMethod("values", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewObject(NewListIterator(ctx, readAll(this))), nil
	})
	proto.DefineMethod("keys", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items := readAll(this)
		idxs := make([]runtime.Value, len(items))
		for i := range items {
			idxs[i] = runtime.NewNumber(float64(i))
		}
		return runtime.NewObject(NewListIterator(ctx, idxs)), nil
	})
	proto.DefineMethod("entries", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items := readAll(this)
		entries := make([]runtime.Value, len(items))
		for i, v := range items {
			pair := arrayOf(ctx, []runtime.Value{runtime.NewNumber(float64(i)), v})
			entries[i] = runtime.NewObject(pair)
		}
		return runtime.NewObject(NewListIterator(ctx, entries)), nil
	})
	valuesFn, _ := proto.Get(runtime.StringKey("values"), runtime.NewObject(proto))
	proto.DefineOwnProperty(runtime.SymbolKey(ctx.Realm.Symbols.Iterator), runtime.DataDescriptor(valuesFn, true, false, true))

	ctor := runtime.NewNativeFunction("Array", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return arrayConstruct(ctx, args), nil
	})
	ctor.Construct = func(args []runtime.Value, newTarget runtime.Value) (runtime.Value, error) {
		return arrayConstruct(ctx, args), nil
	}
	ctor.DefineDataProperty("prototype", runtime.NewObject(proto), false, false, false)
	proto.DefineDataProperty("constructor", runtime.NewObject(ctor), true, false, true)

	ctor.DefineMethod("isArray", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewBool(len(args) > 0 && args[0].Type() == runtime.TypeObject && args[0].AsObject().Kind == runtime.KindArray), nil
	})
	ctor.DefineMethod("of", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewObject(arrayOf(ctx, args)), nil
	})
	ctor.DefineMethod("from", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 {
			return runtime.NewObject(arrayOf(ctx, nil)), nil
		}
		var items []runtime.Value
		if args[0].Type() == runtime.TypeObject && args[0].AsObject().Kind == runtime.KindArray {
			items = readAll(args[0])
		} else {
			var err error
			items, err = IterableToSlice(ctx, args[0])
			if err != nil {
				return runtime.Undefined, err
			}
		}
		if len(args) > 1 && args[1].IsCallable() {
			thisArg := argOr(args, 2, runtime.Undefined)
			for i, v := range items {
				r, err := runtime.Call(args[1], thisArg, []runtime.Value{v, runtime.NewNumber(float64(i))})
				if err != nil {
					return runtime.Undefined, err
				}
				items[i] = r
			}
		}
		return runtime.NewObject(arrayOf(ctx, items)), nil
	})

	ctx.DefineGlobal("Array", runtime.NewObject(ctor))
	ctx.SetIntrinsic("Array", ctor)
	return nil
}

func arrayConstruct(ctx *Context, args []runtime.Value) runtime.Value {
	if len(args) == 1 && args[0].IsNumber() {
		return runtime.NewObject(runtime.NewArray(ctx.Intrinsic("ArrayPrototype"), uint32(args[0].ToNumber())))
	}
	return runtime.NewObject(arrayOf(ctx, args))
}

func arrayOf(ctx *Context, items []runtime.Value) *runtime.Object {
	arr := runtime.NewArray(ctx.Intrinsic("ArrayPrototype"), uint32(len(items)))
	for i, v := range items {
		arr.DefineOwnProperty(runtime.StringKey(itoaHelper(uint32(i))), runtime.DataDescriptor(v, true, true, true))
	}
	return arr
}

func callbackArg(args []runtime.Value) (runtime.Value, runtime.Value) {
	return firstArgOrUndefined(args), argOr(args, 1, runtime.Undefined)
}

func reduceArray(items []runtime.Value, this runtime.Value, args []runtime.Value, reverse bool) (runtime.Value, error) {
	cb := firstArgOrUndefined(args)
	order := make([]int, len(items))
	for i := range items {
		if reverse {
			order[i] = len(items) - 1 - i
		} else {
			order[i] = i
		}
	}
	var acc runtime.Value
	start := 0
	if len(args) > 1 {
		acc = args[1]
	} else {
		if len(items) == 0 {
			return runtime.Undefined, runtime.NewTypeErrorValue("Reduce of empty array with no initial value")
		}
		acc = items[order[0]]
		start = 1
	}
	for _, idx := range order[start:] {
		r, err := runtime.Call(cb, runtime.Undefined, []runtime.Value{acc, items[idx], runtime.NewNumber(float64(idx)), this})
		if err != nil {
			return runtime.Undefined, err
		}
		acc = r
	}
	return acc, nil
}

func flatten(items []runtime.Value, depth int) []runtime.Value {
	var out []runtime.Value
	for _, v := range items {
		if depth > 0 && v.Type() == runtime.TypeObject && v.AsObject().Kind == runtime.KindArray {
			obj := v.AsObject()
			n := obj.ArrayLength()
			inner := make([]runtime.Value, n)
			for i := uint32(0); i < n; i++ {
				inner[i], _ = obj.Get(runtime.StringKey(itoaHelper(i)), v)
			}
			out = append(out, flatten(inner, depth-1)...)
		} else {
			out = append(out, v)
		}
	}
	return out
}

func sliceBounds(args []runtime.Value, length int) (int, int) {
	start := 0
	end := length
	if len(args) > 0 && !args[0].IsUndefined() {
		start = clampIndex(args[0].ToNumber(), length)
	}
	if len(args) > 1 && !args[1].IsUndefined() {
		end = clampIndex(args[1].ToNumber(), length)
	}
	if end < start {
		end = start
	}
	return start, end
}

func clampIndex(n float64, length int) int {
	i := int(runtime.ToInteger(n))
	if i < 0 {
		i += length
		if i < 0 {
			i = 0
		}
	}
	if i > length {
		i = length
	}
	return i
}

func joinStrings(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}
