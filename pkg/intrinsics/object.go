package intrinsics

import "ecmacore/pkg/runtime"

// ObjectInitializer builds Object.prototype and the Object constructor
// with its static methods. Grounded on the teacher's object_init.go
// (method names and grouping), reimplemented against the property
// algorithms in pkg/runtime rather than the teacher's vm.Value API.
type ObjectInitializer struct{}

func (o *ObjectInitializer) Name() string     { return "Object" }
func (o *ObjectInitializer) Priority() int    { return PriorityObject }

func (o *ObjectInitializer) Init(ctx *Context) error {
	proto := &runtime.Object{Kind: runtime.KindOrdinary, Class: "Object", Extensible: true}
	ctx.SetIntrinsic("ObjectPrototype", proto)

	proto.DefineMethod("hasOwnProperty", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if this.Type() != runtime.TypeObject {
			return runtime.NewBool(false), nil
		}
		key := propertyKeyArg(args, 0)
		return runtime.NewBool(this.AsObject().HasOwn(key)), nil
	})
	proto.DefineMethod("isPrototypeOf", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 || args[0].Type() != runtime.TypeObject || this.Type() != runtime.TypeObject {
			return runtime.NewBool(false), nil
		}
		p, err := args[0].AsObject().GetPrototypeOf()
		if err != nil {
			return runtime.Undefined, err
		}
		for p != nil {
			if p == this.AsObject() {
				return runtime.NewBool(true), nil
			}
			p, err = p.GetPrototypeOf()
			if err != nil {
				return runtime.Undefined, err
			}
		}
		return runtime.NewBool(false), nil
	})
	proto.DefineMethod("propertyIsEnumerable", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if this.Type() != runtime.TypeObject {
			return runtime.NewBool(false), nil
		}
		desc, err := this.AsObject().GetOwnProperty(propertyKeyArg(args, 0))
		if err != nil {
			return runtime.Undefined, err
		}
		return runtime.NewBool(desc != nil && desc.Enumerable != nil && *desc.Enumerable), nil
	})
	proto.DefineMethod("toString", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if this.IsUndefined() {
			return runtime.NewString("[object Undefined]"), nil
		}
		if this.IsNull() {
			return runtime.NewString("[object Null]"), nil
		}
		tag := "Object"
		if this.Type() == runtime.TypeObject && this.AsObject().Class != "" {
			tag = this.AsObject().Class
		}
		return runtime.NewString("[object " + tag + "]"), nil
	})
	proto.DefineMethod("valueOf", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return this, nil
	})

	ctor := runtime.NewNativeFunction("Object", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 || args[0].IsNullish() {
			return runtime.NewObject(runtime.NewPlainObject(proto)), nil
		}
		return args[0], nil
	})
	ctor.Construct = func(args []runtime.Value, newTarget runtime.Value) (runtime.Value, error) {
		if len(args) == 0 || args[0].IsNullish() {
			return runtime.NewObject(runtime.NewPlainObject(proto)), nil
		}
		return args[0], nil
	}
	ctor.DefineDataProperty("prototype", runtime.NewObject(proto), false, false, false)
	proto.DefineDataProperty("constructor", runtime.NewObject(ctor), true, false, true)

	ctor.DefineMethod("keys", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return enumerableOwnNames(ctx, args, enumKeys)
	})
	ctor.DefineMethod("values", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return enumerableOwnNames(ctx, args, enumValues)
	})
	ctor.DefineMethod("entries", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return enumerableOwnNames(ctx, args, enumEntries)
	})
	ctor.DefineMethod("assign", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 || args[0].Type() != runtime.TypeObject {
			return runtime.Undefined, runtime.NewTypeErrorValue("Cannot convert undefined or null to object")
		}
		target := args[0].AsObject()
		for _, src := range args[1:] {
			if src.Type() != runtime.TypeObject {
				continue
			}
			keys, err := src.AsObject().OwnPropertyKeys()
			if err != nil {
				return runtime.Undefined, err
			}
			for _, k := range keys {
				desc, err := src.AsObject().GetOwnProperty(k)
				if err != nil {
					return runtime.Undefined, err
				}
				if desc == nil || desc.Enumerable == nil || !*desc.Enumerable {
					continue
				}
				v, err := src.AsObject().Get(k, src)
				if err != nil {
					return runtime.Undefined, err
				}
				if _, err := target.Set(k, v, args[0], true); err != nil {
					return runtime.Undefined, err
				}
			}
		}
		return args[0], nil
	})
	ctor.DefineMethod("freeze", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 || args[0].Type() != runtime.TypeObject {
			return firstArgOrUndefined(args), nil
		}
		obj := args[0].AsObject()
		if _, err := obj.PreventExtensions(); err != nil {
			return runtime.Undefined, err
		}
		keys, err := obj.OwnPropertyKeys()
		if err != nil {
			return runtime.Undefined, err
		}
		for _, k := range keys {
			desc, err := obj.GetOwnProperty(k)
			if err != nil {
				return runtime.Undefined, err
			}
			if desc == nil {
				continue
			}
			falsy := false
			newDesc := runtime.PropertyDescriptor{Configurable: &falsy}
			if !desc.IsAccessor() {
				newDesc.Writable = &falsy
			}
			obj.DefineOwnProperty(k, newDesc)
		}
		return args[0], nil
	})
	ctor.DefineMethod("isFrozen", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 || args[0].Type() != runtime.TypeObject {
			return runtime.NewBool(true), nil
		}
		obj := args[0].AsObject()
		extensible, err := obj.IsExtensible()
		if err != nil {
			return runtime.Undefined, err
		}
		if extensible {
			return runtime.NewBool(false), nil
		}
		keys, err := obj.OwnPropertyKeys()
		if err != nil {
			return runtime.Undefined, err
		}
		for _, k := range keys {
			desc, err := obj.GetOwnProperty(k)
			if err != nil {
				return runtime.Undefined, err
			}
			if desc == nil {
				continue
			}
			if desc.Configurable != nil && *desc.Configurable {
				return runtime.NewBool(false), nil
			}
			if !desc.IsAccessor() && desc.Writable != nil && *desc.Writable {
				return runtime.NewBool(false), nil
			}
		}
		return runtime.NewBool(true), nil
	})
	ctor.DefineMethod("getPrototypeOf", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 || args[0].Type() != runtime.TypeObject {
			return runtime.Undefined, runtime.NewTypeErrorValue("Object.getPrototypeOf called on non-object")
		}
		p, err := args[0].AsObject().GetPrototypeOf()
		if err != nil {
			return runtime.Undefined, err
		}
		if p == nil {
			return runtime.Null, nil
		}
		return runtime.NewObject(p), nil
	})
	ctor.DefineMethod("setPrototypeOf", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 || args[0].Type() != runtime.TypeObject {
			return firstArgOrUndefined(args), nil
		}
		var p *runtime.Object
		if len(args) > 1 && args[1].Type() == runtime.TypeObject {
			p = args[1].AsObject()
		}
		ok, err := args[0].AsObject().SetPrototypeOf(p)
		if err != nil {
			return runtime.Undefined, err
		}
		if !ok {
			return runtime.Undefined, runtime.NewTypeErrorValue("Object.setPrototypeOf: could not set prototype")
		}
		return args[0], nil
	})
	ctor.DefineMethod("create", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		var p *runtime.Object
		if len(args) > 0 && args[0].Type() == runtime.TypeObject {
			p = args[0].AsObject()
		} else if len(args) == 0 || !args[0].IsNull() {
			return runtime.Undefined, runtime.NewTypeErrorValue("Object prototype may only be an Object or null")
		}
		obj := runtime.NewPlainObject(p)
		if len(args) > 1 && args[1].Type() == runtime.TypeObject {
			if err := definePropertiesFrom(obj, args[1].AsObject()); err != nil {
				return runtime.Undefined, err
			}
		}
		return runtime.NewObject(obj), nil
	})
	ctor.DefineMethod("defineProperty", 3, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) < 3 || args[0].Type() != runtime.TypeObject {
			return runtime.Undefined, runtime.NewTypeErrorValue("Object.defineProperty called on non-object")
		}
		desc, err := toPropertyDescriptor(args[2])
		if err != nil {
			return runtime.Undefined, err
		}
		key := propertyKeyArg(args, 1)
		ok, err := args[0].AsObject().DefineOwnProperty(key, desc)
		if err != nil {
			return runtime.Undefined, err
		}
		if !ok {
			return runtime.Undefined, runtime.NewTypeErrorValue("Cannot define property " + key.String() + ", object is not extensible")
		}
		return args[0], nil
	})
	ctor.DefineMethod("defineProperties", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) < 2 || args[0].Type() != runtime.TypeObject || args[1].Type() != runtime.TypeObject {
			return runtime.Undefined, runtime.NewTypeErrorValue("Object.defineProperties called on non-object")
		}
		if err := definePropertiesFrom(args[0].AsObject(), args[1].AsObject()); err != nil {
			return runtime.Undefined, err
		}
		return args[0], nil
	})
	ctor.DefineMethod("getOwnPropertyNames", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 || args[0].Type() != runtime.TypeObject {
			return runtime.Undefined, runtime.NewTypeErrorValue("Cannot convert undefined or null to object")
		}
		arr := runtime.NewArray(ctx.Intrinsic("ArrayPrototype"), 0)
		i := uint32(0)
		keys, err := args[0].AsObject().OwnPropertyKeys()
		if err != nil {
			return runtime.Undefined, err
		}
		for _, k := range keys {
			if k.IsSymbol() {
				continue
			}
			arr.DefineOwnProperty(runtime.StringKey(itoaHelper(i)), runtime.DataDescriptor(runtime.NewString(k.Name()), true, true, true))
			i++
		}
		return runtime.NewObject(arr), nil
	})
	ctor.DefineMethod("is", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		a, b := argOr(args, 0, runtime.Undefined), argOr(args, 1, runtime.Undefined)
		return runtime.NewBool(runtime.SameValue(a, b)), nil
	})
	ctor.DefineMethod("fromEntries", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 0 || args[0].Type() != runtime.TypeObject || args[0].AsObject().Kind != runtime.KindArray {
			return runtime.Undefined, runtime.NewTypeErrorValue("Object.fromEntries requires an array-like argument")
		}
		src := args[0].AsObject()
		obj := runtime.NewPlainObject(proto)
		n := src.ArrayLength()
		for i := uint32(0); i < n; i++ {
			entry, err := src.Get(runtime.StringKey(itoaHelper(i)), args[0])
			if err != nil {
				return runtime.Undefined, err
			}
			if entry.Type() != runtime.TypeObject {
				continue
			}
			k, _ := entry.AsObject().Get(runtime.StringKey("0"), entry)
			v, _ := entry.AsObject().Get(runtime.StringKey("1"), entry)
			obj.DefineDataProperty(runtime.ToStringSimple(k), v, true, true, true)
		}
		return runtime.NewObject(obj), nil
	})

	ctx.DefineGlobal("Object", runtime.NewObject(ctor))
	ctx.SetIntrinsic("Object", ctor)
	return nil
}

func definePropertiesFrom(target, props *runtime.Object) error {
	keys, err := props.OwnPropertyKeys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		descVal, err := props.Get(k, runtime.NewObject(props))
		if err != nil {
			return err
		}
		if descVal.Type() != runtime.TypeObject {
			continue
		}
		desc, err := toPropertyDescriptor(descVal)
		if err != nil {
			return err
		}
		if _, err := target.DefineOwnProperty(k, desc); err != nil {
			return err
		}
	}
	return nil
}

func toPropertyDescriptor(v runtime.Value) (runtime.PropertyDescriptor, error) {
	if v.Type() != runtime.TypeObject {
		return runtime.PropertyDescriptor{}, runtime.NewTypeErrorValue("Property description must be an object")
	}
	o := v.AsObject()
	var desc runtime.PropertyDescriptor
	if o.HasOwn(runtime.StringKey("value")) {
		val, _ := o.Get(runtime.StringKey("value"), v)
		desc.Value = &val
	}
	if o.HasOwn(runtime.StringKey("writable")) {
		val, _ := o.Get(runtime.StringKey("writable"), v)
		b := val.ToBoolean()
		desc.Writable = &b
	}
	if o.HasOwn(runtime.StringKey("get")) {
		val, _ := o.Get(runtime.StringKey("get"), v)
		desc.Get = &val
	}
	if o.HasOwn(runtime.StringKey("set")) {
		val, _ := o.Get(runtime.StringKey("set"), v)
		desc.Set = &val
	}
	if o.HasOwn(runtime.StringKey("enumerable")) {
		val, _ := o.Get(runtime.StringKey("enumerable"), v)
		b := val.ToBoolean()
		desc.Enumerable = &b
	}
	if o.HasOwn(runtime.StringKey("configurable")) {
		val, _ := o.Get(runtime.StringKey("configurable"), v)
		b := val.ToBoolean()
		desc.Configurable = &b
	}
	return desc, nil
}

type enumMode int

const (
	enumKeys enumMode = iota
	enumValues
	enumEntries
)

func enumerableOwnNames(ctx *Context, args []runtime.Value, mode enumMode) (runtime.Value, error) {
	if len(args) == 0 || args[0].Type() != runtime.TypeObject {
		return runtime.Undefined, runtime.NewTypeErrorValue("Cannot convert undefined or null to object")
	}
	obj := args[0].AsObject()
	arr := runtime.NewArray(ctx.Intrinsic("ArrayPrototype"), 0)
	i := uint32(0)
	keys, err := obj.OwnPropertyKeys()
	if err != nil {
		return runtime.Undefined, err
	}
	for _, k := range keys {
		if k.IsSymbol() {
			continue
		}
		desc, err := obj.GetOwnProperty(k)
		if err != nil {
			return runtime.Undefined, err
		}
		if desc == nil || desc.Enumerable == nil || !*desc.Enumerable {
			continue
		}
		var out runtime.Value
		switch mode {
		case enumKeys:
			out = runtime.NewString(k.Name())
		case enumValues:
			v, err := obj.Get(k, args[0])
			if err != nil {
				return runtime.Undefined, err
			}
			out = v
		case enumEntries:
			v, err := obj.Get(k, args[0])
			if err != nil {
				return runtime.Undefined, err
			}
			pair := runtime.NewArray(ctx.Intrinsic("ArrayPrototype"), 2)
			pair.DefineOwnProperty(runtime.StringKey("0"), runtime.DataDescriptor(runtime.NewString(k.Name()), true, true, true))
			pair.DefineOwnProperty(runtime.StringKey("1"), runtime.DataDescriptor(v, true, true, true))
			out = runtime.NewObject(pair)
		}
		arr.DefineOwnProperty(runtime.StringKey(itoaHelper(i)), runtime.DataDescriptor(out, true, true, true))
		i++
	}
	return runtime.NewObject(arr), nil
}

func propertyKeyArg(args []runtime.Value, idx int) runtime.PropertyKey {
	v := argOr(args, idx, runtime.Undefined)
	if v.Type() == runtime.TypeSymbol {
		return runtime.SymbolKey(v.AsSymbol())
	}
	return runtime.StringKey(runtime.ToStringSimple(v))
}

func argOr(args []runtime.Value, idx int, fallback runtime.Value) runtime.Value {
	if idx < len(args) {
		return args[idx]
	}
	return fallback
}

func firstArgOrUndefined(args []runtime.Value) runtime.Value { return argOr(args, 0, runtime.Undefined) }

func itoaHelper(u uint32) string {
	if u == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	return string(buf[i:])
}
