package intrinsics

import "ecmacore/pkg/runtime"

// ProxyReflectInitializer builds the Proxy constructor (including
// Proxy.revocable) and the Reflect namespace object. Grounded on the
// teacher's proxy_init.go (revocable-handle shape: `{proxy, revoke}`) and
// reflect_init.go's method list; the trap machinery itself lives in
// pkg/runtime/proxy.go (the teacher's VM has no Proxy support to mirror
// there, so that file is grounded on spec.md §4.2 directly) — this
// initializer is just the thin constructor/namespace wrapper around it.
type ProxyReflectInitializer struct{}

func (p *ProxyReflectInitializer) Name() string  { return "ProxyReflect" }
func (p *ProxyReflectInitializer) Priority() int { return PriorityProxyReflect }

func (p *ProxyReflectInitializer) Init(ctx *Context) error {
	ctor := runtime.NewNativeFunction("Proxy", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Undefined, runtime.NewTypeErrorValue("Constructor Proxy requires 'new'")
	})
	ctor.Construct = func(args []runtime.Value, newTarget runtime.Value) (runtime.Value, error) {
		target, handler, err := proxyTargetHandler(args)
		if err != nil {
			return runtime.Undefined, err
		}
		return runtime.NewObject(runtime.NewProxy(target, handler)), nil
	}
	ctor.DefineMethod("revocable", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target, handler, err := proxyTargetHandler(args)
		if err != nil {
			return runtime.Undefined, err
		}
		proxy := runtime.NewProxy(target, handler)
		revoke := runtime.NewNativeFunction("", 0, func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
			proxy.ProxyTarget = nil
			proxy.ProxyHandler = nil
			return runtime.Undefined, nil
		})
		result := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
		result.DefineDataProperty("proxy", runtime.NewObject(proxy), true, true, true)
		result.DefineDataProperty("revoke", runtime.NewObject(revoke), true, true, true)
		return runtime.NewObject(result), nil
	})
	ctx.DefineGlobal("Proxy", runtime.NewObject(ctor))
	ctx.SetIntrinsic("Proxy", ctor)

	reflect := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	reflect.DefineMethod("get", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target, err := requireObject(args, 0, "Reflect.get")
		if err != nil {
			return runtime.Undefined, err
		}
		key := propertyKeyArg(args, 1)
		receiver := argOr(args, 2, firstArgOrUndefined(args))
		return target.Get(key, receiver)
	})
	reflect.DefineMethod("set", 3, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target, err := requireObject(args, 0, "Reflect.set")
		if err != nil {
			return runtime.Undefined, err
		}
		key := propertyKeyArg(args, 1)
		val := argOr(args, 2, runtime.Undefined)
		receiver := argOr(args, 3, firstArgOrUndefined(args))
		ok, err := target.Set(key, val, receiver, false)
		if err != nil {
			return runtime.Undefined, err
		}
		return runtime.NewBool(ok), nil
	})
	reflect.DefineMethod("has", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target, err := requireObject(args, 0, "Reflect.has")
		if err != nil {
			return runtime.Undefined, err
		}
		ok, err := target.HasProperty(propertyKeyArg(args, 1))
		return runtime.NewBool(ok), err
	})
	reflect.DefineMethod("deleteProperty", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target, err := requireObject(args, 0, "Reflect.deleteProperty")
		if err != nil {
			return runtime.Undefined, err
		}
		ok, err := target.Delete(propertyKeyArg(args, 1))
		return runtime.NewBool(ok), err
	})
	reflect.DefineMethod("ownKeys", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target, err := requireObject(args, 0, "Reflect.ownKeys")
		if err != nil {
			return runtime.Undefined, err
		}
		keys, err := target.OwnPropertyKeys()
		if err != nil {
			return runtime.Undefined, err
		}
		items := make([]runtime.Value, len(keys))
		for i, k := range keys {
			items[i] = keyToValue(k)
		}
		return runtime.NewObject(arrayOf(ctx, items)), nil
	})
	reflect.DefineMethod("getPrototypeOf", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target, err := requireObject(args, 0, "Reflect.getPrototypeOf")
		if err != nil {
			return runtime.Undefined, err
		}
		proto, err := target.GetPrototypeOf()
		if err != nil {
			return runtime.Undefined, err
		}
		if proto == nil {
			return runtime.Null, nil
		}
		return runtime.NewObject(proto), nil
	})
	reflect.DefineMethod("setPrototypeOf", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target, err := requireObject(args, 0, "Reflect.setPrototypeOf")
		if err != nil {
			return runtime.Undefined, err
		}
		var proto *runtime.Object
		if len(args) > 1 && args[1].Type() == runtime.TypeObject {
			proto = args[1].AsObject()
		}
		ok, err := target.SetPrototypeOf(proto)
		if err != nil {
			return runtime.Undefined, err
		}
		return runtime.NewBool(ok), nil
	})
	reflect.DefineMethod("isExtensible", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target, err := requireObject(args, 0, "Reflect.isExtensible")
		if err != nil {
			return runtime.Undefined, err
		}
		ok, err := target.IsExtensible()
		if err != nil {
			return runtime.Undefined, err
		}
		return runtime.NewBool(ok), nil
	})
	reflect.DefineMethod("preventExtensions", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target, err := requireObject(args, 0, "Reflect.preventExtensions")
		if err != nil {
			return runtime.Undefined, err
		}
		ok, err := target.PreventExtensions()
		if err != nil {
			return runtime.Undefined, err
		}
		return runtime.NewBool(ok), nil
	})
	reflect.DefineMethod("defineProperty", 3, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target, err := requireObject(args, 0, "Reflect.defineProperty")
		if err != nil {
			return runtime.Undefined, err
		}
		desc, err := toPropertyDescriptor(argOr(args, 2, runtime.Undefined))
		if err != nil {
			return runtime.Undefined, err
		}
		ok, err := target.DefineOwnProperty(propertyKeyArg(args, 1), desc)
		return runtime.NewBool(ok), err
	})
	reflect.DefineMethod("getOwnPropertyDescriptor", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target, err := requireObject(args, 0, "Reflect.getOwnPropertyDescriptor")
		if err != nil {
			return runtime.Undefined, err
		}
		desc, err := target.GetOwnProperty(propertyKeyArg(args, 1))
		if err != nil {
			return runtime.Undefined, err
		}
		if desc == nil {
			return runtime.Undefined, nil
		}
		return runtime.NewObject(descriptorToObject(ctx, *desc)), nil
	})
	reflect.DefineMethod("apply", 3, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target := firstArgOrUndefined(args)
		thisArg := argOr(args, 1, runtime.Undefined)
		var rest []runtime.Value
		if len(args) > 2 {
			var err error
			rest, err = IterableToSlice(ctx, args[2])
			if err != nil {
				rest = nil
			}
		}
		return runtime.Call(target, thisArg, rest)
	})
	reflect.DefineMethod("construct", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target := firstArgOrUndefined(args)
		var rest []runtime.Value
		if len(args) > 1 {
			r, err := IterableToSlice(ctx, args[1])
			if err == nil {
				rest = r
			}
		}
		newTarget := argOr(args, 2, target)
		return runtime.Construct(target, rest, newTarget)
	})

	ctx.DefineGlobal("Reflect", runtime.NewObject(reflect))
	ctx.SetIntrinsic("Reflect", reflect)
	return nil
}

func proxyTargetHandler(args []runtime.Value) (*runtime.Object, *runtime.Object, error) {
	if len(args) < 2 || args[0].Type() != runtime.TypeObject || args[1].Type() != runtime.TypeObject {
		return nil, nil, runtime.NewTypeErrorValue("Cannot create proxy with a non-object as target or handler")
	}
	return args[0].AsObject(), args[1].AsObject(), nil
}

func requireObject(args []runtime.Value, idx int, who string) (*runtime.Object, error) {
	if idx >= len(args) || args[idx].Type() != runtime.TypeObject {
		return nil, runtime.NewTypeErrorValue(who + " called on non-object")
	}
	return args[idx].AsObject(), nil
}

func keyToValue(k runtime.PropertyKey) runtime.Value {
	if k.IsSymbol() {
		return runtime.NewSymbolValue(k.Symbol())
	}
	return runtime.NewString(k.Name())
}

func descriptorToObject(ctx *Context, desc runtime.PropertyDescriptor) *runtime.Object {
	obj := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	if desc.Value != nil {
		obj.DefineDataProperty("value", *desc.Value, true, true, true)
	}
	if desc.Get != nil {
		obj.DefineDataProperty("get", *desc.Get, true, true, true)
	}
	if desc.Set != nil {
		obj.DefineDataProperty("set", *desc.Set, true, true, true)
	}
	if desc.Writable != nil {
		obj.DefineDataProperty("writable", runtime.NewBool(*desc.Writable), true, true, true)
	}
	if desc.Enumerable != nil {
		obj.DefineDataProperty("enumerable", runtime.NewBool(*desc.Enumerable), true, true, true)
	}
	if desc.Configurable != nil {
		obj.DefineDataProperty("configurable", runtime.NewBool(*desc.Configurable), true, true, true)
	}
	return obj
}
