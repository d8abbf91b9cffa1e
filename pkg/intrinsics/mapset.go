package intrinsics

import "ecmacore/pkg/runtime"

// MapSetInitializer builds Map, Set, WeakMap, and WeakSet. Grounded on
// the teacher's map_init.go/set_init.go method sets (set/get/has/delete/
// clear, add/has/delete/clear). Entries are stored as an insertion-ordered
// slice rather than a Go map, since key lookup must use SameValueZero
// (NaN equals NaN, +0 equals -0) rather than Go's native `==`, which a
// map[runtime.Value]... keyed store cannot express for the NaN case.
type MapSetInitializer struct{}

func (m *MapSetInitializer) Name() string  { return "MapSet" }
func (m *MapSetInitializer) Priority() int { return PriorityMapSet }

type mapEntry struct {
	key, value runtime.Value
}

func mapEntries(this runtime.Value) *[]mapEntry {
	obj := this.AsObject()
	raw, ok := obj.Slots["entries"].(*[]mapEntry)
	if !ok {
		entries := []mapEntry{}
		raw = &entries
		obj.Slots["entries"] = raw
	}
	return raw
}

func findEntry(entries []mapEntry, key runtime.Value) int {
	for i, e := range entries {
		if runtime.SameValueZero(e.key, key) {
			return i
		}
	}
	return -1
}

func (m *MapSetInitializer) Init(ctx *Context) error {
	m.initMap(ctx)
	m.initSet(ctx)
	m.initWeakMap(ctx)
	m.initWeakSet(ctx)
	return nil
}

func (m *MapSetInitializer) initMap(ctx *Context) {
	proto := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	proto.Class = "Map"
	ctx.SetIntrinsic("MapPrototype", proto)

	proto.DefineMethod("set", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		entries := mapEntries(this)
		key, val := firstArgOrUndefined(args), argOr(args, 1, runtime.Undefined)
		if i := findEntry(*entries, key); i >= 0 {
			(*entries)[i].value = val
		} else {
			*entries = append(*entries, mapEntry{key, val})
		}
		return this, nil
	})
	proto.DefineMethod("get", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		entries := mapEntries(this)
		if i := findEntry(*entries, firstArgOrUndefined(args)); i >= 0 {
			return (*entries)[i].value, nil
		}
		return runtime.Undefined, nil
	})
	proto.DefineMethod("has", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		entries := mapEntries(this)
		return runtime.NewBool(findEntry(*entries, firstArgOrUndefined(args)) >= 0), nil
	})
	proto.DefineMethod("delete", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		entries := mapEntries(this)
		if i := findEntry(*entries, firstArgOrUndefined(args)); i >= 0 {
			*entries = append((*entries)[:i], (*entries)[i+1:]...)
			return runtime.NewBool(true), nil
		}
		return runtime.NewBool(false), nil
	})
	proto.DefineMethod("clear", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		*mapEntries(this) = nil
		return runtime.Undefined, nil
	})
	proto.DefineMethod("forEach", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		cb, thisArg := callbackArg(args)
		for _, e := range *mapEntries(this) {
			if _, err := runtime.Call(cb, thisArg, []runtime.Value{e.value, e.key, this}); err != nil {
				return runtime.Undefined, err
			}
		}
		return runtime.Undefined, nil
	})
	proto.DefineMethod("keys", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		entries := *mapEntries(this)
		items := make([]runtime.Value, len(entries))
		for i, e := range entries {
			items[i] = e.key
		}
		return runtime.NewObject(NewListIterator(ctx, items)), nil
	})
	proto.DefineMethod("values", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		entries := *mapEntries(this)
		items := make([]runtime.Value, len(entries))
		for i, e := range entries {
			items[i] = e.value
		}
		return runtime.NewObject(NewListIterator(ctx, items)), nil
	})
	proto.DefineMethod("entries", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		entries := *mapEntries(this)
		items := make([]runtime.Value, len(entries))
		for i, e := range entries {
			items[i] = runtime.NewObject(arrayOf(ctx, []runtime.Value{e.key, e.value}))
		}
		return runtime.NewObject(NewListIterator(ctx, items)), nil
	})
	sizeGetter := runtime.NewObject(runtime.NewNativeFunction("get size", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewNumber(float64(len(*mapEntries(this)))), nil
	}))
	proto.DefineOwnProperty(runtime.StringKey("size"), runtime.PropertyDescriptor{Get: &sizeGetter, Enumerable: boolPtr(false), Configurable: boolPtr(true)})
	entriesFn, _ := proto.Get(runtime.StringKey("entries"), runtime.NewObject(proto))
	proto.DefineOwnProperty(runtime.SymbolKey(ctx.Realm.Symbols.Iterator), runtime.DataDescriptor(entriesFn, true, false, true))

	ctor := runtime.NewNativeFunction("Map", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Undefined, runtime.NewTypeErrorValue("Constructor Map requires 'new'")
	})
	ctor.Construct = func(args []runtime.Value, newTarget runtime.Value) (runtime.Value, error) {
		obj := runtime.NewPlainObject(proto)
		obj.Class = "Map"
		obj.Slots = map[string]interface{}{}
		result := runtime.NewObject(obj)
		if len(args) > 0 && !args[0].IsUndefined() && !args[0].IsNull() {
			items, err := IterableToSlice(ctx, args[0])
			if err != nil {
				return runtime.Undefined, err
			}
			setFn, _ := proto.Get(runtime.StringKey("set"), result)
			for _, pair := range items {
				if pair.Type() != runtime.TypeObject {
					return runtime.Undefined, runtime.NewTypeErrorValue("Iterator value is not an entry object")
				}
				k, _ := pair.AsObject().Get(runtime.StringKey("0"), pair)
				v, _ := pair.AsObject().Get(runtime.StringKey("1"), pair)
				if _, err := runtime.Call(setFn, result, []runtime.Value{k, v}); err != nil {
					return runtime.Undefined, err
				}
			}
		}
		return result, nil
	}
	ctor.DefineDataProperty("prototype", runtime.NewObject(proto), false, false, false)
	proto.DefineDataProperty("constructor", runtime.NewObject(ctor), true, false, true)
	ctx.DefineGlobal("Map", runtime.NewObject(ctor))
	ctx.SetIntrinsic("Map", ctor)
}

func (m *MapSetInitializer) initSet(ctx *Context) {
	proto := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	proto.Class = "Set"
	ctx.SetIntrinsic("SetPrototype", proto)

	proto.DefineMethod("add", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		entries := mapEntries(this)
		key := firstArgOrUndefined(args)
		if findEntry(*entries, key) < 0 {
			*entries = append(*entries, mapEntry{key, key})
		}
		return this, nil
	})
	proto.DefineMethod("has", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewBool(findEntry(*mapEntries(this), firstArgOrUndefined(args)) >= 0), nil
	})
	proto.DefineMethod("delete", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		entries := mapEntries(this)
		if i := findEntry(*entries, firstArgOrUndefined(args)); i >= 0 {
			*entries = append((*entries)[:i], (*entries)[i+1:]...)
			return runtime.NewBool(true), nil
		}
		return runtime.NewBool(false), nil
	})
	proto.DefineMethod("clear", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		*mapEntries(this) = nil
		return runtime.Undefined, nil
	})
	proto.DefineMethod("forEach", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		cb, thisArg := callbackArg(args)
		for _, e := range *mapEntries(this) {
			if _, err := runtime.Call(cb, thisArg, []runtime.Value{e.key, e.key, this}); err != nil {
				return runtime.Undefined, err
			}
		}
		return runtime.Undefined, nil
	})
	proto.DefineMethod("values", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		entries := *mapEntries(this)
		items := make([]runtime.Value, len(entries))
		for i, e := range entries {
			items[i] = e.key
		}
		return runtime.NewObject(NewListIterator(ctx, items)), nil
	})
	keysFn, _ := proto.Get(runtime.StringKey("values"), runtime.NewObject(proto))
	proto.DefineDataProperty("keys", keysFn, true, false, true)
	proto.DefineOwnProperty(runtime.SymbolKey(ctx.Realm.Symbols.Iterator), runtime.DataDescriptor(keysFn, true, false, true))

	sizeGetter := runtime.NewObject(runtime.NewNativeFunction("get size", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewNumber(float64(len(*mapEntries(this)))), nil
	}))
	proto.DefineOwnProperty(runtime.StringKey("size"), runtime.PropertyDescriptor{Get: &sizeGetter, Enumerable: boolPtr(false), Configurable: boolPtr(true)})

	ctor := runtime.NewNativeFunction("Set", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Undefined, runtime.NewTypeErrorValue("Constructor Set requires 'new'")
	})
	ctor.Construct = func(args []runtime.Value, newTarget runtime.Value) (runtime.Value, error) {
		obj := runtime.NewPlainObject(proto)
		obj.Class = "Set"
		obj.Slots = map[string]interface{}{}
		result := runtime.NewObject(obj)
		if len(args) > 0 && !args[0].IsUndefined() && !args[0].IsNull() {
			items, err := IterableToSlice(ctx, args[0])
			if err != nil {
				return runtime.Undefined, err
			}
			addFn, _ := proto.Get(runtime.StringKey("add"), result)
			for _, v := range items {
				if _, err := runtime.Call(addFn, result, []runtime.Value{v}); err != nil {
					return runtime.Undefined, err
				}
			}
		}
		return result, nil
	}
	ctor.DefineDataProperty("prototype", runtime.NewObject(proto), false, false, false)
	proto.DefineDataProperty("constructor", runtime.NewObject(ctor), true, false, true)
	ctx.DefineGlobal("Set", runtime.NewObject(ctor))
	ctx.SetIntrinsic("Set", ctor)
}

// WeakMap/WeakSet share Map/Set's entry storage (this core performs no
// actual garbage collection of unreachable keys, so "weak" here means
// "no iteration / no size" rather than true ephemeral-key semantics — a
// documented simplification since pkg/runtime holds no GC hooks to key
// liveness callbacks off of).
func (m *MapSetInitializer) initWeakMap(ctx *Context) {
	proto := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	proto.Class = "WeakMap"
	ctx.SetIntrinsic("WeakMapPrototype", proto)

	requireObjectKey := func(args []runtime.Value) (runtime.Value, error) {
		k := firstArgOrUndefined(args)
		if k.Type() != runtime.TypeObject {
			return runtime.Undefined, runtime.NewTypeErrorValue("Invalid value used as weak map key")
		}
		return k, nil
	}
	proto.DefineMethod("set", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		key, err := requireObjectKey(args)
		if err != nil {
			return runtime.Undefined, err
		}
		entries := mapEntries(this)
		val := argOr(args, 1, runtime.Undefined)
		if i := findEntry(*entries, key); i >= 0 {
			(*entries)[i].value = val
		} else {
			*entries = append(*entries, mapEntry{key, val})
		}
		return this, nil
	})
	proto.DefineMethod("get", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if i := findEntry(*mapEntries(this), firstArgOrUndefined(args)); i >= 0 {
			return (*mapEntries(this))[i].value, nil
		}
		return runtime.Undefined, nil
	})
	proto.DefineMethod("has", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewBool(findEntry(*mapEntries(this), firstArgOrUndefined(args)) >= 0), nil
	})
	proto.DefineMethod("delete", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		entries := mapEntries(this)
		if i := findEntry(*entries, firstArgOrUndefined(args)); i >= 0 {
			*entries = append((*entries)[:i], (*entries)[i+1:]...)
			return runtime.NewBool(true), nil
		}
		return runtime.NewBool(false), nil
	})

	ctor := runtime.NewNativeFunction("WeakMap", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Undefined, runtime.NewTypeErrorValue("Constructor WeakMap requires 'new'")
	})
	ctor.Construct = func(args []runtime.Value, newTarget runtime.Value) (runtime.Value, error) {
		obj := runtime.NewPlainObject(proto)
		obj.Class = "WeakMap"
		obj.Slots = map[string]interface{}{}
		return runtime.NewObject(obj), nil
	}
	ctor.DefineDataProperty("prototype", runtime.NewObject(proto), false, false, false)
	proto.DefineDataProperty("constructor", runtime.NewObject(ctor), true, false, true)
	ctx.DefineGlobal("WeakMap", runtime.NewObject(ctor))
	ctx.SetIntrinsic("WeakMap", ctor)
}

func (m *MapSetInitializer) initWeakSet(ctx *Context) {
	proto := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	proto.Class = "WeakSet"
	ctx.SetIntrinsic("WeakSetPrototype", proto)

	proto.DefineMethod("add", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		key := firstArgOrUndefined(args)
		if key.Type() != runtime.TypeObject {
			return runtime.Undefined, runtime.NewTypeErrorValue("Invalid value used in weak set")
		}
		entries := mapEntries(this)
		if findEntry(*entries, key) < 0 {
			*entries = append(*entries, mapEntry{key, key})
		}
		return this, nil
	})
	proto.DefineMethod("has", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewBool(findEntry(*mapEntries(this), firstArgOrUndefined(args)) >= 0), nil
	})
	proto.DefineMethod("delete", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		entries := mapEntries(this)
		if i := findEntry(*entries, firstArgOrUndefined(args)); i >= 0 {
			*entries = append((*entries)[:i], (*entries)[i+1:]...)
			return runtime.NewBool(true), nil
		}
		return runtime.NewBool(false), nil
	})

	ctor := runtime.NewNativeFunction("WeakSet", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Undefined, runtime.NewTypeErrorValue("Constructor WeakSet requires 'new'")
	})
	ctor.Construct = func(args []runtime.Value, newTarget runtime.Value) (runtime.Value, error) {
		obj := runtime.NewPlainObject(proto)
		obj.Class = "WeakSet"
		obj.Slots = map[string]interface{}{}
		return runtime.NewObject(obj), nil
	}
	ctor.DefineDataProperty("prototype", runtime.NewObject(proto), false, false, false)
	proto.DefineDataProperty("constructor", runtime.NewObject(ctor), true, false, true)
	ctx.DefineGlobal("WeakSet", runtime.NewObject(ctor))
	ctx.SetIntrinsic("WeakSet", ctor)
}
