package intrinsics

import "ecmacore/pkg/runtime"

// IteratorInitializer builds %IteratorPrototype%, whose only own property
// is `[Symbol.iterator]` returning `this` (spec: every built-in iterator's
// prototype chain passes through this object so `for...of` on an iterator
// itself works). Grounded on the teacher's iterator_init.go.
type IteratorInitializer struct{}

func (i *IteratorInitializer) Name() string  { return "Iterator" }
func (i *IteratorInitializer) Priority() int { return PriorityIterator }

func (i *IteratorInitializer) Init(ctx *Context) error {
	proto := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	proto.DefineOwnProperty(runtime.SymbolKey(ctx.Realm.Symbols.Iterator), runtime.DataDescriptor(
		runtime.NewObject(runtime.NewNativeFunction("[Symbol.iterator]", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return this, nil
		})), true, false, true))
	ctx.SetIntrinsic("IteratorPrototype", proto)
	return nil
}

// NewListIterator builds a one-shot iterator object over a pre-materialized
// slice of values (spec "CreateListIteratorRecord"), the shape Array's
// values()/keys()/entries() and the Map/Set iterator methods all share.
func NewListIterator(ctx *Context, items []runtime.Value) *runtime.Object {
	iter := runtime.NewPlainObject(ctx.Intrinsic("IteratorPrototype"))
	idx := 0
	iter.DefineMethod("next", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		result := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
		if idx >= len(items) {
			result.DefineDataProperty("done", runtime.NewBool(true), true, true, true)
			result.DefineDataProperty("value", runtime.Undefined, true, true, true)
			return runtime.NewObject(result), nil
		}
		result.DefineDataProperty("done", runtime.NewBool(false), true, true, true)
		result.DefineDataProperty("value", items[idx], true, true, true)
		idx++
		return runtime.NewObject(result), nil
	})
	return iter
}

// IterableToSlice drains any object exposing Symbol.iterator into a Go
// slice, implementing the GetIterator + IteratorStep loop used by spread,
// destructuring, and constructors accepting an iterable (spec "for-of
// iterator protocol", §4.5).
func IterableToSlice(ctx *Context, v runtime.Value) ([]runtime.Value, error) {
	if v.Type() != runtime.TypeObject {
		return nil, runtime.NewTypeErrorValue(v.DebugString() + " is not iterable")
	}
	iterFnVal, err := v.AsObject().Get(runtime.SymbolKey(ctx.Realm.Symbols.Iterator), v)
	if err != nil {
		return nil, err
	}
	if !iterFnVal.IsCallable() {
		return nil, runtime.NewTypeErrorValue(v.DebugString() + " is not iterable")
	}
	iterVal, err := runtime.Call(iterFnVal, v, nil)
	if err != nil {
		return nil, err
	}
	if iterVal.Type() != runtime.TypeObject {
		return nil, runtime.NewTypeErrorValue("Result of the Symbol.iterator method is not an object")
	}
	nextFnVal, err := iterVal.AsObject().Get(runtime.StringKey("next"), iterVal)
	if err != nil {
		return nil, err
	}
	var out []runtime.Value
	for {
		res, err := runtime.Call(nextFnVal, iterVal, nil)
		if err != nil {
			return nil, err
		}
		if res.Type() != runtime.TypeObject {
			return nil, runtime.NewTypeErrorValue("Iterator result is not an object")
		}
		done, err := res.AsObject().Get(runtime.StringKey("done"), res)
		if err != nil {
			return nil, err
		}
		if done.ToBoolean() {
			return out, nil
		}
		value, err := res.AsObject().Get(runtime.StringKey("value"), res)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
}
