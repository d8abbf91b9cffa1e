package intrinsics

import "ecmacore/pkg/runtime"

// TypedArrayInitializer builds ArrayBuffer and the nine typed array
// constructors (Int8Array..Float64Array); there is no DataView. The
// constructors all share one prototype
// shape with per-kind constructors the way ordinary/Integer-Indexed
// exotic objects share a Get/Set override in pkg/runtime/typedarray.go.
// The teacher's VM has no typed array support to ground this on directly;
// this is grounded on spec.md's "typed arrays share the buffer and reject
// detached access" invariant plus the already-built pkg/runtime/
// typedarray.go Integer-Indexed machinery, which this file is the only
// consumer of outside pkg/runtime.
type TypedArrayInitializer struct{}

func (t *TypedArrayInitializer) Name() string  { return "TypedArray" }
func (t *TypedArrayInitializer) Priority() int { return PriorityTypedArray }

var typedArrayKinds = []struct {
	name string
	kind runtime.TypedArrayKind
}{
	{"Int8Array", runtime.Int8Array},
	{"Uint8Array", runtime.Uint8Array},
	{"Uint8ClampedArray", runtime.Uint8ClampedArray},
	{"Int16Array", runtime.Int16Array},
	{"Uint16Array", runtime.Uint16Array},
	{"Int32Array", runtime.Int32Array},
	{"Uint32Array", runtime.Uint32Array},
	{"Float32Array", runtime.Float32Array},
	{"Float64Array", runtime.Float64Array},
}

func (t *TypedArrayInitializer) Init(ctx *Context) error {
	bufferProto := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	bufferProto.Class = "ArrayBuffer"
	bufferProto.DefineMethod("slice", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		buf := this.AsObject()
		data := buf.Slots["data"].([]byte)
		start, end := sliceBounds(args, len(data))
		sliced := runtime.NewArrayBuffer(bufferProto, end-start)
		copy(sliced.Slots["data"].([]byte), data[start:end])
		return runtime.NewObject(sliced), nil
	})
	ctx.SetIntrinsic("ArrayBufferPrototype", bufferProto)

	bufferCtor := runtime.NewNativeFunction("ArrayBuffer", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Undefined, runtime.NewTypeErrorValue("Constructor ArrayBuffer requires 'new'")
	})
	bufferCtor.Construct = func(args []runtime.Value, newTarget runtime.Value) (runtime.Value, error) {
		length := 0
		if len(args) > 0 {
			length = int(args[0].ToNumber())
		}
		return runtime.NewObject(runtime.NewArrayBuffer(bufferProto, length)), nil
	}
	bufferCtor.DefineDataProperty("prototype", runtime.NewObject(bufferProto), false, false, false)
	bufferProto.DefineDataProperty("constructor", runtime.NewObject(bufferCtor), true, false, true)
	ctx.DefineGlobal("ArrayBuffer", runtime.NewObject(bufferCtor))
	ctx.SetIntrinsic("ArrayBuffer", bufferCtor)

	taProto := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	taProto.Class = "TypedArray"
	ctx.SetIntrinsic("TypedArrayPrototype", taProto)

	readAllTA := func(this runtime.Value) []runtime.Value {
		obj := this.AsObject()
		n := obj.TypedArrayLength()
		out := make([]runtime.Value, n)
		for i := 0; i < n; i++ {
			out[i] = obj.IntegerIndexedElementGet(i)
		}
		return out
	}

	taProto.DefineMethod("set", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		obj := this.AsObject()
		offset := 0
		if len(args) > 1 {
			offset = int(args[1].ToNumber())
		}
		if len(args) == 0 {
			return runtime.Undefined, nil
		}
		source, err := IterableToSlice(ctx, args[0])
		if err != nil {
			return runtime.Undefined, err
		}
		for i, v := range source {
			obj.IntegerIndexedElementSet(offset+i, v)
		}
		return runtime.Undefined, nil
	})
	taProto.DefineMethod("fill", 3, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		obj := this.AsObject()
		n := obj.TypedArrayLength()
		v := firstArgOrUndefined(args)
		start, end := sliceBounds(args[min(1, len(args)):], n)
		for i := start; i < end; i++ {
			obj.IntegerIndexedElementSet(i, v)
		}
		return this, nil
	})
	taProto.DefineMethod("slice", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		items := readAllTA(this)
		start, end := sliceBounds(args, len(items))
		return makeTypedArrayOf(ctx, taProto, this.AsObject().TypedArrayElementKind(), items[start:end]), nil
	})
	taProto.DefineMethod("map", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		cb, thisArg := callbackArg(args)
		items := readAllTA(this)
		out := make([]runtime.Value, len(items))
		for i, v := range items {
			r, err := runtime.Call(cb, thisArg, []runtime.Value{v, runtime.NewNumber(float64(i)), this})
			if err != nil {
				return runtime.Undefined, err
			}
			out[i] = r
		}
		return makeTypedArrayOf(ctx, taProto, this.AsObject().TypedArrayElementKind(), out), nil
	})
	taProto.DefineMethod("forEach", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		cb, thisArg := callbackArg(args)
		items := readAllTA(this)
		for i, v := range items {
			if _, err := runtime.Call(cb, thisArg, []runtime.Value{v, runtime.NewNumber(float64(i)), this}); err != nil {
				return runtime.Undefined, err
			}
		}
		return runtime.Undefined, nil
	})
	taProto.DefineMethod("join", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		sep := ","
		if len(args) > 0 && !args[0].IsUndefined() {
			sep = runtime.ToStringSimple(args[0])
		}
		items := readAllTA(this)
		parts := make([]string, len(items))
		for i, v := range items {
			parts[i] = runtime.ToStringSimple(v)
		}
		return runtime.NewString(joinStrings(parts, sep)), nil
	})
	taProto.DefineMethod("indexOf", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target := firstArgOrUndefined(args)
		for i, v := range readAllTA(this) {
			if runtime.StrictEquals(v, target) {
				return runtime.NewNumber(float64(i)), nil
			}
		}
		return runtime.NewNumber(-1), nil
	})
	taProto.DefineOwnProperty(runtime.SymbolKey(ctx.Realm.Symbols.Iterator), runtime.DataDescriptor(
		runtime.NewObject(runtime.NewNativeFunction("[Symbol.iterator]", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return runtime.NewObject(NewListIterator(ctx, readAllTA(this))), nil
		})), true, false, true))

	getLengthGetter := runtime.NewObject(runtime.NewNativeFunction("length", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewNumber(float64(this.AsObject().TypedArrayLength())), nil
	}))
	taProto.DefineOwnProperty(runtime.StringKey("length"), runtime.PropertyDescriptor{Get: &getLengthGetter, Enumerable: boolPtr(false), Configurable: boolPtr(true)})

	for _, ta := range typedArrayKinds {
		kind := ta.kind
		proto := runtime.NewPlainObject(taProto)
		proto.Class = ta.name
		ctx.SetIntrinsic(ta.name+"Prototype", proto)

		ctor := runtime.NewNativeFunction(ta.name, 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return runtime.Undefined, runtime.NewTypeErrorValue("Constructor " + ta.name + " requires 'new'")
		})
		ctor.Construct = func(args []runtime.Value, newTarget runtime.Value) (runtime.Value, error) {
			if len(args) == 0 {
				return runtime.NewObject(runtime.NewTypedArray(proto, kind, runtime.NewArrayBuffer(bufferProto, 0), 0, 0)), nil
			}
			if args[0].Type() == runtime.TypeObject && args[0].AsObject().Kind == runtime.KindArrayBuffer {
				buf := args[0].AsObject()
				byteOffset := 0
				if len(args) > 1 {
					byteOffset = int(args[1].ToNumber())
				}
				data := buf.Slots["data"].([]byte)
				length := (len(data) - byteOffset) / kind.BytesPerElement()
				if len(args) > 2 {
					length = int(args[2].ToNumber())
				}
				return runtime.NewObject(runtime.NewTypedArray(proto, kind, buf, byteOffset, length)), nil
			}
			if args[0].IsNumber() {
				n := int(args[0].ToNumber())
				buf := runtime.NewArrayBuffer(bufferProto, n*kind.BytesPerElement())
				return runtime.NewObject(runtime.NewTypedArray(proto, kind, buf, 0, n)), nil
			}
			items, err := IterableToSlice(ctx, args[0])
			if err != nil {
				return runtime.Undefined, err
			}
			buf := runtime.NewArrayBuffer(bufferProto, len(items)*kind.BytesPerElement())
			obj := runtime.NewTypedArray(proto, kind, buf, 0, len(items))
			for i, v := range items {
				obj.IntegerIndexedElementSet(i, v)
			}
			return runtime.NewObject(obj), nil
		}
		ctor.DefineDataProperty("BYTES_PER_ELEMENT", runtime.NewNumber(float64(kind.BytesPerElement())), false, false, false)
		ctor.DefineMethod("of", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return makeTypedArrayOf(ctx, proto, kind, args), nil
		})
		ctor.DefineMethod("from", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			if len(args) == 0 {
				return makeTypedArrayOf(ctx, proto, kind, nil), nil
			}
			items, err := IterableToSlice(ctx, args[0])
			if err != nil {
				return runtime.Undefined, err
			}
			if len(args) > 1 && args[1].IsCallable() {
				for i, v := range items {
					r, err := runtime.Call(args[1], runtime.Undefined, []runtime.Value{v, runtime.NewNumber(float64(i))})
					if err != nil {
						return runtime.Undefined, err
					}
					items[i] = r
				}
			}
			return makeTypedArrayOf(ctx, proto, kind, items), nil
		})
		ctor.DefineDataProperty("prototype", runtime.NewObject(proto), false, false, false)
		proto.DefineDataProperty("constructor", runtime.NewObject(ctor), true, false, true)
		ctx.DefineGlobal(ta.name, runtime.NewObject(ctor))
		ctx.SetIntrinsic(ta.name, ctor)
	}

	return nil
}

func makeTypedArrayOf(ctx *Context, proto *runtime.Object, kind runtime.TypedArrayKind, items []runtime.Value) runtime.Value {
	buf := runtime.NewArrayBuffer(ctx.Intrinsic("ArrayBufferPrototype"), len(items)*kind.BytesPerElement())
	obj := runtime.NewTypedArray(proto, kind, buf, 0, len(items))
	for i, v := range items {
		obj.IntegerIndexedElementSet(i, v)
	}
	return runtime.NewObject(obj)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
