package intrinsics

import "ecmacore/pkg/runtime"

// FunctionInitializer builds Function.prototype (call/apply/bind/toString)
// and the Function constructor's prototype linkage. Grounded on the
// teacher's function_init.go method set.
type FunctionInitializer struct{}

func (f *FunctionInitializer) Name() string  { return "Function" }
func (f *FunctionInitializer) Priority() int { return PriorityFunction }

func (f *FunctionInitializer) Init(ctx *Context) error {
	objProto := ctx.Intrinsic("ObjectPrototype")
	proto := &runtime.Object{Kind: runtime.KindFunction, Class: "Function", Prototype: objProto, Extensible: true}
	proto.Call = func(this runtime.Value, args []runtime.Value) (runtime.Value, error) { return runtime.Undefined, nil }
	ctx.SetIntrinsic("FunctionPrototype", proto)

	proto.DefineMethod("call", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		thisArg := firstArgOrUndefined(args)
		rest := restArgs(args, 1)
		return runtime.Call(this, thisArg, rest)
	})
	proto.DefineMethod("apply", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		thisArg := firstArgOrUndefined(args)
		var rest []runtime.Value
		if len(args) > 1 && args[1].Type() == runtime.TypeObject && args[1].AsObject().Kind == runtime.KindArray {
			arr := args[1].AsObject()
			n := arr.ArrayLength()
			rest = make([]runtime.Value, n)
			for i := uint32(0); i < n; i++ {
				rest[i], _ = arr.Get(runtime.StringKey(itoaHelper(i)), args[1])
			}
		}
		return runtime.Call(this, thisArg, rest)
	})
	proto.DefineMethod("bind", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if this.Type() != runtime.TypeObject || this.AsObject().Call == nil {
			return runtime.Undefined, runtime.NewTypeErrorValue("Bind must be called on a function")
		}
		thisArg := firstArgOrUndefined(args)
		bound := runtime.NewBoundFunction(ctx.Realm, this.AsObject(), thisArg, restArgs(args, 1))
		return runtime.NewObject(bound), nil
	})
	proto.DefineMethod("toString", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if this.Type() != runtime.TypeObject {
			return runtime.NewString("function () { [native code] }"), nil
		}
		name := this.AsObject().FunctionName
		return runtime.NewString("function " + name + "() { [native code] }"), nil
	})

	ctor := runtime.NewNativeFunction("Function", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Undefined, runtime.NewTypeErrorValue("Function constructor requires a parser, not available in this embedding")
	})
	ctor.DefineDataProperty("prototype", runtime.NewObject(proto), false, false, false)
	proto.DefineDataProperty("constructor", runtime.NewObject(ctor), true, false, true)
	ctx.DefineGlobal("Function", runtime.NewObject(ctor))
	return nil
}

func restArgs(args []runtime.Value, from int) []runtime.Value {
	if from >= len(args) {
		return nil
	}
	return args[from:]
}
