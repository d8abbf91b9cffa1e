package intrinsics

import "ecmacore/pkg/runtime"

// ErrorInitializer builds the Error constructor hierarchy (Error, then
// TypeError/RangeError/ReferenceError/SyntaxError/URIError/EvalError as
// subclasses), each a plain object carrying `message`/`name`/`stack` own
// properties. Grounded on the teacher's error_init.go/type_error_init.go/
// reference_error_init.go/syntax_error_init.go family, one subclass per
// file there; collapsed here into a single initializer since every
// subclass follows the identical pattern (same prototype shape, same
// constructor body, only `name` differs) per SPEC_FULL.md's consolidation
// of pkg/errors' EngineError kinds. The `Kind` strings used below line up
// 1:1 with pkg/runtime.RuntimeSignal.Kind, so pkg/interpreter's error
// boundary can look up `realm.Intrinsic(kind)` to construct a thrown
// instance from any RuntimeSignal without a kind-name switch of its own.
type ErrorInitializer struct{}

func (e *ErrorInitializer) Name() string  { return "Error" }
func (e *ErrorInitializer) Priority() int { return PriorityErrorHierarchy }

var errorSubclasses = []string{"TypeError", "RangeError", "ReferenceError", "SyntaxError", "URIError", "EvalError"}

func (e *ErrorInitializer) Init(ctx *Context) error {
	baseProto := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	baseProto.Class = "Error"
	baseProto.DefineDataProperty("name", runtime.NewString("Error"), true, false, true)
	baseProto.DefineDataProperty("message", runtime.NewString(""), true, false, true)
	baseProto.DefineMethod("toString", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewString(errorToString(this)), nil
	})
	ctx.SetIntrinsic("ErrorPrototype", baseProto)

	baseCtor := buildErrorConstructor(ctx, "Error", baseProto, ctx.Intrinsic("FunctionPrototype"))
	ctx.DefineGlobal("Error", runtime.NewObject(baseCtor))
	ctx.SetIntrinsic("Error", baseCtor)

	for _, name := range errorSubclasses {
		proto := runtime.NewPlainObject(baseProto)
		proto.Class = "Error"
		proto.DefineDataProperty("name", runtime.NewString(name), true, false, true)
		proto.DefineDataProperty("message", runtime.NewString(""), true, false, true)
		ctx.SetIntrinsic(name+"Prototype", proto)
		ctor := buildErrorConstructor(ctx, name, proto, runtime.NewObject(baseCtor).AsObject())
		ctx.DefineGlobal(name, runtime.NewObject(ctor))
		ctx.SetIntrinsic(name, ctor)
	}
	return nil
}

func buildErrorConstructor(ctx *Context, name string, proto *runtime.Object, parentCtor *runtime.Object) *runtime.Object {
	realm := ctx.Realm
	build := func(args []runtime.Value) runtime.Value {
		obj := runtime.NewPlainObject(proto)
		obj.Class = "Error"
		if len(args) > 0 && !args[0].IsUndefined() {
			obj.DefineDataProperty("message", runtime.NewString(runtime.ToStringSimple(args[0])), true, false, true)
		}
		nameVal, _ := proto.Get(runtime.StringKey("name"), runtime.NewObject(proto))
		msgVal, _ := obj.Get(runtime.StringKey("message"), runtime.NewObject(obj))
		stack := runtime.ToStringSimple(nameVal)
		if m := runtime.ToStringSimple(msgVal); m != "" {
			stack += ": " + m
		}
		stack += realm.StackTrace()
		obj.DefineDataProperty("stack", runtime.NewString(stack), true, false, true)
		return runtime.NewObject(obj)
	}
	ctor := runtime.NewNativeFunction(name, 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return build(args), nil
	})
	ctor.Construct = func(args []runtime.Value, newTarget runtime.Value) (runtime.Value, error) {
		return build(args), nil
	}
	ctor.Prototype = parentCtor
	ctor.DefineDataProperty("prototype", runtime.NewObject(proto), false, false, false)
	proto.DefineDataProperty("constructor", runtime.NewObject(ctor), true, false, true)
	return ctor
}

func errorToString(this runtime.Value) string {
	if this.Type() != runtime.TypeObject {
		return "Error"
	}
	nameVal, _ := this.AsObject().Get(runtime.StringKey("name"), this)
	msgVal, _ := this.AsObject().Get(runtime.StringKey("message"), this)
	name := runtime.ToStringSimple(nameVal)
	msg := runtime.ToStringSimple(msgVal)
	if msg == "" {
		return name
	}
	if name == "" {
		return msg
	}
	return name + ": " + msg
}

// NewErrorInstance builds a thrown-ready Error instance of the given kind
// (matching pkg/runtime.RuntimeSignal.Kind) for a Realm that has already
// run ErrorInitializer. Used by pkg/interpreter's RuntimeSignal boundary.
func NewErrorInstance(realm *runtime.Realm, kind, message string) runtime.Value {
	ctor := realm.Intrinsic(kind)
	if ctor == nil {
		ctor = realm.Intrinsic("Error")
	}
	v, err := runtime.Construct(runtime.NewObject(ctor), []runtime.Value{runtime.NewString(message)}, runtime.NewObject(ctor))
	if err != nil {
		return runtime.NewString(kind + ": " + message)
	}
	return v
}
