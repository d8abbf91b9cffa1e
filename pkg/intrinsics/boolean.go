package intrinsics

import "ecmacore/pkg/runtime"

// BooleanInitializer builds Boolean.prototype (toString/valueOf) and the
// Boolean constructor/boxing. Grounded on the teacher's boolean_init.go.
type BooleanInitializer struct{}

func (b *BooleanInitializer) Name() string  { return "Boolean" }
func (b *BooleanInitializer) Priority() int { return PriorityBoolean }

func boolOf(this runtime.Value) (bool, bool) {
	if this.IsBoolean() {
		return this.AsBool(), true
	}
	if this.Type() == runtime.TypeObject {
		if raw, ok := this.AsObject().Slots["primitive"]; ok {
			if v, ok := raw.(runtime.Value); ok && v.IsBoolean() {
				return v.AsBool(), true
			}
		}
	}
	return false, false
}

func (b *BooleanInitializer) Init(ctx *Context) error {
	proto := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	proto.Class = "Boolean"
	ctx.SetIntrinsic("BooleanPrototype", proto)

	proto.DefineMethod("toString", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		v, ok := boolOf(this)
		if !ok {
			return runtime.Undefined, runtime.NewTypeErrorValue("Boolean.prototype.toString requires that 'this' be a Boolean")
		}
		if v {
			return runtime.NewString("true"), nil
		}
		return runtime.NewString("false"), nil
	})
	proto.DefineMethod("valueOf", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		v, ok := boolOf(this)
		if !ok {
			return runtime.Undefined, runtime.NewTypeErrorValue("Boolean.prototype.valueOf requires that 'this' be a Boolean")
		}
		return runtime.NewBool(v), nil
	})

	ctor := runtime.NewNativeFunction("Boolean", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewBool(firstArgOrUndefined(args).ToBoolean()), nil
	})
	ctor.Construct = func(args []runtime.Value, newTarget runtime.Value) (runtime.Value, error) {
		box := runtime.NewPlainObject(proto)
		box.Class = "Boolean"
		box.Slots = map[string]interface{}{"primitive": runtime.NewBool(firstArgOrUndefined(args).ToBoolean())}
		return runtime.NewObject(box), nil
	}
	ctor.DefineDataProperty("prototype", runtime.NewObject(proto), false, false, false)
	proto.DefineDataProperty("constructor", runtime.NewObject(ctor), true, false, true)

	ctx.DefineGlobal("Boolean", runtime.NewObject(ctor))
	ctx.SetIntrinsic("Boolean", ctor)
	return nil
}
