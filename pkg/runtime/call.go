package runtime

// Call implements the abstract operation Call(F, V, argumentsList): throws
// TypeError if fnVal isn't callable, otherwise forwards to its [[Call]].
func Call(fnVal Value, this Value, args []Value) (Value, error) {
	if fnVal.typ != TypeObject || fnVal.obj.Call == nil {
		return Undefined, NewTypeErrorValue(fnVal.DebugString() + " is not a function")
	}
	return fnVal.obj.Call(this, args)
}

// Construct implements the abstract operation Construct(F, argumentsList,
// newTarget): throws TypeError if fnVal isn't a constructor.
func Construct(fnVal Value, args []Value, newTarget Value) (Value, error) {
	if fnVal.typ != TypeObject || fnVal.obj.Construct == nil {
		return Undefined, NewTypeErrorValue(fnVal.DebugString() + " is not a constructor")
	}
	if newTarget.IsUndefined() {
		newTarget = fnVal
	}
	return fnVal.obj.Construct(args, newTarget)
}

// NewBoundFunction implements Function.prototype.bind's exotic object
// (spec §4.2 "Bound Function exotic"): [[Call]] prepends boundArgs to the
// caller's arguments and substitutes boundThis for this; [[Construct]], if
// target is a constructor, forwards newTarget unchanged (substituting F
// for itself when newTarget is the bound function).
func NewBoundFunction(realm *Realm, target *Object, boundThis Value, boundArgs []Value) *Object {
	name := "bound " + target.FunctionName
	length := target.FunctionLength - len(boundArgs)
	if length < 0 {
		length = 0
	}
	bf := &Object{Kind: KindBoundFunction, Class: "Function", Extensible: true, table: make(map[string]*slot)}
	bf.Prototype = realm.Intrinsic("FunctionPrototype")
	bf.FunctionName = name
	bf.FunctionLength = length
	bf.DefineDataProperty("name", NewString(name), false, false, true)
	bf.DefineDataProperty("length", NewNumber(float64(length)), false, false, true)

	bf.Call = func(this Value, args []Value) (Value, error) {
		all := append(append([]Value{}, boundArgs...), args...)
		return target.Call(boundThis, all)
	}
	if target.Construct != nil {
		bf.Construct = func(args []Value, newTarget Value) (Value, error) {
			all := append(append([]Value{}, boundArgs...), args...)
			if newTarget.typ == TypeObject && newTarget.obj == bf {
				newTarget = NewObject(target)
			}
			return target.Construct(all, newTarget)
		}
	}
	return bf
}
