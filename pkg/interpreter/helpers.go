package interpreter

import (
	"ecmacore/pkg/ast"
	"ecmacore/pkg/runtime"
)

// toPrimitive implements the ToPrimitive abstract operation (spec §4.1):
// an object's @@toPrimitive method, if present, is tried first with hint;
// otherwise valueOf/toString (or toString/valueOf for hint=="string") are
// tried in order, the one genuine case where this tree-walking evaluator
// must be able to invoke arbitrary user code from deep inside a "plain"
// operation like `+` or template-literal interpolation.
func (ip *Interpreter) toPrimitive(f *frame, v runtime.Value, hint string) (runtime.Value, error) {
	if v.Type() != runtime.TypeObject {
		return v, nil
	}
	obj := v.AsObject()
	exotic, err := obj.Get(runtime.SymbolKey(f.realm.Symbols.ToPrimitive), v)
	if err != nil {
		return runtime.Undefined, f.throwSignal(err)
	}
	if exotic.IsCallable() {
		h := hint
		if h == "" {
			h = "default"
		}
		result, err := runtime.Call(exotic, v, []runtime.Value{runtime.NewString(h)})
		if err != nil {
			return runtime.Undefined, err
		}
		if result.Type() == runtime.TypeObject {
			return runtime.Undefined, f.throwSignal(runtime.NewTypeErrorValue("Cannot convert object to primitive value"))
		}
		return result, nil
	}
	methods := []string{"valueOf", "toString"}
	if hint == "string" {
		methods = []string{"toString", "valueOf"}
	}
	for _, name := range methods {
		m, err := obj.Get(runtime.StringKey(name), v)
		if err != nil {
			return runtime.Undefined, f.throwSignal(err)
		}
		if !m.IsCallable() {
			continue
		}
		result, err := runtime.Call(m, v, nil)
		if err != nil {
			return runtime.Undefined, err
		}
		if result.Type() != runtime.TypeObject {
			return result, nil
		}
	}
	return runtime.Undefined, f.throwSignal(runtime.NewTypeErrorValue("Cannot convert object to primitive value"))
}

func (ip *Interpreter) toPrimitiveDefault(f *frame) func(runtime.Value) (runtime.Value, error) {
	return func(v runtime.Value) (runtime.Value, error) { return ip.toPrimitive(f, v, "") }
}

func (ip *Interpreter) toPrimitiveString(f *frame) func(runtime.Value) (runtime.Value, error) {
	return func(v runtime.Value) (runtime.Value, error) { return ip.toPrimitive(f, v, "string") }
}

// toNumeric implements ToNumeric: objects convert via ToPrimitive(hint
// "number") first, then BigInts pass through and everything else becomes a
// plain number, matching the dual numeric-type arithmetic spec §6 defines.
func (ip *Interpreter) toNumeric(f *frame, v runtime.Value) (runtime.Value, error) {
	p, err := ip.toPrimitive(f, v, "number")
	if err != nil {
		return runtime.Undefined, err
	}
	if p.IsBigInt() {
		return p, nil
	}
	return runtime.NewNumber(p.ToNumber()), nil
}

func (ip *Interpreter) toStringValue(f *frame, v runtime.Value) (string, error) {
	if v.IsSymbol() {
		return "", f.throwSignal(runtime.NewTypeErrorValue("Cannot convert a Symbol value to a string"))
	}
	p, err := ip.toPrimitive(f, v, "string")
	if err != nil {
		return "", err
	}
	return runtime.ToStringSimple(p), nil
}

// toObject implements ToObject: wraps primitives in their boxed form using
// the realm's Boolean/Number/String/Symbol constructors, which is how
// `"x".length` and similar property access on a primitive works (spec
// §4.1). null/undefined throw TypeError, as spec requires.
func (ip *Interpreter) toObject(f *frame, v runtime.Value) (*runtime.Object, error) {
	switch v.Type() {
	case runtime.TypeObject:
		return v.AsObject(), nil
	case runtime.TypeUndefined, runtime.TypeNull:
		return nil, f.throwSignal(runtime.NewTypeErrorValue("Cannot convert undefined or null to object"))
	}
	var ctorName string
	switch v.Type() {
	case runtime.TypeBoolean:
		ctorName = "Boolean"
	case runtime.TypeNumber:
		ctorName = "Number"
	case runtime.TypeString:
		ctorName = "String"
	case runtime.TypeBigInt:
		ctorName = "BigInt"
	case runtime.TypeSymbol:
		ctorName = "Symbol"
	}
	ctor := f.realm.Intrinsic(ctorName)
	if ctor == nil || ctor.Construct == nil {
		return nil, f.throwSignal(runtime.NewTypeErrorValue("Cannot convert value to object"))
	}
	boxed, err := ctor.Construct([]runtime.Value{v}, runtime.NewObject(ctor))
	if err != nil {
		return nil, err
	}
	return boxed.AsObject(), nil
}

// propertyKeyOf evaluates a property key expression — a computed
// expression if computed, otherwise an Identifier or string/numeric
// literal used directly as its own name — implementing the common half of
// ToPropertyKey that member access, object literals, and destructuring
// patterns all share.
func (ip *Interpreter) propertyKeyOf(f *frame, key ast.Expression, computed bool) (runtime.PropertyKey, error) {
	if !computed {
		switch k := key.(type) {
		case *ast.Identifier:
			return runtime.StringKey(k.Name), nil
		case *ast.StringLiteral:
			return runtime.StringKey(k.Value), nil
		case *ast.NumericLiteral:
			return runtime.StringKey(runtime.NumberToString(k.Value)), nil
		}
	}
	v, err := ip.eval(f, key)
	if err != nil {
		return runtime.PropertyKey{}, err
	}
	pk, err := runtime.ToPropertyKey(v, ip.toPrimitiveString(f))
	if err != nil {
		return runtime.PropertyKey{}, f.throwSignal(err)
	}
	return pk, nil
}
