package interop

import "ecmacore/pkg/runtime"

// WrapObject builds a *runtime.Object backed by wrapper: every [[Get]]/
// [[Set]]/[[HasProperty]]/[[Delete]]/[[OwnPropertyKeys]] is forwarded to a
// Proxy trap that consults, in order, the reflection gate, the
// MemberAccessor (if any), and finally the ObjectWrapper/DictionaryWrapper
// itself — structural members winning over dictionary entries on a name
// collision, per spec.md §4.7. Built on pkg/runtime's existing Proxy
// machinery (NewProxy/trap dispatch) rather than a new exotic ObjectKind,
// since Proxy already implements exactly the "every internal method
// forwards to a handler" shape this bridge needs; see DESIGN.md for why
// this was chosen over extending pkg/runtime/object.go's Kind switch.
func WrapObject(realm *runtime.Realm, wrapper ObjectWrapper, accessor MemberAccessor, opts Options) *runtime.Object {
	target := runtime.NewPlainObject(realm.Intrinsic("ObjectPrototype"))
	handler := runtime.NewPlainObject(nil)
	dict, isDict := wrapper.(DictionaryWrapper)

	handler.DefineMethod("get", 3, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		name := propName(args)
		if err := checkReflectionGate(opts, name); err != nil {
			return runtime.Undefined, err
		}
		if getTypeHidden(opts, name) {
			return runtime.Undefined, nil
		}
		if accessor != nil {
			switch res, v := accessor.Access(nil, wrapper, name); res {
			case Hidden:
				return runtime.Undefined, nil
			case Found:
				return v, nil
			}
		}
		if v, ok := wrapper.TryGet(name); ok {
			return v, nil
		}
		if isDict {
			if v, ok := dict.DictGet(name); ok {
				return v, nil
			}
		}
		return runtime.Undefined, nil
	})

	handler.DefineMethod("has", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		name := propName(args)
		if err := checkReflectionGate(opts, name); err != nil {
			return runtime.Undefined, err
		}
		if getTypeHidden(opts, name) {
			return runtime.NewBool(false), nil
		}
		if _, ok := wrapper.TryGet(name); ok {
			return runtime.NewBool(true), nil
		}
		if isDict {
			if _, ok := dict.DictGet(name); ok {
				return runtime.NewBool(true), nil
			}
		}
		return runtime.NewBool(false), nil
	})

	handler.DefineMethod("set", 4, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		name := propName(args)
		var v runtime.Value
		if len(args) > 2 {
			v = args[2]
		}
		if wrapper.TrySet(name, v) {
			return runtime.NewBool(true), nil
		}
		if isDict && dict.DictSet(name, v) {
			return runtime.NewBool(true), nil
		}
		return runtime.NewBool(false), nil
	})

	handler.DefineMethod("deleteProperty", 2, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if isDict && dict.DictDelete(propName(args)) {
			return runtime.NewBool(true), nil
		}
		return runtime.NewBool(false), nil
	})

	handler.DefineMethod("ownKeys", 1, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		seen := map[string]bool{}
		var names []string
		for _, n := range wrapper.Keys() {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
		if isDict {
			for _, n := range dict.DictKeys() {
				if !seen[n] {
					seen[n] = true
					names = append(names, n)
				}
			}
		}
		arr := runtime.NewArray(realm.Intrinsic("ArrayPrototype"), uint32(len(names)))
		for i, n := range names {
			arr.DefineOwnProperty(runtime.StringKey(itoaHelper(i)), runtime.DataDescriptor(runtime.NewString(n), true, true, true))
		}
		return runtime.NewObject(arr), nil
	})

	return runtime.NewProxy(target, handler)
}

func propName(args []runtime.Value) string {
	if len(args) < 2 {
		return ""
	}
	return runtime.ToStringSimple(args[1])
}

func itoaHelper(i int) string {
	if i == 0 {
		return "0"
	}
	digits := [20]byte{}
	pos := len(digits)
	for i > 0 {
		pos--
		digits[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(digits[pos:])
}
