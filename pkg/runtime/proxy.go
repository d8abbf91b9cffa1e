package runtime

// NewProxy builds a Proxy exotic object. Every internal method is
// forwarded to the matching trap on handler; a missing trap delegates to
// target (spec §4.2 "Proxy"). [[Call]]/[[Construct]] are wired only when
// target is callable/constructible, per spec.
func NewProxy(target, handler *Object) *Object {
	p := &Object{Kind: KindProxy, Class: "Object", Extensible: true, ProxyTarget: target, ProxyHandler: handler}
	if target.Call != nil {
		p.Call = func(this Value, args []Value) (Value, error) {
			if p.ProxyTarget == nil {
				return Undefined, NewTypeErrorValue("Cannot perform 'apply' on a proxy that has been revoked")
			}
			trap := p.trap("apply")
			if trap == nil {
				return p.ProxyTarget.Call(this, args)
			}
			argsArr := NewArray(nil, 0)
			for i, a := range args {
				argsArr.DefineOwnProperty(StringKey(itoa(uint32(i))), DataDescriptor(a, true, true, true))
			}
			argsArr.setArrayLength(uint32(len(args)))
			return trap.Call(NewObject(p.ProxyHandler), []Value{NewObject(p.ProxyTarget), this, NewObject(argsArr)})
		}
	}
	if target.Construct != nil {
		p.Construct = func(args []Value, newTarget Value) (Value, error) {
			if p.ProxyTarget == nil {
				return Undefined, NewTypeErrorValue("Cannot perform 'construct' on a proxy that has been revoked")
			}
			trap := p.trap("construct")
			if trap == nil {
				return p.ProxyTarget.Construct(args, newTarget)
			}
			argsArr := NewArray(nil, uint32(len(args)))
			for i, a := range args {
				argsArr.DefineOwnProperty(StringKey(itoa(uint32(i))), DataDescriptor(a, true, true, true))
			}
			v, err := trap.Call(NewObject(p.ProxyHandler), []Value{NewObject(p.ProxyTarget), NewObject(argsArr), newTarget})
			if err != nil {
				return Undefined, err
			}
			if v.typ != TypeObject {
				return Undefined, NewTypeErrorValue("proxy construct trap must return an object")
			}
			return v, nil
		}
	}
	return p
}

func (o *Object) trap(name string) *Object {
	if o.ProxyHandler == nil {
		return nil
	}
	v, _ := o.ProxyHandler.Get(StringKey(name), NewObject(o.ProxyHandler))
	if v.typ == TypeObject && v.obj.Call != nil {
		return v.obj
	}
	return nil
}

// revokedErr reports the standard TypeError for an internal method invoked
// on a proxy whose handler has been revoked (spec §10.5.x: "If handler is
// null, throw a TypeError exception").
func (o *Object) revokedErr(trap string) error {
	return NewTypeErrorValue("Cannot perform '" + trap + "' on a proxy that has been revoked")
}

func (o *Object) proxyGetOwnProperty(key PropertyKey) (*PropertyDescriptor, error) {
	if o.ProxyTarget == nil {
		return nil, o.revokedErr("getOwnPropertyDescriptor")
	}
	trap := o.trap("getOwnPropertyDescriptor")
	if trap == nil {
		return o.ProxyTarget.GetOwnProperty(key)
	}
	result, err := trap.Call(NewObject(o.ProxyHandler), []Value{NewObject(o.ProxyTarget), keyToValue(key)})
	if err != nil {
		return nil, err
	}
	targetDesc, err := o.ProxyTarget.GetOwnProperty(key)
	if err != nil {
		return nil, err
	}
	if result.typ == TypeUndefined {
		if targetDesc == nil {
			return nil, nil
		}
		if targetDesc.Configurable != nil && !*targetDesc.Configurable {
			return nil, NewTypeErrorValue("'getOwnPropertyDescriptor' on proxy: trap returned undefined for a non-configurable target property")
		}
		return nil, nil
	}
	if result.typ != TypeObject {
		return nil, NewTypeErrorValue("proxy getOwnPropertyDescriptor trap must return an object or undefined")
	}
	desc := objectToDescriptor(result.obj)
	return &desc, nil
}

func (o *Object) proxyGet(key PropertyKey, receiver Value) (Value, error) {
	if o.ProxyTarget == nil {
		return Undefined, o.revokedErr("get")
	}
	trap := o.trap("get")
	if trap == nil {
		return o.ProxyTarget.Get(key, receiver)
	}
	result, err := trap.Call(NewObject(o.ProxyHandler), []Value{NewObject(o.ProxyTarget), keyToValue(key), receiver})
	if err != nil {
		return Undefined, err
	}
	// Invariant: a non-configurable, non-writable own data property on
	// target must yield the same value through the trap.
	targetDesc, err := o.ProxyTarget.GetOwnProperty(key)
	if err != nil {
		return Undefined, err
	}
	if targetDesc != nil &&
		targetDesc.Configurable != nil && !*targetDesc.Configurable &&
		!targetDesc.IsAccessor() && targetDesc.Writable != nil && !*targetDesc.Writable {
		if !SameValue(result, *targetDesc.Value) {
			return Undefined, NewTypeErrorValue("'get' on proxy: property value does not match target's non-configurable, non-writable property")
		}
	}
	return result, nil
}

func (o *Object) proxySet(key PropertyKey, v Value, receiver Value, strict bool) (bool, error) {
	if o.ProxyTarget == nil {
		return false, o.revokedErr("set")
	}
	trap := o.trap("set")
	if trap == nil {
		return o.ProxyTarget.Set(key, v, receiver, strict)
	}
	result, err := trap.Call(NewObject(o.ProxyHandler), []Value{NewObject(o.ProxyTarget), keyToValue(key), v, receiver})
	if err != nil {
		return false, err
	}
	return result.ToBoolean(), nil
}

func (o *Object) proxyHas(key PropertyKey) (bool, error) {
	if o.ProxyTarget == nil {
		return false, o.revokedErr("has")
	}
	trap := o.trap("has")
	if trap == nil {
		return o.ProxyTarget.HasProperty(key)
	}
	result, err := trap.Call(NewObject(o.ProxyHandler), []Value{NewObject(o.ProxyTarget), keyToValue(key)})
	if err != nil {
		return false, err
	}
	return result.ToBoolean(), nil
}

func (o *Object) proxyDelete(key PropertyKey) (bool, error) {
	if o.ProxyTarget == nil {
		return false, o.revokedErr("deleteProperty")
	}
	trap := o.trap("deleteProperty")
	if trap == nil {
		return o.ProxyTarget.Delete(key)
	}
	result, err := trap.Call(NewObject(o.ProxyHandler), []Value{NewObject(o.ProxyTarget), keyToValue(key)})
	if err != nil {
		return false, err
	}
	return result.ToBoolean(), nil
}

func (o *Object) proxyDefineOwnProperty(key PropertyKey, desc PropertyDescriptor) (bool, error) {
	if o.ProxyTarget == nil {
		return false, o.revokedErr("defineProperty")
	}
	trap := o.trap("defineProperty")
	if trap == nil {
		return o.ProxyTarget.DefineOwnProperty(key, desc)
	}
	descObj := descriptorToObject(desc)
	result, err := trap.Call(NewObject(o.ProxyHandler), []Value{NewObject(o.ProxyTarget), keyToValue(key), NewObject(descObj)})
	if err != nil {
		return false, err
	}
	return result.ToBoolean(), nil
}

func (o *Object) proxyOwnKeys() ([]PropertyKey, error) {
	if o.ProxyTarget == nil {
		return nil, o.revokedErr("ownKeys")
	}
	trap := o.trap("ownKeys")
	if trap == nil {
		return o.ProxyTarget.OwnPropertyKeys()
	}
	result, err := trap.Call(NewObject(o.ProxyHandler), []Value{NewObject(o.ProxyTarget)})
	if err != nil {
		return nil, err
	}
	if result.typ != TypeObject || result.obj.Kind != KindArray {
		return nil, NewTypeErrorValue("proxy ownKeys trap must return an array")
	}
	n := result.obj.ArrayLength()
	keys := make([]PropertyKey, 0, n)
	for i := uint32(0); i < n; i++ {
		v, _ := result.obj.Get(StringKey(itoa(i)), result)
		if v.typ == TypeString {
			keys = append(keys, StringKey(v.str))
		} else if v.typ == TypeSymbol {
			keys = append(keys, SymbolKey(v.sym))
		}
	}
	return keys, nil
}

func (o *Object) proxyGetPrototypeOf() (*Object, error) {
	if o.ProxyTarget == nil {
		return nil, o.revokedErr("getPrototypeOf")
	}
	trap := o.trap("getPrototypeOf")
	if trap == nil {
		return o.ProxyTarget.GetPrototypeOf()
	}
	result, err := trap.Call(NewObject(o.ProxyHandler), []Value{NewObject(o.ProxyTarget)})
	if err != nil {
		return nil, err
	}
	if result.typ == TypeNull {
		return nil, nil
	}
	if result.typ != TypeObject {
		return nil, NewTypeErrorValue("proxy getPrototypeOf trap must return an object or null")
	}
	return result.obj, nil
}

func (o *Object) proxySetPrototypeOf(proto *Object) (bool, error) {
	if o.ProxyTarget == nil {
		return false, o.revokedErr("setPrototypeOf")
	}
	trap := o.trap("setPrototypeOf")
	if trap == nil {
		return o.ProxyTarget.SetPrototypeOf(proto)
	}
	protoVal := Null
	if proto != nil {
		protoVal = NewObject(proto)
	}
	result, err := trap.Call(NewObject(o.ProxyHandler), []Value{NewObject(o.ProxyTarget), protoVal})
	if err != nil {
		return false, err
	}
	return result.ToBoolean(), nil
}

func (o *Object) proxyIsExtensible() (bool, error) {
	if o.ProxyTarget == nil {
		return false, o.revokedErr("isExtensible")
	}
	trap := o.trap("isExtensible")
	if trap == nil {
		return o.ProxyTarget.IsExtensible()
	}
	result, err := trap.Call(NewObject(o.ProxyHandler), []Value{NewObject(o.ProxyTarget)})
	if err != nil {
		return false, err
	}
	return result.ToBoolean(), nil
}

func (o *Object) proxyPreventExtensions() (bool, error) {
	if o.ProxyTarget == nil {
		return false, o.revokedErr("preventExtensions")
	}
	trap := o.trap("preventExtensions")
	if trap == nil {
		return o.ProxyTarget.PreventExtensions()
	}
	result, err := trap.Call(NewObject(o.ProxyHandler), []Value{NewObject(o.ProxyTarget)})
	if err != nil {
		return false, err
	}
	return result.ToBoolean(), nil
}

func keyToValue(key PropertyKey) Value {
	if key.IsSymbol() {
		return Value{typ: TypeSymbol, sym: key.sym}
	}
	return NewString(key.name)
}

func descriptorToObject(desc PropertyDescriptor) *Object {
	o := NewPlainObject(nil)
	if desc.Value != nil {
		o.DefineDataProperty("value", *desc.Value, true, true, true)
	}
	if desc.Writable != nil {
		o.DefineDataProperty("writable", NewBool(*desc.Writable), true, true, true)
	}
	if desc.Get != nil {
		o.DefineDataProperty("get", *desc.Get, true, true, true)
	}
	if desc.Set != nil {
		o.DefineDataProperty("set", *desc.Set, true, true, true)
	}
	if desc.Enumerable != nil {
		o.DefineDataProperty("enumerable", NewBool(*desc.Enumerable), true, true, true)
	}
	if desc.Configurable != nil {
		o.DefineDataProperty("configurable", NewBool(*desc.Configurable), true, true, true)
	}
	return o
}

// objectToDescriptor is the inverse of descriptorToObject: it reads back a
// descriptor-shaped plain object returned by a getOwnPropertyDescriptor
// trap. Unlike ToPropertyDescriptor (pkg/intrinsics), it only needs to
// round-trip what descriptorToObject itself produces, so it reads own
// properties directly rather than validating an arbitrary object.
func objectToDescriptor(o *Object) PropertyDescriptor {
	var desc PropertyDescriptor
	if o.HasOwn(StringKey("value")) {
		v, _ := o.Get(StringKey("value"), NewObject(o))
		desc.Value = &v
	}
	if o.HasOwn(StringKey("writable")) {
		v, _ := o.Get(StringKey("writable"), NewObject(o))
		b := v.ToBoolean()
		desc.Writable = &b
	}
	if o.HasOwn(StringKey("get")) {
		v, _ := o.Get(StringKey("get"), NewObject(o))
		desc.Get = &v
	}
	if o.HasOwn(StringKey("set")) {
		v, _ := o.Get(StringKey("set"), NewObject(o))
		desc.Set = &v
	}
	if o.HasOwn(StringKey("enumerable")) {
		v, _ := o.Get(StringKey("enumerable"), NewObject(o))
		b := v.ToBoolean()
		desc.Enumerable = &b
	}
	if o.HasOwn(StringKey("configurable")) {
		v, _ := o.Get(StringKey("configurable"), NewObject(o))
		b := v.ToBoolean()
		desc.Configurable = &b
	}
	return desc
}
