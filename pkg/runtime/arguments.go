package runtime

// NewMappedArguments builds a mapped Arguments exotic object for a
// non-strict, simple-parameter-list function invocation (spec §4.2
// "Arguments exotic"): numeric indices below the parameter count are
// aliases into the call's environment slots, so writing arg[0] is
// observable as a write to the corresponding parameter and vice versa,
// until a delete of that index severs the alias. Redefining a mapped index
// with DefineOwnProperty leaves the alias in place.
//
// paramNames[i] names the environment binding aliased by index i; env
// is the function's environment record used to read/write that binding.
func NewMappedArguments(proto *Object, args []Value, paramNames []string, env *Environment) *Object {
	o := &Object{Kind: KindArguments, Class: "Arguments", Prototype: proto, Extensible: true, table: make(map[string]*slot)}
	mapped := make(map[string]string, len(paramNames))
	for i, v := range args {
		key := itoa(uint32(i))
		o.DefineDataProperty(key, v, true, true, true)
		if i < len(paramNames) {
			mapped[key] = paramNames[i]
		}
	}
	o.DefineDataProperty("length", NewNumber(float64(len(args))), true, false, true)
	o.Slots = map[string]interface{}{"mappedEnv": env, "mappedNames": mapped}
	return o
}

// NewUnmappedArguments builds the strict-mode / non-simple-parameter-list
// variant: plain own properties with no aliasing.
func NewUnmappedArguments(proto *Object, args []Value) *Object {
	o := &Object{Kind: KindArguments, Class: "Arguments", Prototype: proto, Extensible: true, table: make(map[string]*slot)}
	for i, v := range args {
		o.DefineDataProperty(itoa(uint32(i)), v, true, true, true)
	}
	o.DefineDataProperty("length", NewNumber(float64(len(args))), true, false, true)
	return o
}

func (o *Object) mappedNames() map[string]string {
	if o.Slots == nil {
		return nil
	}
	m, _ := o.Slots["mappedNames"].(map[string]string)
	return m
}

func (o *Object) mappedEnv() *Environment {
	if o.Slots == nil {
		return nil
	}
	e, _ := o.Slots["mappedEnv"].(*Environment)
	return e
}

// argumentsGet/argumentsSet read through the alias before falling back to
// the stored own property, mirroring ordinary [[Get]]/[[Set]] but
// consulting the parameter map first (spec's ArgumentsGet/ArgumentsSet).
func (o *Object) argumentsGet(key PropertyKey) (Value, bool) {
	names := o.mappedNames()
	if names == nil {
		return Undefined, false
	}
	name, ok := names[key.hash()]
	if !ok {
		return Undefined, false
	}
	env := o.mappedEnv()
	v, err := env.GetBindingValue(name, false)
	if err != nil {
		return Undefined, false
	}
	return v, true
}

func (o *Object) argumentsSet(key PropertyKey, v Value) bool {
	names := o.mappedNames()
	if names == nil {
		return false
	}
	name, ok := names[key.hash()]
	if !ok {
		return false
	}
	env := o.mappedEnv()
	return env.SetMutableBinding(name, v, false) == nil
}

// deleteMappedArgument severs the alias for key after an own-property
// delete succeeds, so the mapping no longer observes later writes to the
// deleted index (spec: "the deletion of a mapped property removes the
// corresponding binding from the map").
func (o *Object) deleteMappedArgument(key PropertyKey) {
	names := o.mappedNames()
	if names == nil {
		return
	}
	delete(names, key.hash())
}
