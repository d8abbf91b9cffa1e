package runtime

import "sort"

// ObjectKind distinguishes ordinary objects from the exotic kinds whose
// internal methods partially override the ordinary algorithm (spec §4.2,
// §9 "capability vtable"). Rather than a literal vtable of function
// pointers per instance, this core dispatches on Kind inside each
// internal-method implementation below — collapsing the vtable to a
// switch, which is equivalent for a closed, spec-fixed set of exotic
// kinds and avoids an indirection per property access.
type ObjectKind uint8

const (
	KindOrdinary ObjectKind = iota
	KindArray
	KindArguments
	KindFunction
	KindBoundFunction
	KindProxy
	KindTypedArray
	KindArrayBuffer
	KindModuleNamespace
	KindStringExotic // boxed String object: integer-indexed own properties mirror the primitive
)

// CallFn is the uniform shape of [[Call]], implemented identically by
// native functions (Go closures) and user closures (pkg/interpreter
// injects a CallFn that re-enters the AST evaluator). Because both share
// this shape, pkg/runtime and pkg/intrinsics can invoke either without
// knowing which one they hold — the seam that avoids an import cycle
// with pkg/interpreter (see SPEC_FULL.md §2).
type CallFn func(this Value, args []Value) (Value, error)

// ConstructFn is the uniform shape of [[Construct]].
type ConstructFn func(args []Value, newTarget Value) (Value, error)

// Object is the reference type behind every TypeObject Value. It carries
// an insertion-ordered property table, a (possibly nil) prototype, the
// [[Extensible]] flag, an internal-slot bag for exotic subclasses, and
// optional Call/Construct behavior (spec §3 "Object").
type Object struct {
	Kind       ObjectKind
	Class      string // Object.prototype.toString tag: "Array", "Date", "Error", ...
	Prototype  *Object
	Extensible bool

	keys  []PropertyKey
	table map[string]*slot

	Slots map[string]interface{}

	Call           CallFn
	Construct      ConstructFn
	FunctionName   string
	FunctionLength int

	// ProxyTarget/ProxyHandler are populated when Kind == KindProxy.
	ProxyTarget  *Object
	ProxyHandler *Object
}

func NewPlainObject(proto *Object) *Object {
	return &Object{Kind: KindOrdinary, Class: "Object", Prototype: proto, Extensible: true, table: make(map[string]*slot)}
}

func (o *Object) ensureTable() {
	if o.table == nil {
		o.table = make(map[string]*slot)
	}
}

// --- Ordinary internal methods (spec §4.2) ---

func (o *Object) GetOwnProperty(key PropertyKey) (*PropertyDescriptor, error) {
	if o.Kind == KindProxy {
		return o.proxyGetOwnProperty(key)
	}
	if s, ok := o.table[key.hash()]; ok {
		d := s.descriptor()
		return &d, nil
	}
	return nil, nil
}

func (o *Object) HasOwn(key PropertyKey) bool {
	_, ok := o.table[key.hash()]
	return ok
}

// Get implements [[Get]](P, Receiver).
func (o *Object) Get(key PropertyKey, receiver Value) (Value, error) {
	if o.Kind == KindProxy {
		return o.proxyGet(key, receiver)
	}
	if o.Kind == KindArguments {
		if v, ok := o.argumentsGet(key); ok {
			return v, nil
		}
	}
	if o.Kind == KindTypedArray && key.IsString() {
		if idx, ok := canonicalNumericIndex(key.Name()); ok {
			return o.IntegerIndexedElementGet(idx), nil
		}
	}
	if s, ok := o.table[key.hash()]; ok {
		if s.accessor {
			if s.get.IsUndefined() || !s.get.IsCallable() {
				return Undefined, nil
			}
			return s.get.obj.Call(receiver, nil)
		}
		return s.value, nil
	}
	if o.Prototype == nil {
		return Undefined, nil
	}
	return o.Prototype.Get(key, receiver)
}

// Set implements [[Set]](P, V, Receiver). A failed write returns false,
// never a TypeError: strict is only passed on to the prototype's Set and to
// a Proxy, and the caller decides whether false raises (spec §4.2, Array
// exotic truncation rule).
func (o *Object) Set(key PropertyKey, v Value, receiver Value, strict bool) (bool, error) {
	if o.Kind == KindProxy {
		return o.proxySet(key, v, receiver, strict)
	}
	if o.Kind == KindArguments && receiver.typ == TypeObject && receiver.obj == o {
		o.argumentsSet(key, v)
	}
	if o.Kind == KindTypedArray && key.IsString() {
		if idx, ok := canonicalNumericIndex(key.Name()); ok {
			o.IntegerIndexedElementSet(idx, v)
			return true, nil
		}
	}
	if s, ok := o.table[key.hash()]; ok {
		if s.accessor {
			if s.set.IsUndefined() || !s.set.IsCallable() {
				return false, nil
			}
			_, err := s.set.obj.Call(receiver, []Value{v})
			return err == nil, err
		}
		if !s.writable {
			return false, nil
		}
		if receiver.typ == TypeObject && receiver.obj == o {
			s.value = v
			return true, nil
		}
		// Receiver differs from O (e.g. a Proxy forwarding to target):
		// create/overwrite an own property on the receiver instead.
		if receiver.typ != TypeObject {
			return false, nil
		}
		return receiver.obj.DefineOwnProperty(key, DataDescriptor(v, true, true, true))
	}
	if o.Prototype != nil {
		return o.Prototype.Set(key, v, receiver, strict)
	}
	if receiver.typ != TypeObject {
		return false, nil
	}
	if receiver.obj != o {
		return receiver.obj.DefineOwnProperty(key, DataDescriptor(v, true, true, true))
	}
	return o.DefineOwnProperty(key, DataDescriptor(v, true, true, true))
}

func (o *Object) HasProperty(key PropertyKey) (bool, error) {
	if o.Kind == KindProxy {
		return o.proxyHas(key)
	}
	if o.HasOwn(key) {
		return true, nil
	}
	if o.Prototype == nil {
		return false, nil
	}
	return o.Prototype.HasProperty(key)
}

func (o *Object) Delete(key PropertyKey) (bool, error) {
	if o.Kind == KindProxy {
		return o.proxyDelete(key)
	}
	s, ok := o.table[key.hash()]
	if !ok {
		return true, nil
	}
	if !s.configurable {
		return false, nil
	}
	delete(o.table, key.hash())
	for i, k := range o.keys {
		if k.hash() == key.hash() {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	if o.Kind == KindArguments {
		o.deleteMappedArgument(key)
	}
	return true, nil
}

// DefineOwnProperty implements [[DefineOwnProperty]] via the ordinary
// ValidateAndApplyPropertyDescriptor algorithm, collapsed: this core does
// not need partial-update semantics distinct from full replacement for
// the intrinsics it hosts, except where flagged invariants apply.
func (o *Object) DefineOwnProperty(key PropertyKey, desc PropertyDescriptor) (bool, error) {
	if o.Kind == KindArray {
		if ok, handled, err := o.arrayDefineOwnProperty(key, desc); handled {
			return ok, err
		}
	}
	if o.Kind == KindProxy {
		return o.proxyDefineOwnProperty(key, desc)
	}
	o.ensureTable()
	existing, had := o.table[key.hash()]
	if !had {
		if !o.Extensible {
			return false, nil
		}
		s := &slot{key: key, enumerable: false, configurable: false}
		applyDescriptor(s, desc, true)
		o.table[key.hash()] = s
		o.keys = append(o.keys, key)
		return true, nil
	}
	if !existing.configurable {
		if desc.Configurable != nil && *desc.Configurable {
			return false, nil
		}
		if desc.Enumerable != nil && *desc.Enumerable != existing.enumerable {
			return false, nil
		}
		if desc.IsAccessor() != existing.accessor && (desc.IsAccessor() || desc.IsDataDescriptor()) {
			return false, nil
		}
		if !existing.accessor && !existing.writable {
			if desc.Writable != nil && *desc.Writable {
				return false, nil
			}
			if desc.Value != nil && !SameValue(*desc.Value, existing.value) {
				return false, nil
			}
		}
	}
	applyDescriptor(existing, desc, false)
	return true, nil
}

func applyDescriptor(s *slot, desc PropertyDescriptor, isNew bool) {
	if desc.IsAccessor() {
		s.accessor = true
		if desc.Get != nil {
			s.get = *desc.Get
		} else if isNew {
			s.get = Undefined
		}
		if desc.Set != nil {
			s.set = *desc.Set
		} else if isNew {
			s.set = Undefined
		}
	} else if desc.Value != nil || (isNew && !desc.IsAccessor()) {
		s.accessor = false
		if desc.Value != nil {
			s.value = *desc.Value
		} else if isNew {
			s.value = Undefined
		}
	}
	if desc.Writable != nil {
		s.writable = *desc.Writable
	} else if isNew && !s.accessor {
		s.writable = false
	}
	if desc.Enumerable != nil {
		s.enumerable = *desc.Enumerable
	} else if isNew {
		s.enumerable = false
	}
	if desc.Configurable != nil {
		s.configurable = *desc.Configurable
	} else if isNew {
		s.configurable = false
	}
}

// OwnPropertyKeys implements [[OwnPropertyKeys]]: array-index keys
// ascending numerically, then other string keys in insertion order, then
// symbol keys in insertion order (testable property 4, spec §4.2).
func (o *Object) OwnPropertyKeys() ([]PropertyKey, error) {
	if o.Kind == KindProxy {
		return o.proxyOwnKeys()
	}
	var indices []uint32
	var strs []PropertyKey
	var syms []PropertyKey
	for _, k := range o.keys {
		if k.IsSymbol() {
			syms = append(syms, k)
			continue
		}
		if idx, ok := IsArrayIndex(k.Name()); ok {
			indices = append(indices, idx)
			continue
		}
		strs = append(strs, k)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	out := make([]PropertyKey, 0, len(indices)+len(strs)+len(syms))
	for _, idx := range indices {
		out = append(out, StringKey(itoa(idx)))
	}
	out = append(out, strs...)
	out = append(out, syms...)
	return out, nil
}

func itoa(u uint32) string {
	if u == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	return string(buf[i:])
}

func (o *Object) GetPrototypeOf() (*Object, error) {
	if o.Kind == KindProxy {
		return o.proxyGetPrototypeOf()
	}
	return o.Prototype, nil
}

func (o *Object) SetPrototypeOf(proto *Object) (bool, error) {
	if o.Kind == KindProxy {
		return o.proxySetPrototypeOf(proto)
	}
	if o.Prototype == proto {
		return true, nil
	}
	if !o.Extensible {
		return false, nil
	}
	// Cycle check per OrdinarySetPrototypeOf.
	for p := proto; p != nil; p = p.Prototype {
		if p == o {
			return false, nil
		}
		if p.Kind == KindProxy {
			break
		}
	}
	o.Prototype = proto
	return true, nil
}

func (o *Object) IsExtensible() (bool, error) {
	if o.Kind == KindProxy {
		return o.proxyIsExtensible()
	}
	return o.Extensible, nil
}

func (o *Object) PreventExtensions() (bool, error) {
	if o.Kind == KindProxy {
		return o.proxyPreventExtensions()
	}
	o.Extensible = false
	return true, nil
}

// --- Convenience helpers used pervasively by pkg/intrinsics ---

// DefineMethod installs a non-enumerable, writable, configurable data
// property holding a native function — the shape every Foo.prototype.bar
// installation uses (spec §4.3).
func (o *Object) DefineMethod(name string, length int, fn CallFn) {
	f := NewNativeFunction(name, length, fn)
	o.DefineOwnProperty(StringKey(name), DataDescriptor(NewObject(f), true, false, true))
}

func (o *Object) DefineDataProperty(name string, v Value, writable, enumerable, configurable bool) {
	o.DefineOwnProperty(StringKey(name), DataDescriptor(v, writable, enumerable, configurable))
}

func (o *Object) DefineAccessor(name string, get, set Value, enumerable, configurable bool) {
	o.DefineOwnProperty(StringKey(name), AccessorDescriptor(get, set, enumerable, configurable))
}

// NewNativeFunction wraps a Go CallFn as a callable Object (spec §4.3:
// "a callable body, a length, a name, a home realm").
func NewNativeFunction(name string, length int, fn CallFn) *Object {
	o := &Object{Kind: KindFunction, Class: "Function", Extensible: true, table: make(map[string]*slot)}
	o.Call = fn
	o.FunctionName = name
	o.FunctionLength = length
	o.DefineDataProperty("name", NewString(name), false, false, true)
	o.DefineDataProperty("length", NewNumber(float64(length)), false, false, true)
	return o
}
