package runtime

// EnvironmentKind distinguishes the five environment record flavors (spec
// §4.4). Declarative/Object/Function/Global/Module share the same
// HasBinding/CreateMutableBinding/CreateImmutableBinding/InitializeBinding/
// SetMutableBinding/GetBindingValue/DeleteBinding/HasThisBinding surface;
// Kind selects which algorithm each method runs.
type EnvironmentKind uint8

const (
	KindDeclarative EnvironmentKind = iota
	KindObject
	KindFunctionEnv
	KindGlobal
	KindModule
)

type binding struct {
	value       Value
	mutable     bool
	initialized bool // false while in the temporal dead zone
	deletable   bool
	strict      bool
}

// Environment is a single environment record plus its Outer pointer,
// forming the lexical environment chain (spec §4.4). Function and Global
// kinds layer a declarative component (bindings) over an Object component
// (objectRecord) exactly as spec.md composes them.
type Environment struct {
	Kind  EnvironmentKind
	Outer *Environment

	bindings map[string]*binding

	// Object/Global environment component: bindings live as properties of
	// objectRecord (e.g. the global object, or a `with` statement's object).
	objectRecord  *Object
	withEnv       bool // true only for `with` object environments (unscopables check applies)
	varNames      map[string]bool // Global record's VarNames set
	globalObj     *Object         // Global record's [[GlobalThisValue]] / [[ObjectRecord]] binding object

	// Function environment component (spec §4.4 "Function Environment Record").
	thisValue     Value
	thisBound     bool
	thisMode      ThisMode
	functionObj   *Object
	newTarget     Value

	// Module environment component: indirect bindings resolve through a
	// target environment/name pair rather than storing a local value.
	indirect map[string]indirectBinding
}

type ThisMode uint8

const (
	ThisLexical ThisMode = iota // arrow functions: no own this binding
	ThisStrict
	ThisGlobal // sloppy-mode functions: undefined this coerces to the global object
)

type indirectBinding struct {
	targetEnv *Environment
	name      string
}

func NewDeclarativeEnvironment(outer *Environment) *Environment {
	return &Environment{Kind: KindDeclarative, Outer: outer, bindings: make(map[string]*binding)}
}

// NewObjectEnvironment wraps bindingObject so its properties are visible as
// bindings (used for `with` statements and, via NewGlobalEnvironment, the
// global object itself).
func NewObjectEnvironment(bindingObject *Object, withEnv bool, outer *Environment) *Environment {
	return &Environment{Kind: KindObject, Outer: outer, objectRecord: bindingObject, withEnv: withEnv}
}

// NewGlobalEnvironment builds the Global Environment Record: an object
// record over globalObj plus a declarative record for let/const/class
// declarations at global scope, and the VarNames bookkeeping set used by
// CanDeclareGlobalVar/CanDeclareGlobalFunction (spec §4.4 "Global
// Environment Record").
func NewGlobalEnvironment(globalObj *Object) *Environment {
	return &Environment{
		Kind:         KindGlobal,
		bindings:     make(map[string]*binding),
		objectRecord: globalObj,
		globalObj:    globalObj,
		varNames:     make(map[string]bool),
	}
}

// NewFunctionEnvironment builds the Function Environment Record for one
// invocation: a declarative record for parameters/locals plus the this
// binding, uninitialized for derived-class constructors until super() runs.
func NewFunctionEnvironment(outer *Environment, fn *Object, mode ThisMode, newTarget Value) *Environment {
	e := &Environment{
		Kind:        KindFunctionEnv,
		Outer:       outer,
		bindings:    make(map[string]*binding),
		functionObj: fn,
		thisMode:    mode,
		newTarget:   newTarget,
	}
	if mode == ThisLexical {
		e.thisBound = true // arrows never independently bind `this`; lookups delegate to Outer
	}
	return e
}

// NewTarget returns the [[NewTarget]] value captured by the nearest
// enclosing Function environment record, or Undefined outside one.
// pkg/interpreter uses this to resolve `new.target` and to decide whether
// a `super(...)` call site is reachable.
func (e *Environment) NewTarget() Value {
	for env := e; env != nil; env = env.Outer {
		if env.Kind == KindFunctionEnv {
			return env.newTarget
		}
	}
	return Undefined
}

func NewModuleEnvironment(outer *Environment) *Environment {
	return &Environment{Kind: KindModule, Outer: outer, bindings: make(map[string]*binding), indirect: make(map[string]indirectBinding)}
}

func (e *Environment) HasBinding(name string) (bool, error) {
	if e.Kind == KindGlobal {
		if e.bindings != nil {
			if _, ok := e.bindings[name]; ok {
				return true, nil
			}
		}
	}
	if e.Kind == KindObject || e.Kind == KindGlobal {
		has, err := e.objectRecord.HasProperty(StringKey(name))
		if err != nil || has {
			if has && e.withEnv {
				if unscopables, _ := e.objectRecord.Get(StringKey("@@unscopables"), NewObject(e.objectRecord)); unscopables.typ == TypeObject {
					if blocked, _ := unscopables.obj.Get(StringKey(name), unscopables); blocked.ToBoolean() {
						return false, nil
					}
				}
			}
			return has, err
		}
	}
	if e.bindings != nil {
		if _, ok := e.bindings[name]; ok {
			return true, nil
		}
	}
	if _, ok := e.indirect[name]; ok {
		return true, nil
	}
	return false, nil
}

func (e *Environment) CreateMutableBinding(name string, deletable bool) error {
	if e.Kind == KindObject || e.Kind == KindGlobal {
		_, err := e.objectRecord.DefineOwnProperty(StringKey(name), DataDescriptor(Undefined, true, true, deletable))
		return err
	}
	if e.bindings == nil {
		e.bindings = make(map[string]*binding)
	}
	e.bindings[name] = &binding{mutable: true, initialized: false, deletable: deletable}
	return nil
}

func (e *Environment) CreateImmutableBinding(name string, strict bool) error {
	if e.bindings == nil {
		e.bindings = make(map[string]*binding)
	}
	e.bindings[name] = &binding{mutable: false, initialized: false, strict: strict}
	return nil
}

func (e *Environment) InitializeBinding(name string, v Value) error {
	if e.Kind == KindObject || e.Kind == KindGlobal {
		if e.bindings != nil {
			if b, ok := e.bindings[name]; ok {
				b.value = v
				b.initialized = true
				return nil
			}
		}
		_, err := e.objectRecord.Set(StringKey(name), v, NewObject(e.objectRecord), false)
		return err
	}
	b, ok := e.bindings[name]
	if !ok {
		return NewReferenceErrorValue(name + " is not defined")
	}
	b.value = v
	b.initialized = true
	return nil
}

// SetMutableBinding implements the ordinary + Global-record algorithm:
// writing an uninitialized binding raises ReferenceError ("temporal dead
// zone"), writing a missing binding in strict mode raises ReferenceError,
// and writing an immutable binding raises TypeError when the write is
// strict or the binding was created strict, and is ignored otherwise.
func (e *Environment) SetMutableBinding(name string, v Value, strict bool) error {
	if e.Kind == KindObject || e.Kind == KindGlobal {
		if e.bindings != nil {
			if b, ok := e.bindings[name]; ok {
				return e.setDeclarative(b, name, v, strict)
			}
		}
		has, err := e.objectRecord.HasProperty(StringKey(name))
		if err != nil {
			return err
		}
		if !has && strict {
			return NewReferenceErrorValue(name + " is not defined")
		}
		ok, err := e.objectRecord.Set(StringKey(name), v, NewObject(e.objectRecord), strict)
		if err == nil && !ok && strict {
			return NewTypeErrorValue("Cannot assign to read only property '" + name + "'")
		}
		return err
	}
	if ib, ok := e.indirect[name]; ok {
		return ib.targetEnv.SetMutableBinding(ib.name, v, strict)
	}
	b, ok := e.bindings[name]
	if !ok {
		if strict {
			return NewReferenceErrorValue(name + " is not defined")
		}
		return e.globalFallback().SetMutableBinding(name, v, false)
	}
	return e.setDeclarative(b, name, v, strict)
}

func (e *Environment) setDeclarative(b *binding, name string, v Value, strict bool) error {
	if !b.initialized {
		return NewReferenceErrorValue("Cannot access '" + name + "' before initialization")
	}
	if !b.mutable {
		if strict || b.strict {
			return NewTypeErrorValue("Assignment to constant variable.")
		}
		return nil
	}
	b.value = v
	return nil
}

// globalFallback locates the nearest Global record up the chain so an
// undeclared, non-strict assignment can implicitly create a global
// property (spec: sloppy-mode "implicit global" assignment).
func (e *Environment) globalFallback() *Environment {
	env := e
	for env.Outer != nil {
		env = env.Outer
	}
	return env
}

func (e *Environment) GetBindingValue(name string, strict bool) (Value, error) {
	if e.Kind == KindObject || e.Kind == KindGlobal {
		if e.bindings != nil {
			if b, ok := e.bindings[name]; ok {
				if !b.initialized {
					return Undefined, NewReferenceErrorValue("Cannot access '" + name + "' before initialization")
				}
				return b.value, nil
			}
		}
		has, err := e.objectRecord.HasProperty(StringKey(name))
		if err != nil {
			return Undefined, err
		}
		if !has {
			if strict {
				return Undefined, NewReferenceErrorValue(name + " is not defined")
			}
			return Undefined, nil
		}
		return e.objectRecord.Get(StringKey(name), NewObject(e.objectRecord))
	}
	if ib, ok := e.indirect[name]; ok {
		return ib.targetEnv.GetBindingValue(ib.name, true)
	}
	b, ok := e.bindings[name]
	if !ok {
		return Undefined, NewReferenceErrorValue(name + " is not defined")
	}
	if !b.initialized {
		return Undefined, NewReferenceErrorValue("Cannot access '" + name + "' before initialization")
	}
	return b.value, nil
}

func (e *Environment) DeleteBinding(name string) (bool, error) {
	if e.Kind == KindObject || e.Kind == KindGlobal {
		if e.Kind == KindGlobal {
			delete(e.varNames, name)
		}
		return e.objectRecord.Delete(StringKey(name))
	}
	b, ok := e.bindings[name]
	if !ok {
		return true, nil
	}
	if !b.deletable {
		return false, nil
	}
	delete(e.bindings, name)
	return true, nil
}

// HasThisBinding reports whether this environment record directly
// supplies `this` (spec: Function records with ThisMode != lexical, and
// Global/Module records always do).
func (e *Environment) HasThisBinding() bool {
	switch e.Kind {
	case KindGlobal, KindModule:
		return true
	case KindFunctionEnv:
		return e.thisMode != ThisLexical
	default:
		return false
	}
}

// GetThisBinding resolves `this` by walking Outer for arrow/lexical
// environments that delegate (spec "GetThisEnvironment").
func (e *Environment) GetThisBinding() (Value, error) {
	env := e
	for env != nil && !env.HasThisBinding() {
		env = env.Outer
	}
	if env == nil {
		return Undefined, NewReferenceErrorValue("this is not defined")
	}
	if env.Kind == KindGlobal {
		return NewObject(env.globalObj), nil
	}
	if !env.thisBound {
		return Undefined, NewReferenceErrorValue("must call super constructor before accessing 'this' in a derived class constructor")
	}
	return env.thisValue, nil
}

// BindThis initializes the this binding of a Function environment record
// (ordinary function invocation, or super() completing in a derived
// constructor).
func (e *Environment) BindThis(v Value) error {
	if e.thisBound {
		return NewReferenceErrorValue("Super constructor may only be called once")
	}
	e.thisValue = v
	e.thisBound = true
	return nil
}

// --- Global record algorithms (spec §4.4 "Global Environment Record") ---

// CanDeclareGlobalVar reports whether a `var` declaration named name may
// proceed: true when the global object already has an own property of that
// name, otherwise whether the global object is extensible.
func (e *Environment) CanDeclareGlobalVar(name string) (bool, error) {
	has := e.globalObj.HasOwn(StringKey(name))
	if has {
		return true, nil
	}
	return e.globalObj.IsExtensible()
}

// CanDeclareGlobalFunction implements the stricter function-hoisting check:
// an existing non-configurable property must additionally be a writable,
// enumerable data property, or declaration fails (spec: function bindings
// are "more demanding" than plain vars).
func (e *Environment) CanDeclareGlobalFunction(name string) (bool, error) {
	desc, err := e.globalObj.GetOwnProperty(StringKey(name))
	if err != nil {
		return false, err
	}
	if desc == nil {
		return e.globalObj.IsExtensible()
	}
	if desc.Configurable != nil && *desc.Configurable {
		return true, nil
	}
	if desc.IsDataDescriptor() && desc.Writable != nil && *desc.Writable && desc.Enumerable != nil && *desc.Enumerable {
		return true, nil
	}
	return false, nil
}

// HasRestrictedGlobalProperty reports a non-configurable own property on
// the global object, which blocks `let`/`const`/`class` redeclaration of
// the same name at global scope (spec §4.4).
func (e *Environment) HasRestrictedGlobalProperty(name string) (bool, error) {
	desc, err := e.globalObj.GetOwnProperty(StringKey(name))
	if err != nil {
		return false, err
	}
	if desc == nil {
		return false, nil
	}
	return desc.Configurable == nil || !*desc.Configurable, nil
}

// CreateGlobalVarBinding and CreateGlobalFunctionBinding install a var/
// function-hoisted binding as a property of the global object and record
// it in VarNames, per the Global record's CreateGlobalVarBinding /
// CreateGlobalFunctionBinding algorithms.
func (e *Environment) CreateGlobalVarBinding(name string, deletable bool) error {
	hasProp := e.globalObj.HasOwn(StringKey(name))
	extensible, err := e.globalObj.IsExtensible()
	if err != nil {
		return err
	}
	if !hasProp && extensible {
		if _, err := e.globalObj.DefineOwnProperty(StringKey(name), DataDescriptor(Undefined, true, true, deletable)); err != nil {
			return err
		}
	}
	e.varNames[name] = true
	return nil
}

func (e *Environment) CreateGlobalFunctionBinding(name string, v Value, deletable bool) error {
	existing, err := e.globalObj.GetOwnProperty(StringKey(name))
	if err != nil {
		return err
	}
	desc := DataDescriptor(v, true, true, deletable)
	if existing == nil || (existing.Configurable != nil && *existing.Configurable) {
		if _, err := e.globalObj.DefineOwnProperty(StringKey(name), desc); err != nil {
			return err
		}
	} else {
		if _, err := e.globalObj.Set(StringKey(name), v, NewObject(e.globalObj), false); err != nil {
			return err
		}
	}
	e.varNames[name] = true
	return nil
}

// CreateImportBinding installs a module-environment indirect binding
// (spec: "Create Import Binding") resolving through targetEnv/targetName
// rather than storing a local copy — live bindings observe the exporting
// module's later mutations.
func (e *Environment) CreateImportBinding(name string, targetEnv *Environment, targetName string) {
	if e.indirect == nil {
		e.indirect = make(map[string]indirectBinding)
	}
	e.indirect[name] = indirectBinding{targetEnv: targetEnv, name: targetName}
}
