package runtime

// BodyEvaluator is implemented by pkg/interpreter and injected into every
// Closure so pkg/runtime (and pkg/intrinsics, via plain Object.Call) can
// invoke user-defined function bodies without importing pkg/interpreter —
// the seam that keeps the AST evaluator a one-way dependent of the object
// model instead of a cyclic one. EvalBody receives the already-constructed
// function environment (parameters bound, arguments object installed) and
// returns the function's completion value or a *Throw.
type BodyEvaluator interface {
	EvalBody(closure *Closure, env *Environment, args []Value) (Value, error)
}

// Closure is the internal slot bag backing a KindFunction Object created
// from a FunctionExpression/FunctionDeclaration/ArrowFunctionExpression
// (spec §4.3 "ordinary function object", §4.5 "closures"). It is stored in
// Object.Slots["closure"] rather than as first-class Object fields, since
// native functions (NewNativeFunction) have no need for any of this.
type Closure struct {
	Node        interface{} // *ast.FunctionShape / *ast.ArrowFunctionExpression; opaque to pkg/runtime
	Env         *Environment // defining-scope lexical environment, captured at creation
	ThisMode    ThisMode
	IsGenerator bool
	IsAsync     bool
	Strict      bool
	HomeObject  *Object // [[HomeObject]] for `super` property lookups in methods
	Eval        BodyEvaluator
	Realm       *Realm // set by NewClosure; EvalBody has no other way to reach quota/intrinsics
	Self        *Object // the Object this Closure backs; set by NewClosure for self-reference (arguments.callee, recursion by name)
}

// NewClosure builds a KindFunction Object whose [[Call]] (and, unless
// arrow/generator/async, [[Construct]]) re-enters eval.EvalBody. realm
// supplies FunctionPrototype for the object's own prototype chain.
func NewClosure(realm *Realm, name string, length int, c *Closure) *Object {
	c.Realm = realm
	fn := &Object{Kind: KindFunction, Class: "Function", Extensible: true, table: make(map[string]*slot)}
	fn.Prototype = realm.Intrinsic("FunctionPrototype")
	fn.FunctionName = name
	fn.FunctionLength = length
	fn.Slots = map[string]interface{}{"closure": c}
	fn.DefineDataProperty("name", NewString(name), false, false, true)
	fn.DefineDataProperty("length", NewNumber(float64(length)), false, false, true)
	c.Self = fn

	fn.Call = func(this Value, args []Value) (Value, error) {
		if err := realm.Quota.EnterCall(); err != nil {
			return Undefined, err
		}
		defer realm.Quota.ExitCall()
		callEnv := NewFunctionEnvironment(c.Env, fn, c.ThisMode, Undefined)
		if c.ThisMode != ThisLexical {
			bound := this
			if c.ThisMode == ThisGlobal && bound.IsNullish() {
				bound = NewObject(realm.GlobalObject)
			}
			callEnv.BindThis(bound)
		}
		return c.Eval.EvalBody(c, callEnv, args)
	}

	if !c.IsGenerator && !c.IsAsync && c.ThisMode != ThisLexical {
		protoObj := NewPlainObject(realm.Intrinsic("ObjectPrototype"))
		protoObj.DefineDataProperty("constructor", NewObject(fn), true, false, true)
		fn.DefineDataProperty("prototype", NewObject(protoObj), true, false, false)

		fn.Construct = func(args []Value, newTarget Value) (Value, error) {
			if err := realm.Quota.EnterCall(); err != nil {
				return Undefined, err
			}
			defer realm.Quota.ExitCall()
			protoVal, _ := fn.Get(StringKey("prototype"), NewObject(fn))
			proto := realm.Intrinsic("ObjectPrototype")
			if protoVal.typ == TypeObject {
				proto = protoVal.obj
			}
			instance := NewPlainObject(proto)
			callEnv := NewFunctionEnvironment(c.Env, fn, c.ThisMode, newTarget)
			callEnv.BindThis(NewObject(instance))
			result, err := c.Eval.EvalBody(c, callEnv, args)
			if err != nil {
				return Undefined, err
			}
			if result.typ == TypeObject {
				return result, nil
			}
			return NewObject(instance), nil
		}
	}

	return fn
}

// ClosureOf extracts the Closure slot from a function object built by
// NewClosure, or nil for native/bound functions.
func ClosureOf(fn *Object) *Closure {
	if fn.Slots == nil {
		return nil
	}
	c, _ := fn.Slots["closure"].(*Closure)
	return c
}
