package interpreter

import (
	"ecmacore/pkg/ast"
	"ecmacore/pkg/runtime"
)

// evalClass implements ClassDefinitionEvaluation (spec §8.4.3.3): resolve
// the superclass, build the prototype chain, instantiate the constructor
// as a Closure whose [[Call]]/[[Construct]] are replaced with class-aware
// versions (constructors throw on a plain call, and [[Construct]] must
// apply instance field initializers at the right point relative to
// super()), then install every other member onto either the prototype
// (instance side) or the constructor object itself (static side).
func (ip *Interpreter) evalClass(f *frame, shape *ast.ClassShape) (*runtime.Object, error) {
	classEnv := runtime.NewDeclarativeEnvironment(f.env)
	if shape.Id != nil {
		classEnv.CreateImmutableBinding(shape.Id.Name, false)
	}
	cf := f.withEnv(classEnv)
	cf.strict = true

	superCtor := runtime.Null
	var superProto *runtime.Object
	hasSuper := shape.SuperClass != nil
	if hasSuper {
		sv, err := ip.eval(&cf, shape.SuperClass)
		if err != nil {
			return nil, err
		}
		switch {
		case sv.IsNull():
			superProto = nil
		case sv.Type() == runtime.TypeObject && sv.AsObject().Construct != nil:
			superCtor = sv
			pv, err := sv.AsObject().Get(runtime.StringKey("prototype"), sv)
			if err != nil {
				return nil, cf.throwSignal(err)
			}
			switch {
			case pv.Type() == runtime.TypeObject:
				superProto = pv.AsObject()
			case pv.IsNull():
				superProto = nil
			default:
				return nil, cf.throwSignal(runtime.NewTypeErrorValue("Class extends value does not have valid prototype property"))
			}
		default:
			return nil, cf.throwSignal(runtime.NewTypeErrorValue("Class extends value is not a constructor"))
		}
	} else {
		superProto = f.realm.Intrinsic("ObjectPrototype")
	}

	proto := runtime.NewPlainObject(superProto)

	var ctorShape *ast.FunctionShape
	var instanceFields, staticFields, staticBlocks, instanceMembers, staticMembers []ast.ClassMember
	for _, m := range shape.Body {
		switch {
		case m.Kind == ast.ClassConstructor:
			ctorShape = m.Value.(*ast.FunctionExpression).FunctionShape
		case m.Kind == ast.ClassStaticBlock:
			staticBlocks = append(staticBlocks, m)
		case m.Static && m.Kind == ast.ClassField:
			staticFields = append(staticFields, m)
		case !m.Static && m.Kind == ast.ClassField:
			instanceFields = append(instanceFields, m)
		case m.Static:
			staticMembers = append(staticMembers, m)
		default:
			instanceMembers = append(instanceMembers, m)
		}
	}
	if ctorShape == nil {
		ctorShape = defaultConstructorShape(hasSuper)
	}

	name := ""
	if shape.Id != nil {
		name = shape.Id.Name
	}

	c := &runtime.Closure{
		Node:       ctorShape,
		Env:        classEnv,
		ThisMode:   runtime.ThisStrict,
		Strict:     true,
		HomeObject: proto,
		Eval:       ip,
	}
	fn := runtime.NewClosure(f.realm, name, countFunctionLength(ctorShape.Params), c)
	fn.DefineDataProperty("prototype", runtime.NewObject(proto), false, false, false)
	proto.DefineDataProperty("constructor", runtime.NewObject(fn), true, false, true)
	if hasSuper && superCtor.Type() == runtime.TypeObject {
		// static members/methods are inherited from the superclass
		// constructor itself (spec: constructorParent = superclass);
		// `extends null` leaves %Function.prototype% as-is instead.
		fn.Prototype = superCtor.AsObject()
	}
	fn.Call = func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Undefined, runtime.NewTypeErrorValue("Class constructor " + name + " cannot be invoked without 'new'")
	}
	fn.Construct = ip.classConstructFn(&cf, fn, proto, ctorShape, superCtor, hasSuper, instanceFields, classEnv)

	if shape.Id != nil {
		classEnv.InitializeBinding(shape.Id.Name, runtime.NewObject(fn))
	}

	for _, m := range instanceMembers {
		if err := ip.installClassMember(&cf, proto, m, proto); err != nil {
			return nil, err
		}
	}

	staticFrame := cf
	staticFrame.homeObject = fn
	for _, m := range staticMembers {
		if err := ip.installClassMember(&staticFrame, fn, m, fn); err != nil {
			return nil, err
		}
	}
	for _, m := range staticFields {
		sf := staticFrame
		sf.env = runtime.NewFunctionEnvironment(classEnv, fn, runtime.ThisStrict, runtime.Undefined)
		sf.env.BindThis(runtime.NewObject(fn))
		key, err := ip.propertyKeyOf(&sf, m.Key, m.Computed)
		if err != nil {
			return nil, err
		}
		v := runtime.Undefined
		if m.Value != nil {
			v, err = ip.eval(&sf, m.Value)
			if err != nil {
				return nil, err
			}
		}
		nameAnonymousFunction(v, key.String())
		fn.DefineOwnProperty(key, runtime.DataDescriptor(v, true, !m.Private, true))
	}
	for _, m := range staticBlocks {
		body := m.Value.(*ast.FunctionExpression).FunctionShape.Body
		sf := staticFrame
		sf.env = runtime.NewFunctionEnvironment(classEnv, fn, runtime.ThisStrict, runtime.Undefined)
		sf.env.BindThis(runtime.NewObject(fn))
		if err := ip.functionDeclarationInstantiation(&sf, body.Statements); err != nil {
			return nil, sf.throwSignal(err)
		}
		if _, err := ip.execFunctionBody(&sf, body.Statements); err != nil {
			return nil, sf.throwSignal(err)
		}
	}

	return fn, nil
}

// installClassMember installs a (possibly computed/private-keyed) method,
// getter, or setter onto target (the prototype for instance members, the
// constructor object itself for static ones), merging with an
// already-defined accessor of the opposite kind on the same key exactly
// as a class body's get/set pair is spec-required to share one property.
func (ip *Interpreter) installClassMember(f *frame, target *runtime.Object, m ast.ClassMember, homeObject *runtime.Object) error {
	key, err := ip.propertyKeyOf(f, m.Key, m.Computed)
	if err != nil {
		return err
	}
	fe, ok := m.Value.(*ast.FunctionExpression)
	if !ok {
		return runtime.NewSyntaxErrorValue("invalid class member")
	}
	mf := *f
	mf.homeObject = homeObject
	fn := ip.makeFunction(&mf, fe.FunctionShape, false, nil)
	switch m.Kind {
	case ast.ClassGetter:
		existing, gerr := target.GetOwnProperty(key)
		if gerr != nil {
			return gerr
		}
		setVal := runtime.Undefined
		if existing != nil && existing.Set != nil {
			setVal = *existing.Set
		}
		_, err = target.DefineOwnProperty(key, runtime.AccessorDescriptor(runtime.NewObject(fn), setVal, false, true))
	case ast.ClassSetter:
		existing, gerr := target.GetOwnProperty(key)
		if gerr != nil {
			return gerr
		}
		getVal := runtime.Undefined
		if existing != nil && existing.Get != nil {
			getVal = *existing.Get
		}
		_, err = target.DefineOwnProperty(key, runtime.AccessorDescriptor(getVal, runtime.NewObject(fn), false, true))
	default:
		_, err = target.DefineOwnProperty(key, runtime.DataDescriptor(runtime.NewObject(fn), true, false, true))
	}
	return err
}

// classConstructFn builds the class's [[Construct]]: a base class creates
// its instance and applies field initializers immediately, while a
// derived class leaves `this` unbound until the constructor body's own
// super(...) call (evalSuperCall) constructs the parent instance and
// applies field initializers right after, matching spec's ordering
// requirement that instance fields run only once `this` exists.
func (ip *Interpreter) classConstructFn(cf *frame, fn, proto *runtime.Object, ctorShape *ast.FunctionShape, superCtor runtime.Value, hasSuper bool, instanceFields []ast.ClassMember, classEnv *runtime.Environment) runtime.ConstructFn {
	return func(args []runtime.Value, newTarget runtime.Value) (runtime.Value, error) {
		instProto := proto
		if newTarget.Type() == runtime.TypeObject {
			if pv, err := newTarget.AsObject().Get(runtime.StringKey("prototype"), newTarget); err == nil && pv.Type() == runtime.TypeObject {
				instProto = pv.AsObject()
			}
		}
		callEnv := runtime.NewFunctionEnvironment(classEnv, fn, runtime.ThisStrict, newTarget)
		ff := frame{
			realm: cf.realm, env: callEnv, strict: true, fn: fn, newTarget: newTarget,
			homeObject: proto, inDerivedCtor: hasSuper, superCtor: superCtor,
			instanceFields: instanceFields, classEnv: classEnv,
		}
		if !hasSuper {
			instance := runtime.NewPlainObject(instProto)
			if err := callEnv.BindThis(runtime.NewObject(instance)); err != nil {
				return runtime.Undefined, ff.throwSignal(err)
			}
			if err := ip.initInstanceFields(&ff, instance, instanceFields, classEnv, proto); err != nil {
				return runtime.Undefined, err
			}
		}
		if err := ip.bindParams(&ff, ctorShape.Params, args); err != nil {
			return runtime.Undefined, ff.throwSignal(err)
		}
		argsObj := ip.makeArguments(&ff, ctorShape, args)
		if err := callEnv.CreateMutableBinding("arguments", false); err == nil {
			callEnv.InitializeBinding("arguments", runtime.NewObject(argsObj))
		}
		if err := ip.functionDeclarationInstantiation(&ff, ctorShape.Body.Statements); err != nil {
			return runtime.Undefined, ff.throwSignal(err)
		}
		result, err := ip.execFunctionBody(&ff, ctorShape.Body.Statements)
		if err != nil {
			return runtime.Undefined, ff.throwSignal(err)
		}
		if result.Type() == runtime.TypeObject {
			return result, nil
		}
		thisVal, err := callEnv.GetThisBinding()
		if err != nil {
			return runtime.Undefined, ff.throwSignal(err)
		}
		return thisVal, nil
	}
}

// initInstanceFields runs each field initializer with `this` bound to
// instance (spec "InitializeInstanceElements"), defining the result as an
// own enumerable property — except private fields, which are defined
// non-enumerable as this core's approximation of brand-checked privacy
// (see DESIGN.md).
func (ip *Interpreter) initInstanceFields(f *frame, instance *runtime.Object, fields []ast.ClassMember, classEnv *runtime.Environment, proto *runtime.Object) error {
	for _, m := range fields {
		fieldEnv := runtime.NewFunctionEnvironment(classEnv, nil, runtime.ThisStrict, runtime.Undefined)
		fieldEnv.BindThis(runtime.NewObject(instance))
		ff := frame{realm: f.realm, env: fieldEnv, strict: true, homeObject: proto}
		key, err := ip.propertyKeyOf(&ff, m.Key, m.Computed)
		if err != nil {
			return err
		}
		v := runtime.Undefined
		if m.Value != nil {
			v, err = ip.eval(&ff, m.Value)
			if err != nil {
				return err
			}
		}
		nameAnonymousFunction(v, key.String())
		if _, err := instance.DefineOwnProperty(key, runtime.DataDescriptor(v, true, !m.Private, true)); err != nil {
			return ff.throwSignal(err)
		}
	}
	return nil
}

// evalSuperCall implements the bare `super(...)` call at the head of a
// derived class constructor: construct the parent, bind the result as
// `this` for the rest of this constructor invocation, then run this
// class's own instance field initializers (spec requires them to run
// immediately after super() returns, not at instance-creation time, since
// a derived class creates no instance of its own).
func (ip *Interpreter) evalSuperCall(f *frame, e *ast.CallExpression) (runtime.Value, error) {
	if !f.inDerivedCtor {
		return runtime.Undefined, f.throwSignal(runtime.NewSyntaxErrorValue("'super' keyword is only valid inside a derived class constructor"))
	}
	if f.superCtor.Type() != runtime.TypeObject || f.superCtor.AsObject().Construct == nil {
		return runtime.Undefined, f.throwSignal(runtime.NewTypeErrorValue("Super constructor is not a constructor"))
	}
	args, err := ip.evalArguments(f, e.Arguments)
	if err != nil {
		return runtime.Undefined, err
	}
	newTarget := f.env.NewTarget()
	result, err := runtime.Construct(f.superCtor, args, newTarget)
	if err != nil {
		return runtime.Undefined, err
	}
	if result.Type() != runtime.TypeObject {
		return runtime.Undefined, f.throwSignal(runtime.NewTypeErrorValue("Derived constructor returned a non-object"))
	}
	fnEnv := funcEnvOf(f.env)
	if err := fnEnv.BindThis(result); err != nil {
		return runtime.Undefined, f.throwSignal(err)
	}
	if err := ip.initInstanceFields(f, result.AsObject(), f.instanceFields, f.classEnv, f.homeObject); err != nil {
		return runtime.Undefined, err
	}
	return result, nil
}

// funcEnvOf walks to the nearest enclosing Function environment record,
// the one whose thisBound flag evalSuperCall must set (mirrors
// Environment.NewTarget's own walk, since BindThis is only meaningful on
// the record that actually owns the this-binding slot).
func funcEnvOf(env *runtime.Environment) *runtime.Environment {
	for e := env; e != nil; e = e.Outer {
		if e.Kind == runtime.KindFunctionEnv {
			return e
		}
	}
	return env
}

// defaultConstructorShape synthesizes the implicit constructor a class
// body omitting one still needs (spec "DefaultConstructor"): a derived
// class forwards every argument to super(...), a base class does nothing.
func defaultConstructorShape(hasSuper bool) *ast.FunctionShape {
	body := &ast.BlockStatement{}
	var params []ast.Pattern
	if hasSuper {
		argsId := &ast.Identifier{Name: "args"}
		params = []ast.Pattern{&ast.RestElement{Argument: argsId}}
		body.Statements = []ast.Statement{
			&ast.ExpressionStatement{Expr: &ast.CallExpression{
				Callee:    &ast.SuperExpression{},
				Arguments: []ast.CallArgument{{Expr: argsId, Spread: true}},
			}},
		}
	}
	return &ast.FunctionShape{Params: params, Body: body, Strict: true}
}
