package interpreter

import (
	"strconv"

	"ecmacore/pkg/ast"
	"ecmacore/pkg/runtime"
)

// makeFunction builds the Closure-backed Object for a function/arrow
// expression or declaration (spec "InstantiateOrdinaryFunctionObject" /
// "InstantiateArrowFunctionExpression"): the environment in effect right
// now becomes the closure's captured defining scope, and arrows get
// ThisLexical so `this`/`arguments`/`new.target`/`super` all delegate to
// the enclosing non-arrow scope instead of binding their own.
func (ip *Interpreter) makeFunction(f *frame, shape *ast.FunctionShape, isArrow bool, arrowExprBody ast.Expression) *runtime.Object {
	return ip.makeFunctionNamed(f, shape, isArrow, arrowExprBody, false)
}

// makeNamedFunctionExpression is makeFunction for a *ast.FunctionExpression
// specifically, giving the closure its own self-referencing scope (spec
// "NamedEvaluation"/§8.3.3 for function expressions): the function's own
// name becomes an immutable binding visible only inside the body, distinct
// from whatever mutable outer binding (if any) the expression's value was
// assigned to. Declarations skip this — their name is already the outer,
// reassignable binding recursion should see.
func (ip *Interpreter) makeNamedFunctionExpression(f *frame, shape *ast.FunctionShape) *runtime.Object {
	return ip.makeFunctionNamed(f, shape, false, nil, true)
}

func (ip *Interpreter) makeFunctionNamed(f *frame, shape *ast.FunctionShape, isArrow bool, arrowExprBody ast.Expression, selfBind bool) *runtime.Object {
	mode := runtime.ThisStrict
	if isArrow {
		mode = runtime.ThisLexical
	} else if !shape.Strict && !f.strict {
		mode = runtime.ThisGlobal
	}
	name := ""
	if shape.Id != nil {
		name = shape.Id.Name
	}
	var node interface{} = shape
	if isArrow {
		node = &ast.ArrowFunctionExpression{FunctionShape: shape, ExpressionBody: arrowExprBody}
	}
	closureEnv := f.env
	if shape.Id != nil && selfBind {
		closureEnv = runtime.NewDeclarativeEnvironment(f.env)
	}
	c := &runtime.Closure{
		Node:        node,
		Env:         closureEnv,
		ThisMode:    mode,
		IsGenerator: shape.IsGenerator,
		IsAsync:     shape.IsAsync,
		Strict:      shape.Strict || f.strict,
		HomeObject:  f.homeObject,
		Eval:        ip,
	}
	fn := runtime.NewClosure(f.realm, name, countFunctionLength(shape.Params), c)
	if shape.Id != nil && selfBind {
		closureEnv.CreateImmutableBinding(name, false)
		closureEnv.InitializeBinding(name, runtime.NewObject(fn))
	}
	return fn
}

// countFunctionLength implements the `length` property rule: the count of
// leading simple parameters before the first default value or rest element.
func countFunctionLength(params []ast.Pattern) int {
	n := 0
	for _, p := range params {
		switch p.(type) {
		case *ast.AssignmentPattern, *ast.RestElement:
			return n
		}
		n++
	}
	return n
}

// hasSimpleParams reports whether params is eligible for a mapped
// arguments object: every parameter a bare identifier, no defaults, no
// rest, no destructuring (spec "IsSimpleParameterList").
func hasSimpleParams(params []ast.Pattern) bool {
	for _, p := range params {
		if _, ok := p.(*ast.Identifier); !ok {
			return false
		}
	}
	return true
}

// bindParams implements FunctionDeclarationInstantiation's parameter
// binding step: each parameter pattern is destructured against the
// corresponding argument (spec "IteratorBindingInitialization" applied to
// a plain argument list rather than an iterable), left-to-right, so
// earlier parameters are visible as defaults for later ones.
func (ip *Interpreter) bindParams(f *frame, params []ast.Pattern, args []runtime.Value) error {
	for i, p := range params {
		if rest, ok := p.(*ast.RestElement); ok {
			var tail []runtime.Value
			if i < len(args) {
				tail = append(tail, args[i:]...)
			}
			arr := runtime.NewArray(f.realm.Intrinsic("ArrayPrototype"), uint32(len(tail)))
			for j, v := range tail {
				arr.Set(runtime.StringKey(strconv.Itoa(j)), v, runtime.NewObject(arr), true)
			}
			if err := ip.declareParam(f, rest.Argument); err != nil {
				return err
			}
			if err := ip.bindPattern(f, rest.Argument, runtime.NewObject(arr), ast.KindLet); err != nil {
				return err
			}
			continue
		}
		v := runtime.Undefined
		if i < len(args) {
			v = args[i]
		}
		if err := ip.declareParam(f, p); err != nil {
			return err
		}
		if err := ip.bindPattern(f, p, v, ast.KindLet); err != nil {
			return err
		}
	}
	return nil
}

// declareParam pre-creates a mutable binding for every name a parameter
// pattern introduces, since bindPattern's KindLet path calls
// InitializeBinding (which requires the binding already exist).
func (ip *Interpreter) declareParam(f *frame, p ast.Pattern) error {
	for _, name := range patternNames(p) {
		has, _ := f.env.HasBinding(name)
		if has {
			continue
		}
		if err := f.env.CreateMutableBinding(name, false); err != nil {
			return err
		}
	}
	return nil
}

// makeArguments builds the function's `arguments` object: mapped (aliased
// to the parameter bindings) for non-strict functions with a simple
// parameter list, unmapped otherwise (spec §4.2 "Arguments exotic").
func (ip *Interpreter) makeArguments(f *frame, shape *ast.FunctionShape, args []runtime.Value) *runtime.Object {
	proto := f.realm.Intrinsic("ObjectPrototype")
	if !f.strict && hasSimpleParams(shape.Params) {
		names := make([]string, len(shape.Params))
		for i, p := range shape.Params {
			if id, ok := p.(*ast.Identifier); ok {
				names[i] = id.Name
			}
		}
		return runtime.NewMappedArguments(proto, args, names, f.env)
	}
	return runtime.NewUnmappedArguments(proto, args)
}

// closureShape recovers the FunctionShape (and, for a concise-body arrow,
// its expression body) a Closure was built from, since Closure.Node is
// declared as an opaque interface{} to keep pkg/runtime independent of
// pkg/ast.
func closureShape(closure *runtime.Closure) (*ast.FunctionShape, ast.Expression) {
	switch n := closure.Node.(type) {
	case *ast.FunctionShape:
		return n, nil
	case *ast.ArrowFunctionExpression:
		return n.FunctionShape, n.ExpressionBody
	default:
		panic("interpreter: closure built from unrecognized node type")
	}
}
