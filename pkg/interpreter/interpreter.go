// Package interpreter is the tree-walking evaluator that turns an
// *ast.Program into running behavior: it implements runtime.BodyEvaluator
// so every Closure built while evaluating a FunctionExpression or
// FunctionDeclaration can re-enter here, and it owns the one error
// boundary where a pkg/runtime RuntimeSignal becomes a thrown, catchable
// Error instance (pkg/runtime has no Realm of its own to build one with).
// The teacher walks bytecode instead of a tree, so there is no direct file
// to port; the execution-context/environment/completion shapes this
// package drives are themselves grounded on pkg/runtime's own doc
// comments (ExecutionContext, Completion, Environment), which describe
// the exact algorithms this package implements.
package interpreter

import (
	"ecmacore/pkg/ast"
	"ecmacore/pkg/intrinsics"
	"ecmacore/pkg/runtime"
)

// Interpreter has no per-run state of its own; every invocation threads
// its state through a *frame instead, so one Interpreter value can serve
// concurrently-evaluated realms.
type Interpreter struct{}

func New() *Interpreter { return &Interpreter{} }

// frame is the tree-walking analog of an ExecutionContext: the lexical
// environment in effect, the strictness and home object for super/this
// resolution, and (when evaluating inside a generator or async function
// body) the generatorFrame yield/await expressions suspend through.
type frame struct {
	realm      *runtime.Realm
	env        *runtime.Environment
	strict     bool
	fn         *runtime.Object // the currently executing function object, nil at top level
	newTarget  runtime.Value
	homeObject *runtime.Object // [[HomeObject]] for `super.prop` / `super()` resolution
	gen        *generatorFrame // non-nil while running a generator/async function body
	labels     []string        // label set attached to the statement about to execute, consumed by execStatement

	// derived-class constructor state, set only on the frame running a
	// subclass constructor body; consulted by evalSuperCall when it
	// encounters a bare `super(...)` call.
	inDerivedCtor bool
	superCtor     runtime.Value
	instanceFields []ast.ClassMember
	classEnv       *runtime.Environment
}

func (f *frame) withEnv(env *runtime.Environment) frame {
	nf := *f
	nf.env = env
	nf.labels = nil
	return nf
}

func (f *frame) ctx() *intrinsics.Context { return &intrinsics.Context{Realm: f.realm} }

// throwSignal converts a pkg/runtime RuntimeSignal (raised by an internal
// method like Set/DefineOwnProperty with no Realm to build a real Error
// from) into a *runtime.Throw of a constructed Error instance. Every
// return point that forwards an error from pkg/runtime or pkg/intrinsics
// to an AST-level caller passes through here first; *runtime.Throw values
// and QuotaExceeded signals (which abort the run rather than being
// catchable script-level exceptions in this core's resource model) pass
// through unchanged.
func (f *frame) throwSignal(err error) error {
	if err == nil {
		return nil
	}
	if sig, ok := err.(*runtime.RuntimeSignal); ok {
		if sig.Kind == "QuotaExceeded" {
			return err
		}
		return runtime.NewThrow(intrinsics.NewErrorInstance(f.realm, sig.Kind, sig.Msg))
	}
	return err
}

// RunProgram evaluates a top-level script body in realm's global
// environment: GlobalDeclarationInstantiation (var/function hoisting into
// realm.GlobalEnv) followed by straight-line statement execution, exactly
// as a <script> element runs (spec §4.5 "Script Evaluation"). The
// program's own completion value (the last non-undefined expression
// statement's value, matching what a REPL or `eval` would echo) is
// returned for embedders that care about it; ordinary module/script hosts
// normally discard it.
func (ip *Interpreter) RunProgram(realm *runtime.Realm, program *ast.Program) (runtime.Value, error) {
	f := &frame{realm: realm, env: realm.GlobalEnv, strict: programIsStrict(program)}
	if err := ip.globalDeclarationInstantiation(f, program.Statements); err != nil {
		return runtime.Undefined, f.throwSignal(err)
	}
	var result runtime.Value
	for _, stmt := range program.Statements {
		if err := realm.Quota.CheckStatement(); err != nil {
			return runtime.Undefined, err
		}
		c, err := ip.exec(f, stmt)
		if err != nil {
			return runtime.Undefined, f.throwSignal(err)
		}
		if !c.Value.IsUndefined() {
			result = c.Value
		}
		if c.IsAbrupt() {
			break
		}
	}
	return result, nil
}

// EvaluateModule runs a module body against moduleEnv (spec §16.2.1.12's
// "InitializeEnvironment" followed by ExecuteModule): module code is always
// strict, and moduleEnv is expected to already carry every import binding
// the module linker wired up (via Environment.CreateImportBinding) before
// this is called. Unlike RunProgram, the completion value is rarely useful
// to a caller — imports/exports are the point of a module graph, not a
// script-style "last expression" result — but it is returned regardless for
// symmetry and for top-level-await's eventual evaluation-order value.
func (ip *Interpreter) EvaluateModule(realm *runtime.Realm, program *ast.Program, moduleEnv *runtime.Environment) (runtime.Value, error) {
	f := &frame{realm: realm, env: moduleEnv, strict: true}
	if err := ip.moduleDeclarationInstantiation(f, program.Statements); err != nil {
		return runtime.Undefined, f.throwSignal(err)
	}
	var result runtime.Value
	for _, stmt := range program.Statements {
		if err := realm.Quota.CheckStatement(); err != nil {
			return runtime.Undefined, err
		}
		c, err := ip.exec(f, stmt)
		if err != nil {
			return runtime.Undefined, f.throwSignal(err)
		}
		if !c.Value.IsUndefined() {
			result = c.Value
		}
		if c.IsAbrupt() {
			break
		}
	}
	return result, nil
}

// EvalBody implements runtime.BodyEvaluator: it is invoked by a Closure's
// [[Call]]/[[Construct]] once the caller has already built the function
// environment and bound `this` (see pkg/runtime/closure.go). It binds
// parameters, installs `arguments`, hoists the body's own var/function
// declarations, and either runs the body to completion (ordinary
// functions) or hands off to the generator/async driver.
func (ip *Interpreter) EvalBody(closure *runtime.Closure, env *runtime.Environment, args []runtime.Value) (runtime.Value, error) {
	realm := closure.Realm
	shape, exprBody := closureShape(closure)
	f := &frame{realm: realm, env: env, strict: closure.Strict, fn: closure.Self, newTarget: env.NewTarget(), homeObject: closure.HomeObject}

	frameName := closure.Self.FunctionName
	var loc ast.SourceLocation
	if shape.Body != nil {
		loc = shape.Body.Loc()
	} else if exprBody != nil {
		loc = exprBody.Loc()
	}
	realm.PushFrame(frameName, loc.Line, loc.Column)
	defer realm.PopFrame()

	if err := ip.bindParams(f, shape.Params, args); err != nil {
		return runtime.Undefined, f.throwSignal(err)
	}
	if closure.ThisMode != runtime.ThisLexical {
		argsObj := ip.makeArguments(f, shape, args)
		if err := env.CreateMutableBinding("arguments", false); err == nil {
			env.InitializeBinding("arguments", runtime.NewObject(argsObj))
		}
	}

	run := func() (runtime.Value, error) {
		if err := ip.functionDeclarationInstantiation(f, shape.Body.Statements); err != nil {
			return runtime.Undefined, err
		}
		if exprBody != nil {
			return ip.eval(f, exprBody)
		}
		return ip.execFunctionBody(f, shape.Body.Statements)
	}

	switch {
	case closure.IsGenerator && closure.IsAsync:
		return ip.startAsyncGenerator(f, run), nil
	case closure.IsGenerator:
		return ip.startGenerator(f, run), nil
	case closure.IsAsync:
		return ip.startAsync(f, run), nil
	default:
		v, err := run()
		return v, f.throwSignal(err)
	}
}

// execFunctionBody runs a function's statement list, translating a
// Return completion into its value and a Throw into a Go error, the two
// ways EvalBody's caller (Closure.Call/Construct) expects a result.
func (ip *Interpreter) execFunctionBody(f *frame, stmts []ast.Statement) (runtime.Value, error) {
	for _, stmt := range stmts {
		if err := f.realm.Quota.CheckStatement(); err != nil {
			return runtime.Undefined, err
		}
		c, err := ip.exec(f, stmt)
		if err != nil {
			return runtime.Undefined, err
		}
		switch c.Kind {
		case runtime.CompletionReturn:
			return c.Value, nil
		case runtime.CompletionBreak, runtime.CompletionContinue:
			return runtime.Undefined, runtime.NewSyntaxErrorValue("Illegal break/continue statement")
		}
	}
	return runtime.Undefined, nil
}

func programIsStrict(p *ast.Program) bool {
	for _, s := range p.Statements {
		if es, ok := s.(*ast.ExpressionStatement); ok {
			if lit, ok := es.Expr.(*ast.StringLiteral); ok {
				if lit.Value == "use strict" {
					return true
				}
				continue
			}
		}
		break
	}
	return false
}
