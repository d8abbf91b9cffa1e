// Package engine is the L9 facade (spec.md §4.9): the one entry point an
// embedding host uses to stand up a realm, run scripts and modules, poke
// values across the host/script boundary, and pump the microtask queue.
// Grounded on the teacher's pkg/driver/driver.go `Paserati` struct — a
// persistent session wrapping VM + checker + compiler + module loader —
// generalized by dropping the checker/compiler pair (this core has no
// static type checker) in favor of a realm + tree-walking interpreter,
// while keeping the "one long-lived session across many evaluations" shape
// and the `NewWithBaseDir` module-resolution-rooting convention.
package engine

import (
	"context"
	"errors"
	"time"

	"ecmacore/pkg/ast"
	"ecmacore/pkg/interop"
	"ecmacore/pkg/interpreter"
	"ecmacore/pkg/intrinsics"
	"ecmacore/pkg/lexer"
	"ecmacore/pkg/modules"
	"ecmacore/pkg/parser"
	"ecmacore/pkg/runtime"
)

// errNotAllowed is returned when a host tries to bind an interop object
// without having opted into AllowHostInterop at construction time.
var errNotAllowed = errors.New("host interop is not enabled for this engine")

// InteropOptions gates host reflection surfacing (spec.md §4.7/§4.9).
type InteropOptions struct {
	AllowGetType          bool
	AllowSystemReflection bool
}

// Options is the engine's configuration surface, spec.md §4.9's
// recognized-options list verbatim.
type Options struct {
	Strict            bool
	AllowHostInterop  bool
	Interop           InteropOptions
	MaxStatements     int64
	TimeoutMs         int64
	MaxRecursionDepth int
	MemoryLimitBytes  int64
	TypeResolver      interop.TypeResolver
	MemberAccessor    interop.MemberAccessor
	ModuleLoader      modules.ModuleLoader
}

// Engine is a persistent interpreter session: one Realm, one Interpreter,
// state that survives across separate Execute/Evaluate calls exactly like
// the teacher's Paserati session survives across RunString calls.
type Engine struct {
	realm    *runtime.Realm
	interp   *interpreter.Interpreter
	options  Options
	loader   modules.ModuleLoader
	resolver interop.TypeResolver
}

// New creates an engine rooted at the current working directory.
func New(opts Options) (*Engine, error) {
	return NewWithBaseDir(opts, ".")
}

// NewWithBaseDir creates an engine whose module loader resolves specifiers
// relative to baseDir, mirroring the teacher's NewPaseratiWithBaseDir
// (used by tests and embedders that must not depend on the process's
// working directory).
func NewWithBaseDir(opts Options, baseDir string) (*Engine, error) {
	realm := runtime.NewRealm()
	realm.GlobalObject = runtime.NewPlainObject(nil)
	if err := intrinsics.InitAll(realm); err != nil {
		return nil, err
	}
	if _, err := realm.GlobalObject.SetPrototypeOf(realm.Intrinsic("ObjectPrototype")); err != nil {
		return nil, err
	}
	realm.GlobalEnv = runtime.NewGlobalEnvironment(realm.GlobalObject)

	realm.Quota.MaxStatements = opts.MaxStatements
	realm.Quota.MaxDepth = opts.MaxRecursionDepth
	realm.Quota.MaxMemoryBytes = opts.MemoryLimitBytes

	interp := interpreter.New()

	loader := opts.ModuleLoader
	if loader == nil {
		resolver := modules.NewOSFileSystemResolver(baseDir)
		loader = modules.NewModuleLoader(modules.DefaultLoaderConfig(), resolver)
	}
	loader.SetRealm(realm)
	loader.SetEvaluatorFactory(func() modules.ModuleEvaluator {
		return &moduleEvaluator{interp: interp, realm: realm}
	})

	e := &Engine{realm: realm, interp: interp, options: opts, loader: loader, resolver: opts.TypeResolver}
	return e, nil
}

// moduleEvaluator adapts *interpreter.Interpreter to modules.ModuleEvaluator,
// the seam pkg/modules calls back through without importing pkg/interpreter
// (see pkg/modules/interfaces.go's ModuleEvaluator doc comment).
type moduleEvaluator struct {
	interp *interpreter.Interpreter
	realm  *runtime.Realm
}

func (m *moduleEvaluator) EvaluateModule(program *ast.Program, env *runtime.Environment) (runtime.Value, error) {
	return m.interp.EvaluateModule(m.realm, program, env)
}

// ResolveHostType looks up name through the engine's configured
// TypeResolver, if any (spec.md §4.7): the exact global name a resolved
// type's instances are exposed under is host-defined, so callers pair this
// with SetHostObject to actually bind an instance into script.
func (e *Engine) ResolveHostType(name string) (interop.TypeHandle, bool) {
	if e.resolver == nil {
		return nil, false
	}
	return e.resolver.ResolveType(name)
}

func (e *Engine) withQuotaContext() (context.Context, context.CancelFunc) {
	if e.options.TimeoutMs <= 0 {
		return context.Background(), func() {}
	}
	return context.WithTimeout(context.Background(), time.Duration(e.options.TimeoutMs)*time.Millisecond)
}

// Execute parses source as a script, hoists top-level declarations, and
// runs every statement, returning the last non-undefined expression
// statement's value (spec.md §4.9 "execute").
func (e *Engine) Execute(source string) (runtime.Value, error) {
	program, err := e.parse(source)
	if err != nil {
		return runtime.Undefined, err
	}
	ctx, cancel := e.withQuotaContext()
	defer cancel()
	e.realm.Quota.WithContext(ctx)
	return e.interp.RunProgram(e.realm, program)
}

// Evaluate runs source as a single expression (spec.md §4.9 "evaluate"),
// implemented by wrapping it in a return-position-equivalent script: the
// last statement's completion value is exactly the expression's value
// when source is one ExpressionStatement, which is what an "evaluate an
// expression" caller is expected to pass.
func (e *Engine) Evaluate(expression string) (runtime.Value, error) {
	return e.Execute(expression)
}

func (e *Engine) parse(source string) (*ast.Program, error) {
	if e.options.Strict {
		source = "\"use strict\";\n" + source
	}
	l := lexer.NewLexer(source)
	p := parser.NewParser(l)
	program, errs := p.ParseProgram()
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return program, nil
}

// ImportModule loads, links, and evaluates specifier, returning its Module
// Namespace Exotic Object (spec.md §4.9 "importModule").
func (e *Engine) ImportModule(specifier string) (*runtime.Object, error) {
	if _, err := e.loader.LoadModule(specifier, "."); err != nil {
		return nil, err
	}
	if err := e.loader.Link(specifier); err != nil {
		return nil, err
	}
	if _, err := e.loader.Evaluate(specifier); err != nil {
		return nil, err
	}
	return e.loader.GetModuleNamespace(specifier)
}

// SetValue defines or overwrites a global binding (spec.md §4.9
// "setValue").
func (e *Engine) SetValue(name string, v runtime.Value) {
	e.realm.GlobalObject.DefineDataProperty(name, v, true, true, true)
}

// GetValue reads a global binding (spec.md §4.9 "getValue"); returns
// Undefined, not an error, for a binding that was never set — mirroring
// how an unqualified global property read behaves inside script itself
// except for the ReferenceError case, which only applies to bare
// identifier resolution, not this host-side accessor.
func (e *Engine) GetValue(name string) (runtime.Value, error) {
	return e.realm.GlobalObject.Get(runtime.StringKey(name), runtime.NewObject(e.realm.GlobalObject))
}

// Invoke calls callable from host code (spec.md §4.9 "invoke"), enforcing
// the same statement/depth/timeout quotas a script-originated call would.
func (e *Engine) Invoke(callable runtime.Value, thisArg runtime.Value, args []runtime.Value) (runtime.Value, error) {
	ctx, cancel := e.withQuotaContext()
	defer cancel()
	e.realm.Quota.WithContext(ctx)
	return runtime.Call(callable, thisArg, args)
}

// DrainMicrotasks runs the realm's microtask queue to completion (spec.md
// §5 "the host-callable microtask pump").
func (e *Engine) DrainMicrotasks() {
	e.realm.DrainMicrotasks()
}

// SetHostObject wraps a host value with pkg/interop and installs it as a
// global, the L7/L9 seam spec.md §4.7 describes ("the engine must
// intercept property chains that would escape into reflection") gated by
// AllowHostInterop so a host that never opts in never has WrapObject
// reachable from script at all.
func (e *Engine) SetHostObject(name string, wrapper interop.ObjectWrapper) error {
	if !e.options.AllowHostInterop {
		return errNotAllowed
	}
	obj := interop.WrapObject(e.realm, wrapper, e.options.MemberAccessor, interop.Options{
		AllowGetType:          e.options.Interop.AllowGetType,
		AllowSystemReflection: e.options.Interop.AllowSystemReflection,
	})
	e.SetValue(name, runtime.NewObject(obj))
	return nil
}

// Realm exposes the underlying realm for embedders that need lower-level
// access (constructing intrinsics directly, reading Realm.Frames), the
// same "escape hatch" shape as the teacher's own driver exposing its VM
// instance to callers that outgrow the facade.
func (e *Engine) Realm() *runtime.Realm { return e.realm }
