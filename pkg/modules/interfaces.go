package modules

import (
	"context"
	"ecmacore/pkg/ast"
	"ecmacore/pkg/runtime"
	"io/fs"
)

// ModuleFS extends Go's standard io/fs interfaces for module loading.
type ModuleFS interface {
	fs.FS
	fs.ReadFileFS
}

// WritableModuleFS extends ModuleFS for development scenarios where modules can be written.
type WritableModuleFS interface {
	ModuleFS
	WriteFile(name string, data []byte, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
}

// ModuleResolver resolves module specifiers to concrete modules.
type ModuleResolver interface {
	Name() string
	CanResolve(specifier string) bool
	// Resolve attempts to resolve a module specifier to a concrete module.
	// fromPath is the path of the module that is importing (for relative resolution).
	Resolve(specifier string, fromPath string) (*ResolvedModule, error)
	Priority() int
}

// ModuleLoader is the main interface for loading modules.
type ModuleLoader interface {
	LoadModule(specifier string, fromPath string) (*ModuleRecord, error)
	LoadModuleParallel(specifier string, fromPath string) (*ModuleRecord, error)
	AddResolver(resolver ModuleResolver)

	// SetEvaluatorFactory sets the factory function used to build the
	// ModuleEvaluator each module's body runs through, keeping this package
	// free of a direct dependency on pkg/interpreter (see loader.go).
	SetEvaluatorFactory(factory func() ModuleEvaluator)

	// SetRealm gives the loader the realm every module environment chains
	// to as its Outer (spec §9.2's module environment "outer is the global
	// environment", so unqualified identifiers a module body references
	// but never imports still resolve) and whose well-known symbols back
	// a Module Namespace Exotic Object's @@toStringTag property.
	SetRealm(realm *runtime.Realm)

	GetModule(specifier string) *ModuleRecord
	ClearCache()
	GetStats() LoaderStats
	GetDependencyStats() DependencyStats

	// Link and Evaluate run the two module-graph phases (spec
	// §16.2.1.5.1/.2) over a module already taken through LoadModule:
	// Link builds every reachable module's environment and wires up
	// import bindings (cycle-aware via Tarjan SCC numbering); Evaluate
	// runs each module body exactly once in the resulting order.
	Link(specifier string) error
	Evaluate(specifier string) (runtime.Value, error)

	// GetModuleNamespace returns the (lazily built, cached) Module
	// Namespace Exotic Object for an already-linked module.
	GetModuleNamespace(specifier string) (*runtime.Object, error)
}

// ModuleRegistry manages the cache of loaded modules.
type ModuleRegistry interface {
	Get(specifier string) *ModuleRecord
	Set(specifier string, record *ModuleRecord)
	SetParsed(specifier string, result *ParseResult)
	Remove(specifier string)
	Clear()
	List() []string
	Size() int
	GetStats() RegistryStats
}

// ParseWorkerPool manages parallel parsing of modules.
type ParseWorkerPool interface {
	Start(ctx context.Context, numWorkers int) error
	Submit(job *ParseJob) error
	Results() <-chan *ParseResult
	Errors() <-chan error
	Shutdown(ctx context.Context) error
	HasActiveJobs() bool
	GetStats() WorkerPoolStats
}

// ModuleEvaluator runs a parsed module body against its module environment.
// This is the module system's only seam into pkg/interpreter: the linker
// builds env (installing every import binding first) and hands both to
// EvaluateModule once the module's dependencies have themselves finished
// evaluating, mirroring the teacher's own checkerFactory indirection
// (a factory function rather than a direct interface value) so this
// package never imports pkg/interpreter.
type ModuleEvaluator interface {
	EvaluateModule(program *ast.Program, env *runtime.Environment) (runtime.Value, error)
}

// DependencyAnalyzer tracks module dependencies during loading.
type DependencyAnalyzer interface {
	MarkDiscovered(modulePath string)
	IsDiscovered(modulePath string) bool

	MarkParsing(modulePath string)
	MarkParsed(modulePath string, result *ParseResult)
	IsParsing(modulePath string) bool
	GetParseResult(modulePath string) *ParseResult

	GetDependencyDepth(modulePath string) int
	GetImportCount(modulePath string) int
	AddDependency(from, to string)
	GetDependencies(modulePath string) []string

	// GetTopologicalOrder returns modules in dependency order for
	// diagnostics/stats; Link/Evaluate itself walks the graph directly
	// (linker.go) rather than relying on this order, since a true
	// Tarjan-style pass must also discover cycles instead of erroring on them.
	GetTopologicalOrder() ([]string, error)

	GetStats() DependencyStats
	Clear()
}
