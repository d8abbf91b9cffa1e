package modules

import (
	"ecmacore/pkg/ast"
	"ecmacore/pkg/runtime"
	"ecmacore/pkg/source"
	"io"
	stdruntime "runtime"
	"time"
)

// ModuleStatus mirrors the abstract module record states the Link/Evaluate
// algorithm threads a module through (spec §16.2.1.5's "Status" field):
// parsing populates a record up through unlinked, Link walks the
// dependency graph to linked (binding imports along the way), and Evaluate
// runs each module body exactly once, left to right in evaluation order.
type ModuleStatus int

const (
	StatusNew ModuleStatus = iota
	StatusUnlinked
	StatusLinking
	StatusLinked
	StatusEvaluating
	StatusEvaluatingAsync
	StatusEvaluated
	StatusErrored
)

func (s ModuleStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusUnlinked:
		return "unlinked"
	case StatusLinking:
		return "linking"
	case StatusLinked:
		return "linked"
	case StatusEvaluating:
		return "evaluating"
	case StatusEvaluatingAsync:
		return "evaluating-async"
	case StatusEvaluated:
		return "evaluated"
	case StatusErrored:
		return "errored"
	default:
		return "invalid"
	}
}

// ModuleRecord is a Source Text Module Record (spec §16.2.1.5): one entry
// per resolved specifier, carrying it from "just parsed" through linking
// and evaluation. DFSIndex/DFSAncestorIndex/CycleRoot are the Tarjan
// bookkeeping InnerModuleLinking/InnerModuleEvaluation use to link and
// evaluate an entire strongly-connected component of cyclic imports
// together instead of rejecting the cycle outright.
type ModuleRecord struct {
	Specifier    string
	ResolvedPath string
	Status       ModuleStatus

	Source *source.SourceFile
	AST    *ast.Program

	ImportSpecs      []*ImportSpec
	ExportSpecs      []*ExportSpec
	RequestedModules []string // resolved paths of the modules this module's imports/re-exports/side-effect imports name, deduplicated, in source order

	Env       *runtime.Environment // the module environment import bindings resolve against and the body runs in
	Namespace *runtime.Object      // lazily built Module Namespace Exotic Object, see GetModuleNamespace

	evaluationResult runtime.Value // EvaluateModule's return value, cached for Evaluate's caller

	Dependencies []string
	Dependents   []string

	Error error

	DFSIndex         int
	DFSAncestorIndex int
	CycleRoot        *ModuleRecord

	LoadTime     time.Time
	ParseTime    time.Time
	CompleteTime time.Time

	ParseDuration time.Duration
	QueueTime     time.Time
	WorkerID      int
	ParsePriority int
}

// ResolvedModule represents a module that has been resolved by a resolver.
type ResolvedModule struct {
	Specifier    string
	ResolvedPath string
	Source       io.ReadCloser
	FS           ModuleFS
	Resolver     string
}

// ImportSpec mirrors one ast.ImportSpecifier plus the source specifier it
// was imported from, flattened out of an *ast.ImportDeclaration during
// parsing so the dependency graph can be built without re-walking the AST.
type ImportSpec struct {
	ModulePath  string
	ImportType  ImportType
	ImportNames []string // source-side export names (ImportNamed); empty for Default/Namespace/SideEffect
	LocalNames  []string // local binding names, same order as ImportNames
	IsDefault   bool
	IsNamespace bool
}

// ExportSpec represents one named export surfaced by a module, whether
// declared directly (`export const x = ...`), re-exported
// (`export { x } from "m"`), or the module's default export.
type ExportSpec struct {
	ExportName string
	LocalName  string
	IsDefault  bool
	FromModule string // non-empty for `export {x} from "m"` / `export * from "m"`
}

// ImportType represents the different shapes an import clause can take.
type ImportType int

const (
	ImportDefault ImportType = iota
	ImportNamed
	ImportNamespace
	ImportSideEffect
)

func (it ImportType) String() string {
	switch it {
	case ImportDefault:
		return "default"
	case ImportNamed:
		return "named"
	case ImportNamespace:
		return "namespace"
	case ImportSideEffect:
		return "side-effect"
	default:
		return "unknown"
	}
}

// ParseJob represents a module parsing task for the worker pool.
type ParseJob struct {
	ModulePath   string
	Source       *source.SourceFile
	Priority     int
	Dependencies []string
	Timestamp    time.Time
	RetryCount   int
}

// ParseResult represents the result of parsing a module.
type ParseResult struct {
	ModulePath  string
	AST         *ast.Program
	ImportSpecs []*ImportSpec
	ExportSpecs []*ExportSpec
	Duration    time.Duration
	WorkerID    int
	Error       error
	Timestamp   time.Time
}

// LoaderConfig configures module loader behavior.
type LoaderConfig struct {
	EnableParallel   bool
	NumWorkers       int
	JobBufferSize    int
	ResultBufferSize int
	MaxParseTime     time.Duration

	CacheEnabled bool
	CacheSize    int
	CacheTTL     time.Duration

	ResolveTimeout time.Duration
	MaxDepth       int

	PrewarmLexers bool
	ReuseAST      bool
}

// DefaultLoaderConfig returns sensible default configuration.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		EnableParallel:   true,
		NumWorkers:       stdruntime.NumCPU(),
		JobBufferSize:    100,
		ResultBufferSize: 100,
		MaxParseTime:     30 * time.Second,

		CacheEnabled: true,
		CacheSize:    0,
		CacheTTL:     0,

		ResolveTimeout: 10 * time.Second,
		MaxDepth:       100,

		PrewarmLexers: true,
		ReuseAST:      false,
	}
}

// WorkerPoolStats contains statistics about worker pool performance.
type WorkerPoolStats struct {
	TotalJobs     int
	ActiveJobs    int
	CompletedJobs int
	FailedJobs    int
	AverageTime   time.Duration
	TotalTime     time.Duration
	WorkerCount   int
}

// RegistryStats contains statistics about the module registry.
type RegistryStats struct {
	TotalModules  int
	LoadedModules int
	FailedModules int
	CacheHits     int
	CacheMisses   int
	MemoryUsage   int64
}

// LoaderStats contains overall statistics about module loading.
type LoaderStats struct {
	WorkerPool      WorkerPoolStats
	Registry        RegistryStats
	AverageLoadTime time.Duration
	TotalLoadTime   time.Duration
}
