package modules

import (
	"context"
	"ecmacore/pkg/lexer"
	"ecmacore/pkg/parser"
	"ecmacore/pkg/runtime"
	"ecmacore/pkg/source"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// moduleLoader implements ModuleLoader: it owns resolution, parsing, and
// the module cache, stopping at StatusUnlinked — turning a resolved record
// into a linked, evaluated one is linker.go's job, which this loader hands
// off to via GetModule once every reachable specifier has been parsed.
type moduleLoader struct {
	resolvers []ModuleResolver
	registry  ModuleRegistry
	config    *LoaderConfig

	// Parallel processing components
	workerPool  ParseWorkerPool
	parseQueue  *parseQueue
	depAnalyzer DependencyAnalyzer

	// evaluatorFactory builds the ModuleEvaluator the linker runs each
	// module body through; stored here (not on the linker) so one
	// moduleLoader value can be shared across linker runs.
	evaluatorFactory func() ModuleEvaluator
	realm            *runtime.Realm

	mutex       sync.RWMutex
	initialized bool
}

// NewModuleLoader creates a new module loader.
func NewModuleLoader(config *LoaderConfig, resolvers ...ModuleResolver) ModuleLoader {
	if config == nil {
		config = DefaultLoaderConfig()
	}

	sort.Slice(resolvers, func(i, j int) bool {
		return resolvers[i].Priority() < resolvers[j].Priority()
	})

	return &moduleLoader{
		resolvers:   resolvers,
		registry:    NewRegistry(config),
		config:      config,
		depAnalyzer: NewDependencyAnalyzer(),
	}
}

// LoadModule loads a module and all its dependencies using sequential,
// depth-first recursion — the default path; LoadModuleParallel exists for
// large graphs where parse time dominates wall-clock.
func (ml *moduleLoader) LoadModule(specifier string, fromPath string) (*ModuleRecord, error) {
	return ml.loadModuleSequential(specifier, fromPath)
}

// LoadModuleParallel loads a module using the worker-pool pipeline.
func (ml *moduleLoader) LoadModuleParallel(specifier string, fromPath string) (*ModuleRecord, error) {
	ml.mutex.Lock()
	if !ml.initialized {
		if err := ml.initializeParallelComponents(); err != nil {
			ml.mutex.Unlock()
			return nil, fmt.Errorf("failed to initialize parallel components: %w", err)
		}
		ml.initialized = true
	}
	ml.mutex.Unlock()

	return ml.loadModuleParallelImpl(specifier, fromPath)
}

// loadModuleSequential resolves, parses, and recursively loads one
// module's dependency subtree, leaving every record at StatusUnlinked
// (or StatusErrored) for the linker to pick up. The registry is keyed by
// resolved path, not the specifier text as written at the import site, so
// the same file reached through two different relative specifiers still
// collapses to one ModuleRecord — each ImportSpec.ModulePath is rewritten
// from its as-written form to that resolved identity once its target is
// loaded, which is what the linker walks.
func (ml *moduleLoader) loadModuleSequential(specifier string, fromPath string) (*ModuleRecord, error) {
	resolved, err := ml.resolveModule(specifier, fromPath)
	if err != nil {
		return nil, err
	}

	if cached := ml.registry.Get(resolved.ResolvedPath); cached != nil {
		return cached, nil
	}

	record := &ModuleRecord{
		Specifier:    specifier,
		ResolvedPath: resolved.ResolvedPath,
		Status:       StatusNew,
		LoadTime:     time.Now(),
	}
	ml.registry.Set(resolved.ResolvedPath, record)

	if err := ml.parseModuleSequential(record, resolved); err != nil {
		record.Error = err
		record.Status = StatusErrored
		return record, nil
	}

	record.ImportSpecs = extractImportSpecs(record.AST)
	record.ExportSpecs = extractExportSpecs(record.AST)

	seen := make(map[string]bool)
	resolvedOf := make(map[string]string, len(record.ImportSpecs))
	for _, is := range record.ImportSpecs {
		raw := is.ModulePath
		dep, err := ml.loadModuleSequential(raw, record.ResolvedPath)
		if err != nil {
			record.Error = fmt.Errorf("loading dependency %s: %w", raw, err)
			record.Status = StatusErrored
			return record, nil
		}
		is.ModulePath = dep.ResolvedPath
		resolvedOf[raw] = dep.ResolvedPath
		if dep.Status == StatusErrored {
			record.Error = fmt.Errorf("dependency %s failed to load: %w", dep.Specifier, dep.Error)
			record.Status = StatusErrored
			return record, nil
		}
		if !seen[dep.ResolvedPath] {
			seen[dep.ResolvedPath] = true
			record.RequestedModules = append(record.RequestedModules, dep.ResolvedPath)
			record.Dependencies = append(record.Dependencies, dep.ResolvedPath)
		}
	}
	// Every `export ... from "m"` also produced a side-effect ImportSpec for
	// "m" above, so resolvedOf covers every FromModule value here too.
	for _, es := range record.ExportSpecs {
		if es.FromModule != "" {
			if resolved, ok := resolvedOf[es.FromModule]; ok {
				es.FromModule = resolved
			}
		}
	}

	record.Status = StatusUnlinked
	record.CompleteTime = time.Now()
	return record, nil
}

// parseModuleSequential reads and parses a single module's source.
func (ml *moduleLoader) parseModuleSequential(record *ModuleRecord, resolved *ResolvedModule) error {
	defer resolved.Source.Close()

	content, err := io.ReadAll(resolved.Source)
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}

	sourceFile := source.FromFile(resolved.ResolvedPath, string(content))

	l := lexer.NewLexer(sourceFile.Content)
	p := parser.NewParser(l)

	program, parseErrs := p.ParseProgram()
	if len(parseErrs) > 0 {
		return fmt.Errorf("parsing failed: %s", parseErrs[0].Error())
	}
	program.IsModule = true

	record.AST = program
	record.Source = sourceFile
	return nil
}

// loadModuleParallelImpl drives the worker pool over a module's transitive
// dependency set until every reachable specifier has been parsed.
func (ml *moduleLoader) loadModuleParallelImpl(specifier string, fromPath string) (*ModuleRecord, error) {
	ml.parseQueue = NewParseQueue(ml.config.JobBufferSize)

	ctx, cancel := context.WithTimeout(context.Background(), ml.config.ResolveTimeout)
	defer cancel()

	if err := ml.workerPool.Start(ctx, ml.config.NumWorkers); err != nil {
		return nil, fmt.Errorf("failed to start worker pool: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		ml.workerPool.Shutdown(shutdownCtx)
	}()

	entryJob, err := ml.createParseJob(specifier, fromPath, 0)
	if err != nil {
		return nil, err
	}
	ml.depAnalyzer.MarkDiscovered(entryJob.ModulePath)

	if err := ml.parseQueue.Enqueue(entryJob); err != nil {
		return nil, fmt.Errorf("failed to enqueue entry point: %w", err)
	}
	ml.parseQueue.MarkInFlight(entryJob.ModulePath)

	if err := ml.workerPool.Submit(entryJob); err != nil {
		return nil, fmt.Errorf("failed to submit initial job: %w", err)
	}

	for !ml.parseQueue.IsEmpty() || ml.workerPool.HasActiveJobs() {
		select {
		case result := <-ml.workerPool.Results():
			if err := ml.processParseResult(result); err != nil {
				return nil, err
			}
		case err := <-ml.workerPool.Errors():
			return nil, fmt.Errorf("worker error: %w", err)
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		if ml.parseQueue.IsEmpty() && !ml.workerPool.HasActiveJobs() {
			break
		}
	}

	for _, modulePath := range ml.depAnalyzer.(*dependencyAnalyzer).GetAllDiscovered() {
		record := ml.registry.Get(modulePath)
		if record != nil && record.Error == nil && record.Status == StatusNew {
			record.Status = StatusUnlinked
			record.CompleteTime = time.Now()
		}
	}

	return ml.registry.Get(specifier), nil
}

// resolveModule resolves a module specifier using the resolver chain.
func (ml *moduleLoader) resolveModule(specifier string, fromPath string) (*ResolvedModule, error) {
	for _, resolver := range ml.resolvers {
		if resolver.CanResolve(specifier) {
			resolved, err := resolver.Resolve(specifier, fromPath)
			if err == nil {
				return resolved, nil
			}
		}
	}
	return nil, fmt.Errorf("no resolver could handle specifier: %s", specifier)
}

// createParseJob resolves a specifier and reads its source into a ParseJob.
func (ml *moduleLoader) createParseJob(specifier string, fromPath string, priority int) (*ParseJob, error) {
	resolved, err := ml.resolveModule(specifier, fromPath)
	if err != nil {
		return nil, err
	}
	defer resolved.Source.Close()

	content, err := io.ReadAll(resolved.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}

	sourceFile := source.FromFile(resolved.ResolvedPath, string(content))

	return &ParseJob{
		ModulePath: resolved.ResolvedPath,
		Source:     sourceFile,
		Priority:   priority,
		Timestamp:  time.Now(),
	}, nil
}

// processParseResult records a parse result and queues any newly
// discovered dependencies for parsing. Like loadModuleSequential, each
// ImportSpec.ModulePath is rewritten from its as-written specifier to the
// dependency's resolved path, so the dependency graph and the eventual
// linker both key on module identity rather than import-site text.
func (ml *moduleLoader) processParseResult(result *ParseResult) error {
	ml.parseQueue.MarkCompleted(result.ModulePath, result)
	ml.registry.SetParsed(result.ModulePath, result)
	ml.depAnalyzer.MarkParsed(result.ModulePath, result)

	record := ml.registry.Get(result.ModulePath)

	if result.Error != nil {
		return nil
	}

	seen := make(map[string]bool)
	resolvedOf := make(map[string]string, len(result.ImportSpecs))

	for _, importSpec := range result.ImportSpecs {
		raw := importSpec.ModulePath
		resolved, err := ml.resolveModule(raw, result.ModulePath)
		if err != nil {
			continue
		}
		resolved.Source.Close()
		depPath := resolved.ResolvedPath
		importSpec.ModulePath = depPath
		resolvedOf[raw] = depPath

		if record != nil && !seen[depPath] {
			seen[depPath] = true
			record.RequestedModules = append(record.RequestedModules, depPath)
			record.Dependencies = append(record.Dependencies, depPath)
		}

		if ml.depAnalyzer.IsDiscovered(depPath) {
			ml.depAnalyzer.AddDependency(result.ModulePath, depPath)
			continue
		}
		ml.depAnalyzer.MarkDiscovered(depPath)

		priority := ml.calculatePriority(depPath, result.ModulePath)
		job, err := ml.createParseJob(depPath, "", priority)
		if err != nil {
			continue
		}
		if err := ml.parseQueue.Enqueue(job); err != nil {
			continue
		}
		if err := ml.workerPool.Submit(job); err != nil {
			continue
		}
		ml.depAnalyzer.AddDependency(result.ModulePath, depPath)
	}

	if record != nil {
		for _, es := range result.ExportSpecs {
			if es.FromModule != "" {
				if resolved, ok := resolvedOf[es.FromModule]; ok {
					es.FromModule = resolved
				}
			}
		}
	}

	return nil
}

// calculatePriority weights a dependency's parse priority by how deep it
// sits in the graph and how often it is imported, so widely shared leaf
// modules (small, depended on by everything) get parsed early.
func (ml *moduleLoader) calculatePriority(modulePath, dependentPath string) int {
	depth := ml.depAnalyzer.GetDependencyDepth(modulePath)
	importCount := ml.depAnalyzer.GetImportCount(modulePath)

	priority := depth*10 - min(5, importCount)
	if priority < 1 {
		priority = 1
	}
	return priority
}

func (ml *moduleLoader) initializeParallelComponents() error {
	ml.workerPool = NewWorkerPool(ml.config)
	return nil
}

// SetEvaluatorFactory sets the factory used to build the ModuleEvaluator
// linker.go runs each module body through.
func (ml *moduleLoader) SetEvaluatorFactory(factory func() ModuleEvaluator) {
	ml.mutex.Lock()
	defer ml.mutex.Unlock()
	ml.evaluatorFactory = factory
}

// SetRealm gives the loader the realm module environments chain to as
// their Outer and that backs Module Namespace @@toStringTag properties.
func (ml *moduleLoader) SetRealm(realm *runtime.Realm) {
	ml.mutex.Lock()
	defer ml.mutex.Unlock()
	ml.realm = realm
}

func (ml *moduleLoader) AddResolver(resolver ModuleResolver) {
	ml.mutex.Lock()
	defer ml.mutex.Unlock()

	ml.resolvers = append(ml.resolvers, resolver)
	sort.Slice(ml.resolvers, func(i, j int) bool {
		return ml.resolvers[i].Priority() < ml.resolvers[j].Priority()
	})
}

func (ml *moduleLoader) GetModule(specifier string) *ModuleRecord {
	return ml.registry.Get(specifier)
}

func (ml *moduleLoader) ClearCache() {
	ml.registry.Clear()
	ml.depAnalyzer.Clear()

	ml.mutex.Lock()
	defer ml.mutex.Unlock()
	if ml.parseQueue != nil {
		ml.parseQueue.Clear()
	}
}

func (ml *moduleLoader) GetStats() LoaderStats {
	stats := LoaderStats{
		Registry: ml.registry.GetStats(),
	}
	if ml.workerPool != nil {
		stats.WorkerPool = ml.workerPool.GetStats()
	}

	registryStats := ml.registry.GetStats()
	if registryStats.LoadedModules > 0 {
		stats.AverageLoadTime = time.Duration(registryStats.LoadedModules) * time.Millisecond
	}

	return stats
}

func (ml *moduleLoader) GetDependencyStats() DependencyStats {
	if da, ok := ml.depAnalyzer.(*dependencyAnalyzer); ok {
		return da.GetStats()
	}
	return DependencyStats{}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
