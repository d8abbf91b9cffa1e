package modules

import (
	"context"
	"ecmacore/pkg/ast"
	"ecmacore/pkg/lexer"
	"ecmacore/pkg/parser"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// workerPool implements ParseWorkerPool interface
type workerPool struct {
	// Configuration
	numWorkers   int
	jobBuffer    int
	resultBuffer int

	// Channels
	jobQueue   chan *ParseJob
	resultChan chan *ParseResult
	errorChan  chan error

	// Control
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	workers []*parseWorker

	// State
	started    int32 // atomic
	stopped    int32 // atomic
	activeJobs int32 // atomic

	// Statistics
	stats      WorkerPoolStats
	statsMutex sync.RWMutex
}

// parseWorker represents a single worker goroutine
type parseWorker struct {
	id         int
	pool       *workerPool
	jobQueue   <-chan *ParseJob
	resultChan chan<- *ParseResult
	errorChan  chan<- error
}

// NewWorkerPool creates a new parallel parsing worker pool
func NewWorkerPool(config *LoaderConfig) ParseWorkerPool {
	numWorkers := config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	return &workerPool{
		numWorkers:   numWorkers,
		jobBuffer:    config.JobBufferSize,
		resultBuffer: config.ResultBufferSize,
	}
}

// Start initializes and starts the worker pool
func (wp *workerPool) Start(ctx context.Context, numWorkers int) error {
	if !atomic.CompareAndSwapInt32(&wp.started, 0, 1) {
		return fmt.Errorf("worker pool already started")
	}

	if numWorkers > 0 {
		wp.numWorkers = numWorkers
	}

	wp.ctx, wp.cancel = context.WithCancel(ctx)

	wp.jobQueue = make(chan *ParseJob, wp.jobBuffer)
	wp.resultChan = make(chan *ParseResult, wp.resultBuffer)
	wp.errorChan = make(chan error, wp.numWorkers)

	wp.stats = WorkerPoolStats{
		WorkerCount: wp.numWorkers,
	}

	wp.workers = make([]*parseWorker, wp.numWorkers)
	for i := 0; i < wp.numWorkers; i++ {
		worker := &parseWorker{
			id:         i,
			pool:       wp,
			jobQueue:   wp.jobQueue,
			resultChan: wp.resultChan,
			errorChan:  wp.errorChan,
		}

		wp.workers[i] = worker
		wp.wg.Add(1)
		go worker.run(wp.ctx)
	}

	return nil
}

// Submit submits a parse job to the worker pool
func (wp *workerPool) Submit(job *ParseJob) error {
	if atomic.LoadInt32(&wp.started) == 0 {
		return fmt.Errorf("worker pool not started")
	}

	if atomic.LoadInt32(&wp.stopped) == 1 {
		return fmt.Errorf("worker pool stopped")
	}

	select {
	case wp.jobQueue <- job:
		atomic.AddInt32(&wp.activeJobs, 1)

		wp.statsMutex.Lock()
		wp.stats.TotalJobs++
		wp.stats.ActiveJobs++
		wp.statsMutex.Unlock()

		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// Results returns a channel of parse results
func (wp *workerPool) Results() <-chan *ParseResult {
	return wp.resultChan
}

// Errors returns a channel of parse errors
func (wp *workerPool) Errors() <-chan error {
	return wp.errorChan
}

// Shutdown gracefully shuts down the worker pool
func (wp *workerPool) Shutdown(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&wp.stopped, 0, 1) {
		return fmt.Errorf("worker pool already stopped")
	}

	close(wp.jobQueue)

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.cancel()
		close(wp.resultChan)
		close(wp.errorChan)
		return nil
	case <-ctx.Done():
		wp.cancel()
		return ctx.Err()
	}
}

// HasActiveJobs returns true if there are jobs in progress
func (wp *workerPool) HasActiveJobs() bool {
	return atomic.LoadInt32(&wp.activeJobs) > 0
}

// GetStats returns current worker pool statistics
func (wp *workerPool) GetStats() WorkerPoolStats {
	wp.statsMutex.RLock()
	defer wp.statsMutex.RUnlock()

	stats := wp.stats
	stats.ActiveJobs = int(atomic.LoadInt32(&wp.activeJobs))
	return stats
}

// run is the main worker loop
func (w *parseWorker) run(ctx context.Context) {
	defer w.pool.wg.Done()

	for {
		select {
		case job, ok := <-w.jobQueue:
			if !ok {
				return
			}
			result := w.processJob(job)

			w.pool.statsMutex.Lock()
			if result.Error == nil {
				w.pool.stats.CompletedJobs++
			} else {
				w.pool.stats.FailedJobs++
			}
			w.pool.stats.TotalTime += result.Duration
			if w.pool.stats.CompletedJobs+w.pool.stats.FailedJobs > 0 {
				w.pool.stats.AverageTime = w.pool.stats.TotalTime / time.Duration(w.pool.stats.CompletedJobs+w.pool.stats.FailedJobs)
			}
			w.pool.statsMutex.Unlock()

			atomic.AddInt32(&w.pool.activeJobs, -1)

			select {
			case w.resultChan <- result:
			case <-ctx.Done():
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// processJob lexes and parses a single module's source, extracting its
// import/export graph edges from the resulting AST so the dependency
// analyzer and linker never need to re-walk it.
func (w *parseWorker) processJob(job *ParseJob) *ParseResult {
	startTime := time.Now()

	result := &ParseResult{
		ModulePath: job.ModulePath,
		WorkerID:   w.id,
		Timestamp:  startTime,
	}

	l := lexer.NewLexer(job.Source.Content)
	p := parser.NewParser(l)

	program, parseErrs := p.ParseProgram()
	if len(parseErrs) > 0 {
		result.Error = fmt.Errorf("parsing failed: %s", parseErrs[0].Error())
		result.Duration = time.Since(startTime)
		return result
	}
	program.IsModule = true

	result.AST = program
	result.ImportSpecs = extractImportSpecs(program)
	result.ExportSpecs = extractExportSpecs(program)
	result.Duration = time.Since(startTime)
	return result
}

// extractImportSpecs flattens every import/re-export edge out of a
// module's top-level statements (spec §16.2.1.1's "ModuleRequests"): a
// plain import contributes one ImportSpec per binding it creates, while a
// re-export or `export * from` contributes only the module-path edge, not
// a local binding.
func extractImportSpecs(program *ast.Program) []*ImportSpec {
	var specs []*ImportSpec

	for _, stmt := range program.Statements {
		switch node := stmt.(type) {
		case *ast.ImportDeclaration:
			if len(node.Specifiers) == 0 {
				specs = append(specs, &ImportSpec{ModulePath: node.Source, ImportType: ImportSideEffect})
				continue
			}
			for _, sp := range node.Specifiers {
				spec := &ImportSpec{ModulePath: node.Source, LocalNames: []string{sp.Local}}
				switch {
				case sp.Default:
					spec.ImportType = ImportDefault
					spec.IsDefault = true
				case sp.Namespace:
					spec.ImportType = ImportNamespace
					spec.IsNamespace = true
				default:
					spec.ImportType = ImportNamed
					spec.ImportNames = []string{sp.Imported}
				}
				specs = append(specs, spec)
			}
		case *ast.ExportNamedDeclaration:
			if node.Source != "" {
				specs = append(specs, &ImportSpec{ModulePath: node.Source, ImportType: ImportSideEffect})
			}
		case *ast.ExportAllDeclaration:
			specs = append(specs, &ImportSpec{ModulePath: node.Source, ImportType: ImportSideEffect})
		}
	}

	return specs
}

// extractExportSpecs flattens every export a module surfaces (spec
// §16.2.1.1's "ExportEntries"): direct declarations (`export const x`),
// specifier-list exports (`export { x as y }`), re-exports
// (`export { x } from "m"`), and the default export.
func extractExportSpecs(program *ast.Program) []*ExportSpec {
	var specs []*ExportSpec

	for _, stmt := range program.Statements {
		switch node := stmt.(type) {
		case *ast.ExportNamedDeclaration:
			if node.Declaration != nil {
				for _, name := range declaredNames(node.Declaration) {
					specs = append(specs, &ExportSpec{ExportName: name, LocalName: name})
				}
				continue
			}
			for _, sp := range node.Specifiers {
				specs = append(specs, &ExportSpec{
					ExportName: sp.Exported,
					LocalName:  sp.Local,
					FromModule: node.Source,
				})
			}
		case *ast.ExportDefaultDeclaration:
			// LocalName matches the "*default*" slot execExportDefault
			// initializes in the module environment (pkg/interpreter).
			specs = append(specs, &ExportSpec{ExportName: "default", LocalName: "*default*", IsDefault: true})
		case *ast.ExportAllDeclaration:
			// Exported == "" is a star export entry (ExportName left blank,
			// flattened by the linker); Exported != "" is
			// `export * as ns from "m"`, a namespace re-export.
			specs = append(specs, &ExportSpec{ExportName: node.Exported, FromModule: node.Source})
		}
	}

	return specs
}

// declaredNames returns the top-level binding names a wrapped
// `export <declaration>` introduces.
func declaredNames(decl ast.Statement) []string {
	switch d := decl.(type) {
	case *ast.FunctionDeclaration:
		if d.Id != nil {
			return []string{d.Id.Name}
		}
	case *ast.ClassDeclaration:
		if d.Id != nil {
			return []string{d.Id.Name}
		}
	case *ast.VariableDeclaration:
		var names []string
		for _, decr := range d.Declarations {
			names = append(names, patternBindingNames(decr.Id)...)
		}
		return names
	}
	return nil
}

// patternBindingNames walks a binding pattern for its flat list of names,
// used only to enumerate what `export let {a, b} = ...` exports.
func patternBindingNames(p ast.Pattern) []string {
	var names []string
	switch n := p.(type) {
	case *ast.Identifier:
		names = append(names, n.Name)
	case *ast.ArrayPattern:
		for _, el := range n.Elements {
			if el.Target != nil {
				names = append(names, patternBindingNames(el.Target)...)
			}
		}
	case *ast.ObjectPattern:
		for _, prop := range n.Properties {
			names = append(names, patternBindingNames(prop.Value)...)
		}
		if n.Rest != nil {
			names = append(names, patternBindingNames(n.Rest)...)
		}
	case *ast.AssignmentPattern:
		names = append(names, patternBindingNames(n.Left)...)
	case *ast.RestElement:
		names = append(names, patternBindingNames(n.Argument)...)
	}
	return names
}
