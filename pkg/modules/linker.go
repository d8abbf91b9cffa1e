package modules

import (
	"ecmacore/pkg/runtime"
	"fmt"
	"sort"
	"time"
)

// resolvedBinding is what ResolveExport (spec §16.2.1.6.3) returns: the
// module an export name ultimately lives in, plus the local binding name
// inside that module's environment. BindingName ==
// namespaceBindingSentinel means the export itself names its source
// module's Module Namespace Object (`export * as ns from "m"`, or a named
// import of one) rather than a single value binding.
type resolvedBinding struct {
	Module      *ModuleRecord
	BindingName string
}

const namespaceBindingSentinel = "*namespace*"

// ambiguousExportError reports an export name reachable through two or
// more `export * from` targets that don't agree on where it resolves
// (spec: ResolveExport returning "ambiguous").
type ambiguousExportError struct {
	Specifier  string
	ExportName string
}

func (e *ambiguousExportError) Error() string {
	return fmt.Sprintf("module %s: ambiguous export %q", e.Specifier, e.ExportName)
}

// resolveExport walks ExportSpecs, following named and star re-exports,
// to find the module+binding a name ultimately refers to. A nil result
// (with nil error) means the name isn't exported; resolveSet guards
// against infinite recursion on an export cycle, which resolves to "not
// found" per spec rather than an error.
func (ml *moduleLoader) resolveExport(record *ModuleRecord, exportName string, resolveSet map[string]bool) (*resolvedBinding, error) {
	key := record.ResolvedPath + "\x00" + exportName
	if resolveSet[key] {
		return nil, nil
	}
	resolveSet[key] = true

	var starModules []string
	for _, es := range record.ExportSpecs {
		if es.ExportName == "" {
			if es.FromModule != "" {
				starModules = append(starModules, es.FromModule)
			}
			continue
		}
		if es.ExportName != exportName {
			continue
		}
		if es.FromModule == "" {
			return &resolvedBinding{Module: record, BindingName: es.LocalName}, nil
		}
		target := ml.registry.Get(es.FromModule)
		if target == nil {
			return nil, fmt.Errorf("module %s: export %q refers to unlinked module %s", record.Specifier, exportName, es.FromModule)
		}
		if es.LocalName == "" {
			// `export * as ns from "m"` or `export {default as x} from "m"`
			// with no source-side name recorded means the whole namespace.
			return &resolvedBinding{Module: target, BindingName: namespaceBindingSentinel}, nil
		}
		return ml.resolveExport(target, es.LocalName, resolveSet)
	}

	if exportName == "default" {
		return nil, nil // `export *` never re-exports a default (spec §16.2.1.6.3 step 4)
	}

	var found *resolvedBinding
	for _, specifier := range starModules {
		target := ml.registry.Get(specifier)
		if target == nil {
			continue
		}
		candidate, err := ml.resolveExport(target, exportName, resolveSet)
		if err != nil {
			return nil, err
		}
		if candidate == nil {
			continue
		}
		if found != nil && (found.Module != candidate.Module || found.BindingName != candidate.BindingName) {
			return nil, &ambiguousExportError{Specifier: record.Specifier, ExportName: exportName}
		}
		found = candidate
	}
	return found, nil
}

// getExportedNames returns every name a module exports, including names
// reached transitively through `export * from` (spec §16.2.1.6.2
// "GetExportedNames"): direct/named exports win over star-imported ones,
// "default" is never included from a star export, and a name reached
// through two star targets is listed once here; getModuleNamespace leaves
// it off the namespace object when resolveExport reports it ambiguous.
func (ml *moduleLoader) getExportedNames(record *ModuleRecord, visited map[string]bool) []string {
	if visited[record.ResolvedPath] {
		return nil
	}
	visited[record.ResolvedPath] = true

	seen := make(map[string]bool)
	var names []string

	for _, es := range record.ExportSpecs {
		if es.ExportName == "" || seen[es.ExportName] {
			continue
		}
		seen[es.ExportName] = true
		names = append(names, es.ExportName)
	}

	for _, es := range record.ExportSpecs {
		if es.ExportName != "" || es.FromModule == "" {
			continue
		}
		target := ml.registry.Get(es.FromModule)
		if target == nil {
			continue
		}
		for _, n := range ml.getExportedNames(target, visited) {
			if n == "default" || seen[n] {
				continue
			}
			seen[n] = true
			names = append(names, n)
		}
	}

	return names
}

// linkState carries the Tarjan bookkeeping (running DFS index and the
// stack of modules still awaiting their strongly-connected component's
// root) across one Link call's recursive walk.
type linkState struct {
	index int
	stack []*ModuleRecord
}

// Link runs InnerModuleLinking (spec §16.2.1.5.1) from specifier:
// depth-first over RequestedModules, numbering each module with a Tarjan
// DFS index/ancestor index so an entire strongly-connected component of
// cyclic imports links together as one unit instead of being rejected.
func (ml *moduleLoader) Link(specifier string) error {
	record := ml.registry.Get(specifier)
	if record == nil {
		return fmt.Errorf("module not loaded: %s", specifier)
	}

	switch record.Status {
	case StatusLinked, StatusEvaluating, StatusEvaluatingAsync, StatusEvaluated:
		return nil
	case StatusErrored:
		return record.Error
	case StatusUnlinked:
		// proceed
	default:
		return fmt.Errorf("module %s has status %s, not ready to link", specifier, record.Status)
	}

	state := &linkState{}
	if _, err := ml.innerModuleLinking(record, state); err != nil {
		return err
	}
	if record.Status != StatusLinked {
		return fmt.Errorf("module %s failed to reach linked status", specifier)
	}
	return nil
}

func (ml *moduleLoader) innerModuleLinking(record *ModuleRecord, state *linkState) (int, error) {
	switch record.Status {
	case StatusLinking, StatusLinked, StatusEvaluating, StatusEvaluatingAsync, StatusEvaluated:
		return state.index, nil
	case StatusErrored:
		return state.index, record.Error
	case StatusUnlinked:
		// proceed
	default:
		return state.index, fmt.Errorf("module %s has status %s, cannot link", record.Specifier, record.Status)
	}

	record.Status = StatusLinking
	record.DFSIndex = state.index
	record.DFSAncestorIndex = state.index
	state.index++
	state.stack = append(state.stack, record)

	outer := (*runtime.Environment)(nil)
	if ml.realm != nil {
		outer = ml.realm.GlobalEnv
	}
	record.Env = runtime.NewModuleEnvironment(outer)

	for _, dep := range record.RequestedModules {
		depRecord := ml.registry.Get(dep)
		if depRecord == nil {
			record.Status = StatusErrored
			record.Error = fmt.Errorf("module %s requests unresolved module %s", record.Specifier, dep)
			return state.index, record.Error
		}
		nextIndex, err := ml.innerModuleLinking(depRecord, state)
		if err != nil {
			record.Status = StatusErrored
			record.Error = err
			return state.index, err
		}
		state.index = nextIndex
		if depRecord.Status == StatusLinking && depRecord.DFSAncestorIndex < record.DFSAncestorIndex {
			record.DFSAncestorIndex = depRecord.DFSAncestorIndex
		}
	}

	if err := ml.initializeEnvironment(record); err != nil {
		record.Status = StatusErrored
		record.Error = err
		return state.index, err
	}

	if record.DFSAncestorIndex == record.DFSIndex {
		for {
			n := len(state.stack) - 1
			top := state.stack[n]
			state.stack = state.stack[:n]
			top.Status = StatusLinked
			top.CycleRoot = record
			if top == record {
				break
			}
		}
	}

	return state.index, nil
}

// initializeEnvironment wires up one module's import bindings (spec
// §16.2.1.6.4's binding-instantiation half; the other half — hoisting the
// module's own function/var/let/const declarations — runs inside
// EvaluateModule via moduleDeclarationInstantiation, reusing the same pass
// pkg/interpreter already uses for scripts, right before the body runs).
func (ml *moduleLoader) initializeEnvironment(record *ModuleRecord) error {
	for _, is := range record.ImportSpecs {
		if is.ImportType == ImportSideEffect {
			continue
		}
		target := ml.registry.Get(is.ModulePath)
		if target == nil {
			return fmt.Errorf("module %s imports unresolved module %s", record.Specifier, is.ModulePath)
		}

		switch is.ImportType {
		case ImportNamespace:
			ns, err := ml.getModuleNamespace(target)
			if err != nil {
				return err
			}
			local := is.LocalNames[0]
			if err := record.Env.CreateImmutableBinding(local, true); err != nil {
				return err
			}
			if err := record.Env.InitializeBinding(local, runtime.NewObject(ns)); err != nil {
				return err
			}
		case ImportDefault:
			if err := ml.bindImport(record, is.LocalNames[0], target, "default"); err != nil {
				return err
			}
		case ImportNamed:
			if err := ml.bindImport(record, is.LocalNames[0], target, is.ImportNames[0]); err != nil {
				return err
			}
		}
	}
	return nil
}

// bindImport resolves exportName against target and installs localName in
// record.Env as either a live indirect binding (spec "Create Import
// Binding") or, for a namespace re-export, an ordinary const binding to
// the (cached) namespace object value.
func (ml *moduleLoader) bindImport(record *ModuleRecord, localName string, target *ModuleRecord, exportName string) error {
	resolved, err := ml.resolveExport(target, exportName, make(map[string]bool))
	if err != nil {
		return fmt.Errorf("module %s: %w", record.Specifier, err)
	}
	if resolved == nil {
		return fmt.Errorf("module %s has no export named %q, requested by %s", target.Specifier, exportName, record.Specifier)
	}

	if resolved.BindingName == namespaceBindingSentinel {
		ns, err := ml.getModuleNamespace(resolved.Module)
		if err != nil {
			return err
		}
		if err := record.Env.CreateImmutableBinding(localName, true); err != nil {
			return err
		}
		return record.Env.InitializeBinding(localName, runtime.NewObject(ns))
	}

	record.Env.CreateImportBinding(localName, resolved.Module.Env, resolved.BindingName)
	return nil
}

// Evaluate runs InnerModuleEvaluation (spec §16.2.1.5.2) from specifier:
// every module in the graph is evaluated exactly once, dependencies
// before dependents, with the same Tarjan SCC grouping Link used so a
// cyclic group evaluates as one unit without re-entering a module whose
// body is already running.
func (ml *moduleLoader) Evaluate(specifier string) (runtime.Value, error) {
	record := ml.registry.Get(specifier)
	if record == nil {
		return runtime.Undefined, fmt.Errorf("module not loaded: %s", specifier)
	}
	if record.Status == StatusUnlinked || record.Status == StatusNew {
		if err := ml.Link(specifier); err != nil {
			return runtime.Undefined, err
		}
	}

	switch record.Status {
	case StatusEvaluated:
		return runtime.Undefined, nil
	case StatusErrored:
		return runtime.Undefined, record.Error
	case StatusLinked:
		// proceed
	default:
		return runtime.Undefined, fmt.Errorf("module %s has status %s, not ready to evaluate", specifier, record.Status)
	}

	state := &linkState{}
	if _, err := ml.innerModuleEvaluation(record, state); err != nil {
		return runtime.Undefined, err
	}
	return record.evaluationResult, nil
}

func (ml *moduleLoader) innerModuleEvaluation(record *ModuleRecord, state *linkState) (int, error) {
	switch record.Status {
	case StatusEvaluated:
		return state.index, nil
	case StatusEvaluating, StatusEvaluatingAsync:
		return state.index, nil
	case StatusErrored:
		return state.index, record.Error
	case StatusLinked:
		// proceed
	default:
		return state.index, fmt.Errorf("module %s has status %s, cannot evaluate", record.Specifier, record.Status)
	}

	record.Status = StatusEvaluating
	record.DFSIndex = state.index
	record.DFSAncestorIndex = state.index
	state.index++
	state.stack = append(state.stack, record)

	for _, dep := range record.RequestedModules {
		depRecord := ml.registry.Get(dep)
		if depRecord == nil {
			record.Status = StatusErrored
			record.Error = fmt.Errorf("module %s requests unresolved module %s", record.Specifier, dep)
			return state.index, record.Error
		}
		nextIndex, err := ml.innerModuleEvaluation(depRecord, state)
		if err != nil {
			record.Status = StatusErrored
			record.Error = err
			return state.index, err
		}
		state.index = nextIndex
		if depRecord.Status == StatusEvaluating && depRecord.DFSAncestorIndex < record.DFSAncestorIndex {
			record.DFSAncestorIndex = depRecord.DFSAncestorIndex
		}
	}

	if ml.evaluatorFactory == nil {
		record.Status = StatusErrored
		record.Error = fmt.Errorf("module %s: no evaluator factory configured", record.Specifier)
		return state.index, record.Error
	}
	evaluator := ml.evaluatorFactory()
	result, err := evaluator.EvaluateModule(record.AST, record.Env)
	if err != nil {
		record.Status = StatusErrored
		record.Error = err
		return state.index, err
	}
	record.evaluationResult = result

	if record.DFSAncestorIndex == record.DFSIndex {
		now := time.Now()
		for {
			n := len(state.stack) - 1
			top := state.stack[n]
			state.stack = state.stack[:n]
			top.Status = StatusEvaluated
			top.CompleteTime = now
			if top == record {
				break
			}
		}
	}

	return state.index, nil
}

// GetModuleNamespace returns the (lazily built, cached) Module Namespace
// Exotic Object for an already-loaded module.
func (ml *moduleLoader) GetModuleNamespace(specifier string) (*runtime.Object, error) {
	record := ml.registry.Get(specifier)
	if record == nil {
		return nil, fmt.Errorf("module not loaded: %s", specifier)
	}
	return ml.getModuleNamespace(record)
}

// getModuleNamespace builds a module's namespace object (spec §16.2.1.11
// "GetModuleNamespace"): an ordinary, non-extensible object — tagged with
// ObjectKind KindModuleNamespace purely for identification, since no
// internal method dispatches on it specially — carrying one getter-only
// accessor property per exported name, installed in sorted order to match
// the exotic object's own required [[OwnPropertyKeys]] ordering, plus an
// own @@toStringTag property reading "Module".
func (ml *moduleLoader) getModuleNamespace(record *ModuleRecord) (*runtime.Object, error) {
	if record.Namespace != nil {
		return record.Namespace, nil
	}

	ns := &runtime.Object{Kind: runtime.KindModuleNamespace, Class: "Module", Extensible: true}
	record.Namespace = ns // assigned before population: a re-exported namespace cycle observes this same object

	names := ml.getExportedNames(record, make(map[string]bool))
	sort.Strings(names)

	for _, name := range names {
		resolved, err := ml.resolveExport(record, name, make(map[string]bool))
		if _, ambiguous := err.(*ambiguousExportError); ambiguous {
			continue
		}
		if err != nil {
			return nil, err
		}
		if resolved == nil {
			continue
		}

		if resolved.BindingName == namespaceBindingSentinel {
			innerRecord := resolved.Module
			get := runtime.NewNativeFunction("", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
				inner, err := ml.getModuleNamespace(innerRecord)
				if err != nil {
					return runtime.Undefined, err
				}
				return runtime.NewObject(inner), nil
			})
			ns.DefineAccessor(name, runtime.NewObject(get), runtime.Undefined, true, false)
			continue
		}

		targetEnv := resolved.Module.Env
		bindingName := resolved.BindingName
		get := runtime.NewNativeFunction("", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return targetEnv.GetBindingValue(bindingName, true)
		})
		ns.DefineAccessor(name, runtime.NewObject(get), runtime.Undefined, true, false)
	}

	if ml.realm != nil {
		ns.DefineOwnProperty(runtime.SymbolKey(ml.realm.Symbols.ToStringTag),
			runtime.DataDescriptor(runtime.NewString("Module"), false, false, false))
	}

	if _, err := ns.PreventExtensions(); err != nil {
		return nil, err
	}
	return ns, nil
}
