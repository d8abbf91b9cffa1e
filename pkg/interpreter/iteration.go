package interpreter

import (
	"ecmacore/pkg/ast"
	"ecmacore/pkg/runtime"
)

// iterRecord is the step-by-step analog of intrinsics.IterableToSlice: it
// keeps the iterator object and its `next` method around so a for-of loop
// or destructuring assignment can stop early and still call `.return()`
// on the underlying iterator (spec "IteratorClose"), which a fully-drained
// helper cannot support.
type iterRecord struct {
	iter   runtime.Value
	nextFn runtime.Value
	done   bool
}

func (ip *Interpreter) getIterator(f *frame, v runtime.Value) (*iterRecord, error) {
	if v.Type() != runtime.TypeObject {
		return nil, f.throwSignal(runtime.NewTypeErrorValue(v.DebugString() + " is not iterable"))
	}
	iterFnVal, err := v.AsObject().Get(runtime.SymbolKey(f.realm.Symbols.Iterator), v)
	if err != nil {
		return nil, f.throwSignal(err)
	}
	if !iterFnVal.IsCallable() {
		return nil, f.throwSignal(runtime.NewTypeErrorValue(v.DebugString() + " is not iterable"))
	}
	iterVal, err := runtime.Call(iterFnVal, v, nil)
	if err != nil {
		return nil, err
	}
	if iterVal.Type() != runtime.TypeObject {
		return nil, f.throwSignal(runtime.NewTypeErrorValue("Result of the Symbol.iterator method is not an object"))
	}
	nextFnVal, err := iterVal.AsObject().Get(runtime.StringKey("next"), iterVal)
	if err != nil {
		return nil, f.throwSignal(err)
	}
	return &iterRecord{iter: iterVal, nextFn: nextFnVal}, nil
}

func (ip *Interpreter) iteratorStep(f *frame, it *iterRecord) (runtime.Value, bool, error) {
	if it.done {
		return runtime.Undefined, true, nil
	}
	res, err := runtime.Call(it.nextFn, it.iter, nil)
	if err != nil {
		it.done = true
		return runtime.Undefined, true, err
	}
	if res.Type() != runtime.TypeObject {
		it.done = true
		return runtime.Undefined, true, f.throwSignal(runtime.NewTypeErrorValue("Iterator result is not an object"))
	}
	done, err := res.AsObject().Get(runtime.StringKey("done"), res)
	if err != nil {
		it.done = true
		return runtime.Undefined, true, f.throwSignal(err)
	}
	if done.ToBoolean() {
		it.done = true
		return runtime.Undefined, true, nil
	}
	value, err := res.AsObject().Get(runtime.StringKey("value"), res)
	if err != nil {
		it.done = true
		return runtime.Undefined, true, f.throwSignal(err)
	}
	return value, false, nil
}

// iteratorClose calls `.return()` on an iterator abandoned early (a
// `break`, `return`, or thrown error inside a for-of body), per spec
// "IteratorClose" — errors from a missing or non-callable return method
// are swallowed since the loop's own completion already takes priority.
func (ip *Interpreter) iteratorClose(it *iterRecord) {
	if it.done || it.iter.Type() != runtime.TypeObject {
		return
	}
	retFn, err := it.iter.AsObject().Get(runtime.StringKey("return"), it.iter)
	if err != nil || !retFn.IsCallable() {
		return
	}
	runtime.Call(retFn, it.iter, nil)
}

func (ip *Interpreter) execForOf(f *frame, s *ast.ForOfStatement) (runtime.Completion, error) {
	rv, err := ip.eval(f, s.Right)
	if err != nil {
		return runtime.Completion{}, err
	}
	it, err := ip.getIterator(f, rv)
	if err != nil {
		return runtime.Completion{}, err
	}
	labels := f.labels
	var result runtime.Completion
	for {
		if err := f.realm.Quota.CheckStatement(); err != nil {
			ip.iteratorClose(it)
			return runtime.Completion{}, err
		}
		v, done, err := ip.iteratorStep(f, it)
		if err != nil {
			return runtime.Completion{}, err
		}
		if done {
			return result, nil
		}
		iterEnv := runtime.NewDeclarativeEnvironment(f.env)
		nf := f.withEnv(iterEnv)
		if err := ip.bindForTarget(&nf, s.Left, v); err != nil {
			ip.iteratorClose(it)
			return runtime.Completion{}, err
		}
		c, err := ip.exec(&nf, s.Body)
		if err != nil {
			ip.iteratorClose(it)
			return runtime.Completion{}, err
		}
		switch {
		case c.Kind == runtime.CompletionBreak && matchesLoopLabel(c.Label, labels):
			ip.iteratorClose(it)
			return runtime.NormalCompletion(result.Value), nil
		case c.Kind == runtime.CompletionContinue && matchesLoopLabel(c.Label, labels):
			// next iteration
		case c.IsAbrupt():
			ip.iteratorClose(it)
			return c, nil
		default:
			result = c
		}
	}
}

// execForIn enumerates the target's own and inherited enumerable string
// keys (spec "ForIn/OfHeadEvaluation" + "EnumerateObjectProperties"),
// skipping names already yielded by a lower link in the prototype chain.
func (ip *Interpreter) execForIn(f *frame, s *ast.ForInStatement) (runtime.Completion, error) {
	rv, err := ip.eval(f, s.Right)
	if err != nil {
		return runtime.Completion{}, err
	}
	if rv.IsNullish() {
		return runtime.NormalCompletion(runtime.Undefined), nil
	}
	obj, err := ip.toObject(f, rv)
	if err != nil {
		return runtime.Completion{}, err
	}

	seen := map[string]bool{}
	var names []string
	for cur := obj; cur != nil; {
		keys, err := cur.OwnPropertyKeys()
		if err != nil {
			return runtime.Completion{}, f.throwSignal(err)
		}
		for _, k := range keys {
			if k.IsSymbol() || seen[k.Name()] {
				continue
			}
			seen[k.Name()] = true
			d, err := cur.GetOwnProperty(k)
			if err != nil {
				return runtime.Completion{}, f.throwSignal(err)
			}
			if d != nil && d.Enumerable != nil && *d.Enumerable {
				names = append(names, k.Name())
			}
		}
		next, err := cur.GetPrototypeOf()
		if err != nil {
			return runtime.Completion{}, f.throwSignal(err)
		}
		cur = next
	}

	labels := f.labels
	var result runtime.Completion
	for _, name := range names {
		if err := f.realm.Quota.CheckStatement(); err != nil {
			return runtime.Completion{}, err
		}
		iterEnv := runtime.NewDeclarativeEnvironment(f.env)
		nf := f.withEnv(iterEnv)
		if err := ip.bindForTarget(&nf, s.Left, runtime.NewString(name)); err != nil {
			return runtime.Completion{}, err
		}
		c, err := ip.exec(&nf, s.Body)
		if err != nil {
			return runtime.Completion{}, err
		}
		switch {
		case c.Kind == runtime.CompletionBreak && matchesLoopLabel(c.Label, labels):
			return runtime.NormalCompletion(result.Value), nil
		case c.Kind == runtime.CompletionContinue && matchesLoopLabel(c.Label, labels):
			continue
		case c.IsAbrupt():
			return c, nil
		default:
			result = c
		}
	}
	return result, nil
}

// bindForTarget handles both declaration forms (`for (let x of ...)`) and
// plain-reference forms (`for (x of ...)`) a for-in/for-of head may use.
func (ip *Interpreter) bindForTarget(f *frame, left ast.Node, v runtime.Value) error {
	switch l := left.(type) {
	case *ast.VariableDeclaration:
		d := l.Declarations[0]
		if l.Kind != ast.KindVar {
			for _, n := range patternNames(d.Id) {
				if l.Kind == ast.KindConst {
					f.env.CreateImmutableBinding(n, f.strict)
				} else {
					f.env.CreateMutableBinding(n, false)
				}
			}
		}
		return ip.bindPattern(f, d.Id, v, l.Kind)
	case ast.Expression:
		return ip.assignTarget(f, l, v)
	default:
		return runtime.NewSyntaxErrorValue("invalid for-in/for-of target")
	}
}
