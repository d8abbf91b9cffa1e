package interpreter

import (
	"strconv"

	"ecmacore/pkg/ast"
	"ecmacore/pkg/runtime"
)

// bindPattern implements BindingInitialization (spec §14.3.3): it destructures
// v into f.env according to p, creating or initializing bindings depending
// on kind. kind==ast.KindVar means "assign to an existing var binding"
// rather than declare a new one (those are pre-hoisted already).
func (ip *Interpreter) bindPattern(f *frame, p ast.Pattern, v runtime.Value, kind ast.DeclarationKind) error {
	switch n := p.(type) {
	case *ast.Identifier:
		return ip.initBinding(f, n.Name, v, kind)

	case *ast.ArrayPattern:
		items, rest, err := ip.destructureArray(f, v, len(n.Elements))
		if err != nil {
			return err
		}
		for i, el := range n.Elements {
			if el.Target == nil {
				continue
			}
			item := runtime.Undefined
			if i < len(items) {
				item = items[i]
			}
			if el.Rest {
				arr := runtime.NewArray(f.realm.Intrinsic("ArrayPrototype"), uint32(len(rest)))
				for j, rv := range rest {
					arr.Set(runtime.StringKey(strconv.Itoa(j)), rv, runtime.NewObject(arr), true)
				}
				if err := ip.bindPattern(f, el.Target, runtime.NewObject(arr), kind); err != nil {
					return err
				}
				continue
			}
			if asgn, ok := el.Target.(*ast.AssignmentPattern); ok {
				if item.IsUndefined() {
					dv, err := ip.eval(f, asgn.Right)
					if err != nil {
						return err
					}
					item = dv
				}
				if err := ip.bindPattern(f, asgn.Left, item, kind); err != nil {
					return err
				}
				continue
			}
			if err := ip.bindPattern(f, el.Target, item, kind); err != nil {
				return err
			}
		}
		return nil

	case *ast.ObjectPattern:
		if v.IsNullish() {
			return runtime.NewTypeErrorValue("Cannot destructure '" + runtime.ToStringSimple(v) + "' as it is " + runtime.ToStringSimple(v) + ".")
		}
		used := map[string]bool{}
		for _, prop := range n.Properties {
			key, err := ip.propertyKeyOf(f, prop.Key, prop.Computed)
			if err != nil {
				return err
			}
			used[key.String()] = true
			obj, err := ip.toObject(f, v)
			if err != nil {
				return err
			}
			pv, err := obj.Get(key, v)
			if err != nil {
				return f.throwSignal(err)
			}
			target := prop.Value
			if asgn, ok := target.(*ast.AssignmentPattern); ok {
				if pv.IsUndefined() {
					dv, err := ip.eval(f, asgn.Right)
					if err != nil {
						return err
					}
					pv = dv
				}
				target = asgn.Left
			}
			if err := ip.bindPattern(f, target, pv, kind); err != nil {
				return err
			}
		}
		if n.Rest != nil {
			obj, err := ip.toObject(f, v)
			if err != nil {
				return err
			}
			restProto := f.realm.Intrinsic("ObjectPrototype")
			rest := runtime.NewPlainObject(restProto)
			keys, err := obj.OwnPropertyKeys()
			if err != nil {
				return f.throwSignal(err)
			}
			for _, k := range keys {
				if used[k.String()] {
					continue
				}
				d, err := obj.GetOwnProperty(k)
				if err != nil {
					return f.throwSignal(err)
				}
				if d == nil || d.Enumerable == nil || !*d.Enumerable {
					continue
				}
				pv, err := obj.Get(k, v)
				if err != nil {
					return f.throwSignal(err)
				}
				rest.DefineDataProperty(k.String(), pv, true, true, true)
			}
			if err := ip.bindPattern(f, n.Rest, runtime.NewObject(rest), kind); err != nil {
				return err
			}
		}
		return nil

	case *ast.AssignmentPattern:
		if v.IsUndefined() {
			dv, err := ip.eval(f, n.Right)
			if err != nil {
				return err
			}
			v = dv
		}
		return ip.bindPattern(f, n.Left, v, kind)

	case *ast.RestElement:
		return ip.bindPattern(f, n.Argument, v, kind)

	default:
		return runtime.NewSyntaxErrorValue("invalid binding pattern")
	}
}

func (ip *Interpreter) initBinding(f *frame, name string, v runtime.Value, kind ast.DeclarationKind) error {
	nameAnonymousFunction(v, name)
	switch kind {
	case ast.KindVar:
		return f.env.SetMutableBinding(name, v, false)
	default:
		return f.env.InitializeBinding(name, v)
	}
}

// destructureArray drains an iterable into up to want elements plus
// whatever remains for a trailing rest element, implementing enough of
// IteratorBindingInitialization to support array patterns without fully
// materializing infinite iterables unless a rest element demands it.
func (ip *Interpreter) destructureArray(f *frame, v runtime.Value, want int) (items []runtime.Value, rest []runtime.Value, err error) {
	it, err := ip.getIterator(f, v)
	if err != nil {
		return nil, nil, err
	}
	for i := 0; i < want; i++ {
		val, done, err := ip.iteratorStep(f, it)
		if err != nil {
			return nil, nil, err
		}
		if done {
			items = append(items, runtime.Undefined)
			continue
		}
		items = append(items, val)
	}
	for {
		val, done, err := ip.iteratorStep(f, it)
		if err != nil {
			return nil, nil, err
		}
		if done {
			break
		}
		rest = append(rest, val)
	}
	return items, rest, nil
}

// assignTarget implements DestructuringAssignmentTarget for plain
// assignment expressions (`[a, b.c] = arr`), where the left side is an
// already-evaluated reference (Identifier or MemberExpression) rather than
// a fresh binding.
func (ip *Interpreter) assignTarget(f *frame, target ast.Expression, v runtime.Value) error {
	switch t := target.(type) {
	case *ast.Identifier:
		nameAnonymousFunction(v, t.Name)
		if err := f.env.SetMutableBinding(t.Name, v, f.strict); err != nil {
			return f.throwSignal(err)
		}
		return nil

	case *ast.MemberExpression:
		obj, key, err := ip.evalMemberRef(f, t)
		if err != nil {
			return err
		}
		if _, err := obj.Set(key, v, runtime.NewObject(obj), f.strict); err != nil {
			return f.throwSignal(err)
		}
		return nil

	case *ast.ArrayLiteral:
		items, rest, err := ip.destructureArray(f, v, countArrayTargets(t))
		if err != nil {
			return err
		}
		idx := 0
		for _, el := range t.Elements {
			if el.Expr == nil {
				idx++
				continue
			}
			if se, ok := el.Expr.(*ast.SpreadElement); ok {
				arr := runtime.NewArray(f.realm.Intrinsic("ArrayPrototype"), uint32(len(rest)))
				for j, rv := range rest {
					arr.Set(runtime.StringKey(strconv.Itoa(j)), rv, runtime.NewObject(arr), true)
				}
				if err := ip.assignTarget(f, se.Argument, runtime.NewObject(arr)); err != nil {
					return err
				}
				continue
			}
			item := runtime.Undefined
			if idx < len(items) {
				item = items[idx]
			}
			idx++
			if asgn, ok := el.Expr.(*ast.AssignmentExpression); ok && asgn.Operator == "=" {
				if item.IsUndefined() {
					dv, err := ip.eval(f, asgn.Right)
					if err != nil {
						return err
					}
					item = dv
				}
				if err := ip.assignTarget(f, asgn.Left.(ast.Expression), item); err != nil {
					return err
				}
				continue
			}
			if err := ip.assignTarget(f, el.Expr, item); err != nil {
				return err
			}
		}
		return nil

	case *ast.ObjectLiteral:
		used := map[string]bool{}
		for _, prop := range t.Properties {
			key, err := ip.propertyKeyOf(f, prop.Key, prop.Computed)
			if err != nil {
				return err
			}
			used[key.String()] = true
			obj, err := ip.toObject(f, v)
			if err != nil {
				return err
			}
			pv, err := obj.Get(key, v)
			if err != nil {
				return f.throwSignal(err)
			}
			target := prop.Value
			if asgn, ok := target.(*ast.AssignmentExpression); ok && asgn.Operator == "=" {
				if pv.IsUndefined() {
					dv, err := ip.eval(f, asgn.Right)
					if err != nil {
						return err
					}
					pv = dv
				}
				target = asgn.Left.(ast.Expression)
			}
			if err := ip.assignTarget(f, target, pv); err != nil {
				return err
			}
		}
		return nil

	default:
		return runtime.NewSyntaxErrorValue("invalid assignment target")
	}
}

func countArrayTargets(lit *ast.ArrayLiteral) int {
	n := 0
	for _, el := range lit.Elements {
		if el.Expr == nil {
			n++
			continue
		}
		if _, ok := el.Expr.(*ast.SpreadElement); ok {
			break
		}
		n++
	}
	return n
}

// nameAnonymousFunction implements NamedEvaluation (spec §8.3.3): an
// anonymous function/class expression assigned directly to a simple
// binding picks up that binding's name, so `const f = () => {}` yields a
// function whose .name is "f" instead of "".
func nameAnonymousFunction(v runtime.Value, name string) {
	if v.Type() != runtime.TypeObject {
		return
	}
	obj := v.AsObject()
	if obj.Kind != runtime.KindFunction {
		return
	}
	if obj.FunctionName != "" {
		return
	}
	obj.FunctionName = name
	obj.DefineDataProperty("name", runtime.NewString(name), false, false, true)
}
