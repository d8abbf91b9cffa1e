package interpreter

import (
	"math"
	"math/big"

	"ecmacore/pkg/ast"
	"ecmacore/pkg/runtime"
)

// resolveEnv implements the ResolveBinding abstract operation: it walks the
// lexical environment chain calling HasBinding on each record in turn,
// since neither Environment.GetBindingValue nor SetMutableBinding do that
// walk themselves (each only inspects its own record, plus a direct jump
// to the global record for SetMutableBinding's sloppy-mode fallback).
func resolveEnv(env *runtime.Environment, name string) *runtime.Environment {
	for e := env; e != nil; e = e.Outer {
		if has, _ := e.HasBinding(name); has {
			return e
		}
	}
	return nil
}

func (ip *Interpreter) evalIdentifier(f *frame, name string) (runtime.Value, error) {
	env := resolveEnv(f.env, name)
	if env == nil {
		return runtime.Undefined, f.throwSignal(runtime.NewReferenceErrorValue(name + " is not defined"))
	}
	v, err := env.GetBindingValue(name, f.strict)
	if err != nil {
		return runtime.Undefined, f.throwSignal(err)
	}
	return v, nil
}

func (ip *Interpreter) assignIdentifier(f *frame, name string, v runtime.Value) error {
	env := resolveEnv(f.env, name)
	if env == nil {
		env = f.env
	}
	if err := env.SetMutableBinding(name, v, f.strict); err != nil {
		return f.throwSignal(err)
	}
	return nil
}

// eval is the tree-walking analog of spec §4.5's per-node "Evaluation"
// semantic for expressions: it returns the expression's value or
// propagates a Go error (either a *runtime.Throw for a script-level
// exception or a pre-conversion RuntimeSignal a caller further up will
// pass through throwSignal). It resolves an optional-chain short-circuit
// to plain Undefined, since from any non-chain caller's perspective a
// short-circuited chain and one that genuinely evaluated to undefined are
// indistinguishable; evalRaw's internal chain-link recursion uses
// evalRaw directly to keep the sentinel alive across nested links.
func (ip *Interpreter) eval(f *frame, expr ast.Expression) (runtime.Value, error) {
	v, err := ip.evalRaw(f, expr)
	if err == errOptionalShortCircuit {
		return runtime.Undefined, nil
	}
	return v, err
}

func (ip *Interpreter) evalRaw(f *frame, expr ast.Expression) (runtime.Value, error) {
	switch e := expr.(type) {
	case *ast.Identifier:
		return ip.evalIdentifier(f, e.Name)

	case *ast.NullLiteral:
		return runtime.Null, nil
	case *ast.BooleanLiteral:
		return runtime.NewBool(e.Value), nil
	case *ast.NumericLiteral:
		return runtime.NewNumber(e.Value), nil
	case *ast.BigIntLiteral:
		return runtime.NewBigInt(new(big.Int).Set(e.Value)), nil
	case *ast.StringLiteral:
		return runtime.NewString(e.Value), nil
	case *ast.RegExpLiteral:
		return ip.evalRegExpLiteral(f, e)

	case *ast.ThisExpression:
		v, err := f.env.GetThisBinding()
		if err != nil {
			return runtime.Undefined, f.throwSignal(err)
		}
		return v, nil

	case *ast.MetaProperty:
		if e.Meta == "new" && e.Property == "target" {
			return f.env.NewTarget(), nil
		}
		return runtime.Undefined, nil

	case *ast.TemplateLiteral:
		return ip.evalTemplateLiteral(f, e)
	case *ast.TaggedTemplateExpression:
		return ip.evalTaggedTemplate(f, e)

	case *ast.ArrayLiteral:
		return ip.evalArrayLiteral(f, e)
	case *ast.ObjectLiteral:
		return ip.evalObjectLiteral(f, e)

	case *ast.FunctionExpression:
		return runtime.NewObject(ip.makeNamedFunctionExpression(f, e.FunctionShape)), nil
	case *ast.ArrowFunctionExpression:
		return runtime.NewObject(ip.makeFunction(f, e.FunctionShape, true, e.ExpressionBody)), nil
	case *ast.ClassExpression:
		cls, err := ip.evalClass(f, e.ClassShape)
		if err != nil {
			return runtime.Undefined, err
		}
		return runtime.NewObject(cls), nil

	case *ast.SequenceExpression:
		var v runtime.Value
		for _, ex := range e.Expressions {
			var err error
			v, err = ip.eval(f, ex)
			if err != nil {
				return runtime.Undefined, err
			}
		}
		return v, nil

	case *ast.UnaryExpression:
		return ip.evalUnary(f, e)
	case *ast.UpdateExpression:
		return ip.evalUpdate(f, e)
	case *ast.BinaryExpression:
		return ip.evalBinary(f, e)
	case *ast.LogicalExpression:
		return ip.evalLogical(f, e)
	case *ast.ConditionalExpression:
		t, err := ip.eval(f, e.Test)
		if err != nil {
			return runtime.Undefined, err
		}
		if t.ToBoolean() {
			return ip.eval(f, e.Consequent)
		}
		return ip.eval(f, e.Alternate)

	case *ast.AssignmentExpression:
		return ip.evalAssignment(f, e)

	case *ast.MemberExpression:
		return ip.evalMember(f, e)

	case *ast.CallExpression:
		return ip.evalCall(f, e)
	case *ast.NewExpression:
		return ip.evalNew(f, e)

	case *ast.YieldExpression:
		return ip.evalYield(f, e)
	case *ast.AwaitExpression:
		return ip.evalAwait(f, e)

	case *ast.SpreadElement:
		// reachable only via malformed/defensive calls; spread is consumed
		// by its containing array/call/object literal evaluator.
		return runtime.Undefined, runtime.NewSyntaxErrorValue("unexpected spread element")

	default:
		return runtime.Undefined, runtime.NewSyntaxErrorValue("unsupported expression node")
	}
}

func (ip *Interpreter) evalRegExpLiteral(f *frame, e *ast.RegExpLiteral) (runtime.Value, error) {
	ctor := f.realm.Intrinsic("RegExp")
	if ctor == nil || ctor.Construct == nil {
		return runtime.Undefined, f.throwSignal(runtime.NewTypeErrorValue("RegExp is not available"))
	}
	v, err := ctor.Construct([]runtime.Value{runtime.NewString(e.Pattern), runtime.NewString(e.Flags)}, runtime.NewObject(ctor))
	if err != nil {
		return runtime.Undefined, err
	}
	return v, nil
}

func (ip *Interpreter) evalTemplateLiteral(f *frame, e *ast.TemplateLiteral) (runtime.Value, error) {
	var sb []byte
	for i, q := range e.Quasis {
		sb = append(sb, q.Cooked...)
		if i < len(e.Expressions) {
			v, err := ip.eval(f, e.Expressions[i])
			if err != nil {
				return runtime.Undefined, err
			}
			s, err := ip.toStringValue(f, v)
			if err != nil {
				return runtime.Undefined, err
			}
			sb = append(sb, s...)
		}
	}
	return runtime.NewString(string(sb)), nil
}

// templateStringsArray builds the frozen "cooked strings" array (plus its
// `.raw` sibling) a tagged template call receives as its first argument,
// reusing realm.TemplateCache so repeated evaluation of the same literal
// yields the identical array object (spec: tagged template identity rule).
func (ip *Interpreter) templateStringsArray(f *frame, quasi *ast.TemplateLiteral) *runtime.Object {
	if cached, ok := f.realm.TemplateCache[quasi]; ok {
		return cached
	}
	n := uint32(len(quasi.Quasis))
	strings := runtime.NewArray(f.realm.Intrinsic("ArrayPrototype"), n)
	raw := runtime.NewArray(f.realm.Intrinsic("ArrayPrototype"), n)
	for i, q := range quasi.Quasis {
		strings.DefineDataProperty(runtime.NumberToString(float64(i)), runtime.NewString(q.Cooked), false, true, false)
		raw.DefineDataProperty(runtime.NumberToString(float64(i)), runtime.NewString(q.Raw), false, false, false)
	}
	strings.PreventExtensions()
	raw.PreventExtensions()
	strings.DefineDataProperty("raw", runtime.NewObject(raw), false, false, false)
	strings.PreventExtensions()
	f.realm.TemplateCache[quasi] = strings
	return strings
}

func (ip *Interpreter) evalTaggedTemplate(f *frame, e *ast.TaggedTemplateExpression) (runtime.Value, error) {
	thisVal, tagFn, err := ip.evalCallee(f, e.Tag)
	if err != nil {
		return runtime.Undefined, err
	}
	args := []runtime.Value{runtime.NewObject(ip.templateStringsArray(f, e.Quasi))}
	for _, ex := range e.Quasi.Expressions {
		v, err := ip.eval(f, ex)
		if err != nil {
			return runtime.Undefined, err
		}
		args = append(args, v)
	}
	v, err := runtime.Call(tagFn, thisVal, args)
	if err != nil {
		return runtime.Undefined, f.throwSignal(err)
	}
	return v, nil
}

func (ip *Interpreter) evalArrayLiteral(f *frame, e *ast.ArrayLiteral) (runtime.Value, error) {
	arr := runtime.NewArray(f.realm.Intrinsic("ArrayPrototype"), 0)
	idx := uint32(0)
	for _, el := range e.Elements {
		if el.Expr == nil {
			idx++
			continue
		}
		if se, ok := el.Expr.(*ast.SpreadElement); ok {
			v, err := ip.eval(f, se.Argument)
			if err != nil {
				return runtime.Undefined, err
			}
			items, err := ip.iterableToSlice(f, v)
			if err != nil {
				return runtime.Undefined, err
			}
			for _, item := range items {
				arr.DefineDataProperty(runtime.NumberToString(float64(idx)), item, true, true, true)
				idx++
			}
			continue
		}
		v, err := ip.eval(f, el.Expr)
		if err != nil {
			return runtime.Undefined, err
		}
		arr.DefineDataProperty(runtime.NumberToString(float64(idx)), v, true, true, true)
		idx++
	}
	return runtime.NewObject(arr), nil
}

// iterableToSlice drains v step-by-step via getIterator/iteratorStep
// (rather than intrinsics.IterableToSlice) so this package has one
// iterator-draining helper whose errors are already wrapped through
// throwSignal.
func (ip *Interpreter) iterableToSlice(f *frame, v runtime.Value) ([]runtime.Value, error) {
	it, err := ip.getIterator(f, v)
	if err != nil {
		return nil, err
	}
	var out []runtime.Value
	for {
		val, done, err := ip.iteratorStep(f, it)
		if err != nil {
			return nil, err
		}
		if done {
			return out, nil
		}
		out = append(out, val)
	}
}

func (ip *Interpreter) evalObjectLiteral(f *frame, e *ast.ObjectLiteral) (runtime.Value, error) {
	obj := runtime.NewPlainObject(f.realm.Intrinsic("ObjectPrototype"))
	for _, prop := range e.Properties {
		if prop.Kind == ast.PropertySpread {
			v, err := ip.eval(f, prop.Value)
			if err != nil {
				return runtime.Undefined, err
			}
			if v.IsNullish() {
				continue
			}
			src, err := ip.toObject(f, v)
			if err != nil {
				return runtime.Undefined, err
			}
			keys, err := src.OwnPropertyKeys()
			if err != nil {
				return runtime.Undefined, f.throwSignal(err)
			}
			for _, k := range keys {
				d, err := src.GetOwnProperty(k)
				if err != nil {
					return runtime.Undefined, f.throwSignal(err)
				}
				if d == nil || d.Enumerable == nil || !*d.Enumerable {
					continue
				}
				pv, err := src.Get(k, v)
				if err != nil {
					return runtime.Undefined, f.throwSignal(err)
				}
				obj.DefineDataProperty(k.String(), pv, true, true, true)
			}
			continue
		}
		key, err := ip.propertyKeyOf(f, prop.Key, prop.Computed)
		if err != nil {
			return runtime.Undefined, err
		}
		switch prop.Kind {
		case ast.PropertyGet:
			fn := ip.makeFunction(f, prop.Value.(*ast.FunctionExpression).FunctionShape, false, nil)
			runtime.ClosureOf(fn).HomeObject = obj
			existing, err := obj.GetOwnProperty(key)
			if err != nil {
				return runtime.Undefined, f.throwSignal(err)
			}
			setVal := runtime.Undefined
			if existing != nil && existing.Set != nil {
				setVal = *existing.Set
			}
			obj.DefineAccessor(key.String(), runtime.NewObject(fn), setVal, true, true)
		case ast.PropertySet:
			fn := ip.makeFunction(f, prop.Value.(*ast.FunctionExpression).FunctionShape, false, nil)
			runtime.ClosureOf(fn).HomeObject = obj
			existing, err := obj.GetOwnProperty(key)
			if err != nil {
				return runtime.Undefined, f.throwSignal(err)
			}
			getVal := runtime.Undefined
			if existing != nil && existing.Get != nil {
				getVal = *existing.Get
			}
			obj.DefineAccessor(key.String(), getVal, runtime.NewObject(fn), true, true)
		default:
			v, err := ip.eval(f, prop.Value)
			if err != nil {
				return runtime.Undefined, err
			}
			if key.IsString() {
				nameAnonymousFunction(v, key.Name())
			}
			if fe, ok := prop.Value.(*ast.FunctionExpression); ok && fe.Id == nil {
				if v.Type() == runtime.TypeObject && v.AsObject().Kind == runtime.KindFunction {
					if c := runtime.ClosureOf(v.AsObject()); c != nil {
						c.HomeObject = obj
					}
				}
			}
			obj.DefineOwnProperty(key, runtime.DataDescriptor(v, true, true, true))
		}
	}
	return runtime.NewObject(obj), nil
}

func (ip *Interpreter) evalUnary(f *frame, e *ast.UnaryExpression) (runtime.Value, error) {
	if e.Operator == "typeof" {
		if id, ok := e.Argument.(*ast.Identifier); ok {
			if resolveEnv(f.env, id.Name) == nil {
				return runtime.NewString("undefined"), nil
			}
		}
		v, err := ip.eval(f, e.Argument)
		if err != nil {
			return runtime.Undefined, err
		}
		return runtime.NewString(typeofString(v)), nil
	}
	if e.Operator == "delete" {
		return ip.evalDelete(f, e.Argument)
	}
	v, err := ip.eval(f, e.Argument)
	if err != nil {
		return runtime.Undefined, err
	}
	switch e.Operator {
	case "void":
		return runtime.Undefined, nil
	case "!":
		return runtime.NewBool(!v.ToBoolean()), nil
	case "-":
		n, err := ip.toNumeric(f, v)
		if err != nil {
			return runtime.Undefined, err
		}
		if n.IsBigInt() {
			return runtime.NewBigInt(new(big.Int).Neg(n.AsBigInt())), nil
		}
		return runtime.NewNumber(-n.AsNumber()), nil
	case "+":
		n, err := ip.toNumeric(f, v)
		if err != nil {
			return runtime.Undefined, err
		}
		if n.IsBigInt() {
			return runtime.Undefined, f.throwSignal(runtime.NewTypeErrorValue("Cannot convert a BigInt value to a number"))
		}
		return n, nil
	case "~":
		n, err := ip.toNumeric(f, v)
		if err != nil {
			return runtime.Undefined, err
		}
		if n.IsBigInt() {
			return runtime.NewBigInt(new(big.Int).Not(n.AsBigInt())), nil
		}
		return runtime.NewNumber(float64(^runtime.ToInt32(n.AsNumber()))), nil
	default:
		return runtime.Undefined, runtime.NewSyntaxErrorValue("unsupported unary operator " + e.Operator)
	}
}

func typeofString(v runtime.Value) string {
	switch v.Type() {
	case runtime.TypeUndefined:
		return "undefined"
	case runtime.TypeNull:
		return "object"
	case runtime.TypeBoolean:
		return "boolean"
	case runtime.TypeNumber:
		return "number"
	case runtime.TypeString:
		return "string"
	case runtime.TypeBigInt:
		return "bigint"
	case runtime.TypeSymbol:
		return "symbol"
	case runtime.TypeObject:
		if v.IsCallable() {
			return "function"
		}
		return "object"
	default:
		return "undefined"
	}
}

func (ip *Interpreter) evalDelete(f *frame, arg ast.Expression) (runtime.Value, error) {
	m, ok := arg.(*ast.MemberExpression)
	if !ok {
		if _, err := ip.eval(f, arg); err != nil {
			return runtime.Undefined, err
		}
		return runtime.NewBool(true), nil
	}
	if _, ok := m.Object.(*ast.SuperExpression); ok {
		return runtime.Undefined, f.throwSignal(runtime.NewReferenceErrorValue("Unsupported reference to 'super'"))
	}
	ov, err := ip.evalRaw(f, m.Object)
	if err != nil {
		return runtime.Undefined, err
	}
	if m.Optional && ov.IsNullish() {
		return runtime.NewBool(true), nil
	}
	obj, err := ip.toObject(f, ov)
	if err != nil {
		return runtime.Undefined, err
	}
	key, err := ip.propertyKeyOf(f, m.Property, m.Computed)
	if err != nil {
		return runtime.Undefined, err
	}
	ok2, err := obj.Delete(key)
	if err != nil {
		return runtime.Undefined, f.throwSignal(err)
	}
	if !ok2 && f.strict {
		return runtime.Undefined, f.throwSignal(runtime.NewTypeErrorValue("Cannot delete property '" + key.String() + "'"))
	}
	return runtime.NewBool(ok2), nil
}

func (ip *Interpreter) evalUpdate(f *frame, e *ast.UpdateExpression) (runtime.Value, error) {
	old, err := ip.eval(f, e.Argument)
	if err != nil {
		return runtime.Undefined, err
	}
	n, err := ip.toNumeric(f, old)
	if err != nil {
		return runtime.Undefined, err
	}
	var next runtime.Value
	if n.IsBigInt() {
		delta := big.NewInt(1)
		if e.Operator == "--" {
			delta = big.NewInt(-1)
		}
		next = runtime.NewBigInt(new(big.Int).Add(n.AsBigInt(), delta))
	} else {
		delta := 1.0
		if e.Operator == "--" {
			delta = -1.0
		}
		next = runtime.NewNumber(n.AsNumber() + delta)
	}
	if err := ip.assignTarget(f, e.Argument, next); err != nil {
		return runtime.Undefined, err
	}
	if e.Prefix {
		return next, nil
	}
	return n, nil
}

func (ip *Interpreter) evalBinary(f *frame, e *ast.BinaryExpression) (runtime.Value, error) {
	lv, err := ip.eval(f, e.Left)
	if err != nil {
		return runtime.Undefined, err
	}
	rv, err := ip.eval(f, e.Right)
	if err != nil {
		return runtime.Undefined, err
	}
	return ip.applyBinary(f, e.Operator, lv, rv)
}

func (ip *Interpreter) applyBinary(f *frame, op string, lv, rv runtime.Value) (runtime.Value, error) {
	switch op {
	case "+":
		return ip.evalAdd(f, lv, rv)
	case "-", "*", "/", "%", "**":
		return ip.evalArith(f, op, lv, rv)
	case "&", "|", "^", "<<", ">>", ">>>":
		return ip.evalBitwise(f, op, lv, rv)
	case "==":
		ok, err := runtime.LooseEquals(lv, rv, ip.toPrimitiveDefault(f))
		if err != nil {
			return runtime.Undefined, err
		}
		return runtime.NewBool(ok), nil
	case "!=":
		ok, err := runtime.LooseEquals(lv, rv, ip.toPrimitiveDefault(f))
		if err != nil {
			return runtime.Undefined, err
		}
		return runtime.NewBool(!ok), nil
	case "===":
		return runtime.NewBool(runtime.StrictEquals(lv, rv)), nil
	case "!==":
		return runtime.NewBool(!runtime.StrictEquals(lv, rv)), nil
	case "<", ">", "<=", ">=":
		return ip.evalRelational(f, op, lv, rv)
	case "in":
		if rv.Type() != runtime.TypeObject {
			return runtime.Undefined, f.throwSignal(runtime.NewTypeErrorValue("Cannot use 'in' operator to search for '" + runtime.ToStringSimple(lv) + "' in " + runtime.ToStringSimple(rv)))
		}
		key, err := runtime.ToPropertyKey(lv, ip.toPrimitiveString(f))
		if err != nil {
			return runtime.Undefined, f.throwSignal(err)
		}
		ok, err := rv.AsObject().HasProperty(key)
		if err != nil {
			return runtime.Undefined, f.throwSignal(err)
		}
		return runtime.NewBool(ok), nil
	case "instanceof":
		ok, err := ip.instanceOf(f, lv, rv)
		if err != nil {
			return runtime.Undefined, err
		}
		return runtime.NewBool(ok), nil
	default:
		return runtime.Undefined, runtime.NewSyntaxErrorValue("unsupported operator " + op)
	}
}

func (ip *Interpreter) evalAdd(f *frame, lv, rv runtime.Value) (runtime.Value, error) {
	lp, err := ip.toPrimitive(f, lv, "")
	if err != nil {
		return runtime.Undefined, err
	}
	rp, err := ip.toPrimitive(f, rv, "")
	if err != nil {
		return runtime.Undefined, err
	}
	if lp.IsString() || rp.IsString() {
		ls, err := ip.toStringValue(f, lp)
		if err != nil {
			return runtime.Undefined, err
		}
		rs, err := ip.toStringValue(f, rp)
		if err != nil {
			return runtime.Undefined, err
		}
		return runtime.NewString(ls + rs), nil
	}
	ln, err := ip.toNumeric(f, lp)
	if err != nil {
		return runtime.Undefined, err
	}
	rn, err := ip.toNumeric(f, rp)
	if err != nil {
		return runtime.Undefined, err
	}
	if ln.IsBigInt() != rn.IsBigInt() {
		return runtime.Undefined, f.throwSignal(runtime.NewTypeErrorValue("Cannot mix BigInt and other types, use explicit conversions"))
	}
	if ln.IsBigInt() {
		return runtime.NewBigInt(new(big.Int).Add(ln.AsBigInt(), rn.AsBigInt())), nil
	}
	return runtime.NewNumber(ln.AsNumber() + rn.AsNumber()), nil
}

func (ip *Interpreter) evalArith(f *frame, op string, lv, rv runtime.Value) (runtime.Value, error) {
	ln, err := ip.toNumeric(f, lv)
	if err != nil {
		return runtime.Undefined, err
	}
	rn, err := ip.toNumeric(f, rv)
	if err != nil {
		return runtime.Undefined, err
	}
	if ln.IsBigInt() != rn.IsBigInt() {
		return runtime.Undefined, f.throwSignal(runtime.NewTypeErrorValue("Cannot mix BigInt and other types, use explicit conversions"))
	}
	if ln.IsBigInt() {
		a, b := ln.AsBigInt(), rn.AsBigInt()
		switch op {
		case "-":
			return runtime.NewBigInt(new(big.Int).Sub(a, b)), nil
		case "*":
			return runtime.NewBigInt(new(big.Int).Mul(a, b)), nil
		case "/":
			if b.Sign() == 0 {
				return runtime.Undefined, f.throwSignal(runtime.NewRangeErrorValue("Division by zero"))
			}
			return runtime.NewBigInt(new(big.Int).Quo(a, b)), nil
		case "%":
			if b.Sign() == 0 {
				return runtime.Undefined, f.throwSignal(runtime.NewRangeErrorValue("Division by zero"))
			}
			return runtime.NewBigInt(new(big.Int).Rem(a, b)), nil
		case "**":
			if b.Sign() < 0 {
				return runtime.Undefined, f.throwSignal(runtime.NewRangeErrorValue("Exponent must be non-negative"))
			}
			return runtime.NewBigInt(new(big.Int).Exp(a, b, nil)), nil
		}
	}
	a, b := ln.AsNumber(), rn.AsNumber()
	switch op {
	case "-":
		return runtime.NewNumber(a - b), nil
	case "*":
		return runtime.NewNumber(a * b), nil
	case "/":
		return runtime.NewNumber(a / b), nil
	case "%":
		return runtime.NewNumber(math.Mod(a, b)), nil
	case "**":
		return runtime.NewNumber(math.Pow(a, b)), nil
	}
	return runtime.Undefined, runtime.NewSyntaxErrorValue("unsupported arithmetic operator " + op)
}

func (ip *Interpreter) evalBitwise(f *frame, op string, lv, rv runtime.Value) (runtime.Value, error) {
	ln, err := ip.toNumeric(f, lv)
	if err != nil {
		return runtime.Undefined, err
	}
	rn, err := ip.toNumeric(f, rv)
	if err != nil {
		return runtime.Undefined, err
	}
	if ln.IsBigInt() != rn.IsBigInt() {
		return runtime.Undefined, f.throwSignal(runtime.NewTypeErrorValue("Cannot mix BigInt and other types, use explicit conversions"))
	}
	if ln.IsBigInt() {
		a, b := ln.AsBigInt(), rn.AsBigInt()
		switch op {
		case "&":
			return runtime.NewBigInt(new(big.Int).And(a, b)), nil
		case "|":
			return runtime.NewBigInt(new(big.Int).Or(a, b)), nil
		case "^":
			return runtime.NewBigInt(new(big.Int).Xor(a, b)), nil
		case "<<":
			return runtime.NewBigInt(new(big.Int).Lsh(a, uint(b.Int64()))), nil
		case ">>":
			return runtime.NewBigInt(new(big.Int).Rsh(a, uint(b.Int64()))), nil
		default:
			return runtime.Undefined, f.throwSignal(runtime.NewTypeErrorValue("BigInts have no unsigned right shift, use >> instead"))
		}
	}
	ai := runtime.ToInt32(ln.AsNumber())
	switch op {
	case "&":
		return runtime.NewNumber(float64(ai & runtime.ToInt32(rn.AsNumber()))), nil
	case "|":
		return runtime.NewNumber(float64(ai | runtime.ToInt32(rn.AsNumber()))), nil
	case "^":
		return runtime.NewNumber(float64(ai ^ runtime.ToInt32(rn.AsNumber()))), nil
	case "<<":
		shift := runtime.ToUint32(rn.AsNumber()) & 31
		return runtime.NewNumber(float64(ai << shift)), nil
	case ">>":
		shift := runtime.ToUint32(rn.AsNumber()) & 31
		return runtime.NewNumber(float64(ai >> shift)), nil
	case ">>>":
		shift := runtime.ToUint32(rn.AsNumber()) & 31
		return runtime.NewNumber(float64(runtime.ToUint32(ln.AsNumber()) >> shift)), nil
	}
	return runtime.Undefined, runtime.NewSyntaxErrorValue("unsupported bitwise operator " + op)
}

func (ip *Interpreter) evalRelational(f *frame, op string, lv, rv runtime.Value) (runtime.Value, error) {
	lp, err := ip.toPrimitive(f, lv, "number")
	if err != nil {
		return runtime.Undefined, err
	}
	rp, err := ip.toPrimitive(f, rv, "number")
	if err != nil {
		return runtime.Undefined, err
	}
	if lp.IsString() && rp.IsString() {
		a, b := lp.AsString(), rp.AsString()
		switch op {
		case "<":
			return runtime.NewBool(a < b), nil
		case ">":
			return runtime.NewBool(a > b), nil
		case "<=":
			return runtime.NewBool(a <= b), nil
		default:
			return runtime.NewBool(a >= b), nil
		}
	}
	if lp.IsBigInt() || rp.IsBigInt() {
		var a, b *big.Float
		if lp.IsBigInt() {
			a = new(big.Float).SetInt(lp.AsBigInt())
		} else {
			a = big.NewFloat(lp.ToNumber())
		}
		if rp.IsBigInt() {
			b = new(big.Float).SetInt(rp.AsBigInt())
		} else {
			b = big.NewFloat(rp.ToNumber())
		}
		cmp := a.Cmp(b)
		switch op {
		case "<":
			return runtime.NewBool(cmp < 0), nil
		case ">":
			return runtime.NewBool(cmp > 0), nil
		case "<=":
			return runtime.NewBool(cmp <= 0), nil
		default:
			return runtime.NewBool(cmp >= 0), nil
		}
	}
	a, b := lp.ToNumber(), rp.ToNumber()
	if math.IsNaN(a) || math.IsNaN(b) {
		return runtime.NewBool(false), nil
	}
	switch op {
	case "<":
		return runtime.NewBool(a < b), nil
	case ">":
		return runtime.NewBool(a > b), nil
	case "<=":
		return runtime.NewBool(a <= b), nil
	default:
		return runtime.NewBool(a >= b), nil
	}
}

// instanceOf implements the `instanceof` operator: it first defers to a
// @@hasInstance method if the right-hand side defines one, otherwise falls
// back to OrdinaryHasInstance (walking the callee's .prototype up the
// left-hand side's prototype chain).
func (ip *Interpreter) instanceOf(f *frame, lv, rv runtime.Value) (bool, error) {
	if rv.Type() != runtime.TypeObject {
		return false, f.throwSignal(runtime.NewTypeErrorValue("Right-hand side of 'instanceof' is not an object"))
	}
	custom, err := rv.AsObject().Get(runtime.SymbolKey(f.realm.Symbols.HasInstance), rv)
	if err != nil {
		return false, f.throwSignal(err)
	}
	if custom.IsCallable() {
		result, err := runtime.Call(custom, rv, []runtime.Value{lv})
		if err != nil {
			return false, err
		}
		return result.ToBoolean(), nil
	}
	if !rv.IsCallable() {
		return false, f.throwSignal(runtime.NewTypeErrorValue("Right-hand side of 'instanceof' is not callable"))
	}
	if lv.Type() != runtime.TypeObject {
		return false, nil
	}
	protoVal, err := rv.AsObject().Get(runtime.StringKey("prototype"), rv)
	if err != nil {
		return false, f.throwSignal(err)
	}
	if protoVal.Type() != runtime.TypeObject {
		return false, f.throwSignal(runtime.NewTypeErrorValue("Function has non-object prototype in instanceof check"))
	}
	target := protoVal.AsObject()
	cur, err := lv.AsObject().GetPrototypeOf()
	if err != nil {
		return false, f.throwSignal(err)
	}
	for cur != nil {
		if cur == target {
			return true, nil
		}
		cur, err = cur.GetPrototypeOf()
		if err != nil {
			return false, f.throwSignal(err)
		}
	}
	return false, nil
}

func (ip *Interpreter) evalLogical(f *frame, e *ast.LogicalExpression) (runtime.Value, error) {
	lv, err := ip.eval(f, e.Left)
	if err != nil {
		return runtime.Undefined, err
	}
	switch e.Operator {
	case "&&":
		if !lv.ToBoolean() {
			return lv, nil
		}
	case "||":
		if lv.ToBoolean() {
			return lv, nil
		}
	case "??":
		if !lv.IsNullish() {
			return lv, nil
		}
	}
	return ip.eval(f, e.Right)
}

func (ip *Interpreter) evalAssignment(f *frame, e *ast.AssignmentExpression) (runtime.Value, error) {
	if e.Operator == "=" {
		v, err := ip.eval(f, e.Right)
		if err != nil {
			return runtime.Undefined, err
		}
		if err := ip.assignTarget(f, e.Left, v); err != nil {
			return runtime.Undefined, err
		}
		return v, nil
	}
	if e.Operator == "&&=" || e.Operator == "||=" || e.Operator == "??=" {
		cur, err := ip.eval(f, e.Left)
		if err != nil {
			return runtime.Undefined, err
		}
		switch e.Operator {
		case "&&=":
			if !cur.ToBoolean() {
				return cur, nil
			}
		case "||=":
			if cur.ToBoolean() {
				return cur, nil
			}
		case "??=":
			if !cur.IsNullish() {
				return cur, nil
			}
		}
		v, err := ip.eval(f, e.Right)
		if err != nil {
			return runtime.Undefined, err
		}
		if err := ip.assignTarget(f, e.Left, v); err != nil {
			return runtime.Undefined, err
		}
		return v, nil
	}
	cur, err := ip.eval(f, e.Left)
	if err != nil {
		return runtime.Undefined, err
	}
	rv, err := ip.eval(f, e.Right)
	if err != nil {
		return runtime.Undefined, err
	}
	op := e.Operator[:len(e.Operator)-1] // "+=" -> "+"
	v, err := ip.applyBinary(f, op, cur, rv)
	if err != nil {
		return runtime.Undefined, err
	}
	if err := ip.assignTarget(f, e.Left, v); err != nil {
		return runtime.Undefined, err
	}
	return v, nil
}

// evalMemberRef evaluates a MemberExpression down to its (object, key)
// reference pair without performing the final [[Get]], the shape
// assignment targets and ++/-- need (read-then-write the same slot).
func (ip *Interpreter) evalMemberRef(f *frame, m *ast.MemberExpression) (*runtime.Object, runtime.PropertyKey, error) {
	if _, ok := m.Object.(*ast.SuperExpression); ok {
		key, err := ip.propertyKeyOf(f, m.Property, m.Computed)
		if err != nil {
			return nil, runtime.PropertyKey{}, err
		}
		proto, err := f.homeObject.GetPrototypeOf()
		if err != nil {
			return nil, runtime.PropertyKey{}, err
		}
		return proto, key, nil
	}
	ov, err := ip.evalRaw(f, m.Object)
	if err != nil {
		return nil, runtime.PropertyKey{}, err
	}
	obj, err := ip.toObject(f, ov)
	if err != nil {
		return nil, runtime.PropertyKey{}, err
	}
	key, err := ip.propertyKeyOf(f, m.Property, m.Computed)
	if err != nil {
		return nil, runtime.PropertyKey{}, err
	}
	return obj, key, nil
}

func (ip *Interpreter) evalMember(f *frame, m *ast.MemberExpression) (runtime.Value, error) {
	if _, ok := m.Object.(*ast.SuperExpression); ok {
		key, err := ip.propertyKeyOf(f, m.Property, m.Computed)
		if err != nil {
			return runtime.Undefined, err
		}
		proto, err := f.homeObject.GetPrototypeOf()
		if err != nil {
			return runtime.Undefined, f.throwSignal(err)
		}
		if proto == nil {
			return runtime.Undefined, nil
		}
		thisVal, err := f.env.GetThisBinding()
		if err != nil {
			return runtime.Undefined, f.throwSignal(err)
		}
		v, err := proto.Get(key, thisVal)
		if err != nil {
			return runtime.Undefined, f.throwSignal(err)
		}
		return v, nil
	}
	ov, err := ip.evalRaw(f, m.Object)
	if err != nil {
		return runtime.Undefined, err
	}
	if m.Optional && ov.IsNullish() {
		return runtime.Undefined, errOptionalShortCircuit
	}
	if ov.IsNullish() {
		key, _ := ip.propertyKeyOf(f, m.Property, m.Computed)
		return runtime.Undefined, f.throwSignal(runtime.NewTypeErrorValue("Cannot read properties of " + runtime.ToStringSimple(ov) + " (reading '" + key.String() + "')"))
	}
	obj, err := ip.toObject(f, ov)
	if err != nil {
		return runtime.Undefined, err
	}
	key, err := ip.propertyKeyOf(f, m.Property, m.Computed)
	if err != nil {
		return runtime.Undefined, err
	}
	v, err := obj.Get(key, ov)
	if err != nil {
		return runtime.Undefined, f.throwSignal(err)
	}
	return v, nil
}

// errOptionalShortCircuit is a sentinel threaded through evalMember/
// evalCall's optional-chaining evaluation: when a `?.` link sees a
// nullish base it must short-circuit the *entire* chain to undefined,
// not just its own link, matching OptionalChain's spec evaluation.
type optionalShortCircuit struct{}

func (optionalShortCircuit) Error() string { return "optional chaining short-circuit" }

var errOptionalShortCircuit error = optionalShortCircuit{}

// evalCallee evaluates a call's callee, returning the `this` value a
// method call should bind (the object half of a MemberExpression) and the
// function value itself, short-circuiting per optional-chaining rules.
func (ip *Interpreter) evalCallee(f *frame, callee ast.Expression) (runtime.Value, runtime.Value, error) {
	if m, ok := callee.(*ast.MemberExpression); ok {
		if _, ok := m.Object.(*ast.SuperExpression); ok {
			fnVal, err := ip.evalMember(f, m)
			if err != nil {
				return runtime.Undefined, runtime.Undefined, err
			}
			thisVal, err := f.env.GetThisBinding()
			if err != nil {
				return runtime.Undefined, runtime.Undefined, f.throwSignal(err)
			}
			return thisVal, fnVal, nil
		}
		ov, err := ip.evalRaw(f, m.Object)
		if err != nil {
			return runtime.Undefined, runtime.Undefined, err
		}
		if m.Optional && ov.IsNullish() {
			return runtime.Undefined, runtime.Undefined, errOptionalShortCircuit
		}
		obj, err := ip.toObject(f, ov)
		if err != nil {
			return runtime.Undefined, runtime.Undefined, err
		}
		key, err := ip.propertyKeyOf(f, m.Property, m.Computed)
		if err != nil {
			return runtime.Undefined, runtime.Undefined, err
		}
		fnVal, err := obj.Get(key, ov)
		if err != nil {
			return runtime.Undefined, runtime.Undefined, f.throwSignal(err)
		}
		return ov, fnVal, nil
	}
	if _, ok := callee.(*ast.SuperExpression); ok {
		return runtime.Undefined, runtime.Undefined, nil
	}
	fnVal, err := ip.evalRaw(f, callee)
	return runtime.Undefined, fnVal, err
}

func (ip *Interpreter) evalArguments(f *frame, args []ast.CallArgument) ([]runtime.Value, error) {
	var out []runtime.Value
	for _, a := range args {
		if a.Spread {
			v, err := ip.eval(f, a.Expr)
			if err != nil {
				return nil, err
			}
			items, err := ip.iterableToSlice(f, v)
			if err != nil {
				return nil, err
			}
			out = append(out, items...)
			continue
		}
		v, err := ip.eval(f, a.Expr)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (ip *Interpreter) evalCall(f *frame, e *ast.CallExpression) (runtime.Value, error) {
	if _, ok := e.Callee.(*ast.SuperExpression); ok {
		return ip.evalSuperCall(f, e)
	}
	thisVal, fnVal, err := ip.evalCallee(f, e.Callee)
	if err != nil {
		if err == errOptionalShortCircuit {
			return runtime.Undefined, errOptionalShortCircuit
		}
		return runtime.Undefined, err
	}
	if e.Optional && fnVal.IsNullish() {
		return runtime.Undefined, errOptionalShortCircuit
	}
	args, err := ip.evalArguments(f, e.Arguments)
	if err != nil {
		return runtime.Undefined, err
	}
	if !fnVal.IsCallable() {
		name := calleeDisplayName(e.Callee)
		return runtime.Undefined, f.throwSignal(runtime.NewTypeErrorValue(name + " is not a function"))
	}
	v, err := runtime.Call(fnVal, thisVal, args)
	if err != nil {
		return runtime.Undefined, f.throwSignal(err)
	}
	return v, nil
}

func calleeDisplayName(callee ast.Expression) string {
	switch c := callee.(type) {
	case *ast.Identifier:
		return c.Name
	case *ast.MemberExpression:
		if id, ok := c.Property.(*ast.Identifier); ok && !c.Computed {
			return calleeDisplayName(c.Object) + "." + id.Name
		}
	}
	return "expression"
}

func (ip *Interpreter) evalNew(f *frame, e *ast.NewExpression) (runtime.Value, error) {
	ctorVal, err := ip.eval(f, e.Callee)
	if err != nil {
		return runtime.Undefined, err
	}
	args, err := ip.evalArguments(f, e.Arguments)
	if err != nil {
		return runtime.Undefined, err
	}
	if ctorVal.Type() != runtime.TypeObject || ctorVal.AsObject().Construct == nil {
		return runtime.Undefined, f.throwSignal(runtime.NewTypeErrorValue(calleeDisplayName(e.Callee) + " is not a constructor"))
	}
	v, err := runtime.Construct(ctorVal, args, runtime.Undefined)
	if err != nil {
		return runtime.Undefined, f.throwSignal(err)
	}
	return v, nil
}
