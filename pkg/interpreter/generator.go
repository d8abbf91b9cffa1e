package interpreter

import (
	"ecmacore/pkg/ast"
	"ecmacore/pkg/runtime"
)

// generatorFrame is the suspend point a generator or async function body
// runs against: the body runs on its own goroutine and blocks on resumeCh
// between yields, while the driving next/return/throw call blocks on
// yieldCh waiting for the next thing the body produces. The teacher's own
// execution model is a bytecode VM with an explicit resumable call stack;
// a tree-walker has no such stack to snapshot; a goroutine already is one,
// so pairing it with a pair of unbuffered channels gets the same
// suspend/resume behavior without reifying the walk.
type generatorFrame struct {
	run      func() (runtime.Value, error)
	yieldCh  chan genMsg
	resumeCh chan genMsg
	state    genState
	realm    *runtime.Realm
	frame    *frame // the frame running the suspended body, for error conversion
}

type genState int

const (
	genSuspendedStart genState = iota
	genSuspendedYield
	genExecuting
	genCompleted
)

// genMsg carries a value across the yield/resume boundary in either
// direction: a body-to-driver message is kind genYielded, genDone, or
// (from an await) genAwaiting; a driver-to-body message is genResumeNext,
// genResumeThrow, or
// genResumeReturn, matching the three methods a generator object exposes.
type genMsg struct {
	kind  genMsgKind
	value runtime.Value
	err   error
}

type genMsgKind int

const (
	genYielded genMsgKind = iota
	genAwaiting
	genDone
	genResumeNext
	genResumeThrow
	genResumeReturn
)

// generatorReturnCompletion is the Go error genYield raises to unwind a
// suspended body when the driver calls `.return(v)`: it must skip every
// enclosing catch clause (a `return` is not a thrown exception) while
// still running intervening finally blocks, which is exactly what execTry
// does for any error that isn't a *runtime.Throw.
type generatorReturnCompletion struct{ value runtime.Value }

func (generatorReturnCompletion) Error() string { return "generator return" }

// startGenerator implements GeneratorStart (spec §27.5): it builds the
// generator object immediately but leaves the body unrun (state
// suspendedStart) until the first call to .next(), matching
// "calling a generator function merely creates the iterator".
func (ip *Interpreter) startGenerator(f *frame, run func() (runtime.Value, error)) runtime.Value {
	gen := &generatorFrame{
		run:      run,
		yieldCh:  make(chan genMsg),
		resumeCh: make(chan genMsg),
		state:    genSuspendedStart,
		realm:    f.realm,
		frame:    f,
	}
	f.gen = gen
	proto := f.realm.Intrinsic("GeneratorPrototype")
	if proto == nil {
		proto = ip.buildGeneratorPrototype(f)
	}
	obj := runtime.NewPlainObject(proto)
	obj.Class = "Generator"
	obj.Slots = map[string]interface{}{"generator": gen}
	return runtime.NewObject(obj)
}

func (ip *Interpreter) buildGeneratorPrototype(f *frame) *runtime.Object {
	proto := runtime.NewPlainObject(f.realm.Intrinsic("IteratorPrototype"))
	proto.DefineMethod("next", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return driveGenerator(this, genResumeNext, argOrUndefined(args, 0))
	})
	proto.DefineMethod("return", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return driveGenerator(this, genResumeReturn, argOrUndefined(args, 0))
	})
	proto.DefineMethod("throw", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return driveGenerator(this, genResumeThrow, argOrUndefined(args, 0))
	})
	f.realm.Intrinsics["GeneratorPrototype"] = proto
	return proto
}

func argOrUndefined(args []runtime.Value, i int) runtime.Value {
	if i < len(args) {
		return args[i]
	}
	return runtime.Undefined
}

// driveGenerator implements the shared body of next/return/throw (spec
// "GeneratorResume"/"GeneratorResumeAbrupt"): it feeds a resume message to
// the suspended body (spawning it on first next()) and translates
// whatever the body produces next back into an iterator-result object.
func driveGenerator(this runtime.Value, kind genMsgKind, v runtime.Value) (runtime.Value, error) {
	if this.Type() != runtime.TypeObject {
		return runtime.Undefined, runtime.NewTypeErrorValue("not a generator")
	}
	gen, ok := this.AsObject().Slots["generator"].(*generatorFrame)
	if !ok {
		return runtime.Undefined, runtime.NewTypeErrorValue("not a generator")
	}

	switch gen.state {
	case genCompleted:
		switch kind {
		case genResumeThrow:
			return runtime.Undefined, runtime.NewThrow(v)
		case genResumeReturn:
			return iterResult(gen.realm, v, true), nil
		default:
			return iterResult(gen.realm, runtime.Undefined, true), nil
		}
	case genExecuting:
		return runtime.Undefined, runtime.NewTypeErrorValue("generator is already running")
	}

	if gen.state == genSuspendedStart {
		switch kind {
		case genResumeReturn:
			gen.state = genCompleted
			return iterResult(gen.realm, v, true), nil
		case genResumeThrow:
			gen.state = genCompleted
			return runtime.Undefined, runtime.NewThrow(v)
		}
		gen.state = genExecuting
		go func() {
			result, err := gen.run()
			err = gen.frame.throwSignal(err)
			if err != nil {
				if ret, ok := err.(generatorReturnCompletion); ok {
					gen.yieldCh <- genMsg{kind: genDone, value: ret.value}
					return
				}
				gen.yieldCh <- genMsg{kind: genDone, err: err}
				return
			}
			gen.yieldCh <- genMsg{kind: genDone, value: result}
		}()
	} else {
		gen.state = genExecuting
		gen.resumeCh <- genMsg{kind: kind, value: v}
	}

	msg := <-gen.yieldCh
	switch msg.kind {
	case genYielded:
		gen.state = genSuspendedYield
		return iterResult(gen.realm, msg.value, false), nil
	default: // genDone
		gen.state = genCompleted
		if msg.err != nil {
			return runtime.Undefined, msg.err
		}
		return iterResult(gen.realm, msg.value, true), nil
	}
}

// iterResult builds a plain {value, done} object (spec
// "CreateIterResultObject").
func iterResult(realm *runtime.Realm, v runtime.Value, done bool) runtime.Value {
	obj := runtime.NewPlainObject(realm.Intrinsic("ObjectPrototype"))
	obj.DefineDataProperty("value", v, true, true, true)
	obj.DefineDataProperty("done", runtime.NewBool(done), true, true, true)
	return runtime.NewObject(obj)
}

// genYield is the suspend point evalYield calls from inside the body
// goroutine: it hands value to whichever driver call is waiting and
// blocks until the next next/return/throw resumes it.
func (ip *Interpreter) genYield(f *frame, value runtime.Value) (runtime.Value, error) {
	gen := f.gen
	gen.yieldCh <- genMsg{kind: genYielded, value: value}
	msg := <-gen.resumeCh
	switch msg.kind {
	case genResumeThrow:
		return runtime.Undefined, runtime.NewThrow(msg.value)
	case genResumeReturn:
		return runtime.Undefined, generatorReturnCompletion{value: msg.value}
	default:
		return msg.value, nil
	}
}

// evalYield evaluates both plain `yield` and delegating `yield*` (spec
// "Evaluation" for YieldExpression, §14.5).
func (ip *Interpreter) evalYield(f *frame, e *ast.YieldExpression) (runtime.Value, error) {
	if f.gen == nil {
		return runtime.Undefined, f.throwSignal(runtime.NewSyntaxErrorValue("yield is only valid inside a generator"))
	}
	var argVal runtime.Value = runtime.Undefined
	if e.Argument != nil {
		v, err := ip.eval(f, e.Argument)
		if err != nil {
			return runtime.Undefined, err
		}
		argVal = v
	}
	if !e.Delegate {
		return ip.genYield(f, argVal)
	}
	return ip.evalYieldDelegate(f, argVal)
}

// evalYieldDelegate implements `yield* expr` (spec "Evaluation" for
// "yield* AssignmentExpression", §14.5): every value the inner iterable
// produces is re-yielded as this generator's own, and the inner
// iterator's final return value becomes the yield* expression's value.
// A .throw()/.return() injected while delegating closes the inner
// iterator and propagates outward rather than attempting the optional
// inner-iterator .throw()/.return() forwarding step the full protocol
// allows — a documented simplification, see DESIGN.md.
func (ip *Interpreter) evalYieldDelegate(f *frame, iterable runtime.Value) (runtime.Value, error) {
	it, err := ip.getIterator(f, iterable)
	if err != nil {
		return runtime.Undefined, err
	}
	for {
		v, done, err := ip.iteratorStep(f, it)
		if err != nil {
			return runtime.Undefined, err
		}
		if done {
			return v, nil
		}
		if _, yerr := ip.genYield(f, v); yerr != nil {
			ip.iteratorClose(it)
			return runtime.Undefined, yerr
		}
	}
}
