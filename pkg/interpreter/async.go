package interpreter

import (
	"ecmacore/pkg/ast"
	"ecmacore/pkg/intrinsics"
	"ecmacore/pkg/runtime"
)

// evalAwait evaluates an await expression (spec "Evaluation" for
// AwaitExpression, §27.7.5): the awaited value is resolved exactly like
// Promise.resolve and the function body suspends until it settles, which
// here means handing the value to the goroutine running startAsync or
// startAsyncGenerator spawned and blocking on its resume channel.
func (ip *Interpreter) evalAwait(f *frame, e *ast.AwaitExpression) (runtime.Value, error) {
	v, err := ip.eval(f, e.Argument)
	if err != nil {
		return runtime.Undefined, err
	}
	if f.gen == nil {
		return runtime.Undefined, f.throwSignal(runtime.NewSyntaxErrorValue("await is only valid inside an async function"))
	}
	gen := f.gen
	gen.yieldCh <- genMsg{kind: genAwaiting, value: v}
	msg := <-gen.resumeCh
	if msg.kind == genResumeThrow {
		return runtime.Undefined, runtime.NewThrow(msg.value)
	}
	return msg.value, nil
}

func errToThrowValue(err error) runtime.Value {
	if th, ok := err.(*runtime.Throw); ok {
		return th.Value
	}
	return runtime.NewString(err.Error())
}

// startAsync implements AsyncFunctionStart (spec §27.7.5.1): the body runs
// to completion on its own goroutine, suspending at each await exactly
// like a generator suspends at yield, while the calling goroutine pumps
// that suspend/resume handoff until the body either completes or hits its
// first await — at which point a pending Promise is handed back to the
// caller and the rest of the pumping happens off of the realm's
// microtask queue via intrinsics.AwaitThen.
func (ip *Interpreter) startAsync(f *frame, run func() (runtime.Value, error)) runtime.Value {
	ctx := f.ctx()
	promise := intrinsics.NewPendingPromise(ctx)
	gen := &generatorFrame{
		run:      run,
		yieldCh:  make(chan genMsg),
		resumeCh: make(chan genMsg),
		realm:    f.realm,
		frame:    f,
	}
	f.gen = gen
	go func() {
		result, err := gen.run()
		gen.yieldCh <- genMsg{kind: genDone, value: result, err: gen.frame.throwSignal(err)}
	}()
	ip.pumpAsync(ctx, gen, promise)
	return runtime.NewObject(promise)
}

func (ip *Interpreter) pumpAsync(ctx *intrinsics.Context, gen *generatorFrame, promise *runtime.Object) {
	msg := <-gen.yieldCh
	switch msg.kind {
	case genAwaiting:
		intrinsics.AwaitThen(ctx, msg.value,
			func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
				gen.resumeCh <- genMsg{kind: genResumeNext, value: argOrUndefined(args, 0)}
				ip.pumpAsync(ctx, gen, promise)
				return runtime.Undefined, nil
			},
			func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
				gen.resumeCh <- genMsg{kind: genResumeThrow, value: argOrUndefined(args, 0)}
				ip.pumpAsync(ctx, gen, promise)
				return runtime.Undefined, nil
			})
	case genDone:
		if msg.err != nil {
			intrinsics.SettlePromiseRejected(ctx, promise, errToThrowValue(msg.err))
		} else {
			intrinsics.SettlePromiseFulfilled(ctx, promise, msg.value)
		}
	}
}

// startAsyncGenerator builds an async generator object (spec §27.6): like
// startGenerator, the body doesn't run until the first .next(), but both
// `yield` and `await` inside it suspend through the same channel pair —
// awaits are pumped transparently through to completion or the next
// yield before the Promise a .next() call returns is ever settled.
func (ip *Interpreter) startAsyncGenerator(f *frame, run func() (runtime.Value, error)) runtime.Value {
	gen := &generatorFrame{
		run:      run,
		yieldCh:  make(chan genMsg),
		resumeCh: make(chan genMsg),
		state:    genSuspendedStart,
		realm:    f.realm,
		frame:    f,
	}
	f.gen = gen
	proto := f.realm.Intrinsic("AsyncGeneratorPrototype")
	if proto == nil {
		proto = ip.buildAsyncGeneratorPrototype(f)
	}
	obj := runtime.NewPlainObject(proto)
	obj.Class = "AsyncGenerator"
	obj.Slots = map[string]interface{}{"generator": gen}
	return runtime.NewObject(obj)
}

func (ip *Interpreter) buildAsyncGeneratorPrototype(f *frame) *runtime.Object {
	proto := runtime.NewPlainObject(f.realm.Intrinsic("ObjectPrototype"))
	proto.DefineOwnProperty(runtime.SymbolKey(f.realm.Symbols.AsyncIterator), runtime.DataDescriptor(
		runtime.NewObject(runtime.NewNativeFunction("[Symbol.asyncIterator]", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return this, nil
		})), true, false, true))
	proto.DefineMethod("next", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return driveAsyncGenerator(this, genResumeNext, argOrUndefined(args, 0))
	})
	proto.DefineMethod("return", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return driveAsyncGenerator(this, genResumeReturn, argOrUndefined(args, 0))
	})
	proto.DefineMethod("throw", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return driveAsyncGenerator(this, genResumeThrow, argOrUndefined(args, 0))
	})
	f.realm.Intrinsics["AsyncGeneratorPrototype"] = proto
	return proto
}

// driveAsyncGenerator is the async analog of driveGenerator: it returns a
// Promise immediately and settles it once the body reaches its next
// yield, an await having been transparently pumped to resolution first,
// or completes.
func driveAsyncGenerator(this runtime.Value, kind genMsgKind, v runtime.Value) (runtime.Value, error) {
	if this.Type() != runtime.TypeObject {
		return runtime.Undefined, runtime.NewTypeErrorValue("not an async generator")
	}
	obj := this.AsObject()
	gen, ok := obj.Slots["generator"].(*generatorFrame)
	if !ok || gen.frame == nil {
		return runtime.Undefined, runtime.NewTypeErrorValue("not an async generator")
	}
	ctx := gen.frame.ctx()
	result := intrinsics.NewPendingPromise(ctx)

	switch gen.state {
	case genCompleted:
		switch kind {
		case genResumeThrow:
			intrinsics.SettlePromiseRejected(ctx, result, v)
		case genResumeReturn:
			intrinsics.SettlePromiseFulfilled(ctx, result, iterResult(gen.realm, v, true))
		default:
			intrinsics.SettlePromiseFulfilled(ctx, result, iterResult(gen.realm, runtime.Undefined, true))
		}
		return runtime.NewObject(result), nil
	case genExecuting:
		intrinsics.SettlePromiseRejected(ctx, result, runtime.NewString("async generator is already running"))
		return runtime.NewObject(result), nil
	}

	if gen.state == genSuspendedStart {
		switch kind {
		case genResumeReturn:
			gen.state = genCompleted
			intrinsics.SettlePromiseFulfilled(ctx, result, iterResult(gen.realm, v, true))
			return runtime.NewObject(result), nil
		case genResumeThrow:
			gen.state = genCompleted
			intrinsics.SettlePromiseRejected(ctx, result, v)
			return runtime.NewObject(result), nil
		}
		gen.state = genExecuting
		go func() {
			res, err := gen.run()
			gen.yieldCh <- genMsg{kind: genDone, value: res, err: gen.frame.throwSignal(err)}
		}()
	} else {
		gen.state = genExecuting
		gen.resumeCh <- genMsg{kind: kind, value: v}
	}

	settleAsyncGenStep(ctx, gen, result)
	return runtime.NewObject(result), nil
}

// settleAsyncGenStep drains whatever the body produces next, pumping
// through any number of awaits before settling result on the first
// actual yield or completion.
func settleAsyncGenStep(ctx *intrinsics.Context, gen *generatorFrame, result *runtime.Object) {
	msg := <-gen.yieldCh
	switch msg.kind {
	case genAwaiting:
		intrinsics.AwaitThen(ctx, msg.value,
			func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
				gen.resumeCh <- genMsg{kind: genResumeNext, value: argOrUndefined(args, 0)}
				settleAsyncGenStep(ctx, gen, result)
				return runtime.Undefined, nil
			},
			func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
				gen.resumeCh <- genMsg{kind: genResumeThrow, value: argOrUndefined(args, 0)}
				settleAsyncGenStep(ctx, gen, result)
				return runtime.Undefined, nil
			})
	case genYielded:
		gen.state = genSuspendedYield
		intrinsics.SettlePromiseFulfilled(ctx, result, iterResult(gen.realm, msg.value, false))
	default: // genDone
		gen.state = genCompleted
		if msg.err != nil {
			if ret, ok := msg.err.(generatorReturnCompletion); ok {
				intrinsics.SettlePromiseFulfilled(ctx, result, iterResult(gen.realm, ret.value, true))
				return
			}
			intrinsics.SettlePromiseRejected(ctx, result, errToThrowValue(msg.err))
			return
		}
		intrinsics.SettlePromiseFulfilled(ctx, result, iterResult(gen.realm, msg.value, true))
	}
}
