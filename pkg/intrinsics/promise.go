package intrinsics

import "ecmacore/pkg/runtime"

// PromiseInitializer builds Promise.prototype (then/catch/finally) and the
// Promise constructor (resolve/reject/all/race/allSettled/any), with
// reaction jobs scheduled through realm.EnqueueMicrotask — the same
// AsyncRuntime the teacher's own pkg/runtime/async.go drains between host
// turns (see DESIGN.md's async.go entry). Grounded on the teacher's
// promise_init.go method set and its PromiseThen/NewPromiseFromExecutor/
// NewResolvedPromise/NewRejectedPromise shape, reimplemented directly over
// a plain object with internal state kept in Slots rather than a
// dedicated vm.TypePromise tag (this core's Object already generalizes
// exotic state via Slots, so a fifth value tag is unnecessary).
type PromiseInitializer struct{}

func (p *PromiseInitializer) Name() string  { return "Promise" }
func (p *PromiseInitializer) Priority() int { return PriorityPromise }

type promiseState int

const (
	promisePending promiseState = iota
	promiseFulfilled
	promiseRejected
)

type promiseReaction struct {
	onFulfilled, onRejected runtime.Value
	resultObj               *runtime.Object
}

type promiseData struct {
	state     promiseState
	value     runtime.Value
	reactions []promiseReaction
}

func promiseOf(v runtime.Value) (*runtime.Object, *promiseData, bool) {
	if v.Type() != runtime.TypeObject {
		return nil, nil, false
	}
	obj := v.AsObject()
	pd, ok := obj.Slots["promise"].(*promiseData)
	return obj, pd, ok
}

func newPendingPromise(ctx *Context) *runtime.Object {
	obj := runtime.NewPlainObject(ctx.Intrinsic("PromisePrototype"))
	obj.Class = "Promise"
	obj.Slots = map[string]interface{}{"promise": &promiseData{state: promisePending}}
	return obj
}

func settlePromise(ctx *Context, obj *runtime.Object, state promiseState, value runtime.Value) {
	pd := obj.Slots["promise"].(*promiseData)
	if pd.state != promisePending {
		return
	}
	if state == promiseFulfilled {
		if inner, innerPd, ok := promiseOf(value); ok {
			// resolving with a thenable promise chains through it
			attachReaction(ctx, inner, innerPd, runtime.Undefined, runtime.Undefined, obj)
			return
		}
	}
	pd.state = state
	pd.value = value
	reactions := pd.reactions
	pd.reactions = nil
	for _, r := range reactions {
		scheduleReaction(ctx, pd, r)
	}
}

func scheduleReaction(ctx *Context, pd *promiseData, r promiseReaction) {
	state, value := pd.state, pd.value
	ctx.Realm.EnqueueMicrotask(func() {
		handler := r.onFulfilled
		settleAs := promiseFulfilled
		if state == promiseRejected {
			handler = r.onRejected
			settleAs = promiseRejected
		}
		if !handler.IsCallable() {
			if r.resultObj != nil {
				settlePromise(ctx, r.resultObj, settleAs, value)
			}
			return
		}
		result, err := runtime.Call(handler, runtime.Undefined, []runtime.Value{value})
		if err != nil {
			if r.resultObj != nil {
				settlePromise(ctx, r.resultObj, promiseRejected, errToValue(err))
			}
			return
		}
		if r.resultObj != nil {
			settlePromise(ctx, r.resultObj, promiseFulfilled, result)
		}
	})
}

func errToValue(err error) runtime.Value {
	if th, ok := err.(*runtime.Throw); ok {
		return th.Value
	}
	return runtime.NewString(err.Error())
}

func attachReaction(ctx *Context, obj *runtime.Object, pd *promiseData, onFulfilled, onRejected runtime.Value, resultObj *runtime.Object) {
	r := promiseReaction{onFulfilled, onRejected, resultObj}
	if pd.state == promisePending {
		pd.reactions = append(pd.reactions, r)
		return
	}
	scheduleReaction(ctx, pd, r)
}

func promiseThen(ctx *Context, this runtime.Value, onFulfilled, onRejected runtime.Value) (runtime.Value, error) {
	obj, pd, ok := promiseOf(this)
	if !ok {
		return runtime.Undefined, runtime.NewTypeErrorValue("Promise.prototype.then called on incompatible receiver")
	}
	result := newPendingPromise(ctx)
	attachReaction(ctx, obj, pd, onFulfilled, onRejected, result)
	return runtime.NewObject(result), nil
}

// NewPendingPromise exposes newPendingPromise to pkg/interpreter, which
// drives async function execution by producing and settling a Promise
// around a suspended goroutine rather than through the executor pattern
// Promise's own constructor uses.
func NewPendingPromise(ctx *Context) *runtime.Object { return newPendingPromise(ctx) }

// SettlePromiseFulfilled/SettlePromiseRejected expose settlePromise's two
// outcomes for the same async-driver caller.
func SettlePromiseFulfilled(ctx *Context, obj *runtime.Object, value runtime.Value) {
	settlePromise(ctx, obj, promiseFulfilled, value)
}

func SettlePromiseRejected(ctx *Context, obj *runtime.Object, value runtime.Value) {
	settlePromise(ctx, obj, promiseRejected, value)
}

// AwaitThen resolves value the same way Promise.resolve does (adopting its
// state if it is already a promise, wrapping it in a fulfilled one
// otherwise) and schedules onFulfilled/onRejected as a reaction job on
// realm's microtask queue, the seam pkg/interpreter's await-expression
// evaluator uses to suspend and resume a generator-style driver goroutine.
func AwaitThen(ctx *Context, value runtime.Value, onFulfilled, onRejected runtime.CallFn) {
	obj, pd, ok := promiseOf(value)
	if !ok {
		obj = newPendingPromise(ctx)
		pd = obj.Slots["promise"].(*promiseData)
		settlePromise(ctx, obj, promiseFulfilled, value)
	}
	attachReaction(ctx, obj, pd,
		runtime.NewObject(runtime.NewNativeFunction("", 1, onFulfilled)),
		runtime.NewObject(runtime.NewNativeFunction("", 1, onRejected)),
		nil)
}

func (p *PromiseInitializer) Init(ctx *Context) error {
	proto := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	proto.Class = "Promise"
	ctx.SetIntrinsic("PromisePrototype", proto)

	proto.DefineMethod("then", 2, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return promiseThen(ctx, this, firstArgOrUndefined(args), argOr(args, 1, runtime.Undefined))
	})
	proto.DefineMethod("catch", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return promiseThen(ctx, this, runtime.Undefined, firstArgOrUndefined(args))
	})
	proto.DefineMethod("finally", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		onFinally := firstArgOrUndefined(args)
		wrapper := runtime.NewNativeFunction("", 1, func(_ runtime.Value, wargs []runtime.Value) (runtime.Value, error) {
			if onFinally.IsCallable() {
				if _, err := runtime.Call(onFinally, runtime.Undefined, nil); err != nil {
					return runtime.Undefined, err
				}
			}
			return firstArgOrUndefined(wargs), nil
		})
		return promiseThen(ctx, this, runtime.NewObject(wrapper), runtime.NewObject(wrapper))
	})

	ctor := runtime.NewNativeFunction("Promise", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Undefined, runtime.NewTypeErrorValue("Constructor Promise requires 'new'")
	})
	ctor.Construct = func(args []runtime.Value, newTarget runtime.Value) (runtime.Value, error) {
		executor := firstArgOrUndefined(args)
		if !executor.IsCallable() {
			return runtime.Undefined, runtime.NewTypeErrorValue("Promise resolver is not a function")
		}
		obj := newPendingPromise(ctx)
		resolveFn := runtime.NewObject(runtime.NewNativeFunction("", 1, func(_ runtime.Value, rargs []runtime.Value) (runtime.Value, error) {
			settlePromise(ctx, obj, promiseFulfilled, firstArgOrUndefined(rargs))
			return runtime.Undefined, nil
		}))
		rejectFn := runtime.NewObject(runtime.NewNativeFunction("", 1, func(_ runtime.Value, rargs []runtime.Value) (runtime.Value, error) {
			settlePromise(ctx, obj, promiseRejected, firstArgOrUndefined(rargs))
			return runtime.Undefined, nil
		}))
		_, err := runtime.Call(executor, runtime.Undefined, []runtime.Value{resolveFn, rejectFn})
		if err != nil {
			settlePromise(ctx, obj, promiseRejected, errToValue(err))
		}
		return runtime.NewObject(obj), nil
	}
	ctor.DefineDataProperty("prototype", runtime.NewObject(proto), false, false, false)
	proto.DefineDataProperty("constructor", runtime.NewObject(ctor), true, false, true)

	ctor.DefineMethod("resolve", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		v := firstArgOrUndefined(args)
		if _, _, ok := promiseOf(v); ok {
			return v, nil
		}
		obj := newPendingPromise(ctx)
		settlePromise(ctx, obj, promiseFulfilled, v)
		return runtime.NewObject(obj), nil
	})
	ctor.DefineMethod("reject", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		obj := newPendingPromise(ctx)
		settlePromise(ctx, obj, promiseRejected, firstArgOrUndefined(args))
		return runtime.NewObject(obj), nil
	})
	ctor.DefineMethod("all", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return promiseCombinator(ctx, firstArgOrUndefined(args), combinatorAll)
	})
	ctor.DefineMethod("allSettled", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return promiseCombinator(ctx, firstArgOrUndefined(args), combinatorAllSettled)
	})
	ctor.DefineMethod("race", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return promiseCombinator(ctx, firstArgOrUndefined(args), combinatorRace)
	})
	ctor.DefineMethod("any", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return promiseCombinator(ctx, firstArgOrUndefined(args), combinatorAny)
	})

	ctx.DefineGlobal("Promise", runtime.NewObject(ctor))
	ctx.SetIntrinsic("Promise", ctor)
	return nil
}

type combinatorKind int

const (
	combinatorAll combinatorKind = iota
	combinatorAllSettled
	combinatorRace
	combinatorAny
)

func promiseCombinator(ctx *Context, iterable runtime.Value, kind combinatorKind) (runtime.Value, error) {
	items, err := IterableToSlice(ctx, iterable)
	if err != nil {
		return runtime.Undefined, err
	}
	result := newPendingPromise(ctx)
	n := len(items)
	if n == 0 {
		switch kind {
		case combinatorAll, combinatorAllSettled:
			settlePromise(ctx, result, promiseFulfilled, runtime.NewObject(arrayOf(ctx, nil)))
		case combinatorAny:
			settlePromise(ctx, result, promiseRejected, runtime.NewString("All promises were rejected"))
		}
		return runtime.NewObject(result), nil
	}
	values := make([]runtime.Value, n)
	remaining := n
	rejections := make([]runtime.Value, n)
	for i, item := range items {
		idx := i
		var obj *runtime.Object
		var pd *promiseData
		if o, p, ok := promiseOf(item); ok {
			obj, pd = o, p
		} else {
			obj = newPendingPromise(ctx)
			pd = obj.Slots["promise"].(*promiseData)
			settlePromise(ctx, obj, promiseFulfilled, item)
		}
		onFulfilled := runtime.NewObject(runtime.NewNativeFunction("", 1, func(_ runtime.Value, a []runtime.Value) (runtime.Value, error) {
			v := firstArgOrUndefined(a)
			switch kind {
			case combinatorRace:
				settlePromise(ctx, result, promiseFulfilled, v)
			case combinatorAny:
				settlePromise(ctx, result, promiseFulfilled, v)
			case combinatorAll:
				values[idx] = v
				remaining--
				if remaining == 0 {
					settlePromise(ctx, result, promiseFulfilled, runtime.NewObject(arrayOf(ctx, values)))
				}
			case combinatorAllSettled:
				entry := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
				entry.DefineDataProperty("status", runtime.NewString("fulfilled"), true, true, true)
				entry.DefineDataProperty("value", v, true, true, true)
				values[idx] = runtime.NewObject(entry)
				remaining--
				if remaining == 0 {
					settlePromise(ctx, result, promiseFulfilled, runtime.NewObject(arrayOf(ctx, values)))
				}
			}
			return runtime.Undefined, nil
		}))
		onRejected := runtime.NewObject(runtime.NewNativeFunction("", 1, func(_ runtime.Value, a []runtime.Value) (runtime.Value, error) {
			v := firstArgOrUndefined(a)
			switch kind {
			case combinatorRace:
				settlePromise(ctx, result, promiseRejected, v)
			case combinatorAll:
				settlePromise(ctx, result, promiseRejected, v)
			case combinatorAny:
				rejections[idx] = v
				remaining--
				if remaining == 0 {
					settlePromise(ctx, result, promiseRejected, runtime.NewObject(arrayOf(ctx, rejections)))
				}
			case combinatorAllSettled:
				entry := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
				entry.DefineDataProperty("status", runtime.NewString("rejected"), true, true, true)
				entry.DefineDataProperty("reason", v, true, true, true)
				values[idx] = runtime.NewObject(entry)
				remaining--
				if remaining == 0 {
					settlePromise(ctx, result, promiseFulfilled, runtime.NewObject(arrayOf(ctx, values)))
				}
			}
			return runtime.Undefined, nil
		}))
		attachReaction(ctx, obj, pd, onFulfilled, onRejected, nil)
	}
	return runtime.NewObject(result), nil
}
