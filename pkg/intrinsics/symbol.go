package intrinsics

import "ecmacore/pkg/runtime"

// SymbolInitializer builds Symbol.prototype, the Symbol() factory
// (throws if called with `new`, per spec), the global symbol registry
// (Symbol.for/Symbol.keyFor), and exposes the realm's well-known symbols
// as static properties. Grounded on the teacher's symbol_init.go, which
// keeps well-known symbols as VM-level singletons reused across resets;
// here that singleton lifetime is simply the Realm's Symbols field, set
// up once in NewRealm rather than lazily on first InitRuntime call.
type SymbolInitializer struct{}

func (s *SymbolInitializer) Name() string  { return "Symbol" }
func (s *SymbolInitializer) Priority() int { return PrioritySymbol }

func (s *SymbolInitializer) Init(ctx *Context) error {
	proto := runtime.NewPlainObject(ctx.Intrinsic("ObjectPrototype"))
	proto.Class = "Symbol"
	ctx.SetIntrinsic("SymbolPrototype", proto)

	proto.DefineMethod("toString", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if !this.IsSymbol() {
			return runtime.Undefined, runtime.NewTypeErrorValue("Symbol.prototype.toString requires that 'this' be a Symbol")
		}
		return runtime.NewString("Symbol(" + this.AsSymbol().Description + ")"), nil
	})
	proto.DefineMethod("valueOf", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if !this.IsSymbol() {
			return runtime.Undefined, runtime.NewTypeErrorValue("Symbol.prototype.valueOf requires that 'this' be a Symbol")
		}
		return this, nil
	})

	ctor := runtime.NewNativeFunction("Symbol", 0, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		desc := ""
		if len(args) > 0 && !args[0].IsUndefined() {
			desc = runtime.ToStringSimple(args[0])
		}
		return runtime.NewSymbol(desc), nil
	})
	ctor.Construct = func(args []runtime.Value, newTarget runtime.Value) (runtime.Value, error) {
		return runtime.Undefined, runtime.NewTypeErrorValue("Symbol is not a constructor")
	}
	ctor.DefineDataProperty("prototype", runtime.NewObject(proto), false, false, false)
	proto.DefineDataProperty("constructor", runtime.NewObject(ctor), true, false, true)

	registry := map[string]runtime.Value{}
	ctor.DefineMethod("for", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		key := runtime.ToStringSimple(firstArgOrUndefined(args))
		if v, ok := registry[key]; ok {
			return v, nil
		}
		sym := runtime.NewSymbol(key)
		registry[key] = sym
		return sym, nil
	})
	ctor.DefineMethod("keyFor", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target := firstArgOrUndefined(args)
		if !target.IsSymbol() {
			return runtime.Undefined, runtime.NewTypeErrorValue("Symbol.keyFor requires a Symbol argument")
		}
		for k, v := range registry {
			if v.SameObjectIdentity(target) {
				return runtime.NewString(k), nil
			}
		}
		return runtime.Undefined, nil
	})

	wk := ctx.Realm.Symbols
	ctor.DefineDataProperty("iterator", runtime.NewSymbolValue(wk.Iterator), false, false, false)
	ctor.DefineDataProperty("asyncIterator", runtime.NewSymbolValue(wk.AsyncIterator), false, false, false)
	ctor.DefineDataProperty("toStringTag", runtime.NewSymbolValue(wk.ToStringTag), false, false, false)
	ctor.DefineDataProperty("hasInstance", runtime.NewSymbolValue(wk.HasInstance), false, false, false)
	ctor.DefineDataProperty("toPrimitive", runtime.NewSymbolValue(wk.ToPrimitive), false, false, false)
	ctor.DefineDataProperty("unscopables", runtime.NewSymbolValue(wk.Unscopables), false, false, false)
	ctor.DefineDataProperty("match", runtime.NewSymbolValue(wk.Match), false, false, false)
	ctor.DefineDataProperty("replace", runtime.NewSymbolValue(wk.Replace), false, false, false)
	ctor.DefineDataProperty("search", runtime.NewSymbolValue(wk.Search), false, false, false)
	ctor.DefineDataProperty("split", runtime.NewSymbolValue(wk.Split), false, false, false)

	ctx.DefineGlobal("Symbol", runtime.NewObject(ctor))
	ctx.SetIntrinsic("Symbol", ctor)
	return nil
}
