// Package intrinsics builds the ECMAScript standard library: every global
// constructor, prototype, and namespace object a fresh Realm needs before
// any script runs. Each builtin is a small Initializer implementation
// registered in order of Priority, mirroring the teacher's
// BuiltinInitializer registry minus its parallel static-type half (this
// core has no type checker to feed — see DESIGN.md).
package intrinsics

import "ecmacore/pkg/runtime"

// Initializer is implemented by each standard-library module. Init runs
// once per Realm, in Priority order, and is expected to populate
// realm.Intrinsics and/or define global bindings via ctx.
type Initializer interface {
	Name() string
	Priority() int
	Init(ctx *Context) error
}

// Context provides everything an Initializer needs: the realm under
// construction, a DefineGlobal hook that installs a property on the global
// object, and Intrinsic/SetIntrinsic accessors for realm.Intrinsics, where
// later initializers (and pkg/interpreter) retrieve objects by name.
type Context struct {
	Realm *runtime.Realm
}

func (c *Context) DefineGlobal(name string, v runtime.Value) {
	c.Realm.GlobalObject.DefineDataProperty(name, v, true, false, true)
}

func (c *Context) Intrinsic(name string) *runtime.Object { return c.Realm.Intrinsic(name) }

func (c *Context) SetIntrinsic(name string, o *runtime.Object) { c.Realm.Intrinsics[name] = o }

// Priority constants mirror the teacher's ordering rationale: Object
// before everything (base prototype), Function next (inherits Object),
// iteration protocol before the collections that implement it, primitive
// wrapper types after their exotic-object cousins, namespace objects last.
const (
	PriorityObject         = 0
	PriorityFunction       = 1
	PriorityIterator       = 2
	PriorityArray          = 3
	PriorityArguments      = 4
	PriorityGenerator      = 5
	PriorityAsyncGenerator = 6
	PriorityString         = 10
	PriorityNumber         = 11
	PriorityBoolean        = 12
	PriorityRegExp         = 13
	PrioritySymbol         = 14
	PriorityErrorHierarchy = 15
	PriorityMapSet         = 20
	PriorityPromise        = 21
	PriorityProxyReflect   = 22
	PriorityTypedArray     = 23
	PriorityMath           = 100
	PriorityJSON           = 101
	PriorityConsole        = 102
	PriorityDate           = 103
)

// All returns every standard Initializer in registration order. pkg/engine
// sorts by Priority and runs Init once per fresh Realm.
func All() []Initializer {
	return []Initializer{
		&ObjectInitializer{},
		&FunctionInitializer{},
		&IteratorInitializer{},
		&ArrayInitializer{},
		&StringInitializer{},
		&NumberInitializer{},
		&BooleanInitializer{},
		&SymbolInitializer{},
		&RegExpInitializer{},
		&ErrorInitializer{},
		&MapSetInitializer{},
		&PromiseInitializer{},
		&ProxyReflectInitializer{},
		&TypedArrayInitializer{},
		&MathInitializer{},
		&JSONInitializer{},
		&ConsoleInitializer{},
		&DateInitializer{},
	}
}

// InitAll sorts All() by Priority and runs each Init against realm,
// the one-call entry point pkg/engine uses to stand up a fresh Realm's
// standard library.
func InitAll(realm *runtime.Realm) error {
	ctx := &Context{Realm: realm}
	inits := All()
	for i := 1; i < len(inits); i++ {
		j := i
		for j > 0 && inits[j-1].Priority() > inits[j].Priority() {
			inits[j-1], inits[j] = inits[j], inits[j-1]
			j--
		}
	}
	for _, in := range inits {
		if err := in.Init(ctx); err != nil {
			return err
		}
	}
	return nil
}
