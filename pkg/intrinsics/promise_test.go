package intrinsics_test

import (
	"testing"

	"ecmacore/pkg/interpreter"
	"ecmacore/pkg/intrinsics"
	"ecmacore/pkg/lexer"
	"ecmacore/pkg/parser"
	"ecmacore/pkg/runtime"
)

func newPromiseTestRealm(t *testing.T) *runtime.Realm {
	t.Helper()
	realm := runtime.NewRealm()
	realm.GlobalObject = runtime.NewPlainObject(nil)
	if err := intrinsics.InitAll(realm); err != nil {
		t.Fatalf("InitAll: %v", err)
	}
	realm.GlobalObject.SetPrototypeOf(realm.Intrinsic("ObjectPrototype"))
	realm.GlobalEnv = runtime.NewGlobalEnvironment(realm.GlobalObject)
	return realm
}

// Property 8 (spec §8): given two resolved promises enqueued in order,
// their reactions run in that order.
func TestPromiseReactionsRunInFIFOOrder(t *testing.T) {
	realm := newPromiseTestRealm(t)
	var order []float64
	realm.GlobalObject.DefineMethod("record", 1, func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
		order = append(order, args[0].AsNumber())
		return runtime.Undefined, nil
	})

	source := `
		var p1 = Promise.resolve(1);
		var p2 = Promise.resolve(2);
		p1.then(function(v) { record(v); });
		p2.then(function(v) { record(v); });
	`
	l := lexer.NewLexer(source)
	p := parser.NewParser(l)
	program, errs := p.ParseProgram()
	if len(errs) > 0 {
		t.Fatalf("parse error: %v", errs[0])
	}
	ip := interpreter.New()
	if _, err := ip.RunProgram(realm, program); err != nil {
		t.Fatalf("RunProgram: %v", err)
	}

	if len(order) != 0 {
		t.Fatalf("expected reactions to be deferred until DrainMicrotasks, got %v", order)
	}
	realm.DrainMicrotasks()

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("got %v, want [1 2] (p1's reaction before p2's)", order)
	}
}
