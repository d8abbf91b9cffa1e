package interpreter

import (
	"testing"

	"ecmacore/pkg/intrinsics"
	"ecmacore/pkg/lexer"
	"ecmacore/pkg/parser"
	"ecmacore/pkg/runtime"
)

func newTestRealm(t *testing.T) *runtime.Realm {
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

func run(t *testing.T, realm *runtime.Realm, ip *Interpreter, source string) (runtime.Value, error) {
	t.Helper()
	l := lexer.NewLexer(source)
	p := parser.NewParser(l)
	program, errs := p.ParseProgram()
	if len(errs) > 0 {
		t.Fatalf("parse error: %v", errs[0])
	}
	return ip.RunProgram(realm, program)
}

// thrownErrorNameAndMessage unwraps a *runtime.Throw of an Error instance
// into its "name"/"message" properties, the shape every RuntimeSignal
// becomes once it crosses frame.throwSignal's boundary.
func thrownErrorNameAndMessage(t *testing.T, err error) (name, message string) {
	t.Helper()
	thr, ok := err.(*runtime.Throw)
	if !ok {
		t.Fatalf("expected *runtime.Throw, got %T: %v", err, err)
	}
	if !thr.Value.IsObject() {
		t.Fatalf("expected the thrown value to be an Error object, got %v", thr.Value.DebugString())
	}
	obj := thr.Value.AsObject()
	nameVal, err1 := obj.Get(runtime.StringKey("name"), thr.Value)
	msgVal, err2 := obj.Get(runtime.StringKey("message"), thr.Value)
	if err1 != nil || err2 != nil {
		t.Fatalf("reading name/message: %v / %v", err1, err2)
	}
	return nameVal.AsString(), msgVal.AsString()
}

// Property 6 (spec §8): reading or writing a let/const/class binding
// before its initializer throws ReferenceError.
func TestTDZReadThrowsReferenceError(t *testing.T) {
	realm := newTestRealm(t)
	ip := New()
	_, err := run(t, realm, ip, "let result = (function(){ let v = x; let x = 1; return v; })();")
	if err == nil {
		t.Fatal("expected a ReferenceError reading x before its initializer")
	}
	name, _ := thrownErrorNameAndMessage(t, err)
	if name != "ReferenceError" {
		t.Errorf("got error name %q, want ReferenceError", name)
	}
}

func TestTDZWriteThrowsReferenceError(t *testing.T) {
	realm := newTestRealm(t)
	ip := New()
	_, err := run(t, realm, ip, "(function(){ x = 1; let x; })();")
	if err == nil {
		t.Fatal("expected a ReferenceError writing x before its initializer")
	}
	name, _ := thrownErrorNameAndMessage(t, err)
	if name != "ReferenceError" {
		t.Errorf("got error name %q, want ReferenceError", name)
	}
}

// Property 7 (spec §8): re-declaring an existing lexical binding via
// let/const/class throws TypeError with the verbatim message.
func TestGlobalRedeclarationThrowsTypeError(t *testing.T) {
	realm := newTestRealm(t)
	ip := New()
	_, err := run(t, realm, ip, "let x; let x;")
	if err == nil {
		t.Fatal("expected a TypeError redeclaring a global let binding")
	}
	name, message := thrownErrorNameAndMessage(t, err)
	if name != "TypeError" {
		t.Errorf("got error name %q, want TypeError", name)
	}
	if message != "x has already been declared" {
		t.Errorf("got message %q, want %q", message, "x has already been declared")
	}
}

func TestGlobalRedeclarationAcrossSeparateRuns(t *testing.T) {
	realm := newTestRealm(t)
	ip := New()
	if _, err := run(t, realm, ip, "let y = 1;"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	_, err := run(t, realm, ip, "let y = 2;")
	if err == nil {
		t.Fatal("expected a TypeError redeclaring y in a later top-level evaluation")
	}
	name, _ := thrownErrorNameAndMessage(t, err)
	if name != "TypeError" {
		t.Errorf("got error name %q, want TypeError", name)
	}
}

// Property 9 (spec §8): a quota-triggered abort runs all finally blocks on
// the unwind path before returning control to the host.
func TestQuotaAbortUnwindsFinally(t *testing.T) {
	realm := newTestRealm(t)
	realm.Quota.MaxStatements = 20
	ip := New()
	_, err := run(t, realm, ip, `
		var cleaned = false;
		try {
			while (true) {}
		} finally {
			cleaned = true;
		}
	`)
	if err == nil {
		t.Fatal("expected the runaway loop to trip the statement quota")
	}
	sig, ok := err.(*runtime.RuntimeSignal)
	if !ok || sig.Kind != "QuotaExceeded" {
		t.Fatalf("got %T/%v, want a QuotaExceeded RuntimeSignal", err, err)
	}

	cleaned, getErr := realm.GlobalObject.Get(runtime.StringKey("cleaned"), runtime.NewObject(realm.GlobalObject))
	if getErr != nil {
		t.Fatalf("reading cleaned: %v", getErr)
	}
	if !cleaned.ToBoolean() {
		t.Error("expected the finally block to run and set cleaned = true despite the abort")
	}
}
