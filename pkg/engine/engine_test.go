package engine

import (
	"testing"

	"ecmacore/pkg/runtime"
)

func TestExecuteArithmetic(t *testing.T) {
	eng, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v, err := eng.Execute("(function(){ var x=1; return x+2; })()")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if v.AsNumber() != 3 {
		t.Errorf("got %v, want 3", v.AsNumber())
	}
}

func TestExecutePersistsStateAcrossCalls(t *testing.T) {
	eng, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := eng.Execute("var counter = 1;"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	v, err := eng.Execute("counter = counter + 1; counter;")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if v.AsNumber() != 2 {
		t.Errorf("got %v, want 2 (state should persist across Execute calls)", v.AsNumber())
	}
}

func TestSetValueGetValue(t *testing.T) {
	eng, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v, err := eng.GetValue("nope")
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if !v.IsUndefined() {
		t.Errorf("expected undefined for unset global, got %v", v.DebugString())
	}

	eng.SetValue("greeting", runtime.NewString("hi"))
	got, err := eng.Execute("greeting")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got.AsString() != "hi" {
		t.Errorf("got %q, want %q", got.AsString(), "hi")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	eng, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v, err := eng.Execute("JSON.parse('[1,2,3]').map(x=>x*x).reduce((a,b)=>a+b,0)")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if v.AsNumber() != 14 {
		t.Errorf("got %v, want 14", v.AsNumber())
	}
}

func TestHostInteropDisabledByDefault(t *testing.T) {
	eng, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.SetHostObject("host", nil); err == nil {
		t.Error("expected SetHostObject to fail when AllowHostInterop is false")
	}
}
