package intrinsics_test

import (
	"testing"

	"ecmacore/pkg/interpreter"
	"ecmacore/pkg/lexer"
	"ecmacore/pkg/parser"
	"ecmacore/pkg/runtime"
)

func evalString(t *testing.T, realm *runtime.Realm, source string) runtime.Value {
	t.Helper()
	l := lexer.NewLexer(source)
	p := parser.NewParser(l)
	program, errs := p.ParseProgram()
	if len(errs) > 0 {
		t.Fatalf("parse error: %v", errs[0])
	}
	v, err := interpreter.New().RunProgram(realm, program)
	if err != nil {
		t.Fatalf("RunProgram(%q): %v", source, err)
	}
	return v
}

// precomposed is "é" as the single codepoint U+00E9; decomposed is "e"
// followed by the combining acute accent U+0301. The lexer has no \uXXXX
// string escape, so the decomposed form is built in Go and spliced into the
// JS source rather than written as a literal in the script text.
var (
	precomposedEAcute = "é"
	decomposedEAcute  = "e" + "́"
)

func TestStringNormalizeNFCAndNFDAreEquivalentUnderNFC(t *testing.T) {
	if precomposedEAcute == decomposedEAcute {
		t.Fatal("test fixture bug: precomposed and decomposed forms are byte-identical")
	}
	realm := newPromiseTestRealm(t)
	source := `("` + precomposedEAcute + `").normalize("NFC") === ("` + decomposedEAcute + `").normalize("NFC")`
	v := evalString(t, realm, source)
	if !v.ToBoolean() {
		t.Error("expected NFC-normalized precomposed and decomposed forms to be strict-equal")
	}
}

func TestStringNormalizeNFDProducesDecomposedForm(t *testing.T) {
	realm := newPromiseTestRealm(t)
	source := `("` + precomposedEAcute + `").normalize("NFD") === "` + decomposedEAcute + `"`
	v := evalString(t, realm, source)
	if !v.ToBoolean() {
		t.Error("expected NFD-normalizing the precomposed form to yield the decomposed form")
	}
}

func TestStringNormalizeDefaultsToNFC(t *testing.T) {
	realm := newPromiseTestRealm(t)
	source := `("` + decomposedEAcute + `").normalize() === "` + precomposedEAcute + `"`
	v := evalString(t, realm, source)
	if !v.ToBoolean() {
		t.Error("expected normalize() with no argument to default to NFC")
	}
}

func TestStringNormalizeRejectsUnknownForm(t *testing.T) {
	realm := newPromiseTestRealm(t)
	l := lexer.NewLexer(`"a".normalize("bogus")`)
	p := parser.NewParser(l)
	program, errs := p.ParseProgram()
	if len(errs) > 0 {
		t.Fatalf("parse error: %v", errs[0])
	}
	_, err := interpreter.New().RunProgram(realm, program)
	if err == nil {
		t.Fatal("expected an unrecognized normalization form to throw")
	}
	thr, ok := err.(*runtime.Throw)
	if !ok {
		t.Fatalf("expected *runtime.Throw, got %T: %v", err, err)
	}
	name, _ := thr.Value.AsObject().Get(runtime.StringKey("name"), thr.Value)
	if name.AsString() != "RangeError" {
		t.Errorf("got error name %q, want RangeError", name.AsString())
	}
}
