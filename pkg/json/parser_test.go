package json

import "testing"

func TestParseScalars(t *testing.T) {
	cases := []struct {
		name string
		in   string
		kind Kind
	}{
		{"null", "null", KindNull},
		{"true", "true", KindBool},
		{"false", "false", KindBool},
		{"number", "42", KindNumber},
		{"negative", "-17.5", KindNumber},
		{"exponent", "1e10", KindNumber},
		{"string", `"hello"`, KindString},
		{"array", "[1,2,3]", KindArray},
		{"object", `{"a":1}`, KindObject},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, err := Parse(c.in)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", c.in, err)
			}
			if v.Kind != c.kind {
				t.Errorf("Parse(%q) kind = %v, want %v", c.in, v.Kind, c.kind)
			}
		})
	}
}

func TestParseWhitespace(t *testing.T) {
	v, err := Parse("  \n\t{ \"a\" : [ 1 , 2 ] }\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != KindObject {
		t.Fatalf("expected object, got %v", v.Kind)
	}
	arr := v.ObjVals["a"]
	if len(arr.Array) != 2 {
		t.Errorf("expected 2 elements, got %d", len(arr.Array))
	}
}

func TestParseObjectPreservesKeyOrder(t *testing.T) {
	v, err := Parse(`{"z":1,"a":2,"m":3}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"z", "a", "m"}
	if len(v.ObjKeys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(v.ObjKeys))
	}
	for i, k := range want {
		if v.ObjKeys[i] != k {
			t.Errorf("key[%d] = %q, want %q", i, v.ObjKeys[i], k)
		}
	}
}

func TestParseStringEscapes(t *testing.T) {
	v, err := Parse(`"a\nb\tcA"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "a\nb\tcA"
	if v.Str != want {
		t.Errorf("got %q, want %q", v.Str, want)
	}
}

func TestParseRejectsLeadingZero(t *testing.T) {
	if _, err := Parse("012"); err == nil {
		t.Fatal("expected error for leading zero")
	}
}

func TestParseRejectsTrailingComma(t *testing.T) {
	if _, err := Parse("[1,2,]"); err == nil {
		t.Fatal("expected error for trailing comma in array")
	}
	if _, err := Parse(`{"a":1,}`); err == nil {
		t.Fatal("expected error for trailing comma in object")
	}
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	if _, err := Parse("123 456"); err == nil {
		t.Fatal("expected error for trailing garbage after value")
	}
}

func TestParseRejectsUnterminatedString(t *testing.T) {
	if _, err := Parse(`"abc`); err == nil {
		t.Fatal("expected error for unterminated string")
	}
}

func TestParseRejectsBadHexEscape(t *testing.T) {
	if _, err := Parse(`"\u00zz"`); err == nil {
		t.Fatal("expected error for bad hex escape")
	}
}

func TestParseRejectsControlCharInString(t *testing.T) {
	if _, err := Parse("\"a\x01b\""); err == nil {
		t.Fatal("expected error for raw control character in string")
	}
}

func TestParseRejectsEmptyInput(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestParseRejectsVerticalTabEscape(t *testing.T) {
	// ECMA-404 has no \v escape and this parser rejects it even though
	// some JSON.parse implementations out in the wild accept it.
	if _, err := Parse(`"a\vb"`); err == nil {
		t.Fatal("expected error for \\v escape, which ECMA-404 forbids")
	}
}
