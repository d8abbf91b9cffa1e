package runtime

import "testing"

// Property 3 (spec §8): after DefineOwnProperty, GetOwnProperty returns an
// equivalent descriptor modulo defaulted fields.
func TestDefineOwnPropertyDescriptorRoundTrip(t *testing.T) {
	obj := NewPlainObject(nil)
	v := NewNumber(42)
	desc := DataDescriptor(v, true, false, true)

	ok, err := obj.DefineOwnProperty(StringKey("x"), desc)
	if err != nil {
		t.Fatalf("DefineOwnProperty: %v", err)
	}
	if !ok {
		t.Fatal("DefineOwnProperty returned false")
	}

	got, err := obj.GetOwnProperty(StringKey("x"))
	if err != nil {
		t.Fatalf("GetOwnProperty: %v", err)
	}
	if got == nil {
		t.Fatal("GetOwnProperty returned nil after DefineOwnProperty")
	}
	if got.Value == nil || !StrictEquals(*got.Value, v) {
		t.Errorf("Value = %v, want %v", got.Value, v)
	}
	if got.Writable == nil || *got.Writable != true {
		t.Errorf("Writable = %v, want true", got.Writable)
	}
	if got.Enumerable == nil || *got.Enumerable != false {
		t.Errorf("Enumerable = %v, want false", got.Enumerable)
	}
	if got.Configurable == nil || *got.Configurable != true {
		t.Errorf("Configurable = %v, want true", got.Configurable)
	}
}

func TestDefineOwnPropertyAccessorRoundTrip(t *testing.T) {
	obj := NewPlainObject(nil)
	getter := NewObject(NewNativeFunction("get", 0, func(this Value, args []Value) (Value, error) {
		return NewNumber(7), nil
	}))
	desc := AccessorDescriptor(getter, Undefined, true, false)

	if _, err := obj.DefineOwnProperty(StringKey("y"), desc); err != nil {
		t.Fatalf("DefineOwnProperty: %v", err)
	}

	got, err := obj.GetOwnProperty(StringKey("y"))
	if err != nil {
		t.Fatalf("GetOwnProperty: %v", err)
	}
	if got == nil || !got.IsAccessor() {
		t.Fatal("expected an accessor descriptor back")
	}
	if got.Get == nil || !StrictEquals(*got.Get, getter) {
		t.Errorf("Get = %v, want %v", got.Get, getter)
	}
	if got.Enumerable == nil || *got.Enumerable != true {
		t.Errorf("Enumerable = %v, want true", got.Enumerable)
	}
	if got.Configurable == nil || *got.Configurable != false {
		t.Errorf("Configurable = %v, want false", got.Configurable)
	}
}

// Property 4 (spec §8): OwnPropertyKeys yields array-index keys ascending
// numerically, then other string keys in insertion order, then symbols.
func TestOwnPropertyKeysOrdering(t *testing.T) {
	obj := NewPlainObject(nil)
	obj.DefineDataProperty("b", NewNumber(1), true, true, true)
	obj.DefineDataProperty("2", NewNumber(1), true, true, true)
	obj.DefineDataProperty("a", NewNumber(1), true, true, true)
	obj.DefineDataProperty("0", NewNumber(1), true, true, true)
	obj.DefineDataProperty("10", NewNumber(1), true, true, true)
	sym := &SymbolData{Description: "s"}
	obj.DefineOwnProperty(SymbolKey(sym), DataDescriptor(NewNumber(1), true, true, true))

	keys, err := obj.OwnPropertyKeys()
	if err != nil {
		t.Fatalf("OwnPropertyKeys: %v", err)
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		if k.IsSymbol() {
			names[i] = "<symbol>"
			continue
		}
		names[i] = k.Name()
	}

	want := []string{"0", "2", "10", "b", "a", "<symbol>"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: got %q, want %q (full: %v)", i, names[i], want[i], names)
		}
	}
}
