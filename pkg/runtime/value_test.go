package runtime

import (
	"math"
	"testing"
)

// Property 5 (spec §8): strict equality is reflexive for every value
// except NaN, and +0 is strict-equal to -0.
func TestStrictEqualsReflexiveExceptNaN(t *testing.T) {
	values := []Value{
		Undefined,
		Null,
		NewBool(true),
		NewBool(false),
		NewNumber(0),
		NewNumber(-1),
		NewNumber(3.5),
		NewString(""),
		NewString("hi"),
		NewObject(NewPlainObject(nil)),
	}
	for _, v := range values {
		if !StrictEquals(v, v) {
			t.Errorf("expected %v === %v", v.DebugString(), v.DebugString())
		}
	}

	nan := NewNumber(math.NaN())
	if StrictEquals(nan, nan) {
		t.Error("expected NaN !== NaN")
	}

	posZero, negZero := NewNumber(0), NewNumber(math.Copysign(0, -1))
	if !StrictEquals(posZero, negZero) {
		t.Error("expected +0 === -0 under strict equality")
	}
}

func TestStrictEqualsCrossType(t *testing.T) {
	if StrictEquals(NewNumber(1), NewString("1")) {
		t.Error("expected 1 !== \"1\" (no type coercion under strict equality)")
	}
	if StrictEquals(Undefined, Null) {
		t.Error("expected undefined !== null")
	}
}
