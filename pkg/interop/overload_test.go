package interop

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ecmacore/pkg/runtime"
)

func TestResolveOverloadByArity(t *testing.T) {
	one := Overload{Params: []ParamKind{ParamAny}}
	two := Overload{Params: []ParamKind{ParamAny, ParamAny}}
	candidates := []Overload{one, two}

	got, ok := ResolveOverload(candidates, []runtime.Value{runtime.NewNumber(1)})
	assert.True(t, ok, "expected a match for one argument")
	assert.Len(t, got.Params, 1, "expected the one-arg overload")

	got, ok = ResolveOverload(candidates, []runtime.Value{runtime.NewNumber(1), runtime.NewNumber(2)})
	assert.True(t, ok, "expected a match for two arguments")
	assert.Len(t, got.Params, 2, "expected the two-arg overload")
}

func TestResolveOverloadNoArityMatch(t *testing.T) {
	candidates := []Overload{{Params: []ParamKind{ParamAny}}}
	_, ok := ResolveOverload(candidates, nil)
	assert.False(t, ok, "expected no match when no candidate's arity fits")
}

func TestResolveOverloadPrefersExactKind(t *testing.T) {
	numeric := Overload{Params: []ParamKind{ParamNumeric}}
	text := Overload{Params: []ParamKind{ParamText}}
	candidates := []Overload{numeric, text}

	got, ok := ResolveOverload(candidates, []runtime.Value{runtime.NewString("hello")})
	assert.True(t, ok, "expected a match")
	if assert.Len(t, got.Params, 1) {
		assert.Equal(t, ParamText, got.Params[0], "expected the text overload to win an exact match over a coercible one")
	}
}

func TestResolveOverloadVariadic(t *testing.T) {
	fixed := Overload{Params: []ParamKind{ParamAny}}
	variadic := Overload{Params: []ParamKind{ParamAny}, Variadic: true}
	candidates := []Overload{fixed, variadic}

	got, ok := ResolveOverload(candidates, []runtime.Value{runtime.NewNumber(1), runtime.NewNumber(2), runtime.NewNumber(3)})
	assert.True(t, ok, "expected the variadic overload to match three arguments")
	assert.True(t, got.Variadic, "expected the variadic candidate to be selected")
}

func TestAssignabilityCoercionTable(t *testing.T) {
	cases := []struct {
		name string
		kind ParamKind
		v    runtime.Value
		want fit
	}{
		{"numeric exact", ParamNumeric, runtime.NewNumber(1), exact},
		{"numeric coercible from string", ParamNumeric, runtime.NewString("1"), coercible},
		{"text exact", ParamText, runtime.NewString("s"), exact},
		{"text coercible from number", ParamText, runtime.NewNumber(1), coercible},
		{"bool exact", ParamBool, runtime.NewBool(true), exact},
		{"bool coercible from number", ParamBool, runtime.NewNumber(0), coercible},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, assignability(c.kind, c.v))
		})
	}
}
