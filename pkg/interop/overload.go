package interop

import "ecmacore/pkg/runtime"

// ParamKind is the coarse parameter shape an overload candidate declares
// for one positional slot, used to score how well a call-site argument
// list fits it (spec.md §4.7 "method-group overload resolution by
// arity-then-assignability").
type ParamKind uint8

const (
	ParamAny ParamKind = iota
	ParamNumeric
	ParamText
	ParamBool
	ParamSequence
	ParamDictionary
)

// Overload is one candidate signature of a host method group; Params is
// its declared parameter shape, and its length is the declared arity
// (varargs candidates set Variadic and Params holds only the fixed
// prefix).
type Overload struct {
	Params   []ParamKind
	Variadic bool
	Invoke   func(args []runtime.Value) (runtime.Value, error)
}

// ResolveOverload picks the best-fitting candidate for args out of
// candidates: first narrowing to the candidates whose arity matches (an
// exact count, or a variadic candidate whose fixed prefix count is at
// most len(args)), then, among those, the one with the highest score,
// where each argument assignable to its declared kind without coercion
// scores 2 and each one assignable only with coercion scores 1; on equal
// scores the earlier candidate wins. Returns false if no candidate's
// arity fits.
func ResolveOverload(candidates []Overload, args []runtime.Value) (Overload, bool) {
	var arityMatched []Overload
	for _, c := range candidates {
		if c.Variadic {
			if len(args) >= len(c.Params) {
				arityMatched = append(arityMatched, c)
			}
			continue
		}
		if len(args) == len(c.Params) {
			arityMatched = append(arityMatched, c)
		}
	}
	if len(arityMatched) == 0 {
		return Overload{}, false
	}
	if len(arityMatched) == 1 {
		return arityMatched[0], true
	}

	best := arityMatched[0]
	bestScore := -1
	for _, c := range arityMatched {
		score := scoreOverload(c, args)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best, true
}

// scoreOverload counts exact-kind matches, then coercible matches at half
// weight, over the fixed (non-variadic-tail) parameter prefix.
func scoreOverload(c Overload, args []runtime.Value) int {
	score := 0
	for i, kind := range c.Params {
		if i >= len(args) {
			break
		}
		switch assignability(kind, args[i]) {
		case exact:
			score += 2
		case coercible:
			score++
		}
	}
	return score
}

type fit uint8

const (
	noFit fit = iota
	coercible
	exact
)

// assignability implements spec.md §4.7's coercion table: number<->numeric,
// string<->text, boolean<->bool, JS array<->sequence, object<->dictionary.
func assignability(kind ParamKind, v runtime.Value) fit {
	switch kind {
	case ParamAny:
		return exact
	case ParamNumeric:
		if v.IsNumber() {
			return exact
		}
		if v.IsString() || v.IsBoolean() {
			return coercible
		}
	case ParamText:
		if v.IsString() {
			return exact
		}
		if v.IsNumber() || v.IsBoolean() || v.IsSymbol() {
			return coercible
		}
	case ParamBool:
		if v.IsBoolean() {
			return exact
		}
		return coercible // ToBoolean is total
	case ParamSequence:
		if v.IsObject() && v.AsObject().Kind == runtime.KindArray {
			return exact
		}
	case ParamDictionary:
		if v.IsObject() && v.AsObject().Kind != runtime.KindArray {
			return exact
		}
	}
	return noFit
}
