package runtime

import (
	"math"
	"strconv"
	"strings"
)

// cleanExponentialFormat removes leading zeros from the exponent so output
// matches JS's Number::toString format, e.g. "1e-07" -> "1e-7". Ported
// verbatim in behavior from the teacher's pkg/vm/value.go helper of the
// same name.
func cleanExponentialFormat(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == 'e' || s[i] == 'E' {
			if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-') {
				sign := s[i+1]
				expStart := i + 2
				j := expStart
				for j < len(s) && s[j] == '0' {
					j++
				}
				if j >= len(s) {
					return s[:i+2] + "0"
				}
				return s[:i+1] + string(sign) + s[j:]
			}
			break
		}
	}
	return s
}

// NumberToString implements Number::toString for the default radix (10),
// matching JS formatting rules: NaN, +/-Infinity, -0 printed as "0", and
// shortest round-trippable decimal otherwise.
func NumberToString(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	if n == 0 {
		return "0"
	}
	s := strconv.FormatFloat(n, 'g', -1, 64)
	s = cleanExponentialFormat(s)
	// Go prints small magnitudes as "1e-05"; JS switches to exponential
	// notation only outside 1e-6..1e21 and otherwise prints plain decimal.
	abs := math.Abs(n)
	if abs != 0 && abs < 1e21 && abs >= 1e-6 && strings.ContainsAny(s, "eE") {
		s = strconv.FormatFloat(n, 'f', -1, 64)
	}
	return s
}

// ToNumber implements the abstract operation (spec §4.1) for the subset
// of source types it is ever invoked on in this core (BigInt excluded:
// ToNumber(bigint) throws TypeError per spec and is handled by callers).
func (v Value) ToNumber() float64 {
	switch v.typ {
	case TypeUndefined:
		return math.NaN()
	case TypeNull:
		return 0
	case TypeBoolean:
		if v.AsBool() {
			return 1
		}
		return 0
	case TypeNumber:
		return v.num
	case TypeString:
		return stringToNumber(v.str)
	default:
		return math.NaN()
	}
}

func stringToNumber(s string) float64 {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0
	}
	if t == "Infinity" || t == "+Infinity" {
		return math.Inf(1)
	}
	if t == "-Infinity" {
		return math.Inf(-1)
	}
	if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") {
		if n, err := strconv.ParseUint(t[2:], 16, 64); err == nil {
			return float64(n)
		}
		return math.NaN()
	}
	if strings.HasPrefix(t, "0o") || strings.HasPrefix(t, "0O") {
		if n, err := strconv.ParseUint(t[2:], 8, 64); err == nil {
			return float64(n)
		}
		return math.NaN()
	}
	if strings.HasPrefix(t, "0b") || strings.HasPrefix(t, "0B") {
		if n, err := strconv.ParseUint(t[2:], 2, 64); err == nil {
			return float64(n)
		}
		return math.NaN()
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ToInt32 implements the ToInt32 abstract operation: ToNumber then
// truncate-toward-zero modulo 2^32, reinterpreted as signed.
func ToInt32(n float64) int32 {
	if math.IsNaN(n) || math.IsInf(n, 0) || n == 0 {
		return 0
	}
	m := math.Mod(math.Trunc(n), 4294967296)
	if m < 0 {
		m += 4294967296
	}
	u := uint32(m)
	return int32(u)
}

// ToUint32 implements the ToUint32 abstract operation.
func ToUint32(n float64) uint32 {
	if math.IsNaN(n) || math.IsInf(n, 0) || n == 0 {
		return 0
	}
	m := math.Mod(math.Trunc(n), 4294967296)
	if m < 0 {
		m += 4294967296
	}
	return uint32(m)
}

// ToInteger implements the ToInteger abstract operation: ToNumber, then
// truncate toward zero, leaving NaN as 0 and infinities untouched.
func ToInteger(n float64) float64 {
	if math.IsNaN(n) {
		return 0
	}
	if math.IsInf(n, 0) {
		return n
	}
	return math.Trunc(n)
}

// ToLength clamps ToInteger to the valid array-index range [0, 2^53-1].
func ToLength(n float64) float64 {
	i := ToInteger(n)
	if i <= 0 {
		return 0
	}
	const maxSafe = 1<<53 - 1
	if i > maxSafe {
		return maxSafe
	}
	return i
}

// IsArrayIndex reports whether s is the canonical decimal form of an
// integer in [0, 2^32-2], the definition of an array-index property key
// (spec §3 "Property Key").
func IsArrayIndex(s string) (uint32, bool) {
	if s == "" || (s[0] == '0' && len(s) > 1) {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n >= 4294967295 {
		return 0, false
	}
	return uint32(n), true
}

// canonicalNumericIndex implements CanonicalNumericIndexString, used by
// the Integer-Indexed exotic [[Get]]/[[Set]] override: s must be the
// canonical decimal form of a non-negative integer (unlike IsArrayIndex,
// not capped at 2^32-2, since a typed array's length can reach the
// Integer-Indexed object's own bound rather than the Array exotic one).
func canonicalNumericIndex(s string) (int, bool) {
	if s == "" || (s[0] == '0' && len(s) > 1) {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return int(n), true
}
