package runtime

import (
	"math"
	"math/big"
)

// StrictEquals implements the `===` algorithm: type + bit pattern, with
// NaN !== NaN and +0 === -0 (testable property 5 of spec §8).
func StrictEquals(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case TypeUndefined, TypeNull:
		return true
	case TypeBoolean:
		return a.num == b.num
	case TypeNumber:
		return a.num == b.num // Go float64 == already gives NaN!=NaN and +0==-0
	case TypeBigInt:
		return a.big.Cmp(b.big) == 0
	case TypeString:
		return a.str == b.str
	case TypeSymbol:
		return a.sym == b.sym
	case TypeObject:
		return a.obj == b.obj
	default:
		return false
	}
}

// SameValue implements the SameValue algorithm: like strict equality
// except NaN is SameValue to itself and +0 is not SameValue to -0.
func SameValue(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	if a.typ == TypeNumber {
		if math.IsNaN(a.num) && math.IsNaN(b.num) {
			return true
		}
		if a.num == 0 && b.num == 0 {
			return math.Signbit(a.num) == math.Signbit(b.num)
		}
		return a.num == b.num
	}
	return StrictEquals(a, b)
}

// SameValueZero is SameValue except +0 SameValueZero -0 (used by Array
// includes, Map/Set key comparison).
func SameValueZero(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	if a.typ == TypeNumber {
		if math.IsNaN(a.num) && math.IsNaN(b.num) {
			return true
		}
		return a.num == b.num
	}
	return StrictEquals(a, b)
}

// LooseEquals implements the `==` Abstract Equality Comparison algorithm.
// toPrimitive is supplied by the caller (pkg/interpreter or pkg/intrinsics)
// since ToPrimitive may invoke a user-defined valueOf/toString/@@toPrimitive
// method, which this package cannot itself invoke (see the CallFn seam in
// object.go).
func LooseEquals(a, b Value, toPrimitive func(Value) (Value, error)) (bool, error) {
	if a.typ == b.typ {
		return StrictEquals(a, b), nil
	}
	if a.IsNullish() && b.IsNullish() {
		return true, nil
	}
	if a.IsNullish() || b.IsNullish() {
		return false, nil
	}
	if a.typ == TypeNumber && b.typ == TypeString {
		return a.num == stringToNumber(b.str), nil
	}
	if a.typ == TypeString && b.typ == TypeNumber {
		return stringToNumber(a.str) == b.num, nil
	}
	if a.typ == TypeBigInt && b.typ == TypeString {
		bi, ok := new(big.Int).SetString(b.str, 10)
		return ok && a.big.Cmp(bi) == 0, nil
	}
	if a.typ == TypeString && b.typ == TypeBigInt {
		bi, ok := new(big.Int).SetString(a.str, 10)
		return ok && bi.Cmp(b.big) == 0, nil
	}
	if a.typ == TypeBoolean {
		return LooseEquals(NewNumber(a.ToNumber()), b, toPrimitive)
	}
	if b.typ == TypeBoolean {
		return LooseEquals(a, NewNumber(b.ToNumber()), toPrimitive)
	}
	if (a.typ == TypeNumber || a.typ == TypeString || a.typ == TypeBigInt || a.typ == TypeSymbol) && b.typ == TypeObject {
		pb, err := toPrimitive(b)
		if err != nil {
			return false, err
		}
		return LooseEquals(a, pb, toPrimitive)
	}
	if a.typ == TypeObject && (b.typ == TypeNumber || b.typ == TypeString || b.typ == TypeBigInt || b.typ == TypeSymbol) {
		pa, err := toPrimitive(a)
		if err != nil {
			return false, err
		}
		return LooseEquals(pa, b, toPrimitive)
	}
	if a.typ == TypeBigInt && b.typ == TypeNumber || a.typ == TypeNumber && b.typ == TypeBigInt {
		var bi Value
		var num Value
		if a.typ == TypeBigInt {
			bi, num = a, b
		} else {
			bi, num = b, a
		}
		if math.IsNaN(num.num) || math.IsInf(num.num, 0) || num.num != math.Trunc(num.num) {
			return false, nil
		}
		bf, _ := big.NewFloat(num.num).Int(nil)
		return bi.big.Cmp(bf) == 0, nil
	}
	return false, nil
}
