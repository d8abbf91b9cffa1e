package runtime

import "fmt"

// PropertyKey is either a string or a symbol (spec §3). Array-index keys
// are represented as their canonical string form; IsArrayIndex recognizes
// them on demand rather than caching a separate numeric tag, matching the
// teacher's PropertyKey design (pkg/vm/object.go).
type PropertyKey struct {
	isSym bool
	name  string
	sym   *SymbolData
}

func StringKey(name string) PropertyKey { return PropertyKey{name: name} }

func SymbolKey(sym *SymbolData) PropertyKey { return PropertyKey{isSym: true, sym: sym} }

func (k PropertyKey) IsSymbol() bool { return k.isSym }
func (k PropertyKey) IsString() bool { return !k.isSym }
func (k PropertyKey) Name() string   { return k.name }
func (k PropertyKey) Symbol() *SymbolData { return k.sym }

// hash returns a string suitable for use as a Go map key, unique per
// PropertyKey identity (pointer identity for symbols).
func (k PropertyKey) hash() string {
	if k.isSym {
		return fmt.Sprintf("@%p", k.sym)
	}
	return "#" + k.name
}

func (k PropertyKey) String() string {
	if k.isSym {
		return "Symbol(" + k.sym.Description + ")"
	}
	return k.name
}

// ToPropertyKey implements the abstract operation: objects go through
// ToPrimitive(hint=string) first via the supplied callback (may invoke
// user code), everything else stringifies directly.
func ToPropertyKey(v Value, toPrimitiveString func(Value) (Value, error)) (PropertyKey, error) {
	if v.typ == TypeSymbol {
		return SymbolKey(v.sym), nil
	}
	if v.typ == TypeObject && toPrimitiveString != nil {
		p, err := toPrimitiveString(v)
		if err != nil {
			return PropertyKey{}, err
		}
		v = p
	}
	return StringKey(ToStringSimple(v)), nil
}

// ToStringSimple implements ToString for the primitive types that never
// require invoking user code (Symbol excluded: callers must reject or
// special-case symbols before calling this, per spec ToString(symbol)
// throwing TypeError).
func ToStringSimple(v Value) string {
	switch v.typ {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case TypeNumber:
		return NumberToString(v.num)
	case TypeBigInt:
		return v.big.String()
	case TypeString:
		return v.str
	default:
		return v.DebugString()
	}
}
