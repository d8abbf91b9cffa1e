package runtime

// NewArray builds an Array exotic object (spec §4.2 "Array exotic") with
// the non-configurable, writable `length` own property every array
// carries.
func NewArray(proto *Object, length uint32) *Object {
	o := &Object{Kind: KindArray, Class: "Array", Prototype: proto, Extensible: true, table: make(map[string]*slot)}
	o.table["#length"] = &slot{key: StringKey("length"), value: NewNumber(float64(length)), writable: true}
	o.keys = append(o.keys, StringKey("length"))
	return o
}

func (o *Object) ArrayLength() uint32 {
	if s, ok := o.table["#length"]; ok {
		return uint32(s.value.ToNumber())
	}
	return 0
}

func (o *Object) setArrayLength(n uint32) {
	o.table["#length"].value = NewNumber(float64(n))
}

// arrayDefineOwnProperty implements the Array exotic [[DefineOwnProperty]]
// override (spec §4.2): writes to `length` truncate or extend, deleting
// elements with index >= new length starting from the highest; writes
// past the current length extend it. A non-configurable element blocks
// truncation past it. Returns (ok, handled, err) — handled is false when
// the ordinary algorithm should run instead (any key but "length" or an
// array index is not specially handled here beyond extending length).
func (o *Object) arrayDefineOwnProperty(key PropertyKey, desc PropertyDescriptor) (bool, bool, error) {
	if key.IsString() && key.Name() == "length" {
		if desc.Value == nil {
			ok, err := o.genericDefineOwnProperty(key, desc)
			return ok, true, err
		}
		newLen := ToUint32(desc.Value.ToNumber())
		if float64(newLen) != ToInteger(desc.Value.ToNumber()) {
			return false, true, NewRangeErrorValue("Invalid array length")
		}
		oldLen := o.ArrayLength()
		if newLen >= oldLen {
			o.setArrayLength(newLen)
			if desc.Writable != nil {
				o.table["#length"].writable = *desc.Writable
			}
			return true, true, nil
		}
		if !o.table["#length"].writable {
			return false, true, nil
		}
		newWritable := true
		if desc.Writable != nil && !*desc.Writable {
			newWritable = false
		}
		// Delete indices [newLen, oldLen) from the top down; stop at the
		// first non-configurable index, per spec.
		for idx := oldLen; idx > newLen; idx-- {
			k := StringKey(itoa(idx - 1))
			if s, ok := o.table[k.hash()]; ok {
				if !s.configurable {
					o.setArrayLength(idx)
					if !newWritable {
						o.table["#length"].writable = false
					}
					return false, true, nil
				}
				delete(o.table, k.hash())
				o.removeKey(k)
			}
		}
		o.setArrayLength(newLen)
		if !newWritable {
			o.table["#length"].writable = false
		}
		return true, true, nil
	}
	if idx, ok := IsArrayIndex(key.Name()); ok {
		length := o.ArrayLength()
		lengthSlot := o.table["#length"]
		if idx >= length && !lengthSlot.writable {
			return false, true, nil
		}
		succeeded, err := o.genericDefineOwnProperty(key, desc)
		if err != nil || !succeeded {
			return succeeded, true, err
		}
		if idx >= length {
			o.setArrayLength(idx + 1)
		}
		return true, true, nil
	}
	return false, false, nil
}

// genericDefineOwnProperty runs the ordinary algorithm bypassing the
// Array-exotic dispatch in DefineOwnProperty (used internally once the
// Array-specific decision has already been made).
func (o *Object) genericDefineOwnProperty(key PropertyKey, desc PropertyDescriptor) (bool, error) {
	o.ensureTable()
	existing, had := o.table[key.hash()]
	if !had {
		if !o.Extensible {
			return false, nil
		}
		s := &slot{key: key}
		applyDescriptor(s, desc, true)
		o.table[key.hash()] = s
		o.keys = append(o.keys, key)
		return true, nil
	}
	applyDescriptor(existing, desc, false)
	return true, nil
}

func (o *Object) removeKey(key PropertyKey) {
	for i, k := range o.keys {
		if k.hash() == key.hash() {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			return
		}
	}
}

// RuntimeSignal is the low-level error pkg/runtime raises for conditions
// that must become a specific ECMAScript error subtype once a realm is
// available to construct it (pkg/runtime has no Realm of its own to reach
// for a constructor). pkg/interpreter's error boundary converts every
// RuntimeSignal into a thrown instance of the named constructor.
type RuntimeSignal struct {
	Kind string
	Msg  string
}

func (s *RuntimeSignal) Error() string { return s.Kind + ": " + s.Msg }
