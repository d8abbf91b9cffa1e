package runtime

import "math"

// TypedArrayKind names the element type backing an Integer-Indexed exotic
// object's view onto its buffer (spec: "Typed Array").
type TypedArrayKind uint8

const (
	Int8Array TypedArrayKind = iota
	Uint8Array
	Uint8ClampedArray
	Int16Array
	Uint16Array
	Int32Array
	Uint32Array
	Float32Array
	Float64Array
)

func (k TypedArrayKind) BytesPerElement() int {
	switch k {
	case Int8Array, Uint8Array, Uint8ClampedArray:
		return 1
	case Int16Array, Uint16Array:
		return 2
	case Int32Array, Uint32Array, Float32Array:
		return 4
	case Float64Array:
		return 8
	default:
		return 1
	}
}

// NewArrayBuffer allocates a fixed-length, zero-initialized ArrayBuffer
// exotic object (spec: "[[ArrayBufferData]], [[ArrayBufferByteLength]]").
func NewArrayBuffer(proto *Object, byteLength int) *Object {
	o := &Object{Kind: KindArrayBuffer, Class: "ArrayBuffer", Prototype: proto, Extensible: true, table: make(map[string]*slot)}
	o.Slots = map[string]interface{}{"data": make([]byte, byteLength)}
	o.DefineDataProperty("byteLength", NewNumber(float64(byteLength)), false, false, false)
	return o
}

func (o *Object) bufferData() []byte {
	if o.Slots == nil {
		return nil
	}
	b, _ := o.Slots["data"].([]byte)
	return b
}

// NewTypedArray builds an Integer-Indexed exotic object viewing buffer
// starting at byteOffset for length elements of kind (spec: "Integer-
// Indexed exotic object", "TypedArray"). Canonical numeric-string indices
// in [0, length) are forwarded to the buffer; everything else falls back
// to the ordinary algorithm via the embedded table, matching the spec's
// [[Get]]/[[Set]] override that only special-cases CanonicalNumericIndex.
func NewTypedArray(proto *Object, kind TypedArrayKind, buffer *Object, byteOffset, length int) *Object {
	o := &Object{Kind: KindTypedArray, Class: "TypedArray", Prototype: proto, Extensible: true, table: make(map[string]*slot)}
	o.Slots = map[string]interface{}{"buffer": buffer, "kind": kind, "byteOffset": byteOffset, "arrayLength": length}
	o.DefineDataProperty("buffer", NewObject(buffer), false, false, false)
	o.DefineDataProperty("byteOffset", NewNumber(float64(byteOffset)), false, false, false)
	o.DefineDataProperty("byteLength", NewNumber(float64(length*kind.BytesPerElement())), false, false, false)
	o.DefineDataProperty("length", NewNumber(float64(length)), false, false, false)
	return o
}

func (o *Object) taLength() int {
	n, _ := o.Slots["arrayLength"].(int)
	return n
}

func (o *Object) taKind() TypedArrayKind {
	k, _ := o.Slots["kind"].(TypedArrayKind)
	return k
}

// TypedArrayLength exposes taLength to pkg/intrinsics, which builds the
// typed array constructors and prototype methods over this exotic object
// but lives outside pkg/runtime.
func (o *Object) TypedArrayLength() int { return o.taLength() }

// TypedArrayElementKind exposes taKind to pkg/intrinsics.
func (o *Object) TypedArrayElementKind() TypedArrayKind { return o.taKind() }

func (o *Object) taByteOffset() int {
	off, _ := o.Slots["byteOffset"].(int)
	return off
}

func (o *Object) taBuffer() *Object {
	b, _ := o.Slots["buffer"].(*Object)
	return b
}

// IntegerIndexedElementGet implements the spec abstract operation: out of
// bounds yields undefined rather than falling through to the prototype
// chain, per the Integer-Indexed [[Get]] override.
func (o *Object) IntegerIndexedElementGet(index int) Value {
	if index < 0 || index >= o.taLength() {
		return Undefined
	}
	data := o.taBuffer().bufferData()
	kind := o.taKind()
	off := o.taByteOffset() + index*kind.BytesPerElement()
	return readElement(data, off, kind)
}

// IntegerIndexedElementSet implements the spec override: an out-of-bounds
// integer index is silently ignored (never throws, never defines a plain
// property), per "IntegerIndexedElementSet".
func (o *Object) IntegerIndexedElementSet(index int, v Value) {
	if index < 0 || index >= o.taLength() {
		return
	}
	data := o.taBuffer().bufferData()
	kind := o.taKind()
	off := o.taByteOffset() + index*kind.BytesPerElement()
	writeElement(data, off, kind, v.ToNumber())
}

func readElement(data []byte, off int, kind TypedArrayKind) Value {
	switch kind {
	case Int8Array:
		return NewNumber(float64(int8(data[off])))
	case Uint8Array, Uint8ClampedArray:
		return NewNumber(float64(data[off]))
	case Int16Array:
		return NewNumber(float64(int16(uint16(data[off]) | uint16(data[off+1])<<8)))
	case Uint16Array:
		return NewNumber(float64(uint16(data[off]) | uint16(data[off+1])<<8))
	case Int32Array:
		return NewNumber(float64(int32(le32(data[off:]))))
	case Uint32Array:
		return NewNumber(float64(le32(data[off:])))
	case Float32Array:
		return NewNumber(float64(math.Float32frombits(le32(data[off:]))))
	case Float64Array:
		return NewNumber(math.Float64frombits(le64(data[off:])))
	default:
		return Undefined
	}
}

func writeElement(data []byte, off int, kind TypedArrayKind, n float64) {
	switch kind {
	case Int8Array, Uint8Array:
		data[off] = byte(int64(n))
	case Uint8ClampedArray:
		c := n
		if c < 0 {
			c = 0
		} else if c > 255 {
			c = 255
		}
		data[off] = byte(math.Round(c))
	case Int16Array, Uint16Array:
		v := uint16(int64(n))
		data[off], data[off+1] = byte(v), byte(v>>8)
	case Int32Array, Uint32Array:
		putLE32(data[off:], uint32(int64(n)))
	case Float32Array:
		putLE32(data[off:], math.Float32bits(float32(n)))
	case Float64Array:
		putLE64(data[off:], math.Float64bits(n))
	}
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func le64(b []byte) uint64 {
	return uint64(le32(b)) | uint64(le32(b[4:]))<<32
}

func putLE32(b []byte, v uint32) {
	b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
}

func putLE64(b []byte, v uint64) {
	putLE32(b, uint32(v))
	putLE32(b[4:], uint32(v>>32))
}
