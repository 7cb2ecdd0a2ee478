package cbor

import (
	"golang.org/x/exp/constraints"
)

// A Value adapts a native field, by copy, for encoding. The constructor
// fixes the kind used for dispatch; there is no cross-kind coercion later.
type Value struct {
	kind Kind

	u uint64
	i int64
	f float64
	s string
	p []byte
	t bool
}

// Kind returns the logical kind the value was constructed with.
func (v Value) Kind() Kind {
	return v.kind
}

// Uint wraps an unsigned integer of any width.
func Uint[T constraints.Unsigned](x T) Value {
	return Value{kind: KindUint, u: uint64(x)}
}

// Int wraps a signed integer of any width.
func Int[T constraints.Signed](x T) Value {
	return Value{kind: KindInt, i: int64(x)}
}

// Text wraps a string.
func Text(s string) Value {
	return Value{kind: KindText, s: s}
}

// Bytes wraps a byte slice. The slice is not copied; it must not change
// until the value has been appended.
func Bytes(p []byte) Value {
	return Value{kind: KindBytes, p: p}
}

// Bool wraps a boolean.
func Bool(x bool) Value {
	return Value{kind: KindBool, t: x}
}

// Float wraps a single precision float.
func Float(x float32) Value {
	return Value{kind: KindFloat, f: float64(x)}
}

// Double wraps a double precision float.
func Double(x float64) Value {
	return Value{kind: KindDouble, f: x}
}

// Null is the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// Undefined is the undefined value.
func Undefined() Value {
	return Value{kind: KindUndefined}
}

// A Ref adapts a native field, by reference, for decoding. Extracting into
// a Ref validates the kind at the cursor and then writes through to the
// caller's field. Width conversion within a kind follows Go conversion
// rules; kind mismatches fail the decode instead of coercing.
type Ref struct {
	kind Kind
	set  func(Value)
}

// Kind returns the logical kind the reference was constructed with.
func (r Ref) Kind() Kind {
	return r.kind
}

// UintRef binds an unsigned integer field of any width.
func UintRef[T constraints.Unsigned](p *T) Ref {
	return Ref{kind: KindUint, set: func(v Value) { *p = T(v.u) }}
}

// IntRef binds a signed integer field of any width.
func IntRef[T constraints.Signed](p *T) Ref {
	return Ref{kind: KindInt, set: func(v Value) { *p = T(v.i) }}
}

// TextRef binds a string field.
func TextRef(p *string) Ref {
	return Ref{kind: KindText, set: func(v Value) { *p = v.s }}
}

// BytesRef binds a byte slice field. The decoded slice is a copy and does
// not alias the input buffer.
func BytesRef(p *[]byte) Ref {
	return Ref{kind: KindBytes, set: func(v Value) { *p = v.p }}
}

// BoolRef binds a boolean field.
func BoolRef(p *bool) Ref {
	return Ref{kind: KindBool, set: func(v Value) { *p = v.t }}
}

// FloatRef binds a single precision float field. Half precision items are
// widened losslessly on extract.
func FloatRef(p *float32) Ref {
	return Ref{kind: KindFloat, set: func(v Value) { *p = float32(v.f) }}
}

// DoubleRef binds a double precision float field.
func DoubleRef(p *float64) Ref {
	return Ref{kind: KindDouble, set: func(v Value) { *p = v.f }}
}
