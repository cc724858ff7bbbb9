// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package schema

import (
	"math"
	"strings"

	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/guid"
)

// Value is a decoded value of some type. Which members are meaningful
// depends on the type's kind:
//
//   - scalars and enums keep their bits in Bits, or their text in Str,
//   - structs keep one Value per field in Fields, in field order; fields
//     absent from the decoded file version have a nil Type,
//   - arrays keep their elements in Elems.
type Value struct {
	Type   *Descriptor
	Bits   uint64
	Str    string
	Fields []Value
	Elems  []Value
}

// Present returns true if the value was decoded or set, as opposed to a
// field absent from the file version.
func (v Value) Present() bool { return v.Type != nil }

// Int returns the value as a signed integer.
func (v Value) Int() int32 { return int32(uint32(v.Bits)) }

// Dword returns the value as an unsigned integer.
func (v Value) Dword() uint32 { return uint32(v.Bits) }

// Float returns the value as a float.
func (v Value) Float() float32 { return math.Float32frombits(uint32(v.Bits)) }

// Bool returns the value as a boolean.
func (v Value) Bool() bool { return v.Bits != 0 }

// GUID returns the value as a GUID.
func (v Value) GUID() guid.GUID { return guid.New(uint32(v.Bits), uint32(v.Bits>>32)) }

// ObjectID returns the value as an object id.
func (v Value) ObjectID() ck.ObjectID { return ck.ObjectID(v.Bits) }

// ClassID returns the value as a class id.
func (v Value) ClassID() ck.ClassID { return ck.ClassID(v.Bits) }

// Field returns the member called name of a struct value.
func (v Value) Field(name string) (Value, bool) {
	if v.Type == nil {
		return Value{}, false
	}
	i := v.Type.FieldIndex(name)
	if i < 0 || i >= len(v.Fields) {
		return Value{}, false
	}
	return v.Fields[i], true
}

// IntValue returns a value of type t holding x.
func IntValue(t *Descriptor, x int32) Value { return Value{Type: t, Bits: uint64(uint32(x))} }

// DwordValue returns a value of type t holding x.
func DwordValue(t *Descriptor, x uint32) Value { return Value{Type: t, Bits: uint64(x)} }

// FloatValue returns a value of type t holding x.
func FloatValue(t *Descriptor, x float32) Value {
	return Value{Type: t, Bits: uint64(math.Float32bits(x))}
}

// BoolValue returns a value of type t holding x.
func BoolValue(t *Descriptor, x bool) Value {
	if x {
		return Value{Type: t, Bits: 1}
	}
	return Value{Type: t}
}

// StringValue returns a value of type t holding s.
func StringValue(t *Descriptor, s string) Value { return Value{Type: t, Str: s} }

// GUIDValue returns a value of type t holding g.
func GUIDValue(t *Descriptor, g guid.GUID) Value {
	return Value{Type: t, Bits: uint64(g.D1) | uint64(g.D2)<<32}
}

// StructValue returns a struct value of type t with the given fields.
func StructValue(t *Descriptor, fields ...Value) Value { return Value{Type: t, Fields: fields} }

// ArrayValue returns an array value of type t with the given elements.
func ArrayValue(t *Descriptor, elems ...Value) Value { return Value{Type: t, Elems: elems} }

// String returns a human-readable rendition of the value.
func (v Value) String() string {
	var sb strings.Builder
	v.format(&sb)
	return sb.String()
}

func (v Value) format(sb *strings.Builder) {
	d := v.Type
	switch {
	case d == nil:
		sb.WriteString("<absent>")
	case d.Codec != nil:
		sb.WriteString(d.Codec.Format(v))
	case d.Kind == KindStruct:
		sb.WriteString(d.Name)
		sb.WriteByte('{')
		n := 0
		for i := range v.Fields {
			if !v.Fields[i].Present() {
				continue
			}
			if n > 0 {
				sb.WriteString(", ")
			}
			n++
			if i < len(d.Fields) {
				sb.WriteString(d.Fields[i].Name)
				sb.WriteString(": ")
			}
			v.Fields[i].format(sb)
		}
		sb.WriteByte('}')
	case d.Kind == KindArray || d.Kind == KindFixedArray:
		sb.WriteByte('[')
		for i := range v.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			v.Elems[i].format(sb)
		}
		sb.WriteByte(']')
	case d.Kind == KindEnum:
		sb.WriteString(formatEnum(d, v.Int()))
	}
}
