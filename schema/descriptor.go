// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package schema implements the type descriptors and the registry that
// catalogs them.
//
// A Descriptor describes one named type: a scalar with its own codec, a
// struct of versioned fields, a variable or fixed length array, or an enum.
// Descriptors are plain data, usually built once at startup with the
// builders in this package. The Registry indexes descriptors by name, by
// class id (with fallback along the class hierarchy) and by parameter GUID.
// It owns nothing but its indices.
//
// The registry is not safe for concurrent registration. Once built it may be
// read from any number of goroutines.
package schema

import (
	"fmt"

	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/chunk"
	"github.com/ckarchive/ckarchive/guid"
	"github.com/cockroachdb/redact"
)

// Kind is the shape of a type.
type Kind uint8

// Kinds.
const (
	KindScalar Kind = iota + 1
	KindStruct
	KindArray
	KindFixedArray
	KindEnum
)

var kindNames = [...]string{
	KindScalar:     "scalar",
	KindStruct:     "struct",
	KindArray:      "array",
	KindFixedArray: "fixed_array",
	KindEnum:       "enum",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// SafeFormat implements redact.SafeFormatter.
func (k Kind) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(k.String()))
}

// Codec reads and writes the wire form of a value. Scalars must have one;
// other kinds may carry one to override the generic layout.
type Codec interface {
	// Read decodes a value at the chunk's cursor. Decode sets the returned
	// value's Type.
	Read(c *chunk.Chunk) (Value, error)
	// Write encodes v at the end of the chunk.
	Write(c *chunk.Chunk, v Value) error
	// Format returns a human-readable rendition of v.
	Format(v Value) string
}

// Field is one member of a struct type.
type Field struct {
	Name string
	Type *Descriptor
	// Offset is the field's byte offset within the in-memory layout.
	Offset int
	// SinceVersion and DeprecatedVersion bound the file versions, as a
	// half-open interval, in which the field is present on the wire. Zero
	// leaves that side unbounded.
	SinceVersion      ck.FileVersion
	DeprecatedVersion ck.FileVersion
	Annotations       []string
}

// PresentIn returns true if the field is encoded at file version v.
func (f *Field) PresentIn(v ck.FileVersion) bool {
	return inWindow(v, f.SinceVersion, f.DeprecatedVersion)
}

// EnumValue is one named value of an enum type.
type EnumValue struct {
	Name  string
	Value int32
}

// ParamMeta is the metadata of a type usable as a parameter type.
type ParamMeta struct {
	// GUID identifies the parameter type in archives.
	GUID guid.GUID
	// Base is the type whose layout the parameter type shares, if any.
	Base *Descriptor
}

// Descriptor describes one named type.
type Descriptor struct {
	Name  string
	Kind  Kind
	Size  int
	Align int

	// Fields of a struct, in wire order.
	Fields []Field
	// Elem is the element type of an array.
	Elem *Descriptor
	// Len is the element count of a fixed array.
	Len int
	// EnumValues of an enum. If Flags is set the enum is a bit set and any
	// combination of the values is valid.
	EnumValues []EnumValue
	Flags      bool

	Codec Codec
	// Validate, if set, checks a decoded value before it is returned and a
	// value before it is encoded.
	Validate func(v Value) error

	// SinceVersion and RemovedVersion bound the file versions in which this
	// variant of the name applies. See Registry.FindForVersion.
	SinceVersion   ck.FileVersion
	RemovedVersion ck.FileVersion

	Param *ParamMeta
}

// AppliesTo returns true if the descriptor's version window contains v.
func (d *Descriptor) AppliesTo(v ck.FileVersion) bool {
	return inWindow(v, d.SinceVersion, d.RemovedVersion)
}

// FieldIndex returns the index of the field called name, or -1.
func (d *Descriptor) FieldIndex(name string) int {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

// EnumName returns the name of the enum value v.
func (d *Descriptor) EnumName(v int32) (string, bool) {
	for _, e := range d.EnumValues {
		if e.Value == v {
			return e.Name, true
		}
	}
	return "", false
}

// SafeFormat implements redact.SafeFormatter.
func (d *Descriptor) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("%s(%s", redact.SafeString(d.Name), d.Kind)
	if d.SinceVersion != 0 || d.RemovedVersion != 0 {
		w.Printf(" %s", windowString(d.SinceVersion, d.RemovedVersion))
	}
	w.Print(redact.SafeString(")"))
}

// String implements fmt.Stringer.
func (d *Descriptor) String() string {
	return redact.StringWithoutMarkers(d)
}

func inWindow(v, since, until ck.FileVersion) bool {
	return (since == 0 || v >= since) && (until == 0 || v < until)
}

// windowsOverlap returns true if [s1, u1) and [s2, u2) intersect, with zero
// bounds unbounded.
func windowsOverlap(s1, u1, s2, u2 ck.FileVersion) bool {
	const inf = ^ck.FileVersion(0)
	if u1 == 0 {
		u1 = inf
	}
	if u2 == 0 {
		u2 = inf
	}
	return s1 < u2 && s2 < u1
}

func windowString(since, until ck.FileVersion) redact.SafeString {
	s, u := "*", "*"
	if since != 0 {
		s = fmt.Sprint(uint32(since))
	}
	if until != 0 {
		u = fmt.Sprint(uint32(until))
	}
	return redact.SafeString("[" + s + "," + u + ")")
}
