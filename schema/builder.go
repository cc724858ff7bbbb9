// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package schema

import (
	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/cockroachdb/errors"
)

// StructBuilder accumulates the fields of a struct type. Field offsets are
// assigned in order, each aligned to its type's alignment.
type StructBuilder struct {
	d   Descriptor
	off int
	err error
}

// Struct returns a builder for a struct type called name.
func Struct(name string) *StructBuilder {
	return &StructBuilder{d: Descriptor{Name: name, Kind: KindStruct, Align: 1}}
}

// Field appends a field present in every file version.
func (b *StructBuilder) Field(name string, t *Descriptor) *StructBuilder {
	return b.FieldVersioned(name, t, 0, 0)
}

// FieldVersioned appends a field present in file versions [since, deprecated).
func (b *StructBuilder) FieldVersioned(
	name string, t *Descriptor, since, deprecated ck.FileVersion,
) *StructBuilder {
	if b.err != nil {
		return b
	}
	if t == nil {
		b.err = base.InvalidArgumentErrorf("schema: struct %s: field %s has no type",
			errors.Safe(b.d.Name), errors.Safe(name))
		return b
	}
	if b.d.FieldIndex(name) >= 0 {
		b.err = base.InvalidArgumentErrorf("schema: struct %s: duplicate field %s",
			errors.Safe(b.d.Name), errors.Safe(name))
		return b
	}
	align := max(t.Align, 1)
	b.off = (b.off + align - 1) / align * align
	b.d.Fields = append(b.d.Fields, Field{
		Name:              name,
		Type:              t,
		Offset:            b.off,
		SinceVersion:      since,
		DeprecatedVersion: deprecated,
	})
	b.off += t.Size
	b.d.Align = max(b.d.Align, align)
	return b
}

// Annotate attaches an annotation to the most recently added field.
func (b *StructBuilder) Annotate(annotation string) *StructBuilder {
	if b.err != nil {
		return b
	}
	if len(b.d.Fields) == 0 {
		b.err = base.InvalidArgumentErrorf("schema: struct %s: annotation before any field", errors.Safe(b.d.Name))
		return b
	}
	f := &b.d.Fields[len(b.d.Fields)-1]
	f.Annotations = append(f.Annotations, annotation)
	return b
}

// Versions sets the file version window of the type itself.
func (b *StructBuilder) Versions(since, removed ck.FileVersion) *StructBuilder {
	b.d.SinceVersion, b.d.RemovedVersion = since, removed
	return b
}

// Validate sets the type's validation hook.
func (b *StructBuilder) Validate(fn func(Value) error) *StructBuilder {
	b.d.Validate = fn
	return b
}

// Build validates the accumulated type and returns it unregistered.
func (b *StructBuilder) Build() (*Descriptor, error) {
	if b.err != nil {
		return nil, b.err
	}
	d := b.d
	d.Fields = append([]Field(nil), b.d.Fields...)
	d.Size = (b.off + d.Align - 1) / d.Align * d.Align
	if err := checkShape(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Register builds the type and adds it to r.
func (b *StructBuilder) Register(r *Registry) (*Descriptor, error) {
	d, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := r.Add(d); err != nil {
		return nil, err
	}
	return d, nil
}

// EnumBuilder accumulates the values of an enum type.
type EnumBuilder struct {
	d   Descriptor
	err error
}

// Enum returns a builder for an enum type called name. Enums are encoded as
// one signed dword.
func Enum(name string) *EnumBuilder {
	return &EnumBuilder{d: Descriptor{Name: name, Kind: KindEnum, Size: 4, Align: 4}}
}

// Value appends a named value.
func (b *EnumBuilder) Value(name string, v int32) *EnumBuilder {
	if b.err != nil {
		return b
	}
	for _, e := range b.d.EnumValues {
		if e.Name == name {
			b.err = base.InvalidArgumentErrorf("schema: enum %s: duplicate value name %s",
				errors.Safe(b.d.Name), errors.Safe(name))
			return b
		}
	}
	b.d.EnumValues = append(b.d.EnumValues, EnumValue{Name: name, Value: v})
	return b
}

// Flags marks the enum as a bit set.
func (b *EnumBuilder) Flags() *EnumBuilder {
	b.d.Flags = true
	return b
}

// Versions sets the file version window of the type.
func (b *EnumBuilder) Versions(since, removed ck.FileVersion) *EnumBuilder {
	b.d.SinceVersion, b.d.RemovedVersion = since, removed
	return b
}

// Build validates the accumulated type and returns it unregistered.
func (b *EnumBuilder) Build() (*Descriptor, error) {
	if b.err != nil {
		return nil, b.err
	}
	d := b.d
	d.EnumValues = append([]EnumValue(nil), b.d.EnumValues...)
	if err := checkShape(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Register builds the type and adds it to r.
func (b *EnumBuilder) Register(r *Registry) (*Descriptor, error) {
	d, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := r.Add(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Scalar returns an unregistered scalar type with its own codec.
func Scalar(name string, size, align int, codec Codec) *Descriptor {
	return &Descriptor{Name: name, Kind: KindScalar, Size: size, Align: align, Codec: codec}
}

// ArrayOf returns an unregistered variable length array type. Arrays are
// encoded as a dword count followed by the elements.
func ArrayOf(name string, elem *Descriptor) *Descriptor {
	return &Descriptor{Name: name, Kind: KindArray, Size: 16, Align: 8, Elem: elem}
}

// FixedArrayOf returns an unregistered array type of exactly n elements.
func FixedArrayOf(name string, elem *Descriptor, n int) *Descriptor {
	d := &Descriptor{Name: name, Kind: KindFixedArray, Elem: elem, Len: n, Align: 1}
	if elem != nil {
		d.Size = elem.Size * n
		d.Align = max(elem.Align, 1)
	}
	return d
}

// checkShape verifies the parts of a descriptor that do not depend on a
// registry.
func checkShape(d *Descriptor) error {
	if d.Name == "" {
		return base.InvalidArgumentErrorf("schema: type has no name")
	}
	if d.RemovedVersion != 0 && d.RemovedVersion <= d.SinceVersion {
		return base.InvalidArgumentErrorf("schema: %s: empty version window", errors.Safe(d.Name))
	}
	switch d.Kind {
	case KindScalar:
		if d.Codec == nil {
			return base.InvalidArgumentErrorf("schema: scalar %s has no codec", errors.Safe(d.Name))
		}
	case KindStruct:
		for i := range d.Fields {
			f := &d.Fields[i]
			if f.Type == nil {
				return base.InvalidArgumentErrorf("schema: %s.%s has no type",
					errors.Safe(d.Name), errors.Safe(f.Name))
			}
			if f.Offset < 0 || f.Offset+f.Type.Size > d.Size {
				return base.InvalidArgumentErrorf("schema: %s.%s at offset %d (size %d) overflows struct of %d bytes",
					errors.Safe(d.Name), errors.Safe(f.Name), errors.Safe(f.Offset),
					errors.Safe(f.Type.Size), errors.Safe(d.Size))
			}
			if f.DeprecatedVersion != 0 && f.DeprecatedVersion <= f.SinceVersion {
				return base.InvalidArgumentErrorf("schema: %s.%s: empty version window",
					errors.Safe(d.Name), errors.Safe(f.Name))
			}
		}
	case KindArray, KindFixedArray:
		if d.Elem == nil {
			return base.InvalidArgumentErrorf("schema: array %s has no element type", errors.Safe(d.Name))
		}
		if d.Kind == KindFixedArray && d.Len <= 0 {
			return base.InvalidArgumentErrorf("schema: fixed array %s has length %d",
				errors.Safe(d.Name), errors.Safe(d.Len))
		}
	case KindEnum:
		if len(d.EnumValues) == 0 {
			return base.InvalidArgumentErrorf("schema: enum %s has no values", errors.Safe(d.Name))
		}
	default:
		return base.InvalidArgumentErrorf("schema: %s has invalid kind %s", errors.Safe(d.Name), d.Kind)
	}
	return nil
}
