// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ckarchive/ckarchive/chunk"
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/cockroachdb/errors"
)

// Decode reads a value of type d at the chunk's cursor. Struct fields absent
// from the chunk's file version are skipped. Errors are wrapped with the path
// of the failing field.
func Decode(c *chunk.Chunk, d *Descriptor) (Value, error) {
	return decode(c, d, 0)
}

func decode(c *chunk.Chunk, d *Descriptor, depth int) (Value, error) {
	if depth > c.Limits().MaxDepth {
		return Value{}, base.CeilingError("type nesting", uint64(depth), uint64(c.Limits().MaxDepth))
	}
	var v Value
	var err error
	switch {
	case d.Codec != nil:
		v, err = d.Codec.Read(c)
	case d.Kind == KindStruct:
		v.Fields = make([]Value, len(d.Fields))
		for i := range d.Fields {
			f := &d.Fields[i]
			if !f.PresentIn(c.FileVersion()) {
				continue
			}
			if v.Fields[i], err = decode(c, f.Type, depth+1); err != nil {
				return Value{}, errors.Wrapf(err, "%s", errors.Safe(f.Name))
			}
		}
	case d.Kind == KindArray:
		var n uint32
		if n, err = c.ReadDword(); err != nil {
			return Value{}, errors.Wrapf(err, "%s count", errors.Safe(d.Name))
		}
		if err = base.CheckCount(d.Name+" count", n, c.Limits().MaxElements); err != nil {
			return Value{}, err
		}
		// Every element occupies at least one dword.
		if remaining := c.DataSize() - c.Position(); int(n) > remaining/4 {
			return Value{}, base.CorruptionErrorf("schema: %s count %d exceeds %d remaining bytes",
				errors.Safe(d.Name), errors.Safe(n), errors.Safe(remaining))
		}
		v.Elems, err = decodeElems(c, d.Elem, int(n), depth)
	case d.Kind == KindFixedArray:
		v.Elems, err = decodeElems(c, d.Elem, d.Len, depth)
	case d.Kind == KindEnum:
		var x int32
		if x, err = c.ReadInt(); err == nil {
			v.Bits = uint64(uint32(x))
			err = checkEnum(d, x)
		}
	default:
		err = base.InvalidArgumentErrorf("schema: cannot decode %s", d)
	}
	if err != nil {
		return Value{}, err
	}
	v.Type = d
	if d.Validate != nil {
		if err := d.Validate(v); err != nil {
			return Value{}, errors.Wrapf(err, "%s", errors.Safe(d.Name))
		}
	}
	return v, nil
}

func decodeElems(c *chunk.Chunk, elem *Descriptor, n int, depth int) ([]Value, error) {
	elems := make([]Value, n)
	for i := range elems {
		var err error
		if elems[i], err = decode(c, elem, depth+1); err != nil {
			return nil, errors.Wrapf(err, "[%d]", errors.Safe(i))
		}
	}
	return elems, nil
}

// Encode writes v as a value of type d at the end of the chunk. Struct fields
// absent from the chunk's file version are not written.
func Encode(c *chunk.Chunk, d *Descriptor, v Value) error {
	return encode(c, d, v, 0)
}

func encode(c *chunk.Chunk, d *Descriptor, v Value, depth int) error {
	if depth > c.Limits().MaxDepth {
		return base.CeilingError("type nesting", uint64(depth), uint64(c.Limits().MaxDepth))
	}
	if d.Validate != nil {
		if err := d.Validate(v); err != nil {
			return errors.Wrapf(err, "%s", errors.Safe(d.Name))
		}
	}
	switch {
	case d.Codec != nil:
		return d.Codec.Write(c, v)
	case d.Kind == KindStruct:
		if len(v.Fields) != len(d.Fields) {
			return base.InvalidArgumentErrorf("schema: %s value has %d fields, want %d",
				errors.Safe(d.Name), errors.Safe(len(v.Fields)), errors.Safe(len(d.Fields)))
		}
		for i := range d.Fields {
			f := &d.Fields[i]
			if !f.PresentIn(c.FileVersion()) {
				continue
			}
			if err := encode(c, f.Type, v.Fields[i], depth+1); err != nil {
				return errors.Wrapf(err, "%s", errors.Safe(f.Name))
			}
		}
		return nil
	case d.Kind == KindArray:
		if err := c.WriteDword(uint32(len(v.Elems))); err != nil {
			return errors.Wrapf(err, "%s count", errors.Safe(d.Name))
		}
		return encodeElems(c, d.Elem, v.Elems, depth)
	case d.Kind == KindFixedArray:
		if len(v.Elems) != d.Len {
			return base.InvalidArgumentErrorf("schema: %s value has %d elements, want %d",
				errors.Safe(d.Name), errors.Safe(len(v.Elems)), errors.Safe(d.Len))
		}
		return encodeElems(c, d.Elem, v.Elems, depth)
	case d.Kind == KindEnum:
		if err := checkEnum(d, v.Int()); err != nil {
			return err
		}
		return c.WriteInt(v.Int())
	default:
		return base.InvalidArgumentErrorf("schema: cannot encode %s", d)
	}
}

func encodeElems(c *chunk.Chunk, elem *Descriptor, elems []Value, depth int) error {
	for i := range elems {
		if err := encode(c, elem, elems[i], depth+1); err != nil {
			return errors.Wrapf(err, "[%d]", errors.Safe(i))
		}
	}
	return nil
}

func checkEnum(d *Descriptor, x int32) error {
	if d.Flags {
		var all int32
		for _, e := range d.EnumValues {
			all |= e.Value
		}
		if x&^all != 0 {
			return base.ValidationErrorf("schema: %s: unknown flags %#x", errors.Safe(d.Name), errors.Safe(x&^all))
		}
		return nil
	}
	if _, ok := d.EnumName(x); !ok {
		return base.ValidationErrorf("schema: %s: invalid value %d", errors.Safe(d.Name), errors.Safe(x))
	}
	return nil
}

func formatEnum(d *Descriptor, x int32) string {
	if !d.Flags {
		if name, ok := d.EnumName(x); ok {
			return name
		}
		return strconv.Itoa(int(x))
	}
	if x == 0 {
		return "0"
	}
	var names []string
	rest := x
	for _, e := range d.EnumValues {
		if e.Value != 0 && x&e.Value == e.Value {
			names = append(names, e.Name)
			rest &^= e.Value
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("%#x", rest))
	}
	return strings.Join(names, "|")
}
