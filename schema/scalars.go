// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package schema

import (
	"strconv"

	"github.com/ckarchive/ckarchive/chunk"
)

type intCodec struct{}

func (intCodec) Read(c *chunk.Chunk) (Value, error) {
	x, err := c.ReadInt()
	return Value{Bits: uint64(uint32(x))}, err
}

func (intCodec) Write(c *chunk.Chunk, v Value) error { return c.WriteInt(v.Int()) }

func (intCodec) Format(v Value) string { return strconv.Itoa(int(v.Int())) }

type dwordCodec struct{}

func (dwordCodec) Read(c *chunk.Chunk) (Value, error) {
	x, err := c.ReadDword()
	return Value{Bits: uint64(x)}, err
}

func (dwordCodec) Write(c *chunk.Chunk, v Value) error { return c.WriteDword(v.Dword()) }

func (dwordCodec) Format(v Value) string { return strconv.FormatUint(uint64(v.Dword()), 10) }

type floatCodec struct{}

func (floatCodec) Read(c *chunk.Chunk) (Value, error) {
	x, err := c.ReadDword()
	return Value{Bits: uint64(x)}, err
}

func (floatCodec) Write(c *chunk.Chunk, v Value) error { return c.WriteDword(v.Dword()) }

func (floatCodec) Format(v Value) string {
	return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
}

type boolCodec struct{}

func (boolCodec) Read(c *chunk.Chunk) (Value, error) {
	x, err := c.ReadDword()
	return Value{Bits: uint64(x)}, err
}

func (boolCodec) Write(c *chunk.Chunk, v Value) error { return c.WriteBool(v.Bool()) }

func (boolCodec) Format(v Value) string { return strconv.FormatBool(v.Bool()) }

type stringCodec struct{}

func (stringCodec) Read(c *chunk.Chunk) (Value, error) {
	s, err := c.ReadString()
	return Value{Str: s}, err
}

func (stringCodec) Write(c *chunk.Chunk, v Value) error { return c.WriteString(v.Str) }

func (stringCodec) Format(v Value) string { return strconv.Quote(v.Str) }

type guidCodec struct{}

func (guidCodec) Read(c *chunk.Chunk) (Value, error) {
	g, err := c.ReadGUID()
	return GUIDValue(nil, g), err
}

func (guidCodec) Write(c *chunk.Chunk, v Value) error { return c.WriteGUID(v.GUID()) }

func (guidCodec) Format(v Value) string { return v.GUID().String() }

type objectIDCodec struct{}

func (objectIDCodec) Read(c *chunk.Chunk) (Value, error) {
	id, err := c.ReadObjectID()
	return Value{Bits: uint64(id)}, err
}

func (objectIDCodec) Write(c *chunk.Chunk, v Value) error { return c.WriteObjectID(v.ObjectID()) }

func (objectIDCodec) Format(v Value) string { return "#" + v.ObjectID().String() }

type classIDCodec struct{}

func (classIDCodec) Read(c *chunk.Chunk) (Value, error) {
	id, err := c.ReadClassID()
	return Value{Bits: uint64(id)}, err
}

func (classIDCodec) Write(c *chunk.Chunk, v Value) error { return c.WriteClassID(v.ClassID()) }

func (classIDCodec) Format(v Value) string { return v.ClassID().String() }
