// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package chunk

import (
	"encoding/binary"
	"math"

	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/guid"
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/ckarchive/ckarchive/internal/invariants"
	"github.com/cockroachdb/errors"
)

// extend grows the data by n bytes and returns the new tail. Growth goes
// through the arena when the chunk has one.
func (c *Chunk) extend(n int) ([]byte, error) {
	if c.mode != Building {
		return nil, base.InvalidArgumentErrorf("chunk: write to a %s chunk", errors.Safe(c.mode))
	}
	size := len(c.data) + n
	if size > c.opts.Limits.MaxChunkSize {
		return nil, base.CantWriteErrorf("chunk: size %d would exceed the %d byte limit",
			errors.Safe(size), errors.Safe(c.opts.Limits.MaxChunkSize))
	}
	if size > cap(c.data) {
		newCap := max(2*cap(c.data), size, 64)
		newCap = min(newCap, max(c.opts.Limits.MaxChunkSize, size))
		buf, err := c.opts.Arena.Alloc(newCap)
		if err != nil {
			return nil, err
		}
		copy(buf, c.data)
		c.data = buf[:len(c.data)]
	}
	c.data = c.data[:size]
	c.pos = size
	return c.data[size-n:], nil
}

// WriteIdentifier starts a new section. The first identifier of a chunk
// must be written before any data.
func (c *Chunk) WriteIdentifier(id ck.Identifier) error {
	if c.mode == Building && c.lastIdent < 0 && len(c.data) != 0 {
		return base.InvalidArgumentErrorf("chunk: identifier %s written after %d bytes of unsectioned data",
			id, errors.Safe(len(c.data)))
	}
	off := len(c.data)
	b, err := c.extend(8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, uint32(id))
	binary.LittleEndian.PutUint32(b[4:], 0)
	if c.lastIdent >= 0 {
		binary.LittleEndian.PutUint32(c.data[c.lastIdent+4:], uint32(off))
	}
	c.lastIdent = off
	return nil
}

// WriteDword appends a dword.
func (c *Chunk) WriteDword(v uint32) error {
	b, err := c.extend(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

// WriteInt appends a signed 32-bit integer.
func (c *Chunk) WriteInt(v int32) error {
	return c.WriteDword(uint32(v))
}

// WriteFloat appends an IEEE-754 single.
func (c *Chunk) WriteFloat(v float32) error {
	return c.WriteDword(math.Float32bits(v))
}

// WriteBool appends a boolean as a dword holding 0 or 1.
func (c *Chunk) WriteBool(v bool) error {
	if v {
		return c.WriteDword(1)
	}
	return c.WriteDword(0)
}

// WriteGUID appends a GUID as two dwords.
func (c *Chunk) WriteGUID(g guid.GUID) error {
	b, err := c.extend(8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, g.D1)
	binary.LittleEndian.PutUint32(b[4:], g.D2)
	return nil
}

// WriteClassID appends a class id.
func (c *Chunk) WriteClassID(id ck.ClassID) error {
	return c.WriteDword(uint32(id))
}

// WriteObjectID appends an object id and records its position so it can be
// remapped later.
func (c *Chunk) WriteObjectID(id ck.ObjectID) error {
	off := len(c.data)
	if err := c.WriteDword(uint32(id)); err != nil {
		return err
	}
	c.ids = append(c.ids, off)
	return nil
}

// WriteString appends a string. The empty string is written as a zero
// length; any other string as its length including a terminating NUL, the
// bytes, the NUL and padding.
func (c *Chunk) WriteString(s string) error {
	if s == "" {
		return c.WriteDword(0)
	}
	n := len(s) + 1
	if n > c.opts.Limits.MaxStringLen {
		return base.InvalidArgumentErrorf("chunk: string of %d bytes exceeds the %d byte limit",
			errors.Safe(n), errors.Safe(c.opts.Limits.MaxStringLen))
	}
	b, err := c.extend(4 + align4(n))
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, uint32(n))
	copy(b[4:], s)
	return nil
}

// WriteBuffer appends a length-prefixed byte buffer.
func (c *Chunk) WriteBuffer(p []byte) error {
	if len(p) > c.opts.Limits.MaxBufferLen {
		return base.InvalidArgumentErrorf("chunk: buffer of %d bytes exceeds the %d byte limit",
			errors.Safe(len(p)), errors.Safe(c.opts.Limits.MaxBufferLen))
	}
	b, err := c.extend(4 + align4(len(p)))
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, uint32(len(p)))
	copy(b[4:], p)
	return nil
}

// WriteBufferNoSize appends bytes without a length prefix, padded to a dword.
func (c *Chunk) WriteBufferNoSize(p []byte) error {
	b, err := c.extend(align4(len(p)))
	if err != nil {
		return err
	}
	copy(b, p)
	return nil
}

// WriteSubChunk appends sub in its enveloped form and records its position.
// A nil sub is written as a zero length.
func (c *Chunk) WriteSubChunk(sub *Chunk) error {
	if sub == nil {
		return c.WriteDword(0)
	}
	enc, err := sub.Encode()
	if err != nil {
		return err
	}
	invariants.CheckAligned(len(enc))
	off := len(c.data)
	b, err := c.extend(4 + len(enc))
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, uint32(len(enc)))
	copy(b[4:], enc)
	c.subChunks = append(c.subChunks, off)
	return nil
}
