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
	"github.com/cockroachdb/errors"
)

// next consumes n bytes at the cursor.
func (c *Chunk) next(n int, what string) ([]byte, error) {
	if c.mode != Reading {
		return nil, base.InvalidArgumentErrorf("chunk: read from a %s chunk", errors.Safe(c.mode))
	}
	if n < 0 || c.pos+n > len(c.data) || c.pos+n < c.pos {
		return nil, base.CorruptionErrorf("chunk: reading %s of %d bytes at offset %d overruns %d bytes of data",
			errors.Safe(what), errors.Safe(n), errors.Safe(c.pos), errors.Safe(len(c.data)))
	}
	b := c.data[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadDword reads a dword.
func (c *Chunk) ReadDword() (uint32, error) {
	b, err := c.next(4, "dword")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadInt reads a signed 32-bit integer.
func (c *Chunk) ReadInt() (int32, error) {
	v, err := c.ReadDword()
	return int32(v), err
}

// ReadFloat reads an IEEE-754 single.
func (c *Chunk) ReadFloat() (float32, error) {
	v, err := c.ReadDword()
	return math.Float32frombits(v), err
}

// ReadBool reads a dword and reports whether it is non-zero.
func (c *Chunk) ReadBool() (bool, error) {
	v, err := c.ReadDword()
	return v != 0, err
}

// ReadGUID reads a GUID.
func (c *Chunk) ReadGUID() (guid.GUID, error) {
	b, err := c.next(8, "guid")
	if err != nil {
		return guid.Null, err
	}
	return guid.New(binary.LittleEndian.Uint32(b), binary.LittleEndian.Uint32(b[4:])), nil
}

// ReadClassID reads a class id.
func (c *Chunk) ReadClassID() (ck.ClassID, error) {
	v, err := c.ReadDword()
	return ck.ClassID(v), err
}

// ReadObjectID reads an object id.
func (c *Chunk) ReadObjectID() (ck.ObjectID, error) {
	v, err := c.ReadDword()
	return ck.ObjectID(v), err
}

// ReadStringBytes reads a string and returns its bytes without the
// terminating NUL. The slice aliases the chunk's data.
func (c *Chunk) ReadStringBytes() ([]byte, error) {
	n, err := c.ReadDword()
	if err != nil || n == 0 {
		return nil, err
	}
	if err := base.CheckCount("string length", n, c.opts.Limits.MaxStringLen); err != nil {
		return nil, err
	}
	b, err := c.next(align4(int(n)), "string")
	if err != nil {
		return nil, err
	}
	if b[n-1] != 0 {
		return nil, base.CorruptionErrorf("chunk: string of %d bytes at offset %d is not NUL terminated",
			errors.Safe(n), errors.Safe(c.pos-len(b)))
	}
	return b[:n-1], nil
}

// ReadString reads a string.
func (c *Chunk) ReadString() (string, error) {
	b, err := c.ReadStringBytes()
	return string(b), err
}

// ReadBuffer reads a length-prefixed byte buffer. The slice aliases the
// chunk's data and is nil for an empty buffer.
func (c *Chunk) ReadBuffer() ([]byte, error) {
	n, err := c.ReadDword()
	if err != nil || n == 0 {
		return nil, err
	}
	if err := base.CheckCount("buffer length", n, c.opts.Limits.MaxBufferLen); err != nil {
		return nil, err
	}
	b, err := c.next(align4(int(n)), "buffer")
	if err != nil {
		return nil, err
	}
	return b[:n], nil
}

// ReadBufferNoSize reads n bytes and the padding after them. The slice
// aliases the chunk's data.
func (c *Chunk) ReadBufferNoSize(n int) ([]byte, error) {
	b, err := c.next(align4(n), "buffer")
	if err != nil {
		return nil, err
	}
	return b[:n], nil
}

// ReadSubChunk reads an embedded chunk. A zero length yields a nil chunk.
func (c *Chunk) ReadSubChunk() (*Chunk, error) {
	n, err := c.ReadDword()
	if err != nil || n == 0 {
		return nil, err
	}
	if err := base.CheckCount("sub-chunk size", n, c.opts.Limits.MaxChunkSize); err != nil {
		return nil, err
	}
	b, err := c.next(align4(int(n)), "sub-chunk")
	if err != nil {
		return nil, err
	}
	sub, err := decode(b[:n], c.opts, c.depth+1)
	if err != nil {
		return nil, errors.Wrapf(err, "chunk: sub-chunk at offset %d", errors.Safe(c.pos-len(b)-4))
	}
	return sub, nil
}

// SectionEnd returns the offset at which the current section ends: the next
// identifier record, or the end of the data if no section has been sought.
func (c *Chunk) SectionEnd() int {
	if c.cur >= 0 && c.cur < len(c.sections) {
		return c.sections[c.cur].end
	}
	return len(c.data)
}

// ReadRawTail returns a copy of the bytes from the cursor to the end of the
// current section and advances the cursor past them. Returns nil if the
// cursor is already at the end.
func (c *Chunk) ReadRawTail() ([]byte, error) {
	end := c.SectionEnd()
	if c.pos >= end {
		if c.pos > end {
			return nil, base.CorruptionErrorf("chunk: section overrun: cursor %d past section end %d",
				errors.Safe(c.pos), errors.Safe(end))
		}
		return nil, nil
	}
	b, err := c.next(end-c.pos, "raw tail")
	if err != nil {
		return nil, err
	}
	return c.opts.Arena.Copy(b)
}
