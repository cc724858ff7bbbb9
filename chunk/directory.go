// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package chunk

import (
	"encoding/binary"

	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/cockroachdb/errors"
)

func (c *Chunk) resetDirectory() {
	c.dirBuilt = false
	c.dirErr = nil
	c.sections = c.sections[:0]
	c.cur = -1
}

// directory walks the linked identifier records once and caches the result,
// including any error.
func (c *Chunk) directory() ([]section, error) {
	if c.dirBuilt {
		return c.sections, c.dirErr
	}
	c.dirBuilt = true
	if !c.sectioned || len(c.data) == 0 {
		return nil, nil
	}
	off := 0
	for {
		if off+8 > len(c.data) {
			c.dirErr = base.CorruptionErrorf("chunk: identifier record at offset %d overruns %d bytes of data",
				errors.Safe(off), errors.Safe(len(c.data)))
			return nil, c.dirErr
		}
		id := ck.Identifier(binary.LittleEndian.Uint32(c.data[off:]))
		next := int(binary.LittleEndian.Uint32(c.data[off+4:]))
		end := next
		if next == 0 {
			end = len(c.data)
		} else if next < off+8 || next%4 != 0 || next+8 > len(c.data) {
			c.dirErr = base.CorruptionErrorf("chunk: identifier %s at offset %d links to invalid offset %d",
				id, errors.Safe(off), errors.Safe(next))
			return nil, c.dirErr
		}
		c.sections = append(c.sections, section{id: id, start: off, end: end})
		if next == 0 {
			return c.sections, nil
		}
		off = next
	}
}

// SeekIdentifier moves the cursor just past the first record carrying id and
// reports whether one was found. If none is, the cursor is left unchanged.
func (c *Chunk) SeekIdentifier(id ck.Identifier) (bool, error) {
	_, found, err := c.SeekIdentifierAndSize(id)
	return found, err
}

// SeekIdentifierAndSize is like SeekIdentifier but also returns the size of
// the section's payload in bytes.
func (c *Chunk) SeekIdentifierAndSize(id ck.Identifier) (size int, found bool, err error) {
	if c.mode != Reading {
		return 0, false, base.InvalidArgumentErrorf("chunk: seek on a %s chunk", errors.Safe(c.mode))
	}
	sections, err := c.directory()
	if err != nil {
		return 0, false, err
	}
	for i := range sections {
		if sections[i].id == id {
			c.cur = i
			c.pos = sections[i].start + 8
			return sections[i].end - c.pos, true, nil
		}
	}
	return 0, false, nil
}

// Identifiers returns the identifiers of the chunk's sections in order.
func (c *Chunk) Identifiers() ([]ck.Identifier, error) {
	if c.mode == Building {
		return nil, base.InvalidArgumentErrorf("chunk: listing identifiers of a %s chunk", errors.Safe(c.mode))
	}
	sections, err := c.directory()
	if err != nil {
		return nil, err
	}
	ids := make([]ck.Identifier, len(sections))
	for i := range sections {
		ids[i] = sections[i].id
	}
	return ids, nil
}
