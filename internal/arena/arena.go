// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package arena implements the bump allocator that scopes one parse or build
// operation. Everything allocated from an Arena shares its lifetime: there
// are no individual frees, only Reset, which invalidates every slice handed
// out so far in one step.
package arena

import "github.com/ckarchive/ckarchive/internal/base"

const align4 = 3

// Arena is a bump allocator over a single fixed-size buffer. It is not safe
// for concurrent use.
//
// A nil *Arena is valid and allocates from the Go heap.
type Arena struct {
	n   int
	buf []byte
}

// New allocates a new arena of the specified size and returns it.
func New(size int) *Arena {
	return &Arena{buf: make([]byte, size)}
}

// Size returns the number of bytes allocated so far, including padding.
func (a *Arena) Size() int {
	if a == nil {
		return 0
	}
	return a.n
}

// Capacity returns the total size of the arena.
func (a *Arena) Capacity() int {
	if a == nil {
		return 0
	}
	return len(a.buf)
}

// Alloc returns a zeroed slice of length size whose start is 4-byte aligned
// relative to the arena. The slice's capacity is capped at size so appending
// to it never spills into a neighbouring allocation.
func (a *Arena) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, base.InvalidArgumentErrorf("arena: negative allocation size %d", size)
	}
	if a == nil {
		return make([]byte, size), nil
	}
	offset := (a.n + align4) &^ align4
	if offset+size > len(a.buf) || offset+size < offset {
		return nil, base.NoMemErrorf("arena: cannot allocate %d bytes (%d of %d in use)",
			size, a.n, len(a.buf))
	}
	a.n = offset + size
	b := a.buf[offset : offset+size : offset+size]
	clear(b)
	return b, nil
}

// Copy allocates len(b) bytes and copies b into them.
func (a *Arena) Copy(b []byte) ([]byte, error) {
	dst, err := a.Alloc(len(b))
	if err != nil {
		return nil, err
	}
	copy(dst, b)
	return dst, nil
}

// Reset releases every allocation at once. Slices returned before Reset must
// not be used afterwards.
func (a *Arena) Reset() {
	if a != nil {
		a.n = 0
	}
}
