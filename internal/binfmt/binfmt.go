// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package binfmt formats dword-aligned binary data with descriptive comments.
// Chunks use it to describe their layout one dword per line:
//
//	0x0000: 00001000 # dword(4096): identifier 0x00001000
//	0x0004: 00000010 # dword(16): next
//
// Byte runs that are not dwords are printed up to 16 bytes per line.
package binfmt

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// bytesPerLine bounds the bytes shown on one line of a byte run.
const bytesPerLine = 16

type line struct {
	off     int
	hex     string
	comment string
}

// Formatter accumulates annotated lines over a byte slice, consuming it from
// the front.
type Formatter struct {
	data   []byte
	off    int
	prefix string
	lines  []line
}

// New constructs a formatter over data.
func New(data []byte) *Formatter {
	return &Formatter{data: data}
}

// SetLinePrefix sets a prefix for each line of formatted output.
func (f *Formatter) SetLinePrefix(prefix string) {
	f.prefix = prefix
}

// Remaining returns the number of bytes not yet formatted.
func (f *Formatter) Remaining() int {
	return len(f.data) - f.off
}

// Offset returns the current offset within the data.
func (f *Formatter) Offset() int {
	return f.off
}

// PeekUint32 returns the little-endian dword at the current offset without
// consuming it.
func (f *Formatter) PeekUint32() uint32 {
	return binary.LittleEndian.Uint32(f.data[f.off:])
}

// Dword consumes one little-endian dword and annotates it with its decimal
// value followed by the formatted comment. It returns the value.
func (f *Formatter) Dword(format string, args ...interface{}) uint32 {
	v := f.PeekUint32()
	f.lines = append(f.lines, line{
		off:     f.off,
		hex:     fmt.Sprintf("%08x", v),
		comment: fmt.Sprintf("dword(%d): ", v) + fmt.Sprintf(format, args...),
	})
	f.off += 4
	return v
}

// HexBytesln consumes n bytes, printing them in hex over as many lines as
// needed. The comment is attached to the first line.
func (f *Formatter) HexBytesln(n int, format string, args ...interface{}) {
	n = min(n, f.Remaining())
	comment := strings.TrimSpace(fmt.Sprintf(format, args...))
	for n > 0 {
		k := min(n, bytesPerLine)
		f.lines = append(f.lines, line{
			off:     f.off,
			hex:     fmt.Sprintf("%x", f.data[f.off:f.off+k]),
			comment: comment,
		})
		comment = "(continued)"
		f.off += k
		n -= k
	}
}

// String renders the accumulated lines, aligning the comments.
func (f *Formatter) String() string {
	width := 0
	for _, l := range f.lines {
		width = max(width, len(l.hex))
	}
	var sb strings.Builder
	for _, l := range f.lines {
		fmt.Fprintf(&sb, "%s0x%04x: %-*s", f.prefix, l.off, width, l.hex)
		if l.comment != "" {
			sb.WriteString(" # ")
			sb.WriteString(l.comment)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
