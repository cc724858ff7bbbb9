// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package chunk implements the identifier-addressed binary container that
// holds one object's payload.
//
// A chunk is a sequence of little-endian dwords. Writers append sections, each
// introduced by WriteIdentifier; readers jump between sections with
// SeekIdentifier. Strings and buffers are length-prefixed and padded to a
// dword boundary. A chunk may embed other chunks (sub-chunks) as
// length-prefixed byte ranges, which is how nested object graphs are stored.
//
// The data layout:
//
//	+---------------+---------------+---- ... ----+---------------+---- ... ----+
//	| id (4B)       | next (4B)     | payload     | id (4B)       | payload     |
//	+---------------+---------------+---- ... ----+---------------+---- ... ----+
//
// where next is the byte offset of the following identifier record, or 0 for
// the last one. The first record, when the chunk has any, is at offset 0.
//
// The encoded form produced by Encode and consumed by Decode wraps the data:
//
//	dword  format | options<<8 | dataVersion<<16 | fileVersion<<24
//	dword  class id
//	[packed]  dword algorithm, dword unpacked size
//	dword  data size, data (padded)
//	[ids]     dword n, n × dword offset of an object id in data
//	[chunks]  dword n, n × dword offset of a sub-chunk in data
//
// A Chunk is not safe for concurrent use.
package chunk

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/internal/arena"
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/ckarchive/ckarchive/internal/compression"
	"github.com/cockroachdb/errors"
)

// Mode is the state of a chunk: being built or being read.
type Mode uint8

const (
	// Building chunks accept writes.
	Building Mode = iota
	// Reading chunks accept reads and cursor movement.
	Reading
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == Building {
		return "building"
	}
	return "reading"
}

// formatVersion is the version of the encoded chunk envelope.
const formatVersion = 1

// Option bits of the envelope header.
const (
	optIDs      = 1 << 0
	optChunks   = 1 << 1
	optPacked   = 1 << 2
	optSections = 1 << 3
	optMask     = optIDs | optChunks | optPacked | optSections
)

// Options configure a chunk. A nil *Options uses the heap and default limits.
type Options struct {
	// Arena, if set, backs the chunk's buffers and copies made from it.
	Arena *arena.Arena
	// Limits bounds the lengths and counts read from untrusted data.
	Limits *base.Limits
	// Compression is the packing applied by Encode.
	Compression compression.Algorithm
}

func (o *Options) ensureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.Limits == nil {
		n := *o
		n.Limits = (&base.Limits{}).EnsureDefaults()
		o = &n
	}
	return o
}

// section is one entry of the identifier directory.
type section struct {
	id ck.Identifier
	// start is the offset of the identifier record.
	start int
	// end is the offset of the next identifier record or the data size.
	end int
}

// Chunk is an identifier-addressed binary container. See the package
// documentation for the layout.
type Chunk struct {
	classID     ck.ClassID
	dataVersion uint8
	fileVersion ck.FileVersion
	mode        Mode
	opts        *Options
	depth       int

	data []byte
	pos  int

	// lastIdent is the offset of the last identifier record written, or -1.
	lastIdent int
	sectioned bool

	// The directory is built lazily by the first seek on a loaded buffer.
	dirBuilt bool
	dirErr   error
	sections []section
	cur      int

	ids       []int
	subChunks []int
}

// New returns an empty chunk in building mode.
func New(classID ck.ClassID, fileVersion ck.FileVersion, opts *Options) *Chunk {
	return &Chunk{
		classID:     classID,
		fileVersion: fileVersion,
		mode:        Building,
		opts:        opts.ensureDefaults(),
		lastIdent:   -1,
		cur:         -1,
	}
}

// NewFromData returns a chunk in reading mode over raw, unenveloped data. If
// sectioned is true the data starts with an identifier record. The chunk
// aliases data.
func NewFromData(
	data []byte, classID ck.ClassID, fileVersion ck.FileVersion, sectioned bool, opts *Options,
) (*Chunk, error) {
	if len(data)%4 != 0 {
		return nil, base.InvalidArgumentErrorf("chunk: data size %d is not a multiple of 4", errors.Safe(len(data)))
	}
	return &Chunk{
		classID:     classID,
		fileVersion: fileVersion,
		mode:        Reading,
		opts:        opts.ensureDefaults(),
		data:        data,
		lastIdent:   -1,
		sectioned:   sectioned,
		cur:         -1,
	}, nil
}

// ClassID returns the class of the object whose payload the chunk holds.
func (c *Chunk) ClassID() ck.ClassID { return c.classID }

// FileVersion returns the archive format revision the chunk is encoded in.
func (c *Chunk) FileVersion() ck.FileVersion { return c.fileVersion }

// DataVersion returns the per-class data version stamp.
func (c *Chunk) DataVersion() uint8 { return c.dataVersion }

// SetDataVersion sets the per-class data version stamp.
func (c *Chunk) SetDataVersion(v uint8) { c.dataVersion = v }

// Mode returns the chunk's mode.
func (c *Chunk) Mode() Mode { return c.mode }

// Position returns the cursor, a byte offset into the data.
func (c *Chunk) Position() int { return c.pos }

// DataSize returns the size of the data in bytes.
func (c *Chunk) DataSize() int { return len(c.data) }

// Data returns the chunk's data. The slice aliases the chunk's buffer.
func (c *Chunk) Data() []byte { return c.data }

// Compression returns the packing Encode applies.
func (c *Chunk) Compression() compression.Algorithm { return c.opts.Compression }

// Unpack clears the packing so Encode writes the data as is.
func (c *Chunk) Unpack() { c.Pack(compression.NoCompression) }

// Pack sets the packing Encode applies.
func (c *Chunk) Pack(a compression.Algorithm) {
	if c.opts.Compression == a {
		return
	}
	n := *c.opts
	n.Compression = a
	c.opts = &n
}

// Limits returns the limits the chunk enforces.
func (c *Chunk) Limits() *base.Limits { return c.opts.Limits }

// Arena returns the arena backing the chunk, possibly nil.
func (c *Chunk) Arena() *arena.Arena { return c.opts.Arena }

// Goto moves the cursor to the absolute byte offset pos, which must be dword
// aligned and within the data.
func (c *Chunk) Goto(pos int) error {
	if c.mode != Reading {
		return base.InvalidArgumentErrorf("chunk: goto on a %s chunk", errors.Safe(c.mode))
	}
	if pos < 0 || pos > len(c.data) || pos%4 != 0 {
		return base.InvalidArgumentErrorf("chunk: goto %d outside data of %d bytes",
			errors.Safe(pos), errors.Safe(len(c.data)))
	}
	c.pos = pos
	return nil
}

// StartRead switches a building chunk to reading mode with the cursor at 0.
func (c *Chunk) StartRead() {
	if c.mode == Building {
		c.sectioned = c.lastIdent >= 0
	}
	c.mode = Reading
	c.pos = 0
	c.resetDirectory()
}

// StartWrite discards the chunk's data and switches it to building mode.
func (c *Chunk) StartWrite() {
	c.mode = Building
	c.data = nil
	c.pos = 0
	c.lastIdent = -1
	c.sectioned = false
	c.ids = c.ids[:0]
	c.subChunks = c.subChunks[:0]
	c.resetDirectory()
}

// Checksum returns the xxhash64 digest of the data.
func (c *Chunk) Checksum() uint64 {
	return xxhash.Sum64(c.data)
}

// ObjectIDCount returns the number of recorded object-id positions.
func (c *Chunk) ObjectIDCount() int { return len(c.ids) }

// SubChunkCount returns the number of recorded sub-chunks.
func (c *Chunk) SubChunkCount() int { return len(c.subChunks) }

// RemapObjectIDs replaces every recorded object id v with fn(v), recursing
// into sub-chunks. Sub-chunks are rewritten in place, so packed sub-chunks
// cannot be remapped.
func (c *Chunk) RemapObjectIDs(fn func(ck.ObjectID) ck.ObjectID) error {
	for _, off := range c.ids {
		v := ck.ObjectID(binary.LittleEndian.Uint32(c.data[off:]))
		binary.LittleEndian.PutUint32(c.data[off:], uint32(fn(v)))
	}
	for _, off := range c.subChunks {
		n := int64(binary.LittleEndian.Uint32(c.data[off:]))
		if n < 4 || int64(off)+4+n > int64(len(c.data)) {
			return base.CorruptionErrorf("chunk: sub-chunk at offset %d overruns data", errors.Safe(off))
		}
		enc := c.data[off+4 : int64(off)+4+n]
		if binary.LittleEndian.Uint32(enc)>>8&optPacked != 0 {
			return base.InvalidFormatErrorf("chunk: cannot remap ids of packed sub-chunk at offset %d", errors.Safe(off))
		}
		sub, err := decode(enc, c.opts, c.depth+1)
		if err != nil {
			return err
		}
		if err := sub.RemapObjectIDs(fn); err != nil {
			return err
		}
	}
	return nil
}

// Encode returns the enveloped form of the chunk.
func (c *Chunk) Encode() ([]byte, error) {
	return c.AppendEncoded(nil)
}

// AppendEncoded appends the enveloped form of the chunk to dst.
func (c *Chunk) AppendEncoded(dst []byte) ([]byte, error) {
	if !c.fileVersion.Valid() {
		return nil, base.InvalidArgumentErrorf("chunk: invalid file version %s", c.fileVersion)
	}
	sectioned := c.sectioned
	if c.mode == Building {
		sectioned = c.lastIdent >= 0
	}
	var options uint32
	if len(c.ids) > 0 {
		options |= optIDs
	}
	if len(c.subChunks) > 0 {
		options |= optChunks
	}
	if c.opts.Compression != compression.NoCompression {
		options |= optPacked
	}
	if sectioned {
		options |= optSections
	}
	dst = appendDword(dst, formatVersion|options<<8|uint32(c.dataVersion)<<16|uint32(c.fileVersion)<<24)
	dst = appendDword(dst, uint32(c.classID))
	if options&optPacked != 0 {
		comp, err := compression.GetCompressor(c.opts.Compression)
		if err != nil {
			return nil, err
		}
		defer comp.Close()
		packed, err := comp.Compress(nil, c.data)
		if err != nil {
			return nil, err
		}
		dst = appendDword(dst, uint32(c.opts.Compression))
		dst = appendDword(dst, uint32(len(c.data)))
		dst = appendDword(dst, uint32(len(packed)))
		dst = appendPadded(dst, packed)
	} else {
		dst = appendDword(dst, uint32(len(c.data)))
		dst = append(dst, c.data...)
	}
	if options&optIDs != 0 {
		dst = appendOffsets(dst, c.ids)
	}
	if options&optChunks != 0 {
		dst = appendOffsets(dst, c.subChunks)
	}
	return dst, nil
}

// Decode parses an enveloped chunk. The returned chunk is in reading mode and
// aliases buf unless it was packed.
func Decode(buf []byte, opts *Options) (*Chunk, error) {
	return decode(buf, opts.ensureDefaults(), 0)
}

func decode(buf []byte, opts *Options, depth int) (*Chunk, error) {
	if depth > opts.Limits.MaxDepth {
		return nil, base.CeilingError("sub-chunk depth", uint64(depth), uint64(opts.Limits.MaxDepth))
	}
	d := envelopeDecoder{buf: buf}
	header := d.dword("header")
	classID := d.dword("class id")
	if d.err != nil {
		return nil, d.err
	}
	if header&0xff != formatVersion {
		return nil, base.InvalidFormatErrorf("chunk: unknown envelope format %d", errors.Safe(header&0xff))
	}
	options := header >> 8 & 0xff
	if options&^optMask != 0 {
		return nil, base.InvalidFormatErrorf("chunk: unknown envelope options %#x", errors.Safe(options))
	}
	c := &Chunk{
		classID:     ck.ClassID(classID),
		dataVersion: uint8(header >> 16),
		fileVersion: ck.FileVersion(header >> 24),
		mode:        Reading,
		opts:        opts,
		depth:       depth,
		lastIdent:   -1,
		sectioned:   options&optSections != 0,
		cur:         -1,
	}
	if !c.fileVersion.Valid() {
		return nil, base.InvalidFormatErrorf("chunk: invalid file version %s", c.fileVersion)
	}
	if options&optPacked != 0 {
		alg := compression.Algorithm(d.dword("algorithm"))
		unpacked := d.dword("unpacked size")
		packed := d.dword("packed size")
		if d.err != nil {
			return nil, d.err
		}
		if err := base.CheckCount("unpacked chunk size", unpacked, opts.Limits.MaxChunkSize); err != nil {
			return nil, err
		}
		src := d.padded(int(packed), "packed data")
		if d.err != nil {
			return nil, d.err
		}
		dec, err := compression.GetDecompressor(alg)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		if c.data, err = opts.Arena.Alloc(int(unpacked)); err != nil {
			return nil, err
		}
		if err := dec.DecompressInto(c.data, src); err != nil {
			return nil, errors.Wrap(err, "chunk: unpacking data")
		}
		if len(c.data)%4 != 0 {
			return nil, base.CorruptionErrorf("chunk: unpacked size %d is not a multiple of 4", errors.Safe(len(c.data)))
		}
		if opts.Compression != alg {
			n := *opts
			n.Compression = alg
			c.opts = &n
		}
	} else {
		size := d.dword("data size")
		if d.err != nil {
			return nil, d.err
		}
		if size%4 != 0 {
			return nil, base.CorruptionErrorf("chunk: data size %d is not a multiple of 4", errors.Safe(size))
		}
		c.data = d.bytes(int(size), "data")
	}
	if options&optIDs != 0 {
		c.ids = d.offsets("object id", len(c.data), opts.Limits.MaxIDs)
	}
	if options&optChunks != 0 {
		c.subChunks = d.offsets("sub-chunk", len(c.data), opts.Limits.MaxSubChunks)
	}
	if d.err != nil {
		return nil, d.err
	}
	if d.off != len(buf) {
		return nil, base.CorruptionErrorf("chunk: %d trailing bytes after envelope", errors.Safe(len(buf)-d.off))
	}
	if c.opts.Compression != compression.NoCompression && options&optPacked == 0 {
		n := *c.opts
		n.Compression = compression.NoCompression
		c.opts = &n
	}
	return c, nil
}

// envelopeDecoder reads the envelope, remembering the first error.
type envelopeDecoder struct {
	buf []byte
	off int
	err error
}

func (d *envelopeDecoder) bytes(n int, what string) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.buf) || d.off+n < d.off {
		d.err = base.CorruptionErrorf("chunk: envelope truncated reading %s (%d bytes at offset %d of %d)",
			errors.Safe(what), errors.Safe(n), errors.Safe(d.off), errors.Safe(len(d.buf)))
		return nil
	}
	b := d.buf[d.off : d.off+n : d.off+n]
	d.off += n
	return b
}

func (d *envelopeDecoder) padded(n int, what string) []byte {
	b := d.bytes(align4(n), what)
	if b == nil {
		return nil
	}
	return b[:n]
}

func (d *envelopeDecoder) dword(what string) uint32 {
	b := d.bytes(4, what)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *envelopeDecoder) offsets(what string, dataSize int, max int) []int {
	n := d.dword(what + " count")
	if d.err != nil {
		return nil
	}
	if err := base.CheckCount(what+" count", n, max); err != nil {
		d.err = err
		return nil
	}
	if int(n)*4 > len(d.buf)-d.off {
		d.err = base.CorruptionErrorf("chunk: %s count %d exceeds envelope", errors.Safe(what), errors.Safe(n))
		return nil
	}
	offs := make([]int, n)
	for i := range offs {
		off := d.dword(what + " offset")
		if int64(off)+4 > int64(dataSize) || off%4 != 0 {
			d.err = base.CorruptionErrorf("chunk: %s offset %d outside data of %d bytes",
				errors.Safe(what), errors.Safe(off), errors.Safe(dataSize))
			return nil
		}
		offs[i] = int(off)
	}
	return offs
}

func align4(n int) int {
	return (n + 3) &^ 3
}

func appendDword(dst []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, v)
}

func appendPadded(dst []byte, b []byte) []byte {
	dst = append(dst, b...)
	for i := len(b); i%4 != 0; i++ {
		dst = append(dst, 0)
	}
	return dst
}

func appendOffsets(dst []byte, offs []int) []byte {
	dst = appendDword(dst, uint32(len(offs)))
	for _, off := range offs {
		dst = appendDword(dst, uint32(off))
	}
	return dst
}
