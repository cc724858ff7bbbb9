// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package ckclass implements the class-serializer protocol and the reference
// classes built on it.
//
// Every class state embeds its parent's state by value as its first field.
// Reading and writing delegate to the parent first, so a child's bytes always
// follow its parent's. File versions 5 and later use the modern encoding: one
// section per class, holding a block-flags word and the blocks it selects.
// Earlier versions use the legacy encoding of one optional section per field.
// States are always written in the modern encoding.
//
// Bytes in a modern section that follow the fields a class knows about are
// kept in the state's RawTail and written back verbatim.
package ckclass

import (
	"github.com/ckarchive/ckarchive/chunk"
	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/guid"
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/cockroachdb/errors"
)

// State is the decoded payload of one object.
type State interface {
	// ClassID returns the class whose serializer handles the state.
	ClassID() ck.ClassID
	// Read decodes the state, parent fields first.
	Read(r *Reader) error
	// Write encodes the state in the modern encoding, parent fields first.
	Write(w *Writer) error
	// FinishLoading resolves object references against repo and normalizes
	// values once the whole graph has been read. It is idempotent.
	FinishLoading(repo Repository, log base.Logger) error
}

// Repository resolves object ids once a whole graph has been read.
type Repository interface {
	// Lookup returns the class of the live object id, if there is one.
	Lookup(id ck.ObjectID) (ck.ClassID, bool)
}

// MapRepository is a Repository backed by a map.
type MapRepository map[ck.ObjectID]ck.ClassID

// Lookup implements Repository.
func (m MapRepository) Lookup(id ck.ObjectID) (ck.ClassID, bool) {
	cid, ok := m[id]
	return cid, ok
}

// resolves returns true if id names a live object of class want or a class
// derived from it.
func resolves(repo Repository, id ck.ObjectID, want ck.ClassID) bool {
	if id == 0 {
		return false
	}
	cid, ok := repo.Lookup(id.Index())
	return ok && ck.IsDerivedFrom(cid, want)
}

// Reader decodes class fields from a chunk. The first error is sticky: later
// reads return zero values and Err reports it, wrapped with the name of the
// field that failed.
type Reader struct {
	c   *chunk.Chunk
	log base.Logger
	err error
}

// NewReader returns a Reader over c, which must be in reading mode.
func NewReader(c *chunk.Chunk, log base.Logger) *Reader {
	if log == nil {
		log = base.NoopLogger{}
	}
	return &Reader{c: c, log: log}
}

// Chunk returns the underlying chunk.
func (r *Reader) Chunk() *chunk.Chunk { return r.c }

// Logger returns the logger for lenient reads.
func (r *Reader) Logger() base.Logger { return r.log }

// Err returns the first error encountered.
func (r *Reader) Err() error { return r.err }

// Modern returns true if the chunk uses the modern encoding.
func (r *Reader) Modern() bool { return r.c.FileVersion().IsModern() }

// fail records err for field if no error has been recorded yet.
func (r *Reader) fail(field string, err error) {
	if r.err == nil && err != nil {
		r.err = errors.Wrapf(err, "%s", errors.Safe(field))
	}
}

// Optional moves to the optional section id and reports whether it exists.
func (r *Reader) Optional(id ck.Identifier) bool {
	if r.err != nil {
		return false
	}
	_, found := r.OptionalSize(id)
	return found
}

// OptionalSize is like Optional but also returns the section's payload size
// in bytes.
func (r *Reader) OptionalSize(id ck.Identifier) (int, bool) {
	if r.err != nil {
		return 0, false
	}
	size, found, err := r.c.SeekIdentifierAndSize(id)
	r.fail("section", err)
	return size, found && err == nil
}

// Section moves to the mandatory section id of class, failing if it is
// missing.
func (r *Reader) Section(class string, id ck.Identifier) bool {
	if r.err != nil {
		return false
	}
	if !r.Optional(id) {
		if r.err == nil {
			r.err = base.CorruptionErrorf("ckclass: %s: missing section %s", errors.Safe(class), id)
		}
		return false
	}
	return true
}

// BlockFlags reads a block-flags word and clears the bits outside mask.
func (r *Reader) BlockFlags(mask uint32) uint32 {
	return r.Dword("block flags") & mask
}

// Dword reads an unsigned integer.
func (r *Reader) Dword(field string) uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadDword()
	r.fail(field, err)
	return v
}

// Int reads a signed integer.
func (r *Reader) Int(field string) int32 {
	return int32(r.Dword(field))
}

// Float reads a float.
func (r *Reader) Float(field string) float32 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadFloat()
	r.fail(field, err)
	return v
}

// Bool reads a dword as a boolean.
func (r *Reader) Bool(field string) bool {
	return r.Dword(field) != 0
}

// String reads a string.
func (r *Reader) String(field string) string {
	if r.err != nil {
		return ""
	}
	v, err := r.c.ReadString()
	r.fail(field, err)
	return v
}

// GUID reads a GUID.
func (r *Reader) GUID(field string) guid.GUID {
	if r.err != nil {
		return guid.Null
	}
	v, err := r.c.ReadGUID()
	r.fail(field, err)
	return v
}

// ObjectID reads an object id.
func (r *Reader) ObjectID(field string) ck.ObjectID {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadObjectID()
	r.fail(field, err)
	return v
}

// Buffer reads a length-prefixed buffer and copies it out of the chunk.
func (r *Reader) Buffer(field string) []byte {
	if r.err != nil {
		return nil
	}
	b, err := r.c.ReadBuffer()
	if err == nil && b != nil {
		b, err = r.c.Arena().Copy(b)
	}
	r.fail(field, err)
	return b
}

// SubChunk reads an embedded chunk.
func (r *Reader) SubChunk(field string) *chunk.Chunk {
	if r.err != nil {
		return nil
	}
	sub, err := r.c.ReadSubChunk()
	r.fail(field, err)
	return sub
}

// Count reads an element count and checks it against max before anything is
// allocated. Each element occupies at least minSize bytes, so a count the
// remaining data cannot hold is corruption.
func (r *Reader) Count(field string, max int, minSize int) int {
	n := r.Dword(field)
	if r.err != nil {
		return 0
	}
	if err := base.CheckCount(field, n, max); err != nil {
		r.fail(field, err)
		return 0
	}
	if remaining := r.c.SectionEnd() - r.c.Position(); int64(n)*int64(minSize) > int64(remaining) {
		r.fail(field, base.CorruptionErrorf("ckclass: %s %d exceeds %d remaining bytes",
			errors.Safe(field), errors.Safe(n), errors.Safe(remaining)))
		return 0
	}
	return int(n)
}

// ObjectIDs reads a count-prefixed list of object ids.
func (r *Reader) ObjectIDs(field string, max int) []ck.ObjectID {
	n := r.Count(field+" count", max, 4)
	if n == 0 {
		return nil
	}
	ids := make([]ck.ObjectID, n)
	for i := range ids {
		ids[i] = r.ObjectID(field)
	}
	return ids
}

// RawTail returns a copy of the bytes left in the current section.
func (r *Reader) RawTail() []byte {
	if r.err != nil {
		return nil
	}
	b, err := r.c.ReadRawTail()
	r.fail("raw tail", err)
	return b
}

// Writer encodes class fields into a chunk. Like Reader, it keeps the first
// error.
type Writer struct {
	c   *chunk.Chunk
	err error
}

// NewWriter returns a Writer appending to c, which must be in building mode
// and use the modern encoding.
func NewWriter(c *chunk.Chunk) *Writer {
	w := &Writer{c: c}
	if !c.FileVersion().IsModern() {
		w.err = base.InvalidArgumentErrorf("ckclass: cannot write file version %s", c.FileVersion())
	}
	return w
}

// Chunk returns the underlying chunk.
func (w *Writer) Chunk() *chunk.Chunk { return w.c }

// Err returns the first error encountered.
func (w *Writer) Err() error { return w.err }

func (w *Writer) fail(field string, err error) {
	if w.err == nil && err != nil {
		w.err = errors.Wrapf(err, "%s", errors.Safe(field))
	}
}

// Section starts the section id.
func (w *Writer) Section(id ck.Identifier) {
	if w.err == nil {
		w.fail("section", w.c.WriteIdentifier(id))
	}
}

// Dword writes an unsigned integer.
func (w *Writer) Dword(field string, v uint32) {
	if w.err == nil {
		w.fail(field, w.c.WriteDword(v))
	}
}

// Int writes a signed integer.
func (w *Writer) Int(field string, v int32) {
	if w.err == nil {
		w.fail(field, w.c.WriteInt(v))
	}
}

// Float writes a float.
func (w *Writer) Float(field string, v float32) {
	if w.err == nil {
		w.fail(field, w.c.WriteFloat(v))
	}
}

// Bool writes a boolean.
func (w *Writer) Bool(field string, v bool) {
	if w.err == nil {
		w.fail(field, w.c.WriteBool(v))
	}
}

// String writes a string.
func (w *Writer) String(field string, v string) {
	if w.err == nil {
		w.fail(field, w.c.WriteString(v))
	}
}

// GUID writes a GUID.
func (w *Writer) GUID(field string, v guid.GUID) {
	if w.err == nil {
		w.fail(field, w.c.WriteGUID(v))
	}
}

// ObjectID writes an object id.
func (w *Writer) ObjectID(field string, v ck.ObjectID) {
	if w.err == nil {
		w.fail(field, w.c.WriteObjectID(v))
	}
}

// Buffer writes a length-prefixed buffer.
func (w *Writer) Buffer(field string, v []byte) {
	if w.err == nil {
		w.fail(field, w.c.WriteBuffer(v))
	}
}

// SubChunk writes an embedded chunk.
func (w *Writer) SubChunk(field string, sub *chunk.Chunk) {
	if w.err == nil {
		w.fail(field, w.c.WriteSubChunk(sub))
	}
}

// ObjectIDs writes a count-prefixed list of object ids.
func (w *Writer) ObjectIDs(field string, ids []ck.ObjectID) {
	w.Dword(field+" count", uint32(len(ids)))
	for _, id := range ids {
		w.ObjectID(field, id)
	}
}

// RawTail appends bytes preserved from a previous read.
func (w *Writer) RawTail(b []byte) {
	if w.err == nil && len(b) > 0 {
		w.fail("raw tail", w.c.WriteBufferNoSize(b))
	}
}

// flagIf returns bit if cond holds, else 0.
func flagIf(cond bool, bit uint32) uint32 {
	if cond {
		return bit
	}
	return 0
}
