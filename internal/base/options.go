// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

// Limits holds the sanity ceilings applied to externally supplied counts and
// lengths. A value read from an archive is compared against its ceiling
// before any allocation sized by it is made.
//
// The zero value of a field means "use the default"; see EnsureDefaults.
type Limits struct {
	// MaxChunkSize bounds the data size of a chunk being built, in bytes.
	MaxChunkSize int
	// MaxStringLen bounds an encoded string length, in bytes.
	MaxStringLen int
	// MaxBufferLen bounds a length-prefixed buffer, in bytes.
	MaxBufferLen int
	// MaxIDs bounds the number of recorded object-id positions in a chunk.
	MaxIDs int
	// MaxSubChunks bounds the number of recorded sub-chunks in a chunk.
	MaxSubChunks int
	// MaxDepth bounds sub-chunk nesting.
	MaxDepth int
	// MaxElements bounds the element count of a schema array value.
	MaxElements int

	// MaxAttributes bounds the attribute count of a behavioral object.
	MaxAttributes int
	// MaxScripts bounds the script count of a behavioral object.
	MaxScripts int
	// MaxScenes bounds the scene-membership count of a scene object.
	MaxScenes int
	// MaxMeshes bounds the mesh count of a 3D entity.
	MaxMeshes int
	// MaxColumns bounds the column count of a data array.
	MaxColumns int
	// MaxRows bounds the row count of a data array.
	MaxRows int
}

// Default ceilings.
const (
	DefaultMaxChunkSize  = 1 << 30
	DefaultMaxStringLen  = 1 << 24
	DefaultMaxBufferLen  = 1 << 28
	DefaultMaxIDs        = 1 << 22
	DefaultMaxSubChunks  = 1 << 20
	DefaultMaxDepth      = 16
	DefaultMaxElements   = 1 << 20
	DefaultMaxAttributes = 100000
	DefaultMaxScripts    = 10000
	DefaultMaxScenes     = 10000
	DefaultMaxMeshes     = 4096
	DefaultMaxColumns    = 1024
	DefaultMaxRows       = 1 << 20
)

// EnsureDefaults fills in zero fields with their defaults and returns the
// receiver. A nil receiver yields a new Limits holding the defaults.
func (l *Limits) EnsureDefaults() *Limits {
	if l == nil {
		l = &Limits{}
	}
	setDefault(&l.MaxChunkSize, DefaultMaxChunkSize)
	setDefault(&l.MaxStringLen, DefaultMaxStringLen)
	setDefault(&l.MaxBufferLen, DefaultMaxBufferLen)
	setDefault(&l.MaxIDs, DefaultMaxIDs)
	setDefault(&l.MaxSubChunks, DefaultMaxSubChunks)
	setDefault(&l.MaxDepth, DefaultMaxDepth)
	setDefault(&l.MaxElements, DefaultMaxElements)
	setDefault(&l.MaxAttributes, DefaultMaxAttributes)
	setDefault(&l.MaxScripts, DefaultMaxScripts)
	setDefault(&l.MaxScenes, DefaultMaxScenes)
	setDefault(&l.MaxMeshes, DefaultMaxMeshes)
	setDefault(&l.MaxColumns, DefaultMaxColumns)
	setDefault(&l.MaxRows, DefaultMaxRows)
	return l
}

// CheckCount returns a CeilingError if n exceeds max.
func CheckCount(what string, n uint32, max int) error {
	if uint64(n) > uint64(max) {
		return CeilingError(what, uint64(n), uint64(max))
	}
	return nil
}

func setDefault(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}
