// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package ck defines the surrogate keys of the scene-archive object model and
// the static Class Hierarchy Table.
//
// Objects never point at each other. Cross-object links are ObjectIDs that
// are resolved against an explicit repository once a whole graph has been
// parsed; this keeps every parse arena-scoped and lets it be discarded in one
// step.
package ck

import (
	"fmt"

	"github.com/cockroachdb/redact"
)

// ObjectID is the 32-bit surrogate key of an object. Zero means "no object".
type ObjectID uint32

// ReferenceBit flags an ObjectID that is a reference marker rather than a
// plain index.
const ReferenceBit ObjectID = 1 << 31

// IsReference returns true if the reference bit is set.
func (id ObjectID) IsReference() bool {
	return id&ReferenceBit != 0
}

// Index returns the id with the reference bit cleared.
func (id ObjectID) Index() ObjectID {
	return id &^ ReferenceBit
}

// SafeFormat implements redact.SafeFormatter.
func (id ObjectID) SafeFormat(w redact.SafePrinter, _ rune) {
	if id.IsReference() {
		w.Printf("ref:%d", redact.Safe(uint32(id.Index())))
		return
	}
	w.Printf("%d", redact.Safe(uint32(id)))
}

// String implements fmt.Stringer.
func (id ObjectID) String() string {
	return redact.StringWithoutMarkers(id)
}

// ClassID is the 32-bit identifier of an object class.
type ClassID uint32

// SafeFormat implements redact.SafeFormatter.
func (id ClassID) SafeFormat(w redact.SafePrinter, _ rune) {
	if info, ok := Lookup(id); ok {
		w.Printf("%s(%d)", redact.SafeString(info.Name), redact.Safe(uint32(id)))
		return
	}
	w.Printf("class(%d)", redact.Safe(uint32(id)))
}

// String implements fmt.Stringer.
func (id ClassID) String() string {
	return redact.StringWithoutMarkers(id)
}

// Identifier tags one section of a chunk.
type Identifier uint32

// SafeFormat implements redact.SafeFormatter.
func (id Identifier) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("0x%08x", redact.Safe(uint32(id)))
}

// String implements fmt.Stringer.
func (id Identifier) String() string {
	return fmt.Sprintf("0x%08x", uint32(id))
}

// FileVersion is the archive format revision. Every class consults it to
// choose between the legacy and modern encodings.
type FileVersion uint32

// File versions.
const (
	MinFileVersion FileVersion = 2
	MaxFileVersion FileVersion = 9
	// ModernFileVersion is the first version using the single-section,
	// flag-gated encoding. Earlier versions store one identifier per field.
	ModernFileVersion FileVersion = 5
	// CurrentFileVersion is the version written by default.
	CurrentFileVersion = MaxFileVersion
)

// Valid returns true if v is within [MinFileVersion, MaxFileVersion].
func (v FileVersion) Valid() bool {
	return v >= MinFileVersion && v <= MaxFileVersion
}

// IsModern returns true if v uses the modern encoding.
func (v FileVersion) IsModern() bool {
	return v >= ModernFileVersion
}

// SafeFormat implements redact.SafeFormatter.
func (v FileVersion) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("v%d", redact.Safe(uint32(v)))
}

// String implements fmt.Stringer.
func (v FileVersion) String() string {
	return redact.StringWithoutMarkers(v)
}
