// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package ckarchive

import "github.com/ckarchive/ckarchive/internal/base"

var (
	// ErrInvalidArgument marks a call made with arguments that cannot be
	// honored, such as writing a legacy file version.
	ErrInvalidArgument = base.ErrInvalidArgument
	// ErrNotFound marks a lookup of a type, class or GUID that is not
	// registered.
	ErrNotFound = base.ErrNotFound
	// ErrValidationFailed marks a value rejected by a type's rules or a count
	// above its ceiling.
	ErrValidationFailed = base.ErrValidationFailed
	// ErrNoMem marks an exhausted arena.
	ErrNoMem = base.ErrNoMem
	// ErrInvalidFormat marks an envelope this package does not understand.
	ErrInvalidFormat = base.ErrInvalidFormat
	// ErrCorruption marks inconsistent archive bytes.
	ErrCorruption = base.ErrCorruption
	// ErrCantWrite marks a chunk that cannot grow further.
	ErrCantWrite = base.ErrCantWrite
)

// IsCorruptionError returns true if err marks corrupt archive bytes.
func IsCorruptionError(err error) bool {
	return base.IsCorruptionError(err)
}

// IsValidationError returns true if err marks a validation failure.
func IsValidationError(err error) bool {
	return base.IsValidationError(err)
}

// IsNotFound returns true if err marks a failed lookup.
func IsNotFound(err error) bool {
	return base.IsNotFound(err)
}
