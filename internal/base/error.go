// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "github.com/cockroachdb/errors"

// Marker errors. Use errors.Is to test for a classification; the concrete
// error returned by an operation wraps one or more of these.
var (
	// ErrInvalidArgument marks malformed call-site inputs.
	ErrInvalidArgument = errors.New("ckarchive: invalid argument")
	// ErrNotFound marks a lookup miss. Most call sites treat a miss as a
	// normal outcome and never surface it as an error.
	ErrNotFound = errors.New("ckarchive: not found")
	// ErrValidationFailed marks data that is structurally present but
	// semantically wrong: bad counts, unknown enum values, negative ranges.
	ErrValidationFailed = errors.New("ckarchive: validation failed")
	// ErrNoMem marks arena exhaustion.
	ErrNoMem = errors.New("ckarchive: out of arena memory")
	// ErrInvalidFormat marks an encoding this library does not understand.
	ErrInvalidFormat = errors.New("ckarchive: invalid format")
	// ErrCorruption marks truncated or inconsistent data.
	ErrCorruption = errors.New("ckarchive: data corrupt")
	// ErrCantWrite marks an output-side failure.
	ErrCantWrite = errors.New("ckarchive: cannot write")
)

// InvalidArgumentErrorf formats according to a format specifier and returns
// an error marked as ErrInvalidArgument.
func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidArgument)
}

// NotFoundErrorf formats according to a format specifier and returns an error
// marked as ErrNotFound.
func NotFoundErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrNotFound)
}

// ValidationErrorf formats according to a format specifier and returns an
// error marked as ErrValidationFailed.
func ValidationErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidationFailed)
}

// NoMemErrorf formats according to a format specifier and returns an error
// marked as ErrNoMem.
func NoMemErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrNoMem)
}

// InvalidFormatErrorf formats according to a format specifier and returns an
// error marked as ErrInvalidFormat.
func InvalidFormatErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidFormat)
}

// CorruptionErrorf formats according to a format specifier and returns an
// error marked as ErrCorruption.
func CorruptionErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrCorruption)
}

// CantWriteErrorf formats according to a format specifier and returns an
// error marked as ErrCantWrite.
func CantWriteErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrCantWrite)
}

// MarkCorruptionError marks the given error as a corruption error.
func MarkCorruptionError(err error) error {
	if errors.Is(err, ErrCorruption) {
		return err
	}
	return errors.Mark(err, ErrCorruption)
}

// CeilingError returns the error for a count or length that exceeds its
// sanity ceiling. It is both a validation failure and data corruption.
func CeilingError(what string, n, max uint64) error {
	return errors.Mark(
		ValidationErrorf("%s %d exceeds maximum %d", errors.Safe(what), errors.Safe(n), errors.Safe(max)),
		ErrCorruption)
}

// IsCorruptionError returns true if the given error indicates corruption.
func IsCorruptionError(err error) bool {
	return errors.Is(err, ErrCorruption)
}

// IsNotFound returns true if the given error is a lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError returns true if the given error is a validation failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidationFailed)
}
