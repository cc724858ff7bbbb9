// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package base defines fundamental facilities shared by every ckarchive
// package: the error taxonomy, the Logger interface and the sanity ceilings
// applied to untrusted counts and lengths.
//
// # Errors
//
// Errors are classified with marker errors (see errors.Mark) rather than
// distinct types. A single error may carry several markers: a count that
// exceeds its ceiling is both a validation failure and data corruption.
// Callers test the classification with errors.Is or the IsXXXError helpers.
//
// # Limits
//
// Archive bytes are untrusted. Every externally supplied count or length is
// compared against a Limits ceiling before anything is allocated for it.
package base
