// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build invariants || race

package invariants

import "fmt"

// Enabled is true if we were built with the "invariants" or "race" build tags.
const Enabled = true

// CheckAligned panics if off is not a multiple of 4.
func CheckAligned[T Integer](off T) {
	if off&3 != 0 {
		panic(fmt.Sprintf("offset %d is not dword aligned", off))
	}
}
