// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package guid implements the 8-byte GUID value type used to identify
// parameter types, managers and plugins in scene archives.
package guid

import (
	"fmt"

	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/cockroachdb/redact"
)

// GUID is an 8-byte identifier made of two 32-bit words. It has value
// semantics and equality is bitwise.
type GUID struct {
	D1, D2 uint32
}

// Null is the zero GUID.
var Null = GUID{}

// FormattedLen is the length of the canonical textual form "{XXXXXXXX-XXXXXXXX}".
const FormattedLen = 19

// MinFormatBufLen is the minimum buffer length accepted by Format.
const MinFormatBufLen = 21

// New returns the GUID {d1, d2}.
func New(d1, d2 uint32) GUID {
	return GUID{D1: d1, D2: d2}
}

// Equal returns true if g and o are bitwise equal.
func (g GUID) Equal(o GUID) bool {
	return g.D1 == o.D1 && g.D2 == o.D2
}

// IsNull returns true if g is the Null GUID.
func (g GUID) IsNull() bool {
	return g.D1 == 0 && g.D2 == 0
}

// Hash returns d1 ^ d2. The hash collides whenever the two halves are swapped;
// it is kept for compatibility with archives that persisted it. Maps keyed by
// GUID should not rely on it.
func (g GUID) Hash() uint32 {
	return g.D1 ^ g.D2
}

// String returns the canonical form "{XXXXXXXX-XXXXXXXX}".
func (g GUID) String() string {
	return fmt.Sprintf("{%08X-%08X}", g.D1, g.D2)
}

// SafeFormat implements redact.SafeFormatter.
func (g GUID) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("{%08X-%08X}", redact.Safe(g.D1), redact.Safe(g.D2))
}

// Format writes the canonical form into buf followed by a NUL byte and
// returns the number of characters written, excluding the NUL. buf must be at
// least MinFormatBufLen bytes long.
func (g GUID) Format(buf []byte) (int, error) {
	if len(buf) < MinFormatBufLen {
		return 0, base.InvalidArgumentErrorf("guid: format buffer of %d bytes, need %d",
			redact.Safe(len(buf)), redact.Safe(MinFormatBufLen))
	}
	n := copy(buf, g.String())
	buf[n] = 0
	return n, nil
}

// Parse parses "{D1-D2}", "D1-D2" or "D1D2" where each half is exactly eight
// hexadecimal digits. A leading '{' requires a closing '}'. Any deviation
// yields Null.
func Parse(s string) GUID {
	braced := len(s) > 0 && s[0] == '{'
	if braced {
		if s[len(s)-1] != '}' {
			return Null
		}
		s = s[1 : len(s)-1]
	}
	d1, ok := parseHex8(s)
	if !ok {
		return Null
	}
	s = s[8:]
	if len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	d2, ok := parseHex8(s)
	if !ok || len(s) != 8 {
		return Null
	}
	return GUID{D1: d1, D2: d2}
}

func parseHex8(s string) (uint32, bool) {
	if len(s) < 8 {
		return 0, false
	}
	var v uint32
	for i := 0; i < 8; i++ {
		c := s[i]
		var d byte
		switch {
		case '0' <= c && c <= '9':
			d = c - '0'
		case 'a' <= c && c <= 'f':
			d = c - 'a' + 10
		case 'A' <= c && c <= 'F':
			d = c - 'A' + 10
		default:
			return 0, false
		}
		v = v<<4 | uint32(d)
	}
	return v, true
}
