// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package compression implements the codecs a chunk may be packed with.
package compression

import (
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// Algorithm identifies a packing codec. The numeric values are part of the
// chunk wire format and must not change.
type Algorithm uint32

const (
	// NoCompression leaves the data as is.
	NoCompression Algorithm = iota
	// Zlib is the codec used by the original engine for packed chunks.
	Zlib
	// Snappy trades ratio for speed; used by pipeline-side caches.
	Snappy
	// Zstd is used by pipeline-side caches that favour ratio.
	Zstd
	nAlgorithms
)

var algorithmNames = [...]string{
	NoCompression: "none",
	Zlib:          "zlib",
	Snappy:        "snappy",
	Zstd:          "zstd",
}

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	if a < nAlgorithms {
		return algorithmNames[a]
	}
	return "unknown"
}

// SafeFormat implements redact.SafeFormatter.
func (a Algorithm) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(a.String()))
}

// ParseAlgorithm returns the algorithm with the given name.
func ParseAlgorithm(s string) (Algorithm, error) {
	for i, n := range algorithmNames {
		if n == s {
			return Algorithm(i), nil
		}
	}
	return 0, base.InvalidArgumentErrorf("unknown compression algorithm %q", errors.Safe(s))
}

// Compressor compresses whole buffers.
type Compressor interface {
	Algorithm() Algorithm
	// Compress appends the compressed form of src to dst[:0] and returns it.
	Compress(dst, src []byte) ([]byte, error)
	Close()
}

// Decompressor decompresses whole buffers.
type Decompressor interface {
	// DecompressInto decompresses src into dst, which must have exactly the
	// decompressed length.
	DecompressInto(dst, src []byte) error
	Close()
}

// GetCompressor returns a compressor for the given algorithm.
func GetCompressor(a Algorithm) (Compressor, error) {
	switch a {
	case NoCompression:
		return noopCompressor{}, nil
	case Zlib:
		return zlibCompressor{}, nil
	case Snappy:
		return snappyCompressor{}, nil
	case Zstd:
		return newZstdCompressor()
	default:
		return nil, base.InvalidFormatErrorf("unknown compression algorithm %d", errors.Safe(uint32(a)))
	}
}

// GetDecompressor returns a decompressor for the given algorithm.
func GetDecompressor(a Algorithm) (Decompressor, error) {
	switch a {
	case NoCompression:
		return noopDecompressor{}, nil
	case Zlib:
		return zlibDecompressor{}, nil
	case Snappy:
		return snappyDecompressor{}, nil
	case Zstd:
		return newZstdDecompressor()
	default:
		return nil, base.InvalidFormatErrorf("unknown compression algorithm %d", errors.Safe(uint32(a)))
	}
}

type noopCompressor struct{}

func (noopCompressor) Algorithm() Algorithm { return NoCompression }

func (noopCompressor) Compress(dst, src []byte) ([]byte, error) {
	return append(dst[:0], src...), nil
}

func (noopCompressor) Close() {}

type noopDecompressor struct{}

func (noopDecompressor) DecompressInto(dst, src []byte) error {
	if len(dst) != len(src) {
		return base.CorruptionErrorf("uncompressed data of %d bytes, expected %d",
			errors.Safe(len(src)), errors.Safe(len(dst)))
	}
	copy(dst, src)
	return nil
}

func (noopDecompressor) Close() {}
