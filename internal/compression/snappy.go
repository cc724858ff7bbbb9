// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package compression

import (
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
)

type snappyCompressor struct{}

var _ Compressor = snappyCompressor{}

func (snappyCompressor) Algorithm() Algorithm { return Snappy }

func (snappyCompressor) Compress(dst, src []byte) ([]byte, error) {
	dst = dst[:cap(dst):cap(dst)]
	return snappy.Encode(dst, src), nil
}

func (snappyCompressor) Close() {}

type snappyDecompressor struct{}

var _ Decompressor = snappyDecompressor{}

func (snappyDecompressor) DecompressInto(buf, compressed []byte) error {
	if n, err := snappy.DecodedLen(compressed); err != nil {
		return base.MarkCorruptionError(err)
	} else if n != len(buf) {
		return base.CorruptionErrorf("snappy: payload decodes to %d bytes, header says %d",
			errors.Safe(n), errors.Safe(len(buf)))
	}
	// Decode writes into buf when it is large enough, which DecodedLen
	// guarantees.
	if _, err := snappy.Decode(buf, compressed); err != nil {
		return base.MarkCorruptionError(err)
	}
	return nil
}

func (snappyDecompressor) Close() {}
