// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package compression

import (
	"bytes"
	"io"

	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zlib"
)

type zlibCompressor struct{}

var _ Compressor = zlibCompressor{}

func (zlibCompressor) Algorithm() Algorithm { return Zlib }

func (zlibCompressor) Compress(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst[:0])
	w, err := zlib.NewWriterLevel(buf, zlib.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, base.CantWriteErrorf("zlib: %v", err)
	}
	if err := w.Close(); err != nil {
		return nil, base.CantWriteErrorf("zlib: %v", err)
	}
	return buf.Bytes(), nil
}

func (zlibCompressor) Close() {}

type zlibDecompressor struct{}

var _ Decompressor = zlibDecompressor{}

func (zlibDecompressor) DecompressInto(dst, src []byte) error {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return base.MarkCorruptionError(err)
	}
	defer r.Close()
	if _, err := io.ReadFull(r, dst); err != nil {
		return base.MarkCorruptionError(errors.Wrap(err, "zlib"))
	}
	// The stream must end exactly at the expected length.
	var extra [1]byte
	if n, _ := io.ReadFull(r, extra[:]); n != 0 {
		return base.CorruptionErrorf("zlib: decompressed data exceeds %d bytes", errors.Safe(len(dst)))
	}
	return nil
}

func (zlibDecompressor) Close() {}
