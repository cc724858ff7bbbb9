// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package chunk

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/internal/binfmt"
	"github.com/cockroachdb/redact"
)

// Describe returns a human-readable listing of the chunk's data, one dword
// per line, annotated with identifier records, object ids and sub-chunks.
// Sub-chunks are described recursively, indented.
func (c *Chunk) Describe() string {
	var sb strings.Builder
	c.describe(&sb, "")
	return sb.String()
}

func (c *Chunk) describe(sb *strings.Builder, prefix string) {
	fmt.Fprintf(sb, "%s%s v%d data=%d ids=%d chunks=%d", prefix,
		redact.StringWithoutMarkers(c.classID), c.dataVersion, len(c.data), len(c.ids), len(c.subChunks))
	if alg := c.opts.Compression; alg != 0 {
		fmt.Fprintf(sb, " packed=%s", alg)
	}
	fmt.Fprintf(sb, " %s\n", redact.StringWithoutMarkers(c.fileVersion))

	ids := make(map[int]bool, len(c.ids))
	for _, off := range c.ids {
		ids[off] = true
	}
	subs := make(map[int]bool, len(c.subChunks))
	for _, off := range c.subChunks {
		subs[off] = true
	}
	records := make(map[int]bool)
	if c.sectioned || (c.mode == Building && c.lastIdent >= 0) {
		for off := 0; off+8 <= len(c.data); {
			records[off] = true
			next := int(binary.LittleEndian.Uint32(c.data[off+4:]))
			if next <= off || next%4 != 0 {
				break
			}
			off = next
		}
	}

	f := binfmt.New(c.data)
	f.SetLinePrefix(prefix)
	var nested []*Chunk
	for f.Remaining() >= 4 {
		off := f.Offset()
		switch {
		case records[off]:
			f.Dword("identifier %s", ck.Identifier(f.PeekUint32()))
			f.Dword("next")
		case ids[off]:
			f.Dword("object id")
		case subs[off]:
			n := int(f.Dword("sub-chunk size"))
			if n > f.Remaining() {
				f.HexBytesln(f.Remaining(), "truncated sub-chunk")
				continue
			}
			if sub, err := decode(c.data[off+4:off+4+n], c.opts, c.depth+1); err == nil {
				nested = append(nested, sub)
				f.HexBytesln(align4(n), "sub-chunk #%d", len(nested)-1)
			} else {
				f.HexBytesln(align4(n), "sub-chunk: %v", err)
			}
		default:
			f.Dword("data")
		}
	}
	sb.WriteString(f.String())
	for i, sub := range nested {
		fmt.Fprintf(sb, "%ssub-chunk #%d:\n", prefix, i)
		sub.describe(sb, prefix+"  ")
	}
}
