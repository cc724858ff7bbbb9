// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/guid"
	"github.com/ckarchive/ckarchive/internal/arena"
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/ckarchive/ckarchive/internal/compression"
	"github.com/cockroachdb/crlib/crstrings"
	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func parseIdentifier(t *testing.T, s string) ck.Identifier {
	v, err := strconv.ParseUint(s, 0, 32)
	require.NoError(t, err)
	return ck.Identifier(v)
}

func TestChunk(t *testing.T) {
	var c *Chunk
	datadriven.RunTest(t, "testdata/chunk", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "build":
			c = New(ck.CIDObject, ck.CurrentFileVersion, nil)
			for _, line := range crstrings.Lines(d.Input) {
				op, arg, _ := strings.Cut(line, " ")
				var err error
				switch op {
				case "ident":
					err = c.WriteIdentifier(parseIdentifier(t, arg))
				case "dword":
					v, perr := strconv.ParseUint(arg, 0, 32)
					require.NoError(t, perr)
					err = c.WriteDword(uint32(v))
				case "object":
					v, perr := strconv.ParseUint(arg, 0, 32)
					require.NoError(t, perr)
					err = c.WriteObjectID(ck.ObjectID(v))
				case "float":
					v, perr := strconv.ParseFloat(arg, 32)
					require.NoError(t, perr)
					err = c.WriteFloat(float32(v))
				case "string":
					err = c.WriteString(arg)
				default:
					t.Fatalf("unknown op %q", op)
				}
				if err != nil {
					return fmt.Sprintf("error: %v", err)
				}
			}
			c.StartRead()
			ids, err := c.Identifiers()
			if err != nil {
				return fmt.Sprintf("error: %v", err)
			}
			return fmt.Sprintf("size=%d ids=%d sections=%d", c.DataSize(), c.ObjectIDCount(), len(ids))

		case "seek":
			var s string
			d.ScanArgs(t, "id", &s)
			size, found, err := c.SeekIdentifierAndSize(parseIdentifier(t, s))
			if err != nil {
				return fmt.Sprintf("error: %v", err)
			}
			if !found {
				return fmt.Sprintf("not found pos=%d", c.Position())
			}
			return fmt.Sprintf("found size=%d pos=%d", size, c.Position())

		case "read":
			var buf strings.Builder
			for _, op := range crstrings.Lines(d.Input) {
				var v interface{}
				var err error
				switch op {
				case "dword":
					v, err = c.ReadDword()
				case "object":
					v, err = c.ReadObjectID()
				case "float":
					v, err = c.ReadFloat()
				case "string":
					v, err = c.ReadString()
				default:
					t.Fatalf("unknown op %q", op)
				}
				if err != nil {
					fmt.Fprintf(&buf, "error: %v\n", err)
					break
				}
				fmt.Fprintf(&buf, "%v\n", v)
			}
			return buf.String()

		case "tail":
			b, err := c.ReadRawTail()
			if err != nil {
				return fmt.Sprintf("error: %v", err)
			}
			return fmt.Sprintf("%d bytes pos=%d", len(b), c.Position())

		default:
			return fmt.Sprintf("unknown command: %s", d.Cmd)
		}
	})
}

func TestStringEncoding(t *testing.T) {
	c := New(ck.CIDObject, ck.CurrentFileVersion, nil)
	require.NoError(t, c.WriteString(""))
	require.Equal(t, 4, c.DataSize())
	require.NoError(t, c.WriteString("abc"))
	require.Equal(t, 12, c.DataSize())
	require.NoError(t, c.WriteString("abcd"))
	require.Equal(t, 24, c.DataSize())
	require.Equal(t, []byte{
		0, 0, 0, 0,
		4, 0, 0, 0, 'a', 'b', 'c', 0,
		5, 0, 0, 0, 'a', 'b', 'c', 'd', 0, 0, 0, 0,
	}, c.Data())

	c.StartRead()
	for _, want := range []string{"", "abc", "abcd"} {
		s, err := c.ReadString()
		require.NoError(t, err)
		require.Equal(t, want, s)
	}
	require.Equal(t, c.DataSize(), c.Position())
}

func TestStringNotTerminated(t *testing.T) {
	c, err := NewFromData([]byte{4, 0, 0, 0, 'a', 'b', 'c', 'd'}, ck.CIDObject, ck.CurrentFileVersion, false, nil)
	require.NoError(t, err)
	_, err = c.ReadString()
	require.True(t, base.IsCorruptionError(err))
}

func TestPrimitiveRoundTrip(t *testing.T) {
	c := New(ck.CIDLight, ck.CurrentFileVersion, nil)
	g := guid.New(0x12345678, 0x9abcdef0)
	require.NoError(t, c.WriteInt(-5))
	require.NoError(t, c.WriteFloat(0.25))
	require.NoError(t, c.WriteBool(true))
	require.NoError(t, c.WriteGUID(g))
	require.NoError(t, c.WriteClassID(ck.CIDSprite))
	require.NoError(t, c.WriteObjectID(ck.ObjectID(9)|ck.ReferenceBit))
	require.NoError(t, c.WriteBuffer([]byte{1, 2, 3, 4, 5}))
	require.NoError(t, c.WriteBufferNoSize([]byte{6, 7}))

	c.StartRead()
	i, err := c.ReadInt()
	require.NoError(t, err)
	require.Equal(t, int32(-5), i)
	f, err := c.ReadFloat()
	require.NoError(t, err)
	require.Equal(t, float32(0.25), f)
	b, err := c.ReadBool()
	require.NoError(t, err)
	require.True(t, b)
	g2, err := c.ReadGUID()
	require.NoError(t, err)
	require.True(t, g.Equal(g2))
	cid, err := c.ReadClassID()
	require.NoError(t, err)
	require.Equal(t, ck.CIDSprite, cid)
	oid, err := c.ReadObjectID()
	require.NoError(t, err)
	require.True(t, oid.IsReference())
	require.Equal(t, ck.ObjectID(9), oid.Index())
	buf, err := c.ReadBuffer()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4, 5}, buf)
	buf, err = c.ReadBufferNoSize(2)
	require.NoError(t, err)
	require.Equal(t, []byte{6, 7}, buf)
	require.Equal(t, c.DataSize(), c.Position())

	_, err = c.ReadDword()
	require.True(t, base.IsCorruptionError(err))
}

func TestSeekNotFoundKeepsCursor(t *testing.T) {
	c := New(ck.CIDDataArray, ck.CurrentFileVersion, nil)
	require.NoError(t, c.WriteIdentifier(0x1000))
	require.NoError(t, c.WriteDword(3))
	require.NoError(t, c.WriteDword(4))
	c.StartRead()

	require.NoError(t, c.Goto(4))
	found, err := c.SeekIdentifier(0x4000)
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, 4, c.Position())

	found, err = c.SeekIdentifier(0x1000)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 8, c.Position())
}

func TestUnsectionedChunk(t *testing.T) {
	c := New(ck.CIDParameter, ck.CurrentFileVersion, nil)
	require.NoError(t, c.WriteDword(1))
	// The first identifier must open the chunk.
	require.True(t, errors.Is(c.WriteIdentifier(0x1), base.ErrInvalidArgument))
	c.StartRead()
	found, err := c.SeekIdentifier(0x1)
	require.NoError(t, err)
	require.False(t, found)
	ids, err := c.Identifiers()
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestCorruptDirectory(t *testing.T) {
	// The first record links backwards.
	data := []byte{1, 0, 0, 0, 0, 0, 0, 0}
	data = append(data, 2, 0, 0, 0, 4, 0, 0, 0)
	data[4] = 8
	c, err := NewFromData(data, ck.CIDObject, ck.CurrentFileVersion, true, nil)
	require.NoError(t, err)
	_, err = c.SeekIdentifier(0x2)
	require.True(t, base.IsCorruptionError(err))
	// The error is sticky.
	_, err = c.SeekIdentifier(0x1)
	require.True(t, base.IsCorruptionError(err))
}

func TestModeErrors(t *testing.T) {
	c := New(ck.CIDObject, ck.CurrentFileVersion, nil)
	_, err := c.ReadDword()
	require.True(t, errors.Is(err, base.ErrInvalidArgument))
	_, err = c.SeekIdentifier(1)
	require.True(t, errors.Is(err, base.ErrInvalidArgument))
	require.True(t, errors.Is(c.Goto(0), base.ErrInvalidArgument))

	require.NoError(t, c.WriteDword(1))
	c.StartRead()
	require.True(t, errors.Is(c.WriteDword(1), base.ErrInvalidArgument))
	require.True(t, errors.Is(c.Goto(2), base.ErrInvalidArgument))
	require.True(t, errors.Is(c.Goto(8), base.ErrInvalidArgument))

	c.StartWrite()
	require.Equal(t, Building, c.Mode())
	require.Equal(t, 0, c.DataSize())
	require.NoError(t, c.WriteDword(2))
}

func TestCeilings(t *testing.T) {
	limits := (&base.Limits{MaxStringLen: 8, MaxBufferLen: 8}).EnsureDefaults()
	opts := &Options{Limits: limits}

	c := New(ck.CIDObject, ck.CurrentFileVersion, opts)
	require.True(t, errors.Is(c.WriteString("too long a string"), base.ErrInvalidArgument))

	// A length read from the data above the ceiling is both a validation
	// failure and corruption.
	data := []byte{100, 0, 0, 0}
	data = append(data, make([]byte, 100)...)
	r, err := NewFromData(data, ck.CIDObject, ck.CurrentFileVersion, false, opts)
	require.NoError(t, err)
	_, err = r.ReadString()
	require.True(t, base.IsValidationError(err))
	require.True(t, base.IsCorruptionError(err))
	require.NoError(t, r.Goto(0))
	_, err = r.ReadBuffer()
	require.True(t, base.IsValidationError(err))
}

func TestMaxChunkSize(t *testing.T) {
	opts := &Options{Limits: (&base.Limits{MaxChunkSize: 16}).EnsureDefaults()}
	c := New(ck.CIDObject, ck.CurrentFileVersion, opts)
	for i := 0; i < 4; i++ {
		require.NoError(t, c.WriteDword(uint32(i)))
	}
	require.True(t, errors.Is(c.WriteDword(5), base.ErrCantWrite))
}

func TestArena(t *testing.T) {
	a := arena.New(1 << 10)
	c := New(ck.CIDObject, ck.CurrentFileVersion, &Options{Arena: a})
	require.NoError(t, c.WriteIdentifier(0x1))
	require.NoError(t, c.WriteString("arena backed"))
	require.Positive(t, a.Size())

	c.StartRead()
	found, err := c.SeekIdentifier(0x1)
	require.NoError(t, err)
	require.True(t, found)
	tail, err := c.ReadRawTail()
	require.NoError(t, err)
	require.Len(t, tail, 20)

	small := arena.New(32)
	c = New(ck.CIDObject, ck.CurrentFileVersion, &Options{Arena: small})
	err = c.WriteBufferNoSize(make([]byte, 64))
	require.True(t, errors.Is(err, base.ErrNoMem))
}

func buildNested(t *testing.T, alg compression.Algorithm) *Chunk {
	inner := New(ck.CIDParameter, ck.CurrentFileVersion, &Options{Compression: alg})
	inner.SetDataVersion(3)
	require.NoError(t, inner.WriteIdentifier(0x40))
	require.NoError(t, inner.WriteObjectID(7))
	require.NoError(t, inner.WriteString(strings.Repeat("inner ", 20)))

	outer := New(ck.CIDDataArray, ck.CurrentFileVersion, nil)
	outer.SetDataVersion(1)
	require.NoError(t, outer.WriteIdentifier(0x1000))
	require.NoError(t, outer.WriteObjectID(5))
	require.NoError(t, outer.WriteSubChunk(inner))
	require.NoError(t, outer.WriteSubChunk(nil))
	require.NoError(t, outer.WriteIdentifier(0x2000))
	require.NoError(t, outer.WriteObjectID(0))
	return outer
}

func TestEncodeDecode(t *testing.T) {
	for a := compression.NoCompression; a <= compression.Zstd; a++ {
		t.Run(a.String(), func(t *testing.T) {
			outer := buildNested(t, a)
			outer.Pack(a)
			enc, err := outer.Encode()
			require.NoError(t, err)
			require.Zero(t, len(enc)%4)

			dec, err := Decode(enc, nil)
			require.NoError(t, err)
			require.Equal(t, Reading, dec.Mode())
			require.Equal(t, ck.CIDDataArray, dec.ClassID())
			require.Equal(t, uint8(1), dec.DataVersion())
			require.Equal(t, ck.CurrentFileVersion, dec.FileVersion())
			require.Equal(t, a, dec.Compression())
			require.Equal(t, outer.Checksum(), dec.Checksum())
			require.Equal(t, 2, dec.ObjectIDCount())
			require.Equal(t, 1, dec.SubChunkCount())

			// Re-encoding a decoded chunk reproduces the bytes.
			enc2, err := dec.Encode()
			require.NoError(t, err)
			require.True(t, bytes.Equal(enc, enc2))

			found, err := dec.SeekIdentifier(0x1000)
			require.NoError(t, err)
			require.True(t, found)
			id, err := dec.ReadObjectID()
			require.NoError(t, err)
			require.Equal(t, ck.ObjectID(5), id)
			sub, err := dec.ReadSubChunk()
			require.NoError(t, err)
			require.Equal(t, ck.CIDParameter, sub.ClassID())
			require.Equal(t, uint8(3), sub.DataVersion())
			require.Equal(t, a, sub.Compression())
			nilSub, err := dec.ReadSubChunk()
			require.NoError(t, err)
			require.Nil(t, nilSub)
			require.Equal(t, dec.SectionEnd(), dec.Position())

			found, err = sub.SeekIdentifier(0x40)
			require.NoError(t, err)
			require.True(t, found)
			id, err = sub.ReadObjectID()
			require.NoError(t, err)
			require.Equal(t, ck.ObjectID(7), id)
			s, err := sub.ReadString()
			require.NoError(t, err)
			require.Equal(t, strings.Repeat("inner ", 20), s)
		})
	}
}

func TestDecodeCorrupt(t *testing.T) {
	enc, err := buildNested(t, compression.NoCompression).Encode()
	require.NoError(t, err)

	for i := 0; i < len(enc); i += 4 {
		_, err := Decode(enc[:i], nil)
		require.Error(t, err, "truncated at %d", i)
	}
	_, err = Decode(append(append([]byte(nil), enc...), 0, 0, 0, 0), nil)
	require.True(t, base.IsCorruptionError(err))

	bad := append([]byte(nil), enc...)
	bad[0] = 9
	_, err = Decode(bad, nil)
	require.True(t, errors.Is(err, base.ErrInvalidFormat))

	bad = append([]byte(nil), enc...)
	bad[3] = 1
	_, err = Decode(bad, nil)
	require.True(t, errors.Is(err, base.ErrInvalidFormat))
}

func TestDepthLimit(t *testing.T) {
	opts := &Options{Limits: (&base.Limits{MaxDepth: 1}).EnsureDefaults()}
	c := New(ck.CIDObject, ck.CurrentFileVersion, nil)
	for i := 0; i < 3; i++ {
		outer := New(ck.CIDObject, ck.CurrentFileVersion, nil)
		require.NoError(t, outer.WriteSubChunk(c))
		c = outer
	}
	enc, err := c.Encode()
	require.NoError(t, err)
	dec, err := Decode(enc, opts)
	require.NoError(t, err)
	sub, err := dec.ReadSubChunk()
	require.NoError(t, err)
	_, err = sub.ReadSubChunk()
	require.True(t, base.IsValidationError(err))
}

func TestRemapObjectIDs(t *testing.T) {
	enc, err := buildNested(t, compression.NoCompression).Encode()
	require.NoError(t, err)
	dec, err := Decode(enc, nil)
	require.NoError(t, err)
	require.NoError(t, dec.RemapObjectIDs(func(id ck.ObjectID) ck.ObjectID {
		if id == 0 {
			return 0
		}
		return id + 100
	}))

	_, err = dec.SeekIdentifier(0x1000)
	require.NoError(t, err)
	id, err := dec.ReadObjectID()
	require.NoError(t, err)
	require.Equal(t, ck.ObjectID(105), id)
	sub, err := dec.ReadSubChunk()
	require.NoError(t, err)
	_, err = sub.SeekIdentifier(0x40)
	require.NoError(t, err)
	id, err = sub.ReadObjectID()
	require.NoError(t, err)
	require.Equal(t, ck.ObjectID(107), id)
	_, err = dec.SeekIdentifier(0x2000)
	require.NoError(t, err)
	id, err = dec.ReadObjectID()
	require.NoError(t, err)
	require.Equal(t, ck.ObjectID(0), id)

	// Packed sub-chunks are not rewritten in place.
	outer := New(ck.CIDObject, ck.CurrentFileVersion, nil)
	inner := buildNested(t, compression.NoCompression)
	inner.Pack(compression.Zlib)
	require.NoError(t, outer.WriteSubChunk(inner))
	err = outer.RemapObjectIDs(func(id ck.ObjectID) ck.ObjectID { return id })
	require.True(t, errors.Is(err, base.ErrInvalidFormat))
}

func TestRemapObjectIDsCorruptSubChunk(t *testing.T) {
	identity := func(id ck.ObjectID) ck.ObjectID { return id }
	for _, n := range []uint32{0xffff, 2, 0} {
		c := buildNested(t, compression.NoCompression)
		require.Equal(t, 1, c.SubChunkCount())
		binary.LittleEndian.PutUint32(c.data[c.subChunks[0]:], n)
		err := c.RemapObjectIDs(identity)
		require.True(t, base.IsCorruptionError(err), "length %d: %v", n, err)

		// The same bytes survive an encode and decode.
		enc, err := c.Encode()
		require.NoError(t, err)
		dec, err := Decode(enc, nil)
		if err != nil {
			require.True(t, base.IsCorruptionError(err))
			continue
		}
		err = dec.RemapObjectIDs(identity)
		require.True(t, base.IsCorruptionError(err), "length %d: %v", n, err)
	}
}

func TestDescribe(t *testing.T) {
	c := buildNested(t, compression.NoCompression)
	c.StartRead()
	out := c.Describe()
	require.Contains(t, out, "CKDataArray(52) v1")
	require.Contains(t, out, "# dword(4096): identifier 0x00001000")
	require.Contains(t, out, "# dword(5): object id")
	require.Contains(t, out, "sub-chunk #0")
	require.Contains(t, out, "sub-chunk #0:\n  CKParameter(46) v3")
	require.Contains(t, out, "dword(64): identifier 0x00000040")
}
