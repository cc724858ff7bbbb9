// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package ckclass

import (
	"strings"
	"testing"

	"github.com/ckarchive/ckarchive/chunk"
	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/guid"
	"github.com/ckarchive/ckarchive/internal/arena"
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/ckarchive/ckarchive/schema"
	"github.com/cockroachdb/errors"
	"github.com/kr/pretty"
	"github.com/stretchr/testify/require"
)

func requireStateEqual(t *testing.T, want, got State) {
	t.Helper()
	if diff := pretty.Diff(want, got); len(diff) > 0 {
		t.Fatalf("state mismatch:\n%s", strings.Join(diff, "\n"))
	}
}

// serialize writes s with the serializer of class id and returns the
// enveloped bytes.
func serialize(t *testing.T, id ck.ClassID, s State, v ck.FileVersion, opts *chunk.Options) []byte {
	t.Helper()
	k, ok := Lookup(id)
	require.True(t, ok)
	c := chunk.New(id, v, opts)
	require.NoError(t, k.Serialize(c, s))
	buf, err := c.Encode()
	require.NoError(t, err)
	return buf
}

func deserialize(t *testing.T, buf []byte, opts *chunk.Options) (State, error) {
	t.Helper()
	c, err := chunk.Decode(buf, opts)
	require.NoError(t, err)
	k, ok := Lookup(c.ClassID())
	require.True(t, ok)
	s := k.New()
	return s, k.Deserialize(c, s, nil)
}

// roundTrip serializes s at the current file version, reads it back and
// checks that writing the result again reproduces the same bytes.
func roundTrip(t *testing.T, s State) State {
	t.Helper()
	buf := serialize(t, s.ClassID(), s, ck.CurrentFileVersion, nil)
	got, err := deserialize(t, buf, nil)
	require.NoError(t, err)
	require.Equal(t, buf, serialize(t, got.ClassID(), got, ck.CurrentFileVersion, nil))
	return got
}

// script writes a chunk by hand, for encodings the Writer does not produce.
type script struct {
	t *testing.T
	c *chunk.Chunk
}

func newScript(t *testing.T, id ck.ClassID, v ck.FileVersion) *script {
	return &script{t: t, c: chunk.New(id, v, nil)}
}

func (s *script) ident(id ck.Identifier) *script {
	require.NoError(s.t, s.c.WriteIdentifier(id))
	return s
}

func (s *script) dword(v uint32) *script {
	require.NoError(s.t, s.c.WriteDword(v))
	return s
}

func (s *script) int(v int32) *script {
	require.NoError(s.t, s.c.WriteInt(v))
	return s
}

func (s *script) floats(vs ...float32) *script {
	for _, v := range vs {
		require.NoError(s.t, s.c.WriteFloat(v))
	}
	return s
}

func (s *script) str(v string) *script {
	require.NoError(s.t, s.c.WriteString(v))
	return s
}

func (s *script) object(v ck.ObjectID) *script {
	require.NoError(s.t, s.c.WriteObjectID(v))
	return s
}

func (s *script) encode() []byte {
	buf, err := s.c.Encode()
	require.NoError(s.t, err)
	return buf
}

// modernPrefix writes empty CKObject, CKSceneObject and CKBeObject sections.
func (s *script) modernPrefix() *script {
	return s.ident(objectSection).dword(0).dword(0).
		ident(sceneObjectSection).dword(0).
		ident(beObjectSection).dword(0)
}

func testBeObject() BeObject {
	return BeObject{
		SceneObject: SceneObject{
			Object: Object{Name: "hud", Flags: 0x10},
			Scenes: []ck.ObjectID{3, 4},
		},
		Attributes: []Attribute{{Type: 12, Parameter: 40}, {Type: 13}},
		Scripts:    []ck.ObjectID{8},
		Priority:   -2,
	}
}

func TestRoundTrip(t *testing.T) {
	param := &Parameter{
		Object: Object{Name: "speed"},
		Type:   schema.GUIDParamFloat,
		Value:  []byte{0, 0, 0x80, 0x3f},
	}
	for _, s := range []State{
		&Object{},
		&Object{Name: "cube", Flags: 0x4001},
		&SceneObject{Object: Object{Name: "a"}, Scenes: []ck.ObjectID{1, ck.ReferenceBit | 2}},
		func() State { b := testBeObject(); return &b }(),
		param,
		&Parameter{Type: schema.GUIDParamInt},
		&Entity2D{
			Render:             RenderObject{BeObject: testBeObject()},
			Flags:              0x121,
			Rect:               Rect{Left: 1, Top: 2, Right: 30, Bottom: 40},
			HasHomogeneousRect: true,
			HomogeneousRect:    Rect{Right: 0.5, Bottom: 0.25},
			HasSourceRect:      true,
			SourceRect:         Rect{Right: 64, Bottom: 64},
			HasZOrder:          true,
			ZOrder:             -3,
			HasParent:          true,
			Parent:             77,
		},
		&Sprite{
			Entity:           Entity2D{Rect: Rect{Right: 8, Bottom: 8}},
			HasBitmap:        true,
			Width:            2,
			Height:           1,
			Bitmap:           []byte{1, 2, 3, 4, 5},
			Transparent:      true,
			TransparentColor: 0xff00ff,
		},
		&SpriteText{
			Sprite:     Sprite{Entity: Entity2D{HasZOrder: true, ZOrder: 1}},
			Text:       "Score: 100",
			HasFont:    true,
			Font:       Font{Name: "Arial", Size: 12, Weight: 700, Italic: 1},
			HasColors:  true,
			Foreground: 0xffffffff,
			Background: 0xff000000,
			HasAlign:   true,
			Align:      2,
		},
		&Entity3D{
			World:       Identity,
			HasParent:   true,
			Parent:      5,
			HasMeshes:   true,
			Meshes:      []ck.ObjectID{6, 7},
			CurrentMesh: 7,
		},
		&Light{
			Entity:      Entity3D{World: Matrix{{2}, {0, 2}, {0, 0, 2}, {1, 2, 3, 1}}},
			Type:        LightSpot,
			Color:       Color{R: 1, G: 0.5, B: 0.25, A: 1},
			Range:       100,
			Attenuation: [3]float32{1, 0.1, 0.01},
			HasSpot:     true,
			Spot:        Spot{Falloff: 1, Inner: 0.3, Outer: 0.6},
		},
		&DataArray{
			BeObject: BeObject{SceneObject: SceneObject{Object: Object{Name: "table"}}},
			Columns: []Column{
				{Name: "id", Type: ColumnInt},
				{Name: "weight", Type: ColumnFloat},
				{Name: "label", Type: ColumnString},
				{Name: "target", Type: ColumnObject},
				{Name: "speed", Type: ColumnParameter, ParamType: schema.GUIDParamFloat},
			},
			Rows: [][]Cell{
				{IntCell(1), FloatCell(0.5), {Str: "first"}, ObjectCell(9), {Param: param}},
				{IntCell(-2), FloatCell(2), {}, ObjectCell(0), {}},
			},
			HasKey:    true,
			KeyColumn: 0,
		},
	} {
		t.Run(s.ClassID().String(), func(t *testing.T) {
			requireStateEqual(t, s, roundTrip(t, s))
		})
	}
}

func TestRawTailPreserved(t *testing.T) {
	s := &SceneObject{
		Object:  Object{Name: "future", RawTail: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		Scenes:  []ck.ObjectID{2},
		RawTail: []byte{0xde, 0xad, 0xbe, 0xef},
	}
	got := roundTrip(t, s)
	requireStateEqual(t, s, got)

	// A section written by a newer writer carries fields this reader does
	// not know about.
	buf := newScript(t, ck.CIDObject, 8).
		ident(objectSection).dword(objectHasName).dword(1).str("obj").dword(42).dword(43).
		encode()
	st, err := deserialize(t, buf, nil)
	require.NoError(t, err)
	require.Equal(t, &Object{Name: "obj", Flags: 1, RawTail: []byte{42, 0, 0, 0, 43, 0, 0, 0}}, st)
}

func TestScenarioHomogeneousZOrder(t *testing.T) {
	s := &Entity2D{
		HasHomogeneousRect: true,
		HomogeneousRect:    Rect{Right: 1, Bottom: 1},
		HasZOrder:          true,
		ZOrder:             42,
	}
	got := roundTrip(t, s).(*Entity2D)
	require.True(t, got.HasHomogeneousRect)
	require.True(t, got.HasZOrder)
	require.Equal(t, int32(42), got.ZOrder)
	require.False(t, got.HasSourceRect)
	require.False(t, got.HasParent)
}

func TestBlockFlagsSanitized(t *testing.T) {
	buf := newScript(t, ck.CID2dEntity, 6).modernPrefix().
		ident(entity2DSection).dword(0xfff0|entity2DHasZOrder).
		dword(0).floats(0, 0, 10, 10).int(42).
		encode()
	st, err := deserialize(t, buf, nil)
	require.NoError(t, err)
	e := st.(*Entity2D)
	require.True(t, e.HasZOrder)
	require.Equal(t, int32(42), e.ZOrder)
	require.False(t, e.HasHomogeneousRect)
	require.False(t, e.HasSourceRect)
	require.False(t, e.HasParent)
	require.Equal(t, Rect{Right: 10, Bottom: 10}, e.Rect)
	require.Nil(t, e.RawTail)
}

func TestLegacyEquivalence(t *testing.T) {
	t.Run("2d entity", func(t *testing.T) {
		want := &Entity2D{
			Render: RenderObject{BeObject: BeObject{SceneObject: SceneObject{
				Object: Object{Name: "hud", Flags: 0x10},
				Scenes: []ck.ObjectID{3},
			}}},
			Flags:         0x21,
			Rect:          Rect{Left: 1, Top: 2, Right: 3, Bottom: 4},
			HasSourceRect: true,
			SourceRect:    Rect{Right: 16, Bottom: 16},
			HasZOrder:     true,
			ZOrder:        7,
			HasParent:     true,
			Parent:        9,
		}
		legacy := newScript(t, ck.CID2dEntity, 4).
			ident(objectLegacyName).str("hud").
			ident(objectLegacyFlags).dword(0x10).
			ident(sceneObjectLegacyScenes).dword(1).object(3).
			ident(entity2DLegacyFlags).dword(0x21).
			ident(entity2DLegacyRect).floats(1, 2, 3, 4).
			ident(entity2DLegacySource).floats(0, 0, 16, 16).
			ident(entity2DLegacyZOrder).int(7).
			ident(entity2DLegacyParent).object(9).
			encode()
		fromLegacy, err := deserialize(t, legacy, nil)
		require.NoError(t, err)
		fromModern, err := deserialize(t, serialize(t, ck.CID2dEntity, want, 7, nil), nil)
		require.NoError(t, err)
		requireStateEqual(t, want, fromLegacy)
		requireStateEqual(t, fromLegacy, fromModern)
	})

	t.Run("light defaults", func(t *testing.T) {
		legacy := newScript(t, ck.CIDLight, 4).
			ident(lightLegacyColor).floats(1, 1, 1, 1).
			ident(lightLegacyAttenuation).floats(50, 1, 0, 0).
			encode()
		st, err := deserialize(t, legacy, nil)
		require.NoError(t, err)
		want := &Light{
			Entity:      Entity3D{World: Identity},
			Type:        LightPoint,
			Color:       Color{R: 1, G: 1, B: 1, A: 1},
			Range:       50,
			Attenuation: [3]float32{1, 0, 0},
		}
		requireStateEqual(t, want, st)
		fromModern, err := deserialize(t, serialize(t, ck.CIDLight, want, 7, nil), nil)
		require.NoError(t, err)
		requireStateEqual(t, st, fromModern)
	})

	t.Run("opaque sprite color", func(t *testing.T) {
		for _, transparent := range []uint32{0, 1} {
			legacy := newScript(t, ck.CIDSprite, 4).
				ident(spriteLegacyTransparent).dword(transparent).dword(0xff00ff).
				encode()
			st, err := deserialize(t, legacy, nil)
			require.NoError(t, err)
			sp := st.(*Sprite)
			require.Equal(t, transparent != 0, sp.Transparent)
			if transparent != 0 {
				require.Equal(t, uint32(0xff00ff), sp.TransparentColor)
			} else {
				require.Zero(t, sp.TransparentColor)
			}
			fromModern, err := deserialize(t, serialize(t, ck.CIDSprite, sp, 7, nil), nil)
			require.NoError(t, err)
			requireStateEqual(t, st, fromModern)
		}
	})

	t.Run("unsectioned", func(t *testing.T) {
		st, err := deserialize(t, newScript(t, ck.CIDBeObject, 2).encode(), nil)
		require.NoError(t, err)
		requireStateEqual(t, &BeObject{}, st)
	})
}

func TestWriterRejectsLegacy(t *testing.T) {
	k, ok := Lookup(ck.CIDObject)
	require.True(t, ok)
	err := k.Serialize(chunk.New(ck.CIDObject, 4, nil), &Object{Name: "x"})
	require.True(t, errors.Is(err, base.ErrInvalidArgument), "%v", err)
}

func TestMissingSection(t *testing.T) {
	buf := newScript(t, ck.CIDSceneObject, 7).ident(objectSection).dword(0).dword(0).encode()
	_, err := deserialize(t, buf, nil)
	require.True(t, base.IsCorruptionError(err), "%v", err)
	require.Contains(t, err.Error(), "CKSceneObject: ckclass: CKSceneObject: missing section 0x00000010")
}

func TestAttributeCeiling(t *testing.T) {
	attributes := func(count uint32, rest ...uint32) []byte {
		s := newScript(t, ck.CIDBeObject, 7).
			ident(objectSection).dword(0).dword(0).
			ident(sceneObjectSection).dword(0).
			ident(beObjectSection).dword(beObjectHasAttributes).dword(count)
		for _, v := range rest {
			s.dword(v)
		}
		return s.encode()
	}

	_, err := deserialize(t, attributes(base.DefaultMaxAttributes+1), nil)
	require.True(t, base.IsValidationError(err), "%v", err)
	require.Contains(t, err.Error(), "attribute count")

	// A count within the ceiling that the data cannot hold is corruption.
	_, err = deserialize(t, attributes(1000, 1), nil)
	require.True(t, base.IsCorruptionError(err), "%v", err)
	require.False(t, base.IsValidationError(err), "%v", err)

	st, err := deserialize(t, attributes(1, 7, 0), nil)
	require.NoError(t, err)
	require.Equal(t, []Attribute{{Type: 7}}, st.(*BeObject).Attributes)
}

func TestInvalidLightType(t *testing.T) {
	k, _ := Lookup(ck.CIDLight)
	c := chunk.New(ck.CIDLight, ck.CurrentFileVersion, nil)
	require.NoError(t, k.Serialize(c, &Light{Type: LightDirectional}))
	c.StartRead()
	found, err := c.SeekIdentifier(lightSection)
	require.NoError(t, err)
	require.True(t, found)
	// The type follows the block flags.
	c.Data()[c.Position()+4] = 9

	err = k.Deserialize(c, k.New(), nil)
	require.True(t, base.IsValidationError(err), "%v", err)
	require.Contains(t, err.Error(), "unknown light type 9")

	err = k.Serialize(chunk.New(ck.CIDLight, ck.CurrentFileVersion, nil), &Light{})
	require.True(t, base.IsValidationError(err), "%v", err)
}

func TestDataArrayLegacyKey(t *testing.T) {
	legacy := func(key bool, keyValue int32) []byte {
		s := newScript(t, ck.CIDDataArray, 3).
			ident(dataArrayLegacyColumns).dword(2).
			str("name").dword(uint32(ColumnString)).
			str("score").dword(uint32(ColumnInt)).
			ident(dataArrayLegacyRows).dword(1).str("bob").int(10).
			ident(dataArrayLegacyKey)
		if key {
			s.int(keyValue)
		}
		return s.encode()
	}
	want := &DataArray{
		Columns: []Column{{Name: "name", Type: ColumnString}, {Name: "score", Type: ColumnInt}},
		Rows:    [][]Cell{{{Str: "bob"}, IntCell(10)}},
	}

	// An empty key section is ignored.
	st, err := deserialize(t, legacy(false, 0), nil)
	require.NoError(t, err)
	requireStateEqual(t, want, st)

	// An empty key section followed by other sections does not read them.
	buf := newScript(t, ck.CIDDataArray, 3).
		ident(dataArrayLegacyColumns).dword(2).
		str("name").dword(uint32(ColumnString)).
		str("score").dword(uint32(ColumnInt)).
		ident(dataArrayLegacyKey).
		ident(dataArrayLegacyRows).dword(1).str("bob").int(10).
		encode()
	st, err = deserialize(t, buf, nil)
	require.NoError(t, err)
	requireStateEqual(t, want, st)

	st, err = deserialize(t, legacy(true, 1), nil)
	require.NoError(t, err)
	want.HasKey, want.KeyColumn = true, 1
	requireStateEqual(t, want, st)
}

func TestDataArrayInvalidColumn(t *testing.T) {
	buf := newScript(t, ck.CIDDataArray, 7).modernPrefix().
		ident(dataArraySection).dword(0).dword(1).str("bad").dword(6).dword(0).
		encode()
	_, err := deserialize(t, buf, nil)
	require.True(t, base.IsValidationError(err), "%v", err)

	k, _ := Lookup(ck.CIDDataArray)
	err = k.Serialize(chunk.New(ck.CIDDataArray, 7, nil), &DataArray{
		Columns: []Column{{Name: "a", Type: ColumnInt}},
		Rows:    [][]Cell{{IntCell(1), IntCell(2)}},
	})
	require.True(t, errors.Is(err, base.ErrInvalidArgument), "%v", err)
}

func TestArenaBackedRoundTrip(t *testing.T) {
	s := &Sprite{HasBitmap: true, Width: 1, Height: 1, Bitmap: []byte{9, 8, 7, 6}}
	a := arena.New(1 << 12)
	opts := &chunk.Options{Arena: a}
	buf := serialize(t, ck.CIDSprite, s, ck.CurrentFileVersion, opts)
	require.NotZero(t, a.Size())
	got, err := deserialize(t, buf, opts)
	require.NoError(t, err)
	requireStateEqual(t, s, got)

	// Running out of arena memory is reported, not hidden.
	small := &chunk.Options{Arena: arena.New(16)}
	k, _ := Lookup(ck.CIDSprite)
	err = k.Serialize(chunk.New(ck.CIDSprite, ck.CurrentFileVersion, small), s)
	require.True(t, errors.Is(err, base.ErrNoMem), "%v", err)
}

func TestLookup(t *testing.T) {
	for _, tc := range []struct {
		id         ck.ClassID
		serializer ck.ClassID
	}{
		{ck.CIDObject, ck.CIDObject},
		{ck.CIDTargetLight, ck.CIDLight},
		{ck.CIDRenderObject, ck.CIDBeObject},
		{ck.CIDScene, ck.CIDBeObject},
		{ck.CIDBehavior, ck.CIDSceneObject},
		{ck.CIDParameterOut, ck.CIDParameter},
		{ck.CIDBodyPart, ck.CID3dEntity},
		{ck.CIDLayer, ck.CIDObject},
	} {
		k, ok := Lookup(tc.id)
		require.True(t, ok, "%s", tc.id)
		require.Equal(t, tc.id, k.Info.ID)
		require.Equal(t, tc.serializer, k.Serializer, "%s", tc.id)
		require.Equal(t, tc.serializer, k.New().ClassID())
	}
	_, ok := Lookup(999)
	require.False(t, ok)

	require.Equal(t, len(serializers), len(Classes()))
	for _, id := range Classes() {
		_, ok := Section(id)
		require.True(t, ok, "%s", id)
	}

	// A stub class reads and writes with its ancestor's serializer.
	k, _ := Lookup(ck.CIDTargetLight)
	want := &Light{Type: LightParallel, Range: 3}
	buf := serialize(t, ck.CIDTargetLight, want, ck.CurrentFileVersion, nil)
	got, err := deserialize(t, buf, nil)
	require.NoError(t, err)
	requireStateEqual(t, want, got)

	c := chunk.New(ck.CIDTargetLight, ck.CurrentFileVersion, nil)
	err = k.Serialize(c, &Object{})
	require.True(t, errors.Is(err, base.ErrInvalidArgument), "%v", err)
	err = k.Deserialize(c, &Entity3D{}, nil)
	require.True(t, errors.Is(err, base.ErrInvalidArgument), "%v", err)
}

func TestParameterValue(t *testing.T) {
	reg := schema.NewRegistry()
	require.NoError(t, reg.AddBuiltin())

	colorType, err := reg.Require("Color")
	require.NoError(t, err)
	floatType, err := reg.Require("float")
	require.NoError(t, err)
	intType, err := reg.Require("int")
	require.NoError(t, err)

	p := &Parameter{Object: Object{Name: "tint"}, Type: schema.GUIDParamColor}
	require.NoError(t, p.SetValue(reg, schema.StructValue(colorType,
		schema.FloatValue(floatType, 1), schema.FloatValue(floatType, 0.5),
		schema.FloatValue(floatType, 0), schema.FloatValue(floatType, 1))))
	require.Len(t, p.Value, 16)

	got := roundTrip(t, p).(*Parameter)
	v, err := got.DecodeValue(reg)
	require.NoError(t, err)
	g, ok := v.Field("g")
	require.True(t, ok)
	require.Equal(t, float32(0.5), g.Float())

	// A value of the wrong type is rejected.
	err = p.SetValue(reg, schema.IntValue(intType, 3))
	require.True(t, errors.Is(err, base.ErrInvalidArgument), "%v", err)

	n := &Parameter{Type: schema.GUIDParamInt}
	require.NoError(t, n.SetValue(reg, schema.IntValue(intType, -7)))
	v, err = n.DecodeValue(reg)
	require.NoError(t, err)
	require.Equal(t, int32(-7), v.Int())

	unknown := &Parameter{Type: guid.New(1, 2), Value: []byte{0, 0, 0, 0}}
	_, err = unknown.DecodeValue(reg)
	require.True(t, base.IsNotFound(err), "%v", err)
}

func TestClassTypes(t *testing.T) {
	reg := schema.NewRegistry()
	require.True(t, base.IsNotFound(RegisterClassTypes(reg)))

	require.NoError(t, reg.AddBuiltin())
	require.NoError(t, RegisterClassTypes(reg))
	require.NoError(t, reg.Verify())

	for _, tc := range []struct {
		id   ck.ClassID
		name string
	}{
		{ck.CIDLight, "CKLight"},
		{ck.CIDTargetLight, "CKLight"},
		{ck.CIDCamera, "CK3dEntity"},
		{ck.CIDScene, "CKBeObject"},
		{ck.CIDRenderObject, "CKBeObject"},
		{ck.CIDParameterLocal, "CKParameter"},
	} {
		d, ok := reg.FindByClassIDInherited(tc.id)
		require.True(t, ok, "%s", tc.id)
		require.Equal(t, tc.name, d.Name, "%s", tc.id)
	}
	_, ok := reg.FindByClassID(ck.CIDTargetLight)
	require.False(t, ok)

	// The registered prefix decodes the leading fields of a written section.
	k, _ := Lookup(ck.CIDLight)
	c := chunk.New(ck.CIDLight, ck.CurrentFileVersion, nil)
	require.NoError(t, k.Serialize(c, &Light{
		Type:        LightSpot,
		Range:       25,
		Attenuation: [3]float32{1, 2, 3},
		HasSpot:     true,
	}))
	c.StartRead()
	id, _ := Section(ck.CIDLight)
	found, err := c.SeekIdentifier(id)
	require.NoError(t, err)
	require.True(t, found)
	d, _ := reg.FindByClassID(ck.CIDLight)
	v, err := schema.Decode(c, d)
	require.NoError(t, err)
	flags, _ := v.Field("block_flags")
	require.Equal(t, lightBlockSpot, flags.Dword())
	typ, _ := v.Field("type")
	require.Equal(t, int32(LightSpot), typ.Int())
	rng, _ := v.Field("range")
	require.Equal(t, float32(25), rng.Float())
}
