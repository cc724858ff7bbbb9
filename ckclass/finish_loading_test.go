// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package ckclass

import (
	"math"
	"testing"

	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/kr/pretty"
	"github.com/stretchr/testify/require"
)

var testRepo = MapRepository{
	3:  ck.CIDScene,
	4:  ck.CIDParameterLocal,
	5:  ck.CIDLevel,
	8:  ck.CIDBehavior,
	10: ck.CIDMesh,
	11: ck.CIDPatchMesh,
	12: ck.CIDTargetLight,
	13: ck.CIDSprite,
	14: ck.CIDSpriteText,
}

// finishTwice runs FinishLoading twice and checks the second run changes
// nothing.
func finishTwice(t *testing.T, s State) {
	t.Helper()
	k, ok := Lookup(s.ClassID())
	require.True(t, ok)
	require.NoError(t, k.FinishLoading(s, testRepo, nil))
	once := pretty.Sprint(s)
	require.NoError(t, k.FinishLoading(s, testRepo, base.NoopLogger{}))
	require.Equal(t, once, pretty.Sprint(s))
}

func TestFinishLoadingBeObject(t *testing.T) {
	s := &BeObject{
		SceneObject: SceneObject{Scenes: []ck.ObjectID{3, 4, 5, ck.ReferenceBit | 3, 99}},
		Attributes:  []Attribute{{Type: 1, Parameter: 4}, {Type: 2, Parameter: 77}, {Type: 3}},
		Scripts:     []ck.ObjectID{8, 99, 3},
	}
	finishTwice(t, s)
	require.Equal(t, []ck.ObjectID{3, ck.ReferenceBit | 3}, s.SceneObject.Scenes)
	require.Equal(t, []ck.ObjectID{8}, s.Scripts)
	require.Equal(t, []Attribute{{Type: 1, Parameter: 4}, {Type: 2}, {Type: 3}}, s.Attributes)

	// Nothing resolves against an empty repository.
	s = &BeObject{SceneObject: SceneObject{Scenes: []ck.ObjectID{3}}}
	require.NoError(t, s.FinishLoading(MapRepository{}, base.NoopLogger{}))
	require.Nil(t, s.SceneObject.Scenes)
}

func TestFinishLoading2dEntity(t *testing.T) {
	s := &Entity2D{HasParent: true, Parent: 13}
	finishTwice(t, s)
	require.True(t, s.HasParent)
	require.Equal(t, ck.ObjectID(13), s.Parent)

	s = &Entity2D{HasParent: true, Parent: 12}
	finishTwice(t, s)
	require.False(t, s.HasParent)
	require.Zero(t, s.Parent)
}

func TestFinishLoadingSpriteText(t *testing.T) {
	for _, tc := range []struct {
		font Font
		want Font
	}{
		{Font{Size: 200, Italic: 5}, Font{Size: MaxFontSize, Italic: 1}},
		{Font{Size: 1, Italic: -1}, Font{Size: MinFontSize, Italic: 1}},
		{Font{Name: "Courier", Size: 12, Weight: 400}, Font{Name: "Courier", Size: 12, Weight: 400}},
	} {
		s := &SpriteText{HasFont: true, Font: tc.font}
		finishTwice(t, s)
		require.Equal(t, tc.want, s.Font)
	}

	// Without a font block the font is left alone.
	s := &SpriteText{Font: Font{Size: 1000}}
	finishTwice(t, s)
	require.Equal(t, int32(1000), s.Font.Size)
}

func TestFinishLoading3dEntity(t *testing.T) {
	s := &Entity3D{
		HasParent:   true,
		Parent:      12,
		HasMeshes:   true,
		Meshes:      []ck.ObjectID{10, 11, 13},
		CurrentMesh: 13,
	}
	finishTwice(t, s)
	require.True(t, s.HasParent)
	require.Equal(t, []ck.ObjectID{10, 11}, s.Meshes)
	require.Zero(t, s.CurrentMesh)

	s = &Entity3D{HasMeshes: true, Meshes: []ck.ObjectID{10, 11}, CurrentMesh: 11}
	finishTwice(t, s)
	require.Equal(t, ck.ObjectID(11), s.CurrentMesh)
}

func TestFinishLoadingLight(t *testing.T) {
	s := &Light{Type: LightPoint, Range: 10, Attenuation: [3]float32{1, 0, 0}}
	finishTwice(t, s)

	s = &Light{Type: LightPoint, Range: -1}
	err := s.FinishLoading(testRepo, base.NoopLogger{})
	require.True(t, base.IsValidationError(err), "%v", err)
	require.Contains(t, err.Error(), "invalid light range")

	s = &Light{Type: LightPoint, Attenuation: [3]float32{1, -0.5, 0}}
	err = s.FinishLoading(testRepo, base.NoopLogger{})
	require.True(t, base.IsValidationError(err), "%v", err)
	require.Contains(t, err.Error(), "invalid attenuation term 1")

	// NaN is rejected like a negative value.
	nan := float32(math.NaN())
	s = &Light{Type: LightPoint, Range: nan}
	err = s.FinishLoading(testRepo, base.NoopLogger{})
	require.True(t, base.IsValidationError(err), "%v", err)
	require.Contains(t, err.Error(), "invalid light range")

	s = &Light{Type: LightPoint, Range: 1, Attenuation: [3]float32{1, 0, nan}}
	err = s.FinishLoading(testRepo, base.NoopLogger{})
	require.True(t, base.IsValidationError(err), "%v", err)
	require.Contains(t, err.Error(), "invalid attenuation term 2")
}

func TestFinishLoadingDataArray(t *testing.T) {
	param := &Parameter{Object: Object{Name: "p"}}
	s := &DataArray{
		BeObject:  BeObject{Scripts: []ck.ObjectID{8, 9}},
		Columns:   []Column{{Name: "p", Type: ColumnParameter}, {Name: "n", Type: ColumnInt}},
		Rows:      [][]Cell{{{Param: param}, IntCell(1)}},
		HasKey:    true,
		KeyColumn: 2,
	}
	finishTwice(t, s)
	require.Equal(t, []ck.ObjectID{8}, s.BeObject.Scripts)
	require.False(t, s.HasKey)
	require.Zero(t, s.KeyColumn)

	s.HasKey, s.KeyColumn = true, 1
	finishTwice(t, s)
	require.True(t, s.HasKey)
}
