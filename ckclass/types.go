// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package ckclass

import (
	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/schema"
)

// sections maps each class with a serializer to its modern section.
var sections = map[ck.ClassID]ck.Identifier{
	ck.CIDObject:      objectSection,
	ck.CIDSceneObject: sceneObjectSection,
	ck.CIDBeObject:    beObjectSection,
	ck.CIDParameter:   parameterSection,
	ck.CIDDataArray:   dataArraySection,
	ck.CID2dEntity:    entity2DSection,
	ck.CIDSprite:      spriteSection,
	ck.CIDSpriteText:  spriteTextSection,
	ck.CID3dEntity:    entity3DSection,
	ck.CIDLight:       lightSection,
}

// Section returns the identifier of the modern section written by the
// serializer of id.
func Section(id ck.ClassID) (ck.Identifier, bool) {
	s, ok := sections[id]
	return s, ok
}

// RegisterClassTypes registers, for each class with a serializer, a struct
// describing the fixed leading fields of its modern section, and maps the
// class id to it. The builtin types must be registered first.
func RegisterClassTypes(r *schema.Registry) error {
	deps := make(map[string]*schema.Descriptor)
	for _, name := range []string{
		"int", "dword", "float", "string", "guid", "object_id",
		"Vector3", "Color", "Rect", "Matrix", "VXLIGHT_TYPE", "CK_2DENTITY_FLAGS",
	} {
		d, err := r.Require(name)
		if err != nil {
			return err
		}
		deps[name] = d
	}
	ids := schema.ArrayOf("object_id_array", deps["object_id"])
	if err := r.Add(ids); err != nil {
		return err
	}

	dword := deps["dword"]
	for _, c := range []struct {
		id ck.ClassID
		b  *schema.StructBuilder
	}{
		{ck.CIDObject, schema.Struct("CKObject").
			Field("block_flags", dword).
			Field("object_flags", dword)},
		{ck.CIDSceneObject, schema.Struct("CKSceneObject").
			Field("scenes", ids)},
		{ck.CIDBeObject, schema.Struct("CKBeObject").
			Field("block_flags", dword)},
		{ck.CIDParameter, schema.Struct("CKParameter").
			Field("block_flags", dword).
			Field("type", deps["guid"])},
		{ck.CIDDataArray, schema.Struct("CKDataArray").
			Field("block_flags", dword).
			Field("column_count", dword)},
		{ck.CID2dEntity, schema.Struct("CK2dEntity").
			Field("block_flags", dword).
			Field("flags", deps["CK_2DENTITY_FLAGS"]).
			Field("rect", deps["Rect"])},
		{ck.CIDSprite, schema.Struct("CKSprite").
			Field("block_flags", dword)},
		{ck.CIDSpriteText, schema.Struct("CKSpriteText").
			Field("block_flags", dword).
			Field("text", deps["string"])},
		{ck.CID3dEntity, schema.Struct("CK3dEntity").
			Field("block_flags", dword).
			Field("flags", dword).
			Field("world", deps["Matrix"])},
		{ck.CIDLight, schema.Struct("CKLight").
			Field("block_flags", dword).
			Field("type", deps["VXLIGHT_TYPE"]).
			Field("color", deps["Color"]).
			Field("range", deps["float"]).
			Field("attenuation", deps["Vector3"])},
	} {
		d, err := c.b.Versions(ck.ModernFileVersion, 0).Register(r)
		if err != nil {
			return err
		}
		if err := r.MapClassID(c.id, d); err != nil {
			return err
		}
	}
	return nil
}
