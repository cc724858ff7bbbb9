// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package schema

import (
	"github.com/ckarchive/ckarchive/guid"
	"github.com/cockroachdb/errors"
)

// Parameter type GUIDs.
var (
	GUIDParamInt    = guid.New(0x5a5716fd, 0x44e276d7)
	GUIDParamFloat  = guid.New(0x47884c3f, 0x432c2c20)
	GUIDParamBool   = guid.New(0x1ad52a8e, 0x5e741920)
	GUIDParamString = guid.New(0x6bf3b8a6, 0x29ad7bfe)
	GUIDParamVector = guid.New(0x48824eae, 0x2f2c5fd0)
	GUIDParamColor  = guid.New(0x57d54b5e, 0x43e97c01)
	GUIDParamRect   = guid.New(0x7a6c2e2c, 0x1d8f66f1)
	GUIDParamObject = guid.New(0x30ff289b, 0x1d2a4a19)
)

// AddBuiltin registers the scalar, math and domain types, in that order.
func (r *Registry) AddBuiltin() error {
	if err := RegisterScalarTypes(r); err != nil {
		return errors.Wrap(err, "registering scalar types")
	}
	if err := RegisterMathTypes(r); err != nil {
		return errors.Wrap(err, "registering math types")
	}
	if err := RegisterDomainTypes(r); err != nil {
		return errors.Wrap(err, "registering domain types")
	}
	return nil
}

// RegisterScalarTypes registers int, dword, float, bool, string, guid,
// object_id and class_id.
func RegisterScalarTypes(r *Registry) error {
	for _, d := range []*Descriptor{
		Scalar("int", 4, 4, intCodec{}),
		Scalar("dword", 4, 4, dwordCodec{}),
		Scalar("float", 4, 4, floatCodec{}),
		Scalar("bool", 4, 4, boolCodec{}),
		Scalar("string", 8, 8, stringCodec{}),
		Scalar("guid", 8, 4, guidCodec{}),
		Scalar("object_id", 4, 4, objectIDCodec{}),
		Scalar("class_id", 4, 4, classIDCodec{}),
	} {
		if err := r.Add(d); err != nil {
			return err
		}
	}
	return nil
}

// RegisterMathTypes registers the vector, color, rectangle, box and matrix
// types. The scalar types must be registered first.
func RegisterMathTypes(r *Registry) error {
	f, err := r.Require("float")
	if err != nil {
		return err
	}
	for _, b := range []*StructBuilder{
		Struct("Vector2").Field("x", f).Field("y", f),
		Struct("Vector4").Field("x", f).Field("y", f).Field("z", f).Field("w", f),
		Struct("Quaternion").Field("x", f).Field("y", f).Field("z", f).Field("w", f),
		Struct("Color").Field("r", f).Field("g", f).Field("b", f).Field("a", f),
		Struct("Rect").Field("left", f).Field("top", f).Field("right", f).Field("bottom", f),
	} {
		if _, err := b.Register(r); err != nil {
			return err
		}
	}

	// Box is composed from an unregistered Vector3, which is then
	// registered ahead of it.
	vec3, err := Struct("Vector3").Field("x", f).Field("y", f).Field("z", f).Build()
	if err != nil {
		return err
	}
	box, err := Struct("Box").Field("min", vec3).Field("max", vec3).Build()
	if err != nil {
		return err
	}
	if err := r.Add(vec3); err != nil {
		return err
	}
	if err := r.Add(box); err != nil {
		return err
	}

	vec4, err := r.Require("Vector4")
	if err != nil {
		return err
	}
	return r.Add(FixedArrayOf("Matrix", vec4, 4))
}

// RegisterDomainTypes registers the engine enums and the parameter types.
// The scalar and math types must be registered first.
func RegisterDomainTypes(r *Registry) error {
	deps := make(map[string]*Descriptor)
	for _, name := range []string{"int", "float", "bool", "string", "object_id", "Vector3", "Color", "Rect"} {
		d, err := r.Require(name)
		if err != nil {
			return err
		}
		deps[name] = d
	}

	for _, b := range []*EnumBuilder{
		Enum("VXLIGHT_TYPE").
			Value("VX_LIGHTPOINT", 1).
			Value("VX_LIGHTSPOT", 2).
			Value("VX_LIGHTDIREC", 3).
			Value("VX_LIGHTPARA", 4),
		Enum("CK_DATAARRAY_COLUMN_TYPE").
			Value("CKARRAYTYPE_INT", 1).
			Value("CKARRAYTYPE_FLOAT", 2).
			Value("CKARRAYTYPE_STRING", 3).
			Value("CKARRAYTYPE_OBJECT", 4).
			Value("CKARRAYTYPE_PARAMETER", 5),
		Enum("CK_2DENTITY_FLAGS").Flags().
			Value("CK_2DENTITY_BACKGROUND", 0x1).
			Value("CK_2DENTITY_STICKLEFT", 0x2).
			Value("CK_2DENTITY_STICKRIGHT", 0x4).
			Value("CK_2DENTITY_STICKTOP", 0x8).
			Value("CK_2DENTITY_STICKBOTTOM", 0x10).
			Value("CK_2DENTITY_USESIZE", 0x20).
			Value("CK_2DENTITY_CLIPTOCAMERAVIEW", 0x40).
			Value("CK_2DENTITY_RATIOOFFSET", 0x80).
			Value("CK_2DENTITY_USEHOMOGENEOUSCOORD", 0x100).
			Value("CK_2DENTITY_CLIPTOPARENT", 0x200),
	} {
		if _, err := b.Register(r); err != nil {
			return err
		}
	}

	for _, p := range []struct {
		name string
		base string
		g    guid.GUID
	}{
		{"CKPGUID_INT", "int", GUIDParamInt},
		{"CKPGUID_FLOAT", "float", GUIDParamFloat},
		{"CKPGUID_BOOL", "bool", GUIDParamBool},
		{"CKPGUID_STRING", "string", GUIDParamString},
		{"CKPGUID_VECTOR", "Vector3", GUIDParamVector},
		{"CKPGUID_COLOR", "Color", GUIDParamColor},
		{"CKPGUID_RECT", "Rect", GUIDParamRect},
		{"CKPGUID_OBJECT", "object_id", GUIDParamObject},
	} {
		if err := r.Add(paramType(p.name, deps[p.base], p.g)); err != nil {
			return err
		}
	}
	return nil
}

// paramType returns a parameter type sharing the layout of base.
func paramType(name string, base *Descriptor, g guid.GUID) *Descriptor {
	d := *base
	d.Name = name
	d.Param = &ParamMeta{GUID: g, Base: base}
	return &d
}
