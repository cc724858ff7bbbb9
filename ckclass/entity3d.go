// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package ckclass

import (
	"fmt"

	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/cockroachdb/errors"
)

// Section identifiers of CK3dEntity.
const (
	entity3DSection      ck.Identifier = 0x00100000
	entity3DLegacyFlags  ck.Identifier = 0x00200000
	entity3DLegacyMatrix ck.Identifier = 0x00400000
	entity3DLegacyParent ck.Identifier = 0x00800000
	entity3DLegacyMeshes ck.Identifier = 0x01000000
)

// Block flags of CK3dEntity.
const (
	entity3DBlockParent uint32 = 1 << iota
	entity3DBlockMeshes
	entity3DBlockMask = entity3DBlockParent | entity3DBlockMeshes
)

// Entity3D is the state of CK3dEntity: an object placed in world space.
type Entity3D struct {
	Render RenderObject
	Flags  uint32
	// World is the world transform. Legacy files that omit it get Identity.
	World     Matrix
	HasParent bool
	Parent    ck.ObjectID
	HasMeshes bool
	Meshes    []ck.ObjectID
	// CurrentMesh is the mesh in use. It is zero, or one of Meshes once
	// loading has finished.
	CurrentMesh ck.ObjectID
	RawTail     []byte
}

var _ State = (*Entity3D)(nil)

// ClassID implements State.
func (s *Entity3D) ClassID() ck.ClassID { return ck.CID3dEntity }

func (s *Entity3D) readMeshes(r *Reader) {
	s.CurrentMesh = r.ObjectID("current mesh")
	s.Meshes = r.ObjectIDs("meshes", r.Chunk().Limits().MaxMeshes)
}

// Read implements State.
func (s *Entity3D) Read(r *Reader) error {
	if err := s.Render.Read(r); err != nil {
		return err
	}
	if !r.Modern() {
		if r.Optional(entity3DLegacyFlags) {
			s.Flags = r.Dword("flags")
		}
		s.World = Identity
		if r.Optional(entity3DLegacyMatrix) {
			s.World = r.Matrix("world matrix")
		}
		if s.HasParent = r.Optional(entity3DLegacyParent); s.HasParent {
			s.Parent = r.ObjectID("parent")
		}
		if s.HasMeshes = r.Optional(entity3DLegacyMeshes); s.HasMeshes {
			s.readMeshes(r)
		}
		return r.Err()
	}
	if !r.Section("CK3dEntity", entity3DSection) {
		return r.Err()
	}
	blocks := r.BlockFlags(entity3DBlockMask)
	s.Flags = r.Dword("flags")
	s.World = r.Matrix("world matrix")
	if s.HasParent = blocks&entity3DBlockParent != 0; s.HasParent {
		s.Parent = r.ObjectID("parent")
	}
	if s.HasMeshes = blocks&entity3DBlockMeshes != 0; s.HasMeshes {
		s.readMeshes(r)
	}
	s.RawTail = r.RawTail()
	return r.Err()
}

// Write implements State.
func (s *Entity3D) Write(w *Writer) error {
	if err := s.Render.Write(w); err != nil {
		return err
	}
	w.Section(entity3DSection)
	w.Dword("block flags", flagIf(s.HasParent, entity3DBlockParent)|flagIf(s.HasMeshes, entity3DBlockMeshes))
	w.Dword("flags", s.Flags)
	w.Matrix("world matrix", s.World)
	if s.HasParent {
		w.ObjectID("parent", s.Parent)
	}
	if s.HasMeshes {
		w.ObjectID("current mesh", s.CurrentMesh)
		w.ObjectIDs("meshes", s.Meshes)
	}
	w.RawTail(s.RawTail)
	return w.Err()
}

// FinishLoading implements State. An unresolved parent is cleared, meshes
// that do not resolve are dropped and the current mesh is cleared unless it
// is one of the remaining meshes.
func (s *Entity3D) FinishLoading(repo Repository, log base.Logger) error {
	if err := s.Render.FinishLoading(repo, log); err != nil {
		return err
	}
	if s.HasParent && !resolves(repo, s.Parent, ck.CID3dEntity) {
		log.Infof("ckclass: clearing unresolved 3D entity parent %s", s.Parent)
		s.HasParent, s.Parent = false, 0
	}
	s.Meshes = filterResolved(s.Meshes, repo, ck.CIDMesh, "mesh", log)
	if s.CurrentMesh != 0 && !containsID(s.Meshes, s.CurrentMesh) {
		log.Infof("ckclass: clearing current mesh %s", s.CurrentMesh)
		s.CurrentMesh = 0
	}
	return nil
}

func containsID(ids []ck.ObjectID, id ck.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// LightType is a VXLIGHT_TYPE value.
type LightType uint32

// Light types.
const (
	LightPoint       LightType = 1
	LightSpot        LightType = 2
	LightDirectional LightType = 3
	LightParallel    LightType = 4
)

// Valid returns true for a known light type.
func (t LightType) Valid() bool {
	return t >= LightPoint && t <= LightParallel
}

// String implements fmt.Stringer.
func (t LightType) String() string {
	switch t {
	case LightPoint:
		return "point"
	case LightSpot:
		return "spot"
	case LightDirectional:
		return "directional"
	case LightParallel:
		return "parallel"
	}
	return fmt.Sprintf("light(%d)", uint32(t))
}

// Section identifiers of CKLight.
const (
	lightSection           ck.Identifier = 0x02000000
	lightLegacyType        ck.Identifier = 0x04000000
	lightLegacyColor       ck.Identifier = 0x08000000
	lightLegacyAttenuation ck.Identifier = 0x10000000
	lightLegacySpot        ck.Identifier = 0x20000000
	lightBlockSpot         uint32        = 0x1
)

// Spot holds the cone of a spot light, in radians.
type Spot struct {
	Falloff float32
	Inner   float32
	Outer   float32
}

// Light is the state of CKLight.
type Light struct {
	Entity Entity3D
	Type   LightType
	Color  Color
	Range  float32
	// Attenuation holds the constant, linear and quadratic terms.
	Attenuation [3]float32
	HasSpot     bool
	Spot        Spot
	RawTail     []byte
}

var _ State = (*Light)(nil)

// ClassID implements State.
func (s *Light) ClassID() ck.ClassID { return ck.CIDLight }

func (s *Light) readType(r *Reader) {
	t := LightType(r.Dword("light type"))
	if r.err == nil && !t.Valid() {
		r.fail("light type", base.ValidationErrorf("ckclass: unknown light type %d", errors.Safe(uint32(t))))
		return
	}
	s.Type = t
}

func (s *Light) readAttenuation(r *Reader) {
	s.Range = r.Float("range")
	for i := range s.Attenuation {
		s.Attenuation[i] = r.Float("attenuation")
	}
}

func (s *Light) readSpot(r *Reader) {
	s.Spot = Spot{
		Falloff: r.Float("spot falloff"),
		Inner:   r.Float("spot inner angle"),
		Outer:   r.Float("spot outer angle"),
	}
}

// Read implements State.
func (s *Light) Read(r *Reader) error {
	if err := s.Entity.Read(r); err != nil {
		return err
	}
	if !r.Modern() {
		s.Type = LightPoint
		if r.Optional(lightLegacyType) {
			s.readType(r)
		}
		if r.Optional(lightLegacyColor) {
			s.Color = r.Color("color")
		}
		if r.Optional(lightLegacyAttenuation) {
			s.readAttenuation(r)
		}
		if s.HasSpot = r.Optional(lightLegacySpot); s.HasSpot {
			s.readSpot(r)
		}
		return r.Err()
	}
	if !r.Section("CKLight", lightSection) {
		return r.Err()
	}
	blocks := r.BlockFlags(lightBlockSpot)
	s.readType(r)
	s.Color = r.Color("color")
	s.readAttenuation(r)
	if s.HasSpot = blocks&lightBlockSpot != 0; s.HasSpot {
		s.readSpot(r)
	}
	s.RawTail = r.RawTail()
	return r.Err()
}

// Write implements State.
func (s *Light) Write(w *Writer) error {
	if err := s.Entity.Write(w); err != nil {
		return err
	}
	if !s.Type.Valid() {
		return base.ValidationErrorf("ckclass: unknown light type %d", errors.Safe(uint32(s.Type)))
	}
	w.Section(lightSection)
	w.Dword("block flags", flagIf(s.HasSpot, lightBlockSpot))
	w.Dword("light type", uint32(s.Type))
	w.Color("color", s.Color)
	w.Float("range", s.Range)
	for _, a := range s.Attenuation {
		w.Float("attenuation", a)
	}
	if s.HasSpot {
		w.Float("spot falloff", s.Spot.Falloff)
		w.Float("spot inner angle", s.Spot.Inner)
		w.Float("spot outer angle", s.Spot.Outer)
	}
	w.RawTail(s.RawTail)
	return w.Err()
}

// FinishLoading implements State. A negative or NaN range or attenuation
// term fails validation.
func (s *Light) FinishLoading(repo Repository, log base.Logger) error {
	if err := s.Entity.FinishLoading(repo, log); err != nil {
		return err
	}
	if !(s.Range >= 0) {
		return base.ValidationErrorf("ckclass: invalid light range %v", errors.Safe(s.Range))
	}
	for i, a := range s.Attenuation {
		if !(a >= 0) {
			return base.ValidationErrorf("ckclass: invalid attenuation term %d: %v",
				errors.Safe(i), errors.Safe(a))
		}
	}
	return nil
}
