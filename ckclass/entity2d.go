// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package ckclass

import (
	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/internal/base"
)

// Section identifiers of CK2dEntity.
const (
	entity2DSection      ck.Identifier = 0x00010000
	entity2DLegacyFlags  ck.Identifier = 0x00020000
	entity2DLegacyRect   ck.Identifier = 0x00040000
	entity2DLegacySource ck.Identifier = 0x00080000
	entity2DLegacyZOrder ck.Identifier = 0x00100000
	entity2DLegacyParent ck.Identifier = 0x00200000
)

// Block flags of CK2dEntity.
const (
	entity2DHasHomogeneousRect uint32 = 1 << iota
	entity2DHasSourceRect
	entity2DHasZOrder
	entity2DHasParent
	entity2DBlockMask = entity2DHasHomogeneousRect | entity2DHasSourceRect |
		entity2DHasZOrder | entity2DHasParent
)

// Entity2D is the state of CK2dEntity: a screen-space rectangle.
type Entity2D struct {
	Render RenderObject
	// Flags holds CK_2DENTITY_FLAGS.
	Flags uint32
	Rect  Rect

	// HomogeneousRect is the rectangle in coordinates relative to the
	// viewport. Legacy files do not carry it.
	HasHomogeneousRect bool
	HomogeneousRect    Rect
	HasSourceRect      bool
	SourceRect         Rect
	HasZOrder          bool
	ZOrder             int32
	HasParent          bool
	Parent             ck.ObjectID

	RawTail []byte
}

var _ State = (*Entity2D)(nil)

// ClassID implements State.
func (s *Entity2D) ClassID() ck.ClassID { return ck.CID2dEntity }

// Read implements State.
func (s *Entity2D) Read(r *Reader) error {
	if err := s.Render.Read(r); err != nil {
		return err
	}
	if !r.Modern() {
		if r.Optional(entity2DLegacyFlags) {
			s.Flags = r.Dword("flags")
		}
		if r.Optional(entity2DLegacyRect) {
			s.Rect = r.Rect("rect")
		}
		if s.HasSourceRect = r.Optional(entity2DLegacySource); s.HasSourceRect {
			s.SourceRect = r.Rect("source rect")
		}
		if s.HasZOrder = r.Optional(entity2DLegacyZOrder); s.HasZOrder {
			s.ZOrder = r.Int("z order")
		}
		if s.HasParent = r.Optional(entity2DLegacyParent); s.HasParent {
			s.Parent = r.ObjectID("parent")
		}
		return r.Err()
	}
	if !r.Section("CK2dEntity", entity2DSection) {
		return r.Err()
	}
	blocks := r.BlockFlags(entity2DBlockMask)
	s.Flags = r.Dword("flags")
	s.Rect = r.Rect("rect")
	if s.HasHomogeneousRect = blocks&entity2DHasHomogeneousRect != 0; s.HasHomogeneousRect {
		s.HomogeneousRect = r.Rect("homogeneous rect")
	}
	if s.HasSourceRect = blocks&entity2DHasSourceRect != 0; s.HasSourceRect {
		s.SourceRect = r.Rect("source rect")
	}
	if s.HasZOrder = blocks&entity2DHasZOrder != 0; s.HasZOrder {
		s.ZOrder = r.Int("z order")
	}
	if s.HasParent = blocks&entity2DHasParent != 0; s.HasParent {
		s.Parent = r.ObjectID("parent")
	}
	s.RawTail = r.RawTail()
	return r.Err()
}

// Write implements State.
func (s *Entity2D) Write(w *Writer) error {
	if err := s.Render.Write(w); err != nil {
		return err
	}
	w.Section(entity2DSection)
	w.Dword("block flags", flagIf(s.HasHomogeneousRect, entity2DHasHomogeneousRect)|
		flagIf(s.HasSourceRect, entity2DHasSourceRect)|
		flagIf(s.HasZOrder, entity2DHasZOrder)|
		flagIf(s.HasParent, entity2DHasParent))
	w.Dword("flags", s.Flags)
	w.Rect("rect", s.Rect)
	if s.HasHomogeneousRect {
		w.Rect("homogeneous rect", s.HomogeneousRect)
	}
	if s.HasSourceRect {
		w.Rect("source rect", s.SourceRect)
	}
	if s.HasZOrder {
		w.Int("z order", s.ZOrder)
	}
	if s.HasParent {
		w.ObjectID("parent", s.Parent)
	}
	w.RawTail(s.RawTail)
	return w.Err()
}

// FinishLoading implements State. A parent that does not resolve to a live
// 2D entity is cleared.
func (s *Entity2D) FinishLoading(repo Repository, log base.Logger) error {
	if err := s.Render.FinishLoading(repo, log); err != nil {
		return err
	}
	if s.HasParent && !resolves(repo, s.Parent, ck.CID2dEntity) {
		log.Infof("ckclass: clearing unresolved 2D entity parent %s", s.Parent)
		s.HasParent, s.Parent = false, 0
	}
	return nil
}
