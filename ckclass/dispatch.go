// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package ckclass

import (
	"github.com/ckarchive/ckarchive/chunk"
	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/cockroachdb/errors"
)

// Class holds the serializer entry points for one class id.
type Class struct {
	// Info is the table row of the class looked up. For a stub class it is
	// the stub's row, while the entry points are those of the nearest
	// ancestor with a serializer.
	Info ck.ClassInfo
	// Serializer is the class whose entry points are used.
	Serializer ck.ClassID
	// New returns an empty state of the serializer's class.
	New func() State
}

// Deserialize reads s from c. s must come from New.
func (k Class) Deserialize(c *chunk.Chunk, s State, log base.Logger) error {
	if s.ClassID() != k.Serializer {
		return base.InvalidArgumentErrorf("ckclass: cannot read %s into a %s state", k.Info.ID, s.ClassID())
	}
	c.StartRead()
	if err := s.Read(NewReader(c, log)); err != nil {
		return errors.Wrapf(err, "%s", errors.Safe(k.Info.Name))
	}
	return nil
}

// Serialize writes s to c, which is reset first.
func (k Class) Serialize(c *chunk.Chunk, s State) error {
	if s.ClassID() != k.Serializer {
		return base.InvalidArgumentErrorf("ckclass: cannot write a %s state as %s", s.ClassID(), k.Info.ID)
	}
	c.StartWrite()
	if err := s.Write(NewWriter(c)); err != nil {
		return errors.Wrapf(err, "%s", errors.Safe(k.Info.Name))
	}
	return nil
}

// FinishLoading resolves the references of s against repo.
func (k Class) FinishLoading(s State, repo Repository, log base.Logger) error {
	if log == nil {
		log = base.NoopLogger{}
	}
	if err := s.FinishLoading(repo, log); err != nil {
		return errors.Wrapf(err, "%s", errors.Safe(k.Info.Name))
	}
	return nil
}

// serializers lists the classes with a dedicated serializer.
var serializers = map[ck.ClassID]func() State{
	ck.CIDObject:      func() State { return &Object{} },
	ck.CIDSceneObject: func() State { return &SceneObject{} },
	ck.CIDBeObject:    func() State { return &BeObject{} },
	ck.CIDParameter:   func() State { return &Parameter{} },
	ck.CIDDataArray:   func() State { return &DataArray{} },
	ck.CID2dEntity:    func() State { return &Entity2D{} },
	ck.CIDSprite:      func() State { return &Sprite{} },
	ck.CIDSpriteText:  func() State { return &SpriteText{} },
	ck.CID3dEntity:    func() State { return &Entity3D{} },
	ck.CIDLight:       func() State { return &Light{} },
}

var classTable = buildClassTable()

func buildClassTable() map[ck.ClassID]Class {
	t := make(map[ck.ClassID]Class, len(ck.Classes()))
	for _, info := range ck.Classes() {
		ck.Ancestors(info.ID, func(a ck.ClassInfo) bool {
			newState, ok := serializers[a.ID]
			if !ok {
				return true
			}
			t[info.ID] = Class{Info: info, Serializer: a.ID, New: newState}
			return false
		})
	}
	return t
}

// Lookup returns the serializer entry points for id. A stub class resolves
// to its nearest ancestor with a serializer.
func Lookup(id ck.ClassID) (Class, bool) {
	k, ok := classTable[id]
	return k, ok
}

// Classes returns the ids of the classes with a dedicated serializer.
func Classes() []ck.ClassID {
	ids := make([]ck.ClassID, 0, len(serializers))
	for _, info := range ck.Classes() {
		if _, ok := serializers[info.ID]; ok {
			ids = append(ids, info.ID)
		}
	}
	return ids
}
