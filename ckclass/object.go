// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package ckclass

import (
	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/internal/base"
)

// Section identifiers of CKObject.
const (
	objectSection     ck.Identifier = 0x00000001
	objectLegacyName  ck.Identifier = 0x00000002
	objectLegacyFlags ck.Identifier = 0x00000004
)

// Block flags of CKObject.
const (
	objectHasName   uint32 = 0x1
	objectBlockMask        = objectHasName
)

// Object is the state of CKObject, the root of the hierarchy.
type Object struct {
	Name    string
	Flags   uint32
	RawTail []byte
}

var _ State = (*Object)(nil)

// ClassID implements State.
func (s *Object) ClassID() ck.ClassID { return ck.CIDObject }

// Read implements State.
func (s *Object) Read(r *Reader) error {
	if !r.Modern() {
		if r.Optional(objectLegacyName) {
			s.Name = r.String("name")
		}
		if r.Optional(objectLegacyFlags) {
			s.Flags = r.Dword("object flags")
		}
		return r.Err()
	}
	if !r.Section("CKObject", objectSection) {
		return r.Err()
	}
	blocks := r.BlockFlags(objectBlockMask)
	s.Flags = r.Dword("object flags")
	if blocks&objectHasName != 0 {
		s.Name = r.String("name")
	}
	s.RawTail = r.RawTail()
	return r.Err()
}

// Write implements State.
func (s *Object) Write(w *Writer) error {
	w.Section(objectSection)
	w.Dword("block flags", flagIf(s.Name != "", objectHasName))
	w.Dword("object flags", s.Flags)
	if s.Name != "" {
		w.String("name", s.Name)
	}
	w.RawTail(s.RawTail)
	return w.Err()
}

// FinishLoading implements State.
func (s *Object) FinishLoading(Repository, base.Logger) error { return nil }

// Section identifiers of CKSceneObject.
const (
	sceneObjectSection      ck.Identifier = 0x00000010
	sceneObjectLegacyScenes ck.Identifier = 0x00000020
)

// SceneObject is the state of CKSceneObject: an object that can belong to
// scenes.
type SceneObject struct {
	Object  Object
	Scenes  []ck.ObjectID
	RawTail []byte
}

var _ State = (*SceneObject)(nil)

// ClassID implements State.
func (s *SceneObject) ClassID() ck.ClassID { return ck.CIDSceneObject }

// Read implements State.
func (s *SceneObject) Read(r *Reader) error {
	if err := s.Object.Read(r); err != nil {
		return err
	}
	maxScenes := r.Chunk().Limits().MaxScenes
	if !r.Modern() {
		if r.Optional(sceneObjectLegacyScenes) {
			s.Scenes = r.ObjectIDs("scenes", maxScenes)
		}
		return r.Err()
	}
	if !r.Section("CKSceneObject", sceneObjectSection) {
		return r.Err()
	}
	s.Scenes = r.ObjectIDs("scenes", maxScenes)
	s.RawTail = r.RawTail()
	return r.Err()
}

// Write implements State.
func (s *SceneObject) Write(w *Writer) error {
	if err := s.Object.Write(w); err != nil {
		return err
	}
	w.Section(sceneObjectSection)
	w.ObjectIDs("scenes", s.Scenes)
	w.RawTail(s.RawTail)
	return w.Err()
}

// FinishLoading implements State. Scene ids that do not name a live scene
// are dropped.
func (s *SceneObject) FinishLoading(repo Repository, log base.Logger) error {
	if err := s.Object.FinishLoading(repo, log); err != nil {
		return err
	}
	s.Scenes = filterResolved(s.Scenes, repo, ck.CIDScene, "scene", log)
	return nil
}

// filterResolved removes the ids in place that do not name a live object of
// class want.
func filterResolved(
	ids []ck.ObjectID, repo Repository, want ck.ClassID, what string, log base.Logger,
) []ck.ObjectID {
	kept := ids[:0]
	for _, id := range ids {
		if resolves(repo, id, want) {
			kept = append(kept, id)
			continue
		}
		log.Infof("ckclass: dropping unresolved %s reference %s", what, id)
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// Section identifiers of CKBeObject.
const (
	beObjectSection          ck.Identifier = 0x00000100
	beObjectLegacyAttributes ck.Identifier = 0x00000200
	beObjectLegacyScripts    ck.Identifier = 0x00000400
	beObjectLegacyPriority   ck.Identifier = 0x00000800
)

// Block flags of CKBeObject.
const (
	beObjectHasAttributes uint32 = 1 << iota
	beObjectHasScripts
	beObjectHasPriority
	beObjectBlockMask = beObjectHasAttributes | beObjectHasScripts | beObjectHasPriority
)

// Attribute attaches an attribute type, and optionally a parameter holding
// its value, to a behavioral object.
type Attribute struct {
	Type      int32
	Parameter ck.ObjectID
}

// BeObject is the state of CKBeObject: an object that can carry attributes
// and scripts.
type BeObject struct {
	SceneObject SceneObject
	Attributes  []Attribute
	Scripts     []ck.ObjectID
	Priority    int32
	RawTail     []byte
}

var _ State = (*BeObject)(nil)

// ClassID implements State.
func (s *BeObject) ClassID() ck.ClassID { return ck.CIDBeObject }

func (s *BeObject) readAttributes(r *Reader) {
	n := r.Count("attribute count", r.Chunk().Limits().MaxAttributes, 8)
	if n == 0 {
		return
	}
	s.Attributes = make([]Attribute, n)
	for i := range s.Attributes {
		s.Attributes[i] = Attribute{
			Type:      r.Int("attribute type"),
			Parameter: r.ObjectID("attribute parameter"),
		}
	}
}

// Read implements State.
func (s *BeObject) Read(r *Reader) error {
	if err := s.SceneObject.Read(r); err != nil {
		return err
	}
	maxScripts := r.Chunk().Limits().MaxScripts
	if !r.Modern() {
		if r.Optional(beObjectLegacyAttributes) {
			s.readAttributes(r)
		}
		if r.Optional(beObjectLegacyScripts) {
			s.Scripts = r.ObjectIDs("scripts", maxScripts)
		}
		if r.Optional(beObjectLegacyPriority) {
			s.Priority = r.Int("priority")
		}
		return r.Err()
	}
	if !r.Section("CKBeObject", beObjectSection) {
		return r.Err()
	}
	blocks := r.BlockFlags(beObjectBlockMask)
	if blocks&beObjectHasAttributes != 0 {
		s.readAttributes(r)
	}
	if blocks&beObjectHasScripts != 0 {
		s.Scripts = r.ObjectIDs("scripts", maxScripts)
	}
	if blocks&beObjectHasPriority != 0 {
		s.Priority = r.Int("priority")
	}
	s.RawTail = r.RawTail()
	return r.Err()
}

// Write implements State.
func (s *BeObject) Write(w *Writer) error {
	if err := s.SceneObject.Write(w); err != nil {
		return err
	}
	w.Section(beObjectSection)
	w.Dword("block flags", flagIf(len(s.Attributes) > 0, beObjectHasAttributes)|
		flagIf(len(s.Scripts) > 0, beObjectHasScripts)|
		flagIf(s.Priority != 0, beObjectHasPriority))
	if len(s.Attributes) > 0 {
		w.Dword("attribute count", uint32(len(s.Attributes)))
		for _, a := range s.Attributes {
			w.Int("attribute type", a.Type)
			w.ObjectID("attribute parameter", a.Parameter)
		}
	}
	if len(s.Scripts) > 0 {
		w.ObjectIDs("scripts", s.Scripts)
	}
	if s.Priority != 0 {
		w.Int("priority", s.Priority)
	}
	w.RawTail(s.RawTail)
	return w.Err()
}

// FinishLoading implements State. Scripts that do not resolve to a behavior
// are dropped and attribute parameters that do not resolve are cleared.
func (s *BeObject) FinishLoading(repo Repository, log base.Logger) error {
	if err := s.SceneObject.FinishLoading(repo, log); err != nil {
		return err
	}
	s.Scripts = filterResolved(s.Scripts, repo, ck.CIDBehavior, "script", log)
	for i := range s.Attributes {
		a := &s.Attributes[i]
		if a.Parameter != 0 && !resolves(repo, a.Parameter, ck.CIDParameter) {
			log.Infof("ckclass: clearing unresolved attribute parameter %s", a.Parameter)
			a.Parameter = 0
		}
	}
	return nil
}

// RenderObject is the state of CKRenderObject. The class has no payload of
// its own and no serializer: its objects are handled as CKBeObject.
type RenderObject struct {
	BeObject BeObject
}

// Read reads the parent payload.
func (s *RenderObject) Read(r *Reader) error { return s.BeObject.Read(r) }

// Write writes the parent payload.
func (s *RenderObject) Write(w *Writer) error { return s.BeObject.Write(w) }

// FinishLoading finishes the parent payload.
func (s *RenderObject) FinishLoading(repo Repository, log base.Logger) error {
	return s.BeObject.FinishLoading(repo, log)
}
