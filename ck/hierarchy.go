// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package ck

import "github.com/cockroachdb/errors"

// Class ids. The numeric order of the ids says nothing about the hierarchy:
// CK2dEntity (27) derives from CKRenderObject (47), and CKParameter (46) does
// not derive from CKBeObject (19). Ancestry must always be answered by
// walking the parent chain.
const (
	CIDObject                 ClassID = 1
	CIDParameterIn            ClassID = 2
	CIDParameterOut           ClassID = 3
	CIDParameterOperation     ClassID = 4
	CIDState                  ClassID = 5
	CIDBehaviorLink           ClassID = 6
	CIDBehavior               ClassID = 8
	CIDBehaviorIO             ClassID = 9
	CIDScene                  ClassID = 10
	CIDSceneObject            ClassID = 11
	CIDRenderContext          ClassID = 12
	CIDKinematicChain         ClassID = 13
	CIDObjectAnimation        ClassID = 15
	CIDAnimation              ClassID = 16
	CIDKeyedAnimation         ClassID = 18
	CIDBeObject               ClassID = 19
	CIDSynchro                ClassID = 20
	CIDLevel                  ClassID = 21
	CIDPlace                  ClassID = 22
	CIDGroup                  ClassID = 23
	CIDSound                  ClassID = 24
	CIDWaveSound              ClassID = 25
	CIDMidiSound              ClassID = 26
	CID2dEntity               ClassID = 27
	CIDSprite                 ClassID = 28
	CIDSpriteText             ClassID = 29
	CIDMaterial               ClassID = 30
	CIDTexture                ClassID = 31
	CIDMesh                   ClassID = 32
	CID3dEntity               ClassID = 33
	CIDCamera                 ClassID = 34
	CIDTargetCamera           ClassID = 35
	CIDCurvePoint             ClassID = 36
	CIDSprite3D               ClassID = 37
	CIDLight                  ClassID = 38
	CIDTargetLight            ClassID = 39
	CIDCharacter              ClassID = 40
	CID3dObject               ClassID = 41
	CIDBodyPart               ClassID = 42
	CIDCurve                  ClassID = 43
	CIDParameterLocal         ClassID = 45
	CIDParameter              ClassID = 46
	CIDRenderObject           ClassID = 47
	CIDInterfaceObjectManager ClassID = 48
	CIDCriticalSection        ClassID = 49
	CIDGrid                   ClassID = 50
	CIDLayer                  ClassID = 51
	CIDDataArray              ClassID = 52
	CIDPatchMesh              ClassID = 53
	CIDProgressiveMesh        ClassID = 54
	CIDParameterVariable      ClassID = 55
)

// ClassInfo is one row of the Class Hierarchy Table.
type ClassInfo struct {
	Name   string
	ID     ClassID
	Parent string
	// Stub is set for classes without a dedicated serializer. Their objects
	// are read and written by the nearest ancestor that has one.
	Stub bool
}

// classTable is the Class Hierarchy Table: a single-inheritance forest rooted
// at CKObject. classIndex is built from it once, so it must not change.
var classTable = []ClassInfo{
	{"CKObject", CIDObject, "", false},
	{"CKParameterIn", CIDParameterIn, "CKObject", true},
	{"CKParameterOperation", CIDParameterOperation, "CKObject", true},
	{"CKState", CIDState, "CKObject", true},
	{"CKBehaviorLink", CIDBehaviorLink, "CKObject", true},
	{"CKBehaviorIO", CIDBehaviorIO, "CKObject", true},
	{"CKRenderContext", CIDRenderContext, "CKObject", true},
	{"CKKinematicChain", CIDKinematicChain, "CKObject", true},
	{"CKSynchro", CIDSynchro, "CKObject", true},
	{"CKCriticalSection", CIDCriticalSection, "CKObject", true},
	{"CKLayer", CIDLayer, "CKObject", true},
	{"CKInterfaceObjectManager", CIDInterfaceObjectManager, "CKObject", true},
	{"CKParameter", CIDParameter, "CKObject", false},
	{"CKParameterOut", CIDParameterOut, "CKParameter", true},
	{"CKParameterLocal", CIDParameterLocal, "CKParameter", true},
	{"CKParameterVariable", CIDParameterVariable, "CKParameter", true},
	{"CKSceneObject", CIDSceneObject, "CKObject", false},
	{"CKBehavior", CIDBehavior, "CKSceneObject", true},
	{"CKObjectAnimation", CIDObjectAnimation, "CKSceneObject", true},
	{"CKAnimation", CIDAnimation, "CKSceneObject", true},
	{"CKKeyedAnimation", CIDKeyedAnimation, "CKAnimation", true},
	{"CKBeObject", CIDBeObject, "CKSceneObject", false},
	{"CKScene", CIDScene, "CKBeObject", true},
	{"CKLevel", CIDLevel, "CKBeObject", true},
	{"CKGroup", CIDGroup, "CKBeObject", true},
	{"CKSound", CIDSound, "CKBeObject", true},
	{"CKWaveSound", CIDWaveSound, "CKSound", true},
	{"CKMidiSound", CIDMidiSound, "CKSound", true},
	{"CKMaterial", CIDMaterial, "CKBeObject", true},
	{"CKTexture", CIDTexture, "CKBeObject", true},
	{"CKMesh", CIDMesh, "CKBeObject", true},
	{"CKPatchMesh", CIDPatchMesh, "CKMesh", true},
	{"CKProgressiveMesh", CIDProgressiveMesh, "CKMesh", true},
	{"CKDataArray", CIDDataArray, "CKBeObject", false},
	{"CKRenderObject", CIDRenderObject, "CKBeObject", true},
	{"CK2dEntity", CID2dEntity, "CKRenderObject", false},
	{"CKSprite", CIDSprite, "CK2dEntity", false},
	{"CKSpriteText", CIDSpriteText, "CKSprite", false},
	{"CK3dEntity", CID3dEntity, "CKRenderObject", false},
	{"CKCamera", CIDCamera, "CK3dEntity", true},
	{"CKTargetCamera", CIDTargetCamera, "CKCamera", true},
	{"CKLight", CIDLight, "CK3dEntity", false},
	{"CKTargetLight", CIDTargetLight, "CKLight", true},
	{"CKCharacter", CIDCharacter, "CK3dEntity", true},
	{"CK3dObject", CID3dObject, "CK3dEntity", true},
	{"CKBodyPart", CIDBodyPart, "CK3dObject", true},
	{"CKCurve", CIDCurve, "CK3dEntity", true},
	{"CKCurvePoint", CIDCurvePoint, "CK3dEntity", true},
	{"CKSprite3D", CIDSprite3D, "CK3dEntity", true},
	{"CKGrid", CIDGrid, "CK3dEntity", true},
	{"CKPlace", CIDPlace, "CK3dEntity", true},
}

// Classes returns a copy of the Class Hierarchy Table in declaration order.
func Classes() []ClassInfo {
	return append([]ClassInfo(nil), classTable...)
}

// hierarchy indexes classTable. parent[i] is the index of the parent of
// classTable[i], or -1 at a root.
type hierarchy struct {
	byID   map[ClassID]int
	byName map[string]int
	parent []int
}

var classIndex = mustBuildHierarchy(classTable)

func buildHierarchy(classes []ClassInfo) (*hierarchy, error) {
	h := &hierarchy{
		byID:   make(map[ClassID]int, len(classes)),
		byName: make(map[string]int, len(classes)),
		parent: make([]int, len(classes)),
	}
	for i, c := range classes {
		if _, dup := h.byID[c.ID]; dup {
			return nil, errors.Newf("duplicate class id %d (%s)", c.ID, c.Name)
		}
		if _, dup := h.byName[c.Name]; dup {
			return nil, errors.Newf("duplicate class name %s", c.Name)
		}
		h.byID[c.ID] = i
		h.byName[c.Name] = i
	}
	for i, c := range classes {
		h.parent[i] = -1
		if c.Parent == "" {
			continue
		}
		p, ok := h.byName[c.Parent]
		if !ok {
			return nil, errors.Newf("class %s: unknown parent %s", c.Name, c.Parent)
		}
		h.parent[i] = p
	}
	// A chain longer than the table revisits a class.
	for i := range classes {
		n := 0
		for j := i; j >= 0; j = h.parent[j] {
			if n++; n > len(classes) {
				return nil, errors.Newf("class %s: cycle in parent chain", classes[i].Name)
			}
		}
	}
	return h, nil
}

func mustBuildHierarchy(classes []ClassInfo) *hierarchy {
	h, err := buildHierarchy(classes)
	if err != nil {
		panic(err)
	}
	return h
}

// Lookup returns the table row for id.
func Lookup(id ClassID) (ClassInfo, bool) {
	i, ok := classIndex.byID[id]
	if !ok {
		return ClassInfo{}, false
	}
	return classTable[i], true
}

// LookupName returns the table row for the class called name.
func LookupName(name string) (ClassInfo, bool) {
	i, ok := classIndex.byName[name]
	if !ok {
		return ClassInfo{}, false
	}
	return classTable[i], true
}

// Parent returns the parent class of id. It returns false for a root or an
// unknown class.
func Parent(id ClassID) (ClassID, bool) {
	i, ok := classIndex.byID[id]
	if !ok || classIndex.parent[i] < 0 {
		return 0, false
	}
	return classTable[classIndex.parent[i]].ID, true
}

// Ancestors calls fn for id and then each of its ancestors up to the root,
// stopping early if fn returns false. Unknown ids visit nothing.
func Ancestors(id ClassID, fn func(ClassInfo) bool) {
	i, ok := classIndex.byID[id]
	if !ok {
		return
	}
	for ; i >= 0; i = classIndex.parent[i] {
		if !fn(classTable[i]) {
			return
		}
	}
}

// IsDerivedFrom returns true if id is ancestor or derives from it.
func IsDerivedFrom(id, ancestor ClassID) bool {
	found := false
	Ancestors(id, func(c ClassInfo) bool {
		found = c.ID == ancestor
		return !found
	})
	return found
}

// UsesBeObjectDeserializer returns true if objects of class id carry the
// behavioral-object payload, that is if the class derives from CKBeObject.
func UsesBeObjectDeserializer(id ClassID) bool {
	return IsDerivedFrom(id, CIDBeObject)
}
