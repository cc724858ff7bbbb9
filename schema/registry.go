// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package schema

import (
	"slices"
	"strings"

	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/guid"
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/swiss"
)

// Registry indexes descriptors by name, class id and parameter GUID. The
// zero value is not usable; use NewRegistry.
type Registry struct {
	// byName holds the variants of each name, in registration order. The
	// variants' version windows are disjoint.
	byName  swiss.Map[string, []*Descriptor]
	byClass swiss.Map[ck.ClassID, *Descriptor]
	byGUID  swiss.Map[guid.GUID, *Descriptor]
	count   int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.byName.Init(64)
	r.byClass.Init(16)
	r.byGUID.Init(16)
	return r
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int { return r.count }

// Add registers d. It fails with ErrInvalidArgument if d is malformed or a
// variant of the same name overlaps its version window, and with ErrNotFound
// if a type d refers to is not registered. If d carries parameter metadata
// its GUID is mapped to it.
func (r *Registry) Add(d *Descriptor) error {
	if d == nil {
		return base.InvalidArgumentErrorf("schema: nil descriptor")
	}
	if err := checkShape(d); err != nil {
		return err
	}
	variants, _ := r.byName.Get(d.Name)
	for _, v := range variants {
		if v == d {
			return base.InvalidArgumentErrorf("schema: %s already registered", d)
		}
		if windowsOverlap(v.SinceVersion, v.RemovedVersion, d.SinceVersion, d.RemovedVersion) {
			return base.InvalidArgumentErrorf("schema: duplicate type %s overlaps %s", d, v)
		}
	}
	if err := r.checkRefs(d); err != nil {
		return err
	}
	if d.Param != nil {
		if old, ok := r.byGUID.Get(d.Param.GUID); ok && old != d {
			return base.InvalidArgumentErrorf("schema: %s: parameter GUID %s already mapped to %s",
				d, d.Param.GUID, old)
		}
	}
	r.byName.Put(d.Name, append(variants, d))
	r.count++
	if d.Param != nil {
		r.byGUID.Put(d.Param.GUID, d)
	}
	return nil
}

// isRegistered returns true if d is one of the variants registered under its
// name.
func (r *Registry) isRegistered(d *Descriptor) bool {
	variants, _ := r.byName.Get(d.Name)
	return slices.Contains(variants, d)
}

// checkRefs verifies that every type d refers to is registered.
func (r *Registry) checkRefs(d *Descriptor) error {
	for i := range d.Fields {
		f := &d.Fields[i]
		if !r.isRegistered(f.Type) {
			return errors.Wrapf(
				base.NotFoundErrorf("schema: required type %s not found", errors.Safe(f.Type.Name)),
				"%s.%s", errors.Safe(d.Name), errors.Safe(f.Name))
		}
	}
	if d.Elem != nil && !r.isRegistered(d.Elem) {
		return errors.Wrapf(
			base.NotFoundErrorf("schema: required type %s not found", errors.Safe(d.Elem.Name)),
			"%s", errors.Safe(d.Name))
	}
	if d.Param != nil && d.Param.Base != nil && !r.isRegistered(d.Param.Base) {
		return errors.Wrapf(
			base.NotFoundErrorf("schema: required type %s not found", errors.Safe(d.Param.Base.Name)),
			"%s", errors.Safe(d.Name))
	}
	return nil
}

// FindByName returns the current variant of name: the one without a removal
// version, or else the last registered.
func (r *Registry) FindByName(name string) (*Descriptor, bool) {
	variants, ok := r.byName.Get(name)
	if !ok || len(variants) == 0 {
		return nil, false
	}
	for _, v := range variants {
		if v.RemovedVersion == 0 {
			return v, true
		}
	}
	return variants[len(variants)-1], true
}

// FindForVersion returns the variant of name whose version window contains
// v.
func (r *Registry) FindForVersion(name string, v ck.FileVersion) (*Descriptor, bool) {
	variants, _ := r.byName.Get(name)
	for _, d := range variants {
		if d.AppliesTo(v) {
			return d, true
		}
	}
	return nil, false
}

// Require is like FindByName but returns an error marked ErrNotFound on a
// miss. It is used where a type is a hard dependency.
func (r *Registry) Require(name string) (*Descriptor, error) {
	d, ok := r.FindByName(name)
	if !ok {
		return nil, base.NotFoundErrorf("schema: required type %s not found", errors.Safe(name))
	}
	return d, nil
}

// MapClassID associates a class id with a registered descriptor. Mapping an
// id again to the same descriptor is a no-op; to another one, an error.
func (r *Registry) MapClassID(id ck.ClassID, d *Descriptor) error {
	if d == nil || !r.isRegistered(d) {
		return base.NotFoundErrorf("schema: mapping class %s to an unregistered type", id)
	}
	if old, ok := r.byClass.Get(id); ok {
		if old == d {
			return nil
		}
		return base.InvalidArgumentErrorf("schema: class %s already mapped to %s", id, old)
	}
	r.byClass.Put(id, d)
	return nil
}

// MapGUID associates a parameter GUID with a registered descriptor, with the
// same idempotence rule as MapClassID.
func (r *Registry) MapGUID(g guid.GUID, d *Descriptor) error {
	if d == nil || !r.isRegistered(d) {
		return base.NotFoundErrorf("schema: mapping GUID %s to an unregistered type", g)
	}
	if old, ok := r.byGUID.Get(g); ok {
		if old == d {
			return nil
		}
		return base.InvalidArgumentErrorf("schema: GUID %s already mapped to %s", g, old)
	}
	r.byGUID.Put(g, d)
	return nil
}

// FindByClassID returns the descriptor mapped to exactly id.
func (r *Registry) FindByClassID(id ck.ClassID) (*Descriptor, bool) {
	return r.byClass.Get(id)
}

// FindByClassIDInherited returns the descriptor mapped to id or, failing
// that, to its nearest ancestor in the class hierarchy.
func (r *Registry) FindByClassIDInherited(id ck.ClassID) (*Descriptor, bool) {
	var found *Descriptor
	ck.Ancestors(id, func(c ck.ClassInfo) bool {
		found, _ = r.byClass.Get(c.ID)
		return found == nil
	})
	if found == nil {
		// Ids outside the hierarchy table still resolve exactly.
		return r.byClass.Get(id)
	}
	return found, true
}

// FindByGUID returns the descriptor mapped to a parameter GUID.
func (r *Registry) FindByGUID(g guid.GUID) (*Descriptor, bool) {
	return r.byGUID.Get(g)
}

// UsesBeObjectDeserializer returns true if objects of class id carry the
// behavioral-object payload.
func (r *Registry) UsesBeObjectDeserializer(id ck.ClassID) bool {
	return ck.UsesBeObjectDeserializer(id)
}

// IsDerivedFrom returns true if class id is ancestor or derives from it.
func (r *Registry) IsDerivedFrom(id, ancestor ck.ClassID) bool {
	return ck.IsDerivedFrom(id, ancestor)
}

// All returns every registered descriptor sorted by name and then by
// version window.
func (r *Registry) All() []*Descriptor {
	all := make([]*Descriptor, 0, r.count)
	r.byName.All(func(_ string, variants []*Descriptor) bool {
		all = append(all, variants...)
		return true
	})
	slices.SortFunc(all, func(a, b *Descriptor) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return int(a.SinceVersion) - int(b.SinceVersion)
	})
	return all
}

// Verify checks the whole registry for consistency: every referenced type is
// registered and valid, struct fields fit their struct, and no struct or
// array contains itself. It is meant to run once after bulk registration.
func (r *Registry) Verify() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*Descriptor]int, r.count)
	var visit func(d *Descriptor) error
	visit = func(d *Descriptor) error {
		switch state[d] {
		case visiting:
			return base.ValidationErrorf("schema: type %s contains itself", errors.Safe(d.Name))
		case done:
			return nil
		}
		state[d] = visiting
		if err := checkShape(d); err != nil {
			return err
		}
		if err := r.checkRefs(d); err != nil {
			return err
		}
		for i := range d.Fields {
			if err := visit(d.Fields[i].Type); err != nil {
				return errors.Wrapf(err, "%s.%s", errors.Safe(d.Name), errors.Safe(d.Fields[i].Name))
			}
		}
		if d.Elem != nil {
			if err := visit(d.Elem); err != nil {
				return errors.Wrapf(err, "%s", errors.Safe(d.Name))
			}
			if d.Kind == KindFixedArray && d.Size != d.Elem.Size*d.Len {
				return base.ValidationErrorf("schema: fixed array %s has size %d, want %d",
					errors.Safe(d.Name), errors.Safe(d.Size), errors.Safe(d.Elem.Size*d.Len))
			}
		}
		state[d] = done
		return nil
	}
	for _, d := range r.All() {
		if err := visit(d); err != nil {
			return err
		}
	}
	var err error
	r.byClass.All(func(id ck.ClassID, d *Descriptor) bool {
		if !r.isRegistered(d) {
			err = base.ValidationErrorf("schema: class %s mapped to unregistered type %s", id, errors.Safe(d.Name))
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	r.byGUID.All(func(g guid.GUID, d *Descriptor) bool {
		if !r.isRegistered(d) {
			err = base.ValidationErrorf("schema: GUID %s mapped to unregistered type %s", g, errors.Safe(d.Name))
		}
		return err == nil
	})
	return err
}
