// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package ckclass

import (
	"github.com/ckarchive/ckarchive/chunk"
	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/guid"
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/ckarchive/ckarchive/schema"
	"github.com/cockroachdb/errors"
)

// Section identifiers of CKParameter.
const (
	parameterSection      ck.Identifier = 0x00000040
	parameterLegacyType   ck.Identifier = 0x00000080
	parameterLegacyBuffer ck.Identifier = 0x00000100
	parameterHasValue     uint32        = 0x1
)

// Parameter is the state of CKParameter: a typed value. Type names a
// parameter type registered in a schema.Registry. Value holds the encoding of
// that type at the current file version.
type Parameter struct {
	Object  Object
	Type    guid.GUID
	Value   []byte
	RawTail []byte
}

var _ State = (*Parameter)(nil)

// ClassID implements State.
func (s *Parameter) ClassID() ck.ClassID { return ck.CIDParameter }

// Read implements State.
func (s *Parameter) Read(r *Reader) error {
	if err := s.Object.Read(r); err != nil {
		return err
	}
	if !r.Modern() {
		if r.Optional(parameterLegacyType) {
			s.Type = r.GUID("parameter type")
		}
		if r.Optional(parameterLegacyBuffer) {
			s.Value = r.Buffer("value")
		}
		return r.Err()
	}
	if !r.Section("CKParameter", parameterSection) {
		return r.Err()
	}
	blocks := r.BlockFlags(parameterHasValue)
	s.Type = r.GUID("parameter type")
	if blocks&parameterHasValue != 0 {
		s.Value = r.Buffer("value")
	}
	s.RawTail = r.RawTail()
	return r.Err()
}

// Write implements State.
func (s *Parameter) Write(w *Writer) error {
	if err := s.Object.Write(w); err != nil {
		return err
	}
	w.Section(parameterSection)
	w.Dword("block flags", flagIf(len(s.Value) > 0, parameterHasValue))
	w.GUID("parameter type", s.Type)
	if len(s.Value) > 0 {
		w.Buffer("value", s.Value)
	}
	w.RawTail(s.RawTail)
	return w.Err()
}

// FinishLoading implements State.
func (s *Parameter) FinishLoading(repo Repository, log base.Logger) error {
	return s.Object.FinishLoading(repo, log)
}

// descriptor returns the registered type of the parameter.
func (s *Parameter) descriptor(reg *schema.Registry) (*schema.Descriptor, error) {
	d, ok := reg.FindByGUID(s.Type)
	if !ok {
		return nil, base.NotFoundErrorf("ckclass: parameter type %s is not registered", s.Type)
	}
	return d, nil
}

// DecodeValue decodes Value according to the parameter type registered in
// reg.
func (s *Parameter) DecodeValue(reg *schema.Registry) (schema.Value, error) {
	d, err := s.descriptor(reg)
	if err != nil {
		return schema.Value{}, err
	}
	data := s.Value
	if n := len(data) % 4; n != 0 {
		data = append(data[:len(data):len(data)], make([]byte, 4-n)...)
	}
	c, err := chunk.NewFromData(data, ck.CIDParameter, ck.CurrentFileVersion, false, nil)
	if err != nil {
		return schema.Value{}, err
	}
	v, err := schema.Decode(c, d)
	if err != nil {
		return schema.Value{}, errors.Wrapf(err, "parameter %s", s.Type)
	}
	return v, nil
}

// SetValue encodes v as the new Value. v must be of the parameter's
// registered type or of the type that type is based on.
func (s *Parameter) SetValue(reg *schema.Registry, v schema.Value) error {
	d, err := s.descriptor(reg)
	if err != nil {
		return err
	}
	if v.Type != nil && v.Type != d && (d.Param == nil || v.Type != d.Param.Base) {
		return base.InvalidArgumentErrorf("ckclass: parameter %s holds %s, not %s",
			s.Type, errors.Safe(d.Name), errors.Safe(v.Type.Name))
	}
	c := chunk.New(ck.CIDParameter, ck.CurrentFileVersion, nil)
	if err := schema.Encode(c, d, v); err != nil {
		return errors.Wrapf(err, "parameter %s", s.Type)
	}
	s.Value = c.Data()
	return nil
}
