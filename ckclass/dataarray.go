// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package ckclass

import (
	"math"

	"github.com/ckarchive/ckarchive/chunk"
	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/guid"
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/cockroachdb/errors"
)

// Section identifiers of CKDataArray.
const (
	dataArraySection       ck.Identifier = 0x00001000
	dataArrayLegacyColumns ck.Identifier = 0x00002000
	dataArrayLegacyRows    ck.Identifier = 0x00004000
	dataArrayLegacyKey     ck.Identifier = 0x00008000
	dataArrayHasKey        uint32        = 0x1
)

// ColumnType is a CK_DATAARRAY_COLUMN_TYPE value.
type ColumnType uint32

// Column types.
const (
	ColumnInt       ColumnType = 1
	ColumnFloat     ColumnType = 2
	ColumnString    ColumnType = 3
	ColumnObject    ColumnType = 4
	ColumnParameter ColumnType = 5
)

// Valid returns true for a known column type.
func (t ColumnType) Valid() bool {
	return t >= ColumnInt && t <= ColumnParameter
}

// Column describes one column of a data array.
type Column struct {
	Name string
	Type ColumnType
	// ParamType is the parameter type of a ColumnParameter column.
	ParamType guid.GUID
}

// Cell is one value of a data array. Int, float and object cells use Bits,
// string cells use Str and parameter cells use Param.
type Cell struct {
	Bits  uint32
	Str   string
	Param *Parameter
}

// IntCell returns an int cell.
func IntCell(x int32) Cell { return Cell{Bits: uint32(x)} }

// FloatCell returns a float cell.
func FloatCell(x float32) Cell { return Cell{Bits: math.Float32bits(x)} }

// ObjectCell returns an object cell.
func ObjectCell(id ck.ObjectID) Cell { return Cell{Bits: uint32(id)} }

// Int returns the value of an int cell.
func (c Cell) Int() int32 { return int32(c.Bits) }

// Float returns the value of a float cell.
func (c Cell) Float() float32 { return math.Float32frombits(c.Bits) }

// Object returns the value of an object cell.
func (c Cell) Object() ck.ObjectID { return ck.ObjectID(c.Bits) }

// DataArray is the state of CKDataArray: a table of typed columns.
type DataArray struct {
	BeObject BeObject
	Columns  []Column
	// Rows holds one cell per column.
	Rows [][]Cell
	// KeyColumn is the index of the column rows are looked up by.
	HasKey    bool
	KeyColumn int32
	RawTail   []byte
}

var _ State = (*DataArray)(nil)

// ClassID implements State.
func (s *DataArray) ClassID() ck.ClassID { return ck.CIDDataArray }

func (s *DataArray) readColumns(r *Reader) {
	// A column takes at least a name and a type.
	n := r.Count("column count", r.Chunk().Limits().MaxColumns, 8)
	if n == 0 {
		return
	}
	s.Columns = make([]Column, n)
	for i := range s.Columns {
		col := &s.Columns[i]
		col.Name = r.String("column name")
		col.Type = ColumnType(r.Dword("column type"))
		if r.err != nil {
			return
		}
		if !col.Type.Valid() {
			r.fail("column type", base.ValidationErrorf("ckclass: column %q has unknown type %d",
				col.Name, errors.Safe(uint32(col.Type))))
			return
		}
		if col.Type == ColumnParameter {
			col.ParamType = r.GUID("column parameter type")
		}
	}
}

func (s *DataArray) readRows(r *Reader) {
	n := r.Count("row count", r.Chunk().Limits().MaxRows, 4*len(s.Columns))
	if n == 0 {
		return
	}
	s.Rows = make([][]Cell, n)
	for i := range s.Rows {
		row := make([]Cell, len(s.Columns))
		for j := range row {
			row[j] = s.readCell(r, s.Columns[j].Type)
		}
		if r.err != nil {
			return
		}
		s.Rows[i] = row
	}
}

func (s *DataArray) readCell(r *Reader, t ColumnType) Cell {
	switch t {
	case ColumnString:
		return Cell{Str: r.String("string cell")}
	case ColumnObject:
		return ObjectCell(r.ObjectID("object cell"))
	case ColumnParameter:
		sub := r.SubChunk("parameter cell")
		if sub == nil {
			return Cell{}
		}
		if sub.ClassID() != ck.CIDParameter {
			r.fail("parameter cell", base.CorruptionErrorf("ckclass: parameter cell holds %s", sub.ClassID()))
			return Cell{}
		}
		p := &Parameter{}
		r.fail("parameter cell", p.Read(NewReader(sub, r.Logger())))
		return Cell{Param: p}
	default:
		return Cell{Bits: r.Dword("cell")}
	}
}

// Read implements State.
func (s *DataArray) Read(r *Reader) error {
	if err := s.BeObject.Read(r); err != nil {
		return err
	}
	if !r.Modern() {
		if r.Optional(dataArrayLegacyColumns) {
			s.readColumns(r)
		}
		if r.Optional(dataArrayLegacyRows) {
			s.readRows(r)
		}
		// Old writers sometimes left the key section empty.
		if size, ok := r.OptionalSize(dataArrayLegacyKey); ok && size >= 4 {
			if k, err := r.Chunk().ReadInt(); err != nil {
				r.Logger().Infof("ckclass: ignoring unreadable key column: %v", err)
			} else {
				s.HasKey, s.KeyColumn = true, k
			}
		}
		return r.Err()
	}
	if !r.Section("CKDataArray", dataArraySection) {
		return r.Err()
	}
	blocks := r.BlockFlags(dataArrayHasKey)
	s.readColumns(r)
	s.readRows(r)
	if s.HasKey = blocks&dataArrayHasKey != 0; s.HasKey {
		s.KeyColumn = r.Int("key column")
	}
	s.RawTail = r.RawTail()
	return r.Err()
}

// Write implements State.
func (s *DataArray) Write(w *Writer) error {
	if err := s.BeObject.Write(w); err != nil {
		return err
	}
	w.Section(dataArraySection)
	w.Dword("block flags", flagIf(s.HasKey, dataArrayHasKey))
	w.Dword("column count", uint32(len(s.Columns)))
	for _, col := range s.Columns {
		if !col.Type.Valid() {
			return base.ValidationErrorf("ckclass: column %q has unknown type %d",
				col.Name, errors.Safe(uint32(col.Type)))
		}
		w.String("column name", col.Name)
		w.Dword("column type", uint32(col.Type))
		if col.Type == ColumnParameter {
			w.GUID("column parameter type", col.ParamType)
		}
	}
	w.Dword("row count", uint32(len(s.Rows)))
	for i, row := range s.Rows {
		if len(row) != len(s.Columns) {
			return base.InvalidArgumentErrorf("ckclass: row %d has %d cells, want %d",
				errors.Safe(i), errors.Safe(len(row)), errors.Safe(len(s.Columns)))
		}
		for j, cell := range row {
			s.writeCell(w, s.Columns[j].Type, cell)
		}
	}
	if s.HasKey {
		w.Int("key column", s.KeyColumn)
	}
	w.RawTail(s.RawTail)
	return w.Err()
}

func (s *DataArray) writeCell(w *Writer, t ColumnType, cell Cell) {
	switch t {
	case ColumnString:
		w.String("string cell", cell.Str)
	case ColumnObject:
		w.ObjectID("object cell", cell.Object())
	case ColumnParameter:
		if cell.Param == nil {
			w.SubChunk("parameter cell", nil)
			return
		}
		parent := w.Chunk()
		sub := chunk.New(ck.CIDParameter, parent.FileVersion(), &chunk.Options{
			Arena:  parent.Arena(),
			Limits: parent.Limits(),
		})
		if w.err == nil {
			w.fail("parameter cell", cell.Param.Write(NewWriter(sub)))
		}
		w.SubChunk("parameter cell", sub)
	default:
		w.Dword("cell", cell.Bits)
	}
}

// FinishLoading implements State. Parameter cells are finished in turn and a
// key column outside the table is dropped.
func (s *DataArray) FinishLoading(repo Repository, log base.Logger) error {
	if err := s.BeObject.FinishLoading(repo, log); err != nil {
		return err
	}
	for _, row := range s.Rows {
		for _, cell := range row {
			if cell.Param == nil {
				continue
			}
			if err := cell.Param.FinishLoading(repo, log); err != nil {
				return err
			}
		}
	}
	if s.HasKey && (s.KeyColumn < 0 || int(s.KeyColumn) >= len(s.Columns)) {
		log.Infof("ckclass: dropping key column %d of %d columns", s.KeyColumn, len(s.Columns))
		s.HasKey, s.KeyColumn = false, 0
	}
	return nil
}
