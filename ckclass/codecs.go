// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package ckclass

// Vector is a point or direction.
type Vector struct {
	X, Y, Z float32
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Left, Top, Right, Bottom float32
}

// Color is an RGBA color with float components.
type Color struct {
	R, G, B, A float32
}

// Matrix is a 4x4 row-major transform.
type Matrix [4][4]float32

// Identity is the identity transform.
var Identity = Matrix{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}

// Vector reads three floats.
func (r *Reader) Vector(field string) Vector {
	return Vector{X: r.Float(field), Y: r.Float(field), Z: r.Float(field)}
}

// Rect reads four floats.
func (r *Reader) Rect(field string) Rect {
	return Rect{Left: r.Float(field), Top: r.Float(field), Right: r.Float(field), Bottom: r.Float(field)}
}

// Color reads four floats.
func (r *Reader) Color(field string) Color {
	return Color{R: r.Float(field), G: r.Float(field), B: r.Float(field), A: r.Float(field)}
}

// Matrix reads sixteen floats.
func (r *Reader) Matrix(field string) Matrix {
	var m Matrix
	for i := range m {
		for j := range m[i] {
			m[i][j] = r.Float(field)
		}
	}
	return m
}

// Vector writes three floats.
func (w *Writer) Vector(field string, v Vector) {
	w.Float(field, v.X)
	w.Float(field, v.Y)
	w.Float(field, v.Z)
}

// Rect writes four floats.
func (w *Writer) Rect(field string, v Rect) {
	w.Float(field, v.Left)
	w.Float(field, v.Top)
	w.Float(field, v.Right)
	w.Float(field, v.Bottom)
}

// Color writes four floats.
func (w *Writer) Color(field string, v Color) {
	w.Float(field, v.R)
	w.Float(field, v.G)
	w.Float(field, v.B)
	w.Float(field, v.A)
}

// Matrix writes sixteen floats.
func (w *Writer) Matrix(field string, m Matrix) {
	for i := range m {
		for j := range m[i] {
			w.Float(field, m[i][j])
		}
	}
}
