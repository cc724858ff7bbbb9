// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package ckclass

import (
	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/internal/base"
)

// Section identifiers of CKSprite.
const (
	spriteSection           ck.Identifier = 0x00400000
	spriteLegacyBitmap      ck.Identifier = 0x00800000
	spriteLegacyTransparent ck.Identifier = 0x01000000
)

// Block flags of CKSprite.
const (
	spriteHasBitmap uint32 = 1 << iota
	spriteHasTransparent
	spriteBlockMask = spriteHasBitmap | spriteHasTransparent
)

// Sprite is the state of CKSprite: a 2D entity showing a bitmap. The bitmap
// bytes are opaque.
type Sprite struct {
	Entity           Entity2D
	HasBitmap        bool
	Width, Height    uint32
	Bitmap           []byte
	Transparent      bool
	TransparentColor uint32
	RawTail          []byte
}

var _ State = (*Sprite)(nil)

// ClassID implements State.
func (s *Sprite) ClassID() ck.ClassID { return ck.CIDSprite }

func (s *Sprite) readBitmap(r *Reader) {
	s.Width = r.Dword("bitmap width")
	s.Height = r.Dword("bitmap height")
	s.Bitmap = r.Buffer("bitmap")
}

// Read implements State.
func (s *Sprite) Read(r *Reader) error {
	if err := s.Entity.Read(r); err != nil {
		return err
	}
	if !r.Modern() {
		if s.HasBitmap = r.Optional(spriteLegacyBitmap); s.HasBitmap {
			s.readBitmap(r)
		}
		if r.Optional(spriteLegacyTransparent) {
			s.Transparent = r.Bool("transparent")
			s.TransparentColor = r.Dword("transparent color")
			if !s.Transparent {
				// Only a transparent sprite carries its color.
				s.TransparentColor = 0
			}
		}
		return r.Err()
	}
	if !r.Section("CKSprite", spriteSection) {
		return r.Err()
	}
	blocks := r.BlockFlags(spriteBlockMask)
	if s.HasBitmap = blocks&spriteHasBitmap != 0; s.HasBitmap {
		s.readBitmap(r)
	}
	if s.Transparent = blocks&spriteHasTransparent != 0; s.Transparent {
		s.TransparentColor = r.Dword("transparent color")
	}
	s.RawTail = r.RawTail()
	return r.Err()
}

// Write implements State.
func (s *Sprite) Write(w *Writer) error {
	if err := s.Entity.Write(w); err != nil {
		return err
	}
	w.Section(spriteSection)
	w.Dword("block flags", flagIf(s.HasBitmap, spriteHasBitmap)|flagIf(s.Transparent, spriteHasTransparent))
	if s.HasBitmap {
		w.Dword("bitmap width", s.Width)
		w.Dword("bitmap height", s.Height)
		w.Buffer("bitmap", s.Bitmap)
	}
	if s.Transparent {
		w.Dword("transparent color", s.TransparentColor)
	}
	w.RawTail(s.RawTail)
	return w.Err()
}

// FinishLoading implements State.
func (s *Sprite) FinishLoading(repo Repository, log base.Logger) error {
	return s.Entity.FinishLoading(repo, log)
}

// Section identifiers of CKSpriteText.
const (
	spriteTextSection      ck.Identifier = 0x02000000
	spriteTextLegacyText   ck.Identifier = 0x04000000
	spriteTextLegacyFont   ck.Identifier = 0x08000000
	spriteTextLegacyColors ck.Identifier = 0x10000000
	spriteTextLegacyAlign  ck.Identifier = 0x20000000
)

// Block flags of CKSpriteText.
const (
	spriteTextHasFont uint32 = 1 << iota
	spriteTextHasColors
	spriteTextHasAlign
	spriteTextBlockMask = spriteTextHasFont | spriteTextHasColors | spriteTextHasAlign
)

// Font size bounds applied by FinishLoading.
const (
	MinFontSize = 6
	MaxFontSize = 128
)

// Font describes the typeface of a text sprite.
type Font struct {
	Name   string
	Size   int32
	Weight int32
	// Italic is 0 or 1 once loading has finished.
	Italic int32
}

// SpriteText is the state of CKSpriteText: a sprite rendering a string.
type SpriteText struct {
	Sprite     Sprite
	Text       string
	HasFont    bool
	Font       Font
	HasColors  bool
	Foreground uint32
	Background uint32
	HasAlign   bool
	Align      uint32
	RawTail    []byte
}

var _ State = (*SpriteText)(nil)

// ClassID implements State.
func (s *SpriteText) ClassID() ck.ClassID { return ck.CIDSpriteText }

func (s *SpriteText) readFont(r *Reader) {
	s.Font = Font{
		Name:   r.String("font name"),
		Size:   r.Int("font size"),
		Weight: r.Int("font weight"),
		Italic: r.Int("font italic"),
	}
}

func (s *SpriteText) readColors(r *Reader) {
	s.Foreground = r.Dword("foreground color")
	s.Background = r.Dword("background color")
}

// Read implements State.
func (s *SpriteText) Read(r *Reader) error {
	if err := s.Sprite.Read(r); err != nil {
		return err
	}
	if !r.Modern() {
		if r.Optional(spriteTextLegacyText) {
			s.Text = r.String("text")
		}
		if s.HasFont = r.Optional(spriteTextLegacyFont); s.HasFont {
			s.readFont(r)
		}
		if s.HasColors = r.Optional(spriteTextLegacyColors); s.HasColors {
			s.readColors(r)
		}
		if s.HasAlign = r.Optional(spriteTextLegacyAlign); s.HasAlign {
			s.Align = r.Dword("align")
		}
		return r.Err()
	}
	if !r.Section("CKSpriteText", spriteTextSection) {
		return r.Err()
	}
	blocks := r.BlockFlags(spriteTextBlockMask)
	s.Text = r.String("text")
	if s.HasFont = blocks&spriteTextHasFont != 0; s.HasFont {
		s.readFont(r)
	}
	if s.HasColors = blocks&spriteTextHasColors != 0; s.HasColors {
		s.readColors(r)
	}
	if s.HasAlign = blocks&spriteTextHasAlign != 0; s.HasAlign {
		s.Align = r.Dword("align")
	}
	s.RawTail = r.RawTail()
	return r.Err()
}

// Write implements State.
func (s *SpriteText) Write(w *Writer) error {
	if err := s.Sprite.Write(w); err != nil {
		return err
	}
	w.Section(spriteTextSection)
	w.Dword("block flags", flagIf(s.HasFont, spriteTextHasFont)|
		flagIf(s.HasColors, spriteTextHasColors)|
		flagIf(s.HasAlign, spriteTextHasAlign))
	w.String("text", s.Text)
	if s.HasFont {
		w.String("font name", s.Font.Name)
		w.Int("font size", s.Font.Size)
		w.Int("font weight", s.Font.Weight)
		w.Int("font italic", s.Font.Italic)
	}
	if s.HasColors {
		w.Dword("foreground color", s.Foreground)
		w.Dword("background color", s.Background)
	}
	if s.HasAlign {
		w.Dword("align", s.Align)
	}
	w.RawTail(s.RawTail)
	return w.Err()
}

// FinishLoading implements State. The font size is clamped to
// [MinFontSize, MaxFontSize] and italic normalized to 0 or 1.
func (s *SpriteText) FinishLoading(repo Repository, log base.Logger) error {
	if err := s.Sprite.FinishLoading(repo, log); err != nil {
		return err
	}
	if !s.HasFont {
		return nil
	}
	if size := min(max(s.Font.Size, MinFontSize), MaxFontSize); size != s.Font.Size {
		log.Infof("ckclass: clamping font size %d to %d", s.Font.Size, size)
		s.Font.Size = size
	}
	if s.Font.Italic != 0 {
		s.Font.Italic = 1
	}
	return nil
}
