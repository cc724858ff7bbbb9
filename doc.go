// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package ckarchive reads and writes the per-object payloads of a legacy 3D
// engine scene archive, file versions 2 through 9.
//
// The archive stores every object's state in a chunk: a dword-aligned
// container whose sections are tagged by identifiers and which may embed
// further chunks. Package chunk implements the container, package schema the
// type descriptors used to decode values generically and package ckclass the
// per-class serializers. This package ties them together behind a Codec
// configured by Options.
//
// A Codec owns an arena that backs every chunk it reads or writes. States
// returned by ReadObject may alias the arena and must not be used after
// Reset.
//
//	codec, err := ckarchive.New(&ckarchive.Options{ArenaSize: 1 << 20})
//	if err != nil {
//		return err
//	}
//	obj, err := codec.ReadObject(42, buf)
//	if err != nil {
//		return err
//	}
//	if err := codec.FinishLoading([]ckarchive.Object{obj}); err != nil {
//		return err
//	}
package ckarchive
