// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"github.com/ckarchive/ckarchive"
	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/ckarchive/ckarchive/schema"
	"github.com/spf13/cobra"
)

// T is the container for all of the introspection tools.
type T struct {
	Commands []*cobra.Command
	chunk    *chunkT
	schema   *schemaT
	opts     ckarchive.Options
}

// New creates a new introspection tool. It fails only if the default type
// registry cannot be built.
func New() (*T, error) {
	t := &T{
		opts: ckarchive.Options{
			Logger:      base.NoopLogger{},
			FileVersion: ck.CurrentFileVersion,
		},
	}
	if _, err := t.opts.EnsureDefaults(); err != nil {
		return nil, err
	}
	t.chunk = newChunk(&t.opts)
	t.schema = newSchema(&t.opts)
	t.Commands = []*cobra.Command{
		t.chunk.Root,
		t.schema.Root,
	}
	return t, nil
}

// RegisterTypes runs fn against the tool's registry, allowing callers to add
// application types before the commands run.
func (t *T) RegisterTypes(fn func(r *schema.Registry) error) error {
	return fn(t.opts.Registry)
}
