// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package ckarchive

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/ckclass"
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/ckarchive/ckarchive/internal/compression"
	"github.com/ckarchive/ckarchive/schema"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Logger exports the base.Logger type.
type Logger = base.Logger

// DefaultLogger exports the base.DefaultLogger type.
type DefaultLogger = base.DefaultLogger

// Limits exports the base.Limits type.
type Limits = base.Limits

// Compression exports the compression.Algorithm type.
type Compression = compression.Algorithm

// Compression algorithms applied to written chunks.
const (
	NoCompression     = compression.NoCompression
	ZlibCompression   = compression.Zlib
	SnappyCompression = compression.Snappy
	ZstdCompression   = compression.Zstd
)

// Options holds the optional parameters for a Codec. The zero value of each
// field selects its default.
type Options struct {
	// Logger receives notices about lenient reads and the values normalized
	// by FinishLoading.
	//
	// The default is DefaultLogger.
	Logger Logger

	// Limits bounds the counts and lengths read from untrusted data. Zero
	// fields take their defaults.
	Limits Limits

	// ArenaSize is the size in bytes of the arena backing the chunks of a
	// Codec. Zero allocates from the heap.
	ArenaSize int

	// FileVersion is the version chunks are written in. It must use the
	// modern encoding.
	//
	// The default is ck.CurrentFileVersion.
	FileVersion ck.FileVersion

	// Compression is the packing applied to written chunks.
	//
	// The default is NoCompression.
	Compression Compression

	// Registry resolves parameter types and class payload prefixes.
	//
	// The default holds the builtin types and the class types.
	Registry *schema.Registry

	// MetricsRegisterer, if set, receives the Codec's collectors.
	MetricsRegisterer prometheus.Registerer
}

// NewRegistry returns a registry holding the builtin types and the class
// payload types.
func NewRegistry() (*schema.Registry, error) {
	r := schema.NewRegistry()
	if err := r.AddBuiltin(); err != nil {
		return nil, err
	}
	if err := ckclass.RegisterClassTypes(r); err != nil {
		return nil, err
	}
	return r, nil
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified. Returns the new options.
func (o *Options) EnsureDefaults() (*Options, error) {
	if o == nil {
		o = &Options{}
	}
	if o.Logger == nil {
		o.Logger = DefaultLogger{}
	}
	o.Limits.EnsureDefaults()
	if o.FileVersion == 0 {
		o.FileVersion = ck.CurrentFileVersion
	}
	if o.Registry == nil {
		r, err := NewRegistry()
		if err != nil {
			return nil, err
		}
		o.Registry = r
	}
	return o, nil
}

// Validate checks the options for values that cannot be used.
func (o *Options) Validate() error {
	switch {
	case !o.FileVersion.Valid():
		return base.InvalidArgumentErrorf("ckarchive: invalid file version %s", o.FileVersion)
	case !o.FileVersion.IsModern():
		return base.InvalidArgumentErrorf("ckarchive: cannot write legacy file version %s", o.FileVersion)
	case o.ArenaSize < 0:
		return base.InvalidArgumentErrorf("ckarchive: negative arena size %d", errors.Safe(o.ArenaSize))
	}
	if _, err := compression.ParseAlgorithm(o.Compression.String()); err != nil {
		return err
	}
	return nil
}

// limitFields lists the Limits fields in the order String writes them.
func (o *Options) limitFields() []struct {
	key string
	v   *int
} {
	l := &o.Limits
	return []struct {
		key string
		v   *int
	}{
		{"max_attributes", &l.MaxAttributes},
		{"max_buffer_len", &l.MaxBufferLen},
		{"max_chunk_size", &l.MaxChunkSize},
		{"max_columns", &l.MaxColumns},
		{"max_depth", &l.MaxDepth},
		{"max_elements", &l.MaxElements},
		{"max_ids", &l.MaxIDs},
		{"max_meshes", &l.MaxMeshes},
		{"max_rows", &l.MaxRows},
		{"max_scenes", &l.MaxScenes},
		{"max_scripts", &l.MaxScripts},
		{"max_string_len", &l.MaxStringLen},
		{"max_sub_chunks", &l.MaxSubChunks},
	}
}

// String returns a textual representation of the options that Parse accepts.
// The logger, registry and metrics registerer are not included.
func (o *Options) String() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "[Version]\n")
	fmt.Fprintf(&buf, "  ckarchive_version=0.1\n")
	fmt.Fprintf(&buf, "\n")
	fmt.Fprintf(&buf, "[Options]\n")
	fmt.Fprintf(&buf, "  arena_size=%d\n", o.ArenaSize)
	fmt.Fprintf(&buf, "  compression=%s\n", o.Compression)
	fmt.Fprintf(&buf, "  file_version=%d\n", uint32(o.FileVersion))
	fmt.Fprintf(&buf, "\n")
	fmt.Fprintf(&buf, "[Limits]\n")
	for _, f := range o.limitFields() {
		fmt.Fprintf(&buf, "  %s=%d\n", f.key, *f.v)
	}
	return buf.String()
}

// parseOptions splits options serialized by Options.String into sections,
// keys and values, calling visit for each key-value pair.
func parseOptions(s string, visit func(section, key, value string) error) error {
	var section string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 0 || line[0] == ';' || line[0] == '#' {
			// Skip blank lines and comments.
			continue
		}
		n := len(line)
		if line[0] == '[' && line[n-1] == ']' {
			section = line[1 : n-1]
			continue
		}
		pos := strings.Index(line, "=")
		if pos < 0 {
			const maxLen = 50
			if len(line) > maxLen {
				line = line[:maxLen-3] + "..."
			}
			return base.CorruptionErrorf("invalid key=value syntax: %q", errors.Safe(line))
		}
		key := strings.TrimSpace(line[:pos])
		value := strings.TrimSpace(line[pos+1:])
		if err := visit(section, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Parse parses the options from the specified string, as written by String.
// Options missing from s keep their current values.
func (o *Options) Parse(s string) error {
	return parseOptions(s, func(section, key, value string) error {
		var err error
		switch section {
		case "Version":
			switch key {
			case "ckarchive_version":
			default:
				return errors.Errorf("ckarchive: unknown option: %s.%s",
					errors.Safe(section), errors.Safe(key))
			}

		case "Options":
			switch key {
			case "arena_size":
				o.ArenaSize, err = strconv.Atoi(value)
			case "compression":
				o.Compression, err = compression.ParseAlgorithm(value)
			case "file_version":
				var v uint64
				v, err = strconv.ParseUint(value, 10, 32)
				o.FileVersion = ck.FileVersion(v)
			default:
				return errors.Errorf("ckarchive: unknown option: %s.%s",
					errors.Safe(section), errors.Safe(key))
			}

		case "Limits":
			found := false
			for _, f := range o.limitFields() {
				if f.key == key {
					*f.v, err = strconv.Atoi(value)
					found = true
					break
				}
			}
			if !found {
				return errors.Errorf("ckarchive: unknown option: %s.%s",
					errors.Safe(section), errors.Safe(key))
			}

		default:
			return errors.Errorf("ckarchive: unknown section: %s", errors.Safe(section))
		}
		if err != nil {
			return errors.Wrapf(err, "ckarchive: parsing %s.%s", errors.Safe(section), errors.Safe(key))
		}
		return nil
	})
}
