// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"io"
	"os"

	"github.com/ckarchive/ckarchive"
	"github.com/ckarchive/ckarchive/chunk"
	"github.com/ckarchive/ckarchive/internal/compression"
	"github.com/cockroachdb/crlib/crhumanize"
	"github.com/cockroachdb/errors"
)

var stdout = io.Writer(os.Stdout)
var stderr = io.Writer(os.Stderr)
var osExit = os.Exit

// compressionFlag is a pflag.Value selecting a packing algorithm by name.
type compressionFlag struct {
	alg compression.Algorithm
}

func (f *compressionFlag) String() string {
	return f.alg.String()
}

func (f *compressionFlag) Type() string {
	return "compression"
}

func (f *compressionFlag) Set(v string) error {
	alg, err := compression.ParseAlgorithm(v)
	if err != nil {
		return err
	}
	f.alg = alg
	return nil
}

// stderrLogger writes log messages to stderr, prefixed by their level.
type stderrLogger struct{}

var _ ckarchive.Logger = stderrLogger{}

func (stderrLogger) Infof(format string, args ...interface{}) {
	fmt.Fprintf(stderr, "I: "+format+"\n", args...)
}

func (stderrLogger) Errorf(format string, args ...interface{}) {
	fmt.Fprintf(stderr, "E: "+format+"\n", args...)
}

func (stderrLogger) Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(stderr, "F: "+format+"\n", args...)
	osExit(1)
}

func humanizeBytes(n int) string {
	return string(crhumanize.Bytes(int64(n), crhumanize.Compact, crhumanize.OmitI))
}

// readChunk loads and decodes the enveloped chunk stored in path.
func readChunk(path string, opts *chunk.Options) (*chunk.Chunk, []byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	c, err := chunk.Decode(buf, opts)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s", path)
	}
	return c, buf, nil
}
