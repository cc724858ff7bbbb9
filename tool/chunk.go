// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"github.com/ckarchive/ckarchive"
	"github.com/ckarchive/ckarchive/chunk"
	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/ckclass"
	"github.com/ckarchive/ckarchive/schema"
	"github.com/cockroachdb/errors"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// chunkT implements chunk-level tools, including both configuration state
// and the commands themselves.
type chunkT struct {
	Root   *cobra.Command
	Dump   *cobra.Command
	Verify *cobra.Command
	Diff   *cobra.Command

	// Configuration and state.
	opts *ckarchive.Options

	// Flags.
	decode      bool
	verbose     bool
	concurrency int
	context     int
	compression compressionFlag
}

func newChunk(opts *ckarchive.Options) *chunkT {
	c := &chunkT{opts: opts}

	c.Root = &cobra.Command{
		Use:   "chunk",
		Short: "chunk introspection tools",
	}
	c.Dump = &cobra.Command{
		Use:   "dump <chunks>",
		Short: "print the layout of chunks",
		Long: `
Print the data of each chunk one dword per line, annotated with identifier
records, object ids and sub-chunks. The --decode flag additionally decodes
the leading fields of each class section using the type registry.
`,
		Args: cobra.MinimumNArgs(1),
		Run:  c.runDump,
	}
	c.Verify = &cobra.Command{
		Use:   "verify <chunks>",
		Short: "verify that objects survive a read/write round trip",
		Long: `
Read each chunk as an object payload, write it back and read the result again.
A chunk is stable if the second write reproduces the first, and identical if
the first write also reproduces the input data. Chunks are verified
concurrently and reported in command line order.
`,
		Args: cobra.MinimumNArgs(1),
		Run:  c.runVerify,
	}
	c.Diff = &cobra.Command{
		Use:   "diff <chunk-a> <chunk-b>",
		Short: "print a unified diff of the layouts of two chunks",
		Args:  cobra.ExactArgs(2),
		Run:   c.runDiff,
	}

	c.Root.AddCommand(c.Dump, c.Verify, c.Diff)

	c.Dump.Flags().BoolVar(
		&c.decode, "decode", false, "decode class sections")
	c.Verify.Flags().BoolVarP(
		&c.verbose, "verbose", "v", false, "log lenient reads and normalizations")
	c.Verify.Flags().IntVarP(
		&c.concurrency, "concurrency", "c", runtime.GOMAXPROCS(0), "number of concurrent workers")
	c.Verify.Flags().Var(
		&c.compression, "compression", "packing applied to rewritten chunks")
	c.Diff.Flags().IntVar(
		&c.context, "context", 3, "lines of context")
	return c
}

func (c *chunkT) chunkOptions() *chunk.Options {
	return &chunk.Options{Limits: &c.opts.Limits}
}

func (c *chunkT) runDump(cmd *cobra.Command, args []string) {
	for _, arg := range args {
		ch, buf, err := readChunk(arg, c.chunkOptions())
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
			continue
		}
		fmt.Fprintf(stdout, "%s: %s encoded, %s data, checksum %016x\n",
			arg, humanizeBytes(len(buf)), humanizeBytes(ch.DataSize()), ch.Checksum())
		fmt.Fprint(stdout, ch.Describe())
		if c.decode {
			c.decodeSections(ch)
		}
	}
}

// decodeSections prints, root class first, the leading fields of every class
// section of ch that has a registered type.
func (c *chunkT) decodeSections(ch *chunk.Chunk) {
	if !ch.FileVersion().IsModern() {
		fmt.Fprintf(stdout, "no sections in %s\n", ch.FileVersion())
		return
	}
	var chain []ck.ClassInfo
	ck.Ancestors(ch.ClassID(), func(info ck.ClassInfo) bool {
		chain = append(chain, info)
		return true
	})
	slices.Reverse(chain)
	for _, info := range chain {
		id, ok := ckclass.Section(info.ID)
		if !ok {
			continue
		}
		d, ok := c.opts.Registry.FindByClassID(info.ID)
		if !ok {
			continue
		}
		found, err := ch.SeekIdentifier(id)
		if err != nil {
			fmt.Fprintf(stdout, "%s: %s\n", info.Name, err)
			return
		}
		if !found {
			fmt.Fprintf(stdout, "%s: missing section %s\n", info.Name, id)
			continue
		}
		v, err := schema.Decode(ch, d)
		if err != nil {
			fmt.Fprintf(stdout, "%s: %s\n", info.Name, err)
			continue
		}
		fmt.Fprintf(stdout, "%s: %s\n", info.Name, v)
	}
}

// verifyResult is the outcome of verifying one chunk.
type verifyResult struct {
	class     string
	size      int
	stable    bool
	identical bool
	err       error
}

func (r verifyResult) String() string {
	switch {
	case r.err != nil:
		return fmt.Sprintf("FAIL: %s", r.err)
	case r.identical:
		return fmt.Sprintf("%s: identical (%s)", r.class, humanizeBytes(r.size))
	case r.stable:
		return fmt.Sprintf("%s: stable (%s)", r.class, humanizeBytes(r.size))
	default:
		return fmt.Sprintf("%s: UNSTABLE (%s)", r.class, humanizeBytes(r.size))
	}
}

func (c *chunkT) runVerify(cmd *cobra.Command, args []string) {
	results := make([]verifyResult, len(args))
	g, ctx := errgroup.WithContext(context.Background())
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}
	for i, arg := range args {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = c.verifyOne(ck.ObjectID(i+1), arg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		osExit(1)
		return
	}
	failed := false
	for i, arg := range args {
		fmt.Fprintf(stdout, "%s: %s\n", arg, results[i])
		failed = failed || results[i].err != nil || !results[i].stable
	}
	if failed {
		osExit(1)
	}
}

// verifyOne round-trips the object stored in path. Each call uses its own
// Codec; the registry is shared.
func (c *chunkT) verifyOne(id ck.ObjectID, path string) verifyResult {
	in, buf, err := readChunk(path, c.chunkOptions())
	if err != nil {
		return verifyResult{err: err}
	}
	res := verifyResult{class: in.ClassID().String(), size: len(buf)}

	opts := *c.opts
	opts.Compression = c.compression.alg
	if c.verbose {
		opts.Logger = stderrLogger{}
	}
	if in.FileVersion().IsModern() {
		opts.FileVersion = in.FileVersion()
	}
	codec, err := ckarchive.New(&opts)
	if err != nil {
		res.err = err
		return res
	}

	rewrite := func(buf []byte) (uint64, []byte, error) {
		obj, err := codec.ReadObject(id, buf)
		if err != nil {
			return 0, nil, err
		}
		out, err := codec.WriteObject(obj)
		if err != nil {
			return 0, nil, err
		}
		ch, err := chunk.Decode(out, c.chunkOptions())
		if err != nil {
			return 0, nil, errors.Wrap(err, "decoding rewritten chunk")
		}
		return ch.Checksum(), out, nil
	}
	first, out, err := rewrite(buf)
	if err != nil {
		res.err = err
		return res
	}
	second, _, err := rewrite(out)
	if err != nil {
		res.err = errors.Wrap(err, "second pass")
		return res
	}
	res.stable = first == second
	res.identical = res.stable && first == in.Checksum()
	return res
}

func (c *chunkT) runDiff(cmd *cobra.Command, args []string) {
	var descs [2]string
	for i, arg := range args {
		ch, _, err := readChunk(arg, c.chunkOptions())
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
			osExit(1)
			return
		}
		descs[i] = ch.Describe()
	}
	if descs[0] == descs[1] {
		fmt.Fprintf(stdout, "no differences\n")
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(descs[0]),
		B:        difflib.SplitLines(descs[1]),
		FromFile: args[0],
		ToFile:   args[1],
		Context:  c.context,
	})
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		osExit(1)
		return
	}
	fmt.Fprint(stdout, diff)
}
