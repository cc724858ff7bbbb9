// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ckarchive/ckarchive"
	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/ckclass"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// run executes the tool with args and returns the combined output and the
// exit code passed to osExit, if any.
func run(t *testing.T, args ...string) (string, int) {
	t.Helper()
	var buf bytes.Buffer
	exitCode := 0
	stdout = &buf
	stderr = &buf
	osExit = func(code int) { exitCode = code }
	defer func() {
		stdout = os.Stdout
		stderr = os.Stderr
		osExit = os.Exit
	}()

	tt, err := New()
	require.NoError(t, err)
	c := &cobra.Command{}
	c.AddCommand(tt.Commands...)
	c.SetArgs(args)
	c.SetOutput(&buf)
	if err := c.Execute(); err != nil {
		return err.Error(), exitCode
	}
	return buf.String(), exitCode
}

func testLight(name string, r float32) *ckclass.Light {
	return &ckclass.Light{
		Entity: ckclass.Entity3D{
			Render: ckclass.RenderObject{BeObject: ckclass.BeObject{
				SceneObject: ckclass.SceneObject{Object: ckclass.Object{Name: name}},
			}},
			World: ckclass.Identity,
		},
		Type:        ckclass.LightPoint,
		Color:       ckclass.Color{R: 1, G: 1, B: 1, A: 1},
		Range:       r,
		Attenuation: [3]float32{1, 0, 0},
	}
}

// writeObjects writes each object into its own file under a temporary
// directory and returns the paths.
func writeObjects(t *testing.T, opts *ckarchive.Options, objs ...ckarchive.Object) []string {
	t.Helper()
	codec, err := ckarchive.New(opts)
	require.NoError(t, err)
	dir := t.TempDir()
	var paths []string
	for _, o := range objs {
		buf, err := codec.WriteObject(o)
		require.NoError(t, err)
		path := filepath.Join(dir, fmt.Sprintf("obj%d.ck", o.ID))
		require.NoError(t, os.WriteFile(path, buf, 0644))
		paths = append(paths, path)
	}
	return paths
}

func TestChunkDump(t *testing.T) {
	paths := writeObjects(t, nil, ckarchive.Object{ID: 1, ClassID: ck.CIDLight, State: testLight("lamp", 100)})

	out, code := run(t, "chunk", "dump", paths[0])
	require.Zero(t, code)
	require.Contains(t, out, paths[0]+": ")
	require.Contains(t, out, "checksum ")
	require.Contains(t, out, "CKLight(")
	require.NotContains(t, out, "CKLight: ")

	out, code = run(t, "chunk", "dump", "--decode", paths[0])
	require.Zero(t, code)
	require.Contains(t, out, "CKObject: CKObject{block_flags: ")
	require.Contains(t, out, "CKLight: CKLight{block_flags: ")
	require.NotContains(t, out, "missing section")

	out, _ = run(t, "chunk", "dump", filepath.Join(t.TempDir(), "missing.ck"))
	require.Contains(t, out, "missing.ck")
}

func TestChunkVerify(t *testing.T) {
	objs := []ckarchive.Object{
		{ID: 1, ClassID: ck.CIDLight, State: testLight("a", 10)},
		{ID: 2, ClassID: ck.CIDTargetLight, State: testLight("b", 20)},
		{ID: 3, ClassID: ck.CIDSprite, State: &ckclass.Sprite{
			HasBitmap: true, Width: 2, Height: 1, Bitmap: []byte{1, 2, 3, 4, 5, 6, 7, 8},
		}},
	}
	paths := writeObjects(t, nil, objs...)

	for _, args := range [][]string{
		{"chunk", "verify"},
		{"chunk", "verify", "--concurrency", "1"},
		{"chunk", "verify", "--compression", "zstd"},
	} {
		out, code := run(t, append(args, paths...)...)
		require.Zero(t, code, "%s", out)
		for _, p := range paths {
			require.Contains(t, out, p+": ")
		}
		require.NotContains(t, out, "FAIL")
		// Results are reported in argument order.
		require.Less(t, bytes.Index([]byte(out), []byte(paths[0])), bytes.Index([]byte(out), []byte(paths[2])))
	}

	out, _ := run(t, "chunk", "verify", paths[0])
	require.Contains(t, out, "identical")

	bad := filepath.Join(t.TempDir(), "bad.ck")
	require.NoError(t, os.WriteFile(bad, []byte{1, 2, 3}, 0644))
	out, code := run(t, "chunk", "verify", paths[0], bad)
	require.Equal(t, 1, code)
	require.Contains(t, out, "FAIL")

	out, _ = run(t, "chunk", "verify", "--compression", "lz4", paths[0])
	require.Contains(t, out, "lz4")
}

func TestChunkDiff(t *testing.T) {
	paths := writeObjects(t, nil,
		ckarchive.Object{ID: 1, ClassID: ck.CIDLight, State: testLight("a", 10)},
		ckarchive.Object{ID: 2, ClassID: ck.CIDLight, State: testLight("a", 20)},
	)

	out, code := run(t, "chunk", "diff", paths[0], paths[0])
	require.Zero(t, code)
	require.Equal(t, "no differences\n", out)

	out, code = run(t, "chunk", "diff", "--context", "1", paths[0], paths[1])
	require.Zero(t, code)
	require.Contains(t, out, "--- "+paths[0])
	require.Contains(t, out, "+++ "+paths[1])
	require.Contains(t, out, "@@ ")

	out, _ = run(t, "chunk", "diff", paths[0])
	require.Contains(t, out, "accepts 2 arg(s)")
}

func TestSchemaList(t *testing.T) {
	out, code := run(t, "schema", "list")
	require.Zero(t, code)
	for _, name := range []string{"CKLight", "CKDataArray", "VXLIGHT_TYPE", "Vector3", "object_id_array"} {
		require.Contains(t, out, name)
	}

	out, _ = run(t, "schema", "list", "CK2d")
	require.Contains(t, out, "CK2dEntity")
	require.NotContains(t, out, "CKLight")
}

func TestSchemaShow(t *testing.T) {
	out, code := run(t, "schema", "show", "CKLight")
	require.Zero(t, code)
	require.Contains(t, out, "CKLight struct")
	require.Contains(t, out, "v5+")
	for _, f := range []string{"block_flags", "type", "color", "range", "attenuation"} {
		require.Contains(t, out, f)
	}

	out, _ = run(t, "schema", "show", "--version", "4", "CKLight")
	require.Contains(t, out, "CKLight: not found")

	out, _ = run(t, "schema", "show", "object_id_array")
	require.Contains(t, out, "[]object_id")
}

func TestVersionWindow(t *testing.T) {
	require.Equal(t, "all", versionWindow(0, 0))
	require.Equal(t, "v5+", versionWindow(5, 0))
	require.Equal(t, "<v5", versionWindow(0, 5))
	require.Equal(t, "v2-v4", versionWindow(2, 5))
}
