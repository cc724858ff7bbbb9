// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ckarchive/ckarchive"
	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// schemaT implements type registry tools.
type schemaT struct {
	Root *cobra.Command
	List *cobra.Command
	Show *cobra.Command

	opts *ckarchive.Options

	// Flags.
	version int
}

func newSchema(opts *ckarchive.Options) *schemaT {
	s := &schemaT{opts: opts}

	s.Root = &cobra.Command{
		Use:   "schema",
		Short: "type registry introspection tools",
	}
	s.List = &cobra.Command{
		Use:   "list [prefix]",
		Short: "list registered types",
		Long: `
List the registered types, optionally only those whose name starts with the
given prefix. Each version variant of a name is listed on its own row.
`,
		Args: cobra.MaximumNArgs(1),
		Run:  s.runList,
	}
	s.Show = &cobra.Command{
		Use:   "show <types>",
		Short: "print the layout of types",
		Long: `
Print the fields, elements or values of the named types. The --version flag
selects the variant applying to a file version; without it every variant is
printed.
`,
		Args: cobra.MinimumNArgs(1),
		Run:  s.runShow,
	}
	s.Root.AddCommand(s.List, s.Show)

	s.Show.Flags().IntVar(
		&s.version, "version", 0, "file version selecting the type variant")
	return s
}

func versionWindow(since, until ck.FileVersion) string {
	switch {
	case since == 0 && until == 0:
		return "all"
	case until == 0:
		return fmt.Sprintf("v%d+", since)
	case since == 0:
		return fmt.Sprintf("<v%d", until)
	default:
		return fmt.Sprintf("v%d-v%d", since, until-1)
	}
}

func (s *schemaT) runList(cmd *cobra.Command, args []string) {
	var prefix string
	if len(args) > 0 {
		prefix = args[0]
	}
	tbl := tablewriter.NewWriter(stdout)
	tbl.SetHeader([]string{"Name", "Kind", "Size", "Versions", "Param GUID"})
	for _, d := range s.opts.Registry.All() {
		if !strings.HasPrefix(d.Name, prefix) {
			continue
		}
		var g string
		if d.Param != nil {
			g = d.Param.GUID.String()
		}
		tbl.Append([]string{
			d.Name,
			d.Kind.String(),
			strconv.Itoa(d.Size),
			versionWindow(d.SinceVersion, d.RemovedVersion),
			g,
		})
	}
	tbl.Render()
}

func (s *schemaT) runShow(cmd *cobra.Command, args []string) {
	for _, name := range args {
		var variants []*schema.Descriptor
		if s.version != 0 {
			if d, ok := s.opts.Registry.FindForVersion(name, ck.FileVersion(s.version)); ok {
				variants = append(variants, d)
			}
		} else {
			for _, d := range s.opts.Registry.All() {
				if d.Name == name {
					variants = append(variants, d)
				}
			}
		}
		if len(variants) == 0 {
			fmt.Fprintf(stderr, "%s: not found\n", name)
			continue
		}
		for _, d := range variants {
			s.show(d)
		}
	}
}

func (s *schemaT) show(d *schema.Descriptor) {
	fmt.Fprintf(stdout, "%s %s size=%d align=%d %s\n",
		d.Name, d.Kind, d.Size, d.Align, versionWindow(d.SinceVersion, d.RemovedVersion))
	if d.Param != nil {
		fmt.Fprintf(stdout, "  guid %s", d.Param.GUID)
		if d.Param.Base != nil {
			fmt.Fprintf(stdout, " base %s", d.Param.Base.Name)
		}
		fmt.Fprintf(stdout, "\n")
	}
	switch {
	case len(d.Fields) > 0:
		for _, f := range d.Fields {
			fmt.Fprintf(stdout, "  %4d %-16s %s", f.Offset, f.Name, f.Type.Name)
			if f.SinceVersion != 0 || f.DeprecatedVersion != 0 {
				fmt.Fprintf(stdout, " (%s)", versionWindow(f.SinceVersion, f.DeprecatedVersion))
			}
			fmt.Fprintf(stdout, "\n")
		}
	case d.Elem != nil:
		if d.Len > 0 {
			fmt.Fprintf(stdout, "  [%d]%s\n", d.Len, d.Elem.Name)
		} else {
			fmt.Fprintf(stdout, "  []%s\n", d.Elem.Name)
		}
	case len(d.EnumValues) > 0:
		for _, v := range d.EnumValues {
			fmt.Fprintf(stdout, "  %-24s %d\n", v.Name, v.Value)
		}
	}
}
