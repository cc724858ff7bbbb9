// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"log"
	"os"

	"github.com/ckarchive/ckarchive/tool"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ckarchive [command] (flags)",
	Short: "scene archive chunk introspection tool",
	Long:  ``,
}

func main() {
	log.SetFlags(0)

	cobra.EnableCommandSorting = false
	t, err := tool.New()
	if err != nil {
		log.Fatal(err)
	}
	rootCmd.AddCommand(t.Commands...)

	if err := rootCmd.Execute(); err != nil {
		// Cobra has already printed the error message.
		os.Exit(1)
	}
}
