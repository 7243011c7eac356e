// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

// Package main is the gnist command: it runs the relay and its Lua
// extensions against a simulated host lifecycle.
package main

import (
	"fmt"
	"os"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
