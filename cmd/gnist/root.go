// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/gnistdesign/gnist/internal/relay"
)

// NewRootCmd creates the root command for the gnist CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gnist",
		Short: "gnist - namespaced lifecycle hooks for dependent extensions",
		Long: `gnist relays host lifecycle hooks (plugins_loaded, init, admin_enqueue_scripts, ...)
into a private namespace so dependent extensions only run while the engine is active.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file path (default: XDG_CONFIG_HOME/gnist/gnist.yaml)")
	flags.String("namespace", relay.DefaultNamespace, "prefix of every relayed hook")
	flags.String("plugin-file", relay.DefaultPluginFile, "plugin file the activation hooks are keyed on")
	flags.String("root", ".", "host installation directory")
	flags.String("extensions-dir", "", "extensions directory (default: XDG_DATA_HOME/gnist/extensions)")
	flags.String("log-format", defaultLogFormat, "log format (json or text)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(NewHooksCmd())
	cmd.AddCommand(NewSimulateCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewValidateCmd())

	return cmd
}
