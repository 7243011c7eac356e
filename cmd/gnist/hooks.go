// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gnistdesign/gnist/internal/relay"
)

// routeView is the printable form of a relay route.
type routeView struct {
	Callback string   `json:"callback" yaml:"callback"`
	Upstream string   `json:"upstream" yaml:"upstream"`
	Priority int      `json:"priority" yaml:"priority"`
	Emits    []string `json:"emits" yaml:"emits"`
	Filter   string   `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// NewHooksCmd creates the hooks subcommand.
func NewHooksCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Print the relay table",
		Long: `Print every host hook the relay listens to, its priority, and the
namespaced hooks it emits, in the order they are registered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			r := relay.New(relay.WithNamespace(cfg.Namespace), relay.WithPluginFile(cfg.PluginFile))
			return writeRoutes(cmd.OutOrStdout(), r.Routes(), output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json or yaml)")
	return cmd
}

func writeRoutes(w io.Writer, routes []relay.Route, format string) error {
	views := make([]routeView, len(routes))
	for i, r := range routes {
		views[i] = routeView(r)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views) //nolint:wrapcheck // writer error
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err //nolint:wrapcheck // writer error
		}
		return enc.Close() //nolint:wrapcheck // writer error
	case "text":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "UPSTREAM\tPRIORITY\tCALLBACK\tEMITS")
		for _, v := range views {
			emits := strings.Join(v.Emits, " -> ")
			if v.Filter != "" {
				emits += " (filter " + v.Filter + ")"
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", v.Upstream, v.Priority, v.Callback, emits)
		}
		return tw.Flush() //nolint:wrapcheck // writer error
	default:
		return fmt.Errorf("output must be 'text', 'json' or 'yaml', got %q", format)
	}
}
