// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnistdesign/gnist/internal/host"
	"github.com/gnistdesign/gnist/pkg/errutil"
)

type simulateFlags struct {
	kind       string
	hookSuffix string
	activate   bool
	deactivate bool
	json       bool
}

// NewSimulateCmd creates the simulate subcommand.
func NewSimulateCmd() *cobra.Command {
	flags := &simulateFlags{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one host request and print the relayed hooks",
		Long: `Boot a hook bus with the relay and every loaded extension, run one
public or admin request through the host lifecycle, and print each
namespaced hook in the order it fired.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulate(cmd.Context(), cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.kind, "kind", string(host.KindPublic), "request kind (public or admin)")
	cmd.Flags().StringVar(&flags.hookSuffix, "hook-suffix", "index.php", "admin page hook suffix")
	cmd.Flags().BoolVar(&flags.activate, "activate", false, "fire the plugin activation hook first")
	cmd.Flags().BoolVar(&flags.deactivate, "deactivate", false, "fire the plugin deactivation hook last")
	cmd.Flags().BoolVar(&flags.json, "json", false, "print the trace as JSON")

	return cmd
}

func runSimulate(ctx context.Context, cmd *cobra.Command, flags *simulateFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	kind, err := host.ParseKind(flags.kind)
	if err != nil {
		return err //nolint:wrapcheck // oops error carries the code
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogging(cfg, cmd.ErrOrStderr())

	eng, err := newEngine(ctx, cfg, logger, nil)
	if err != nil {
		errutil.LogErrorContext(ctx, logger, "engine failed to start", err)
		return err
	}
	defer func() {
		if closeErr := eng.Close(ctx); closeErr != nil {
			logger.Warn("failed to close engine", "error", closeErr)
		}
	}()

	tr, runErr := eng.run(ctx, runOptions{
		kind:       kind,
		hookSuffix: flags.hookSuffix,
		activate:   flags.activate,
		deactivate: flags.deactivate,
	})
	if tr != nil {
		if flags.json {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(tr.Emissions()); err != nil {
				return fmt.Errorf("failed to write trace: %w", err)
			}
		} else if _, err := tr.WriteTo(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to write trace: %w", err)
		}
	}
	if runErr != nil {
		errutil.LogErrorContext(ctx, logger, "request aborted", runErr)
		return runErr
	}
	return nil
}
