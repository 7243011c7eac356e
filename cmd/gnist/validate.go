// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/gnistdesign/gnist/internal/extension"
)

// NewValidateCmd creates the validate subcommand.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [extension-dir...]",
		Short: "Validate extension manifests",
		Long: `Validate extension manifests against the JSON schema, the manifest rules
and the running engine version. Without arguments every extension in the
extensions directory is checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := args
			if len(dirs) == 0 {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				dirs, err = extensionDirs(cfg.ExtensionsDir)
				if err != nil {
					return err
				}
			}
			return validateDirs(cmd.OutOrStdout(), dirs)
		},
	}
}

// extensionDirs lists the subdirectories of root.
func extensionDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read extensions directory: %w", err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	return dirs, nil
}

var errInvalidManifests = errors.New("invalid extension manifests")

func validateDirs(w io.Writer, dirs []string) error {
	engine := semver.MustParse(engineVersion)
	failed := 0

	for _, dir := range dirs {
		if err := validateDir(dir, engine); err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %s: %s\n", dir, extension.FormatSchemaError(err))
			continue
		}
		fmt.Fprintf(w, "ok   %s\n", dir)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errInvalidManifests, failed, len(dirs))
	}
	return nil
}

func validateDir(dir string, engine *semver.Version) error {
	data, err := os.ReadFile(filepath.Join(dir, extension.ManifestFile)) //nolint:gosec // user-supplied directory
	if err != nil {
		return err //nolint:wrapcheck // printed as is
	}
	if err := extension.ValidateSchema(data); err != nil {
		return err //nolint:wrapcheck // printed as is
	}
	m, err := extension.ParseManifest(data)
	if err != nil {
		return err //nolint:wrapcheck // printed as is
	}
	if !m.Compatible(engine) {
		return fmt.Errorf("requires %s, engine is %s", m.Requires, engine)
	}
	if m.LuaExtension != nil {
		if _, err := os.Stat(filepath.Join(dir, m.LuaExtension.Entry)); err != nil {
			return fmt.Errorf("entry %s: %w", m.LuaExtension.Entry, err)
		}
	}
	return nil
}
