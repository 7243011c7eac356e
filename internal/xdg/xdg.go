// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

// Package xdg provides XDG Base Directory paths for gnist.
package xdg

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "gnist"

// ConfigFileName is the config file looked up in ConfigDir.
const ConfigFileName = "gnist.yaml"

// base returns the directory named by env, or home joined with fallback.
func base(env string, fallback ...string) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%s is unset and home directory is unknown: %w", env, err)
	}
	return filepath.Join(append(append([]string{home}, fallback...), appName)...), nil
}

// ConfigDir returns $XDG_CONFIG_HOME/gnist, defaulting to ~/.config/gnist.
func ConfigDir() (string, error) {
	return base("XDG_CONFIG_HOME", ".config")
}

// DataDir returns $XDG_DATA_HOME/gnist, defaulting to ~/.local/share/gnist.
func DataDir() (string, error) {
	return base("XDG_DATA_HOME", ".local", "share")
}

// StateDir returns $XDG_STATE_HOME/gnist, defaulting to ~/.local/state/gnist.
func StateDir() (string, error) {
	return base("XDG_STATE_HOME", ".local", "state")
}

// ConfigFile returns the default config file path.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// ExtensionsDir returns the default directory extensions are discovered in.
func ExtensionsDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "extensions"), nil
}

// EnsureDir creates path and its parents with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}
