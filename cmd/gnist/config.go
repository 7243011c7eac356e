// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/gnistdesign/gnist/internal/logging"
	"github.com/gnistdesign/gnist/internal/xdg"
)

const defaultLogFormat = "json"

// Config is the merged configuration of a gnist command. Keys match the
// flag names, so the same names work in gnist.yaml and on the command line.
type Config struct {
	Namespace     string `koanf:"namespace"`
	PluginFile    string `koanf:"plugin-file"`
	Root          string `koanf:"root"`
	ExtensionsDir string `koanf:"extensions-dir"`
	LogFormat     string `koanf:"log-format"`
	LogLevel      string `koanf:"log-level"`
	ListenAddr    string `koanf:"listen-addr"`
	MetricsAddr   string `koanf:"metrics-addr"`
}

// Validate checks that the configuration is usable.
func (cfg *Config) Validate() error {
	if strings.Trim(cfg.Namespace, "/") == "" {
		return fmt.Errorf("namespace is required")
	}
	if cfg.PluginFile == "" {
		return fmt.Errorf("plugin-file is required")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return fmt.Errorf("log-format must be 'json' or 'text', got %q", cfg.LogFormat)
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return err //nolint:wrapcheck // already names the flag value
	}
	return nil
}

// loadConfig merges, lowest precedence first: flag defaults, the config
// file, and flags set on the command line.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	flags := cmd.Flags()
	k := koanf.New(".")

	path, _ := flags.GetString("config")
	explicit := path != ""
	if !explicit {
		if def, err := xdg.ConfigFile(); err == nil {
			path = def
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to load config %s: %w", path, err)
			}
		}
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.ExtensionsDir == "" {
		if dir, err := xdg.ExtensionsDir(); err == nil {
			cfg.ExtensionsDir = dir
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setupLogging installs the default logger for cfg, writing to w.
func setupLogging(cfg *Config, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return logging.SetDefault(logging.Config{
		Service: "gnist",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
	}, w)
}
