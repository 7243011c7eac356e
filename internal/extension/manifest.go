// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

// Package extension discovers and loads dependent extensions: third-party
// code that subscribes to the namespaced relay signals and only runs while
// this plugin is active.
package extension

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the manifest name looked up in every extension directory.
const ManifestFile = "extension.yaml"

// Type identifies the extension runtime.
type Type string

// Extension types supported by the engine.
const (
	TypeLua Type = "lua"
)

// Manifest represents an extension.yaml file.
type Manifest struct {
	Name         string     `yaml:"name" json:"name" jsonschema:"pattern=^[a-z]([a-z0-9-]*[a-z0-9])?$,maxLength=64"`
	Version      string     `yaml:"version" json:"version"`
	Type         Type       `yaml:"type" json:"type" jsonschema:"enum=lua"`
	Description  string     `yaml:"description,omitempty" json:"description,omitempty"`
	Requires     string     `yaml:"requires,omitempty" json:"requires,omitempty" jsonschema:"description=semver constraint on the engine version"`
	Hooks        []string   `yaml:"hooks,omitempty" json:"hooks,omitempty" jsonschema:"description=namespaced hooks the extension may subscribe to (glob patterns)"`
	LuaExtension *LuaConfig `yaml:"lua-extension,omitempty" json:"lua-extension,omitempty"`
}

// LuaConfig holds Lua-specific configuration.
type LuaConfig struct {
	Entry string `yaml:"entry" json:"entry"`
}

// maxNameLength is the maximum allowed length for extension names.
const maxNameLength = 64

// namePattern: lowercase letter first, then lowercase letters, digits or
// hyphens, not ending with a hyphen.
var namePattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// ParseManifest parses and validates an extension.yaml file.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("manifest data is empty")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest constraints.
func (m *Manifest) Validate() error {
	if m.Name == "" || !namePattern.MatchString(m.Name) {
		return fmt.Errorf("name %q must start with a-z, contain only a-z, 0-9, hyphens, and not end with a hyphen", m.Name)
	}
	if len(m.Name) > maxNameLength {
		return fmt.Errorf("name must be %d characters or less, got %d", maxNameLength, len(m.Name))
	}

	if m.Version == "" {
		return fmt.Errorf("version is required")
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return fmt.Errorf("version %q is not a semantic version: %w", m.Version, err)
	}

	if m.Requires != "" {
		if _, err := semver.NewConstraint(m.Requires); err != nil {
			return fmt.Errorf("requires %q is not a version constraint: %w", m.Requires, err)
		}
	}

	for i, h := range m.Hooks {
		if h == "" {
			return fmt.Errorf("hooks[%d] is empty", i)
		}
	}

	switch m.Type {
	case TypeLua:
		if m.LuaExtension == nil {
			return fmt.Errorf("lua-extension is required when type is lua")
		}
		if m.LuaExtension.Entry == "" {
			return fmt.Errorf("lua-extension.entry is required")
		}
	default:
		return fmt.Errorf("type must be 'lua', got %q", m.Type)
	}

	return nil
}

// Compatible reports whether the manifest's requires constraint admits the
// engine version. A manifest without a constraint is always compatible.
func (m *Manifest) Compatible(engine *semver.Version) bool {
	if m.Requires == "" {
		return true
	}
	c, err := semver.NewConstraint(m.Requires)
	if err != nil {
		return false
	}
	return c.Check(engine)
}
