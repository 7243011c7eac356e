// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package extension

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"

	"github.com/gnistdesign/gnist/internal/extension/capability"
	"github.com/gnistdesign/gnist/internal/hook"
)

// Manager discovers extensions, checks them against the engine version and
// hands compatible ones to the runtime host.
type Manager struct {
	dir      string
	engine   *semver.Version
	host     Host
	enforcer *capability.Enforcer
	loaded   map[string]*Discovered
	mu       sync.RWMutex
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithHost sets the runtime host extensions are loaded into.
func WithHost(h Host) ManagerOption {
	return func(m *Manager) {
		m.host = h
	}
}

// WithEnforcer sets the enforcer that receives each extension's hook grants.
func WithEnforcer(e *capability.Enforcer) ManagerOption {
	return func(m *Manager) {
		m.enforcer = e
	}
}

// NewManager creates an extension manager for dir. engineVersion is the
// version extensions' requires constraints are checked against.
func NewManager(dir, engineVersion string, opts ...ManagerOption) (*Manager, error) {
	v, err := semver.NewVersion(engineVersion)
	if err != nil {
		return nil, oops.In("extension").
			Code(CodeInvalidVersion).
			With("version", engineVersion).
			Wrapf(err, "parse engine version")
	}

	m := &Manager{
		dir:    dir,
		engine: v,
		loaded: make(map[string]*Discovered),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.enforcer == nil {
		m.enforcer = capability.NewEnforcer()
	}
	return m, nil
}

// Discovered contains a manifest and its directory.
type Discovered struct {
	Manifest *Manifest
	Dir      string
}

// Discover finds all valid extensions in the extensions directory.
// Invalid extensions are logged and skipped.
func (m *Manager) Discover(_ context.Context) ([]*Discovered, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read extensions directory: %w", err)
	}

	var found []*Discovered
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(m.dir, entry.Name())
		data, err := os.ReadFile(filepath.Join(dir, ManifestFile)) //nolint:gosec // path is built from ReadDir entries
		if err != nil {
			slog.Warn("skipping extension without manifest",
				"dir", entry.Name(),
				"error", err)
			continue
		}

		manifest, err := ParseManifest(data)
		if err != nil {
			slog.Warn("skipping extension with invalid manifest",
				"dir", entry.Name(),
				"error", err)
			continue
		}

		found = append(found, &Discovered{Manifest: manifest, Dir: dir})
	}

	return found, nil
}

// LoadAll discovers and loads every extension in the extensions directory.
// Individual failures, including incompatible versions, are logged and
// skipped so one broken extension cannot keep the others from loading.
func (m *Manager) LoadAll(ctx context.Context) error {
	discovered, err := m.Discover(ctx)
	if err != nil {
		return err
	}

	for _, d := range discovered {
		if err := m.Load(ctx, d); err != nil {
			slog.Error("failed to load extension",
				"extension", d.Manifest.Name,
				"error", err)
		}
	}
	return nil
}

// Load loads a single discovered extension.
func (m *Manager) Load(ctx context.Context, d *Discovered) error {
	name := d.Manifest.Name

	if !d.Manifest.Compatible(m.engine) {
		return ErrIncompatible(name, d.Manifest.Requires, m.engine.String())
	}

	if err := m.enforcer.SetGrants(name, d.Manifest.Hooks); err != nil {
		return oops.In("extension").
			Code(CodeInvalidGrants).
			With("extension", name).
			Wrap(err)
	}

	if m.host == nil {
		m.enforcer.RemoveGrants(name)
		slog.Warn("no extension host configured, skipping extension",
			"extension", name)
		return nil
	}
	if err := m.host.Load(ctx, d.Manifest, d.Dir); err != nil {
		m.enforcer.RemoveGrants(name)
		return fmt.Errorf("load extension %s: %w", name, err)
	}

	m.mu.Lock()
	m.loaded[name] = d
	m.mu.Unlock()

	slog.Info("loaded extension",
		"extension", name,
		"version", d.Manifest.Version,
		"requires", d.Manifest.Requires)
	return nil
}

// Unload removes a loaded extension.
func (m *Manager) Unload(ctx context.Context, name string) error {
	m.mu.Lock()
	_, ok := m.loaded[name]
	delete(m.loaded, name)
	m.mu.Unlock()

	if !ok {
		return ErrNotLoaded(name)
	}
	m.enforcer.RemoveGrants(name)
	if m.host != nil {
		if err := m.host.Unload(ctx, name); err != nil {
			return fmt.Errorf("unload extension %s: %w", name, err)
		}
	}
	return nil
}

// Attach subscribes every loaded extension to bus.
func (m *Manager) Attach(ctx context.Context, bus *hook.Bus) (io.Closer, error) {
	if m.host == nil {
		return io.NopCloser(nil), nil
	}
	return m.host.Attach(ctx, bus)
}

// Engine returns the engine version extensions are checked against.
func (m *Manager) Engine() *semver.Version {
	return m.engine
}

// List returns names of all loaded extensions, sorted.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.loaded))
	for name := range m.loaded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close shuts down the manager and its host.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loaded = make(map[string]*Discovered)

	if m.host != nil {
		if err := m.host.Close(ctx); err != nil {
			return fmt.Errorf("close extension host: %w", err)
		}
	}
	return nil
}
