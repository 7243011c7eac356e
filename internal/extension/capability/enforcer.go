// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

// Package capability decides which namespaced hooks an extension may
// subscribe to.
//
// Grants are glob patterns over short hook names with '/' as the segment
// separator:
//   - '*' matches a single segment (does not cross '/')
//   - '**' matches zero or more segments (crosses '/')
//
// Examples:
//   - "admin/*" matches "admin/scripts" but NOT "admin/menu/sub"
//   - "setup_*" matches "setup_globals" and "setup_theme"
//   - "**" matches any hook
package capability

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gobwas/glob"
)

type compiledGrant struct {
	pattern string
	glob    glob.Glob
}

// Enforcer checks extension hook grants at runtime.
//
// Enforcer is safe for concurrent use. The zero value is ready to use.
type Enforcer struct {
	grants map[string][]compiledGrant // extension name -> compiled grants
	mu     sync.RWMutex
}

// NewEnforcer creates a capability enforcer.
func NewEnforcer() *Enforcer {
	return &Enforcer{
		grants: make(map[string][]compiledGrant),
	}
}

// SetGrants replaces the hook patterns granted to an extension. If any
// pattern is invalid, nothing changes.
func (e *Enforcer) SetGrants(extension string, patterns []string) error {
	if extension == "" {
		return errors.New("extension name cannot be empty")
	}

	compiled := make([]compiledGrant, len(patterns))
	for i, pattern := range patterns {
		if pattern == "" {
			return fmt.Errorf("grant %d: empty hook pattern", i)
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return fmt.Errorf("grant %d (%q): %w", i, pattern, err)
		}
		compiled[i] = compiledGrant{pattern: pattern, glob: g}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.grants == nil {
		e.grants = make(map[string][]compiledGrant)
	}
	e.grants[extension] = compiled
	return nil
}

// IsRegistered reports whether SetGrants has been called for extension.
func (e *Enforcer) IsRegistered(extension string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	_, ok := e.grants[extension]
	return ok
}

// RemoveGrants unregisters an extension. Unknown names are ignored.
func (e *Enforcer) RemoveGrants(extension string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.grants, extension)
}

// Grants returns a copy of the patterns granted to an extension, or nil if
// it is not registered.
func (e *Enforcer) Grants(extension string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	grants, ok := e.grants[extension]
	if !ok {
		return nil
	}
	patterns := make([]string, len(grants))
	for i, g := range grants {
		patterns[i] = g.pattern
	}
	return patterns
}

// Extensions returns the registered extension names, sorted.
func (e *Enforcer) Extensions() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.grants))
	for name := range e.grants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check reports whether extension may subscribe to the short hook name.
// Empty names, unknown extensions and unmatched hooks are denied.
func (e *Enforcer) Check(extension, hook string) bool {
	if hook == "" {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, grant := range e.grants[extension] {
		if grant.glob.Match(hook) {
			return true
		}
	}
	return false
}
