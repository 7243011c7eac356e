// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package capability_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnistdesign/gnist/internal/extension/capability"
)

func TestEnforcer_Check(t *testing.T) {
	tests := []struct {
		name   string
		grants []string
		hook   string
		want   bool
	}{
		{
			name:   "exact match",
			grants: []string{"setup_globals"},
			hook:   "setup_globals",
			want:   true,
		},
		{
			name:   "single segment wildcard",
			grants: []string{"admin/*"},
			hook:   "admin/scripts",
			want:   true,
		},
		{
			name:   "single segment wildcard stops at separator",
			grants: []string{"admin/*"},
			hook:   "admin/menu/sub",
			want:   false,
		},
		{
			name:   "double wildcard crosses separators",
			grants: []string{"admin/**"},
			hook:   "admin/menu/sub",
			want:   true,
		},
		{
			name:   "prefix wildcard inside a segment",
			grants: []string{"setup_*"},
			hook:   "setup_instances",
			want:   true,
		},
		{
			name:   "root wildcard",
			grants: []string{"**"},
			hook:   "register/custom_post_type",
			want:   true,
		},
		{
			name:   "no match",
			grants: []string{"wp/head"},
			hook:   "wp/footer",
			want:   false,
		},
		{
			name:   "empty hook denied",
			grants: []string{"**"},
			hook:   "",
			want:   false,
		},
		{
			name:   "no grants",
			grants: []string{},
			hook:   "init",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := capability.NewEnforcer()
			require.NoError(t, e.SetGrants("ext", tt.grants))
			assert.Equal(t, tt.want, e.Check("ext", tt.hook))
		})
	}
}

func TestEnforcer_UnknownExtensionDenied(t *testing.T) {
	e := capability.NewEnforcer()
	assert.False(t, e.Check("missing", "init"))
	assert.False(t, e.IsRegistered("missing"))
}

func TestEnforcer_SetGrants(t *testing.T) {
	t.Run("empty name", func(t *testing.T) {
		err := capability.NewEnforcer().SetGrants("", []string{"init"})
		assert.Error(t, err)
	})

	t.Run("invalid pattern leaves state unchanged", func(t *testing.T) {
		e := capability.NewEnforcer()
		require.NoError(t, e.SetGrants("ext", []string{"init"}))

		err := e.SetGrants("ext", []string{"wp/*", "[unclosed"})
		require.Error(t, err)
		assert.Equal(t, []string{"init"}, e.Grants("ext"))
	})

	t.Run("empty pattern", func(t *testing.T) {
		err := capability.NewEnforcer().SetGrants("ext", []string{""})
		assert.Error(t, err)
	})

	t.Run("replaces previous grants", func(t *testing.T) {
		e := capability.NewEnforcer()
		require.NoError(t, e.SetGrants("ext", []string{"init"}))
		require.NoError(t, e.SetGrants("ext", []string{"loaded"}))

		assert.False(t, e.Check("ext", "init"))
		assert.True(t, e.Check("ext", "loaded"))
	})

	t.Run("input is copied", func(t *testing.T) {
		e := capability.NewEnforcer()
		patterns := []string{"init"}
		require.NoError(t, e.SetGrants("ext", patterns))
		patterns[0] = "**"

		assert.False(t, e.Check("ext", "loaded"))
	})
}

func TestEnforcer_ZeroValue(t *testing.T) {
	var e capability.Enforcer
	assert.False(t, e.Check("ext", "init"))
	e.RemoveGrants("ext")
	require.NoError(t, e.SetGrants("ext", []string{"init"}))
	assert.True(t, e.Check("ext", "init"))
}

func TestEnforcer_RemoveGrantsAndList(t *testing.T) {
	e := capability.NewEnforcer()
	require.NoError(t, e.SetGrants("b", []string{"init"}))
	require.NoError(t, e.SetGrants("a", []string{"init"}))

	assert.Equal(t, []string{"a", "b"}, e.Extensions())

	e.RemoveGrants("a")
	assert.Equal(t, []string{"b"}, e.Extensions())
	assert.Nil(t, e.Grants("a"))
	assert.False(t, e.Check("a", "init"))
}
