// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package host_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnistdesign/gnist/internal/hook"
	"github.com/gnistdesign/gnist/internal/host"
	"github.com/gnistdesign/gnist/pkg/errutil"
)

func newRuntime(t *testing.T, bus *hook.Bus) *host.Runtime {
	t.Helper()
	rt, err := host.New(t.TempDir(), bus, host.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	require.NoError(t, err)
	return rt
}

// record attaches a recorder to every signal of the given sequence.
func record(t *testing.T, bus *hook.Bus, steps []host.Step) *[]string {
	t.Helper()
	var fired []string
	seen := make(map[string]bool)
	for _, step := range steps {
		if seen[step.Hook] {
			continue
		}
		seen[step.Hook] = true
		_, err := bus.AddAction(step.Hook, hook.DefaultPriority, func(ctx context.Context, _ ...any) error {
			fired = append(fired, hook.Current(ctx))
			return nil
		})
		require.NoError(t, err)
	}
	return &fired
}

func TestNew_EnvironmentGuard(t *testing.T) {
	bus := hook.New()

	_, err := host.New("", bus)
	errutil.AssertErrorCode(t, err, host.CodeNoEnvironment)

	_, err = host.New(filepath.Join(t.TempDir(), "missing"), bus)
	errutil.AssertErrorCode(t, err, host.CodeNoEnvironment)

	file := filepath.Join(t.TempDir(), "wp-config.php")
	require.NoError(t, os.WriteFile(file, []byte("<?php"), 0o600))
	_, err = host.New(file, bus)
	errutil.AssertErrorCode(t, err, host.CodeNoEnvironment)

	_, err = host.New(t.TempDir(), nil)
	errutil.AssertErrorCode(t, err, host.CodeNilBus)
}

func TestHandle_PublicRequestFiresInHostOrder(t *testing.T) {
	bus := hook.New()
	rt := newRuntime(t, bus)
	fired := record(t, bus, host.Sequence(host.KindPublic))

	require.NoError(t, rt.Handle(context.Background(), host.NewRequest(host.KindPublic, "")))

	assert.Equal(t, []string{
		"plugins_loaded", "setup_theme", "after_setup_theme", "init", "wp_loaded",
		"wp", "wp_enqueue_scripts", "wp_head", "wp_body_open", "wp_footer",
	}, *fired)
}

func TestHandle_AdminRequestPassesHookSuffix(t *testing.T) {
	bus := hook.New()
	rt := newRuntime(t, bus)
	fired := record(t, bus, host.Sequence(host.KindAdmin))

	var suffix []any
	_, err := bus.AddAction(host.AdminEnqueueScripts, hook.DefaultPriority, func(_ context.Context, args ...any) error {
		suffix = args
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, rt.Handle(context.Background(), host.NewRequest(host.KindAdmin, "plugins.php")))

	assert.Equal(t, []string{
		"plugins_loaded", "setup_theme", "after_setup_theme", "init", "wp_loaded",
		"admin_menu", "admin_init", "admin_enqueue_scripts", "admin_head", "admin_notices",
	}, *fired)
	assert.Equal(t, []any{"plugins.php"}, suffix)
	assert.NotContains(t, *fired, "wp")
}

func TestHandle_RequestIsOnContext(t *testing.T) {
	bus := hook.New()
	rt := newRuntime(t, bus)
	req := host.NewRequest(host.KindPublic, "")

	var got host.Request
	var ok bool
	_, err := bus.AddAction(host.WPLoaded, hook.DefaultPriority, func(ctx context.Context, _ ...any) error {
		got, ok = host.RequestFromContext(ctx)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, rt.Handle(context.Background(), req))

	require.True(t, ok)
	assert.Equal(t, req.ID, got.ID)
}

func TestHandle_ErrorAbortsRequest(t *testing.T) {
	bus := hook.New()
	rt := newRuntime(t, bus)
	fired := record(t, bus, host.Sequence(host.KindPublic))
	boom := errors.New("fatal in init")

	_, err := bus.AddAction(host.Init, 0, func(context.Context, ...any) error { return boom })
	require.NoError(t, err)

	err = rt.Handle(context.Background(), host.NewRequest(host.KindPublic, ""))

	assert.Same(t, boom, err)
	assert.Equal(t, []string{"plugins_loaded", "setup_theme", "after_setup_theme"}, *fired)
}

func TestHandle_UnknownKind(t *testing.T) {
	rt := newRuntime(t, hook.New())

	err := rt.Handle(context.Background(), host.Request{Kind: "cron"})

	errutil.AssertErrorCode(t, err, host.CodeUnknownKind)
	assert.Zero(t, rt.Bus().DidAction(host.PluginsLoaded))
}

func TestActivateDeactivate(t *testing.T) {
	bus := hook.New()
	rt := newRuntime(t, bus)

	require.NoError(t, rt.Activate(context.Background(), "gnist/gnist.php"))
	require.NoError(t, rt.Deactivate(context.Background(), "gnist/gnist.php"))

	assert.Equal(t, 1, bus.DidAction("activate_gnist/gnist.php"))
	assert.Equal(t, 1, bus.DidAction("deactivate_gnist/gnist.php"))
}

func TestParseKind(t *testing.T) {
	k, err := host.ParseKind("admin")
	require.NoError(t, err)
	assert.Equal(t, host.KindAdmin, k)

	_, err = host.ParseKind("")
	errutil.AssertErrorCode(t, err, host.CodeUnknownKind)
}

func TestNewRequest_IDsAreMonotonic(t *testing.T) {
	a := host.NewRequest(host.KindPublic, "")
	b := host.NewRequest(host.KindPublic, "")
	assert.Equal(t, -1, a.ID.Compare(b.ID))
}

func TestSequence_UnknownKindIsBootOnly(t *testing.T) {
	assert.Len(t, host.Sequence("cron"), 5)
	assert.Len(t, host.Sequence(host.KindAdmin), 10)
}
