// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package lua_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnistdesign/gnist/internal/extension"
	"github.com/gnistdesign/gnist/internal/extension/capability"
	extlua "github.com/gnistdesign/gnist/internal/extension/lua"
	"github.com/gnistdesign/gnist/internal/hook"
	"github.com/gnistdesign/gnist/internal/host"
	"github.com/gnistdesign/gnist/internal/relay"
	"github.com/gnistdesign/gnist/pkg/errutil"
)

// fixture is a Lua host with one extension loaded and an empty bus carrying
// the relay.
type fixture struct {
	host *extlua.Host
	bus  *hook.Bus
	logs *bytes.Buffer
}

func writeExtension(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.lua"), []byte(script), 0o600))
	return dir
}

func manifest(name string, hooks ...string) *extension.Manifest {
	return &extension.Manifest{
		Name:         name,
		Version:      "1.0.0",
		Type:         extension.TypeLua,
		Hooks:        hooks,
		LuaExtension: &extension.LuaConfig{Entry: "main.lua"},
	}
}

func newFixture(t *testing.T, script string, grants ...string) *fixture {
	t.Helper()

	enforcer := capability.NewEnforcer()
	require.NoError(t, enforcer.SetGrants("test-ext", grants))

	logs := &bytes.Buffer{}
	r := relay.New()
	h := extlua.NewHost(r, enforcer, extlua.WithLogger(slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	t.Cleanup(func() { _ = h.Close(context.Background()) })

	require.NoError(t, h.Load(context.Background(), manifest("test-ext", grants...), writeExtension(t, script)))

	bus := hook.New()
	require.NoError(t, r.Attach(bus))
	return &fixture{host: h, bus: bus, logs: logs}
}

func (f *fixture) attach(t *testing.T) *extlua.Attachment {
	t.Helper()
	closer, err := f.host.Attach(context.Background(), f.bus)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })
	a, ok := closer.(*extlua.Attachment)
	require.True(t, ok)
	return a
}

func TestHost_Load(t *testing.T) {
	t.Run("loads and lists extensions", func(t *testing.T) {
		f := newFixture(t, `-- nothing to do`)
		assert.Equal(t, []string{"test-ext"}, f.host.Extensions())
	})

	t.Run("syntax error", func(t *testing.T) {
		h := extlua.NewHost(relay.New(), nil)
		err := h.Load(context.Background(), manifest("broken"), writeExtension(t, `function (`))
		require.Error(t, err)
		errutil.AssertErrorContext(t, err, "extension", "broken")
		assert.Empty(t, h.Extensions())
	})

	t.Run("missing entry file", func(t *testing.T) {
		h := extlua.NewHost(relay.New(), nil)
		err := h.Load(context.Background(), manifest("missing"), t.TempDir())
		require.Error(t, err)
		errutil.AssertErrorContext(t, err, "operation", "load")
	})

	t.Run("missing lua section", func(t *testing.T) {
		h := extlua.NewHost(relay.New(), nil)
		m := manifest("bare")
		m.LuaExtension = nil
		assert.Error(t, h.Load(context.Background(), m, t.TempDir()))
	})

	t.Run("closed host", func(t *testing.T) {
		h := extlua.NewHost(relay.New(), nil)
		require.NoError(t, h.Close(context.Background()))
		err := h.Load(context.Background(), manifest("late"), writeExtension(t, ``))
		errutil.AssertErrorCode(t, err, extlua.CodeHostClosed)
	})
}

func TestHost_Unload(t *testing.T) {
	f := newFixture(t, ``)

	require.NoError(t, f.host.Unload(context.Background(), "test-ext"))
	assert.Empty(t, f.host.Extensions())

	err := f.host.Unload(context.Background(), "test-ext")
	errutil.AssertErrorCode(t, err, extlua.CodeNotLoaded)
}

func TestHost_NewHostPanicsWithoutNamer(t *testing.T) {
	assert.Panics(t, func() { extlua.NewHost(nil, nil) })
}

func TestHost_ActionRunsOnRelayedSignal(t *testing.T) {
	f := newFixture(t, `
gnist.add_action("init", function()
    gnist.log("info", "booting " .. gnist.extension)
end)
`, "init")
	f.attach(t)

	req := host.NewRequest(host.KindPublic, "")
	ctx := host.WithRequest(context.Background(), req)
	require.NoError(t, f.bus.DoAction(ctx, host.Init))

	out := f.logs.String()
	assert.Contains(t, out, `msg="booting test-ext"`)
	assert.Contains(t, out, "extension=test-ext")
	assert.Contains(t, out, "hook=gnist/init")
	assert.Contains(t, out, "request_id="+req.ID.String())
}

func TestHost_FilterFeedsAdminScripts(t *testing.T) {
	f := newFixture(t, `
gnist.add_filter("admin/screens", function(screens)
    table.insert(screens, "toplevel_page_gnist")
    return screens
end)
`, "admin/*")
	f.attach(t)

	var got []any
	_, err := f.bus.AddAction("gnist/admin/scripts", hook.DefaultPriority, func(_ context.Context, args ...any) error {
		got = args
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, f.bus.DoAction(context.Background(), host.AdminEnqueueScripts, "toplevel_page_gnist"))

	assert.Equal(t, []any{"toplevel_page_gnist", []string{"toplevel_page_gnist"}}, got)
}

func TestHost_FilterPriorityAndNilReturn(t *testing.T) {
	f := newFixture(t, `
gnist.add_filter("labels", function(labels)
    table.insert(labels, "lua")
    return labels
end, 5)
gnist.add_filter("labels", function(labels)
    return nil
end, 20)
`, "labels")
	f.attach(t)

	_, err := f.bus.AddFilter("gnist/labels", 10, func(_ context.Context, v any, _ ...any) (any, error) {
		return append(v.([]string), "go"), nil
	})
	require.NoError(t, err)

	got, err := f.bus.ApplyFilters(context.Background(), "gnist/labels", []string{})
	require.NoError(t, err)
	assert.Equal(t, []string{"lua", "go"}, got)
}

func TestHost_ModuleFunctions(t *testing.T) {
	f := newFixture(t, `
gnist.add_filter("probe", function(_, extra)
    return {
        current = gnist.current_hook(),
        loaded = gnist.did_action("loaded"),
        request = gnist.request_id(),
        name = gnist.name("setup_globals"),
        extra = extra,
        fresh = string.len(gnist.new_request_id()),
    }
end)
`, "probe")
	f.attach(t)

	for range 2 {
		require.NoError(t, f.bus.DoAction(context.Background(), host.PluginsLoaded))
	}

	req := host.NewRequest(host.KindAdmin, "edit.php")
	got, err := f.bus.ApplyFilters(host.WithRequest(context.Background(), req), "gnist/probe", nil, "x")
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"current": "gnist/probe",
		"loaded":  2,
		"request": req.ID.String(),
		"name":    "gnist/setup_globals",
		"extra":   "x",
		"fresh":   26,
	}, got)
}

func TestHost_DeniedHook(t *testing.T) {
	f := newFixture(t, `
gnist.add_filter("admin/screens", function(s) return s end)
gnist.add_action("setup_globals", function() end)
`, "admin/*")

	_, err := f.host.Attach(context.Background(), f.bus)

	errutil.AssertErrorCode(t, err, extlua.CodeHookDenied)
	errutil.AssertErrorContext(t, err, "hook", "setup_globals")
	assert.False(t, f.bus.HasHook("gnist/admin/screens"), "partial subscriptions are rolled back")
}

func TestHost_CaughtDenialDoesNotMaskLaterErrors(t *testing.T) {
	t.Run("script keeps running after catching the denial", func(t *testing.T) {
		f := newFixture(t, `
local ok = pcall(gnist.add_action, "setup_globals", function() end)
assert(not ok)
gnist.add_filter("admin/screens", function(s) return s end)
`, "admin/*")

		f.attach(t)

		assert.True(t, f.bus.HasHook("gnist/admin/screens"))
		assert.False(t, f.bus.HasHook("gnist/setup_globals"))
	})

	t.Run("later failure is reported as a script failure", func(t *testing.T) {
		f := newFixture(t, `
pcall(gnist.add_action, "setup_globals", function() end)
error("unrelated failure")
`, "admin/*")

		_, err := f.host.Attach(context.Background(), f.bus)

		errutil.AssertErrorCode(t, err, extlua.CodeScriptFailed)
		assert.Contains(t, err.Error(), "unrelated failure")
	})
}

func TestHost_ScriptErrors(t *testing.T) {
	t.Run("top level error fails the attach", func(t *testing.T) {
		f := newFixture(t, `error("no")`)
		_, err := f.host.Attach(context.Background(), f.bus)
		errutil.AssertErrorCode(t, err, extlua.CodeScriptFailed)
	})

	t.Run("sandbox has no os library", func(t *testing.T) {
		f := newFixture(t, `os.exit(1)`)
		_, err := f.host.Attach(context.Background(), f.bus)
		errutil.AssertErrorCode(t, err, extlua.CodeScriptFailed)
	})

	t.Run("handler error aborts the dispatch", func(t *testing.T) {
		f := newFixture(t, `gnist.add_action("setup_requirements", function() error("requirements missing") end)`, "setup_*")
		f.attach(t)

		var after bool
		_, err := f.bus.AddAction("gnist/requirements_included", 10, func(context.Context, ...any) error {
			after = true
			return nil
		})
		require.NoError(t, err)

		err = f.bus.DoAction(context.Background(), host.Init)

		errutil.AssertErrorCode(t, err, extlua.CodeHandlerFailed)
		errutil.AssertErrorContext(t, err, "hook", "gnist/setup_requirements")
		assert.False(t, after)
	})
}

func TestHost_AttachmentClose(t *testing.T) {
	f := newFixture(t, `
gnist.add_action("wp/head", function() end)
gnist.add_action("wp/footer", function() end)
`, "wp/*")
	a := f.attach(t)

	assert.Equal(t, []string{"test-ext"}, a.Extensions())
	regs := f.bus.Hooks("gnist/wp/head")
	require.Len(t, regs, 1)
	assert.Equal(t, "extension:test-ext", regs[0].Owner)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	assert.False(t, f.bus.HasHook("gnist/wp/head"))
	assert.False(t, f.bus.HasHook("gnist/wp/footer"))
}

func TestHost_AttachIsolatedPerBus(t *testing.T) {
	f := newFixture(t, `
count = 0
gnist.add_filter("count", function()
    count = count + 1
    return count
end)
`, "count")
	f.attach(t)

	other := hook.New()
	closer, err := f.host.Attach(context.Background(), other)
	require.NoError(t, err)
	defer closer.Close()

	for range 3 {
		_, err := f.bus.ApplyFilters(context.Background(), "gnist/count", 0)
		require.NoError(t, err)
	}
	got, err := other.ApplyFilters(context.Background(), "gnist/count", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestHost_ConcurrentDispatch(t *testing.T) {
	f := newFixture(t, `
gnist.add_filter("double", function(n) return n * 2 end)
`, "double")
	f.attach(t)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := f.bus.ApplyFilters(context.Background(), "gnist/double", i)
			assert.NoError(t, err)
			assert.Equal(t, i*2, got)
		}()
	}
	wg.Wait()
}

func TestHost_AttachAfterClose(t *testing.T) {
	f := newFixture(t, ``)
	require.NoError(t, f.host.Close(context.Background()))

	_, err := f.host.Attach(context.Background(), f.bus)
	errutil.AssertErrorCode(t, err, extlua.CodeHostClosed)
}
