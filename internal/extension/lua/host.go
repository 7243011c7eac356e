// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package lua

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/gnistdesign/gnist/internal/extension"
	"github.com/gnistdesign/gnist/internal/extension/capability"
	"github.com/gnistdesign/gnist/internal/hook"
)

// Compile-time interface check.
var _ extension.Host = (*Host)(nil)

// Namer resolves a short hook name inside the relay namespace.
type Namer interface {
	Name(short string) string
}

// luaExtension holds the compiled entry chunk of one extension.
type luaExtension struct {
	manifest *extension.Manifest
	proto    *lua.FunctionProto
}

// Host runs Lua extensions against hook buses.
type Host struct {
	factory    *StateFactory
	namer      Namer
	enforcer   *capability.Enforcer
	logger     *slog.Logger
	extensions map[string]*luaExtension
	mu         sync.RWMutex
	closed     bool
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger scripts write to through gnist.log.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		h.logger = l
	}
}

// NewHost creates a Lua extension host. Hook names passed to gnist.add_action
// and gnist.add_filter are checked against enforcer and resolved with namer.
// A nil enforcer denies every subscription. Panics if namer is nil.
func NewHost(namer Namer, enforcer *capability.Enforcer, opts ...Option) *Host {
	if namer == nil {
		panic("lua.NewHost: namer cannot be nil")
	}
	if enforcer == nil {
		enforcer = capability.NewEnforcer()
	}
	h := &Host{
		factory:    NewStateFactory(),
		namer:      namer,
		enforcer:   enforcer,
		logger:     slog.Default(),
		extensions: make(map[string]*luaExtension),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load reads and compiles the extension's entry script.
func (h *Host) Load(_ context.Context, manifest *extension.Manifest, dir string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errHostClosed(manifest.Name, "load")
	}
	if manifest.LuaExtension == nil {
		return oops.In("lua").With("extension", manifest.Name).With("operation", "load").New("manifest has no lua-extension section")
	}

	entryPath := filepath.Join(dir, manifest.LuaExtension.Entry)
	code, err := os.ReadFile(filepath.Clean(entryPath))
	if err != nil {
		return oops.In("lua").With("extension", manifest.Name).With("operation", "load").With("path", entryPath).Hint("failed to read entry file").Wrap(err)
	}

	proto, err := compile(string(code), manifest.LuaExtension.Entry)
	if err != nil {
		return oops.In("lua").With("extension", manifest.Name).With("operation", "load").With("entry", manifest.LuaExtension.Entry).Hint("syntax error").Wrap(err)
	}

	h.extensions[manifest.Name] = &luaExtension{
		manifest: manifest,
		proto:    proto,
	}
	return nil
}

func compile(code, name string) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(strings.NewReader(code), name)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by caller
	}
	return lua.Compile(chunk, name) //nolint:wrapcheck // wrapped by caller
}

// Unload forgets an extension. Buses it is attached to are unaffected until
// their attachment is closed.
func (h *Host) Unload(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.extensions[name]; !ok {
		return errNotLoaded(name)
	}
	delete(h.extensions, name)
	return nil
}

// Attach runs every loaded extension's entry script in a fresh state bound
// to bus, in extension name order. Scripts subscribe to hooks while they
// run; the handlers stay registered until the returned attachment is
// closed. If any script fails, everything attached so far is undone.
func (h *Host) Attach(ctx context.Context, bus *hook.Bus) (io.Closer, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return nil, errHostClosed("", "attach")
	}
	exts := make([]*luaExtension, 0, len(h.extensions))
	for _, ext := range h.extensions {
		exts = append(exts, ext)
	}
	h.mu.RUnlock()

	sort.Slice(exts, func(i, j int) bool {
		return exts[i].manifest.Name < exts[j].manifest.Name
	})

	a := &Attachment{bus: bus}
	for _, ext := range exts {
		rt, err := h.start(ctx, bus, ext)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.runtimes = append(a.runtimes, rt)
	}
	return a, nil
}

func (h *Host) start(ctx context.Context, bus *hook.Bus, ext *luaExtension) (*runtime, error) {
	name := ext.manifest.Name

	L, err := h.factory.NewState(ctx)
	if err != nil {
		return nil, oops.In("lua").With("extension", name).With("operation", "attach").Hint("failed to create state").Wrap(err)
	}

	rt := &runtime{
		name:   name,
		state:  L,
		bus:    bus,
		host:   h,
		ctx:    ctx,
		logger: h.logger.With("extension", name),
	}
	rt.register()

	rt.mu.Lock()
	L.Push(L.NewFunctionFromProto(ext.proto))
	err = L.PCall(0, lua.MultRet, nil)
	L.SetTop(0)
	rt.mu.Unlock()
	denied := rt.denied
	rt.denied = nil
	if err != nil {
		rt.close()
		if denied != nil && strings.Contains(err.Error(), denied.Error()) {
			return nil, denied
		}
		return nil, oops.In("lua").Code(CodeScriptFailed).With("extension", name).With("operation", "attach").Wrap(err)
	}
	return rt, nil
}

// Extensions returns names of loaded extensions, sorted.
func (h *Host) Extensions() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.extensions))
	for name := range h.extensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close shuts down the host. Open attachments must be closed by their owners.
func (h *Host) Close(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.extensions = nil
	return nil
}

// Attachment is the set of extension runtimes bound to one bus.
type Attachment struct {
	bus      *hook.Bus
	runtimes []*runtime
	once     sync.Once
}

// Extensions returns the names of the attached extensions in attach order.
func (a *Attachment) Extensions() []string {
	names := make([]string, len(a.runtimes))
	for i, rt := range a.runtimes {
		names[i] = rt.name
	}
	return names
}

// Close removes every hook the extensions registered and releases their
// Lua states. It is safe to call more than once.
func (a *Attachment) Close() error {
	a.once.Do(func() {
		for _, rt := range a.runtimes {
			rt.close()
		}
	})
	return nil
}
