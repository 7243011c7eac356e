// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

// Package relay mirrors host lifecycle signals into a private namespace.
//
// Dependent extensions subscribe to the namespaced signals ("gnist/init",
// "gnist/admin/scripts", ...) instead of the host's own, so their code only
// runs when this plugin is loaded. The mapping is the static table returned
// by Table; Attach registers it on a hook.Bus once.
package relay

import (
	"context"
	"strings"

	"github.com/gnistdesign/gnist/internal/hook"
	"github.com/gnistdesign/gnist/internal/host"
)

// Relay attaches the relay table to hook buses under one namespace.
type Relay struct {
	namespace  string
	pluginFile string
}

// Option configures a Relay.
type Option func(*Relay)

// WithNamespace sets the prefix of every emitted signal.
func WithNamespace(ns string) Option {
	return func(r *Relay) {
		r.namespace = strings.Trim(ns, "/")
	}
}

// WithPluginFile sets the plugin file used to build the host activation and
// deactivation signal names.
func WithPluginFile(file string) Option {
	return func(r *Relay) {
		r.pluginFile = file
	}
}

// New creates a relay. Empty option values fall back to the defaults.
func New(opts ...Option) *Relay {
	r := &Relay{}
	for _, opt := range opts {
		opt(r)
	}
	if r.namespace == "" {
		r.namespace = DefaultNamespace
	}
	if r.pluginFile == "" {
		r.pluginFile = DefaultPluginFile
	}
	return r
}

// Namespace returns the signal prefix.
func (r *Relay) Namespace() string {
	return r.namespace
}

// PluginFile returns the plugin file the activation signals are keyed on.
func (r *Relay) PluginFile() string {
	return r.pluginFile
}

// Name returns the namespaced form of a short signal name.
func (r *Relay) Name(short string) string {
	return r.namespace + "/" + short
}

// ActivationHook returns the host signal fired when the plugin is activated.
func (r *Relay) ActivationHook() string {
	return host.ActivationHook(r.pluginFile)
}

// DeactivationHook returns the host signal fired when the plugin is deactivated.
func (r *Relay) DeactivationHook() string {
	return host.DeactivationHook(r.pluginFile)
}

// Upstream returns the fully resolved signal name e listens to.
func (r *Relay) Upstream(e Entry) string {
	switch {
	case e.activation:
		return r.ActivationHook()
	case e.deactivation:
		return r.DeactivationHook()
	case e.Namespaced:
		return r.Name(e.Upstream)
	default:
		return e.Upstream
	}
}

// Route is a table entry with every signal name resolved.
type Route struct {
	Callback string
	Upstream string
	Priority int
	Emits    []string
	Filter   string
}

// Routes returns the resolved relay table in declaration order.
func (r *Relay) Routes() []Route {
	routes := make([]Route, len(table))
	for i, e := range table {
		route := Route{
			Callback: e.Callback,
			Upstream: r.Upstream(e),
			Priority: e.Priority,
			Emits:    r.names(e.Emits),
		}
		if e.AdminScreens {
			route.Filter = r.Name(AdminScreens)
		}
		routes[i] = route
	}
	return routes
}

func (r *Relay) owner() string {
	return "relay:" + r.namespace
}

// Attach registers the relay table on bus. A relay can be attached to a given
// bus once per namespace.
func (r *Relay) Attach(bus *hook.Bus) error {
	if bus == nil {
		return ErrNilBus()
	}
	if r.Attached(bus) {
		return ErrAlreadyAttached(r.namespace)
	}

	regs := make([]hook.Registration, 0, len(table))
	for _, e := range table {
		reg, err := bus.AddAction(r.Upstream(e), e.Priority, r.handler(bus, e), hook.Owner(r.owner()))
		if err != nil {
			for _, done := range regs {
				bus.Remove(done)
			}
			return ErrAttach(r.namespace, e.Callback, err)
		}
		regs = append(regs, reg)
	}
	return nil
}

// Attached reports whether this relay's namespace is attached to bus.
func (r *Relay) Attached(bus *hook.Bus) bool {
	if bus == nil {
		return false
	}
	for _, reg := range bus.Hooks(host.PluginsLoaded) {
		if reg.Owner == r.owner() {
			return true
		}
	}
	return false
}

// Detach removes every registration Attach added to bus and returns how many
// were removed.
func (r *Relay) Detach(bus *hook.Bus) int {
	if bus == nil {
		return 0
	}
	removed := 0
	for _, e := range table {
		for _, reg := range bus.Hooks(r.Upstream(e)) {
			if reg.Owner == r.owner() && bus.Remove(reg) {
				removed++
			}
		}
	}
	return removed
}

func (r *Relay) names(short []string) []string {
	out := make([]string, len(short))
	for i, s := range short {
		out[i] = r.Name(s)
	}
	return out
}

func (r *Relay) handler(bus *hook.Bus, e Entry) hook.ActionFunc {
	emits := r.names(e.Emits)

	if e.AdminScreens {
		screens := r.Name(AdminScreens)
		scripts := emits[0]
		return func(ctx context.Context, args ...any) error {
			var hookSuffix any = ""
			if len(args) > 0 {
				hookSuffix = args[0]
			}
			allowed, err := bus.ApplyFilters(ctx, screens, []string{})
			if err != nil {
				return err
			}
			return bus.DoAction(ctx, scripts, hookSuffix, allowed)
		}
	}

	return func(ctx context.Context, args ...any) error {
		for _, name := range emits {
			if err := bus.DoAction(ctx, name, args...); err != nil {
				return err
			}
		}
		return nil
	}
}
