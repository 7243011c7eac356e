// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

// Package host drives a hook bus the way the CMS host runtime does: every
// request fires the boot signals and then the front-end or admin signals,
// synchronously and in host order.
package host

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/samber/oops"

	"github.com/gnistdesign/gnist/internal/hook"
)

// Runtime fires host lifecycle signals on one bus.
type Runtime struct {
	root   string
	bus    *hook.Bus
	logger *slog.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// New creates a runtime rooted at the host installation directory root.
// An empty root, or one that does not exist, is the missing environment
// guard: the runtime refuses to start.
func New(root string, bus *hook.Bus, opts ...Option) (*Runtime, error) {
	if root == "" {
		return nil, ErrNoEnvironment()
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, oops.In("host").
			Code(CodeNoEnvironment).
			With("root", root).
			Wrapf(err, "host root")
	}
	if !info.IsDir() {
		return nil, oops.In("host").
			Code(CodeNoEnvironment).
			With("root", root).
			Errorf("host root %s is not a directory", root)
	}
	if bus == nil {
		return nil, ErrNilBus()
	}

	rt := &Runtime{
		root:   root,
		bus:    bus,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt, nil
}

// Root returns the host installation directory.
func (rt *Runtime) Root() string {
	return rt.root
}

// Bus returns the bus the runtime fires on.
func (rt *Runtime) Bus() *hook.Bus {
	return rt.bus
}

// Handle runs the full lifecycle for req. The first handler error aborts the
// rest of the request and is returned unchanged.
func (rt *Runtime) Handle(ctx context.Context, req Request) error {
	if _, err := ParseKind(string(req.Kind)); err != nil {
		return err
	}

	ctx = WithRequest(ctx, req)
	log := rt.logger.With("request_id", req.ID.String(), "kind", string(req.Kind))
	start := time.Now()

	for _, step := range Sequence(req.Kind) {
		log.DebugContext(ctx, "firing host signal", "hook", step.Hook)

		var err error
		if step.HookSuffix {
			err = rt.bus.DoAction(ctx, step.Hook, req.HookSuffix)
		} else {
			err = rt.bus.DoAction(ctx, step.Hook)
		}
		if err != nil {
			log.WarnContext(ctx, "request aborted", "hook", step.Hook, "error", err)
			return err
		}
	}

	log.InfoContext(ctx, "request complete", "duration", time.Since(start))
	return nil
}

// Activate fires the activation signal for pluginFile.
func (rt *Runtime) Activate(ctx context.Context, pluginFile string) error {
	return rt.fireOnce(ctx, ActivationHook(pluginFile))
}

// Deactivate fires the deactivation signal for pluginFile.
func (rt *Runtime) Deactivate(ctx context.Context, pluginFile string) error {
	return rt.fireOnce(ctx, DeactivationHook(pluginFile))
}

func (rt *Runtime) fireOnce(ctx context.Context, name string) error {
	rt.logger.InfoContext(ctx, "firing host signal", "hook", name)
	return rt.bus.DoAction(ctx, name)
}
