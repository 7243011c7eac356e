// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gnistdesign/gnist/internal/extension"
	"github.com/gnistdesign/gnist/internal/extension/capability"
	extlua "github.com/gnistdesign/gnist/internal/extension/lua"
	"github.com/gnistdesign/gnist/internal/hook"
	"github.com/gnistdesign/gnist/internal/host"
	"github.com/gnistdesign/gnist/internal/observability"
	"github.com/gnistdesign/gnist/internal/relay"
)

// engineVersion is the version extension requires constraints are checked
// against.
const engineVersion = "1.0.0"

// engine owns the relay and the loaded extensions. Every request runs on a
// bus of its own.
type engine struct {
	cfg     *Config
	relay   *relay.Relay
	manager *extension.Manager
	metrics *observability.Metrics
	logger  *slog.Logger
}

// newEngine checks the host environment and loads extensions. metrics may
// be nil.
func newEngine(ctx context.Context, cfg *Config, logger *slog.Logger, metrics *observability.Metrics) (*engine, error) {
	if _, err := host.New(cfg.Root, hook.New()); err != nil {
		return nil, err //nolint:wrapcheck // oops error carries the code
	}

	r := relay.New(relay.WithNamespace(cfg.Namespace), relay.WithPluginFile(cfg.PluginFile))
	enforcer := capability.NewEnforcer()
	luaHost := extlua.NewHost(r, enforcer, extlua.WithLogger(logger))

	manager, err := extension.NewManager(cfg.ExtensionsDir, engineVersion,
		extension.WithHost(luaHost),
		extension.WithEnforcer(enforcer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create extension manager: %w", err)
	}
	if err := manager.LoadAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to load extensions: %w", err)
	}

	logger.Info("engine ready",
		"namespace", r.Namespace(),
		"root", cfg.Root,
		"extensions_dir", cfg.ExtensionsDir,
		"extensions", manager.List())

	return &engine{
		cfg:     cfg,
		relay:   r,
		manager: manager,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// Close unloads every extension.
func (e *engine) Close(ctx context.Context) error {
	return e.manager.Close(ctx) //nolint:wrapcheck // already wrapped by manager
}

// runOptions selects what a single run fires.
type runOptions struct {
	kind       host.Kind
	hookSuffix string
	activate   bool
	deactivate bool
}

// run builds a fresh bus with the relay, extensions and a trace recorder,
// then drives one request through it. The trace is returned even when the
// request aborts.
func (e *engine) run(ctx context.Context, opts runOptions) (*trace, error) {
	var busOpts []hook.Option
	if e.metrics != nil {
		busOpts = append(busOpts, hook.WithObserver(e.metrics))
	}
	bus := hook.New(busOpts...)

	rt, err := host.New(e.cfg.Root, bus, host.WithLogger(e.logger))
	if err != nil {
		return nil, err //nolint:wrapcheck // oops error carries the code
	}

	tr, err := newTrace(e.relay, bus)
	if err != nil {
		return nil, err
	}
	if err := e.relay.Attach(bus); err != nil {
		return nil, err //nolint:wrapcheck // oops error carries the code
	}
	attachment, err := e.manager.Attach(ctx, bus)
	if err != nil {
		return nil, fmt.Errorf("failed to attach extensions: %w", err)
	}
	defer func() {
		if closeErr := attachment.Close(); closeErr != nil {
			e.logger.Warn("failed to detach extensions", "error", closeErr)
		}
	}()

	start := time.Now()
	err = e.fire(ctx, rt, opts)
	if e.metrics != nil {
		e.metrics.ObserveRequest(string(opts.kind), time.Since(start), err)
	}
	return tr, err
}

func (e *engine) fire(ctx context.Context, rt *host.Runtime, opts runOptions) error {
	if opts.activate {
		if err := rt.Activate(ctx, e.relay.PluginFile()); err != nil {
			return err //nolint:wrapcheck // handler errors propagate unchanged
		}
	}
	if err := rt.Handle(ctx, host.NewRequest(opts.kind, opts.hookSuffix)); err != nil {
		return err //nolint:wrapcheck // handler errors propagate unchanged
	}
	if opts.deactivate {
		return rt.Deactivate(ctx, e.relay.PluginFile()) //nolint:wrapcheck // handler errors propagate unchanged
	}
	return nil
}
