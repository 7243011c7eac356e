// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

// Package logging provides structured logging that carries the request, hook
// and trace of the dispatch a record was written from.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/gnistdesign/gnist/internal/hook"
	"github.com/gnistdesign/gnist/internal/host"
)

// dispatchHandler wraps a slog.Handler to add service and dispatch context.
type dispatchHandler struct {
	handler slog.Handler
	service string
	version string
}

// Handle adds service, request, hook and trace attributes to the record.
func (h *dispatchHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(
		slog.String("service", h.service),
		slog.String("version", h.version),
	)

	if req, ok := host.RequestFromContext(ctx); ok {
		r.AddAttrs(slog.String("request_id", req.ID.String()))
	}
	if current := hook.Current(ctx); current != "" {
		r.AddAttrs(slog.String("hook", current))
	}

	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", spanCtx.TraceID().String()))
	}
	if spanCtx.HasSpanID() {
		r.AddAttrs(slog.String("span_id", spanCtx.SpanID().String()))
	}

	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.handler.Handle(ctx, r)
}

// Enabled returns true if the level is enabled.
func (h *dispatchHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs returns a new handler with the given attributes.
func (h *dispatchHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dispatchHandler{
		handler: h.handler.WithAttrs(attrs),
		service: h.service,
		version: h.version,
	}
}

// WithGroup returns a new handler with the given group.
func (h *dispatchHandler) WithGroup(name string) slog.Handler {
	return &dispatchHandler{
		handler: h.handler.WithGroup(name),
		service: h.service,
		version: h.version,
	}
}

// Config selects the logger output.
type Config struct {
	Service string
	Version string
	// Format is "json" or "text"; anything else means json.
	Format string
	// Level is a slog level name ("debug", "info", "warn", "error").
	// Empty means info.
	Level string
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// Setup creates a configured slog.Logger writing to w, or os.Stderr if w is
// nil. An invalid level falls back to info.
func Setup(cfg Config, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if cfg.Format == "text" {
		base = slog.NewTextHandler(w, opts)
	} else {
		base = slog.NewJSONHandler(w, opts)
	}

	return slog.New(&dispatchHandler{
		handler: base,
		service: cfg.Service,
		version: cfg.Version,
	})
}

// SetDefault sets up the default logger and returns it.
func SetDefault(cfg Config, w io.Writer) *slog.Logger {
	logger := Setup(cfg, w)
	slog.SetDefault(logger)
	return logger
}
