// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gnist Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gnistdesign/gnist/internal/host"
	"github.com/gnistdesign/gnist/internal/observability"
	"github.com/gnistdesign/gnist/pkg/errutil"
)

// Default values for serve flags.
const (
	defaultListenAddr  = "127.0.0.1:8080"
	defaultMetricsAddr = "127.0.0.1:9100"
)

// adminPrefix marks admin requests; the rest of the path is the hook suffix.
const adminPrefix = "/wp-admin/"

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve host requests over HTTP",
		Long: `Run an HTTP host where every request gets a fresh hook bus, the relay and
the loaded extensions, and runs one full lifecycle. Paths under /wp-admin/
run the admin lifecycle; everything else runs the public one. The response
is the trace of relayed hooks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd)
		},
	}

	cmd.Flags().String("listen-addr", defaultListenAddr, "HTTP listen address")
	cmd.Flags().String("metrics-addr", defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.ListenAddr == "" {
		return fmt.Errorf("invalid configuration: listen-addr is required")
	}
	logger := setupLogging(cfg, cmd.ErrOrStderr())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var ready atomic.Bool
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, ready.Load)
		metrics = obsServer.Metrics()
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
	}

	eng, err := newEngine(ctx, cfg, logger, metrics)
	if err != nil {
		stopObservability(obsServer)
		errutil.LogErrorContext(ctx, logger, "engine failed to start", err)
		return err
	}
	defer func() {
		if closeErr := eng.Close(context.Background()); closeErr != nil {
			logger.Warn("failed to close engine", "error", closeErr)
		}
	}()

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		stopObservability(obsServer)
		return fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddr, err)
	}

	httpSrv := &http.Server{
		Handler:           eng,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	ready.Store(true)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("gnist host listening on " + listener.Addr().String())
	logger.Info("host ready", "addr", listener.Addr().String(), "metrics_addr", cfg.MetricsAddr)

	var serveErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err, ok := <-errCh:
		if ok {
			serveErr = fmt.Errorf("http server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	ready.Store(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping http server", "error", err)
	}
	stopObservability(obsServer)

	logger.Info("shutdown complete")
	return serveErr
}

// ServeHTTP runs one lifecycle for the request and writes its trace.
func (e *engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	kind, hookSuffix := classify(r.URL.Path)

	tr, err := e.run(r.Context(), runOptions{kind: kind, hookSuffix: hookSuffix})
	if err != nil {
		errutil.LogErrorContext(r.Context(), e.logger.With("path", r.URL.Path), "request aborted", err)
		http.Error(w, "request aborted", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // client may have gone away
	tr.WriteTo(w)
}

// classify maps a request path to a request kind and admin hook suffix.
func classify(path string) (host.Kind, string) {
	if path == strings.TrimSuffix(adminPrefix, "/") || strings.HasPrefix(path, adminPrefix) {
		suffix := strings.TrimPrefix(strings.TrimPrefix(path, strings.TrimSuffix(adminPrefix, "/")), "/")
		if suffix == "" {
			suffix = "index.php"
		}
		return host.KindAdmin, suffix
	}
	return host.KindPublic, ""
}

func stopObservability(s *observability.Server) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}
}

// monitorServerErrors cancels ctx when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
