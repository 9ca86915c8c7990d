package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/twsgraph/internal/presentation/tui"
	httpAdapter "github.com/aretw0/twsgraph/pkg/adapters/http"
	"github.com/aretw0/twsgraph/pkg/observability"
	"github.com/aretw0/twsgraph/pkg/workspace"
)

// ShutdownTimeout bounds how long in-flight requests may run after a stop.
const ShutdownTimeout = 5 * time.Second

// ServeOptions configure the serve command.
type ServeOptions struct {
	Globals
	// Port overrides server.port when positive.
	Port int
	// Quiet suppresses the banner.
	Quiet bool
	// Ready, when set, receives the listening address once the server accepts
	// connections.
	Ready func(addr string)
}

// RunServe exposes the HTTP API until ctx is cancelled, then shuts down
// gracefully.
func RunServe(ctx context.Context, opts ServeOptions, w io.Writer) error {
	cfg, logger, err := opts.setup()
	if err != nil {
		return err
	}
	port := cfg.Server.Port
	if opts.Port > 0 {
		port = opts.Port
	}

	metrics := observability.NewMetrics()
	eng, err := createEngine(cfg, logger, opts.Debug, metrics.Hooks())
	if err != nil {
		return err
	}
	backend, err := createBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.close()

	mgr := eng.Workspaces(backend.store, workspace.WithLocker(backend.locker))
	handler := httpAdapter.NewHandler(mgr,
		httpAdapter.WithMetrics(metrics.Handler()),
		httpAdapter.WithLogger(logger),
	)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Serve(ln)
	}()

	addr := ln.Addr().String()
	if !opts.Quiet {
		tui.PrintBanner(w, "HTTP API listening on "+addr)
	}
	logger.Info("Server started", "addr", addr)
	if opts.Ready != nil {
		opts.Ready(addr)
	}

	select {
	case err := <-serverErrors:
		return handleExecutionError(err)
	case <-ctx.Done():
		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			return errors.Join(err, srv.Close())
		}
		if !opts.Quiet {
			printSystemMessage(w, "Server stopped gracefully")
		}
		return nil
	}
}
