package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/twsgraph/pkg/adapters/mcp"
	"github.com/aretw0/twsgraph/pkg/workspace"
)

// MCPOptions configure the mcp command.
type MCPOptions struct {
	Globals
	// Transport is "stdio" (default) or "sse".
	Transport string
	Port      int
}

// RunMCP serves the MCP tools until the transport closes or ctx is cancelled.
func RunMCP(ctx context.Context, opts MCPOptions) error {
	cfg, logger, err := opts.setup()
	if err != nil {
		return err
	}
	eng, err := createEngine(cfg, logger, opts.Debug)
	if err != nil {
		return err
	}
	backend, err := createBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.close()

	mgr := eng.Workspaces(backend.store, workspace.WithLocker(backend.locker))
	srv := mcp.NewServer(eng, mgr, mcp.WithLogger(logger))

	switch opts.Transport {
	case "", "stdio":
		logger.Info("Starting twsgraph MCP Server (Stdio)")
		return handleExecutionError(srv.ServeStdio())
	case "sse":
		logger.Info("Starting twsgraph MCP Server (SSE)", "port", opts.Port)
		return handleExecutionError(srv.ServeSSE(ctx, opts.Port))
	}
	return fmt.Errorf("unknown transport %q (supported: stdio, sse)", opts.Transport)
}
