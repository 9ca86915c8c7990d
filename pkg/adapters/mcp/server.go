package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/twsgraph"
	"github.com/aretw0/twsgraph/internal/logging"
	"github.com/aretw0/twsgraph/internal/presentation/graph"
	"github.com/aretw0/twsgraph/pkg/catalog"
	"github.com/aretw0/twsgraph/pkg/detail"
	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/aretw0/twsgraph/pkg/ports"
	"github.com/aretw0/twsgraph/pkg/reach"
	"github.com/aretw0/twsgraph/pkg/workspace"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// WorkspacesURI is the resource listing the loaded workspaces.
const WorkspacesURI = "twsgraph://workspaces"

// LoadResponse describes a workspace after loading or appending data.
type LoadResponse struct {
	WorkspaceID  string         `json:"workspace_id" jsonschema_description:"Identifier to pass to the other tools"`
	NetName      string         `json:"net_name" jsonschema_description:"Network derived from the operations file name"`
	NetNameError string         `json:"net_name_error,omitempty" jsonschema_description:"Why no network name could be derived"`
	Summary      domain.Summary `json:"summary" jsonschema_description:"Record counts per input"`
	Warnings     []string       `json:"warnings,omitempty" jsonschema_description:"Auxiliary files that were skipped"`
}

// GraphResponse carries a graph in JSON form, or as Mermaid text when requested.
type GraphResponse struct {
	Nodes   int           `json:"nodes" jsonschema_description:"Number of nodes"`
	Links   int           `json:"links" jsonschema_description:"Number of links"`
	Graph   *domain.Graph `json:"graph,omitempty" jsonschema_description:"Nodes and links"`
	Mermaid string        `json:"mermaid,omitempty" jsonschema_description:"Mermaid flowchart of the graph"`
}

// NodeResponse is the detail view of a node.
type NodeResponse struct {
	Detail   detail.Detail `json:"detail" jsonschema_description:"Fields and dependencies of the node"`
	Markdown string        `json:"markdown" jsonschema_description:"The same detail rendered as markdown"`
}

// LoadArgs are the arguments of load_network.
type LoadArgs struct {
	Directory string   `json:"directory"`
	Paths     []string `json:"paths"`
}

// AppendArgs are the arguments of append_additional.
type AppendArgs struct {
	WorkspaceID string   `json:"workspace_id"`
	Paths       []string `json:"paths"`
	Net         string   `json:"net"`
}

// BuildArgs are the arguments of build_graph.
type BuildArgs struct {
	WorkspaceID         string   `json:"workspace_id"`
	Excluded            []string `json:"excluded"`
	Types               []string `json:"types"`
	IncludeUnknownTypes bool     `json:"include_unknown_types"`
	Mode                string   `json:"mode"`
	Net                 string   `json:"net"`
	Format              string   `json:"format"`
}

// FilterArgs are the arguments of filter_graph.
type FilterArgs struct {
	WorkspaceID string `json:"workspace_id"`
	Focus       string `json:"focus"`
	Format      string `json:"format"`
}

// WorkspaceArgs carry only a workspace id.
type WorkspaceArgs struct {
	WorkspaceID string `json:"workspace_id"`
}

// DescribeArgs are the arguments of describe_node.
type DescribeArgs struct {
	WorkspaceID string `json:"workspace_id"`
	NodeID      string `json:"node_id"`
}

// Server exposes twsgraph workspaces as an MCP Server.
type Server struct {
	engine    *twsgraph.Engine
	manager   *workspace.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance. engine classifies and loads
// files, manager keeps the resulting workspaces.
func NewServer(engine *twsgraph.Engine, manager *workspace.Manager, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		manager:   manager,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("twsgraph-mcp", strings.TrimSpace(twsgraph.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		// Create a timeout context for the graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func stringArray(name, description string, opts ...mcp.PropertyOption) mcp.ToolOption {
	opts = append(opts, mcp.Description(description), mcp.Items(map[string]any{"type": "string"}))
	return mcp.WithArray(name, opts...)
}

func (s *Server) registerTools() {
	workspaceID := mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace returned by load_network"))
	format := mcp.WithString("format", mcp.Description(`"json" (default) or "mermaid"`))

	// TOOL: load_network
	s.mcpServer.AddTool(mcp.NewTool("load_network",
		mcp.WithDescription("Load the CSV exports of a scheduler network into a new workspace. "+
			"Files are assigned to roles by name; unmatched files become auxiliary details."),
		mcp.WithString("directory", mcp.Description("Directory holding the exports (ignored when paths is set)")),
		stringArray("paths", "Explicit export file paths"),
		mcp.WithOutputSchema[LoadResponse](),
	), mcp.NewStructuredToolHandler(s.handleLoadNetwork))

	// TOOL: append_additional
	s.mcpServer.AddTool(mcp.NewTool("append_additional",
		mcp.WithDescription("Append detail files for jobs of other networks. The graph is rebuilt if one exists."),
		workspaceID,
		stringArray("paths", "Detail file paths", mcp.Required()),
		mcp.WithString("net", mcp.Description("Network of rows that do not name one")),
		mcp.WithOutputSchema[LoadResponse](),
	), mcp.NewStructuredToolHandler(s.handleAppendAdditional))

	// TOOL: build_graph
	s.mcpServer.AddTool(mcp.NewTool("build_graph",
		mcp.WithDescription("Build the dependency graph of a workspace."),
		workspaceID,
		stringArray("excluded", "Job names to leave out"),
		stringArray("types", "Operation types to keep (all when empty)"),
		mcp.WithBoolean("include_unknown_types", mcp.Description("Also keep operations without a type when types is set")),
		mcp.WithString("mode", mcp.Description(`"full" (default) or "external-predecessors-only"`)),
		mcp.WithString("net", mcp.Description("Network name, when the operations file name does not carry one")),
		format,
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleBuildGraph))

	// TOOL: filter_graph
	s.mcpServer.AddTool(mcp.NewTool("filter_graph",
		mcp.WithDescription("Restrict the last built graph to the jobs upstream and downstream of a focus job."),
		workspaceID,
		mcp.WithString("focus", mcp.Description("Node id, or job name matched case-insensitively; empty returns the whole graph")),
		format,
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleFilterGraph))

	// TOOL: list_jobs
	s.mcpServer.AddTool(mcp.NewTool("list_jobs",
		mcp.WithDescription("List the job names, operation types and external networks of a workspace."),
		workspaceID,
		mcp.WithOutputSchema[catalog.Catalog](),
	), mcp.NewStructuredToolHandler(s.handleListJobs))

	// TOOL: describe_node
	s.mcpServer.AddTool(mcp.NewTool("describe_node",
		mcp.WithDescription("Describe a node of the last built graph and its external dependencies."),
		workspaceID,
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id, e.g. JOB or NET/JOB")),
		mcp.WithOutputSchema[NodeResponse](),
	), mcp.NewStructuredToolHandler(s.handleDescribeNode))
}

// Handler methods for structured tools

func (s *Server) handleLoadNetwork(ctx context.Context, request mcp.CallToolRequest, args LoadArgs) (LoadResponse, error) {
	var (
		files ports.InputFiles
		err   error
	)
	switch {
	case len(args.Paths) > 0:
		files, err = s.engine.Classifier().Collect(args.Paths)
	case args.Directory != "":
		files, err = s.engine.Classifier().ScanDir(args.Directory)
	default:
		return LoadResponse{}, errors.New("either directory or paths is required")
	}
	if err != nil {
		return LoadResponse{}, err
	}

	ws, auxErrs, err := s.manager.Create(ctx, files)
	if err != nil {
		return LoadResponse{}, fmt.Errorf("load failed: %w", err)
	}
	s.logger.Info("MCP: Network loaded", "workspace_id", ws.ID, "net", ws.Dataset.NetName)
	return loadResponse(ws, auxErrs), nil
}

func (s *Server) handleAppendAdditional(ctx context.Context, request mcp.CallToolRequest, args AppendArgs) (LoadResponse, error) {
	if len(args.Paths) == 0 {
		return LoadResponse{}, errors.New("paths is required")
	}
	sources := make([]ports.Source, len(args.Paths))
	for i, p := range args.Paths {
		sources[i] = ports.FileSource{Path: p}
	}
	ws, auxErrs, err := s.manager.AppendAuxiliary(ctx, args.WorkspaceID, strings.TrimSpace(args.Net), sources)
	if err != nil {
		return LoadResponse{}, fmt.Errorf("append failed: %w", err)
	}
	return loadResponse(ws, auxErrs), nil
}

func (s *Server) handleBuildGraph(ctx context.Context, request mcp.CallToolRequest, args BuildArgs) (GraphResponse, error) {
	mode, err := domain.ParseMode(args.Mode)
	if err != nil {
		return GraphResponse{}, err
	}
	g, err := s.manager.Build(ctx, args.WorkspaceID, domain.BuildOptions{
		NetName:             strings.TrimSpace(args.Net),
		Excluded:            domain.NewSet(args.Excluded...),
		SelectedTypes:       domain.NewSet(args.Types...),
		IncludeUnknownTypes: args.IncludeUnknownTypes,
		Mode:                mode,
	})
	if err != nil {
		return GraphResponse{}, fmt.Errorf("build failed: %w", err)
	}
	return graphResponse(g, "", args.Format), nil
}

func (s *Server) handleFilterGraph(ctx context.Context, request mcp.CallToolRequest, args FilterArgs) (GraphResponse, error) {
	ws, err := s.manager.Get(ctx, args.WorkspaceID)
	if err != nil {
		return GraphResponse{}, err
	}
	if ws.Graph == nil {
		return GraphResponse{}, fmt.Errorf("%w: call build_graph first", domain.ErrNoGraph)
	}

	term, err := reach.SanitizeTerm(args.Focus)
	if err != nil {
		return GraphResponse{}, err
	}
	if term == "" {
		return graphResponse(ws.Graph, "", args.Format), nil
	}
	focus, ok := reach.Match(ws.Graph, term)
	if !ok {
		return GraphResponse{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, term)
	}
	g := s.manager.Filterer().Filter(ctx, ws.Graph, focus)
	return graphResponse(g, focus, args.Format), nil
}

func (s *Server) handleListJobs(ctx context.Context, request mcp.CallToolRequest, args WorkspaceArgs) (catalog.Catalog, error) {
	return s.manager.Catalog(ctx, args.WorkspaceID)
}

func (s *Server) handleDescribeNode(ctx context.Context, request mcp.CallToolRequest, args DescribeArgs) (NodeResponse, error) {
	d, err := s.manager.Describe(ctx, args.WorkspaceID, args.NodeID)
	if err != nil {
		return NodeResponse{}, err
	}
	return NodeResponse{Detail: d, Markdown: detail.Markdown(d)}, nil
}

func loadResponse(ws *domain.Workspace, auxErrs []error) LoadResponse {
	resp := LoadResponse{
		WorkspaceID: ws.ID,
		NetName:     ws.Dataset.NetName,
		Summary:     ws.Dataset.Summary(),
	}
	if resp.NetName == "" {
		resp.NetNameError = (&domain.NetNameError{Label: ws.Dataset.OperationsSource}).Error()
	}
	for _, err := range auxErrs {
		resp.Warnings = append(resp.Warnings, err.Error())
	}
	return resp
}

func graphResponse(g *domain.Graph, focus, format string) GraphResponse {
	resp := GraphResponse{Nodes: len(g.Nodes), Links: len(g.Links)}
	if format == "mermaid" {
		resp.Mermaid = graph.GenerateMermaid(g, &graph.GraphOverlay{Focus: focus})
	} else {
		resp.Graph = g
	}
	return resp
}

func (s *Server) registerResources() {
	// EXPOSE: twsgraph://workspaces
	s.mcpServer.AddResource(mcp.NewResource(WorkspacesURI, "Loaded Workspaces",
		mcp.WithMIMEType("application/json"),
	), s.readWorkspaces)
}

func (s *Server) readWorkspaces(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.manager.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	jsonBytes, _ := json.Marshal(ids)

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      WorkspacesURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
