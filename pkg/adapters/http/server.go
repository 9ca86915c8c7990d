package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/aretw0/twsgraph"
	"github.com/aretw0/twsgraph/internal/logging"
	"github.com/aretw0/twsgraph/internal/presentation/graph"
	"github.com/aretw0/twsgraph/pkg/detail"
	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/aretw0/twsgraph/pkg/ports"
	"github.com/aretw0/twsgraph/pkg/reach"
	"github.com/aretw0/twsgraph/pkg/workspace"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultMaxUploadSize bounds the in-memory part of a multipart upload.
const DefaultMaxUploadSize = 32 << 20

// uploadFields maps multipart field names to input roles.
var uploadFields = map[string]domain.Role{
	"operations":           domain.RoleOperations,
	"internalRels":         domain.RoleInternalRelations,
	"externalPreds":        domain.RoleExternalPredecessors,
	"externalSuccs":        domain.RoleExternalSuccessors,
	"operatorInstructions": domain.RoleOperatorInstructions,
	"additional":           domain.RoleAdditional,
}

// Server exposes a workspace manager over HTTP.
type Server struct {
	Manager *workspace.Manager
	Streams *StreamManager

	metrics   http.Handler
	logger    *slog.Logger
	maxUpload int64
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMaxUploadSize overrides DefaultMaxUploadSize.
func WithMaxUploadSize(n int64) Option {
	return func(s *Server) {
		s.maxUpload = n
	}
}

// NewHandler creates the HTTP handler for mgr.
func NewHandler(mgr *workspace.Manager, opts ...Option) http.Handler {
	s := &Server{
		Manager:   mgr,
		logger:    logging.NewNop(),
		maxUpload: DefaultMaxUploadSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/workspaces", func(r chi.Router) {
		r.Get("/", s.ListWorkspaces)
		r.Post("/", s.CreateWorkspace)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetWorkspace)
			r.Delete("/", s.DeleteWorkspace)
			r.Post("/additional", s.AppendAdditional)
			r.Get("/catalog", s.GetCatalog)
			r.Post("/graph", s.BuildGraph)
			r.Get("/graph", s.GetGraph)
			r.Get("/nodes/*", s.GetNode)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WorkspaceResponse describes a loaded workspace.
type WorkspaceResponse struct {
	ID string `json:"id"`
	// NetName is empty when NetNameError explains why.
	NetName      string               `json:"netName"`
	NetNameError string               `json:"netNameError,omitempty"`
	Summary      domain.Summary       `json:"summary"`
	Options      *domain.BuildOptions `json:"options,omitempty"`
	HasGraph     bool                 `json:"hasGraph"`
	// Warnings lists auxiliary inputs that could not be parsed.
	Warnings []string `json:"warnings,omitempty"`
}

func workspaceResponse(ws *domain.Workspace, auxErrs []error) WorkspaceResponse {
	resp := WorkspaceResponse{
		ID:       ws.ID,
		NetName:  ws.Dataset.NetName,
		Summary:  ws.Dataset.Summary(),
		Options:  ws.Options,
		HasGraph: ws.Graph != nil,
	}
	if resp.NetName == "" {
		resp.NetNameError = (&domain.NetNameError{Label: ws.Dataset.OperationsSource}).Error()
	}
	for _, err := range auxErrs {
		resp.Warnings = append(resp.Warnings, err.Error())
	}
	return resp
}

// GraphRequest is the body of POST /workspaces/{id}/graph.
type GraphRequest struct {
	Excluded            []string `json:"excluded"`
	Types               []string `json:"types"`
	IncludeUnknownTypes bool     `json:"includeUnknownTypes"`
	Mode                string   `json:"mode"`
	// Net overrides the network name taken from the operations file name.
	Net string `json:"net"`
	// Focus restricts the response to the neighbourhood of a job.
	// It matches a node id exactly, or a name or id case-insensitively.
	Focus string `json:"focus"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "twsgraph-http",
		"version": strings.TrimSpace(twsgraph.Version),
	})
}

// ListWorkspaces handles GET /workspaces.
func (s *Server) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Manager.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"workspaces": ids})
}

// CreateWorkspace handles the multipart POST /workspaces request.
func (s *Server) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	form, err := s.parseForm(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid multipart body: %v", err), http.StatusBadRequest)
		s.logger.Warn("CreateWorkspace: Invalid multipart body", "err", err)
		return
	}

	var files ports.InputFiles
	for field, role := range uploadFields {
		sources, err := readParts(form.File[field])
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid upload %q: %v", field, err), http.StatusBadRequest)
			return
		}
		if role != domain.RoleAdditional && len(sources) > 1 {
			http.Error(w, fmt.Sprintf("Field %q accepts a single file", field), http.StatusBadRequest)
			return
		}
		for _, src := range sources {
			files.Set(role, src)
		}
	}

	ws, auxErrs, err := s.Manager.Create(r.Context(), files)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("Workspace uploaded", "workspace_id", ws.ID, "net", ws.Dataset.NetName, "aux_errors", len(auxErrs))
	writeJSON(w, http.StatusCreated, workspaceResponse(ws, auxErrs))
}

// GetWorkspace handles GET /workspaces/{id}.
func (s *Server) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := s.Manager.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workspaceResponse(ws, nil))
}

// DeleteWorkspace handles DELETE /workspaces/{id}.
func (s *Server) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AppendAdditional handles POST /workspaces/{id}/additional. The optional
// form value "net" tags rows that do not name their network.
func (s *Server) AppendAdditional(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	form, err := s.parseForm(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid multipart body: %v", err), http.StatusBadRequest)
		return
	}
	sources, err := readParts(form.File["additional"])
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid upload: %v", err), http.StatusBadRequest)
		return
	}
	if len(sources) == 0 {
		http.Error(w, `Missing "additional" file`, http.StatusBadRequest)
		return
	}

	var netName string
	if v := form.Value["net"]; len(v) > 0 {
		netName = strings.TrimSpace(v[0])
	}

	ws, auxErrs, err := s.Manager.AppendAuxiliary(r.Context(), id, netName, sources)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.Streams.Publish(id, Event{Type: EventDataset, Summary: ws.Dataset.Summary()})
	if ws.Graph != nil {
		s.Streams.Publish(id, graphEvent(ws.Graph))
	}
	writeJSON(w, http.StatusOK, workspaceResponse(ws, auxErrs))
}

// GetCatalog handles GET /workspaces/{id}/catalog.
func (s *Server) GetCatalog(w http.ResponseWriter, r *http.Request) {
	c, err := s.Manager.Catalog(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// BuildGraph handles POST /workspaces/{id}/graph.
func (s *Server) BuildGraph(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body GraphRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("BuildGraph: Invalid request body", "err", err)
		return
	}
	mode, err := domain.ParseMode(body.Mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	focus, err := reach.SanitizeTerm(body.Focus)
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := domain.BuildOptions{
		NetName:             strings.TrimSpace(body.Net),
		Excluded:            domain.NewSet(body.Excluded...),
		SelectedTypes:       domain.NewSet(body.Types...),
		IncludeUnknownTypes: body.IncludeUnknownTypes,
		Mode:                mode,
	}
	g, err := s.Manager.Build(r.Context(), id, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.Streams.Publish(id, graphEvent(g))

	s.writeGraph(w, r, g, focus)
}

// GetGraph handles GET /workspaces/{id}/graph, returning the last built
// graph, optionally narrowed by the "focus" query parameter.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	ws, err := s.Manager.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ws.Graph == nil {
		s.writeError(w, domain.ErrNoGraph)
		return
	}
	s.writeGraph(w, r, ws.Graph, r.URL.Query().Get("focus"))
}

func (s *Server) writeGraph(w http.ResponseWriter, r *http.Request, g *domain.Graph, focus string) {
	focus, err := reach.SanitizeTerm(focus)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if focus != "" {
		if match, ok := reach.Match(g, focus); ok {
			focus = match
		}
		g = s.Manager.Filterer().Filter(r.Context(), g, focus)
	}

	if r.URL.Query().Get("format") == "mermaid" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, graph.GenerateMermaid(g, &graph.GraphOverlay{Focus: focus}))
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// GetNode handles GET /workspaces/{id}/nodes/*. The wildcard carries the
// node id, which contains a slash for external jobs.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	d, err := s.Manager.Describe(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "*"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, detail.Markdown(d))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// SubscribeEvents handles GET /workspaces/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := s.Manager.Get(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "workspace_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) parseForm(r *http.Request) (*multipart.Form, error) {
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return nil, err
	}
	return r.MultipartForm, nil
}

// readParts loads uploaded files into memory sources labelled with their
// client-side file name, from which the network name is derived.
func readParts(headers []*multipart.FileHeader) ([]ports.Source, error) {
	sources := make([]ports.Source, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		sources = append(sources, ports.BytesSource{Label: fh.Filename, Data: data})
	}
	return sources, nil
}

// statusOf maps pipeline errors to HTTP status codes.
func statusOf(err error) int {
	var (
		missing *domain.MissingInputError
		parse   *domain.ParseError
		netName *domain.NetNameError
		build   *domain.GraphBuildError
	)
	switch {
	case errors.As(err, &missing), errors.Is(err, reach.ErrTermTooLarge), errors.Is(err, reach.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.As(err, &parse), errors.As(err, &netName), errors.As(err, &build):
		return http.StatusUnprocessableEntity
	case workspace.IsNotFound(err):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "err", err)
	} else {
		s.logger.Debug("Request rejected", "status", status, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
