package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/metafirst/supervisor/internal/domain/ingest"
	"github.com/metafirst/supervisor/internal/mcp"
)

// RPCHandler dispatches tool calls on behalf of an actor.
type RPCHandler interface {
	Handle(ctx context.Context, actorID, method string, params json.RawMessage) (any, error)
}

// IngestReporter records watcher file reports.
type IngestReporter interface {
	Report(ctx context.Context, actorID string, ev ingest.FileEvent) (*ingest.PendingIngest, error)
}

// Options configures the HTTP router. Nil handlers leave their routes
// unregistered.
type Options struct {
	RPC     RPCHandler
	Ingests IngestReporter
	// Auth authenticates every route except /health and /metrics.
	Auth    func(http.Handler) http.Handler
	MCP     http.Handler
	Metrics http.Handler
	Logger  *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	rpc     RPCHandler
	ingests IngestReporter
	logger  *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &Server{rpc: opts.RPC, ingests: opts.Ingests, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(srv.accessLog)

	r.Get("/health", srv.handleHealth)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		if opts.MCP != nil {
			r.Handle("/mcp", opts.MCP)
		}
		if srv.rpc != nil {
			r.Post("/rpc", srv.handleRPC)
		}
		if srv.ingests != nil {
			r.Post("/api/projects/{projectID}/ingests", srv.handleReportIngest)
		}
	})

	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		WriteError(w, nil, ErrInvalidReq, "invalid request", nil)
		return
	}

	actorID, ok := ActorFromContext(r.Context())
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor")
		return
	}

	result, err := s.rpc.Handle(r.Context(), actorID, req.Method, req.Params)
	if err != nil {
		apiErr := mcp.MapError(err)
		if apiErr == nil {
			s.logger.Error("rpc call failed", "method", req.Method, "actor_id", actorID, "error", err)
			WriteError(w, req.ID, ErrInternal, "internal error", nil)
			return
		}
		WriteError(w, req.ID, rpcCode(apiErr.Code), apiErr.Message, apiErr)
		return
	}

	WriteResult(w, req.ID, result)
}

func (s *Server) handleReportIngest(w http.ResponseWriter, r *http.Request) {
	actorID, ok := ActorFromContext(r.Context())
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor")
		return
	}

	var ev ingest.FileEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeProblem(w, http.StatusBadRequest, mcp.CodeInvalidParams, "invalid request body")
		return
	}
	ev.ProjectID = chi.URLParam(r, "projectID")
	if ev.ObservedAt.IsZero() {
		ev.ObservedAt = time.Now().UTC()
	}

	ing, err := s.ingests.Report(r.Context(), actorID, ev)
	if err != nil {
		apiErr := mcp.MapError(err)
		if apiErr == nil {
			s.logger.Error("ingest report failed", "project_id", ev.ProjectID, "actor_id", actorID, "error", err)
			writeProblem(w, http.StatusInternalServerError, mcp.CodeInternal, "internal error")
			return
		}
		writeAPIError(w, apiErr)
		return
	}

	writeBody(w, http.StatusAccepted, ing)
}
