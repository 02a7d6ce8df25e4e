package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/gamebook"
	"github.com/aretw0/gamebook/internal/logging"
	"github.com/aretw0/gamebook/internal/presentation/graph"
	"github.com/aretw0/gamebook/pkg/domain"
	"github.com/aretw0/gamebook/pkg/pathfind"
	"github.com/aretw0/gamebook/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// MaxBodyBytes caps notation and CSV request bodies.
const MaxBodyBytes = 4 << 20

// Server exposes an Engine over HTTP.
type Server struct {
	Engine  ports.Engine
	Streams *StreamManager

	logger   *slog.Logger
	limiter  *rate.Limiter
	gatherer prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger used for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRateLimit limits the whole server to r requests per second with the given
// burst. A non-positive r disables limiting.
func WithRateLimit(r float64, burst int) Option {
	return func(s *Server) {
		if r <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(r), max(burst, 1))
	}
}

// WithGatherer selects the registry served on /metrics (default: prometheus.DefaultGatherer).
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a new Server.
func NewServer(engine ports.Engine, opts ...Option) *Server {
	s := &Server{
		Engine:   engine,
		Streams:  NewStreamManager(),
		logger:   logging.NewNop(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// Hooks returns lifecycle hooks that broadcast session changes to SSE subscribers.
func (s *Server) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionChanged: func(_ context.Context, diff *domain.SessionDiff) {
			data, err := json.Marshal(diff)
			if err != nil {
				s.logger.Error("SSE: diff encode failed", "error", err)
				return
			}
			s.Streams.Broadcast(diff.SessionID, string(data))
		},
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/sessions", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/", s.CreateSession)
		r.Get("/", s.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.DeleteSession)
			r.Post("/lines", s.AddLines)
			r.Put("/edges", s.ImportEdges)
			r.Get("/edges.csv", s.ExportEdges)
			r.Get("/nodes", s.GetNodes)
			r.Get("/edges", s.GetEdges)
			r.Get("/graph", s.GetGraph)
			r.Get("/graph.mmd", s.GetMermaid)
			r.Get("/path", s.GetPath)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine ports.Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Handler()
}

// requestLogger stores a logger tagged with the request id in the request context.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(logging.WithContext(r.Context(), logger)))
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Error   string           `json:"error"`
	Partial *pathfind.Result `json:"partial,omitempty"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrNoPathFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMissingEndNode),
		errors.Is(err, domain.ErrNoValidPathWithRequired),
		errors.Is(err, domain.ErrMalformedLine):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSearchBudgetExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	logger := logging.FromContext(r.Context())
	if status == http.StatusInternalServerError {
		logger.Error(op+" failed", "error", err)
	} else {
		logger.Debug(op+" rejected", "error", err, "status", status)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func readBody(w http.ResponseWriter, r *http.Request) (string, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "gamebook-http",
		"version": strings.TrimSpace(gamebook.Version),
	})
}

// CreateSession handles the POST /sessions request.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.Engine.CreateSession(r.Context())
	if err != nil {
		s.fail(w, r, "CreateSession", err)
		return
	}
	w.Header().Set("Location", "/sessions/"+id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Sessions(r.Context())
	if err != nil {
		s.fail(w, r, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddLines handles the POST /sessions/{id}/lines request. The body is notation
// text; the optional tag query parameter applies to every chosen edge.
func (s *Server) AddLines(w http.ResponseWriter, r *http.Request) {
	text, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
		return
	}

	batch, err := s.Engine.AddLines(r.Context(), chi.URLParam(r, "id"), text, r.URL.Query().Get("tag"))
	if err != nil {
		s.fail(w, r, "AddLines", err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

// ImportEdges handles the PUT /sessions/{id}/edges request (CSV body).
func (s *Server) ImportEdges(w http.ResponseWriter, r *http.Request) {
	res, err := s.Engine.Import(r.Context(), chi.URLParam(r, "id"), http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
			return
		}
		s.fail(w, r, "ImportEdges", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ExportEdges handles the GET /sessions/{id}/edges.csv request.
func (s *Server) ExportEdges(w http.ResponseWriter, r *http.Request) {
	var sb strings.Builder
	if err := s.Engine.Export(r.Context(), chi.URLParam(r, "id"), &sb); err != nil {
		s.fail(w, r, "ExportEdges", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", chi.URLParam(r, "id")+".csv"))
	io.WriteString(w, sb.String())
}

// GetNodes handles the GET /sessions/{id}/nodes request.
func (s *Server) GetNodes(w http.ResponseWriter, r *http.Request) {
	g, err := s.Engine.Graph(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "GetNodes", err)
		return
	}
	nodes := g.Nodes
	if nodes == nil {
		nodes = []domain.NodeView{}
	}
	writeJSON(w, http.StatusOK, nodes)
}

// GetEdges handles the GET /sessions/{id}/edges request.
func (s *Server) GetEdges(w http.ResponseWriter, r *http.Request) {
	g, err := s.Engine.Graph(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "GetEdges", err)
		return
	}
	edges := g.Edges
	if edges == nil {
		edges = []domain.EdgeView{}
	}
	writeJSON(w, http.StatusOK, edges)
}

// GetGraph handles the GET /sessions/{id}/graph request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	g, err := s.Engine.Graph(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "GetGraph", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// GetPath handles the GET /sessions/{id}/path request. A budget overrun answers
// 503 with the best partial path, if any.
func (s *Server) GetPath(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.Engine.ShortestRequiredPath(r.Context(), chi.URLParam(r, "id"), q.Get("start"), q.Get("end"))
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.fail(w, r, "GetPath", err)
			return
		}
		writeJSON(w, status, errorResponse{Error: err.Error(), Partial: res})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetMermaid handles the GET /sessions/{id}/graph.mmd request. With path=true the
// shortest required path is overlaid when one exists.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	g, err := s.Engine.Graph(r.Context(), id)
	if err != nil {
		s.fail(w, r, "GetMermaid", err)
		return
	}

	var overlay *pathfind.Result
	if r.URL.Query().Get("path") == "true" {
		res, err := s.Engine.ShortestRequiredPath(r.Context(), id, "", "")
		if err != nil {
			s.logger.Debug("GetMermaid: no path overlay", "session_id", id, "error", err)
		}
		overlay = res
	}

	w.Header().Set("Content-Type", "text/vnd.mermaid; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(g, overlay))
}
