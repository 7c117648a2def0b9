// Package chi is the HTTP surface of the vector-store app: browse raw CV/JD
// files, trigger ingestion, health and metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alkashef/vector-store/internal/db"
	"github.com/alkashef/vector-store/internal/domain"
	"github.com/alkashef/vector-store/internal/ingest"
	"github.com/alkashef/vector-store/internal/logger"
	"github.com/alkashef/vector-store/internal/version"
)

// IngestService is the consumer interface for the intake layer (ISP).
type IngestService interface {
	ListFiles(kind ingest.Kind) ([]string, error)
	ReadFile(kind ingest.Kind, name string) ([]byte, error)
	Ingest(ctx context.Context, kind ingest.Kind, name string) (domain.VectorizeResult, error)
}

// Server handles the HTTP API.
type Server struct {
	ingest  IngestService
	pinger  db.Pinger
	apiKeys []string
	logger  *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(ingestSvc IngestService, pinger db.Pinger, apiKeys []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{ingest: ingestSvc, pinger: pinger, apiKeys: apiKeys, logger: logger}
}

// Routes builds the router with middleware and all endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(BearerAuthMiddleware(s.apiKeys))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/files/{kind}", s.handleListFiles)
		r.Get("/files/{kind}/{name}", s.handleReadFile)
		r.Post("/ingest/{kind}/{name}", s.handleIngest)
	})

	return r
}

// requestLogger attaches a request-scoped logger carrying the request ID.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLogger := s.logger.With(zap.String("request_id", chiMiddleware.GetReqID(r.Context())))
		next.ServeHTTP(w, r.WithContext(logger.ContextWithLogger(r.Context(), reqLogger)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
			s.logger.Warn("health check: database unreachable", zap.Error(err))
		}
	}
	writeJSON(w, code, map[string]string{
		"status":  status,
		"version": version.Version,
	})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	kind, err := ingest.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.respondError(r, w, err, "list files")
		return
	}

	files, err := s.ingest.ListFiles(kind)
	if err != nil {
		s.respondError(r, w, err, "list files")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (s *Server) handleReadFile(w http.ResponseWriter, r *http.Request) {
	kind, err := ingest.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.respondError(r, w, err, "read file")
		return
	}

	data, err := s.ingest.ReadFile(kind, chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(r, w, err, "read file")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	kind, err := ingest.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.respondError(r, w, err, "ingest")
		return
	}

	result, err := s.ingest.Ingest(r.Context(), kind, chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(r, w, err, "ingest")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// respondError maps domain errors to HTTP statuses.
func (s *Server) respondError(r *http.Request, w http.ResponseWriter, err error, op string) {
	log := logger.FromContext(r.Context())
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		log.Error(op+" failed: embedding provider", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Error(op+" failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
