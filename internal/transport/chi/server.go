// Package chi is the HTTP transport: routing, request decoding, and the
// mapping from domain errors to status codes.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/farepath/internal/domain"
	"github.com/kailas-cloud/farepath/internal/usecase/destinfo"
	healthuc "github.com/kailas-cloud/farepath/internal/usecase/health"
	"github.com/kailas-cloud/farepath/internal/usecase/pipeline"
)

const maxQueryLen = 2048

// Error response codes returned to clients.
const (
	CodeBadRequest        = "bad_request"
	CodeInvalidRequest    = "validation_failed"
	CodeMissingCredential = "missing_credential"
	CodeUpstreamError     = "completion_upstream_error"
	CodeModelUnavailable  = "model_unavailable"
	CodeEmbeddingError    = "embedding_provider_error"
	CodeInternalError     = "internal_error"
)

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResponse is the union response of POST /search. Exactly one of
// Result and Answer is set, discriminated by Type.
type SearchResponse struct {
	Type   string           `json:"type"`
	Result *pipeline.Result `json:"result,omitempty"`
	Answer string           `json:"answer,omitempty"`
}

// ErrorResponse is the error body every endpoint returns.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pipeline runs the full flight-search flow for one query.
type Pipeline interface {
	Process(ctx context.Context, query string) (*pipeline.Result, error)
}

// DestinationGuide answers destination questions.
type DestinationGuide interface {
	Answer(ctx context.Context, query string) (string, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server exposes the search pipeline over HTTP.
type Server struct {
	pipeline      Pipeline
	guide         DestinationGuide
	health        *healthuc.Service
	logger        *zap.Logger
	staticDir     string
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. staticDir can be empty to disable
// static file serving.
func NewServer(
	p Pipeline,
	guide DestinationGuide,
	health *healthuc.Service,
	staticDir string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		pipeline:  p,
		guide:     guide,
		health:    health,
		staticDir: staticDir,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeInvalidRequest),
		sentinelHandler(domain.ErrMissingCredential, http.StatusInternalServerError, CodeMissingCredential),
		sentinelHandler(domain.ErrCompletionUpstream, http.StatusBadGateway, CodeUpstreamError),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingError),
		sentinelHandler(domain.ErrModelUnavailable, http.StatusServiceUnavailable, CodeModelUnavailable),
	}
	return s
}

// Routes mounts all handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/search", s.Search)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	if s.staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.staticDir)))
	}
}

// Search handles POST /search. Destination questions are answered directly;
// everything else goes through the flight-search pipeline.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "query is required")
		return
	}
	if len(query) > maxQueryLen {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "query too long")
		return
	}

	if destinfo.IsDestinationQuestion(query) {
		answer, err := s.guide.Answer(r.Context(), query)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, SearchResponse{Type: "destination_info", Answer: answer})
		return
	}

	result, err := s.pipeline.Process(r.Context(), query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Type: "flight_search", Result: result})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
