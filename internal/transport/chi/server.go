// Package chi is the HTTP transport: search, suggestions, health and metrics over a chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/discovery/internal/domain"
	"github.com/kailas-cloud/discovery/internal/domain/search/query"
	logpkg "github.com/kailas-cloud/discovery/internal/logger"
	healthuc "github.com/kailas-cloud/discovery/internal/usecase/health"
	"github.com/kailas-cloud/discovery/internal/usecase/search"
	"github.com/kailas-cloud/discovery/internal/usecase/usage"
)

// Searcher runs the multi-category search.
type Searcher interface {
	Search(ctx context.Context, q query.Query) (search.Results, error)
	Suggest(ctx context.Context, q query.Query) (search.Results, error)
}

// Enhancer attaches generated explanations to a search result.
type Enhancer interface {
	EnhanceCategories(ctx context.Context, q string, res search.Results) search.Results
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter reports provider token budgets.
type UsageReporter interface {
	GetReport(ctx context.Context, period usage.Period) usage.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	search        Searcher
	enhancer      Enhancer
	health        HealthChecker
	usage         UsageReporter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. enhancer may be nil, which turns enhance=true into a no-op.
func NewServer(searcher Searcher, enhancer Enhancer, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		search:   searcher,
		enhancer: enhancer,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrUnknownCategory, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, ErrorCodeEmbeddingQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeProviderError),
		sentinelHandler(domain.ErrCompletionProviderError, http.StatusBadGateway, ErrorCodeProviderError),
		sentinelHandler(domain.ErrProviderUnavailable, http.StatusServiceUnavailable, ErrorCodeProviderUnavailable),
		sentinelHandler(context.Canceled, http.StatusRequestTimeout, ErrorCodeRequestCanceled),
		sentinelHandler(context.DeadlineExceeded, http.StatusRequestTimeout, ErrorCodeRequestCanceled),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, ErrorCodeNotImplemented),
	}
	return s
}

// WithUsage enables GET /api/v1/usage.
func (s *Server) WithUsage(u UsageReporter) *Server {
	s.usage = u
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/api/v1/search", s.Search)
	r.Get("/api/v1/search/suggestions", s.Suggestions)
	r.Get("/api/v1/usage", s.Usage)
}

// Search handles GET /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	s.serveSearch(w, r, s.search.Search)
}

// Suggestions handles GET /api/v1/search/suggestions.
func (s *Server) Suggestions(w http.ResponseWriter, r *http.Request) {
	s.serveSearch(w, r, s.search.Suggest)
}

type searchFunc func(ctx context.Context, q query.Query) (search.Results, error)

func (s *Server) serveSearch(w http.ResponseWriter, r *http.Request, run searchFunc) {
	params, err := bindSearchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	q, err := params.toQuery()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := run(ctx, q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if derefBool(params.Enhance, false) && s.enhancer != nil && !q.Blank() {
		res = s.enhancer.EnhanceCategories(ctx, q.Text(), res)
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponseFromResults(q, res))
}

// Usage handles GET /api/v1/usage?period=day|month.
func (s *Server) Usage(w http.ResponseWriter, r *http.Request) {
	if s.usage == nil {
		s.handleDomainError(w, r, domain.ErrNotImplemented)
		return
	}
	period, err := usage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usageResponseFromReport(s.usage.GetReport(r.Context(), period)))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if tokens, used := usage.EmbeddingTokens(); used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(tokens))
	}
	if tokens := usage.CompletionTokens(); tokens > 0 {
		w.Header().Set("X-Completion-Tokens", strconv.Itoa(tokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Validation errors carry their own detail, which is safe to show.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidQuery) || errors.Is(err, domain.ErrUnknownCategory) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingProviderError,
		domain.ErrCompletionProviderError,
		domain.ErrProviderUnavailable,
		context.Canceled,
		context.DeadlineExceeded,
		domain.ErrNotImplemented,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
