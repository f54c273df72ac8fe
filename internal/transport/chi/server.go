package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/katalog/internal/dashboard"
	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/domain/item"
	"github.com/kailas-cloud/katalog/internal/domain/market"
	"github.com/kailas-cloud/katalog/internal/domain/query"
	"github.com/kailas-cloud/katalog/internal/domain/rules"
	"github.com/kailas-cloud/katalog/internal/domain/term"
	"github.com/kailas-cloud/katalog/internal/domain/titleclean"
	domusage "github.com/kailas-cloud/katalog/internal/domain/usage"
	logpkg "github.com/kailas-cloud/katalog/internal/logger"
	enhanceuc "github.com/kailas-cloud/katalog/internal/usecase/enhance"
	healthuc "github.com/kailas-cloud/katalog/internal/usecase/health"
	marketuc "github.com/kailas-cloud/katalog/internal/usecase/market"
	sessionuc "github.com/kailas-cloud/katalog/internal/usecase/session"
	usageuc "github.com/kailas-cloud/katalog/internal/usecase/usage"
)

const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Preferences stores per-client UI flags.
type Preferences interface {
	DashboardVisible(ctx context.Context, client string) (bool, error)
	SetDashboardVisible(ctx context.Context, client string, visible bool) error
	ResetDashboardVisible(ctx context.Context, client string) error
}

// Services groups the use cases the HTTP API exposes.
type Services struct {
	Rules       rules.Config
	Sessions    *sessionuc.Service
	Market      *marketuc.Service
	Enhance     *enhanceuc.Service
	Preferences Preferences
	Renderer    *dashboard.Renderer
	Usage       *usageuc.Service
	Health      *healthuc.Service
}

// Server serves the katalog HTTP API.
type Server struct {
	rules         rules.Config
	sessions      *sessionuc.Service
	market        *marketuc.Service
	enhance       *enhanceuc.Service
	prefs         Preferences
	renderer      *dashboard.Renderer
	usage         *usageuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer := svc.Renderer
	if renderer == nil {
		renderer = dashboard.MustNewRenderer()
	}
	s := &Server{
		rules:    svc.Rules,
		sessions: svc.Sessions,
		market:   svc.Market,
		enhance:  svc.Enhance,
		prefs:    svc.Preferences,
		renderer: renderer,
		usage:    svc.Usage,
		health:   svc.Health,
		logger:   logger,
	}
	// Order matters: an auth failure also wraps the provider sentinel.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrMissingAPIKey, http.StatusPreconditionFailed, CodeMissingAPIKey),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, CodeSessionNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusPaymentRequired, CodeQuotaExceeded),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrMalformedResponse, http.StatusBadGateway, CodeMalformedResponse),
		sentinelHandler(domain.ErrLLMProviderError, http.StatusBadGateway, CodeLLMProviderError),
		sentinelHandler(domain.ErrMarketDataUnavailable, http.StatusBadGateway, CodeMarketUnavailable),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, CodeNotImplemented),
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/usage", s.GetUsage)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/terms", s.ExtractTerms)
		r.Post("/titles/clean", s.CleanTitle)

		r.Post("/sessions", s.StartSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Get("/terms/selected", s.IsTermSelected)
			r.Put("/selections", s.UpdateSelections)
			r.Post("/reinitialize", s.ReinitializeSession)
			r.Get("/dashboard", s.GetDashboard)
		})

		r.Post("/market/analyze", s.AnalyzeMarket)
		r.Post("/enhance", s.Enhance)

		r.Get("/preferences/{client}/dashboard-visible", s.GetDashboardVisible)
		r.Put("/preferences/{client}/dashboard-visible", s.SetDashboardVisible)
		r.Delete("/preferences/{client}/dashboard-visible", s.ResetDashboardVisible)
	})
}

// Handler returns a router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Routes(r)
	return r
}

// ExtractTerms handles POST /v1/terms.
func (s *Server) ExtractTerms(w http.ResponseWriter, r *http.Request) {
	var it item.Item
	if !s.decode(w, r, &it) {
		return
	}
	if it.IsEmpty() {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "title, description or artist is required")
		return
	}

	terms := rules.Apply(s.rules, it.RuleInput())
	selected := make([]term.Term, 0, len(terms))
	for _, t := range terms {
		if t.Selected {
			selected = append(selected, t)
		}
	}
	writeJSON(w, http.StatusOK, TermsResponse{Terms: terms, Query: term.Join(selected)})
}

// CleanTitle handles POST /v1/titles/clean.
func (s *Server) CleanTitle(w http.ResponseWriter, r *http.Request) {
	var req CleanTitleRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, CleanTitleResponse{
		Title: titleclean.CleanAfterArtistRemoval(req.Title, req.Artist),
	})
}

// StartSession handles POST /v1/sessions.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var it item.Item
	if !s.decode(w, r, &it) {
		return
	}
	if it.IsEmpty() {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "title, description or artist is required")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	started, err := s.sessions.Start(ctx, it)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if started.Fallback {
		logpkg.FromContextOr(r.Context(), s.logger).Warn("Search terms fell back to rules",
			zap.String("session_id", started.Snapshot.SessionID),
			zap.String("reason", started.FallbackReason),
		)
	}

	w.Header().Set("Location", "/v1/sessions/"+started.Snapshot.SessionID)
	setLLMHeaders(w, usage)
	writeJSON(w, http.StatusCreated, started)
}

// GetSession handles GET /v1/sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeSnapshot(w, snap)
}

// DeleteSession handles DELETE /v1/sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IsTermSelected handles GET /v1/sessions/{id}/terms/selected?term=.
func (s *Server) IsTermSelected(w http.ResponseWriter, r *http.Request) {
	t := r.URL.Query().Get("term")
	if t == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "term query parameter is required")
		return
	}
	ok, err := s.sessions.IsTermSelected(r.Context(), chi.URLParam(r, "id"), t)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TermSelectedResponse{Term: t, Selected: ok})
}

// UpdateSelections handles PUT /v1/sessions/{id}/selections.
func (s *Server) UpdateSelections(w http.ResponseWriter, r *http.Request) {
	var req SelectionsRequest
	if !s.decode(w, r, &req) {
		return
	}
	src := query.SourceUser
	if req.Source != "" {
		parsed, err := query.ParseSource(req.Source)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
			return
		}
		src = parsed
	}

	snap, err := s.sessions.UpdateSelections(r.Context(), chi.URLParam(r, "id"), req.Selected, query.UpdateOptions{
		Unselect: req.Unselect,
		Source:   src,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeSnapshot(w, snap)
}

// ReinitializeSession handles POST /v1/sessions/{id}/reinitialize.
func (s *Server) ReinitializeSession(w http.ResponseWriter, r *http.Request) {
	var req ReinitializeRequest
	if !s.decode(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	snap, err := s.sessions.Reinitialize(ctx, chi.URLParam(r, "id"), req.Item, req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setLLMHeaders(w, usage)
	writeSnapshot(w, snap)
}

// GetDashboard handles GET /v1/sessions/{id}/dashboard?client=.
// A hidden dashboard and an unreachable market both still return the pills.
func (s *Server) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, err := s.sessions.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	visible := true
	if client := r.URL.Query().Get("client"); client != "" && s.prefs != nil {
		if visible, err = s.prefs.DashboardVisible(ctx, client); err != nil {
			s.handleDomainError(w, r, err)
			return
		}
	}

	var data *market.Data
	if visible && snap.CurrentQuery != "" {
		data, err = s.market.Analyze(ctx, snap.CurrentQuery)
		if err != nil {
			logpkg.FromContextOr(ctx, s.logger).Warn("Market analysis unavailable for dashboard",
				zap.String("session_id", snap.SessionID),
				zap.Error(err),
			)
			data = nil
		}
	}

	fragments, err := s.renderer.Render(data, snap)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardResponse{
		Visible:   visible,
		Snapshot:  snap,
		Market:    data,
		Fragments: fragments,
	})
}

// AnalyzeMarket handles POST /v1/market/analyze.
func (s *Server) AnalyzeMarket(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !s.decode(w, r, &req) {
		return
	}
	data, err := s.market.Analyze(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// Enhance handles POST /v1/enhance.
func (s *Server) Enhance(w http.ResponseWriter, r *http.Request) {
	var req EnhanceRequest
	if !s.decode(w, r, &req) {
		return
	}
	field, err := enhanceuc.ParseField(req.Field)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.enhance.Enhance(ctx, req.Item, field)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setLLMHeaders(w, usage)
	writeJSON(w, http.StatusOK, res)
}

// GetDashboardVisible handles GET /v1/preferences/{client}/dashboard-visible.
func (s *Server) GetDashboardVisible(w http.ResponseWriter, r *http.Request) {
	visible, err := s.prefs.DashboardVisible(r.Context(), chi.URLParam(r, "client"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PreferenceBody{Visible: &visible})
}

// SetDashboardVisible handles PUT /v1/preferences/{client}/dashboard-visible.
func (s *Server) SetDashboardVisible(w http.ResponseWriter, r *http.Request) {
	var req PreferenceBody
	if !s.decode(w, r, &req) {
		return
	}
	if req.Visible == nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "visible is required")
		return
	}
	if err := s.prefs.SetDashboardVisible(r.Context(), chi.URLParam(r, "client"), *req.Visible); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// ResetDashboardVisible handles DELETE /v1/preferences/{client}/dashboard-visible.
func (s *Server) ResetDashboardVisible(w http.ResponseWriter, r *http.Request) {
	if err := s.prefs.ResetDashboardVisible(r.Context(), chi.URLParam(r, "client")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetUsage handles GET /usage?period=day|month|total.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period := domusage.PeriodMonth
	switch p := domusage.Period(r.URL.Query().Get("period")); p {
	case "", domusage.PeriodMonth:
	case domusage.PeriodDay, domusage.PeriodTotal:
		period = p
	default:
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "period must be day, month or total")
		return
	}

	report := s.usage.GetReport(r.Context(), period)

	resp := UsageResponse{
		Period:   string(report.Period()),
		Provider: report.Provider(),
		Usage: UsageMetrics{
			Completions: report.Metrics().Completions(),
			Tokens:      report.Metrics().Tokens(),
		},
		Budget: BudgetStatus{
			TokensLimit:     report.Budget().TokensLimit(),
			TokensRemaining: report.Budget().TokensRemaining(),
			IsExhausted:     report.Budget().IsExhausted(),
		},
	}

	if cost := report.Metrics().CostMillidollars(); cost > 0 {
		resp.Usage.CostMillidollars = &cost
	}

	if report.PeriodStart() > 0 {
		start := time.UnixMilli(report.PeriodStart()).UTC()
		end := time.UnixMilli(report.PeriodEnd()).UTC()
		resp.PeriodStartAt = &start
		resp.PeriodEndAt = &end
	}

	if report.Budget().ResetsAt() > 0 {
		resetsAt := time.UnixMilli(report.Budget().ResetsAt()).UTC()
		resp.Budget.ResetsAt = &resetsAt
	}

	writeJSON(w, http.StatusOK, resp)
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
		Status:   string(report.Status),
		Checks:   checks,
		SelfTest: report.SelfTest,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setLLMHeaders(w http.ResponseWriter, usage *domain.LLMUsage) {
	if usage != nil && usage.Calls > 0 {
		w.Header().Set("X-LLM-Tokens", strconv.Itoa(usage.TotalTokens))
		w.Header().Set("X-LLM-Calls", strconv.Itoa(usage.Calls))
	}
}

func writeSnapshot(w http.ResponseWriter, snap query.Snapshot) {
	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(snap.Version)))
	writeJSON(w, http.StatusOK, snap)
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
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrMissingAPIKey,
		domain.ErrInvalidInput,
		domain.ErrSessionNotFound,
		domain.ErrNotFound,
		domain.ErrQuotaExceeded,
		domain.ErrRateLimited,
		domain.ErrMalformedResponse,
		domain.ErrLLMProviderError,
		domain.ErrMarketDataUnavailable,
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
	logger := logpkg.FromContextOr(r.Context(), s.logger)
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err), zap.String("path", r.URL.Path))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
