package chi

import (
	"time"

	"github.com/kailas-cloud/katalog/internal/dashboard"
	"github.com/kailas-cloud/katalog/internal/domain/item"
	"github.com/kailas-cloud/katalog/internal/domain/market"
	"github.com/kailas-cloud/katalog/internal/domain/query"
	"github.com/kailas-cloud/katalog/internal/domain/term"
	"github.com/kailas-cloud/katalog/internal/domain/titleclean"
)

// ErrorCode is the machine-readable error kind in ErrorResponse.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeNotFound          ErrorCode = "not_found"
	CodeSessionNotFound   ErrorCode = "session_not_found"
	CodeMissingAPIKey     ErrorCode = "missing_api_key"
	CodeQuotaExceeded     ErrorCode = "llm_quota_exceeded"
	CodeRateLimited       ErrorCode = "rate_limited"
	CodeMalformedResponse ErrorCode = "malformed_ai_response"
	CodeLLMProviderError  ErrorCode = "llm_provider_error"
	CodeMarketUnavailable ErrorCode = "market_data_unavailable"
	CodeNotImplemented    ErrorCode = "not_implemented"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// TermsResponse is returned by POST /v1/terms.
type TermsResponse struct {
	Terms []term.Term `json:"terms"`
	Query string      `json:"query"`
}

// CleanTitleRequest is the body of POST /v1/titles/clean.
type CleanTitleRequest struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// CleanTitleResponse is returned by POST /v1/titles/clean.
type CleanTitleResponse struct {
	Title string `json:"title"`
}

// SelectionsRequest is the body of PUT /v1/sessions/{id}/selections.
type SelectionsRequest struct {
	Selected []string `json:"selected"`
	Unselect []string `json:"unselect,omitempty"`
	Source   string   `json:"source,omitempty"`
}

// ReinitializeRequest is the body of POST /v1/sessions/{id}/reinitialize.
type ReinitializeRequest struct {
	Item  item.Item `json:"item"`
	Query string    `json:"query,omitempty"`
}

// TermSelectedResponse is returned by GET /v1/sessions/{id}/terms/selected.
type TermSelectedResponse struct {
	Term     string `json:"term"`
	Selected bool   `json:"isSelected"`
}

// DashboardResponse is returned by GET /v1/sessions/{id}/dashboard.
type DashboardResponse struct {
	Visible   bool                `json:"visible"`
	Snapshot  query.Snapshot      `json:"snapshot"`
	Market    *market.Data        `json:"market,omitempty"`
	Fragments dashboard.Fragments `json:"fragments"`
}

// AnalyzeRequest is the body of POST /v1/market/analyze.
type AnalyzeRequest struct {
	Query string `json:"query"`
}

// EnhanceRequest is the body of POST /v1/enhance.
type EnhanceRequest struct {
	Item  item.Item `json:"item"`
	Field string    `json:"field"`
}

// PreferenceBody is both request and response of the dashboard preference routes.
type PreferenceBody struct {
	Visible *bool `json:"visible"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string              `json:"status"`
	Checks   map[string]string   `json:"checks"`
	SelfTest []titleclean.Result `json:"selfTest,omitempty"`
}

// UsageResponse is returned by GET /usage.
type UsageResponse struct {
	Period        string       `json:"period"`
	Provider      string       `json:"provider,omitempty"`
	PeriodStartAt *time.Time   `json:"periodStartAt,omitempty"`
	PeriodEndAt   *time.Time   `json:"periodEndAt,omitempty"`
	Usage         UsageMetrics `json:"usage"`
	Budget        BudgetStatus `json:"budget"`
}

// UsageMetrics is the consumption part of UsageResponse.
type UsageMetrics struct {
	Completions      int  `json:"completions"`
	Tokens           int  `json:"tokens"`
	CostMillidollars *int `json:"costMillidollars,omitempty"`
}

// BudgetStatus is the limit part of UsageResponse.
type BudgetStatus struct {
	TokensLimit     int        `json:"tokensLimit"`
	TokensRemaining int        `json:"tokensRemaining"`
	IsExhausted     bool       `json:"isExhausted"`
	ResetsAt        *time.Time `json:"resetsAt,omitempty"`
}
