package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a malformed request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSessionNotFound signals an unknown or expired search session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrMissingAPIKey signals that no LLM provider key is configured.
	ErrMissingAPIKey = errors.New("missing api key")
	// ErrLLMProviderError signals an LLM provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrMalformedResponse signals an LLM answer that could not be parsed.
	ErrMalformedResponse = errors.New("malformed ai response")
	// ErrMarketDataUnavailable signals that the auction data source could not be reached.
	ErrMarketDataUnavailable = errors.New("market data unavailable")
	// ErrQuotaExceeded signals an exhausted LLM token budget.
	ErrQuotaExceeded = errors.New("llm quota exceeded")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)

// ProviderStatusError wraps ErrLLMProviderError with the upstream HTTP status.
type ProviderStatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderStatusError) Error() string {
	return fmt.Sprintf("%s: %s returned %d: %s", ErrLLMProviderError.Error(), e.Provider, e.StatusCode, e.Body)
}

func (e *ProviderStatusError) Unwrap() error { return ErrLLMProviderError }

// NewProviderStatus creates a provider status error. Body is truncated to 256 bytes.
func NewProviderStatus(provider string, status int, body string) error {
	if len(body) > 256 {
		body = body[:256]
	}
	return &ProviderStatusError{Provider: provider, StatusCode: status, Body: body}
}
