package katalog

import "github.com/kailas-cloud/katalog/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound              = domain.ErrNotFound
	ErrInvalidInput          = domain.ErrInvalidInput
	ErrSessionNotFound       = domain.ErrSessionNotFound
	ErrMissingAPIKey         = domain.ErrMissingAPIKey
	ErrLLMProviderError      = domain.ErrLLMProviderError
	ErrMalformedResponse     = domain.ErrMalformedResponse
	ErrMarketDataUnavailable = domain.ErrMarketDataUnavailable
	ErrQuotaExceeded         = domain.ErrQuotaExceeded
	ErrRateLimited           = domain.ErrRateLimited
)
