package searchterms

import (
	"context"

	"github.com/kailas-cloud/katalog/internal/domain"
)

// Completer generates text from a prompt.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}
