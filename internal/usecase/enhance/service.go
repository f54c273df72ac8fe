// Package enhance improves catalog texts through an LLM.
package enhance

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/domain/item"
)

// Service builds prompts, calls the LLM and parses answers. It never retries.
type Service struct {
	llm    Completer
	logger *zap.Logger
}

// New creates an enhancement service.
func New(llm Completer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{llm: llm, logger: logger}
}

// Enhance returns improved text for the requested field.
func (s *Service) Enhance(ctx context.Context, it item.Item, f Field) (Result, error) {
	if it.IsEmpty() {
		return Result{}, fmt.Errorf("nothing to enhance: %w", domain.ErrInvalidInput)
	}

	req := domain.UserPrompt(SystemPrompt, BuildPrompt(it, f))
	res, err := s.llm.Complete(ctx, req)
	if err != nil {
		return Result{}, classify(err)
	}

	out, err := Parse(res.Text, f)
	if err != nil {
		s.logger.Warn("Unparseable enhancement answer",
			zap.String("field", string(f)),
			zap.Int("answer_len", len(res.Text)),
			zap.Error(err),
		)
		return Result{}, err
	}
	return out, nil
}

// classify makes sure every LLM failure carries a known sentinel.
func classify(err error) error {
	for _, known := range []error{
		domain.ErrMissingAPIKey,
		domain.ErrQuotaExceeded,
		domain.ErrLLMProviderError,
		domain.ErrMalformedResponse,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrLLMProviderError, err)
}
