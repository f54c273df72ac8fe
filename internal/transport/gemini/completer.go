// Package gemini implements domain.Completer on top of the Google GenAI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/metrics"
)

const providerName = "gemini"

// Config holds the provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Completer wraps genai.Client.Models.GenerateContent.
type Completer struct {
	cli    *genai.Client
	logger *zap.Logger
}

// NewCompleter creates a Gemini completion provider.
func NewCompleter(ctx context.Context, cfg *Config) (*Completer, error) {
	if cfg.APIKey == "" {
		return nil, domain.ErrMissingAPIKey
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Completer{cli: cli, logger: logger}, nil
}

// Complete implements domain.Completer.
func (c *Completer) Complete(ctx context.Context, in domain.CompletionRequest) (domain.CompletionResult, error) {
	contents := make([]*genai.Content, 0, len(in.Messages))
	for _, m := range in.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	gc := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(in.Temperature)),
		MaxOutputTokens: int32(in.MaxTokens),
	}
	if in.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(in.System, genai.RoleUser)
	}

	start := time.Now()
	resp, err := c.cli.Models.GenerateContent(ctx, in.Model, contents, gc)
	res, err := toResult(resp, err)
	metrics.ObserveLLM(providerName, in.Model, time.Since(start).Seconds(), res.InputTokens, res.OutputTokens, err)
	if err != nil {
		metrics.LLMErrorsTotal.WithLabelValues(providerName, in.Model, errorType(err)).Inc()
		c.logger.Error("Gemini completion failed", zap.String("model", in.Model), zap.Error(err))
		return domain.CompletionResult{}, err
	}
	if res.Model == "" {
		res.Model = in.Model
	}
	return res, nil
}

func toResult(resp *genai.GenerateContentResponse, err error) (domain.CompletionResult, error) {
	if err != nil {
		return domain.CompletionResult{}, mapError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return domain.CompletionResult{}, fmt.Errorf("no candidates: %w", domain.ErrMalformedResponse)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return domain.CompletionResult{}, fmt.Errorf("empty candidate: %w", domain.ErrMalformedResponse)
	}
	out := domain.CompletionResult{Text: text, Model: resp.ModelVersion}
	if u := resp.UsageMetadata; u != nil {
		out.InputTokens = int(u.PromptTokenCount)
		out.OutputTokens = int(u.CandidatesTokenCount)
	}
	return out, nil
}

// mapError wraps SDK errors with the matching domain sentinel.
func mapError(err error) error {
	code, msg := 0, err.Error()
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		code, msg = apiErr.Code, apiErr.Message
	}

	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: %w", domain.ErrMissingAPIKey, domain.NewProviderStatus(providerName, code, msg))
	case code != 0:
		return domain.NewProviderStatus(providerName, code, msg)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("gemini request timed out: %w", domain.ErrLLMProviderError)
	default:
		return fmt.Errorf("gemini request: %v: %w", err, domain.ErrLLMProviderError)
	}
}

// HealthCheck reports whether a client was configured.
func (c *Completer) HealthCheck(_ context.Context) error {
	if c.cli == nil {
		return domain.ErrMissingAPIKey
	}
	return nil
}

func errorType(err error) string {
	var status *domain.ProviderStatusError
	switch {
	case errors.Is(err, domain.ErrMissingAPIKey):
		return "auth"
	case errors.As(err, &status) && status.StatusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed"
	default:
		return "api_error"
	}
}
