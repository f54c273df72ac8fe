// Package anthropic implements domain.Completer on top of the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/metrics"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"
	providerName   = "anthropic"
)

// Config holds the provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Completer calls POST {base}/messages.
type Completer struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewCompleter creates an Anthropic completion provider.
func NewCompleter(cfg *Config) *Completer {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Completer{
		apiKey:  cfg.APIKey,
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type messagesResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete implements domain.Completer.
func (c *Completer) Complete(ctx context.Context, in domain.CompletionRequest) (domain.CompletionResult, error) {
	if c.apiKey == "" {
		return domain.CompletionResult{}, domain.ErrMissingAPIKey
	}

	body := messagesRequest{
		Model:       in.Model,
		MaxTokens:   in.MaxTokens,
		System:      in.System,
		Temperature: in.Temperature,
		Messages:    make([]message, 0, len(in.Messages)),
	}
	for _, m := range in.Messages {
		body.Messages = append(body.Messages, message{Role: string(m.Role), Content: m.Content})
	}

	start := time.Now()
	res, err := c.do(ctx, body)
	metrics.ObserveLLM(providerName, in.Model, time.Since(start).Seconds(), res.InputTokens, res.OutputTokens, err)
	if err != nil {
		metrics.LLMErrorsTotal.WithLabelValues(providerName, in.Model, errorType(err)).Inc()
		c.logger.Error("Anthropic completion failed", zap.String("model", in.Model), zap.Error(err))
		return domain.CompletionResult{}, err
	}
	if res.Model == "" {
		res.Model = in.Model
	}
	return res, nil
}

func (c *Completer) do(ctx context.Context, body messagesRequest) (domain.CompletionResult, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("messages request: %v: %w", err, domain.ErrLLMProviderError)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("read response: %v: %w", err, domain.ErrLLMProviderError)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.CompletionResult{}, fmt.Errorf("%w: %w", domain.ErrMissingAPIKey,
			domain.NewProviderStatus(providerName, resp.StatusCode, string(raw)))
	case resp.StatusCode != http.StatusOK:
		return domain.CompletionResult{}, domain.NewProviderStatus(providerName, resp.StatusCode, string(raw))
	}

	var parsed messagesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return domain.CompletionResult{}, fmt.Errorf("decode response: %v: %w", err, domain.ErrMalformedResponse)
	}
	if parsed.Error != nil {
		return domain.CompletionResult{}, fmt.Errorf("%s: %s: %w", parsed.Error.Type, parsed.Error.Message, domain.ErrLLMProviderError)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return domain.CompletionResult{}, fmt.Errorf("no text content: %w", domain.ErrMalformedResponse)
	}

	return domain.CompletionResult{
		Text:         out,
		Model:        parsed.Model,
		InputTokens:  parsed.Usage.InputTokens,
		OutputTokens: parsed.Usage.OutputTokens,
	}, nil
}

// HealthCheck reports a missing key. The Messages API has no free endpoint to probe.
func (c *Completer) HealthCheck(_ context.Context) error {
	if c.apiKey == "" {
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
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "api_error"
	}
}
