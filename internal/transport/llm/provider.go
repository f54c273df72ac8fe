// Package llm selects the configured completion provider.
package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/katalog/internal/config"
	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/transport/anthropic"
	"github.com/kailas-cloud/katalog/internal/transport/gemini"
	"github.com/kailas-cloud/katalog/internal/transport/openai"
	completionuc "github.com/kailas-cloud/katalog/internal/usecase/completion"
)

// Provider is the base of the completer chain.
type Provider struct {
	Name      string
	Model     string // provider model override or llm.model
	Enabled   bool   // false when llm.provider is empty
	Completer domain.Completer
}

// NewProvider builds the client for llm.provider. A provider without an API key
// becomes completionuc.Unconfigured so callers see domain.ErrMissingAPIKey
// instead of a network error.
func NewProvider(ctx context.Context, lc config.LLMConfig, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	name, pc, ok := lc.Active()
	if !ok {
		name = "none"
	}
	p := Provider{
		Name:      name,
		Model:     lc.Model,
		Enabled:   ok,
		Completer: completionuc.Unconfigured{Provider: name},
	}
	if pc.Model != "" {
		p.Model = pc.Model
	}
	timeout := time.Duration(lc.TimeoutSec) * time.Second

	switch {
	case !ok || pc.APIKey == "":
		logger.Warn("LLM provider not configured, AI features disabled", zap.String("provider", name))
	case name == config.ProviderAnthropic:
		p.Completer = anthropic.NewCompleter(&anthropic.Config{
			APIKey:  pc.APIKey,
			BaseURL: pc.BaseURL,
			Timeout: timeout,
			Logger:  logger,
		})
	case name == config.ProviderOpenAI:
		p.Completer = openai.NewCompleter(&openai.Config{
			APIKey:   pc.APIKey,
			BaseURL:  pc.BaseURL,
			Provider: name,
			Timeout:  timeout,
			Logger:   logger,
		})
	case name == config.ProviderGemini:
		gc, err := gemini.NewCompleter(ctx, &gemini.Config{
			APIKey:  pc.APIKey,
			BaseURL: pc.BaseURL,
			Timeout: timeout,
			Logger:  logger,
		})
		if err != nil {
			logger.Error("Failed to create Gemini client", zap.Error(err))
			break
		}
		p.Completer = gc
	}
	return p
}

// HealthChecker returns the provider's health probe. Providers without one
// report as unconfigured.
func (p Provider) HealthChecker() domain.HealthChecker {
	if hc, ok := p.Completer.(domain.HealthChecker); ok {
		return hc
	}
	return completionuc.Unconfigured{Provider: p.Name}
}
