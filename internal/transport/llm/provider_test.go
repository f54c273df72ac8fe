package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/katalog/internal/config"
	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/transport/anthropic"
	"github.com/kailas-cloud/katalog/internal/transport/openai"
)

func TestNewProvider_Disabled(t *testing.T) {
	p := NewProvider(context.Background(), config.LLMConfig{Model: "m"}, nil)
	if p.Enabled {
		t.Error("empty provider must disable AI")
	}
	if p.Name != "none" {
		t.Errorf("name = %q, want none", p.Name)
	}
	_, err := p.Completer.Complete(context.Background(), domain.CompletionRequest{})
	if !errors.Is(err, domain.ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
	if err := p.HealthChecker().HealthCheck(context.Background()); !errors.Is(err, domain.ErrMissingAPIKey) {
		t.Errorf("health err = %v, want ErrMissingAPIKey", err)
	}
}

func TestNewProvider_MissingKey(t *testing.T) {
	for _, name := range []string{config.ProviderAnthropic, config.ProviderOpenAI, config.ProviderGemini} {
		t.Run(name, func(t *testing.T) {
			p := NewProvider(context.Background(), config.LLMConfig{
				Provider:  name,
				Providers: map[string]config.ProviderConfig{name: {}},
			}, nil)
			if !p.Enabled {
				t.Error("selected provider should be enabled")
			}
			_, err := p.Completer.Complete(context.Background(), domain.CompletionRequest{})
			if !errors.Is(err, domain.ErrMissingAPIKey) {
				t.Errorf("err = %v, want ErrMissingAPIKey", err)
			}
		})
	}
}

func TestNewProvider_Selects(t *testing.T) {
	tests := []struct {
		name  string
		check func(domain.Completer) bool
	}{
		{config.ProviderAnthropic, func(c domain.Completer) bool { _, ok := c.(*anthropic.Completer); return ok }},
		{config.ProviderOpenAI, func(c domain.Completer) bool { _, ok := c.(*openai.Completer); return ok }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider(context.Background(), config.LLMConfig{
				Provider: tt.name,
				Model:    "default-model",
				Providers: map[string]config.ProviderConfig{
					tt.name: {APIKey: "k", Model: "override"},
				},
			}, nil)
			if !tt.check(p.Completer) {
				t.Errorf("completer = %T", p.Completer)
			}
			if p.Model != "override" {
				t.Errorf("model = %q, want override", p.Model)
			}
		})
	}
}
