package domain

import (
	"context"
	"fmt"
	"regexp"
)

// Role of a chat message.
type Role string

// Chat roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest is a provider-neutral chat completion call.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// CompletionResult carries the generated text and token usage through the decorator chain.
type CompletionResult struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// TotalTokens is input plus output.
func (r CompletionResult) TotalTokens() int { return r.InputTokens + r.OutputTokens }

// Completer is the shared text generation contract between layers.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// UserPrompt builds a single-turn request.
func UserPrompt(system, prompt string) CompletionRequest {
	return CompletionRequest{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	}
}

// DefaultsCompleter fills model, max tokens and temperature when the caller left them empty.
type DefaultsCompleter struct {
	inner       Completer
	model       string
	maxTokens   int
	temperature float64
}

// NewDefaultsCompleter creates a decorator that applies configured defaults.
func NewDefaultsCompleter(inner Completer, model string, maxTokens int, temperature float64) *DefaultsCompleter {
	return &DefaultsCompleter{inner: inner, model: model, maxTokens: maxTokens, temperature: temperature}
}

// Complete applies defaults and delegates to inner completer.
func (c *DefaultsCompleter) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = c.maxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = c.temperature
	}
	res, err := c.inner.Complete(ctx, req)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("complete: %w", err)
	}
	return res, nil
}

var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*[ \\t]*\\n?(.*?)\\n?[ \\t]*```")

// StripCodeFence returns the body of the first markdown code fence in s, or s unchanged.
func StripCodeFence(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
