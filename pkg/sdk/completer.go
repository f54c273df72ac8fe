package katalog

import "context"

// Completer generates text for AI search terms and enhancement.
// Optional: without it the client falls back to the rule engine.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// CompletionRequest is a single-turn prompt with its system instructions.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// CompletionResult carries the generated text and token counts.
type CompletionResult struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}
