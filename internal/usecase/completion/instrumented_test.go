package completion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterLLMMetrics()
	os.Exit(m.Run())
}

type mockCompleter struct {
	result domain.CompletionResult
	err    error
	calls  int
}

func (m *mockCompleter) Complete(_ context.Context, _ domain.CompletionRequest) (domain.CompletionResult, error) {
	m.calls++
	return m.result, m.err
}

func TestInstrumentedCompleter_Success(t *testing.T) {
	inner := &mockCompleter{result: domain.CompletionResult{Text: "TITEL: Vas"}}
	p := NewInstrumentedCompleter(inner, "test", nil, zap.NewNop())

	result, err := p.Complete(context.Background(), domain.UserPrompt("", "hej"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "TITEL: Vas" {
		t.Fatalf("unexpected text %q", result.Text)
	}
}

func TestInstrumentedCompleter_RecordsRequestUsage(t *testing.T) {
	inner := &mockCompleter{result: domain.CompletionResult{InputTokens: 70, OutputTokens: 30}}
	p := NewInstrumentedCompleter(inner, "test-usage", nil, zap.NewNop())

	ctx, usage := domain.NewContextWithUsage(context.Background())
	if _, err := p.Complete(ctx, domain.UserPrompt("", "x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage.TotalTokens != 100 || usage.Calls != 1 {
		t.Errorf("expected 100 tokens in 1 call, got %+v", *usage)
	}
}

func TestInstrumentedCompleter_Error(t *testing.T) {
	inner := &mockCompleter{err: fmt.Errorf("api error: %w", domain.ErrLLMProviderError)}
	p := NewInstrumentedCompleter(inner, "test-err", nil, zap.NewNop())

	_, err := p.Complete(context.Background(), domain.UserPrompt("", "x"))
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestInstrumentedCompleter_BudgetRejection(t *testing.T) {
	budget := NewBudgetTracker("test-budget", 100, 0, BudgetActionReject, zap.NewNop())
	budget.Record(100)

	inner := &mockCompleter{}
	p := NewInstrumentedCompleter(inner, "test-budget", budget, zap.NewNop())

	_, err := p.Complete(context.Background(), domain.UserPrompt("", "x"))
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected domain.ErrQuotaExceeded, got %v", err)
	}
	if inner.calls != 0 {
		t.Errorf("provider must not be called when budget is exhausted")
	}
}

func TestInstrumentedCompleter_RecordsBudget(t *testing.T) {
	budget := NewBudgetTracker("test-record", 1000000, 10000000, BudgetActionReject, zap.NewNop())
	inner := &mockCompleter{result: domain.CompletionResult{InputTokens: 400, OutputTokens: 100}}
	p := NewInstrumentedCompleter(inner, "test-record", budget, zap.NewNop())

	initialDaily := budget.RemainingDaily()
	initialMonthly := budget.RemainingMonthly()

	if _, err := p.Complete(context.Background(), domain.UserPrompt("", "x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := budget.RemainingDaily(); got != initialDaily-500 {
		t.Errorf("expected daily remaining to decrease by 500, got %d -> %d", initialDaily, got)
	}
	if got := budget.RemainingMonthly(); got != initialMonthly-500 {
		t.Errorf("expected monthly remaining to decrease by 500, got %d -> %d", initialMonthly, got)
	}
}

func TestUnconfigured(t *testing.T) {
	u := Unconfigured{Provider: "anthropic"}
	if _, err := u.Complete(context.Background(), domain.CompletionRequest{}); !errors.Is(err, domain.ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
	if err := u.HealthCheck(context.Background()); !errors.Is(err, domain.ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}
