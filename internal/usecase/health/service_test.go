package health

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/domain/titleclean"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockLLMChecker struct {
	err error
}

func (m *mockLLMChecker) HealthCheck(_ context.Context) error { return m.err }

func failingSelfTest() []titleclean.Result {
	return []titleclean.Result{{Case: titleclean.Case{Title: "x", Expected: "y"}, Got: "x", Passed: false}}
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockLLMChecker{}, titleclean.SelfTest)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{"database", "llm", "title_cleanup"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
	if len(r.SelfTest) != len(titleclean.SelfTestCases) {
		t.Errorf("expected %d self-test results, got %d", len(titleclean.SelfTestCases), len(r.SelfTest))
	}
}

func TestCheck_DBError(t *testing.T) {
	svc := New(&mockDBPinger{err: errors.New("conn refused")}, &mockLLMChecker{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["database"] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks["database"])
	}
	if r.Checks["llm"] != CheckOK {
		t.Errorf("expected llm %q, got %q", CheckOK, r.Checks["llm"])
	}
}

func TestCheck_LLMError(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockLLMChecker{err: errors.New("timeout")}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["llm"] != CheckError {
		t.Errorf("expected llm %q, got %q", CheckError, r.Checks["llm"])
	}
}

func TestCheck_LLMUnconfigured(t *testing.T) {
	err := fmt.Errorf("openai: %w", domain.ErrMissingAPIKey)
	svc := New(&mockDBPinger{}, &mockLLMChecker{err: err}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["llm"] != CheckUnconfigured {
		t.Errorf("expected llm %q, got %q", CheckUnconfigured, r.Checks["llm"])
	}
}

func TestCheck_SelfTestFailure(t *testing.T) {
	svc := New(&mockDBPinger{}, nil, failingSelfTest)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["title_cleanup"] != CheckError {
		t.Errorf("expected title_cleanup %q, got %q", CheckError, r.Checks["title_cleanup"])
	}
}

func TestCheck_NoOptionalChecks(t *testing.T) {
	svc := New(&mockDBPinger{}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["llm"]; ok {
		t.Error("llm check should be absent when llm is nil")
	}
	if _, ok := r.Checks["title_cleanup"]; ok {
		t.Error("title_cleanup check should be absent when selfTest is nil")
	}
}
