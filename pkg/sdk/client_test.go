package katalog

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/katalog/internal/domain"
)

func newMemoryClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := New(context.Background(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNew_DefaultsToMemory(t *testing.T) {
	c := newMemoryClient(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := &clientConfig{driver: "unknown", addrs: []string{"localhost:1234"}}
	_, err := createStore(cfg)
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestNew_ValkeyWithoutAddress(t *testing.T) {
	cfg := &clientConfig{driver: "valkey"}
	if _, err := createStore(cfg); err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestNew_InvalidTermLimits(t *testing.T) {
	_, err := New(context.Background(), WithTermLimits(2, 5))
	if err == nil {
		t.Fatal("expected error when preselect exceeds max terms")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := defaultConfig()
	if cfg.driver != "memory" {
		t.Errorf("default driver = %q, want memory", cfg.driver)
	}

	WithValkey("localhost:6379", "secret").apply(cfg)
	if cfg.driver != "valkey" {
		t.Errorf("driver = %q, want valkey", cfg.driver)
	}
	if cfg.addrs[0] != "localhost:6379" {
		t.Errorf("addr = %q, want localhost:6379", cfg.addrs[0])
	}
	if cfg.password != "secret" {
		t.Errorf("password = %q, want secret", cfg.password)
	}

	WithMemory(500).apply(cfg)
	if cfg.driver != "memory" || cfg.addrs != nil || cfg.maxKeys != 500 {
		t.Errorf("WithMemory: driver=%q addrs=%v maxKeys=%d", cfg.driver, cfg.addrs, cfg.maxKeys)
	}

	cfg2 := defaultConfig()
	WithRedis("localhost:6380", "pass").apply(cfg2)
	if cfg2.driver != "redis" {
		t.Errorf("driver = %q, want redis", cfg2.driver)
	}

	cfg3 := defaultConfig()
	WithModel("claude-sonnet-4", 512, 0.2).apply(cfg3)
	if cfg3.model != "claude-sonnet-4" || cfg3.maxTokens != 512 || cfg3.temperature != 0.2 {
		t.Errorf("model = (%q, %d, %g)", cfg3.model, cfg3.maxTokens, cfg3.temperature)
	}

	WithTermLimits(8, 3).apply(cfg3)
	if cfg3.maxTerms != 8 || cfg3.preselectLimit != 3 {
		t.Errorf("limits = (%d, %d), want (8, 3)", cfg3.maxTerms, cfg3.preselectLimit)
	}

	WithAuctionet("http://localhost:9999", "http://localhost:9999/sv", 0).apply(cfg3)
	if cfg3.auctionetURL != "http://localhost:9999" {
		t.Errorf("auctionetURL = %q", cfg3.auctionetURL)
	}
	if cfg3.httpTimeout != 10*time.Second {
		t.Errorf("zero timeout should keep the default, got %v", cfg3.httpTimeout)
	}

	WithSessions(16, time.Hour).apply(cfg3)
	if cfg3.sessionCacheSize != 16 || cfg3.sessionTTL != time.Hour {
		t.Errorf("sessions = (%d, %v)", cfg3.sessionCacheSize, cfg3.sessionTTL)
	}

	cfg4 := defaultConfig()
	logger := slog.Default()
	WithLogger(logger).apply(cfg4)
	if cfg4.logger != logger {
		t.Error("expected logger to be set")
	}

	cfg5 := defaultConfig()
	reg := prometheus.NewRegistry()
	WithPrometheus(reg).apply(cfg5)
	if cfg5.metricsReg != reg {
		t.Error("expected metricsReg to be set")
	}
}

func TestClient_Close_NilStore(t *testing.T) {
	c := &Client{store: nil}
	c.Close()
}

func TestClient_Terms(t *testing.T) {
	c := newMemoryClient(t, WithDictionaries([]string{"Hallbergs"}, nil))

	terms := c.Terms(Item{Title: "ROLEX, armbandsur, Submariner"})
	if len(terms) == 0 {
		t.Fatal("expected terms")
	}
	if terms[0].Text != "Rolex" || terms[0].Type != TermBrand || !terms[0].Core {
		t.Errorf("first term = %+v, want core Rolex brand", terms[0])
	}

	custom := c.Terms(Item{Title: "HALLBERGS, bägare, silver"})
	found := false
	for _, tm := range custom {
		if tm.Type == TermBrand {
			found = true
		}
	}
	if !found {
		t.Errorf("extra brand not detected in %+v", custom)
	}
}

func TestClient_CleanTitle(t *testing.T) {
	c := &Client{}
	if got := c.CleanTitle("LISA LARSON, Skulptur, brons", "LISA LARSON"); got != "Skulptur, brons" {
		t.Errorf("CleanTitle = %q, want %q", got, "Skulptur, brons")
	}
}

func TestClient_SessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newMemoryClient(t)

	sess, err := c.Sessions().Start(ctx, Item{Title: "ROLEX, armbandsur, stål, 1960-tal"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !sess.Fallback || sess.FallbackReason != "disabled" {
		t.Errorf("fallback = (%v, %q), want (true, disabled)", sess.Fallback, sess.FallbackReason)
	}
	if sess.ID == "" || sess.Query == "" {
		t.Fatalf("session not initialized: %+v", sess)
	}

	ok, err := c.Sessions().IsTermSelected(ctx, sess.ID, "rolex")
	if err != nil || !ok {
		t.Fatalf("IsTermSelected(rolex) = (%v, %v), want true", ok, err)
	}

	updated, err := c.Sessions().Select(ctx, sess.ID, []string{"armbandsur"}, "Rolex")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if updated.Query != "armbandsur" {
		t.Errorf("query = %q, want armbandsur", updated.Query)
	}
	if updated.Version <= sess.Version {
		t.Errorf("version did not advance: %d -> %d", sess.Version, updated.Version)
	}

	got, err := c.Sessions().Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Query != updated.Query {
		t.Errorf("Get query = %q, want %q", got.Query, updated.Query)
	}

	if err := c.Sessions().Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Sessions().Get(ctx, sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after delete: err = %v, want ErrSessionNotFound", err)
	}
}

func TestClient_StartWithCompleter(t *testing.T) {
	llm := &mockCompleter{
		fn: func(_ context.Context, req CompletionRequest) (CompletionResult, error) {
			if req.Prompt == "" || req.System == "" {
				t.Errorf("prompt and system must be forwarded: %+v", req)
			}
			if req.MaxTokens != 256 {
				t.Errorf("MaxTokens = %d, want 256", req.MaxTokens)
			}
			return CompletionResult{}, errors.New("provider down")
		},
	}
	c := newMemoryClient(t, WithCompleter(llm), WithModel("test-model", 256, 0))

	sess, err := c.Sessions().Start(context.Background(), Item{Title: "Vas, stengods"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !llm.called {
		t.Error("completer was not called")
	}
	if !sess.Fallback || sess.FallbackReason != "provider_error" {
		t.Errorf("fallback = (%v, %q), want (true, provider_error)", sess.Fallback, sess.FallbackReason)
	}
}

func TestClient_Enhance(t *testing.T) {
	llm := &mockCompleter{
		fn: func(_ context.Context, _ CompletionRequest) (CompletionResult, error) {
			return CompletionResult{Text: "TITEL: Skulptur, brons, 1950-tal", InputTokens: 10, OutputTokens: 5}, nil
		},
	}
	c := newMemoryClient(t, WithCompleter(llm))

	got, err := c.Enhance(context.Background(), Item{Title: "skulptur brons 50-tal"}, "title")
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if got.Title != "Skulptur, brons, 1950-tal" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Description != "" {
		t.Errorf("Description should be empty for a title request, got %q", got.Description)
	}
}

func TestClient_Enhance_NoCompleter(t *testing.T) {
	c := newMemoryClient(t)
	_, err := c.Enhance(context.Background(), Item{Title: "Vas"}, "")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestClient_Enhance_UnknownField(t *testing.T) {
	c := newMemoryClient(t)
	_, err := c.Enhance(context.Background(), Item{Title: "Vas"}, "price")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestClient_Health(t *testing.T) {
	c := newMemoryClient(t)
	h := c.Health(context.Background())
	if h.Status != "ok" {
		t.Errorf("status = %q, want ok (checks %v)", h.Status, h.Checks)
	}
	if h.Checks["title_cleanup"] != "ok" {
		t.Errorf("title_cleanup = %q", h.Checks["title_cleanup"])
	}
	if len(h.FailedCleanups) != 0 {
		t.Errorf("unexpected failed cleanups: %v", h.FailedCleanups)
	}
}

func TestCompleterAdapter(t *testing.T) {
	var got CompletionRequest
	adapter := &completerAdapter{inner: &mockCompleter{
		fn: func(_ context.Context, req CompletionRequest) (CompletionResult, error) {
			got = req
			return CompletionResult{Text: "ok", Model: "m", InputTokens: 3, OutputTokens: 4}, nil
		},
	}}

	res, err := adapter.Complete(context.Background(), domain.CompletionRequest{
		System: "sys",
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: "first"},
			{Role: domain.RoleAssistant, Content: "skipped"},
			{Role: domain.RoleUser, Content: "second"},
		},
		MaxTokens: 99,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Prompt != "first\n\nsecond" || got.System != "sys" || got.MaxTokens != 99 {
		t.Errorf("forwarded request = %+v", got)
	}
	if res.TotalTokens() != 7 {
		t.Errorf("total tokens = %d, want 7", res.TotalTokens())
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe("test", time.Now(), nil)
	obs.observe("test", time.Now(), errors.New("err"), "session_id", "x")
}

func TestObserver_WithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("session_get", time.Now().Add(-10*time.Millisecond), nil)
	obs.observe("session_get", time.Now(), errors.New("fail"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "katalog_sdk_operations_total" {
			found = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected 2 metric samples, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("katalog_sdk_operations_total not found")
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("first newObserver: %v", err)
	}
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("second newObserver should reuse collectors: %v", err)
	}
}

func TestObserver_WithLogger(t *testing.T) {
	obs, err := newObserver(slog.Default(), nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	obs.observe("test.op", time.Now(), nil, "field", "title")
	obs.observe("test.op", time.Now(), errors.New("test error"))
}
