package llmcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/katalog/internal/db"
	"github.com/kailas-cloud/katalog/internal/domain"
)

func TestComplete_CacheMiss(t *testing.T) {
	inner := &mockCompleter{result: domain.CompletionResult{
		Text: "TITEL: Vas", Model: "m", InputTokens: 90, OutputTokens: 10,
	}}
	cc, ms := newTestCachedCompleter(t, inner)

	var setKey string
	var setTTL time.Duration
	ms.setFn = func(_ context.Context, key string, _ []byte, ttl time.Duration) error {
		setKey, setTTL = key, ttl
		return nil
	}

	result, err := cc.Complete(context.Background(), domain.UserPrompt("sys", "vas"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalTokens() != 100 {
		t.Fatalf("expected 100 tokens on miss, got %d", result.TotalTokens())
	}
	if !strings.HasPrefix(setKey, "katalog:llm_cache:") {
		t.Errorf("unexpected cache key %q", setKey)
	}
	if setTTL != time.Hour {
		t.Errorf("expected 1h ttl, got %v", setTTL)
	}
}

func TestComplete_CacheHit(t *testing.T) {
	inner := &mockCompleter{}
	cc, ms := newTestCachedCompleter(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte(`{"text":"SÖKORD: vas","model":"m"}`), nil
	}

	result, err := cc.Complete(context.Background(), domain.UserPrompt("sys", "vas"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "SÖKORD: vas" {
		t.Fatalf("expected cached text, got %q", result.Text)
	}
	if result.TotalTokens() != 0 {
		t.Fatalf("expected 0 tokens on hit, got %d", result.TotalTokens())
	}
	if inner.calls != 0 {
		t.Errorf("inner must not be called on hit")
	}
}

func TestComplete_CorruptCacheFallsThrough(t *testing.T) {
	inner := &mockCompleter{result: domain.CompletionResult{Text: "fresh"}}
	cc, ms := newTestCachedCompleter(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return []byte("{not json"), nil }

	result, err := cc.Complete(context.Background(), domain.UserPrompt("", "x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "fresh" || inner.calls != 1 {
		t.Errorf("expected inner call, got %q (%d calls)", result.Text, inner.calls)
	}
}

func TestComplete_InnerError(t *testing.T) {
	inner := &mockCompleter{err: errors.New("provider down")}
	cc, ms := newTestCachedCompleter(t, inner)

	var setCalled bool
	ms.setFn = func(context.Context, string, []byte, time.Duration) error {
		setCalled = true
		return nil
	}

	if _, err := cc.Complete(context.Background(), domain.UserPrompt("", "x")); err == nil {
		t.Fatal("expected error")
	}
	if setCalled {
		t.Error("errors must not be cached")
	}
}

func TestComplete_StoreErrorIgnored(t *testing.T) {
	inner := &mockCompleter{result: domain.CompletionResult{Text: "ok"}}
	cc, ms := newTestCachedCompleter(t, inner)
	ms.getFn = func(context.Context, string) ([]byte, error) { return nil, errors.New("timeout") }
	ms.setFn = func(context.Context, string, []byte, time.Duration) error { return errors.New("timeout") }

	result, err := cc.Complete(context.Background(), domain.UserPrompt("", "x"))
	if err != nil || result.Text != "ok" {
		t.Fatalf("cache failures must not fail the call: %q, %v", result.Text, err)
	}
}

func TestCacheKey_DependsOnEveryField(t *testing.T) {
	base := domain.UserPrompt("sys", "vas")
	base.Model = "m"
	base.MaxTokens = 100

	variants := []func(r *domain.CompletionRequest){
		func(r *domain.CompletionRequest) { r.Model = "other" },
		func(r *domain.CompletionRequest) { r.System = "other" },
		func(r *domain.CompletionRequest) { r.MaxTokens = 200 },
		func(r *domain.CompletionRequest) { r.Temperature = 0.5 },
		func(r *domain.CompletionRequest) { r.Messages = []domain.Message{{Role: domain.RoleUser, Content: "skål"}} },
	}
	k0 := cacheKey(base)
	if cacheKey(base) != k0 {
		t.Fatal("key must be deterministic")
	}
	for i, mutate := range variants {
		r := base
		r.Messages = append([]domain.Message(nil), base.Messages...)
		mutate(&r)
		if cacheKey(r) == k0 {
			t.Errorf("variant %d produced the same key", i)
		}
	}

	// length-prefixing keeps field boundaries apart
	a := domain.CompletionRequest{System: "ab", Model: "c"}
	b := domain.CompletionRequest{System: "b", Model: "ca"}
	if cacheKey(a) == cacheKey(b) {
		t.Error("field boundary collision")
	}
}

func TestComplete_MemoryLayerServesRepeat(t *testing.T) {
	inner := &mockCompleter{result: domain.CompletionResult{Text: "TITEL: Skål", Model: "m", InputTokens: 5}}
	cc, ms := newTestCachedCompleter(t, inner)

	kvReads := 0
	ms.getFn = func(context.Context, string) ([]byte, error) {
		kvReads++
		return nil, db.ErrKeyNotFound
	}

	req := domain.UserPrompt("sys", "skål")
	if _, err := cc.Complete(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := cc.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "TITEL: Skål" || result.TotalTokens() != 0 {
		t.Errorf("expected cached text with zero tokens, got %q (%d)", result.Text, result.TotalTokens())
	}
	if inner.calls != 1 || kvReads != 1 {
		t.Errorf("repeat must be served from memory: %d inner calls, %d kv reads", inner.calls, kvReads)
	}
	if cc.Len() != 1 {
		t.Errorf("expected 1 entry in memory, got %d", cc.Len())
	}
}

func TestComplete_KVHitWarmsMemory(t *testing.T) {
	inner := &mockCompleter{}
	cc, ms := newTestCachedCompleter(t, inner)
	kvReads := 0
	ms.getFn = func(context.Context, string) ([]byte, error) {
		kvReads++
		return []byte(`{"text":"SÖKORD: vas","model":"m"}`), nil
	}

	req := domain.UserPrompt("sys", "vas")
	for i := 0; i < 2; i++ {
		if _, err := cc.Complete(context.Background(), req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if kvReads != 1 {
		t.Errorf("expected a single kv read, got %d", kvReads)
	}
}
