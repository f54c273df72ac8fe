package katalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/katalog/internal/db"
	dbMemory "github.com/kailas-cloud/katalog/internal/db/memory"
	dbRedis "github.com/kailas-cloud/katalog/internal/db/redis"
	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/domain/item"
	"github.com/kailas-cloud/katalog/internal/domain/market"
	"github.com/kailas-cloud/katalog/internal/domain/query"
	"github.com/kailas-cloud/katalog/internal/domain/rules"
	"github.com/kailas-cloud/katalog/internal/domain/titleclean"
	"github.com/kailas-cloud/katalog/internal/repository/marketcache"
	sessionrepo "github.com/kailas-cloud/katalog/internal/repository/session"
	"github.com/kailas-cloud/katalog/internal/transport/auctionet"
	completionuc "github.com/kailas-cloud/katalog/internal/usecase/completion"
	enhanceuc "github.com/kailas-cloud/katalog/internal/usecase/enhance"
	healthuc "github.com/kailas-cloud/katalog/internal/usecase/health"
	marketuc "github.com/kailas-cloud/katalog/internal/usecase/market"
	"github.com/kailas-cloud/katalog/internal/usecase/searchterms"
	sessionuc "github.com/kailas-cloud/katalog/internal/usecase/session"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped for fakes in tests.
type sessionUseCase interface {
	Start(ctx context.Context, it item.Item) (sessionuc.Started, error)
	Get(ctx context.Context, id string) (query.Snapshot, error)
	IsTermSelected(ctx context.Context, id, t string) (bool, error)
	UpdateSelections(ctx context.Context, id string, selected []string, opts query.UpdateOptions) (query.Snapshot, error)
	Reinitialize(ctx context.Context, id string, it item.Item, q string) (query.Snapshot, error)
	Delete(ctx context.Context, id string) error
}

type marketUseCase interface {
	Analyze(ctx context.Context, query string) (*market.Data, error)
}

type enhanceUseCase interface {
	Enhance(ctx context.Context, it item.Item, f enhanceuc.Field) (enhanceuc.Result, error)
}

// Client is the katalog SDK entry point.
type Client struct {
	store      db.Store
	rules      rules.Config
	sessionSvc sessionUseCase
	marketSvc  marketUseCase
	enhanceSvc enhanceUseCase
	healthSvc  healthUseCase
	obs        *observer
}

// New creates a katalog Client. Sessions live in memory unless WithValkey or
// WithRedis is given; the context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	ruleCfg, err := buildRules(cfg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("katalog: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	c, err := wireClient(store, ruleCfg, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "memory":
		s, err := dbMemory.NewStore(dbMemory.Config{MaxKeys: cfg.maxKeys})
		if err != nil {
			return nil, fmt.Errorf("katalog: create memory store: %w", err)
		}
		return s, nil
	case "valkey", "redis":
		if len(cfg.addrs) == 0 {
			return nil, fmt.Errorf("katalog: %s address required", cfg.driver)
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.addrs,
			Password:   cfg.password,
			ClientName: "katalog-sdk",
		})
		if err != nil {
			return nil, fmt.Errorf("katalog: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("katalog: unknown driver %q", cfg.driver)
	}
}

func buildRules(cfg *clientConfig) (rules.Config, error) {
	rc := rules.DefaultConfig().WithExtras(cfg.extraBrands, cfg.extraObjectTypes, nil, nil)
	if cfg.maxTerms > 0 {
		rc.MaxTerms = cfg.maxTerms
	}
	if cfg.preselectLimit > 0 {
		rc.PreselectLimit = cfg.preselectLimit
	}
	if err := rc.Validate(); err != nil {
		return rules.Config{}, fmt.Errorf("katalog: %w", err)
	}
	return rc, nil
}

func wireClient(store db.Store, ruleCfg rules.Config, cfg *clientConfig, obs *observer) (*Client, error) {
	// Internal services log through zap; the SDK reports through its observer.
	nop := zap.NewNop()

	// Completer: nil interface when not configured so search terms use the rules.
	var termLLM searchterms.Completer
	var llm domain.Completer = completionuc.Unconfigured{Provider: "sdk"}
	if cfg.completer != nil {
		llm = domain.NewDefaultsCompleter(&completerAdapter{inner: cfg.completer}, cfg.model, cfg.maxTokens, cfg.temperature)
		termLLM = llm
	}

	sessionSvc, err := sessionuc.New(
		sessionrepo.New(store, cfg.sessionTTL),
		searchterms.New(termLLM, ruleCfg, nop),
		cfg.sessionCacheSize,
		nop,
	)
	if err != nil {
		return nil, fmt.Errorf("katalog: %w", err)
	}

	source := auctionet.NewClient(&auctionet.Config{
		BaseURL:   cfg.auctionetURL,
		PublicURL: cfg.publicURL,
		Timeout:   cfg.httpTimeout,
		Logger:    nop,
	})
	// nil counter: the SDK exposes its own operation metrics only.
	cache := marketcache.New(store, 64, 30*time.Minute, nil, nop)
	marketSvc := marketuc.New(source, cache, marketuc.DefaultAnalyzeOptions(), nop)

	return &Client{
		store:      store,
		rules:      ruleCfg,
		sessionSvc: sessionSvc,
		marketSvc:  marketSvc,
		enhanceSvc: enhanceuc.New(llm, nop),
		healthSvc:  healthuc.New(store, nil, titleclean.SelfTest),
		obs:        obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Terms runs the rule engine on an item and returns ranked candidate terms.
// It never calls the LLM.
func (c *Client) Terms(it Item) []Term {
	return fromTerms(rules.Apply(c.rules, toItem(it).RuleInput()))
}

// CleanTitle removes the artist name from a title and repairs the leftover punctuation.
func (c *Client) CleanTitle(title, artist string) string {
	return titleclean.CleanAfterArtistRemoval(title, artist)
}

// Sessions returns the search session service.
func (c *Client) Sessions() *SessionService {
	return &SessionService{svc: c.sessionSvc, obs: c.obs}
}

// Market returns the market analysis service.
func (c *Client) Market() *MarketService {
	return &MarketService{svc: c.marketSvc, obs: c.obs}
}

// completerAdapter wraps public Completer to satisfy internal domain.Completer.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	parts := make([]string, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == domain.RoleUser {
			parts = append(parts, m.Content)
		}
	}
	r, err := a.inner.Complete(ctx, CompletionRequest{
		Model:       req.Model,
		System:      req.System,
		Prompt:      strings.Join(parts, "\n\n"),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("complete: %w", err)
	}
	return domain.CompletionResult{
		Text:         r.Text,
		Model:        r.Model,
		InputTokens:  r.InputTokens,
		OutputTokens: r.OutputTokens,
	}, nil
}
