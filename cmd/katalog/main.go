package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/katalog/internal/config"
	"github.com/kailas-cloud/katalog/internal/dashboard"
	"github.com/kailas-cloud/katalog/internal/db"
	dbMemory "github.com/kailas-cloud/katalog/internal/db/memory"
	dbRedis "github.com/kailas-cloud/katalog/internal/db/redis"
	"github.com/kailas-cloud/katalog/internal/domain"
	"github.com/kailas-cloud/katalog/internal/domain/titleclean"
	logpkg "github.com/kailas-cloud/katalog/internal/logger"
	"github.com/kailas-cloud/katalog/internal/metrics"
	budgetrepo "github.com/kailas-cloud/katalog/internal/repository/budget"
	"github.com/kailas-cloud/katalog/internal/repository/llmcache"
	"github.com/kailas-cloud/katalog/internal/repository/marketcache"
	"github.com/kailas-cloud/katalog/internal/repository/preference"
	sessionrepo "github.com/kailas-cloud/katalog/internal/repository/session"
	"github.com/kailas-cloud/katalog/internal/transport/auctionet"
	chiTransport "github.com/kailas-cloud/katalog/internal/transport/chi"
	"github.com/kailas-cloud/katalog/internal/transport/llm"
	completionuc "github.com/kailas-cloud/katalog/internal/usecase/completion"
	enhanceuc "github.com/kailas-cloud/katalog/internal/usecase/enhance"
	healthuc "github.com/kailas-cloud/katalog/internal/usecase/health"
	marketuc "github.com/kailas-cloud/katalog/internal/usecase/market"
	"github.com/kailas-cloud/katalog/internal/usecase/searchterms"
	sessionuc "github.com/kailas-cloud/katalog/internal/usecase/session"
	usageuc "github.com/kailas-cloud/katalog/internal/usecase/usage"
	"github.com/kailas-cloud/katalog/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting katalog API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("llm_provider", cfg.LLM.Provider),
	)

	store, err := openStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterLLMMetrics()
	metrics.RegisterMarketMetrics()

	rulesCfg, err := cfg.Rules.Build()
	if err != nil {
		logger.Fatal("Invalid rule configuration", zap.Error(err))
	}

	// LLM chain
	provider := llm.NewProvider(ctx, cfg.LLM, logger)
	_, provCfg, _ := cfg.LLM.Active()

	// Single BudgetTracker shared by the completer chain and the usage service.
	var budget *completionuc.BudgetTracker
	budgetCfg := provCfg.Budget
	if provider.Enabled && (budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0) {
		action := completionuc.BudgetActionWarn
		if budgetCfg.Action == "reject" {
			action = completionuc.BudgetActionReject
		}
		budget = completionuc.NewBudgetTracker(
			provider.Name, budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
		)
		budget.WithStore(ctx, budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour))
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budgetChecker completionuc.BudgetChecker
	if budget != nil {
		budgetChecker = budget
	}

	completer := buildCompleter(provider, cfg.LLM, store, budgetChecker, logger)

	// Search terms degrade to rules when AI is switched off entirely.
	var termLLM searchterms.Completer
	if provider.Enabled {
		termLLM = completer
	}

	// Market data
	auctions := auctionet.NewClient(&auctionet.Config{
		BaseURL:   cfg.Market.BaseURL,
		PublicURL: cfg.Market.PublicURL,
		PerPage:   cfg.Market.PerPage,
		Timeout:   time.Duration(cfg.Market.TimeoutSec) * time.Second,
		Logger:    logger,
	})
	marketCache := marketcache.New(
		store, cfg.Market.CacheSize, time.Duration(cfg.Market.CacheTTLSec)*time.Second,
		metrics.MarketCacheTotal, logger,
	)
	analyzeOpts := marketuc.DefaultAnalyzeOptions()
	analyzeOpts.ExceptionalFactor = cfg.Market.ExceptionalFactor
	analyzeOpts.TrendWindow = time.Duration(cfg.Market.TrendWindowDays) * 24 * time.Hour
	marketSvc := marketuc.New(auctions, marketCache, analyzeOpts, logger)

	// Sessions
	sessionSvc, err := sessionuc.New(
		sessionrepo.New(store, time.Duration(cfg.Sessions.TTLSec)*time.Second),
		searchterms.New(termLLM, rulesCfg, logger),
		cfg.Sessions.CacheSize,
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to create session service", zap.Error(err))
	}

	// Usage service reads from the shared BudgetTracker
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}

	server := chiTransport.NewServer(chiTransport.Services{
		Rules:       rulesCfg,
		Sessions:    sessionSvc,
		Market:      marketSvc,
		Enhance:     enhanceuc.New(completer, logger),
		Preferences: preference.New(store),
		Renderer:    dashboard.MustNewRenderer(),
		Usage:       usageuc.New(budgetReader, provider.Name),
		Health:      healthuc.New(store, provider.HealthChecker(), titleclean.SelfTest),
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
			Code:    chiTransport.CodeNotFound,
			Message: "route not found",
		})
	})
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openStore creates the KV store for the configured driver.
// Valkey and Redis share the rueidis driver.
func openStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		s, err := dbMemory.NewStore(dbMemory.Config{MaxKeys: cfg.MaxKeys})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverValkey, config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Addrs,
			Username:   cfg.Username,
			Password:   cfg.Password,
			DB:         cfg.DB,
			ClientName: "katalog",
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// buildCompleter assembles the decorator chain: provider -> Cached -> Instrumented -> Defaults.
func buildCompleter(
	provider llm.Provider,
	lc config.LLMConfig,
	store db.Store,
	budget completionuc.BudgetChecker,
	logger *zap.Logger,
) domain.Completer {
	// Cached
	completer := provider.Completer
	if lc.CacheTTLSec > 0 {
		completer = llmcache.New(
			completer, store, lc.CacheSize, time.Duration(lc.CacheTTLSec)*time.Second,
			metrics.LLMCacheTotal, logger,
		)
	}

	// Instrumented (budget + metrics)
	completer = completionuc.NewInstrumentedCompleter(completer, provider.Name, budget, logger)

	logger.Info("LLM completer created",
		zap.String("provider", provider.Name),
		zap.String("model", provider.Model),
		zap.Int("max_tokens", lc.MaxTokens),
		zap.Bool("cache", lc.CacheTTLSec > 0),
	)

	// Defaults is outermost so the cache key includes the model
	return domain.NewDefaultsCompleter(completer, provider.Model, lc.MaxTokens, lc.Temperature)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.CodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			}
			if tokens := ww.Header().Get("X-LLM-Tokens"); tokens != "" {
				fields = append(fields, zap.String("llm_tokens", tokens))
			}
			reqLogger.Info("http_request", fields...)
		})
	}
}
