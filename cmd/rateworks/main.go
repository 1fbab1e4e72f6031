package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vengleap/rateworks/internal/config"
	"github.com/vengleap/rateworks/internal/handler"
	"github.com/vengleap/rateworks/internal/infra/cache"
	"github.com/vengleap/rateworks/internal/infra/client"
	"github.com/vengleap/rateworks/internal/infra/observability"
	"github.com/vengleap/rateworks/internal/infra/resilience"
	"github.com/vengleap/rateworks/internal/infra/supabase"
	"github.com/vengleap/rateworks/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("cache_max_entries", cfg.CacheMaxEntries),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("default_region", cfg.DefaultRegion),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(context.Background(), cfg.OTLPEndpoint, "rateworks")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	benchmarkCache := cache.New[any](cfg.CacheTTL, cfg.CacheMaxEntries)
	defer benchmarkCache.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	storeBreaker := resilience.NewCircuitBreaker("supabase")
	researchBreaker := resilience.NewCircuitBreaker("research")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		storeBreaker,
		resilienceCfg,
		logger,
	)
	research := client.NewResearchClient(httpClient, cfg.ResearchAPIURL, researchBreaker, resilienceCfg, metrics)

	// --- Services ---
	onboardingSvc := service.NewOnboarding(store, research, metrics, logger)
	pricingSvc := service.NewPricing(store, store, store, metrics, logger)
	benchmarkSvc := service.NewBenchmark(store, store, store, benchmarkCache, cfg.DefaultRegion, metrics, logger)
	portfolioSvc := service.NewPortfolio(store, research, benchmarkSvc, cfg.DefaultRegion, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Onboarding: onboardingSvc,
		Pricing:    pricingSvc,
		Benchmark:  benchmarkSvc,
		Portfolio:  portfolioSvc,
	}, store, metrics, logger, cfg.JWTSecret)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
