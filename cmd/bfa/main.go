package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/boddenberg/fintrack-bfa-go/internal/config"
	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
	"github.com/boddenberg/fintrack-bfa-go/internal/handler"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/cache"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/client"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/events"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/observability"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/ratelimit"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/store"
	"github.com/boddenberg/fintrack-bfa-go/internal/port"
	"github.com/boddenberg/fintrack-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.String("finance_api_url", cfg.FinanceAPIURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("trend_months", cfg.TrendMonths),
		zap.Bool("alerts_enabled", cfg.AMQPURL != ""),
	)
	if cfg.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("using the built-in development JWT secret; set JWT_SECRET outside development")
	}

	// --- Tracing ---
	shutdownTracing := observability.InitPropagation()
	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "fintrack-bfa")
		if err != nil {
			logger.Fatal("failed to init tracer", zap.Error(err))
		}
		shutdownTracing = shutdown
	}
	defer shutdownTracing(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	dashboardCache := cache.New[*domain.Dashboard](cfg.CacheTTL, cache.WithMaxEntries(cfg.CacheMaxEntries))
	defer dashboardCache.Close()
	reportCache := cache.New[*domain.Report](cfg.CacheTTL, cache.WithMaxEntries(cfg.CacheMaxEntries))
	defer reportCache.Close()

	// --- Finance API ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker(client.ServiceName, client.CountsAsSuccess)
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	finance := client.NewFinanceClient(httpClient, cfg.FinanceAPIURL, cb, resilienceCfg, logger)

	// --- Report store ---
	reports, err := store.Open(cfg.ReportsDBPath, logger)
	if err != nil {
		logger.Fatal("failed to open report store", zap.Error(err))
	}
	defer reports.Close()

	checkers := []port.HealthChecker{finance, reports}

	// --- Budget alerts ---
	var publisher port.AlertPublisher
	if cfg.AMQPURL != "" {
		p, err := events.Dial(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, logger)
		if err != nil {
			logger.Fatal("failed to connect to AMQP", zap.Error(err))
		}
		defer p.Close()
		publisher = p
		checkers = append(checkers, p)
		logger.Info("budget alerts enabled", zap.String("exchange", cfg.AMQPExchange))
	} else {
		logger.Warn("AMQP_URL not set, budget alerts are disabled")
	}
	alerts := service.NewAlertNotifier(publisher, metrics, logger)

	// --- Services ---
	svcs := handler.Services{
		Dashboard: service.NewDashboardService(finance, finance, alerts, dashboardCache, metrics, logger, cfg.TrendMonths),
		Budgets:   service.NewBudgetService(finance, alerts, metrics, logger),
		Reports:   service.NewReportService(finance, reports, reportCache, metrics, logger),
	}

	// --- Rate limiting ---
	limits := handler.RateLimits{
		PerIP: ratelimit.New(ratelimit.Config{
			PerSecond: cfg.IPRateLimitPerSecond,
			Burst:     cfg.IPRateLimitBurst,
		}),
		PerUser: ratelimit.New(ratelimit.Config{
			PerSecond: cfg.RateLimitPerSecond,
			Burst:     cfg.RateLimitBurst,
		}),
	}
	defer limits.PerIP.Stop()
	defer limits.PerUser.Stop()

	// --- Router ---
	verifier := service.NewTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	router := handler.NewRouter(svcs, verifier, limits, checkers, metrics, logger)

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
		logger.Error("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
