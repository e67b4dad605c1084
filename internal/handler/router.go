package handler

import (
	"net/http"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/observability"
	"github.com/boddenberg/fintrack-bfa-go/internal/port"
	"github.com/boddenberg/fintrack-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services groups the use cases served under /v1.
type Services struct {
	Dashboard *service.DashboardService
	Budgets   *service.BudgetService
	Reports   *service.ReportService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(
	svcs Services,
	verifier TokenVerifier,
	limits RateLimits,
	checkers []port.HealthChecker,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(RequestMetrics(metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(checkers, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(RateLimitMiddleware(limits.PerIP, ClientIPKey, logger))
		r.Use(JWTAuthMiddleware(verifier, logger))
		r.Use(RateLimitMiddleware(limits.PerUser, UserKey, logger))
		r.Use(TimeZoneMiddleware(logger))

		r.Get("/dashboard", dashboardHandler(svcs.Dashboard, logger))
		r.Get("/expenses/summary", summaryHandler(svcs.Dashboard, domain.KindExpense, logger))
		r.Get("/deposits/summary", summaryHandler(svcs.Dashboard, domain.KindDeposit, logger))

		r.Get("/budgets/usage", listBudgetUsageHandler(svcs.Budgets, logger))
		r.Get("/budgets/{year}/{month}/usage", budgetUsageHandler(svcs.Budgets, logger))

		r.Route("/reports", func(r chi.Router) {
			r.Post("/", createReportHandler(svcs.Reports, logger))
			r.Get("/", listReportsHandler(svcs.Reports, logger))
			r.Get("/{reportId}", getReportHandler(svcs.Reports, logger))
			r.Get("/{reportId}/export", exportReportHandler(svcs.Reports, logger))
		})

		r.Get("/metrics/summary", metricsSummaryHandler(metrics))
	})

	return r
}
