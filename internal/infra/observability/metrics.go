package observability

import (
	"time"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	externalErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
	malformedAmounts *prometheus.CounterVec
	budgetAlerts     *prometheus.CounterVec
	reportsCreated   prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. A private registry lets tests call NewMetrics
// repeatedly without duplicate-collector panics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fintrack_operation_duration_seconds",
				Help:    "Duration of service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_requests_total",
				Help: "Total service operations by outcome.",
			},
			[]string{"status"},
		),
		malformedAmounts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_malformed_amounts_total",
				Help: "Transaction amounts that could not be read and were counted as zero.",
			},
			[]string{"kind"},
		),
		budgetAlerts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_budget_alerts_total",
				Help: "Budget alerts published, by status.",
			},
			[]string{"status"},
		),
		reportsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "fintrack_reports_created_total",
				Help: "Report snapshots created.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// AddMalformedAmounts counts amounts coerced to zero.
func (m *Metrics) AddMalformedAmounts(kind domain.Kind, n int) {
	if n <= 0 {
		return
	}
	m.malformedAmounts.WithLabelValues(string(kind)).Add(float64(n))
}

// IncrBudgetAlert counts a published budget alert.
func (m *Metrics) IncrBudgetAlert(status domain.BudgetStatus) {
	m.budgetAlerts.WithLabelValues(string(status)).Inc()
}

// IncrReportCreated counts a stored report.
func (m *Metrics) IncrReportCreated() {
	m.reportsCreated.Inc()
}

// cacheNames lists the caches whose counters feed the hit rate.
var cacheNames = []string{"dashboard", "report"}

// Snapshot returns the operational counters for GET /v1/metrics/summary.
func (m *Metrics) Snapshot() *domain.OpsMetrics {
	success := getCounterValue(m.requestsTotal, "success")
	errorCount := getCounterValue(m.requestsTotal, "error")
	total := success + errorCount

	var hits, misses float64
	for _, name := range cacheNames {
		hits += getCounterValue(m.cacheHits, name)
		misses += getCounterValue(m.cacheMisses, name)
	}

	errorRate, cacheHitRate := float64(0), float64(0)
	if total > 0 {
		errorRate = errorCount / total
	}
	if hits+misses > 0 {
		cacheHitRate = hits / (hits + misses)
	}

	malformed := getCounterValue(m.malformedAmounts, string(domain.KindExpense)) +
		getCounterValue(m.malformedAmounts, string(domain.KindDeposit))
	alerts := getCounterValue(m.budgetAlerts, string(domain.BudgetNearLimit)) +
		getCounterValue(m.budgetAlerts, string(domain.BudgetOverBudget))

	return &domain.OpsMetrics{
		TotalRequests:    int64(total),
		ErrorRate:        errorRate,
		CacheHitRate:     cacheHitRate,
		ExternalErrors:   int64(getCounterValue(m.externalErrors, "finance-api")),
		MalformedAmounts: int64(malformed),
		BudgetAlerts:     int64(alerts),
		ReportsCreated:   int64(readCounter(m.reportsCreated)),
		Period:           "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return readCounter(cv.WithLabelValues(label))
}

func readCounter(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
