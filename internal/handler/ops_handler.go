package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/observability"
	"github.com/boddenberg/fintrack-bfa-go/internal/port"

	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

// ============================================================
// Health & metrics
// ============================================================

func healthzHandler(checkers []port.HealthChecker, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		now := time.Now().UTC().Format(time.RFC3339)

		services := make([]domain.ServiceHealth, len(checkers)+1)
		services[0] = domain.ServiceHealth{Name: "fintrack-bfa", Status: "healthy", LastChecked: now}

		var wg sync.WaitGroup
		for i, c := range checkers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				start := time.Now()
				err := c.Check(ctx)
				h := domain.ServiceHealth{
					Name:        c.Name(),
					Status:      "healthy",
					LatencyMs:   time.Since(start).Milliseconds(),
					LastChecked: now,
				}
				if err != nil {
					h.Status = "degraded"
					h.Error = err.Error()
					logger.Warn("health check failed", zap.String("service", c.Name()), zap.Error(err))
				}
				services[i+1] = h
			}()
		}
		wg.Wait()

		overall := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overall = "degraded"
				break
			}
		}
		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func metricsSummaryHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
