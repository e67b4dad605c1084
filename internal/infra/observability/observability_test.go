package observability_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/observability"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMetricsSnapshot(t *testing.T) {
	m := observability.NewMetrics()

	m.IncrRequest("success")
	m.IncrRequest("success")
	m.IncrRequest("success")
	m.IncrRequest("error")
	m.IncrCacheHit("dashboard")
	m.IncrCacheMiss("report")
	m.AddMalformedAmounts(domain.KindExpense, 2)
	m.AddMalformedAmounts(domain.KindDeposit, 1)
	m.AddMalformedAmounts(domain.KindDeposit, 0)
	m.IncrBudgetAlert(domain.BudgetOverBudget)
	m.IncrExternalError("finance-api")
	m.IncrReportCreated()

	s := m.Snapshot()
	if s.TotalRequests != 4 {
		t.Errorf("expected 4 requests, got %d", s.TotalRequests)
	}
	if s.ErrorRate != 0.25 {
		t.Errorf("expected error rate 0.25, got %f", s.ErrorRate)
	}
	if s.CacheHitRate != 0.5 {
		t.Errorf("expected hit rate 0.5, got %f", s.CacheHitRate)
	}
	if s.MalformedAmounts != 3 {
		t.Errorf("expected 3 malformed amounts, got %d", s.MalformedAmounts)
	}
	if s.BudgetAlerts != 1 || s.ExternalErrors != 1 || s.ReportsCreated != 1 {
		t.Errorf("unexpected snapshot %+v", s)
	}
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := observability.NewMetrics(), observability.NewMetrics()
	a.IncrRequest("success")

	if b.Snapshot().TotalRequests != 0 {
		t.Error("expected registries to be independent")
	}
}

func TestZapLoggerMiddleware_LevelsByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	mw := observability.ZapLoggerMiddleware(logger)
	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusBadGateway} {
		h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			observability.RecordPrincipal(r, domain.Principal{UserID: "user-1"})
			w.WriteHeader(status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil))
	}

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(entries))
	}
	want := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		if e.Level != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], e.Level)
		}
		if e.ContextMap()["user_id"] != "user-1" {
			t.Errorf("entry %d: expected user_id field, got %v", i, e.ContextMap())
		}
	}
}

func TestNewLogger_UnknownLevelFallsBack(t *testing.T) {
	logger := observability.NewLogger("loud")
	if !logger.Core().Enabled(zapcore.InfoLevel) || logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected info level for unknown input")
	}
}
