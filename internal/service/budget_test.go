package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/observability"
	"github.com/boddenberg/fintrack-bfa-go/internal/service"

	"go.uber.org/zap"
)

func budget(month int, limit, spent int64, threshold int) domain.Budget {
	return domain.Budget{
		ID: "b", Month: month, Year: 2024,
		AmountLimit:         domain.Cents(limit),
		SpentAmount:         domain.Cents(spent),
		ThresholdPercentage: threshold,
	}
}

func TestListUsage_SortedWithStatuses(t *testing.T) {
	budgets := &mockBudgets{budgets: []domain.Budget{
		budget(3, 10000, 12510, 80),
		budget(1, 10000, 5000, 80),
		budget(2, 10000, 8000, 80),
		budget(4, 0, 0, 80),
	}}
	pub := &mockPublisher{}
	metrics := observability.NewMetrics()
	svc := service.NewBudgetService(budgets, newNotifier(pub, metrics), metrics, zap.NewNop())

	usage, err := svc.ListUsage(context.Background(), "u1", 2024)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []struct {
		month  int
		status domain.BudgetStatus
	}{
		{1, domain.BudgetOnTrack},
		{2, domain.BudgetOnTrack},
		{3, domain.BudgetOverBudget},
		{4, domain.BudgetOnTrack},
	}
	if len(usage) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(usage))
	}
	for i, w := range want {
		if usage[i].Month != w.month || usage[i].Status != w.status {
			t.Errorf("entry %d: expected month %d %s, got %d %s", i, w.month, w.status, usage[i].Month, usage[i].Status)
		}
	}
	if usage[2].Remaining.Cents != -2510 || usage[2].Percent.String() != "125.10" {
		t.Errorf("unexpected over-budget usage %+v", usage[2])
	}
	if pub.count() != 1 || pub.alerts[0].Month != 3 {
		t.Errorf("expected one alert for March, got %+v", pub.alerts)
	}
}

func TestGetUsage_NotFound(t *testing.T) {
	svc := service.NewBudgetService(&mockBudgets{}, nil, observability.NewMetrics(), zap.NewNop())

	_, err := svc.GetUsage(context.Background(), "u1", 5, 2024)

	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetUsage_InvalidPeriod(t *testing.T) {
	svc := service.NewBudgetService(&mockBudgets{}, nil, observability.NewMetrics(), zap.NewNop())

	_, err := svc.GetUsage(context.Background(), "u1", 13, 2024)
	assertValidation(t, err, "month")

	_, err = svc.GetUsage(context.Background(), "u1", 1, 12)
	assertValidation(t, err, "year")
}

func TestGetUsage_AlertRetriedAfterPublishFailure(t *testing.T) {
	b := budget(3, 10000, 9000, 80)
	pub := &mockPublisher{err: errors.New("broker down")}
	metrics := observability.NewMetrics()
	svc := service.NewBudgetService(&mockBudgets{budget: &b}, newNotifier(pub, metrics), metrics, zap.NewNop())
	ctx := context.Background()

	usage, err := svc.GetUsage(ctx, "u1", 3, 2024)
	if err != nil {
		t.Fatalf("publish failure must not fail the request, got %v", err)
	}
	if usage.Status != domain.BudgetNearLimit {
		t.Fatalf("expected near limit, got %s", usage.Status)
	}
	if metrics.Snapshot().BudgetAlerts != 0 {
		t.Error("failed publish must not be counted")
	}

	pub.err = nil
	if _, err := svc.GetUsage(ctx, "u1", 3, 2024); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetUsage(ctx, "u1", 3, 2024); err != nil {
		t.Fatal(err)
	}
	if pub.count() != 1 {
		t.Errorf("expected exactly one alert after recovery, got %d", pub.count())
	}
}

func TestAlertNotifier_StatusChangeAlertsAgain(t *testing.T) {
	pub := &mockPublisher{}
	n := newNotifier(pub, observability.NewMetrics())
	ctx := context.Background()

	near := domain.BudgetUsage{Month: 3, Year: 2024, Status: domain.BudgetNearLimit}
	over := domain.BudgetUsage{Month: 3, Year: 2024, Status: domain.BudgetOverBudget}
	onTrack := domain.BudgetUsage{Month: 4, Year: 2024, Status: domain.BudgetOnTrack}

	n.Notify(ctx, "u1", near)
	n.Notify(ctx, "u1", near)
	n.Notify(ctx, "u1", over)
	n.Notify(ctx, "u2", near)
	n.Notify(ctx, "u1", onTrack)

	if pub.count() != 3 {
		t.Errorf("expected 3 alerts, got %d", pub.count())
	}
}

func TestAlertNotifier_OnlyRecentPeriodsAlert(t *testing.T) {
	pub := &mockPublisher{}
	n := newNotifier(pub, observability.NewMetrics())
	ctx := context.Background()

	for _, month := range []int{1, 2, 3, 4, 5} {
		n.Notify(ctx, "u1", domain.BudgetUsage{Month: month, Year: 2024, Status: domain.BudgetOverBudget})
	}
	n.Notify(ctx, "u1", domain.BudgetUsage{Month: 3, Year: 2023, Status: domain.BudgetOverBudget})

	if pub.count() != 3 {
		t.Fatalf("expected alerts for February to April only, got %+v", pub.alerts)
	}
	for i, want := range []int{2, 3, 4} {
		if pub.alerts[i].Month != want {
			t.Errorf("alert %d: expected month %d, got %d", i, want, pub.alerts[i].Month)
		}
	}
}

func TestAlertNotifier_EvictsPastPeriods(t *testing.T) {
	pub := &mockPublisher{}
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	n := service.NewAlertNotifier(pub, observability.NewMetrics(), zap.NewNop()).
		WithClock(func() time.Time { return now })
	ctx := context.Background()
	feb := domain.BudgetUsage{Month: 2, Year: 2024, Status: domain.BudgetNearLimit}

	n.Notify(ctx, "u1", feb)
	n.Notify(ctx, "u1", feb)
	if pub.count() != 1 {
		t.Fatalf("expected one alert, got %d", pub.count())
	}

	// Moving on to June sweeps February out of the dedup set.
	now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	n.Notify(ctx, "u1", domain.BudgetUsage{Month: 6, Year: 2024, Status: domain.BudgetNearLimit})
	if pub.count() != 2 {
		t.Fatalf("expected June alert, got %d", pub.count())
	}

	// Rewinding the clock shows the February entry is gone.
	now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	n.Notify(ctx, "u1", feb)
	if pub.count() != 3 {
		t.Errorf("expected evicted period to alert again, got %d", pub.count())
	}
}

func TestAlertNotifier_NilIsNoop(t *testing.T) {
	var n *service.AlertNotifier
	n.Notify(context.Background(), "u1", domain.BudgetUsage{Status: domain.BudgetOverBudget})

	service.NewAlertNotifier(nil, observability.NewMetrics(), zap.NewNop()).
		Notify(context.Background(), "u1", domain.BudgetUsage{Status: domain.BudgetOverBudget})
}
