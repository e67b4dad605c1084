package aggregate_test

import (
	"testing"

	"github.com/boddenberg/fintrack-bfa-go/internal/aggregate"
	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
)

func TestBudgetUsageStatus(t *testing.T) {
	tests := []struct {
		name      string
		spent     int64
		limit     int64
		threshold int
		want      domain.BudgetStatus
	}{
		{"threshold equality stays on track", 8000, 10000, 80, domain.BudgetOnTrack},
		{"above threshold", 8100, 10000, 80, domain.BudgetNearLimit},
		{"one cent above threshold", 8001, 10000, 80, domain.BudgetNearLimit},
		{"limit equality is near limit, not over", 10000, 10000, 80, domain.BudgetNearLimit},
		{"limit equality with full threshold", 10000, 10000, 100, domain.BudgetOnTrack},
		{"over budget", 10100, 10000, 80, domain.BudgetOverBudget},
		{"well below", 100, 10000, 80, domain.BudgetOnTrack},
		{"zero limit, nothing spent", 0, 0, 80, domain.BudgetOnTrack},
		{"zero limit, something spent", 1, 0, 80, domain.BudgetOverBudget},
		{"threshold above 100 is clamped", 10000, 10000, 250, domain.BudgetOnTrack},
		{"threshold below 1 is clamped", 2, 100, -5, domain.BudgetNearLimit},
		{"threshold below 1, at clamp boundary", 1, 100, 0, domain.BudgetOnTrack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aggregate.BudgetUsageStatus(domain.Cents(tt.spent), domain.Cents(tt.limit), tt.threshold)
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestBudgetUsageStatus_UnitsExample(t *testing.T) {
	// Whole-unit amounts behave the same as cents.
	if got := aggregate.BudgetUsageStatus(domain.Cents(80), domain.Cents(100), 80); got != domain.BudgetOnTrack {
		t.Errorf("expected on_track, got %s", got)
	}
	if got := aggregate.BudgetUsageStatus(domain.Cents(81), domain.Cents(100), 80); got != domain.BudgetNearLimit {
		t.Errorf("expected near_limit, got %s", got)
	}
	if got := aggregate.BudgetUsageStatus(domain.Cents(101), domain.Cents(100), 80); got != domain.BudgetOverBudget {
		t.Errorf("expected over_budget, got %s", got)
	}
}

func TestBudgetUsageFor(t *testing.T) {
	u := aggregate.BudgetUsageFor(domain.Budget{
		ID:                  "b-1",
		Month:               3,
		Year:                2024,
		AmountLimit:         domain.Cents(50000),
		SpentAmount:         domain.Cents(62550),
		ThresholdPercentage: 75,
	})

	if u.Status != domain.BudgetOverBudget {
		t.Errorf("expected over_budget, got %s", u.Status)
	}
	if u.Remaining.Cents != -12550 {
		t.Errorf("expected remaining -12550, got %d", u.Remaining.Cents)
	}
	if u.Percent.String() != "125.10" {
		t.Errorf("expected 125.10, got %s", u.Percent)
	}
	if u.Threshold != 75 {
		t.Errorf("expected threshold 75, got %d", u.Threshold)
	}
}

func TestBudgetUsageFor_ZeroLimit(t *testing.T) {
	u := aggregate.BudgetUsageFor(domain.Budget{SpentAmount: domain.Cents(100), ThresholdPercentage: 90})
	if !u.Percent.Unbounded {
		t.Error("expected unbounded percent")
	}
	if u.Status != domain.BudgetOverBudget {
		t.Errorf("expected over_budget, got %s", u.Status)
	}
}
