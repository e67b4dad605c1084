package aggregate

import (
	"github.com/boddenberg/fintrack-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	minThreshold = 1
	maxThreshold = 100
)

// BudgetUsageStatus classifies spent against limit. Spending strictly above
// the limit is OverBudget; otherwise spending strictly above threshold
// percent of the limit is NearLimit; anything else is OnTrack. The
// comparison is done on exact integers. Thresholds outside 1..100 are
// clamped.
func BudgetUsageStatus(spent, limit domain.Money, threshold int) domain.BudgetStatus {
	if spent.Cents > limit.Cents {
		return domain.BudgetOverBudget
	}
	if limit.Cents <= 0 {
		return domain.BudgetOnTrack
	}

	// spent/limit*100 > threshold, with limit > 0.
	lhs := decimal.NewFromInt(spent.Cents).Mul(hundred)
	rhs := decimal.NewFromInt(int64(clampThreshold(threshold))).Mul(decimal.NewFromInt(limit.Cents))
	if lhs.GreaterThan(rhs) {
		return domain.BudgetNearLimit
	}
	return domain.BudgetOnTrack
}

func clampThreshold(t int) int {
	return min(max(t, minThreshold), maxThreshold)
}

// BudgetUsageFor computes the usage view of b. Remaining may be negative.
func BudgetUsageFor(b domain.Budget) domain.BudgetUsage {
	return domain.BudgetUsage{
		BudgetID:  b.ID,
		Month:     b.Month,
		Year:      b.Year,
		Limit:     b.AmountLimit,
		Spent:     b.SpentAmount,
		Remaining: b.AmountLimit.Sub(b.SpentAmount),
		Percent:   PercentOfLimit(b.SpentAmount, b.AmountLimit),
		Threshold: clampThreshold(b.ThresholdPercentage),
		Status:    BudgetUsageStatus(b.SpentAmount, b.AmountLimit, b.ThresholdPercentage),
	}
}
