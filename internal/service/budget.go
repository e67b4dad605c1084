package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/boddenberg/fintrack-bfa-go/internal/aggregate"
	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/observability"
	"github.com/boddenberg/fintrack-bfa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// BudgetService reports budget usage.
type BudgetService struct {
	budgets port.BudgetSource
	alerts  *AlertNotifier
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewBudgetService(budgets port.BudgetSource, alerts *AlertNotifier, metrics *observability.Metrics, logger *zap.Logger) *BudgetService {
	return &BudgetService{budgets: budgets, alerts: alerts, metrics: metrics, logger: logger}
}

// ListUsage returns the usage of every budget of year, ordered by month.
func (s *BudgetService) ListUsage(ctx context.Context, userID string, year int) ([]domain.BudgetUsage, error) {
	ctx, span := tracer.Start(ctx, "BudgetService.ListUsage")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int("budget.year", year))

	if err := validateYear(year); err != nil {
		return nil, err
	}

	budgets, err := s.budgets.ListBudgets(ctx, userID, year)
	if err != nil {
		s.metrics.IncrExternalError("finance-api")
		return nil, fmt.Errorf("budgets fetch: %w", err)
	}

	out := make([]domain.BudgetUsage, 0, len(budgets))
	for _, b := range budgets {
		usage := aggregate.BudgetUsageFor(b)
		s.alerts.Notify(ctx, userID, usage)
		out = append(out, usage)
	}
	slices.SortStableFunc(out, func(a, b domain.BudgetUsage) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Month, b.Month))
	})
	return out, nil
}

// GetUsage returns the usage of the budget for (month, year).
func (s *BudgetService) GetUsage(ctx context.Context, userID string, month, year int) (*domain.BudgetUsage, error) {
	ctx, span := tracer.Start(ctx, "BudgetService.GetUsage")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if month < 1 || month > 12 {
		return nil, &domain.ErrValidation{Field: "month", Message: "must be between 1 and 12"}
	}
	if err := validateYear(year); err != nil {
		return nil, err
	}

	b, err := s.budgets.GetBudget(ctx, userID, month, year)
	if err != nil {
		s.metrics.IncrExternalError("finance-api")
		return nil, fmt.Errorf("budget fetch: %w", err)
	}
	if b == nil {
		return nil, &domain.ErrNotFound{Resource: "budget", ID: fmt.Sprintf("%04d-%02d", year, month)}
	}

	usage := aggregate.BudgetUsageFor(*b)
	s.alerts.Notify(ctx, userID, usage)
	return &usage, nil
}

func validateYear(year int) error {
	if year < 1900 || year > 9999 {
		return &domain.ErrValidation{Field: "year", Message: "must be between 1900 and 9999"}
	}
	return nil
}
