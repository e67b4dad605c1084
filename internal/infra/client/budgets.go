package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// GetBudget fetches the budget for one month. A missing budget (404) is
// (nil, nil); it is the only endpoint where 404 means "no data".
func (c *FinanceClient) GetBudget(ctx context.Context, userID string, month, year int) (*domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "FinanceClient.GetBudget")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.Int("budget.month", month),
		attribute.Int("budget.year", year),
	)

	body, found, err := c.get(ctx, "GetBudget", fmt.Sprintf("/api/budgets/%d/%d", year, month), nil)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	b, stats, err := decodeBudget(body, month, year)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: ServiceName, Err: err}
	}
	if !stats.Zero() {
		c.logger.Warn("budget fields coerced",
			zap.String("user_id", userID),
			zap.String("budget_id", b.ID),
			zap.Int("coerced", stats.Coerced),
		)
	}
	return b, nil
}

// ListBudgets fetches every budget of a year.
func (c *FinanceClient) ListBudgets(ctx context.Context, userID string, year int) ([]domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "FinanceClient.ListBudgets")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int("budget.year", year))

	body, found, err := c.get(ctx, "ListBudgets", "/api/budgets", url.Values{"year": {strconv.Itoa(year)}})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, missingList("/api/budgets")
	}

	budgets, stats, err := DecodeBudgets(body)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: ServiceName, Err: err}
	}
	if !stats.Zero() {
		c.logger.Warn("finance API records repaired",
			zap.String("operation", "ListBudgets"),
			zap.String("user_id", userID),
			zap.Int("year", year),
			zap.Int("coerced", stats.Coerced),
			zap.Int("dropped", stats.Dropped),
		)
	}
	return budgets, nil
}
