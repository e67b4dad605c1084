package client

import (
	"context"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ListExpenses fetches the user's expenses dated within r.
func (c *FinanceClient) ListExpenses(ctx context.Context, userID string, r domain.DateRange) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "FinanceClient.ListExpenses")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return c.listTransactions(ctx, "ListExpenses", "/api/expenses", domain.KindExpense, r)
}

// ListDeposits fetches the user's deposits dated within r.
func (c *FinanceClient) ListDeposits(ctx context.Context, userID string, r domain.DateRange) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "FinanceClient.ListDeposits")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return c.listTransactions(ctx, "ListDeposits", "/api/deposits", domain.KindDeposit, r)
}

func (c *FinanceClient) listTransactions(ctx context.Context, op, path string, kind domain.Kind, r domain.DateRange) ([]domain.Transaction, error) {
	body, found, err := c.get(ctx, op, path, rangeQuery(r))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, missingList(path)
	}

	txs, stats, err := DecodeTransactions(body, kind, domain.LocationFromContext(ctx))
	if err != nil {
		return nil, &domain.ErrExternalService{Service: ServiceName, Err: err}
	}
	if !stats.Zero() {
		c.logger.Warn("finance API records repaired",
			zap.String("operation", op),
			zap.Int("coerced", stats.Coerced),
			zap.Int("dropped", stats.Dropped),
		)
	}
	return txs, nil
}
