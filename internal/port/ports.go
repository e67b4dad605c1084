// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from the finance API client, the report store and the event publisher.
package port

import (
	"context"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
)

// TransactionSource lists a user's expenses and deposits. It returns an
// empty slice, not an error, when there are none.
type TransactionSource interface {
	ListExpenses(ctx context.Context, userID string, r domain.DateRange) ([]domain.Transaction, error)
	ListDeposits(ctx context.Context, userID string, r domain.DateRange) ([]domain.Transaction, error)
}

// BudgetSource supplies at most one budget per (month, year). GetBudget
// returns (nil, nil) when the period has no budget.
type BudgetSource interface {
	GetBudget(ctx context.Context, userID string, month, year int) (*domain.Budget, error)
	ListBudgets(ctx context.Context, userID string, year int) ([]domain.Budget, error)
}

// ReportStore persists report snapshots.
type ReportStore interface {
	Save(ctx context.Context, r *domain.Report) error
	Get(ctx context.Context, userID, id string) (*domain.Report, error)
	List(ctx context.Context, userID string) ([]domain.ReportInfo, error)
}

// AlertPublisher delivers budget alerts to downstream consumers.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, alert domain.BudgetAlert) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// HealthChecker checks one dependency for GET /healthz.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
