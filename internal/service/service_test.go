package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/cache"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/observability"
	"github.com/boddenberg/fintrack-bfa-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockTransactions struct {
	mu       sync.Mutex
	expenses []domain.Transaction
	deposits []domain.Transaction
	err      error
	calls    int
	ranges   []domain.DateRange
}

func (m *mockTransactions) record(r domain.DateRange) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.ranges = append(m.ranges, r)
}

func (m *mockTransactions) ListExpenses(_ context.Context, _ string, r domain.DateRange) ([]domain.Transaction, error) {
	m.record(r)
	return m.expenses, m.err
}

func (m *mockTransactions) ListDeposits(_ context.Context, _ string, r domain.DateRange) ([]domain.Transaction, error) {
	m.record(r)
	return m.deposits, m.err
}

type mockBudgets struct {
	budget  *domain.Budget
	budgets []domain.Budget
	err     error
}

func (m *mockBudgets) GetBudget(_ context.Context, _ string, _, _ int) (*domain.Budget, error) {
	return m.budget, m.err
}

func (m *mockBudgets) ListBudgets(_ context.Context, _ string, _ int) ([]domain.Budget, error) {
	return m.budgets, m.err
}

type mockPublisher struct {
	mu     sync.Mutex
	alerts []domain.BudgetAlert
	err    error
}

func (m *mockPublisher) PublishBudgetAlert(_ context.Context, a domain.BudgetAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.alerts = append(m.alerts, a)
	return nil
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.alerts)
}

type mockStore struct {
	mu      sync.Mutex
	reports map[string]*domain.Report
	gets    int
	err     error
}

func newMockStore() *mockStore {
	return &mockStore{reports: make(map[string]*domain.Report)}
}

func (m *mockStore) Save(_ context.Context, r *domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.reports[r.ID] = r
	return nil
}

func (m *mockStore) Get(_ context.Context, userID, id string) (*domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	r, ok := m.reports[id]
	if !ok || r.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "report", ID: id}
	}
	return r, nil
}

func (m *mockStore) List(_ context.Context, userID string) ([]domain.ReportInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.ReportInfo{}
	for _, r := range m.reports {
		if r.UserID == userID {
			out = append(out, r.Info())
		}
	}
	return out, nil
}

// --- Helpers ---

func fixedClock() time.Time {
	return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
}

func expense(id string, date domain.Date, cents int64, category string) domain.Transaction {
	return domain.Transaction{ID: id, Kind: domain.KindExpense, Date: date, Amount: domain.Cents(cents), Category: category}
}

func deposit(id string, date domain.Date, cents int64) domain.Transaction {
	return domain.Transaction{ID: id, Kind: domain.KindDeposit, Date: date, Amount: domain.Cents(cents), Category: "Salary"}
}

func newNotifier(pub *mockPublisher, metrics *observability.Metrics) *service.AlertNotifier {
	return service.NewAlertNotifier(pub, metrics, zap.NewNop()).WithClock(fixedClock)
}

func assertValidation(t *testing.T, err error, field string) {
	t.Helper()
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if verr.Field != field {
		t.Errorf("expected field %q, got %q (%s)", field, verr.Field, verr.Message)
	}
}

func newDashboardService(tx *mockTransactions, budgets *mockBudgets, pub *mockPublisher, metrics *observability.Metrics) *service.DashboardService {
	c := cache.New[*domain.Dashboard](time.Minute)
	return service.NewDashboardService(tx, budgets, newNotifier(pub, metrics), c, metrics, zap.NewNop(), 6).
		WithClock(fixedClock)
}
