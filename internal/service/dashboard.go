package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/fintrack-bfa-go/internal/aggregate"
	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/observability"
	"github.com/boddenberg/fintrack-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service")

// MaxTrendMonths bounds the months parameter of the dashboard.
const MaxTrendMonths = 36

// DashboardService builds dashboards and range summaries from the finance API.
type DashboardService struct {
	transactions port.TransactionSource
	budgets      port.BudgetSource
	alerts       *AlertNotifier
	cache        port.Cache[*domain.Dashboard]
	metrics      *observability.Metrics
	logger       *zap.Logger
	trendMonths  int
	now          func() time.Time
}

// NewDashboardService creates the dashboard service. trendMonths is the
// default length of the trend series.
func NewDashboardService(
	transactions port.TransactionSource,
	budgets port.BudgetSource,
	alerts *AlertNotifier,
	cache port.Cache[*domain.Dashboard],
	metrics *observability.Metrics,
	logger *zap.Logger,
	trendMonths int,
) *DashboardService {
	return &DashboardService{
		transactions: transactions,
		budgets:      budgets,
		alerts:       alerts,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
		trendMonths:  trendMonths,
		now:          time.Now,
	}
}

// WithClock replaces the clock used when no reference date is given.
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

// today is the current date in the caller's time zone.
func (s *DashboardService) today(ctx context.Context) domain.Date {
	return domain.DateOf(s.now().In(domain.LocationFromContext(ctx)))
}

// GetDashboard returns the dashboard for the month of asOf, with trends of
// the given length. A zero asOf means today; months == 0 means the default.
func (s *DashboardService) GetDashboard(ctx context.Context, userID string, asOf domain.Date, months int) (*domain.Dashboard, error) {
	ctx, span := tracer.Start(ctx, "DashboardService.GetDashboard")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("dashboard", time.Since(start))
	}()

	if months == 0 {
		months = s.trendMonths
	}
	if months < 1 || months > MaxTrendMonths {
		return nil, &domain.ErrValidation{Field: "months", Message: fmt.Sprintf("must be between 1 and %d", MaxTrendMonths)}
	}
	if asOf.IsZero() {
		asOf = s.today(ctx)
	}
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("dashboard.as_of", asOf.String()),
		attribute.Int("dashboard.months", months),
	)

	// Transaction dates depend on the caller's zone.
	cacheKey := fmt.Sprintf("dashboard:%s:%s:%d:%s", userID, asOf, months, domain.LocationFromContext(ctx))
	if d, ok := s.cache.Get(cacheKey); ok {
		s.metrics.IncrCacheHit("dashboard")
		return d, nil
	}
	s.metrics.IncrCacheMiss("dashboard")

	// The window always includes the previous month for the comparisons.
	window := domain.DateRange{
		From: asOf.AddMonths(-max(months-1, 1)).MonthStart(),
		To:   asOf.MonthEnd(),
	}

	var (
		expenses, deposits []domain.Transaction
		budget             *domain.Budget
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		txs, err := s.fetch(gCtx, userID, domain.KindExpense, window)
		expenses = txs
		return err
	})

	g.Go(func() error {
		txs, err := s.fetch(gCtx, userID, domain.KindDeposit, window)
		deposits = txs
		return err
	})

	g.Go(func() error {
		b, err := s.budgets.GetBudget(gCtx, userID, int(asOf.Month()), asOf.Year())
		if err != nil {
			s.logger.Error("failed to fetch budget", zap.String("user_id", userID), zap.Error(err))
			s.metrics.IncrExternalError("finance-api")
			return fmt.Errorf("budget fetch: %w", err)
		}
		budget = b
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := aggregate.Summarize(aggregate.Input{
		Expenses:      expenses,
		Deposits:      deposits,
		Budget:        budget,
		ReferenceDate: asOf,
		TrendMonths:   months,
	})

	if d.Budget != nil {
		s.alerts.Notify(ctx, userID, *d.Budget)
	}

	s.cache.Set(cacheKey, &d)
	return &d, nil
}

// GetSummary totals one kind of transaction over [from, to]. Zero bounds
// default to the current month up to today. An inverted range yields an
// empty summary without calling the finance API.
func (s *DashboardService) GetSummary(ctx context.Context, userID string, kind domain.Kind, from, to domain.Date) (*domain.Summary, error) {
	ctx, span := tracer.Start(ctx, "DashboardService.GetSummary")
	defer span.End()

	if !kind.Valid() {
		return nil, &domain.ErrUnsupported{What: "transaction kind", Value: string(kind)}
	}
	if to.IsZero() {
		to = s.today(ctx)
	}
	if from.IsZero() {
		from = to.MonthStart()
	}
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("summary.kind", string(kind)),
		attribute.String("summary.from", from.String()),
		attribute.String("summary.to", to.String()),
	)

	if from.After(to) {
		summary := aggregate.SummarizeRange(nil, kind, from, to)
		return &summary, nil
	}

	txs, err := s.fetch(ctx, userID, kind, domain.DateRange{From: from, To: to})
	if err != nil {
		return nil, err
	}
	summary := aggregate.SummarizeRange(txs, kind, from, to)
	return &summary, nil
}

// fetch lists one kind of transaction and accounts for malformed amounts.
func (s *DashboardService) fetch(ctx context.Context, userID string, kind domain.Kind, r domain.DateRange) ([]domain.Transaction, error) {
	list := s.transactions.ListExpenses
	if kind == domain.KindDeposit {
		list = s.transactions.ListDeposits
	}

	txs, err := list(ctx, userID, r)
	if err != nil {
		s.logger.Error("failed to fetch transactions",
			zap.String("user_id", userID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("finance-api")
		return nil, fmt.Errorf("%s fetch: %w", kind, err)
	}

	recordMalformed(s.metrics, s.logger, userID, kind, txs)
	return txs, nil
}

func recordMalformed(metrics *observability.Metrics, logger *zap.Logger, userID string, kind domain.Kind, txs []domain.Transaction) {
	var ids []string
	for _, tx := range txs {
		if tx.AmountMalformed || tx.Amount.Cents < 0 {
			ids = append(ids, tx.ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	metrics.AddMalformedAmounts(kind, len(ids))
	logger.Warn("malformed amounts counted as zero",
		zap.String("user_id", userID),
		zap.String("kind", string(kind)),
		zap.Strings("transaction_ids", ids),
	)
}
