package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/observability"
	"github.com/boddenberg/fintrack-bfa-go/internal/port"

	"go.uber.org/zap"
)

// AlertNotifier publishes a budget alert the first time a (user, period)
// reaches a given alerting status. Only periods within a month of now alert;
// dedup entries for older periods are evicted. A nil notifier or publisher is
// a no-op.
type AlertNotifier struct {
	publisher port.AlertPublisher
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time

	mu    sync.Mutex
	sent  map[string]domain.Date
	swept domain.Date
}

// NewAlertNotifier creates a notifier. publisher may be nil.
func NewAlertNotifier(publisher port.AlertPublisher, metrics *observability.Metrics, logger *zap.Logger) *AlertNotifier {
	return &AlertNotifier{
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
		sent:      make(map[string]domain.Date),
	}
}

// WithClock replaces the clock deciding which periods are current.
func (n *AlertNotifier) WithClock(now func() time.Time) *AlertNotifier {
	n.now = now
	return n
}

// alertWindow is the range of budget periods that may alert: the previous,
// current and next month, so callers ahead of UTC are covered.
func alertWindow(now time.Time) (first, last domain.Date) {
	current := domain.DateOf(now.UTC()).MonthStart()
	return current.AddMonths(-1), current.AddMonths(1)
}

// sweep drops dedup entries older than first. Runs once per month. Callers
// hold n.mu.
func (n *AlertNotifier) sweep(first domain.Date) {
	if n.swept.Equal(first) {
		return
	}
	for key, period := range n.sent {
		if period.Before(first) {
			delete(n.sent, key)
		}
	}
	n.swept = first
}

// Notify publishes an alert for usage when its status alerts, its period is
// current and it has not been published before. Publish failures are logged
// and retried on the next call.
func (n *AlertNotifier) Notify(ctx context.Context, userID string, usage domain.BudgetUsage) {
	if n == nil || n.publisher == nil || !usage.Status.Alerting() {
		return
	}

	period := domain.NewDate(usage.Year, time.Month(usage.Month), 1)
	first, last := alertWindow(n.now())
	if period.Before(first) || period.After(last) {
		return
	}

	key := fmt.Sprintf("%s:%s:%s", userID, period.MonthLabel(), usage.Status)
	n.mu.Lock()
	n.sweep(first)
	if _, done := n.sent[key]; done {
		n.mu.Unlock()
		return
	}
	n.sent[key] = period
	n.mu.Unlock()

	alert := domain.BudgetAlert{
		UserID:     userID,
		Month:      usage.Month,
		Year:       usage.Year,
		Status:     usage.Status,
		Percent:    usage.Percent,
		Limit:      usage.Limit,
		Spent:      usage.Spent,
		OccurredAt: n.now().UTC(),
	}
	if err := n.publisher.PublishBudgetAlert(ctx, alert); err != nil {
		n.mu.Lock()
		delete(n.sent, key)
		n.mu.Unlock()
		n.metrics.IncrExternalError("amqp")
		n.logger.Warn("budget alert not published",
			zap.String("user_id", userID),
			zap.String("status", string(usage.Status)),
			zap.Error(err),
		)
		return
	}
	n.metrics.IncrBudgetAlert(usage.Status)
}
