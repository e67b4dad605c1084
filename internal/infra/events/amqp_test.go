package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"
	"github.com/boddenberg/fintrack-bfa-go/internal/infra/events"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type mockChannel struct {
	sent []published
	err  error
}

func (m *mockChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (m *mockChannel) Close() error { return nil }

func TestPublishBudgetAlert(t *testing.T) {
	ch := &mockChannel{}
	p := events.NewPublisher(ch, "fintrack", "budget.alert", zap.NewNop())

	alert := domain.BudgetAlert{
		UserID:     "u1",
		Month:      3,
		Year:       2024,
		Status:     domain.BudgetNearLimit,
		Percent:    domain.PercentOf(decimal.RequireFromString("85.5")),
		Limit:      domain.Cents(100000),
		Spent:      domain.Cents(85500),
		OccurredAt: time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC),
	}
	if err := p.PublishBudgetAlert(context.Background(), alert); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(ch.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(ch.sent))
	}
	got := ch.sent[0]
	if got.exchange != "fintrack" || got.key != "budget.alert" {
		t.Errorf("unexpected destination %s/%s", got.exchange, got.key)
	}
	if got.msg.DeliveryMode != amqp.Persistent || got.msg.ContentType != "application/json" {
		t.Errorf("unexpected publishing %+v", got.msg)
	}

	var body map[string]any
	if err := json.Unmarshal(got.msg.Body, &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body["status"] != "near_limit" || body["userId"] != "u1" {
		t.Errorf("unexpected body %s", got.msg.Body)
	}
	if body["percent"] != 85.5 || body["spent"] != 855.0 {
		t.Errorf("unexpected amounts in %s", got.msg.Body)
	}
}

func TestPublishBudgetAlert_Error(t *testing.T) {
	p := events.NewPublisher(&mockChannel{err: errors.New("channel closed")}, "x", "y", zap.NewNop())

	err := p.PublishBudgetAlert(context.Background(), domain.BudgetAlert{Status: domain.BudgetOverBudget})

	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) || ext.Service != "amqp" {
		t.Fatalf("expected amqp ErrExternalService, got %v", err)
	}
}
