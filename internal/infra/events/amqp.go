// Package events publishes budget alerts to an AMQP topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("events")

const publishTimeout = 5 * time.Second

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends budget alerts as persistent JSON messages.
type Publisher struct {
	mu         sync.Mutex
	conn       *amqp.Connection
	channel    Channel
	exchange   string
	routingKey string
	logger     *zap.Logger
}

// Dial connects to the broker at url and declares a durable topic exchange.
func Dial(url, exchange, routingKey string, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	p := NewPublisher(ch, exchange, routingKey, logger)
	p.conn = conn
	return p, nil
}

// NewPublisher wraps an already configured channel.
func NewPublisher(ch Channel, exchange, routingKey string, logger *zap.Logger) *Publisher {
	return &Publisher{
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}
}

// PublishBudgetAlert implements port.AlertPublisher.
func (p *Publisher) PublishBudgetAlert(ctx context.Context, alert domain.BudgetAlert) error {
	ctx, span := tracer.Start(ctx, "Publisher.PublishBudgetAlert")
	defer span.End()
	span.SetAttributes(
		attribute.String("budget.status", string(alert.Status)),
		attribute.String("messaging.destination", p.exchange),
	)

	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,   // exchange
		p.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    alert.OccurredAt,
			Type:         "budget.alert",
			Body:         body,
		},
	)
	if err != nil {
		span.RecordError(err)
		return &domain.ErrExternalService{Service: "amqp", Err: err}
	}

	p.logger.Info("budget alert published",
		zap.String("user_id", alert.UserID),
		zap.Int("month", alert.Month),
		zap.Int("year", alert.Year),
		zap.String("status", string(alert.Status)),
	)
	return nil
}

// Name implements port.HealthChecker.
func (p *Publisher) Name() string { return "amqp" }

// Check reports a closed broker connection.
func (p *Publisher) Check(_ context.Context) error {
	if p.conn != nil && p.conn.IsClosed() {
		return fmt.Errorf("amqp connection closed")
	}
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
