package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	revocationExchange     = "token.revocations"
	revocationExchangeType = "fanout"
)

// RevocationEvent is the payload published when a token is revoked. Sibling
// services subscribe to drop sessions, close websockets, and write audit rows.
// The revocation store stays the source of truth; consumers of this event must
// not treat it as such.
type RevocationEvent struct {
	JTI       string    `json:"jti"`
	Subject   string    `json:"subject"`
	RevokedAt time.Time `json:"revoked_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RevocationPublisher publishes revocation events to a durable fanout exchange.
type RevocationPublisher struct {
	conn   *amqp091.Connection
	ch     *amqp091.Channel
	logger *zap.Logger
}

// NewRevocationPublisher creates a publisher and declares the exchange.
func NewRevocationPublisher(conn *amqp091.Connection, logger *zap.Logger) (*RevocationPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("Failed to open a channel for revocation events", zap.Error(err))
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	// Declaring an existing exchange with the same parameters is a no-op.
	err = ch.ExchangeDeclare(
		revocationExchange,
		revocationExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		logger.Error("Failed to declare revocation exchange", zap.String("exchange", revocationExchange), zap.Error(err))
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", revocationExchange, err)
	}

	logger.Info("Revocation exchange declared successfully", zap.String("exchange", revocationExchange))

	return &RevocationPublisher{
		conn:   conn,
		ch:     ch,
		logger: logger.Named("RevocationPublisher"),
	}, nil
}

// Publish sends a revocation event to the exchange.
func (p *RevocationPublisher) Publish(ctx context.Context, event RevocationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal revocation event", zap.Error(err))
		return fmt.Errorf("failed to marshal revocation event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		revocationExchange,
		"",    // routing key ignored by fanout
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish revocation event", zap.Error(err), zap.String("jti", event.JTI))
		return fmt.Errorf("failed to publish revocation event: %w", err)
	}

	p.logger.Debug("Revocation event published", zap.String("jti", event.JTI))
	return nil
}

// Close shuts down the publisher channel.
func (p *RevocationPublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
