package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"resumetailor/internal/config"
	"resumetailor/internal/errors"

	"github.com/streadway/amqp"
)

// AMQPPublisher publishes events to a topic exchange, one routing key per session
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	exchange string
	prefix   string
	logger   *errors.Logger
}

// NewAMQPPublisher dials the broker and declares the exchange
func NewAMQPPublisher(cfg config.AMQPConfig, logger *errors.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	if cfg.URL == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "events.amqp.url is required in amqp mode", nil)
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeRemoteFailed, "error dialling rabbitmq", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.NewNetworkError(errors.ErrCodeRemoteFailed, "error opening rabbitmq channel", err)
	}
	defer func() { _ = ch.Close() }()

	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // auto-delete
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		_ = conn.Close()
		return nil, errors.NewNetworkError(errors.ErrCodeRemoteFailed, "failed to declare exchange", err).
			WithContext("exchange", cfg.Exchange)
	}

	logger.Info("AMQP event publisher connected", "exchange", cfg.Exchange)
	return &AMQPPublisher{conn: conn, exchange: cfg.Exchange, prefix: cfg.RoutingKeyPrefix, logger: logger}, nil
}

// routingKey returns "<prefix>.<sessionID>"
func routingKey(prefix, sessionID string) string {
	if prefix == "" {
		return sessionID
	}
	return fmt.Sprintf("%s.%s", prefix, sessionID)
}

func message(event Event) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   event.At,
		Type:        string(event.Type),
		Body:        body,
	}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := message(event)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeUnexpected, "failed to encode session event", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return errors.NewInternalError(errors.ErrCodeUnexpected, "event publisher is closed", nil)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeRemoteFailed, "error opening rabbitmq channel", err)
	}
	defer func() { _ = ch.Close() }()

	return ch.Publish(
		p.exchange,
		routingKey(p.prefix, event.SessionID),
		false, // mandatory
		false, // immediate
		msg,
	)
}

// Close closes the broker connection
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}
