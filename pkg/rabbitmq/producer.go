/**
 * @description
 * This package provides a producer for publishing realtime notification
 * events to RabbitMQ. Connected client sessions subscribe per-user; delivery
 * is best-effort and a publish failure never affects the state change that
 * triggered it.
 *
 * @dependencies
 * - context, encoding/json, time: Standard Go libraries.
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/fundflow/campaign-service/internal/domain"
)

// NotificationExchange is the durable topic exchange realtime consumers bind to.
const NotificationExchange = "notifications.events"

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	PublishNotificationEvent(ctx context.Context, event domain.NotificationEvent) error
	Close()
}

// EventProducer holds the RabbitMQ connection and channel for publishing messages.
type EventProducer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	logger  *slog.Logger
}

// EventProducerFallback is a minimal no-op publisher used when RabbitMQ is
// unavailable at startup. Realtime delivery is best-effort, so the service
// keeps running without it.
type EventProducerFallback struct {
	Logger *slog.Logger
}

func (p *EventProducerFallback) PublishNotificationEvent(ctx context.Context, event domain.NotificationEvent) error {
	if p.Logger != nil {
		p.Logger.Warn("realtime publish skipped, broker unavailable", "user_id", event.UserID, "type", event.Type)
	}
	return nil
}

func (p *EventProducerFallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer creates and returns a new EventProducer.
func NewEventProducer(amqpURL string, logger *slog.Logger) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Bounded dial timeout so startup does not hang indefinitely.
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(
		NotificationExchange, // name
		"topic",              // type
		true,                 // durable
		false,                // autoDelete
		false,                // internal
		false,                // noWait
		nil,                  // args
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &EventProducer{conn: conn, channel: ch, logger: logger}, nil
}

// PublishNotificationEvent pushes one notification event onto the per-user
// routing key. Consumers with no binding for the user simply never receive it.
func (p *EventProducer) PublishNotificationEvent(ctx context.Context, event domain.NotificationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	routingKey := fmt.Sprintf("notification.user.%d", event.UserID)

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(publishCtx,
		NotificationExchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Transient,
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish notification event: %w", err)
	}
	return nil
}

// Close shuts down the channel and connection.
func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
