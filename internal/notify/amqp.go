package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/media-vault/video-archive-go/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventPublisher mirrors change events to an AMQP topic exchange so
// out-of-process consumers can follow queue activity without holding a
// database connection.
type EventPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *config.EventBusConfig
	logger  *zap.Logger
	mu      sync.RWMutex
}

// NewEventPublisher connects to the broker and declares the exchange.
func NewEventPublisher(cfg *config.EventBusConfig, logger *zap.Logger) (*EventPublisher, error) {
	ep := &EventPublisher{
		config: cfg,
		logger: logger,
	}

	if err := ep.connect(); err != nil {
		return nil, err
	}

	return ep, nil
}

func (ep *EventPublisher) connect() error {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	connURL := fmt.Sprintf("amqp://%s:%s@%s:%d/",
		ep.config.User, ep.config.Password, ep.config.Host, ep.config.Port)

	conn, err := amqp.Dial(connURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// Enable publisher confirms
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	if err := ch.ExchangeDeclare(
		ep.config.Exchange, // name
		"topic",            // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	ep.conn = conn
	ep.channel = ch

	ep.logger.Info("connected to RabbitMQ",
		zap.String("exchange", ep.config.Exchange),
	)

	return nil
}

// Publish mirrors one change event to the exchange. The routing key is
// the configured prefix plus the originating channel name.
func (ep *EventPublisher) Publish(ctx context.Context, env Envelope) error {
	ep.mu.RLock()
	defer ep.mu.RUnlock()

	if ep.channel == nil {
		return fmt.Errorf("channel is not initialized")
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	confirms := ep.channel.NotifyPublish(make(chan amqp.Confirmation, 1))

	routingKey := ep.config.RoutingKey + "." + env.Channel

	err = ep.channel.PublishWithContext(
		ctx,
		ep.config.Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	select {
	case confirm := <-confirms:
		if !confirm.Ack {
			return fmt.Errorf("message was not acknowledged by broker")
		}
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for publish confirmation")
	case <-ctx.Done():
		return ctx.Err()
	}

	ep.logger.Debug("published change event",
		zap.String("routingKey", routingKey),
	)

	return nil
}

// Run subscribes to the hub and mirrors every event until ctx is
// cancelled.
func (ep *EventPublisher) Run(ctx context.Context, hub *Hub) {
	id, events := hub.Subscribe()
	defer hub.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-events:
			if !ok {
				return
			}
			var env Envelope
			if err := json.Unmarshal(payload, &env); err != nil {
				ep.logger.Error("malformed hub event", zap.Error(err))
				continue
			}
			if err := ep.Publish(ctx, env); err != nil {
				ep.logger.Warn("failed to mirror change event", zap.Error(err))
			}
		}
	}
}

func (ep *EventPublisher) Close() error {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	var errs []error
	if ep.channel != nil {
		if err := ep.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if ep.conn != nil {
		if err := ep.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing publisher: %v", errs)
	}

	return nil
}

func (ep *EventPublisher) IsHealthy() bool {
	ep.mu.RLock()
	defer ep.mu.RUnlock()

	return ep.conn != nil && !ep.conn.IsClosed() && ep.channel != nil
}
