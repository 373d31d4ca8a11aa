package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/meetbridge/pkg/observability"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultConsumerQueueName is the queue the audit consumer reads from.
const DefaultConsumerQueueName = "meetbridge.audit"

// deliveryOutcome records what was done with a delivery.
type deliveryOutcome string

const (
	deliveryAcked    deliveryOutcome = "acked"
	deliveryRequeued deliveryOutcome = "requeued"
	deliveryDropped  deliveryOutcome = "dropped"
)

// RabbitMQConsumer feeds one durable queue to a single EventConsumer. The
// queue is bound to the consumer's EventTypes on the events exchange.
type RabbitMQConsumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	consumer EventConsumer
	logger   *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// RabbitMQConsumerConfig configures the RabbitMQ consumer.
type RabbitMQConsumerConfig struct {
	URL       string
	QueueName string
	Logger    *slog.Logger
}

// NewRabbitMQConsumer connects, declares the queue and binds it for consumer.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, consumer EventConsumer) (*RabbitMQConsumer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	queue := cfg.QueueName
	if queue == "" {
		queue = DefaultConsumerQueueName
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := setupQueue(ch, queue, consumer.EventTypes()); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	logger.Info("RabbitMQ consumer connected", "queue", queue, "bindings", consumer.EventTypes())

	return &RabbitMQConsumer{
		conn:     conn,
		channel:  ch,
		queue:    queue,
		consumer: consumer,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

func setupQueue(ch *amqp.Channel, queue string, bindings []string) error {
	if err := declareExchange(ch, ExchangeName); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	for _, key := range bindings {
		if err := ch.QueueBind(queue, key, ExchangeName, false, nil); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	// One unacknowledged message at a time.
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	return nil
}

// Start consumes until ctx is cancelled or Close is called.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	c.logger.Info("started consuming events", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case msg, ok := <-msgs:
			if !ok {
				select {
				case <-c.done:
					return nil
				default:
					return fmt.Errorf("message channel closed unexpectedly")
				}
			}
			c.handleDelivery(ctx, msg)
		}
	}
}

// handleDelivery hands msg to the consumer and settles it. Undecodable
// messages are rejected, a first failure is requeued and a failure on
// redelivery is dropped.
func (c *RabbitMQConsumer) handleDelivery(ctx context.Context, msg amqp.Delivery) deliveryOutcome {
	logger := c.logger.With("routing_key", msg.RoutingKey)

	event := &ConsumedEvent{}
	if err := json.Unmarshal(msg.Body, event); err != nil {
		logger.Error("failed to unmarshal event", "error", err)
		c.settle(logger, msg.Reject(false))
		return deliveryDropped
	}
	if event.RoutingKey == "" {
		event.RoutingKey = msg.RoutingKey
	}
	if event.Metadata.CorrelationID != "" {
		ctx = observability.WithCorrelationID(ctx, event.Metadata.CorrelationID)
	}

	if err := c.consumer.Handle(ctx, event); err != nil {
		logger.Error("event handling failed",
			"event_id", event.EventID,
			"redelivered", msg.Redelivered,
			"error", err,
		)
		if msg.Redelivered {
			c.settle(logger, msg.Nack(false, false))
			return deliveryDropped
		}
		c.settle(logger, msg.Nack(false, true))
		return deliveryRequeued
	}

	c.settle(logger, msg.Ack(false))
	return deliveryAcked
}

func (c *RabbitMQConsumer) settle(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("failed to settle delivery", "error", err)
	}
}

// Close stops Start and closes the connection. It is safe to call twice.
func (c *RabbitMQConsumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		if c.channel != nil {
			if chErr := c.channel.Close(); chErr != nil {
				c.logger.Warn("error closing channel", "error", chErr)
			}
		}
		if c.conn != nil {
			err = c.conn.Close()
		}
		c.logger.Info("RabbitMQ consumer closed")
	})
	return err
}
