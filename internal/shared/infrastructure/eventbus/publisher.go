package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/meetbridge/internal/shared/domain"
)

// Publisher defines the interface for publishing events to a message broker.
type Publisher interface {
	// Publish sends a message to the event bus.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close closes the publisher connection.
	Close() error
}

// DomainEventPublisher serializes domain events into envelopes and hands
// them to a Publisher.
type DomainEventPublisher struct {
	publisher Publisher
}

// NewDomainEventPublisher wraps publisher.
func NewDomainEventPublisher(publisher Publisher) *DomainEventPublisher {
	return &DomainEventPublisher{publisher: publisher}
}

// PublishDomainEvent publishes event under its routing key.
func (p *DomainEventPublisher) PublishDomainEvent(ctx context.Context, event domain.DomainEvent) error {
	return publishDomainEvent(ctx, p.publisher, event)
}

// Close closes the underlying publisher.
func (p *DomainEventPublisher) Close() error {
	return p.publisher.Close()
}

func publishDomainEvent(ctx context.Context, publisher Publisher, event domain.DomainEvent) error {
	envelope, err := NewConsumedEvent(ctx, event)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return publisher.Publish(ctx, event.RoutingKey(), payload)
}
