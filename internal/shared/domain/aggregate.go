package domain

import "time"

// BaseAggregateRoot provides timestamps and an uncommitted event buffer for
// aggregates keyed by an externally assigned identifier.
type BaseAggregateRoot struct {
	createdAt    time.Time
	updatedAt    time.Time
	domainEvents []DomainEvent
}

// NewBaseAggregateRoot creates a new aggregate root stamped with the current time.
func NewBaseAggregateRoot() BaseAggregateRoot {
	now := time.Now().UTC()
	return BaseAggregateRoot{
		createdAt:    now,
		updatedAt:    now,
		domainEvents: make([]DomainEvent, 0),
	}
}

func (a *BaseAggregateRoot) CreatedAt() time.Time { return a.createdAt }
func (a *BaseAggregateRoot) UpdatedAt() time.Time { return a.updatedAt }

// Touch updates the updatedAt timestamp.
func (a *BaseAggregateRoot) Touch() {
	a.updatedAt = time.Now().UTC()
}

// DomainEvents returns all uncommitted domain events.
func (a *BaseAggregateRoot) DomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents removes all uncommitted domain events.
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = make([]DomainEvent, 0)
}

// AddDomainEvent adds a domain event to the aggregate.
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// CopyBase returns a copy of the aggregate root without its pending events.
func (a *BaseAggregateRoot) CopyBase() BaseAggregateRoot {
	return BaseAggregateRoot{
		createdAt:    a.createdAt,
		updatedAt:    a.updatedAt,
		domainEvents: make([]DomainEvent, 0),
	}
}
