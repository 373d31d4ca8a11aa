package app

import (
	"context"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/domain"
	sharedDomain "github.com/felixgeelhaar/meetbridge/internal/shared/domain"
	"github.com/felixgeelhaar/meetbridge/pkg/observability"
)

// meteredPublisher counts published events and refreshes the tracked
// record gauge whenever a new record is announced.
type meteredPublisher struct {
	next    application.EventPublisher
	metrics observability.Metrics
	records func() int
}

func (p *meteredPublisher) PublishDomainEvent(ctx context.Context, event sharedDomain.DomainEvent) error {
	err := p.next.PublishDomainEvent(ctx, event)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.metrics.Counter(observability.MetricEventsPublished, 1,
		observability.T("routing_key", event.RoutingKey()),
		observability.T("outcome", outcome),
	)
	if event.RoutingKey() == domain.RoutingKeyMeetingTracked && p.records != nil {
		p.metrics.Gauge(observability.MetricTrackedRecords, float64(p.records()))
	}
	return err
}
