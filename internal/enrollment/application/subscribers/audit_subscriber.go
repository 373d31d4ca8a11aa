package subscribers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/domain"
	"github.com/felixgeelhaar/meetbridge/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/meetbridge/pkg/observability"
)

// AuditSubscriber writes an audit log line for every enrollment event and
// keeps the tracking and enrollment counters.
type AuditSubscriber struct {
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewAuditSubscriber creates a new audit subscriber.
func NewAuditSubscriber(metrics observability.Metrics, logger *slog.Logger) *AuditSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &AuditSubscriber{
		metrics: metrics,
		logger:  logger.With("component", "audit"),
	}
}

// EventTypes returns the event types this subscriber handles.
func (s *AuditSubscriber) EventTypes() []string {
	return []string{
		domain.RoutingKeyMeetingTracked,
		domain.RoutingKeyParticipantEnrolled,
		domain.RoutingKeyEnrollmentFailed,
	}
}

// auditPayload covers the fields shared by all enrollment events.
type auditPayload struct {
	SourceMessageID string `json:"source_message_id"`
	MeetingID       string `json:"meeting_id"`
	UserID          string `json:"user_id,omitempty"`
	CreatedBy       string `json:"created_by,omitempty"`
	Channel         string `json:"channel,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// Handle processes an enrollment event.
func (s *AuditSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload auditPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		s.logger.ErrorContext(ctx, "failed to unmarshal audit payload",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
			"error", err,
		)
		return nil
	}

	s.metrics.Counter(observability.MetricEventsConsumed, 1, observability.T("routing_key", event.RoutingKey))

	attrs := []any{
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"source_message_id", payload.SourceMessageID,
		"meeting_id", payload.MeetingID,
		"occurred_at", event.OccurredAt,
	}

	switch event.RoutingKey {
	case domain.RoutingKeyMeetingTracked:
		s.metrics.Counter(observability.MetricMeetingsTracked, 1)
		s.logger.InfoContext(ctx, "meeting tracked", append(attrs,
			"created_by", payload.CreatedBy,
			"channel", payload.Channel,
		)...)
	case domain.RoutingKeyParticipantEnrolled:
		s.metrics.Counter(observability.MetricEnrollments, 1, observability.T(observability.OutcomeKey, "enrolled"))
		s.logger.InfoContext(ctx, "participant enrolled", append(attrs, "user_id", payload.UserID)...)
	case domain.RoutingKeyEnrollmentFailed:
		s.metrics.Counter(observability.MetricEnrollments, 1, observability.T(observability.OutcomeKey, "failed"))
		s.logger.WarnContext(ctx, "enrollment failed", append(attrs,
			"user_id", payload.UserID,
			"reason", payload.Reason,
		)...)
	default:
		s.logger.WarnContext(ctx, "unknown event type", "routing_key", event.RoutingKey)
	}

	return nil
}
