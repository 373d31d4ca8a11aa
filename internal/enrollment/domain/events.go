package domain

import (
	sharedDomain "github.com/felixgeelhaar/meetbridge/internal/shared/domain"
)

const aggregateType = "MeetingRecord"

// Routing keys for enrollment events.
const (
	RoutingKeyMeetingTracked      = "enrollment.meeting.tracked"
	RoutingKeyParticipantEnrolled = "enrollment.participant.enrolled"
	RoutingKeyEnrollmentFailed    = "enrollment.participant.failed"
)

// MeetingLinkTracked is emitted when a message with a meeting link starts being tracked.
type MeetingLinkTracked struct {
	sharedDomain.BaseEvent
	SourceMessageID string `json:"source_message_id"`
	MeetingID       string `json:"meeting_id"`
	MeetingLink     string `json:"meeting_link"`
	CreatedBy       string `json:"created_by"`
	Channel         string `json:"channel"`
}

// NewMeetingLinkTracked creates a MeetingLinkTracked event.
func NewMeetingLinkTracked(r *MeetingRecord) *MeetingLinkTracked {
	return &MeetingLinkTracked{
		BaseEvent:       sharedDomain.NewBaseEvent(r.SourceMessageID().String(), aggregateType, RoutingKeyMeetingTracked),
		SourceMessageID: r.SourceMessageID().String(),
		MeetingID:       r.MeetingID(),
		MeetingLink:     r.MeetingLink(),
		CreatedBy:       r.CreatedBy(),
		Channel:         r.Channel(),
	}
}

// ParticipantEnrolled is emitted after the remote calendar accepted a new attendee.
type ParticipantEnrolled struct {
	sharedDomain.BaseEvent
	SourceMessageID string `json:"source_message_id"`
	MeetingID       string `json:"meeting_id"`
	UserID          string `json:"user_id"`
}

// NewParticipantEnrolled creates a ParticipantEnrolled event.
func NewParticipantEnrolled(r *MeetingRecord, userID string) *ParticipantEnrolled {
	return &ParticipantEnrolled{
		BaseEvent:       sharedDomain.NewBaseEvent(r.SourceMessageID().String(), aggregateType, RoutingKeyParticipantEnrolled),
		SourceMessageID: r.SourceMessageID().String(),
		MeetingID:       r.MeetingID(),
		UserID:          userID,
	}
}

// EnrollmentFailed is emitted when the remote attendee-add did not succeed.
type EnrollmentFailed struct {
	sharedDomain.BaseEvent
	SourceMessageID string `json:"source_message_id"`
	MeetingID       string `json:"meeting_id"`
	UserID          string `json:"user_id"`
	Reason          string `json:"reason"`
}

// NewEnrollmentFailed creates an EnrollmentFailed event.
func NewEnrollmentFailed(r *MeetingRecord, userID string, cause error) *EnrollmentFailed {
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	return &EnrollmentFailed{
		BaseEvent:       sharedDomain.NewBaseEvent(r.SourceMessageID().String(), aggregateType, RoutingKeyEnrollmentFailed),
		SourceMessageID: r.SourceMessageID().String(),
		MeetingID:       r.MeetingID(),
		UserID:          userID,
		Reason:          reason,
	}
}
