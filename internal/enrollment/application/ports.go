// Package application holds the use cases that connect chat events to the
// membership store and the remote calendar.
package application

import (
	"context"
	"errors"

	sharedDomain "github.com/felixgeelhaar/meetbridge/internal/shared/domain"
)

var (
	// ErrContactUnavailable means the chat profile has no usable email address.
	ErrContactUnavailable = errors.New("contact address unavailable")

	// ErrAttendeeAdd means the remote calendar did not accept the attendee.
	ErrAttendeeAdd = errors.New("attendee add failed")
)

// Notifier posts messages back into the chat platform.
type Notifier interface {
	// PostThread posts a public reply in the thread rooted at threadTS.
	PostThread(ctx context.Context, channel, threadTS, text string) error

	// PostEphemeral posts a message in channel visible only to userID.
	PostEphemeral(ctx context.Context, channel, userID, text string) error

	// PostDirect sends userID a direct message.
	PostDirect(ctx context.Context, userID, text string) error

	// AddMarker adds the reaction name to the message at (channel, ts).
	AddMarker(ctx context.Context, channel, ts, name string) error
}

// Directory resolves chat users to contact addresses.
type Directory interface {
	// ContactAddress returns the user's email, or an error wrapping
	// ErrContactUnavailable when the profile has none.
	ContactAddress(ctx context.Context, userID string) (string, error)
}

// AttendeeAdder adds an attendee to an existing remote meeting.
type AttendeeAdder interface {
	AddAttendee(ctx context.Context, meetingID, email string) error
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	PublishDomainEvent(ctx context.Context, event sharedDomain.DomainEvent) error
}
