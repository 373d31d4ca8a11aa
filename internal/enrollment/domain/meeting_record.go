package domain

import (
	"errors"
	"strings"

	sharedDomain "github.com/felixgeelhaar/meetbridge/internal/shared/domain"
)

var (
	ErrRecordEmptyMessageID = errors.New("source message id cannot be empty")
	ErrRecordEmptyMeetingID = errors.New("meeting id cannot be empty")
	ErrRecordEmptyLink      = errors.New("meeting link cannot be empty")
	ErrRecordEmptyUserID    = errors.New("participant user id cannot be empty")
	ErrAlreadyParticipant   = errors.New("user is already a participant")
)

// MessageID identifies the chat message that introduced a meeting link.
type MessageID string

// NewMessageID builds a MessageID from a channel and a message timestamp.
// Timestamps are only unique within a channel, so both parts are kept.
func NewMessageID(channel, ts string) MessageID {
	return MessageID(channel + ":" + ts)
}

func (id MessageID) String() string { return string(id) }

// MeetingRecord tracks one chat message carrying a meeting link and the set
// of chat users already added to that meeting as attendees.
type MeetingRecord struct {
	sharedDomain.BaseAggregateRoot
	sourceMessageID MessageID
	meetingID       string
	meetingLink     string
	createdBy       string
	channel         string
	threadTS        string
	participants    map[string]struct{}
	joinOrder       []string
}

// NewMeetingRecord creates a record with no participants.
func NewMeetingRecord(id MessageID, link MeetingLink, createdBy, channel, threadTS string) (*MeetingRecord, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, ErrRecordEmptyMessageID
	}
	if strings.TrimSpace(link.MeetingID) == "" {
		return nil, ErrRecordEmptyMeetingID
	}
	if strings.TrimSpace(link.URL) == "" {
		return nil, ErrRecordEmptyLink
	}

	record := &MeetingRecord{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		sourceMessageID:   id,
		meetingID:         link.MeetingID,
		meetingLink:       link.URL,
		createdBy:         createdBy,
		channel:           channel,
		threadTS:          threadTS,
		participants:      make(map[string]struct{}),
	}

	record.AddDomainEvent(NewMeetingLinkTracked(record))
	return record, nil
}

// Getters
func (r *MeetingRecord) SourceMessageID() MessageID { return r.sourceMessageID }
func (r *MeetingRecord) MeetingID() string          { return r.meetingID }
func (r *MeetingRecord) MeetingLink() string        { return r.meetingLink }
func (r *MeetingRecord) CreatedBy() string          { return r.createdBy }
func (r *MeetingRecord) Channel() string            { return r.channel }
func (r *MeetingRecord) ThreadTS() string           { return r.threadTS }
func (r *MeetingRecord) ParticipantCount() int      { return len(r.joinOrder) }

// HasParticipant reports whether userID has already been enrolled.
func (r *MeetingRecord) HasParticipant(userID string) bool {
	_, ok := r.participants[userID]
	return ok
}

// Participants returns enrolled user ids in the order they joined.
func (r *MeetingRecord) Participants() []string {
	out := make([]string, len(r.joinOrder))
	copy(out, r.joinOrder)
	return out
}

// AddParticipant records userID as an attendee. Callers must only invoke it
// once the remote calendar has accepted the attendee.
func (r *MeetingRecord) AddParticipant(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrRecordEmptyUserID
	}
	if r.HasParticipant(userID) {
		return ErrAlreadyParticipant
	}

	r.participants[userID] = struct{}{}
	r.joinOrder = append(r.joinOrder, userID)
	r.Touch()
	r.AddDomainEvent(NewParticipantEnrolled(r, userID))
	return nil
}

// Clone returns a deep copy without pending domain events.
func (r *MeetingRecord) Clone() *MeetingRecord {
	participants := make(map[string]struct{}, len(r.participants))
	for k := range r.participants {
		participants[k] = struct{}{}
	}
	return &MeetingRecord{
		BaseAggregateRoot: r.CopyBase(),
		sourceMessageID:   r.sourceMessageID,
		meetingID:         r.meetingID,
		meetingLink:       r.meetingLink,
		createdBy:         r.createdBy,
		channel:           r.channel,
		threadTS:          r.threadTS,
		participants:      participants,
		joinOrder:         append([]string(nil), r.joinOrder...),
	}
}
