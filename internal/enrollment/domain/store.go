package domain

import (
	"context"
	"errors"
)

var (
	ErrRecordNotFound = errors.New("meeting record not found")
	ErrRecordExists   = errors.New("meeting record already exists")
)

// Store holds meeting records keyed by source message id.
//
// Implementations must be safe for concurrent use and must never drop a
// participant once added.
type Store interface {
	// Create inserts a new record. It returns ErrRecordExists if the key is taken.
	Create(ctx context.Context, record *MeetingRecord) error

	// Get returns a copy of the record, or ErrRecordNotFound.
	Get(ctx context.Context, id MessageID) (*MeetingRecord, error)

	// AddParticipant appends userID to the stored record's participants.
	// Adding an existing participant returns ErrAlreadyParticipant.
	AddParticipant(ctx context.Context, id MessageID, userID string) error

	// List returns copies of all records, oldest first.
	List(ctx context.Context) ([]*MeetingRecord, error)
}
