// Package memory provides the process-local Membership Store.
package memory

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/domain"
)

// Store is an in-memory domain.Store. Records live for the lifetime of the
// process and are never evicted.
type Store struct {
	mu      sync.RWMutex
	records map[domain.MessageID]*domain.MeetingRecord
	order   []domain.MessageID
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		records: make(map[domain.MessageID]*domain.MeetingRecord),
	}
}

// Create inserts a copy of record.
func (s *Store) Create(_ context.Context, record *domain.MeetingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := record.SourceMessageID()
	if _, exists := s.records[id]; exists {
		return domain.ErrRecordExists
	}
	s.records[id] = record.Clone()
	s.order = append(s.order, id)
	return nil
}

// Get returns a copy of the record stored under id.
func (s *Store) Get(_ context.Context, id domain.MessageID) (*domain.MeetingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return record.Clone(), nil
}

// AddParticipant appends userID to the stored record.
func (s *Store) AddParticipant(_ context.Context, id domain.MessageID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if err := record.AddParticipant(userID); err != nil {
		return err
	}
	// The stored copy never publishes; events are raised on the caller's copy.
	record.ClearDomainEvents()
	return nil
}

// List returns copies of all records in creation order.
func (s *Store) List(_ context.Context) ([]*domain.MeetingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.MeetingRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].Clone())
	}
	return out, nil
}

// Len returns the number of tracked records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
