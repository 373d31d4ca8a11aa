package commands

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/domain"
	sharedDomain "github.com/felixgeelhaar/meetbridge/internal/shared/domain"
	"github.com/stretchr/testify/mock"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) PostThread(ctx context.Context, channel, threadTS, text string) error {
	args := m.Called(ctx, channel, threadTS, text)
	return args.Error(0)
}

func (m *mockNotifier) PostEphemeral(ctx context.Context, channel, userID, text string) error {
	args := m.Called(ctx, channel, userID, text)
	return args.Error(0)
}

func (m *mockNotifier) PostDirect(ctx context.Context, userID, text string) error {
	args := m.Called(ctx, userID, text)
	return args.Error(0)
}

func (m *mockNotifier) AddMarker(ctx context.Context, channel, ts, name string) error {
	args := m.Called(ctx, channel, ts, name)
	return args.Error(0)
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) ContactAddress(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

type mockAttendeeAdder struct {
	mock.Mock
}

func (m *mockAttendeeAdder) AddAttendee(ctx context.Context, meetingID, email string) error {
	args := m.Called(ctx, meetingID, email)
	return args.Error(0)
}

type mockParser struct {
	mock.Mock
}

func (m *mockParser) Parse(text string) (*domain.MeetingLink, error) {
	args := m.Called(text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MeetingLink), args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []sharedDomain.DomainEvent
	err    error
}

func (p *recordingPublisher) PublishDomainEvent(ctx context.Context, event sharedDomain.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) routingKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.events))
	for _, e := range p.events {
		keys = append(keys, e.RoutingKey())
	}
	return keys
}

// fakeStore is a minimal goroutine-safe domain.Store used to observe writes.
type fakeStore struct {
	mu      sync.Mutex
	records map[domain.MessageID]*domain.MeetingRecord
	adds    int
	getErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[domain.MessageID]*domain.MeetingRecord)}
}

func (s *fakeStore) Create(ctx context.Context, record *domain.MeetingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.SourceMessageID()]; ok {
		return domain.ErrRecordExists
	}
	s.records[record.SourceMessageID()] = record.Clone()
	return nil
}

func (s *fakeStore) Get(ctx context.Context, id domain.MessageID) (*domain.MeetingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	r, ok := s.records[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return r.Clone(), nil
}

func (s *fakeStore) AddParticipant(ctx context.Context, id domain.MessageID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if err := r.AddParticipant(userID); err != nil {
		return err
	}
	s.adds++
	return nil
}

func (s *fakeStore) List(ctx context.Context) ([]*domain.MeetingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.MeetingRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (s *fakeStore) participants(id domain.MessageID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil
	}
	return r.Participants()
}

func (s *fakeStore) addCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adds
}
