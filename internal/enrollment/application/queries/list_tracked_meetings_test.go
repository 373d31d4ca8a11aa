package queries

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/domain"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRecord(t *testing.T, store domain.Store, channel, ts, meetingID string, participants ...string) {
	t.Helper()
	ctx := context.Background()
	id := domain.NewMessageID(channel, ts)
	record, err := domain.NewMeetingRecord(id, domain.MeetingLink{
		URL:       "https://chat.example/join?meetingId=" + meetingID,
		MeetingID: meetingID,
	}, "U_AUTHOR", channel, ts)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, record))
	for _, p := range participants {
		require.NoError(t, store.AddParticipant(ctx, id, p))
	}
}

type failingStore struct {
	domain.Store
}

func (failingStore) List(ctx context.Context) ([]*domain.MeetingRecord, error) {
	return nil, errors.New("boom")
}

func TestListTrackedMeetingsHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("lists meetings in creation order", func(t *testing.T) {
		store := memory.NewStore()
		seedRecord(t, store, "C1", "1.0", "41")
		seedRecord(t, store, "C2", "2.0", "42", "U1", "U2")

		result, err := NewListTrackedMeetingsHandler(store).Handle(ctx, ListTrackedMeetingsQuery{})

		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, "C1:1.0", result[0].SourceMessageID)
		assert.Equal(t, "41", result[0].MeetingID)
		assert.Empty(t, result[0].Participants)
		assert.Equal(t, []string{"U1", "U2"}, result[1].Participants)
		assert.Equal(t, "U_AUTHOR", result[1].CreatedBy)
	})

	t.Run("filters by channel", func(t *testing.T) {
		store := memory.NewStore()
		seedRecord(t, store, "C1", "1.0", "41")
		seedRecord(t, store, "C2", "2.0", "42")
		seedRecord(t, store, "C1", "3.0", "43")

		result, err := NewListTrackedMeetingsHandler(store).Handle(ctx, ListTrackedMeetingsQuery{Channel: "C1"})

		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, "41", result[0].MeetingID)
		assert.Equal(t, "43", result[1].MeetingID)
	})

	t.Run("applies limit", func(t *testing.T) {
		store := memory.NewStore()
		seedRecord(t, store, "C1", "1.0", "41")
		seedRecord(t, store, "C1", "2.0", "42")

		result, err := NewListTrackedMeetingsHandler(store).Handle(ctx, ListTrackedMeetingsQuery{Limit: 1})

		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, "41", result[0].MeetingID)
	})

	t.Run("empty store returns empty slice", func(t *testing.T) {
		result, err := NewListTrackedMeetingsHandler(memory.NewStore()).Handle(ctx, ListTrackedMeetingsQuery{})

		require.NoError(t, err)
		assert.NotNil(t, result)
		assert.Empty(t, result)
	})

	t.Run("store error is returned", func(t *testing.T) {
		_, err := NewListTrackedMeetingsHandler(failingStore{}).Handle(ctx, ListTrackedMeetingsQuery{})

		assert.Error(t, err)
	})
}
