package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/domain"
)

// MeetingDTO is a data transfer object for tracked meetings.
type MeetingDTO struct {
	SourceMessageID string    `json:"source_message_id"`
	MeetingID       string    `json:"meeting_id"`
	MeetingLink     string    `json:"meeting_link"`
	Channel         string    `json:"channel"`
	CreatedBy       string    `json:"created_by"`
	Participants    []string  `json:"participants"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ListTrackedMeetingsQuery contains the parameters for listing tracked meetings.
type ListTrackedMeetingsQuery struct {
	Channel string // Only meetings posted in this channel
	Limit   int    // Max number of meetings to return (0 = no limit)
}

// ListTrackedMeetingsHandler handles the ListTrackedMeetingsQuery.
type ListTrackedMeetingsHandler struct {
	store domain.Store
}

// NewListTrackedMeetingsHandler creates a new ListTrackedMeetingsHandler.
func NewListTrackedMeetingsHandler(store domain.Store) *ListTrackedMeetingsHandler {
	return &ListTrackedMeetingsHandler{store: store}
}

// Handle executes the ListTrackedMeetingsQuery.
func (h *ListTrackedMeetingsHandler) Handle(ctx context.Context, query ListTrackedMeetingsQuery) ([]MeetingDTO, error) {
	records, err := h.store.List(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]MeetingDTO, 0, len(records))
	for _, r := range records {
		if query.Channel != "" && r.Channel() != query.Channel {
			continue
		}
		dtos = append(dtos, toMeetingDTO(r))
		if query.Limit > 0 && len(dtos) == query.Limit {
			break
		}
	}
	return dtos, nil
}

func toMeetingDTO(r *domain.MeetingRecord) MeetingDTO {
	return MeetingDTO{
		SourceMessageID: r.SourceMessageID().String(),
		MeetingID:       r.MeetingID(),
		MeetingLink:     r.MeetingLink(),
		Channel:         r.Channel(),
		CreatedBy:       r.CreatedBy(),
		Participants:    r.Participants(),
		CreatedAt:       r.CreatedAt(),
		UpdatedAt:       r.UpdatedAt(),
	}
}
