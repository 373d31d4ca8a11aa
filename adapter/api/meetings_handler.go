package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application/queries"
)

const maxMeetingsLimit = 500

// MeetingLister answers tracked-meeting queries.
type MeetingLister interface {
	Handle(ctx context.Context, query queries.ListTrackedMeetingsQuery) ([]queries.MeetingDTO, error)
}

// MeetingsHandler serves read-only views of tracked meetings.
type MeetingsHandler struct {
	list   MeetingLister
	logger *slog.Logger
}

// NewMeetingsHandler creates a MeetingsHandler.
func NewMeetingsHandler(list MeetingLister, logger *slog.Logger) *MeetingsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MeetingsHandler{list: list, logger: logger}
}

// ListMeetings handles GET /meetings?channel=&limit=
func (h *MeetingsHandler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 100)
	if limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must not be negative")
		return
	}
	if limit > maxMeetingsLimit {
		limit = maxMeetingsLimit
	}

	meetings, err := h.list.Handle(r.Context(), queries.ListTrackedMeetingsQuery{
		Channel: r.URL.Query().Get("channel"),
		Limit:   limit,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list meetings", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list meetings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"meetings": meetings,
		"count":    len(meetings),
	})
}

func parseIntParam(r *http.Request, name string, defaultValue int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}
