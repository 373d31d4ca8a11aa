package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/domain"
)

// TrackOutcome describes what happened to an inbound chat message.
type TrackOutcome string

const (
	TrackOutcomeIgnored     TrackOutcome = "ignored"
	TrackOutcomeUnparseable TrackOutcome = "unparseable"
	TrackOutcomeTracked     TrackOutcome = "tracked"
	TrackOutcomeDuplicate   TrackOutcome = "duplicate"
)

// TrackMeetingLinkCommand carries a chat message to inspect.
type TrackMeetingLinkCommand struct {
	Message application.ChatMessage
}

// TrackOptions configures the reactions used to advertise a tracked meeting.
type TrackOptions struct {
	OptInReaction  string
	MarkerReaction string
}

// TrackMeetingLinkHandler detects meeting links in messages and starts
// tracking them in the store.
type TrackMeetingLinkHandler struct {
	store     domain.Store
	parser    domain.LinkParser
	notifier  application.Notifier
	publisher application.EventPublisher
	opts      TrackOptions
	logger    *slog.Logger
}

// NewTrackMeetingLinkHandler creates a new TrackMeetingLinkHandler.
func NewTrackMeetingLinkHandler(
	store domain.Store,
	parser domain.LinkParser,
	notifier application.Notifier,
	publisher application.EventPublisher,
	opts TrackOptions,
	logger *slog.Logger,
) *TrackMeetingLinkHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TrackMeetingLinkHandler{
		store:     store,
		parser:    parser,
		notifier:  notifier,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
	}
}

// Handle executes the TrackMeetingLinkCommand.
func (h *TrackMeetingLinkHandler) Handle(ctx context.Context, cmd TrackMeetingLinkCommand) (TrackOutcome, error) {
	msg := cmd.Message

	link, err := h.parser.Parse(msg.Text)
	if err != nil {
		if !errors.Is(err, domain.ErrUnparseableLink) {
			return "", fmt.Errorf("parse message: %w", err)
		}
		h.logger.InfoContext(ctx, "meeting link not parseable",
			"channel", msg.Channel,
			"ts", msg.Timestamp,
			"error", err,
		)
		if err := h.notifier.PostThread(ctx, msg.Channel, msg.ReplyThread(), application.MsgUnparseableLink); err != nil {
			h.logger.WarnContext(ctx, "failed to report unparseable link", "error", err)
		}
		return TrackOutcomeUnparseable, nil
	}
	if link == nil {
		return TrackOutcomeIgnored, nil
	}

	id := domain.NewMessageID(msg.Channel, msg.Timestamp)
	record, err := domain.NewMeetingRecord(id, *link, msg.UserID, msg.Channel, msg.ReplyThread())
	if err != nil {
		return "", err
	}

	if err := h.store.Create(ctx, record); err != nil {
		if errors.Is(err, domain.ErrRecordExists) {
			h.logger.DebugContext(ctx, "meeting link already tracked", "source_message_id", id)
			return TrackOutcomeDuplicate, nil
		}
		return "", fmt.Errorf("store meeting record: %w", err)
	}
	publishEvents(ctx, h.publisher, h.logger, record)

	h.logger.InfoContext(ctx, "tracking meeting link",
		"source_message_id", id,
		"meeting_id", record.MeetingID(),
		"created_by", msg.UserID,
	)

	// The record stays trackable even if advertising it fails.
	if err := h.notifier.AddMarker(ctx, msg.Channel, msg.Timestamp, h.opts.MarkerReaction); err != nil {
		h.logger.WarnContext(ctx, "failed to add marker reaction", "source_message_id", id, "error", err)
	}
	if err := h.notifier.PostThread(ctx, msg.Channel, msg.ReplyThread(), application.PromptText(h.opts.OptInReaction)); err != nil {
		h.logger.WarnContext(ctx, "failed to post opt-in prompt", "source_message_id", id, "error", err)
	}

	return TrackOutcomeTracked, nil
}

func publishEvents(ctx context.Context, publisher application.EventPublisher, logger *slog.Logger, record *domain.MeetingRecord) {
	defer record.ClearDomainEvents()
	if publisher == nil {
		return
	}
	for _, event := range record.DomainEvents() {
		if err := publisher.PublishDomainEvent(ctx, event); err != nil {
			logger.WarnContext(ctx, "failed to publish domain event",
				"routing_key", event.RoutingKey(),
				"error", err,
			)
		}
	}
}
