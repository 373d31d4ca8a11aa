package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/domain"
)

// EnrollOutcome describes what happened to an opt-in reaction.
type EnrollOutcome string

const (
	EnrollOutcomeUntracked       EnrollOutcome = "untracked"
	EnrollOutcomeOtherReaction   EnrollOutcome = "other_reaction"
	EnrollOutcomeAlreadyEnrolled EnrollOutcome = "already_enrolled"
	EnrollOutcomeNoContact       EnrollOutcome = "no_contact"
	EnrollOutcomeFailed          EnrollOutcome = "failed"
	EnrollOutcomeEnrolled        EnrollOutcome = "enrolled"
)

// EnrollParticipantCommand carries a reaction on a chat message.
type EnrollParticipantCommand struct {
	Reaction application.ReactionAdded
}

// EnrollParticipantHandler adds users who opt in on a tracked message to the
// remote meeting and records them as participants.
type EnrollParticipantHandler struct {
	store     domain.Store
	directory application.Directory
	attendees application.AttendeeAdder
	notifier  application.Notifier
	publisher application.EventPublisher
	optIn     string
	locks     *recordLocks
	logger    *slog.Logger
}

// NewEnrollParticipantHandler creates a new EnrollParticipantHandler.
func NewEnrollParticipantHandler(
	store domain.Store,
	directory application.Directory,
	attendees application.AttendeeAdder,
	notifier application.Notifier,
	publisher application.EventPublisher,
	optInReaction string,
	logger *slog.Logger,
) *EnrollParticipantHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrollParticipantHandler{
		store:     store,
		directory: directory,
		attendees: attendees,
		notifier:  notifier,
		publisher: publisher,
		optIn:     optInReaction,
		locks:     newRecordLocks(),
		logger:    logger,
	}
}

// Handle executes the EnrollParticipantCommand.
//
// The participant set is only written after the remote calendar accepted the
// attendee. Work on a single record is serialized, so a user reacting twice
// in quick succession causes one remote call.
func (h *EnrollParticipantHandler) Handle(ctx context.Context, cmd EnrollParticipantCommand) (EnrollOutcome, error) {
	reaction := cmd.Reaction
	id := domain.NewMessageID(reaction.Channel, reaction.Timestamp)

	if _, err := h.store.Get(ctx, id); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return EnrollOutcomeUntracked, nil
		}
		return "", fmt.Errorf("load meeting record: %w", err)
	}
	if reaction.Reaction != h.optIn {
		return EnrollOutcomeOtherReaction, nil
	}

	release, err := h.locks.acquire(ctx, id)
	if err != nil {
		return "", err
	}
	defer release()

	// Reload under the lock to observe enrollments that finished while waiting.
	record, err := h.store.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("load meeting record: %w", err)
	}

	logger := h.logger.With(
		"source_message_id", id,
		"meeting_id", record.MeetingID(),
		"user_id", reaction.UserID,
	)

	if record.HasParticipant(reaction.UserID) {
		h.ephemeral(ctx, logger, reaction, application.MsgAlreadyAdded)
		return EnrollOutcomeAlreadyEnrolled, nil
	}

	email, err := h.directory.ContactAddress(ctx, reaction.UserID)
	if err != nil {
		logger.InfoContext(ctx, "contact address unavailable", "error", err)
		h.ephemeral(ctx, logger, reaction, application.MsgNoEmail)
		return EnrollOutcomeNoContact, nil
	}

	if err := h.attendees.AddAttendee(ctx, record.MeetingID(), email); err != nil {
		logger.ErrorContext(ctx, "failed to add attendee", "error", err)
		if h.publisher != nil {
			if pubErr := h.publisher.PublishDomainEvent(ctx, domain.NewEnrollmentFailed(record, reaction.UserID, err)); pubErr != nil {
				logger.WarnContext(ctx, "failed to publish domain event", "error", pubErr)
			}
		}
		h.ephemeral(ctx, logger, reaction, application.MsgAddFailed)
		return EnrollOutcomeFailed, nil
	}

	if err := record.AddParticipant(reaction.UserID); err != nil {
		return "", err
	}
	if err := h.store.AddParticipant(ctx, id, reaction.UserID); err != nil && !errors.Is(err, domain.ErrAlreadyParticipant) {
		return "", fmt.Errorf("record participant: %w", err)
	}
	publishEvents(ctx, h.publisher, logger, record)

	logger.InfoContext(ctx, "participant enrolled", "participants", record.ParticipantCount())

	if err := h.notifier.PostThread(ctx, record.Channel(), record.ThreadTS(), application.AddedAnnouncement(reaction.UserID)); err != nil {
		logger.WarnContext(ctx, "failed to announce enrollment", "error", err)
	}
	if err := h.notifier.PostDirect(ctx, reaction.UserID, application.AddedDirectMessage(record.MeetingLink())); err != nil {
		logger.WarnContext(ctx, "failed to send meeting link", "error", err)
	}

	return EnrollOutcomeEnrolled, nil
}

func (h *EnrollParticipantHandler) ephemeral(ctx context.Context, logger *slog.Logger, reaction application.ReactionAdded, text string) {
	if err := h.notifier.PostEphemeral(ctx, reaction.Channel, reaction.UserID, text); err != nil {
		logger.WarnContext(ctx, "failed to post ephemeral message", "error", err)
	}
}
