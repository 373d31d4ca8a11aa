// Package dispatch fans inbound chat events out to the enrollment handlers.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application/commands"
	"github.com/felixgeelhaar/meetbridge/pkg/observability"
)

const (
	EventTypeMessage  = "message"
	EventTypeReaction = "reaction_added"
)

// MessageHandler handles new chat messages.
type MessageHandler interface {
	Handle(ctx context.Context, cmd commands.TrackMeetingLinkCommand) (commands.TrackOutcome, error)
}

// ReactionHandler handles reactions on chat messages.
type ReactionHandler interface {
	Handle(ctx context.Context, cmd commands.EnrollParticipantCommand) (commands.EnrollOutcome, error)
}

// Router runs every inbound event on its own goroutine. A failing or
// panicking handler is logged and never affects other events.
type Router struct {
	messages  MessageHandler
	reactions ReactionHandler
	metrics   observability.Metrics
	logger    *slog.Logger
	wg        sync.WaitGroup
}

// NewRouter creates a new Router.
func NewRouter(messages MessageHandler, reactions ReactionHandler, metrics observability.Metrics, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &Router{
		messages:  messages,
		reactions: reactions,
		metrics:   metrics,
		logger:    logger,
	}
}

// OnMessage schedules msg for link detection.
func (r *Router) OnMessage(ctx context.Context, msg application.ChatMessage) {
	r.spawn(ctx, EventTypeMessage, func(ctx context.Context) (string, error) {
		outcome, err := r.messages.Handle(ctx, commands.TrackMeetingLinkCommand{Message: msg})
		return string(outcome), err
	})
}

// OnReaction schedules reaction for enrollment.
func (r *Router) OnReaction(ctx context.Context, reaction application.ReactionAdded) {
	r.spawn(ctx, EventTypeReaction, func(ctx context.Context) (string, error) {
		outcome, err := r.reactions.Handle(ctx, commands.EnrollParticipantCommand{Reaction: reaction})
		return string(outcome), err
	})
}

// Wait blocks until all scheduled events have been handled.
func (r *Router) Wait() {
	r.wg.Wait()
}

func (r *Router) spawn(parent context.Context, eventType string, run func(ctx context.Context) (string, error)) {
	// Handlers outlive the transport callback that delivered the event.
	ctx := context.WithoutCancel(parent)
	if observability.CorrelationIDFromContext(ctx) == "" {
		ctx = observability.WithCorrelationID(ctx, "")
	}
	ctx = observability.WithEventType(ctx, eventType)

	r.metrics.Counter(observability.MetricChatEvents, 1, observability.T(observability.EventTypeKey, eventType))

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx, eventType, run)
	}()
}

func (r *Router) run(ctx context.Context, eventType string, run func(ctx context.Context) (string, error)) {
	timer := observability.StartTimer(eventType).WithMetrics(r.metrics).WithLogger(r.logger)
	outcome := "error"

	defer func() {
		if rec := recover(); rec != nil {
			outcome = "panic"
			r.metrics.Counter(observability.MetricHandlerPanics, 1, observability.T(observability.EventTypeKey, eventType))
			r.logger.ErrorContext(ctx, "event handler panicked",
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
		}
		timer.Stop(outcome)
	}()

	result, err := run(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "event handler failed", "error", err)
		return
	}
	outcome = result
}
