package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application/commands"
	"github.com/felixgeelhaar/meetbridge/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMessages struct {
	mu       sync.Mutex
	seen     []commands.TrackMeetingLinkCommand
	corrIDs  []string
	outcome  commands.TrackOutcome
	err      error
	panicMsg string
}

func (s *stubMessages) Handle(ctx context.Context, cmd commands.TrackMeetingLinkCommand) (commands.TrackOutcome, error) {
	s.mu.Lock()
	s.seen = append(s.seen, cmd)
	s.corrIDs = append(s.corrIDs, observability.CorrelationIDFromContext(ctx))
	s.mu.Unlock()
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.outcome, s.err
}

type stubReactions struct {
	mu      sync.Mutex
	seen    []commands.EnrollParticipantCommand
	ctxErrs []error
	outcome commands.EnrollOutcome
}

func (s *stubReactions) Handle(ctx context.Context, cmd commands.EnrollParticipantCommand) (commands.EnrollOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, cmd)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	return s.outcome, nil
}

func TestRouter_DispatchesEvents(t *testing.T) {
	messages := &stubMessages{outcome: commands.TrackOutcomeTracked}
	reactions := &stubReactions{outcome: commands.EnrollOutcomeEnrolled}
	metrics := observability.NewInMemoryMetrics()
	router := NewRouter(messages, reactions, metrics, nil)

	ctx := context.Background()
	router.OnMessage(ctx, application.ChatMessage{Channel: "C1", Timestamp: "1.0", Text: "hi"})
	router.OnReaction(ctx, application.ReactionAdded{Channel: "C1", Timestamp: "1.0", UserID: "U", Reaction: "raised_hand"})
	router.Wait()

	require.Len(t, messages.seen, 1)
	assert.Equal(t, "hi", messages.seen[0].Message.Text)
	assert.NotEmpty(t, messages.corrIDs[0])
	require.Len(t, reactions.seen, 1)
	assert.Equal(t, "U", reactions.seen[0].Reaction.UserID)

	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricChatEvents, observability.T(observability.EventTypeKey, EventTypeMessage)))
	assert.Equal(t, int64(1), metrics.GetTimingCount(observability.MetricHandlerDuration,
		observability.T("operation", EventTypeReaction),
		observability.T(observability.OutcomeKey, string(commands.EnrollOutcomeEnrolled)),
	))
}

func TestRouter_KeepsCorrelationID(t *testing.T) {
	messages := &stubMessages{}
	router := NewRouter(messages, &stubReactions{}, nil, nil)

	router.OnMessage(observability.WithCorrelationID(context.Background(), "envelope-1"), application.ChatMessage{})
	router.Wait()

	assert.Equal(t, []string{"envelope-1"}, messages.corrIDs)
}

func TestRouter_RecoversPanics(t *testing.T) {
	messages := &stubMessages{panicMsg: "boom"}
	reactions := &stubReactions{outcome: commands.EnrollOutcomeEnrolled}
	metrics := observability.NewInMemoryMetrics()
	router := NewRouter(messages, reactions, metrics, nil)

	ctx := context.Background()
	router.OnMessage(ctx, application.ChatMessage{Text: "first"})
	router.OnReaction(ctx, application.ReactionAdded{UserID: "U"})
	router.Wait()

	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricHandlerPanics, observability.T(observability.EventTypeKey, EventTypeMessage)))
	assert.Len(t, reactions.seen, 1)
}

func TestRouter_HandlerErrorIsContained(t *testing.T) {
	messages := &stubMessages{err: errors.New("store offline")}
	metrics := observability.NewInMemoryMetrics()
	router := NewRouter(messages, &stubReactions{}, metrics, nil)

	router.OnMessage(context.Background(), application.ChatMessage{})
	router.Wait()

	assert.Equal(t, int64(1), metrics.GetTimingCount(observability.MetricHandlerDuration,
		observability.T("operation", EventTypeMessage),
		observability.T(observability.OutcomeKey, "error"),
	))
}

func TestRouter_HandlersOutliveDeliveryContext(t *testing.T) {
	reactions := &stubReactions{}
	router := NewRouter(&stubMessages{}, reactions, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	router.OnReaction(ctx, application.ReactionAdded{UserID: "U"})
	cancel()
	router.Wait()

	require.Len(t, reactions.ctxErrs, 1)
	assert.NoError(t, reactions.ctxErrs[0])
}

func TestRouter_ManyConcurrentEvents(t *testing.T) {
	reactions := &stubReactions{}
	router := NewRouter(&stubMessages{}, reactions, nil, nil)

	for i := 0; i < 50; i++ {
		router.OnReaction(context.Background(), application.ReactionAdded{UserID: "U"})
	}
	router.Wait()

	assert.Len(t, reactions.seen, 50)
}
