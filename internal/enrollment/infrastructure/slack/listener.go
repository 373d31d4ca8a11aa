package slack

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/meetbridge/pkg/observability"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

// SocketModeListener receives events over a Socket Mode websocket.
type SocketModeListener struct {
	client *socketmode.Client
	sink   EventSink
	logger *slog.Logger
}

// NewSocketModeListener creates a listener. api must carry an app-level token.
func NewSocketModeListener(api *slack.Client, sink EventSink, logger *slog.Logger) *SocketModeListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &SocketModeListener{
		client: socketmode.New(api),
		sink:   sink,
		logger: logger.With("transport", "socket_mode"),
	}
}

// Run connects and processes events until ctx is cancelled.
func (l *SocketModeListener) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- l.client.RunContext(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("socket mode: %w", err)
		case evt, ok := <-l.client.Events:
			if !ok {
				return nil
			}
			l.handle(ctx, evt)
		}
	}
}

func (l *SocketModeListener) handle(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		l.logger.InfoContext(ctx, "connecting to slack")
	case socketmode.EventTypeConnected:
		l.logger.InfoContext(ctx, "connected to slack")
	case socketmode.EventTypeConnectionError:
		l.logger.WarnContext(ctx, "slack connection error", "data", evt.Data)
	case socketmode.EventTypeEventsAPI:
		event, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			l.logger.WarnContext(ctx, "unexpected events api payload")
			return
		}
		var envelopeID string
		if evt.Request != nil {
			l.client.Ack(*evt.Request)
			envelopeID = evt.Request.EnvelopeID
		}
		deliver(observability.WithCorrelationID(ctx, envelopeID), l.sink, event)
	default:
		l.logger.DebugContext(ctx, "ignored socket mode event", "type", evt.Type)
	}
}
