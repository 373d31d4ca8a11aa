package slack

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/meetbridge/pkg/observability"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

const maxEventBody = 1 << 20

// EventsHandler serves the HTTP Events API endpoint. Requests must carry a
// valid signing-secret signature.
type EventsHandler struct {
	signingSecret string
	sink          EventSink
	logger        *slog.Logger
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(signingSecret string, sink EventSink, logger *slog.Logger) *EventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsHandler{
		signingSecret: signingSecret,
		sink:          sink,
		logger:        logger.With("transport", "events_api"),
	}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	verifier, err := slack.NewSecretsVerifier(r.Header, h.signingSecret)
	if err != nil {
		h.logger.WarnContext(r.Context(), "missing or stale signature headers", "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if _, err := verifier.Write(body); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := verifier.Ensure(); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request signature")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		h.logger.WarnContext(r.Context(), "failed to parse event", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if event.Type == slackevents.URLVerification {
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, challenge.Challenge)
		return
	}

	// Events are acknowledged before handling; a retry repeats one already dispatched.
	if retry := r.Header.Get("X-Slack-Retry-Num"); retry != "" {
		h.logger.InfoContext(r.Context(), "ignoring slack retry",
			"retry", retry,
			"reason", r.Header.Get("X-Slack-Retry-Reason"),
		)
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := observability.WithCorrelationID(r.Context(), observability.RequestIDFromContext(r.Context()))
	deliver(ctx, h.sink, event)
	w.WriteHeader(http.StatusOK)
}
