// Package slack connects the enrollment handlers to Slack: inbound events
// over Socket Mode or the HTTP Events API, outbound messages and profile
// lookups over the Web API.
package slack

import (
	"context"
	"net/http"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application"
	"github.com/slack-go/slack"
)

// EventSink receives chat-neutral events decoded from Slack payloads.
type EventSink interface {
	OnMessage(ctx context.Context, msg application.ChatMessage)
	OnReaction(ctx context.Context, reaction application.ReactionAdded)
}

// ClientConfig configures the Web API client.
type ClientConfig struct {
	BotToken string
	// AppToken enables Socket Mode.
	AppToken string
	// APIURL overrides https://slack.com/api/ and must end with a slash.
	APIURL     string
	HTTPClient *http.Client
}

// NewClient creates a Web API client.
func NewClient(cfg ClientConfig) *slack.Client {
	var opts []slack.Option
	if cfg.AppToken != "" {
		opts = append(opts, slack.OptionAppLevelToken(cfg.AppToken))
	}
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, slack.OptionHTTPClient(cfg.HTTPClient))
	}
	return slack.New(cfg.BotToken, opts...)
}

// AuthCheck verifies the bot token. It satisfies the readiness checker
// signature.
func AuthCheck(api *slack.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := api.AuthTestContext(ctx)
		return err
	}
}
