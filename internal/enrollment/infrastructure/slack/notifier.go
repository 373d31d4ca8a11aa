package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
)

// Notifier posts enrollment feedback through the Web API.
type Notifier struct {
	api *slack.Client
}

// NewNotifier creates a Notifier.
func NewNotifier(api *slack.Client) *Notifier {
	return &Notifier{api: api}
}

// PostThread posts text as a reply in the thread rooted at threadTS.
func (n *Notifier) PostThread(ctx context.Context, channel, threadTS, text string) error {
	_, _, err := n.api.PostMessageContext(ctx, channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionTS(threadTS),
	)
	if err != nil {
		return fmt.Errorf("chat.postMessage: %w", err)
	}
	return nil
}

// PostEphemeral posts text visible only to userID.
func (n *Notifier) PostEphemeral(ctx context.Context, channel, userID, text string) error {
	_, err := n.api.PostEphemeralContext(ctx, channel, userID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("chat.postEphemeral: %w", err)
	}
	return nil
}

// PostDirect sends text to the user's direct-message channel.
func (n *Notifier) PostDirect(ctx context.Context, userID, text string) error {
	_, _, err := n.api.PostMessageContext(ctx, userID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("chat.postMessage (direct): %w", err)
	}
	return nil
}

// AddMarker reacts to the message with name. A marker that is already
// present is not an error.
func (n *Notifier) AddMarker(ctx context.Context, channel, ts, name string) error {
	err := n.api.AddReactionContext(ctx, name, slack.NewRefToMessage(channel, ts))
	if err != nil && !strings.Contains(err.Error(), "already_reacted") {
		return fmt.Errorf("reactions.add: %w", err)
	}
	return nil
}
