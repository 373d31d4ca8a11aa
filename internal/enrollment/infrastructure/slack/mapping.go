package slack

import (
	"context"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application"
	"github.com/slack-go/slack/slackevents"
)

// linkMarkup matches <url> and <url|label> in message text.
var linkMarkup = regexp.MustCompile(`<((?:https?|mailto):[^<>|]+)(?:\|[^<>]*)?>`)

var entities = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">")

// UnwrapText turns Slack message markup back into plain text so link
// parsers see raw URLs.
func UnwrapText(text string) string {
	text = linkMarkup.ReplaceAllString(text, "$1")
	return entities.Replace(text)
}

// baseReaction drops the skin tone modifier Slack appends for users with a
// default tone, e.g. raised_hand::skin-tone-3.
func baseReaction(name string) string {
	if i := strings.Index(name, "::skin-tone-"); i > 0 {
		return name[:i]
	}
	return name
}

// deliver hands a decoded callback to sink. It reports whether the event
// was one the enrollment flow cares about.
func deliver(ctx context.Context, sink EventSink, event slackevents.EventsAPIEvent) bool {
	msg, reaction := toChatEvent(event)
	switch {
	case msg != nil:
		sink.OnMessage(ctx, *msg)
	case reaction != nil:
		sink.OnReaction(ctx, *reaction)
	default:
		return false
	}
	return true
}

func toChatEvent(event slackevents.EventsAPIEvent) (*application.ChatMessage, *application.ReactionAdded) {
	if event.Type != slackevents.CallbackEvent {
		return nil, nil
	}

	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		// Edits, deletes, joins and bot posts carry a subtype or bot id.
		if ev.SubType != "" || ev.BotID != "" || ev.User == "" {
			return nil, nil
		}
		return &application.ChatMessage{
			Channel:   ev.Channel,
			Timestamp: ev.TimeStamp,
			ThreadTS:  ev.ThreadTimeStamp,
			UserID:    ev.User,
			Text:      UnwrapText(ev.Text),
		}, nil
	case *slackevents.ReactionAddedEvent:
		if ev.Item.Type != "" && ev.Item.Type != "message" {
			return nil, nil
		}
		return nil, &application.ReactionAdded{
			Channel:   ev.Item.Channel,
			Timestamp: ev.Item.Timestamp,
			UserID:    ev.User,
			Reaction:  baseReaction(ev.Reaction),
		}
	}
	return nil, nil
}
