package application

import "fmt"

// User-facing texts.
const (
	MsgUnparseableLink = "Couldn't parse the meeting link."
	MsgAlreadyAdded    = "You're already added to this meeting!"
	MsgNoEmail         = "Couldn't find your email address. Make sure your Slack profile has an email set."
	MsgAddFailed       = "Sorry, there was a problem adding you to the meeting. Please try again or contact the meeting organizer."
)

// PromptText invites users to react with optIn to join.
func PromptText(optIn string) string {
	return fmt.Sprintf("I've detected a meeting link! React with :%s: to be added to this meeting.", optIn)
}

// AddedAnnouncement is posted in thread after a successful enrollment.
func AddedAnnouncement(userID string) string {
	return fmt.Sprintf("<@%s> has been added to the meeting!", userID)
}

// AddedDirectMessage is sent privately with the meeting link.
func AddedDirectMessage(link string) string {
	return fmt.Sprintf("You've been added to a meeting. Here's the link: %s", link)
}
