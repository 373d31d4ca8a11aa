package domain

import (
	"errors"
	"strings"
)

var (
	// ErrUnparseableLink is returned when text contains a meeting link whose
	// meeting identifier cannot be extracted.
	ErrUnparseableLink = errors.New("meeting link could not be parsed")

	// ErrInvalidMeetingID is returned for identifiers that cannot address a
	// single calendar event.
	ErrInvalidMeetingID = errors.New("invalid meeting id")
)

// ValidateMeetingID rejects identifiers that would leave the event
// collection when used as a path segment: separators, dot segments and
// control characters.
func ValidateMeetingID(id string) error {
	switch {
	case id == "":
		return ErrInvalidMeetingID
	case id == "." || id == "..":
		return ErrInvalidMeetingID
	case strings.ContainsAny(id, "/\\"):
		return ErrInvalidMeetingID
	case strings.IndexFunc(id, func(r rune) bool { return r < 0x20 || r == 0x7f }) >= 0:
		return ErrInvalidMeetingID
	}
	return nil
}

// MeetingLink is a recognized meeting-invitation URL and the provider
// identifier embedded in it.
type MeetingLink struct {
	URL       string
	MeetingID string
}

// LinkParser finds meeting links in free text.
//
// Parse returns (nil, nil) when the text holds no meeting link, and an error
// wrapping ErrUnparseableLink when a link matched but yielded no identifier.
// Only the first link in the text is considered.
type LinkParser interface {
	Parse(text string) (*MeetingLink, error)
}
