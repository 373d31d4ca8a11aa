// Package linkparser recognizes meeting-invitation links in chat text.
package linkparser

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/domain"
)

// Defaults for Microsoft Teams meetup-join links.
const (
	DefaultPattern = `https://teams\.microsoft\.com/l/meetup-join/\S+`
	DefaultParam   = "meetingId"
)

// Characters that end a URL inside chat markup such as <url|label>.
const linkTerminators = "<>|"

var (
	ErrEmptyPattern = errors.New("link pattern cannot be empty")
	ErrEmptyParam   = errors.New("meeting id parameter cannot be empty")
)

// QueryParamParser matches links with a regular expression and reads the
// meeting identifier from a named query parameter.
type QueryParamParser struct {
	pattern *regexp.Regexp
	param   string
}

var _ domain.LinkParser = (*QueryParamParser)(nil)

// NewQueryParamParser compiles pattern and returns a parser reading param.
// Matching is case-insensitive.
func NewQueryParamParser(pattern, param string) (*QueryParamParser, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, ErrEmptyPattern
	}
	if strings.TrimSpace(param) == "" {
		return nil, ErrEmptyParam
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("compile link pattern: %w", err)
	}
	return &QueryParamParser{pattern: re, param: param}, nil
}

// NewTeamsParser returns a parser for the default Teams link convention.
func NewTeamsParser() *QueryParamParser {
	p, err := NewQueryParamParser(DefaultPattern, DefaultParam)
	if err != nil {
		panic(err)
	}
	return p
}

// Param returns the query parameter holding the meeting id.
func (p *QueryParamParser) Param() string { return p.param }

// Parse finds the first link in text and extracts its meeting id.
func (p *QueryParamParser) Parse(text string) (*domain.MeetingLink, error) {
	loc := p.pattern.FindStringIndex(text)
	if loc == nil {
		return nil, nil
	}

	link := text[loc[0]:loc[1]]
	if i := strings.IndexAny(link, linkTerminators); i >= 0 {
		link = link[:i]
	}

	meetingID, err := ExtractMeetingID(link, p.param)
	if err != nil {
		return nil, err
	}
	return &domain.MeetingLink{URL: link, MeetingID: meetingID}, nil
}

// ExtractMeetingID reads param from the query string of link. It returns an
// error wrapping domain.ErrUnparseableLink for anything that is not an
// absolute URL carrying a usable value for param.
func ExtractMeetingID(link, param string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnparseableLink, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: not an absolute url", domain.ErrUnparseableLink)
	}
	id := strings.TrimSpace(u.Query().Get(param))
	if id == "" {
		return "", fmt.Errorf("%w: missing %q parameter", domain.ErrUnparseableLink, param)
	}
	if err := domain.ValidateMeetingID(id); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnparseableLink, err)
	}
	return id, nil
}
