// Package graph adds attendees to Microsoft Graph calendar events using
// application (client-credential) tokens.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"
	DefaultScope   = "https://graph.microsoft.com/.default"
	defaultTimeout = 15 * time.Second
)

// TokenURL returns the v2.0 token endpoint for tenantID.
func TokenURL(tenantID string) string {
	return fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", url.PathEscape(tenantID))
}

// Config configures the Graph attendee adder.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// CalendarUser owns the events. Empty means /me.
	CalendarUser string
	// TokenURL overrides the tenant token endpoint.
	TokenURL string
	Timeout  time.Duration
}

// AttendeeAdder adds attendees to existing Graph events.
type AttendeeAdder struct {
	client  *http.Client
	baseURL string
	owner   string
	logger  *slog.Logger
}

// NewAttendeeAdder creates an adder that authenticates with client credentials.
func NewAttendeeAdder(cfg Config, logger *slog.Logger) *AttendeeAdder {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = TokenURL(cfg.TenantID)
	}
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{DefaultScope},
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeoutOrDefault(cfg.Timeout)})
	return NewAttendeeAdderWithTokenSource(cc.TokenSource(tokenCtx), cfg, logger)
}

// NewAttendeeAdderWithTokenSource creates an adder using source for bearer tokens.
func NewAttendeeAdderWithTokenSource(source oauth2.TokenSource, cfg Config, logger *slog.Logger) *AttendeeAdder {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	owner := "me"
	if cfg.CalendarUser != "" {
		owner = "users/" + url.PathEscape(cfg.CalendarUser)
	}
	return &AttendeeAdder{
		client: &http.Client{
			Timeout: timeoutOrDefault(cfg.Timeout),
			Transport: &oauthTransport{
				base:   http.DefaultTransport,
				source: source,
			},
		},
		baseURL: baseURL,
		owner:   owner,
		logger:  logger,
	}
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultTimeout
	}
	return d
}

type emailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type attendee struct {
	EmailAddress emailAddress `json:"emailAddress"`
	Type         string       `json:"type,omitempty"`
}

// AddAttendee adds email as a required attendee of the event meetingID.
// Existing attendees are preserved and an address already present is left
// untouched.
func (a *AttendeeAdder) AddAttendee(ctx context.Context, meetingID, email string) error {
	if meetingID == "" || email == "" {
		return fmt.Errorf("%w: meeting id and email are required", application.ErrAttendeeAdd)
	}
	if err := domain.ValidateMeetingID(meetingID); err != nil {
		return fmt.Errorf("%w: %q: %v", application.ErrAttendeeAdd, meetingID, err)
	}

	existing, etag, err := a.getAttendees(ctx, meetingID)
	if err != nil {
		return err
	}

	for _, att := range existing {
		if strings.EqualFold(att.EmailAddress.Address, email) {
			a.logger.DebugContext(ctx, "attendee already on event", "meeting_id", meetingID)
			return nil
		}
	}

	attendees := append(existing, attendee{
		EmailAddress: emailAddress{Address: email},
		Type:         "required",
	})
	return a.patchAttendees(ctx, meetingID, etag, attendees)
}

func (a *AttendeeAdder) eventURL(meetingID string) string {
	return fmt.Sprintf("%s/%s/events/%s", a.baseURL, a.owner, url.PathEscape(meetingID))
}

// getAttendees returns the event's attendees and the ETag of the version read.
func (a *AttendeeAdder) getAttendees(ctx context.Context, meetingID string) ([]attendee, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.eventURL(meetingID)+"?$select=attendees", nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", application.ErrAttendeeAdd, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: get event: %v", application.ErrAttendeeAdd, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", responseError(resp)
	}

	var payload struct {
		ETag      string     `json:"@odata.etag"`
		Attendees []attendee `json:"attendees"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", fmt.Errorf("%w: decode event: %v", application.ErrAttendeeAdd, err)
	}
	for i := range payload.Attendees {
		if payload.Attendees[i].Type == "" {
			payload.Attendees[i].Type = "required"
		}
	}
	etag := payload.ETag
	if etag == "" {
		etag = resp.Header.Get("ETag")
	}
	return payload.Attendees, etag, nil
}

// patchAttendees replaces the attendee list. A non-empty etag makes the
// update conditional, so a concurrent edit fails with 412.
func (a *AttendeeAdder) patchAttendees(ctx context.Context, meetingID, etag string, attendees []attendee) error {
	body, err := json.Marshal(map[string]any{"attendees": attendees})
	if err != nil {
		return fmt.Errorf("%w: %v", application.ErrAttendeeAdd, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, a.eventURL(meetingID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", application.ErrAttendeeAdd, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if etag != "" {
		req.Header.Set("If-Match", etag)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: patch event: %v", application.ErrAttendeeAdd, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("%w: graph status=%d body=%s", application.ErrAttendeeAdd, resp.StatusCode, string(body))
}

type oauthTransport struct {
	base   http.RoundTripper
	source oauth2.TokenSource
}

func (t *oauthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.source.Token()
	if err != nil {
		return nil, fmt.Errorf("acquire token: %w", err)
	}
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	return t.base.RoundTrip(req)
}
