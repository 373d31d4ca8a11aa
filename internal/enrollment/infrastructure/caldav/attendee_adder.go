// Package caldav adds attendees to events stored on a CalDAV server.
package caldav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/domain"
)

const defaultTimeout = 15 * time.Second

// ErrNoEvent is returned when a calendar object holds no VEVENT.
var ErrNoEvent = errors.New("calendar object has no event")

// Config configures the CalDAV attendee adder.
type Config struct {
	URL      string
	Username string
	Password string
	// CalendarPath is the collection holding meeting events. When empty the
	// first calendar of the current user principal is used.
	CalendarPath string
	Timeout      time.Duration
}

// AttendeeAdder adds attendees to events addressed as <calendar path><meeting id>.ics.
type AttendeeAdder struct {
	client *caldav.Client
	logger *slog.Logger

	mu           sync.Mutex
	calendarPath string
}

// NewAttendeeAdder creates a CalDAV attendee adder using basic auth.
func NewAttendeeAdder(cfg Config, logger *slog.Logger) (*AttendeeAdder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	authClient := webdav.HTTPClientWithBasicAuth(httpClient, cfg.Username, cfg.Password)
	client, err := caldav.NewClient(conditionalClient{next: authClient}, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	return &AttendeeAdder{
		client:       client,
		logger:       logger,
		calendarPath: normalizeCollection(cfg.CalendarPath),
	}, nil
}

// AddAttendee adds email as a required participant to the event meetingID.
func (a *AttendeeAdder) AddAttendee(ctx context.Context, meetingID, email string) error {
	if meetingID == "" || email == "" {
		return fmt.Errorf("%w: meeting id and email are required", application.ErrAttendeeAdd)
	}
	if err := domain.ValidateMeetingID(meetingID); err != nil {
		return fmt.Errorf("%w: %q: %v", application.ErrAttendeeAdd, meetingID, err)
	}

	calPath, err := a.resolveCalendarPath(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", application.ErrAttendeeAdd, err)
	}
	eventPath := calPath + meetingID + ".ics"

	obj, err := a.client.GetCalendarObject(ctx, eventPath)
	if err != nil {
		return fmt.Errorf("%w: get %s: %v", application.ErrAttendeeAdd, eventPath, err)
	}

	changed, err := AddAttendee(obj.Data, email)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", application.ErrAttendeeAdd, eventPath, err)
	}
	if !changed {
		a.logger.DebugContext(ctx, "attendee already on event", "path", eventPath)
		return nil
	}

	// The PUT only succeeds against the version just read.
	if _, err := a.client.PutCalendarObject(withIfMatch(ctx, obj.ETag), eventPath, obj.Data); err != nil {
		return fmt.Errorf("%w: put %s: %v", application.ErrAttendeeAdd, eventPath, err)
	}
	return nil
}

func (a *AttendeeAdder) resolveCalendarPath(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.calendarPath != "" {
		return a.calendarPath, nil
	}

	principal, err := a.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal: %w", err)
	}
	homeSet, err := a.client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}
	cals, err := a.client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}
	if len(cals) == 0 {
		return "", fmt.Errorf("no calendars found")
	}

	a.calendarPath = normalizeCollection(cals[0].Path)
	return a.calendarPath, nil
}

type ifMatchKey struct{}

func withIfMatch(ctx context.Context, etag string) context.Context {
	if etag == "" {
		return ctx
	}
	return context.WithValue(ctx, ifMatchKey{}, etag)
}

// conditionalClient adds If-Match to PUT requests whose context carries an
// ETag. The caldav client has no option for it.
type conditionalClient struct {
	next webdav.HTTPClient
}

func (c conditionalClient) Do(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodPut {
		if etag, ok := req.Context().Value(ifMatchKey{}).(string); ok {
			req.Header.Set("If-Match", strconv.Quote(etag))
		}
	}
	return c.next.Do(req)
}

func normalizeCollection(path string) string {
	if path == "" || strings.HasSuffix(path, "/") {
		return path
	}
	return path + "/"
}

// AddAttendee appends an ATTENDEE with ROLE=REQ-PARTICIPANT to the first
// VEVENT of cal. It reports false when the address is already present.
func AddAttendee(cal *ical.Calendar, email string) (bool, error) {
	if cal == nil {
		return false, ErrNoEvent
	}

	var event *ical.Component
	for _, child := range cal.Children {
		if child.Name == ical.CompEvent {
			event = child
			break
		}
	}
	if event == nil {
		return false, ErrNoEvent
	}

	for _, prop := range event.Props[ical.PropAttendee] {
		if strings.EqualFold(mailtoAddress(prop.Value), email) {
			return false, nil
		}
	}

	event.Props[ical.PropAttendee] = append(event.Props[ical.PropAttendee], ical.Prop{
		Name:   ical.PropAttendee,
		Params: ical.Params{ical.ParamRole: []string{"REQ-PARTICIPANT"}},
		Value:  "mailto:" + email,
	})
	return true, nil
}

func mailtoAddress(value string) string {
	if len(value) >= 7 && strings.EqualFold(value[:7], "mailto:") {
		return value[7:]
	}
	return value
}
