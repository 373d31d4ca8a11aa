package caldav

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventCalendar(attendees ...string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//Example//Test//EN")

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, "42")
	event.Props.SetDateTime(ical.PropDateTimeStamp, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	event.Props.SetDateTime(ical.PropDateTimeStart, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	event.Props.SetText(ical.PropSummary, "Planning")
	for _, a := range attendees {
		event.Props[ical.PropAttendee] = append(event.Props[ical.PropAttendee], ical.Prop{
			Name:   ical.PropAttendee,
			Params: ical.Params{},
			Value:  a,
		})
	}
	cal.Children = append(cal.Children, event.Component)
	return cal
}

func attendeeValues(cal *ical.Calendar) []string {
	var out []string
	for _, child := range cal.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		for _, p := range child.Props[ical.PropAttendee] {
			out = append(out, p.Value)
		}
	}
	return out
}

func TestAddAttendee(t *testing.T) {
	t.Run("appends required participant", func(t *testing.T) {
		cal := newEventCalendar("mailto:org@x.com")

		changed, err := AddAttendee(cal, "u@x.com")

		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, []string{"mailto:org@x.com", "mailto:u@x.com"}, attendeeValues(cal))
		props := cal.Children[0].Props[ical.PropAttendee]
		assert.Equal(t, "REQ-PARTICIPANT", props[1].Params.Get(ical.ParamRole))
	})

	t.Run("is idempotent", func(t *testing.T) {
		cal := newEventCalendar()

		first, err := AddAttendee(cal, "u@x.com")
		require.NoError(t, err)
		second, err := AddAttendee(cal, "U@X.COM")
		require.NoError(t, err)

		assert.True(t, first)
		assert.False(t, second)
		assert.Equal(t, []string{"mailto:u@x.com"}, attendeeValues(cal))
	})

	t.Run("recognizes upper-case mailto", func(t *testing.T) {
		cal := newEventCalendar("MAILTO:u@x.com")

		changed, err := AddAttendee(cal, "u@x.com")

		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("calendar without event", func(t *testing.T) {
		cal := ical.NewCalendar()

		_, err := AddAttendee(cal, "u@x.com")
		assert.ErrorIs(t, err, ErrNoEvent)

		_, err = AddAttendee(nil, "u@x.com")
		assert.ErrorIs(t, err, ErrNoEvent)
	})
}

type fakeCalDAV struct {
	mu       sync.Mutex
	objects  map[string][]byte
	versions map[string]int
	puts     int
	user     string
	ifMatch  []string
	requests []string
	// afterGet runs once the GET response is written, before the lock is released.
	afterGet func(path string)
}

func newFakeCalDAV() *fakeCalDAV {
	return &fakeCalDAV{objects: map[string][]byte{}, versions: map[string]int{}}
}

func (f *fakeCalDAV) store(path string, data []byte) {
	f.objects[path] = data
	f.versions[path]++
}

func (f *fakeCalDAV) etag(path string) string {
	return `"` + strconv.Itoa(f.versions[path]) + `"`
}

func (f *fakeCalDAV) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, _, _ := r.BasicAuth()
	f.user = user
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	switch r.Method {
	case http.MethodGet:
		data, ok := f.objects[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", ical.MIMEType)
		w.Header().Set("ETag", f.etag(r.URL.Path))
		_, _ = w.Write(data)
		if f.afterGet != nil {
			f.afterGet(r.URL.Path)
		}
	case http.MethodPut:
		match := r.Header.Get("If-Match")
		f.ifMatch = append(f.ifMatch, match)
		if match != "" && match != f.etag(r.URL.Path) {
			w.WriteHeader(http.StatusPreconditionFailed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.store(r.URL.Path, body)
		f.puts++
		w.Header().Set("ETag", f.etag(r.URL.Path))
		w.WriteHeader(http.StatusCreated)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func encode(t *testing.T, cal *ical.Calendar) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, ical.NewEncoder(&buf).Encode(cal))
	return buf.Bytes()
}

func TestAttendeeAdder_AddAttendee(t *testing.T) {
	fake := newFakeCalDAV()
	fake.store("/cal/team/42.ics", encode(t, newEventCalendar("mailto:org@x.com")))
	srv := httptest.NewServer(fake)
	defer srv.Close()

	adder, err := NewAttendeeAdder(Config{
		URL:          srv.URL,
		Username:     "bot",
		Password:     "secret",
		CalendarPath: "/cal/team",
	}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, adder.AddAttendee(ctx, "42", "u@x.com"))
	require.NoError(t, adder.AddAttendee(ctx, "42", "u@x.com"))

	assert.Equal(t, 1, fake.puts)
	assert.Equal(t, []string{`"1"`}, fake.ifMatch)
	assert.Equal(t, "bot", fake.user)
	stored := string(fake.objects["/cal/team/42.ics"])
	assert.Contains(t, stored, "mailto:u@x.com")
	assert.Contains(t, stored, "REQ-PARTICIPANT")
	assert.Equal(t, 2, strings.Count(stored, "ATTENDEE"))
}

func TestAttendeeAdder_MissingEvent(t *testing.T) {
	fake := newFakeCalDAV()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	adder, err := NewAttendeeAdder(Config{URL: srv.URL, CalendarPath: "/cal/team/"}, nil)
	require.NoError(t, err)

	err = adder.AddAttendee(context.Background(), "missing", "u@x.com")

	assert.ErrorIs(t, err, application.ErrAttendeeAdd)
	assert.Equal(t, 0, fake.puts)
}

func TestAttendeeAdder_RejectsIDsOutsideCollection(t *testing.T) {
	fake := newFakeCalDAV()
	fake.store("/boss/private/secret.ics", encode(t, newEventCalendar("mailto:boss@x.com")))
	srv := httptest.NewServer(fake)
	defer srv.Close()

	adder, err := NewAttendeeAdder(Config{URL: srv.URL, CalendarPath: "/cal/team/"}, nil)
	require.NoError(t, err)

	for _, id := range []string{"../../boss/private/secret", "..", ".", `..\secret`} {
		err := adder.AddAttendee(context.Background(), id, "intruder@x.com")
		assert.ErrorIs(t, err, application.ErrAttendeeAdd, id)
	}

	assert.Empty(t, fake.requests)
	assert.NotContains(t, string(fake.objects["/boss/private/secret.ics"]), "intruder@x.com")
}

func TestAttendeeAdder_ConcurrentEditIsNotOverwritten(t *testing.T) {
	fake := newFakeCalDAV()
	fake.store("/cal/team/42.ics", encode(t, newEventCalendar("mailto:org@x.com")))
	organizerEdit := encode(t, newEventCalendar("mailto:org@x.com", "mailto:guest@x.com"))
	fake.afterGet = func(path string) {
		fake.store(path, organizerEdit)
		fake.afterGet = nil
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	adder, err := NewAttendeeAdder(Config{URL: srv.URL, CalendarPath: "/cal/team/"}, nil)
	require.NoError(t, err)

	err = adder.AddAttendee(context.Background(), "42", "u@x.com")

	assert.ErrorIs(t, err, application.ErrAttendeeAdd)
	assert.Equal(t, 0, fake.puts)
	assert.Equal(t, organizerEdit, fake.objects["/cal/team/42.ics"])
}

func TestNormalizeCollection(t *testing.T) {
	assert.Equal(t, "", normalizeCollection(""))
	assert.Equal(t, "/cal/", normalizeCollection("/cal"))
	assert.Equal(t, "/cal/", normalizeCollection("/cal/"))
}
