package linkparser

import (
	"testing"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const examplePattern = `https://chat\.example/l/meetup-join/\S+`

func TestNewQueryParamParser(t *testing.T) {
	t.Run("rejects empty pattern", func(t *testing.T) {
		_, err := NewQueryParamParser("", "meetingId")
		assert.ErrorIs(t, err, ErrEmptyPattern)
	})

	t.Run("rejects empty param", func(t *testing.T) {
		_, err := NewQueryParamParser(examplePattern, " ")
		assert.ErrorIs(t, err, ErrEmptyParam)
	})

	t.Run("rejects invalid regexp", func(t *testing.T) {
		_, err := NewQueryParamParser("https://(", "meetingId")
		assert.Error(t, err)
	})

	t.Run("teams defaults", func(t *testing.T) {
		p := NewTeamsParser()
		assert.Equal(t, DefaultParam, p.Param())
	})
}

func TestQueryParamParser_Parse(t *testing.T) {
	parser, err := NewQueryParamParser(examplePattern, "meetingId")
	require.NoError(t, err)

	t.Run("extracts meeting id", func(t *testing.T) {
		link, err := parser.Parse("Join: https://chat.example/l/meetup-join/abc?meetingId=42")
		require.NoError(t, err)
		require.NotNil(t, link)
		assert.Equal(t, "42", link.MeetingID)
		assert.Equal(t, "https://chat.example/l/meetup-join/abc?meetingId=42", link.URL)
	})

	t.Run("no link yields nothing", func(t *testing.T) {
		link, err := parser.Parse("see you at standup")
		assert.NoError(t, err)
		assert.Nil(t, link)
	})

	t.Run("link without parameter is unparseable", func(t *testing.T) {
		link, err := parser.Parse("https://chat.example/l/meetup-join/abc?other=1")
		assert.Nil(t, link)
		assert.ErrorIs(t, err, domain.ErrUnparseableLink)
	})

	t.Run("only first link is used", func(t *testing.T) {
		link, err := parser.Parse("a https://chat.example/l/meetup-join/x?meetingId=1 b https://chat.example/l/meetup-join/y?meetingId=2")
		require.NoError(t, err)
		assert.Equal(t, "1", link.MeetingID)
	})

	t.Run("first link unparseable does not fall through", func(t *testing.T) {
		link, err := parser.Parse("https://chat.example/l/meetup-join/x https://chat.example/l/meetup-join/y?meetingId=2")
		assert.Nil(t, link)
		assert.ErrorIs(t, err, domain.ErrUnparseableLink)
	})

	t.Run("strips chat link markup", func(t *testing.T) {
		link, err := parser.Parse("<https://chat.example/l/meetup-join/abc?meetingId=42|Join meeting>")
		require.NoError(t, err)
		assert.Equal(t, "https://chat.example/l/meetup-join/abc?meetingId=42", link.URL)
		assert.Equal(t, "42", link.MeetingID)
	})

	t.Run("case-insensitive host", func(t *testing.T) {
		link, err := parser.Parse("HTTPS://CHAT.EXAMPLE/l/meetup-join/abc?meetingId=7")
		require.NoError(t, err)
		assert.Equal(t, "7", link.MeetingID)
	})

	t.Run("decodes escaped id", func(t *testing.T) {
		link, err := parser.Parse("https://chat.example/l/meetup-join/abc?x=1&meetingId=AAMk%3D%3D")
		require.NoError(t, err)
		assert.Equal(t, "AAMk==", link.MeetingID)
	})

	t.Run("path traversal id is unparseable", func(t *testing.T) {
		link, err := NewTeamsParser().Parse("https://teams.microsoft.com/l/meetup-join/x?meetingId=..%2F..%2Fboss%2Fprivate%2Fsecret")
		assert.ErrorIs(t, err, domain.ErrUnparseableLink)
		assert.Nil(t, link)
	})
}

func TestExtractMeetingID(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
		ok   bool
	}{
		{"present", "https://host/path?meetingId=42", "42", true},
		{"among others", "https://host/path?a=b&meetingId=xyz&c=d", "xyz", true},
		{"empty value", "https://host/path?meetingId=", "", false},
		{"missing", "https://host/path", "", false},
		{"relative", "/path?meetingId=42", "", false},
		{"garbage", "::not a url::", "", false},
		{"empty string", "", "", false},
		{"bad escape", "https://host/%zz?meetingId=1", "", false},
		{"escaped traversal", "https://host/path?meetingId=..%2F..%2Fboss%2Fsecret", "", false},
		{"dot dot", "https://host/path?meetingId=..", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractMeetingID(tc.link, "meetingId")
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
				return
			}
			assert.ErrorIs(t, err, domain.ErrUnparseableLink)
			assert.Empty(t, got)
		})
	}
}
