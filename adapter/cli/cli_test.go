package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEnv = []string{
	"APP_ENV", "PORT", "SLACK_BOT_TOKEN", "SLACK_SIGNING_SECRET", "SLACK_APP_TOKEN",
	"CALENDAR_PROVIDER", "MS_CLIENT_ID", "MS_CLIENT_SECRET", "MS_TENANT_ID",
	"CALDAV_URL", "MEETING_LINK_PATTERN", "MEETING_ID_PARAM", "REDIS_URL", "RABBITMQ_URL",
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, v := range testEnv {
		t.Setenv(v, "")
	}
	linkPattern, linkParam = "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "meetbridge dev")
	assert.Contains(t, out, "commit: none")
}

func TestParseLinkCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr string
	}{
		{
			name: "default teams link",
			args: []string{"parse-link", "join https://teams.microsoft.com/l/meetup-join/abc?meetingId=42 now"},
			want: "Meeting ID: 42",
		},
		{
			name: "slack markup is unwrapped",
			args: []string{"parse-link", "--pattern", `https://meet\.example/\S+`, "--param", "id", "<https://meet.example/j?x=1&amp;id=7|standup>"},
			want: "Meeting ID: 7",
		},
		{
			name: "no link",
			args: []string{"parse-link", "nothing to see"},
			want: "No meeting link found.",
		},
		{
			name:    "link without id",
			args:    []string{"parse-link", "https://teams.microsoft.com/l/meetup-join/abc"},
			wantErr: `"meetingId" could not be read`,
		},
		{
			name:    "bad pattern",
			args:    []string{"parse-link", "--pattern", "(", "x"},
			wantErr: "compile link pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestConfigCheckCommand(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		out, err := run(t, "config", "check")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "SLACK_BOT_TOKEN is required")
		assert.Contains(t, out, "Chat transport:    events_api")
		assert.NotContains(t, out, "Configuration OK")
	})

	t.Run("valid caldav setup", func(t *testing.T) {
		for _, v := range testEnv {
			t.Setenv(v, "")
		}
		t.Setenv("SLACK_BOT_TOKEN", "xoxb-123456789")
		t.Setenv("SLACK_APP_TOKEN", "xapp-1")
		t.Setenv("CALENDAR_PROVIDER", "caldav")
		t.Setenv("CALDAV_URL", "https://dav.example/")

		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs([]string{"config", "check"})
		t.Cleanup(func() {
			rootCmd.SetOut(nil)
			rootCmd.SetArgs(nil)
		})

		require.NoError(t, rootCmd.ExecuteContext(context.Background()))
		assert.Contains(t, out.String(), "socket_mode")
		assert.Contains(t, out.String(), "https://dav.example/")
		assert.Contains(t, out.String(), "xoxb…89")
		assert.NotContains(t, out.String(), "xoxb-123456789")
		assert.Contains(t, out.String(), "Configuration OK")
	})
}

func TestMask(t *testing.T) {
	assert.Equal(t, "(unset)", mask(""))
	assert.Equal(t, "********", mask("short"))
	assert.Equal(t, "abcd…yz", mask("abcdefghijklmnopqrstuvwxyz"))
}
