// Package config loads meetbridge settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Calendar providers.
const (
	ProviderGraph  = "graph"
	ProviderCalDAV = "caldav"
)

// Chat transports, derived from the configured Slack credentials.
const (
	TransportSocketMode = "socket_mode"
	TransportEventsAPI  = "events_api"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string
	LogLevel  string
	LogFormat string
	Port      int

	// OpsAuthToken guards /metrics and /meetings.
	OpsAuthToken string

	// Slack
	SlackBotToken      string
	SlackSigningSecret string
	SlackAppToken      string

	// Calendar
	CalendarProvider string
	HTTPTimeout      time.Duration

	// Microsoft Graph
	MSClientID        string
	MSClientSecret    string
	MSTenantID        string
	GraphBaseURL      string
	GraphCalendarUser string

	// CalDAV
	CalDAVURL          string
	CalDAVUsername     string
	CalDAVPassword     string
	CalDAVCalendarPath string

	// Enrollment
	MeetingLinkPattern string
	MeetingIDParam     string
	OptInReaction      string
	MarkerReaction     string

	// Redis
	RedisURL        string
	ProfileCacheTTL time.Duration

	// RabbitMQ
	RabbitMQURL string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", ""),
		Port:      getIntEnv("PORT", 3000),

		OpsAuthToken: getEnv("OPS_AUTH_TOKEN", ""),

		SlackBotToken:      getEnv("SLACK_BOT_TOKEN", ""),
		SlackSigningSecret: getEnv("SLACK_SIGNING_SECRET", ""),
		SlackAppToken:      getEnv("SLACK_APP_TOKEN", ""),

		CalendarProvider: strings.ToLower(getEnv("CALENDAR_PROVIDER", ProviderGraph)),
		HTTPTimeout:      getDurationEnv("HTTP_TIMEOUT", 15*time.Second),

		MSClientID:        getEnv("MS_CLIENT_ID", ""),
		MSClientSecret:    getEnv("MS_CLIENT_SECRET", ""),
		MSTenantID:        getEnv("MS_TENANT_ID", ""),
		GraphBaseURL:      getEnv("GRAPH_BASE_URL", "https://graph.microsoft.com/v1.0"),
		GraphCalendarUser: getEnv("GRAPH_CALENDAR_USER", ""),

		CalDAVURL:          getEnv("CALDAV_URL", ""),
		CalDAVUsername:     getEnv("CALDAV_USERNAME", ""),
		CalDAVPassword:     getEnv("CALDAV_PASSWORD", ""),
		CalDAVCalendarPath: getEnv("CALDAV_CALENDAR_PATH", ""),

		MeetingLinkPattern: getEnv("MEETING_LINK_PATTERN", `https://teams\.microsoft\.com/l/meetup-join/\S+`),
		MeetingIDParam:     getEnv("MEETING_ID_PARAM", "meetingId"),
		OptInReaction:      trimColons(getEnv("OPTIN_REACTION", "raised_hand")),
		MarkerReaction:     trimColons(getEnv("MARKER_REACTION", "calendar")),

		RedisURL:        getEnv("REDIS_URL", ""),
		ProfileCacheTTL: getDurationEnv("PROFILE_CACHE_TTL", time.Hour),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ChatTransport reports how chat events are received. An app token selects
// Socket Mode; otherwise events arrive over HTTP.
func (c *Config) ChatTransport() string {
	if c.SlackAppToken != "" {
		return TransportSocketMode
	}
	return TransportEventsAPI
}

// ListenAddr is the address of the operational HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate reports every missing or malformed setting for the selected
// transport and calendar provider.
func (c *Config) Validate() error {
	var problems []string
	missing := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, name+" is required")
		}
	}

	missing("SLACK_BOT_TOKEN", c.SlackBotToken)
	if c.ChatTransport() == TransportEventsAPI {
		missing("SLACK_SIGNING_SECRET", c.SlackSigningSecret)
	}

	switch c.CalendarProvider {
	case ProviderGraph:
		missing("MS_CLIENT_ID", c.MSClientID)
		missing("MS_CLIENT_SECRET", c.MSClientSecret)
		missing("MS_TENANT_ID", c.MSTenantID)
	case ProviderCalDAV:
		missing("CALDAV_URL", c.CalDAVURL)
	default:
		problems = append(problems, fmt.Sprintf("CALENDAR_PROVIDER %q is not one of %s, %s", c.CalendarProvider, ProviderGraph, ProviderCalDAV))
	}

	missing("MEETING_LINK_PATTERN", c.MeetingLinkPattern)
	missing("MEETING_ID_PARAM", c.MeetingIDParam)
	missing("OPTIN_REACTION", c.OptInReaction)
	if c.OptInReaction != "" && strings.EqualFold(c.OptInReaction, c.MarkerReaction) {
		problems = append(problems, fmt.Sprintf("OPTIN_REACTION and MARKER_REACTION must differ (both %q)", c.OptInReaction))
	}

	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT %d is out of range", c.Port))
	}
	if c.HTTPTimeout <= 0 {
		problems = append(problems, "HTTP_TIMEOUT must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func trimColons(name string) string {
	return strings.Trim(strings.TrimSpace(name), ":")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
