package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/infrastructure/caldav"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/infrastructure/graph"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/infrastructure/profilecache"
	"github.com/felixgeelhaar/meetbridge/pkg/config"
	"github.com/redis/go-redis/v9"
)

// ProviderFactory builds the outbound adapters selected by configuration.
type ProviderFactory struct {
	cfg    *config.Config
	logger *slog.Logger

	graphTokenURL string
}

// NewProviderFactory creates a new provider factory.
func NewProviderFactory(cfg *config.Config, logger *slog.Logger) *ProviderFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProviderFactory{cfg: cfg, logger: logger}
}

// AttendeeAdder creates the calendar adapter for the configured provider.
func (f *ProviderFactory) AttendeeAdder() (application.AttendeeAdder, error) {
	switch f.cfg.CalendarProvider {
	case config.ProviderGraph:
		return graph.NewAttendeeAdder(graph.Config{
			TenantID:     f.cfg.MSTenantID,
			ClientID:     f.cfg.MSClientID,
			ClientSecret: f.cfg.MSClientSecret,
			BaseURL:      f.cfg.GraphBaseURL,
			CalendarUser: f.cfg.GraphCalendarUser,
			TokenURL:     f.graphTokenURL,
			Timeout:      f.cfg.HTTPTimeout,
		}, f.logger.With("provider", config.ProviderGraph)), nil

	case config.ProviderCalDAV:
		adder, err := caldav.NewAttendeeAdder(caldav.Config{
			URL:          f.cfg.CalDAVURL,
			Username:     f.cfg.CalDAVUsername,
			Password:     f.cfg.CalDAVPassword,
			CalendarPath: f.cfg.CalDAVCalendarPath,
			Timeout:      f.cfg.HTTPTimeout,
		}, f.logger.With("provider", config.ProviderCalDAV))
		if err != nil {
			return nil, err
		}
		return adder, nil

	default:
		return nil, fmt.Errorf("unsupported calendar provider: %s", f.cfg.CalendarProvider)
	}
}

// ProfileCache returns a Redis cache when REDIS_URL is set and reachable,
// otherwise an in-memory cache. The returned client is nil for the latter.
func (f *ProviderFactory) ProfileCache(ctx context.Context) (profilecache.Cache, *redis.Client, error) {
	if f.cfg.RedisURL == "" {
		return profilecache.NewMemoryCache(), nil, nil
	}

	opt, err := redis.ParseURL(f.cfg.RedisURL)
	if err != nil {
		if !f.cfg.IsDevelopment() {
			return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		f.logger.Warn("invalid Redis URL, profile cache will use in-memory fallback", "error", err)
		return profilecache.NewMemoryCache(), nil, nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		if !f.cfg.IsDevelopment() {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		f.logger.Warn("Redis not available, profile cache will use in-memory fallback", "error", err)
		_ = client.Close()
		return profilecache.NewMemoryCache(), nil, nil
	}

	f.logger.Info("connected to Redis")
	return profilecache.NewRedisCache(client), client, nil
}
