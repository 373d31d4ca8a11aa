// Package app wires meetbridge's components together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/felixgeelhaar/meetbridge/adapter/api"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application/commands"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application/dispatch"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application/queries"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application/subscribers"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/infrastructure/linkparser"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/infrastructure/memory"
	"github.com/felixgeelhaar/meetbridge/internal/enrollment/infrastructure/profilecache"
	chat "github.com/felixgeelhaar/meetbridge/internal/enrollment/infrastructure/slack"
	"github.com/felixgeelhaar/meetbridge/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/meetbridge/pkg/config"
	"github.com/felixgeelhaar/meetbridge/pkg/observability"
	"github.com/redis/go-redis/v9"
	"github.com/slack-go/slack"
)

const shutdownTimeout = 10 * time.Second

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Membership store
	Store *memory.Store

	// Slack
	SlackAPI      *slack.Client
	EventsHandler *chat.EventsHandler
	Listener      *chat.SocketModeListener

	// Redis
	RedisClient *redis.Client

	// Events
	EventPublisher    application.EventPublisher
	InProcessEventBus *eventbus.InProcessEventBus
	RabbitPublisher   *eventbus.RabbitMQPublisher
	AuditConsumer     *eventbus.RabbitMQConsumer
	AuditSubscriber   *subscribers.AuditSubscriber

	// Handlers
	TrackMeetingLinkHandler    *commands.TrackMeetingLinkHandler
	EnrollParticipantHandler   *commands.EnrollParticipantHandler
	ListTrackedMeetingsHandler *queries.ListTrackedMeetingsHandler
	Router                     *dispatch.Router

	Server *api.Server
}

type containerOptions struct {
	slackAPIURL   string
	graphTokenURL string
}

// Option adjusts how the container reaches external services.
type Option func(*containerOptions)

// WithSlackAPIURL points the Slack Web API client at url.
func WithSlackAPIURL(url string) Option {
	return func(o *containerOptions) { o.slackAPIURL = url }
}

// WithGraphTokenURL overrides the Microsoft identity token endpoint.
func WithGraphTokenURL(url string) Option {
	return func(o *containerOptions) { o.graphTokenURL = url }
}

// NewContainer creates a new container with all dependencies wired.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o containerOptions
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
		Store:   memory.NewStore(),
	}

	parser, err := linkparser.NewQueryParamParser(cfg.MeetingLinkPattern, cfg.MeetingIDParam)
	if err != nil {
		return nil, fmt.Errorf("failed to create link parser: %w", err)
	}

	factory := NewProviderFactory(cfg, logger)
	factory.graphTokenURL = o.graphTokenURL

	attendees, err := factory.AttendeeAdder()
	if err != nil {
		return nil, err
	}

	// Slack
	c.SlackAPI = chat.NewClient(chat.ClientConfig{
		BotToken:   cfg.SlackBotToken,
		AppToken:   cfg.SlackAppToken,
		APIURL:     o.slackAPIURL,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
	})
	c.Health.Register("slack", observability.ChatHealthChecker(chat.AuthCheck(c.SlackAPI)))

	// Profile cache (Redis optional)
	cache, redisClient, err := factory.ProfileCache(ctx)
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		c.RedisClient = redisClient
		c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
	}
	directory := profilecache.NewDirectory(chat.NewDirectory(c.SlackAPI), cache, cfg.ProfileCacheTTL, c.Metrics, logger)

	// Domain events
	c.AuditSubscriber = subscribers.NewAuditSubscriber(c.Metrics, logger)
	if err := c.initEvents(cfg, logger); err != nil {
		c.Close()
		return nil, err
	}

	// Handlers
	notifier := chat.NewNotifier(c.SlackAPI)
	c.TrackMeetingLinkHandler = commands.NewTrackMeetingLinkHandler(
		c.Store, parser, notifier, c.EventPublisher,
		commands.TrackOptions{OptInReaction: cfg.OptInReaction, MarkerReaction: cfg.MarkerReaction},
		logger,
	)
	c.EnrollParticipantHandler = commands.NewEnrollParticipantHandler(
		c.Store, directory, attendees, notifier, c.EventPublisher, cfg.OptInReaction, logger,
	)
	c.ListTrackedMeetingsHandler = queries.NewListTrackedMeetingsHandler(c.Store)
	c.Router = dispatch.NewRouter(c.TrackMeetingLinkHandler, c.EnrollParticipantHandler, c.Metrics, logger)

	// Transport
	deps := api.Dependencies{
		Health:   c.Health,
		Metrics:  c.Metrics,
		Meetings: api.NewMeetingsHandler(c.ListTrackedMeetingsHandler, logger),
	}
	switch cfg.ChatTransport() {
	case config.TransportSocketMode:
		c.Listener = chat.NewSocketModeListener(c.SlackAPI, c.Router, logger)
	default:
		c.EventsHandler = chat.NewEventsHandler(cfg.SlackSigningSecret, c.Router, logger)
		deps.SlackEvents = c.EventsHandler
	}

	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = cfg.ListenAddr()
	serverCfg.OpsToken = cfg.OpsAuthToken
	c.Server = api.NewServer(serverCfg, deps, logger)

	logger.Info("container initialized",
		"transport", cfg.ChatTransport(),
		"calendar_provider", cfg.CalendarProvider,
		"redis", c.RedisClient != nil,
		"rabbitmq", c.RabbitPublisher != nil,
	)

	return c, nil
}

// initEvents publishes to RabbitMQ when configured, otherwise to an
// in-process bus. Either way the audit subscriber receives every event.
func (c *Container) initEvents(cfg *config.Config, logger *slog.Logger) error {
	var next application.EventPublisher

	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			logger.Warn("RabbitMQ not available, using in-process event bus", "error", err)
		} else {
			consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
				URL:    cfg.RabbitMQURL,
				Logger: logger,
			}, c.AuditSubscriber)
			if err != nil {
				_ = publisher.Close()
				return fmt.Errorf("failed to create audit consumer: %w", err)
			}

			c.RabbitPublisher = publisher
			c.AuditConsumer = consumer
			c.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(publisher.Ping))
			next = publisher
		}
	}

	if next == nil {
		c.InProcessEventBus = eventbus.NewInProcessEventBus(logger)
		c.InProcessEventBus.RegisterConsumer(c.AuditSubscriber)
		next = c.InProcessEventBus
	}

	c.EventPublisher = &meteredPublisher{
		next:    next,
		metrics: c.Metrics,
		records: c.Store.Len,
	}
	return nil
}

// Run serves chat events until ctx is cancelled or a component fails.
// In-flight handlers are drained before it returns.
func (c *Container) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 3)
	var wg sync.WaitGroup
	start := func(name string, run func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	start("http server", c.Server.Start)
	if c.Listener != nil {
		start("socket mode", func() error { return c.Listener.Run(ctx) })
	}
	if c.AuditConsumer != nil {
		start("audit consumer", func() error { return c.AuditConsumer.Start(ctx) })
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		c.Logger.Error("component failed, shutting down", "error", runErr)
		cancel()
	}

	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer stop()
	if err := c.Server.Shutdown(shutdownCtx); err != nil {
		c.Logger.Warn("http server shutdown error", "error", err)
	}
	if c.AuditConsumer != nil {
		_ = c.AuditConsumer.Close()
	}
	wg.Wait()
	c.Router.Wait()

	return runErr
}

// Close releases all resources.
func (c *Container) Close() {
	if c.AuditConsumer != nil {
		if err := c.AuditConsumer.Close(); err != nil {
			c.Logger.Warn("error closing audit consumer", "error", err)
		}
	}

	if c.RabbitPublisher != nil {
		if err := c.RabbitPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.InProcessEventBus != nil {
		_ = c.InProcessEventBus.Close()
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}
}
