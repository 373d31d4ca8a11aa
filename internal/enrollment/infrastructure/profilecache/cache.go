// Package profilecache caches chat-profile email lookups.
package profilecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application"
	"github.com/felixgeelhaar/meetbridge/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a resolved address is reused.
const DefaultTTL = time.Hour

// ErrMiss means the user has no cached address.
var ErrMiss = errors.New("profile cache miss")

// Cache stores user email addresses with an expiry.
type Cache interface {
	Get(ctx context.Context, userID string) (string, error)
	Set(ctx context.Context, userID, email string, ttl time.Duration) error
}

// RedisCache stores addresses under meetbridge:email:{user_id}.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis-backed cache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) key(userID string) string {
	return fmt.Sprintf("meetbridge:email:%s", userID)
}

// Get returns the cached address or ErrMiss.
func (c *RedisCache) Get(ctx context.Context, userID string) (string, error) {
	val, err := c.client.Get(ctx, c.key(userID)).Result()
	if err == redis.Nil {
		return "", ErrMiss
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// Set stores email for userID.
func (c *RedisCache) Set(ctx context.Context, userID, email string, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(userID), email, ttl).Err()
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// MemoryCache is a process-local cache used when Redis is not configured.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	email   string
	expires time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the cached address or ErrMiss. Expired entries are dropped.
func (c *MemoryCache) Get(_ context.Context, userID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[userID]
	if !ok {
		return "", ErrMiss
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.entries, userID)
		return "", ErrMiss
	}
	return e.email, nil
}

// Set stores email for userID. A zero ttl never expires.
func (c *MemoryCache) Set(_ context.Context, userID, email string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{email: email}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.entries[userID] = e
	return nil
}

// Directory resolves addresses through a cache in front of another
// directory. Failed lookups are never cached.
type Directory struct {
	next    application.Directory
	cache   Cache
	ttl     time.Duration
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewDirectory wraps next with cache.
func NewDirectory(next application.Directory, cache Cache, ttl time.Duration, metrics observability.Metrics, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Directory{
		next:    next,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

// ContactAddress implements application.Directory.
func (d *Directory) ContactAddress(ctx context.Context, userID string) (string, error) {
	email, err := d.cache.Get(ctx, userID)
	switch {
	case err == nil && email != "":
		d.metrics.Counter(observability.MetricProfileCacheHits, 1)
		return email, nil
	case err != nil && !errors.Is(err, ErrMiss):
		d.logger.WarnContext(ctx, "profile cache read failed", "error", err)
	}
	d.metrics.Counter(observability.MetricProfileCacheMiss, 1)

	email, err = d.next.ContactAddress(ctx, userID)
	if err != nil {
		return "", err
	}

	if err := d.cache.Set(ctx, userID, email, d.ttl); err != nil {
		d.logger.WarnContext(ctx, "profile cache write failed", "error", err)
	}
	return email, nil
}
