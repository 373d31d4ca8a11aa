package observability

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okPing(context.Context) error   { return nil }
func failPing(context.Context) error { return errors.New("connection refused") }

func TestHealthRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("empty registry is healthy", func(t *testing.T) {
		r := NewHealthRegistry()

		health := r.GetOverallHealth(ctx)

		assert.Equal(t, HealthStatusHealthy, health.Status)
		assert.Empty(t, health.Checks)
	})

	t.Run("degraded dependency degrades overall status", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("chat", ChatHealthChecker(okPing))
		r.Register("redis", RedisHealthChecker(failPing))

		health := r.GetOverallHealth(ctx)

		assert.Equal(t, HealthStatusDegraded, health.Status)
		assert.Equal(t, HealthStatusHealthy, health.Checks["chat"].Status)
		assert.Contains(t, health.Checks["redis"].Message, "connection refused")
	})

	t.Run("unhealthy wins over degraded", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("chat", ChatHealthChecker(failPing))
		r.Register("rabbitmq", RabbitMQHealthChecker(failPing))

		assert.Equal(t, HealthStatusUnhealthy, r.GetOverallHealth(ctx).Status)
	})

	t.Run("check one", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("redis", RedisHealthChecker(okPing))

		result, ok := r.CheckOne(ctx, "redis")
		require.True(t, ok)
		assert.Equal(t, HealthStatusHealthy, result.Status)
		assert.False(t, result.Timestamp.IsZero())

		_, ok = r.CheckOne(ctx, "rabbitmq")
		assert.False(t, ok)
	})

	t.Run("register replaces a checker", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("chat", ChatHealthChecker(failPing))
		r.Register("chat", ChatHealthChecker(okPing))

		assert.Equal(t, HealthStatusHealthy, r.GetOverallHealth(ctx).Status)
	})

	t.Run("serializes to JSON", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("chat", ChatHealthChecker(okPing))

		data, err := json.Marshal(r.GetOverallHealth(ctx))
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "healthy", decoded["status"])
	})
}
