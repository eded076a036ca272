package cache

import (
	"context"
	"testing"
	"time"

	"meal-planner/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreUnreachable(t *testing.T) {
	cfg := &config.CacheConfig{RedisAddr: "127.0.0.1:1", TTL: time.Minute}

	_, err := NewRedisStore(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	store := newRedisStore(client, cfg)
	defer store.Close()

	_, err = store.Get(context.Background(), "plan", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get cache")

	err = store.Set(context.Background(), "plan", "", "{}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set cache")

	assert.Equal(t, "redis", store.Stats()["backend"])
}
