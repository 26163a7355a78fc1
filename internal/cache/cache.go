package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mltrain/trainwatch/pkg/models"
	"github.com/redis/go-redis/v9"
)

// Cache is the metric series store: the latest known snapshot per job.
// Set replaces the whole snapshot; there is no incremental merge because
// every fetch already returns the full history.
// Implementations must be safe for concurrent use.
type Cache interface {
	Set(ctx context.Context, jobID string, snap models.MetricsSnapshot) error
	Get(ctx context.Context, jobID string) (models.MetricsSnapshot, bool, error)
	Clear(ctx context.Context, jobID string) error
	Ping(ctx context.Context) error
}

// RedisCache implements the Cache interface using go-redis/v9.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new RedisCache from a Redis URL. Entries expire
// after ttl; zero keeps them until cleared.
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts), ttl: ttl}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, jobID string, snap models.MetricsSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return c.client.Set(ctx, SnapshotKey(jobID), b, c.ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, jobID string) (models.MetricsSnapshot, bool, error) {
	val, err := c.client.Get(ctx, SnapshotKey(jobID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var snap models.MetricsSnapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return nil, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

func (c *RedisCache) Clear(ctx context.Context, jobID string) error {
	return c.client.Del(ctx, SnapshotKey(jobID)).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
