// Package cache persists view snapshots and UI preferences in Redis.
// Everything here is best-effort: the dashboard runs fine without a
// cache, and cache failures never fail a request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jayphen/gleis/internal/task"
)

const (
	// ViewKeyPrefix is the Redis key prefix for view snapshots.
	ViewKeyPrefix = "gleis:view:"
	// SettingKeyPrefix is the Redis key prefix for UI preferences.
	SettingKeyPrefix = "gleis:settings:"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("not found")

// Cache wraps a Redis client with gleis-specific operations.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a cache from a Redis URL. The snapshot TTL bounds how
// stale a cached view may get between polls.
func New(url string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{rdb: rdb, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Ping reports whether the connection is healthy.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// PutView stores one query's mapped task snapshot under its signature.
func (c *Cache) PutView(ctx context.Context, signature string, tasks []task.Task) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return c.rdb.Set(ctx, ViewKeyPrefix+signature, data, c.ttl).Err()
}

// GetView returns the cached snapshot for a query signature.
func (c *Cache) GetView(ctx context.Context, signature string) ([]task.Task, error) {
	data, err := c.rdb.Get(ctx, ViewKeyPrefix+signature).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return tasks, nil
}

// PutSetting persists one UI preference. Settings do not expire.
func (c *Cache) PutSetting(ctx context.Context, key, value string) error {
	return c.rdb.Set(ctx, SettingKeyPrefix+key, value, 0).Err()
}

// GetSetting returns one UI preference.
func (c *Cache) GetSetting(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, SettingKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return val, err
}

// Settings returns all stored UI preferences.
func (c *Cache) Settings(ctx context.Context) (map[string]string, error) {
	settings := make(map[string]string)

	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, SettingKeyPrefix+"*", 100).Result()
		if err != nil {
			return settings, err
		}
		for _, key := range keys {
			val, err := c.rdb.Get(ctx, key).Result()
			if err != nil {
				continue
			}
			settings[key[len(SettingKeyPrefix):]] = val
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return settings, nil
}
