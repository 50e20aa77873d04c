package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NarekNk/todo-task/internal/config"
	"github.com/NarekNk/todo-task/internal/repository"
	"github.com/NarekNk/todo-task/pkg/logger"
)

// PageCache stores marshaled list responses as raw bytes, keyed per user and
// query under a per-user version. Bumping the version on any mutation makes
// every cached page for that user unreachable at once, so invalidation is a
// single INCR instead of a key scan.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis. Returns nil when no REDIS_URL is configured or the
// server is unreachable; a nil *PageCache is safe to use and caches nothing.
func New(ctx context.Context, cfg *config.Config) *PageCache {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error(ctx, "Invalid REDIS_URL", "error", err)
		return nil
	}
	opts.PoolSize = cfg.RedisPoolSize
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn(ctx, "Redis unreachable, page cache disabled", "error", err)
		return nil
	}
	logger.Info(ctx, "Redis page cache initialized", "pool_size", cfg.RedisPoolSize)
	return &PageCache{client: client, ttl: time.Duration(cfg.CacheTTL) * time.Second}
}

// Key returns the versioned cache key for a list query, or "" when the cache
// is unavailable.
func (c *PageCache) Key(ctx context.Context, userID string, q repository.PageQuery) string {
	if c == nil {
		return ""
	}
	ver, err := c.client.Get(ctx, verKey(userID)).Result()
	if err == redis.Nil {
		ver = "0"
	} else if err != nil {
		logger.Debug(ctx, "Redis version read failed", "error", err)
		return ""
	}
	return fmt.Sprintf("tasks:%s:v%s:q=%s:p=%d:s=%d", userID, ver, q.Search, q.Page, q.PageSize)
}

// GetRawPage reads a cached page body. Returns (nil, false) on miss or error.
func (c *PageCache) GetRawPage(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || key == "" {
		return nil, false
	}
	b, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Debug(ctx, "Redis page read failed", "error", err)
		return nil, false
	}
	return b, true
}

// SetRawPageAsync writes a page body off the request path.
func (c *PageCache) SetRawPageAsync(key string, b []byte) {
	if c == nil || key == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
			logger.Debug(ctx, "Redis page write failed", "error", err)
		}
	}()
}

// Invalidate bumps the user's version so subsequent list reads miss. Called
// synchronously after every mutation: a create followed by an immediate list
// must never serve a stale page.
func (c *PageCache) Invalidate(ctx context.Context, userID string) {
	if c == nil {
		return
	}
	if err := c.client.Incr(ctx, verKey(userID)).Err(); err != nil {
		logger.Debug(ctx, "Redis invalidate failed", "error", err)
	}
}

// Ping reports whether the cache backend is reachable.
func (c *PageCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func verKey(userID string) string {
	return "tasks:ver:" + userID
}
