package leaderboardcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	leaderboarddomain "github.com/medusa-ctf/medusa-backend/app/modules/leaderboard/domain"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "medusa:leaderboard:"
	standingKey = keyPrefix + "entries:v1"
)

// Cache holds the last computed leaderboard.
type Cache interface {
	Get(ctx context.Context) ([]leaderboarddomain.Entry, bool, error)
	Set(ctx context.Context, entries []leaderboarddomain.Entry) error
	Invalidate(ctx context.Context) error
}

// RedisCache stores the leaderboard as JSON under a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache connects to addr and verifies the connection.
func NewRedisCache(ctx context.Context, opts *redis.Options, ttl time.Duration, logger *slog.Logger) (*RedisCache, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	logger.InfoContext(ctx, "Redis leaderboard cache connected", slog.String("addr", opts.Addr), slog.Duration("ttl", ttl))
	return &RedisCache{client: client, ttl: ttl, logger: logger}, nil
}

var _ Cache = (*RedisCache)(nil)

func (c *RedisCache) Get(ctx context.Context) ([]leaderboarddomain.Entry, bool, error) {
	raw, err := c.client.Get(ctx, standingKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("leaderboardcache.Get: %w", err)
	}
	var entries []leaderboarddomain.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		// a corrupt value is a miss; the next Set overwrites it
		c.logger.WarnContext(ctx, "Discarding unreadable cached leaderboard", slog.Any("error", err))
		return nil, false, nil
	}
	return entries, true, nil
}

func (c *RedisCache) Set(ctx context.Context, entries []leaderboarddomain.Entry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("leaderboardcache.Set: %w", err)
	}
	if err := c.client.Set(ctx, standingKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("leaderboardcache.Set: %w", err)
	}
	return nil
}

// Invalidate deletes every leaderboard key, including older versions.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("leaderboardcache.Invalidate: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("leaderboardcache.Invalidate: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NoopCache never hits. It stands in when Redis is not configured.
type NoopCache struct{}

func (NoopCache) Get(context.Context) ([]leaderboarddomain.Entry, bool, error) {
	return nil, false, nil
}

func (NoopCache) Set(context.Context, []leaderboarddomain.Entry) error { return nil }

func (NoopCache) Invalidate(context.Context) error { return nil }
