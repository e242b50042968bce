// Package cache keeps the dashboard aggregate in Redis between mutations.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xavierca1/leadbase/internal/entity"
)

const (
	DefaultTTL = 30 * time.Second

	statsKey = "leadbase:stats"
)

// redisClient is the subset of *redis.Client the cache uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type StatsCache struct {
	rdb redisClient
	ttl time.Duration
}

func NewStatsCache(rdb *redis.Client, ttl time.Duration) *StatsCache {
	return newStatsCache(rdb, ttl)
}

func newStatsCache(rdb redisClient, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StatsCache{rdb: rdb, ttl: ttl}
}

// Get returns (nil, nil) on a miss.
func (c *StatsCache) Get(ctx context.Context) (*entity.Stats, error) {
	raw, err := c.rdb.Get(ctx, statsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stats cache GET: %w", err)
	}

	var stats entity.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next Set.
		return nil, nil
	}
	return &stats, nil
}

func (c *StatsCache) Set(ctx context.Context, stats *entity.Stats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := c.rdb.Set(ctx, statsKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("stats cache SET: %w", err)
	}
	return nil
}

func (c *StatsCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, statsKey).Err(); err != nil {
		return fmt.Errorf("stats cache DEL: %w", err)
	}
	return nil
}

// NewClient parses a redis:// URL and pings the server.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}
