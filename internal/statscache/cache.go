// Package statscache is a read-through Redis cache for project stats.
// Entries are keyed by project id and expire after a TTL; a concurrent
// cache miss may recompute redundantly but never stores a partial
// aggregate, since the calculator returns a complete snapshot or fails.
package statscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tacowasa/internal/service"
)

// KeyPrefix is the Redis key prefix for cached project stats.
const KeyPrefix = "tacowasa:stats:"

// Calculator produces a fresh stats snapshot on cache miss.
type Calculator interface {
	Calc(ctx context.Context, projectID uint) (*service.ProjectStats, error)
}

// Cache wraps a Redis client with stats-specific operations.
type Cache struct {
	rdb  *redis.Client
	calc Calculator
	ttl  time.Duration
	log  zerolog.Logger
}

func New(rdb *redis.Client, calc Calculator, ttl time.Duration, log zerolog.Logger) *Cache {
	return &Cache{rdb: rdb, calc: calc, ttl: ttl, log: log}
}

// NewClient connects to Redis at the given URL.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}

func key(projectID uint) string {
	return fmt.Sprintf("%s%d", KeyPrefix, projectID)
}

// Get returns the cached snapshot when fresh, recomputing and storing
// it otherwise. force skips the cache read.
func (c *Cache) Get(ctx context.Context, projectID uint, force bool) (*service.ProjectStats, error) {
	if !force {
		raw, err := c.rdb.Get(ctx, key(projectID)).Bytes()
		switch {
		case err == nil:
			var stats service.ProjectStats
			if err := json.Unmarshal(raw, &stats); err == nil {
				return &stats, nil
			}
			// Corrupt entry. Fall through to recompute.
			c.log.Warn().Uint("project_id", projectID).Msg("discarding unreadable stats cache entry")
		case err != redis.Nil:
			return nil, fmt.Errorf("read stats cache: %w", err)
		}
	}

	stats, err := c.calc.Calc(ctx, projectID)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("marshal stats: %w", err)
	}
	if err := c.rdb.Set(ctx, key(projectID), raw, c.ttl).Err(); err != nil {
		// Cache write failure is not fatal; the snapshot is still good.
		c.log.Warn().Err(err).Uint("project_id", projectID).Msg("stats cache write failed")
	}
	return stats, nil
}

// Invalidate drops the cached snapshot for a project.
func (c *Cache) Invalidate(ctx context.Context, projectID uint) error {
	if err := c.rdb.Del(ctx, key(projectID)).Err(); err != nil {
		return fmt.Errorf("invalidate stats cache: %w", err)
	}
	return nil
}
