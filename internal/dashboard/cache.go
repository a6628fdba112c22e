package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "skillsync:dashboard:stats"

// RedisCache keeps the snapshot under a single key with a TTL.
type RedisCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisCache returns nil when ttl is not positive, which disables caching.
func NewRedisCache(rdb redis.Cmdable, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		return nil
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// Load returns the cached snapshot, or false on a miss or any failure.
func (c *RedisCache) Load(ctx context.Context) (*Stats, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("dashboard cache read failed", "err", err)
		}
		return nil, false
	}
	var s Stats
	if err := json.Unmarshal(raw, &s); err != nil {
		slog.Warn("dashboard cache decode failed", "err", err)
		return nil, false
	}
	return &s, true
}

// Store caches s for the configured TTL. Failures are logged and dropped.
func (c *RedisCache) Store(ctx context.Context, s *Stats) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey, raw, c.ttl).Err(); err != nil {
		slog.Warn("dashboard cache write failed", "err", err)
	}
}
