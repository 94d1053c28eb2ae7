package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	rediscache "github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

// opTimeout bounds every cache round-trip so a slow redis never blocks the
// write path. Misses and errors both fall through to a fresh computation.
const opTimeout = 250 * time.Millisecond

// Client wraps redis with marshaled-struct snapshots and TTLs. A nil
// underlying client is allowed: every operation becomes a no-op miss, which
// keeps the core usable without redis (tests, local dev).
type Client struct {
	rdb   *redis.Client
	codec *rediscache.Cache
}

func New(rdb *redis.Client) *Client {
	c := &Client{rdb: rdb}
	if rdb != nil {
		c.codec = rediscache.New(&rediscache.Options{Redis: rdb})
	}
	return c
}

// Connect parses REDIS_URL style addresses and pings the server.
func Connect(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// Get unmarshals the cached value into v. Returns false on miss, error, or
// timeout; the caller recomputes.
func (c *Client) Get(ctx context.Context, key string, v any) bool {
	if c == nil || c.codec == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := c.codec.Get(ctx, key, v)
	if err != nil {
		if !errors.Is(err, rediscache.ErrCacheMiss) {
			slog.Warn("cache get failed", "key", key, "err", err)
		}
		return false
	}
	return true
}

func (c *Client) Set(ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil || c.codec == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.codec.Set(&rediscache.Item{Ctx: ctx, Key: key, Value: v, TTL: ttl}); err != nil {
		slog.Warn("cache set failed", "key", key, "err", err)
	}
}

func (c *Client) Delete(ctx context.Context, keys ...string) {
	if c == nil || c.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("cache delete failed", "keys", keys, "err", err)
	}
}
