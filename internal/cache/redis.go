package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/emberchat/emberchat-backend/internal/platform/envutil"
	"github.com/emberchat/emberchat-backend/internal/platform/logger"
)

// ErrMiss reports an absent key. Backend failures are mapped onto it by the
// aside layer, never surfaced to request handlers.
var ErrMiss = errors.New("cache miss")

// Cache is a best-effort key/value layer with expiry. Its absence must never
// change program correctness, only latency.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type redisCache struct {
	rdb *goredis.Client
}

// NewRedis connects to the cache backend. The backend is optional at startup:
// when REDIS_ADDR is unset or unreachable the returned Cache serves all-misses
// for the process lifetime.
func NewRedis(log *logger.Logger) Cache {
	log = log.With("service", "RedisCache")

	addr := strings.TrimSpace(envutil.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		log.Warn("REDIS_ADDR not set; cache disabled")
		return Disabled()
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Redis ping failed at startup; cache disabled", "addr", addr, "error", err)
		_ = rdb.Close()
		return Disabled()
	}

	return &redisCache{rdb: rdb}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *redisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, val, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	// DEL of an absent key is a no-op in Redis, which keeps Invalidate idempotent.
	return c.rdb.Del(ctx, key).Err()
}

type disabledCache struct{}

// Disabled returns a Cache that misses on every read and drops every write.
func Disabled() Cache { return disabledCache{} }

func (disabledCache) Get(ctx context.Context, key string) ([]byte, error) { return nil, ErrMiss }
func (disabledCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return nil
}
func (disabledCache) Delete(ctx context.Context, key string) error { return nil }
