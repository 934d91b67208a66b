package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/emberchat/emberchat-backend/internal/platform/envutil"
	"github.com/emberchat/emberchat-backend/internal/platform/logger"
)

// Aside implements the cache-aside read path over a Cache. Every backend
// failure degrades to a direct loader call; the caller never sees a cache
// error, only the loader's result.
type Aside struct {
	c   Cache
	log *logger.Logger
	ttl time.Duration
}

func NewAside(c Cache, log *logger.Logger) *Aside {
	ttlSeconds := envutil.GetEnvAsInt("CACHE_TTL_SECONDS", 60, log)
	if ttlSeconds <= 0 {
		ttlSeconds = 60
	}
	return &Aside{
		c:   c,
		log: log.With("service", "CacheAside"),
		ttl: time.Duration(ttlSeconds) * time.Second,
	}
}

func (a *Aside) TTL() time.Duration { return a.ttl }

// Peek decodes a cached entry without loading on miss. The builder of the
// generation context window reads through the cache this way and leaves
// population to the room read paths.
func Peek[T any](ctx context.Context, a *Aside, key string) (T, bool) {
	var zero T
	if a == nil || a.c == nil {
		return zero, false
	}
	raw, err := a.c.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			a.log.Warn("cache get failed; treating as miss", "cache_key", key, "error", err)
		}
		return zero, false
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		a.log.Warn("cache entry undecodable; treating as miss", "cache_key", key, "error", err)
		return zero, false
	}
	return out, true
}

// GetOrLoad returns the cached value for key, or calls loader, stores its
// result with the configured TTL, and returns it. Hits and misses must return
// exactly what the loader would have.
func GetOrLoad[T any](ctx context.Context, a *Aside, key string, loader func(context.Context) (T, error)) (T, error) {
	if out, ok := Peek[T](ctx, a, key); ok {
		return out, nil
	}

	out, err := loader(ctx)
	if err != nil {
		return out, err
	}

	raw, err := json.Marshal(out)
	if err != nil {
		a.log.Warn("cache encode failed; skipping store", "cache_key", key, "error", err)
		return out, nil
	}
	if err := a.c.Set(ctx, key, raw, a.ttl); err != nil {
		a.log.Warn("cache set failed", "cache_key", key, "error", err)
	}
	return out, nil
}

// Invalidate deletes the given keys. Deleting an absent key is a no-op and
// failures are logged only; callers must already hold a durable store state.
func (a *Aside) Invalidate(ctx context.Context, keys ...string) {
	if a == nil || a.c == nil {
		return
	}
	for _, key := range keys {
		if err := a.c.Delete(ctx, key); err != nil {
			a.log.Warn("cache invalidate failed", "cache_key", key, "error", err)
		}
	}
}
