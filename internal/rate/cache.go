package rate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"landedcost/internal/freight"
)

// Cache stores raw provider payloads by query key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
}

// MemoryCache is an in-process TTL cache.
type MemoryCache struct {
	now func() time.Time
	mu  sync.RWMutex
	m   map[string]cacheEntry
}

type cacheEntry struct {
	body    []byte
	expires time.Time
}

func NewMemoryCache(now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{now: now, m: make(map[string]cacheEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expires) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.body, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, body []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.m[key] = cacheEntry{body: body, expires: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// RedisCache shares cached payloads between relay instances.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "freight:quote:"
	}
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, body, ttl).Err()
}

// Cached serves repeated queries from a Cache. Only payloads that parse as a
// usable quote are stored, so provider-reported errors are retried on the next
// call. Cache failures are logged and bypassed.
type Cached struct {
	next   Provider
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCached(next Provider, cache Cache, ttl time.Duration, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (c *Cached) Quote(ctx context.Context, q Query) ([]byte, error) {
	key := q.Key()
	if body, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("quote cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return body, nil
	}

	body, err := c.next.Quote(ctx, q)
	if err != nil {
		return nil, err
	}
	if _, perr := freight.ParseProviderQuote(body); perr != nil {
		c.logger.Debug("quote not cached", zap.String("key", key), zap.Error(perr))
		return body, nil
	}
	if err := c.cache.Set(ctx, key, body, c.ttl); err != nil {
		c.logger.Warn("quote cache write failed", zap.String("key", key), zap.Error(err))
	}
	return body, nil
}
