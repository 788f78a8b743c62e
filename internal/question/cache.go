package question

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 30 * time.Minute

// Cache stores generated question packs keyed by category+difficulty
// (see CacheKey). A Set replaces any prior entry for the key. Entries
// are never explicitly invalidated; the per-session used set filters
// out questions already shown.
type Cache interface {
	Get(ctx context.Context, key string) ([]Question, error)
	Set(ctx context.Context, key string, qs []Question) error
}

// MemoryCache is the default in-process cache.
type MemoryCache struct {
	mu    sync.RWMutex
	packs map[string][]Question
}

var _ Cache = (*MemoryCache)(nil)

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{packs: make(map[string][]Question)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]Question, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	qs := c.packs[key]
	out := make([]Question, len(qs))
	copy(out, qs)
	return out, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, qs []Question) error {
	cp := make([]Question, len(qs))
	copy(cp, qs)
	c.mu.Lock()
	c.packs[key] = cp
	c.mu.Unlock()
	return nil
}

// RedisCache shares generated packs across instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) key(key string) string {
	return "questionpack:" + key
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]Question, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var qs []Question
	if err := json.Unmarshal(data, &qs); err != nil {
		return nil, err
	}
	return qs, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, qs []Question) error {
	data, err := json.Marshal(qs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), data, c.ttl).Err()
}
