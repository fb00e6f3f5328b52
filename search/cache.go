package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/m4xw311/searchagent/errors"
	"github.com/redis/go-redis/v9"
)

// Store is a result cache keyed by normalized query.
type Store interface {
	Get(ctx context.Context, key string) ([]Result, bool)
	Set(ctx context.Context, key string, results []Result)
}

// Cached serves repeated queries from a Store. Failed searches are never cached.
type Cached struct {
	next  Provider
	store Store
}

// NewCached wraps p with the given store.
func NewCached(p Provider, store Store) *Cached {
	return &Cached{next: p, store: store}
}

func (c *Cached) Name() string { return c.next.Name() }

func (c *Cached) Search(ctx context.Context, query string, count int) ([]Result, error) {
	key := cacheKey(c.next.Name(), query, normalizeCount(count))
	if results, ok := c.store.Get(ctx, key); ok {
		slog.Debug("search.cache_hit", "provider", c.next.Name(), "query", query)
		return results, nil
	}
	results, err := c.next.Search(ctx, query, count)
	if err != nil {
		return nil, err
	}
	c.store.Set(ctx, key, results)
	return results, nil
}

func cacheKey(provider, query string, count int) string {
	q := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return fmt.Sprintf("searchagent:%s:%d:%s", provider, count, q)
}

// MemoryStore is an in-process LRU with per-entry expiry.
type MemoryStore struct {
	lru *expirable.LRU[string, []Result]
}

func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = 256
	}
	return &MemoryStore{lru: expirable.NewLRU[string, []Result](size, nil, ttl)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]Result, bool) {
	return m.lru.Get(key)
}

func (m *MemoryStore) Set(_ context.Context, key string, results []Result) {
	m.lru.Add(key, results)
}

// RedisStore shares cached results between several service instances.
// Redis errors degrade to cache misses.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to the Redis server at rawURL (redis://host:port/db).
func NewRedisStore(ctx context.Context, rawURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "failed to reach redis at %s", opts.Addr)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]Result, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("search.cache_error", "op", "get", "error", err)
		}
		return nil, false
	}
	var results []Result
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, false
	}
	return results, true
}

func (r *RedisStore) Set(ctx context.Context, key string, results []Result) {
	data, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		slog.Warn("search.cache_error", "op", "set", "error", err)
	}
}

func (r *RedisStore) Close() error { return r.client.Close() }
