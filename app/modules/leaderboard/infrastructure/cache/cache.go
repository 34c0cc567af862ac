// Package leaderboardcache keeps rendered global leaderboard pages in Redis.
package leaderboardcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	globalPrefix = "ctf:leaderboard:global:"
	scanBatch    = 100
)

// Cache stores encoded global leaderboard pages.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect opens a Redis client from a redis:// URL and verifies it.
func Connect(ctx context.Context, url string, poolSize int) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if poolSize > 0 {
		opts.PoolSize = poolSize
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// New creates a Cache on an existing client. Entries expire after ttl.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GlobalKey is the key a page of the global board is stored under.
func GlobalKey(page, perPage int) string {
	return fmt.Sprintf("%s%d:%d", globalPrefix, page, perPage)
}

// GetGlobal returns a cached page. ok is false on a miss.
func (c *Cache) GetGlobal(ctx context.Context, page, perPage int) (data []byte, ok bool, err error) {
	data, err = c.client.Get(ctx, GlobalKey(page, perPage)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read leaderboard cache: %w", err)
	}
	return data, true, nil
}

// SetGlobal stores a page.
func (c *Cache) SetGlobal(ctx context.Context, page, perPage int, data []byte) error {
	if err := c.client.Set(ctx, GlobalKey(page, perPage), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write leaderboard cache: %w", err)
	}
	return nil
}

// Invalidate drops every cached global page.
func (c *Cache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, globalPrefix+"*", scanBatch).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan leaderboard cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate leaderboard cache: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
