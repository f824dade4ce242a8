// Package cache implements the resolution cache in front of the link store.
// It holds expiring shortCode -> destination URL entries and is never the
// source of truth: on any inconsistency the store wins.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a short code has no cached entry. A miss is the
// expected steady state for cold codes, not a failure.
var ErrMiss = errors.New("cache miss")

// linkKeyPrefix namespaces link entries away from other keys sharing the
// same Redis database, the counter key in particular.
const linkKeyPrefix = "link:"

type LinkCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLinkCache(client *redis.Client, ttl time.Duration) *LinkCache {
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &LinkCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached destination URL for shortCode or ErrMiss.
func (c *LinkCache) Get(ctx context.Context, shortCode string) (string, error) {
	const op = "cache.LinkCache.Get"

	destinationURL, err := c.client.Get(ctx, linkKeyPrefix+shortCode).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%s: %w", op, ErrMiss)
		}

		return "", fmt.Errorf("%s: failed to get cache entry: %w", op, err)
	}

	return destinationURL, nil
}

// Set stores the shortCode -> destinationURL projection with the configured TTL.
func (c *LinkCache) Set(ctx context.Context, shortCode, destinationURL string) error {
	const op = "cache.LinkCache.Set"

	if err := c.client.Set(ctx, linkKeyPrefix+shortCode, destinationURL, c.ttl).Err(); err != nil {
		return fmt.Errorf("%s: failed to set cache entry: %w", op, err)
	}

	return nil
}

// Invalidate drops the entry for shortCode. Deleting an absent key is not an error.
func (c *LinkCache) Invalidate(ctx context.Context, shortCode string) error {
	const op = "cache.LinkCache.Invalidate"

	if err := c.client.Del(ctx, linkKeyPrefix+shortCode).Err(); err != nil {
		return fmt.Errorf("%s: failed to invalidate cache entry: %w", op, err)
	}

	return nil
}
