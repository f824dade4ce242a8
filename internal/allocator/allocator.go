// Package allocator issues globally unique short codes from a monotonic
// counter kept in Redis. Each allocation is a single atomic INCR, so
// concurrent callers can never be handed the same value, and the encoded
// code for a counter value is deterministic.
package allocator

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/link-shortener/pkg/base62"
)

// counterKey lives in its own namespace so it can never collide with link
// cache entries sharing the Redis database.
const counterKey = "kgs:unique_counter"

type CodeAllocator struct {
	client *redis.Client
}

func NewCodeAllocator(client *redis.Client) *CodeAllocator {
	return &CodeAllocator{
		client: client,
	}
}

// Allocate increments the shared counter and returns the base62 encoding of
// the new value. The counter is incremented before use, so the first code
// ever issued encodes 1. If the counter store is unreachable, the error is
// returned as is and no code is produced, so the caller must abort creation.
func (a *CodeAllocator) Allocate(ctx context.Context) (string, error) {
	const op = "allocator.CodeAllocator.Allocate"

	n, err := a.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return "", fmt.Errorf("%s: failed to increment counter: %w", op, err)
	}

	return base62.Encode(uint64(n)), nil
}
