package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 500 * time.Millisecond
	defaultWriteTimeout = 500 * time.Millisecond
)

type Option func(*redis.Options)

func WithDialTimeout(d time.Duration) Option {
	return func(opts *redis.Options) {
		opts.DialTimeout = d
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(opts *redis.Options) {
		opts.ReadTimeout = d
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(opts *redis.Options) {
		opts.WriteTimeout = d
	}
}

// New connects to the redis server at addr and verifies the connection
// with a ping before returning the client.
func New(ctx context.Context, addr, password string, db int, opts ...Option) (*redis.Client, error) {
	const op = "redis.New"

	options := &redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	for _, opt := range opts {
		opt(options)
	}

	client := redis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
	}

	return client, nil
}
