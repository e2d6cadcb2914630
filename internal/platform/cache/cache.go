// Package cache connects to the Redis instance that holds shared counters
// such as daily AI token budgets.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultDialTimeout = 5 * time.Second
	defaultIOTimeout   = 3 * time.Second
)

// Cache wraps a Redis client.
type Cache struct {
	Client *redis.Client
}

// Option adjusts connection settings before dialing.
type Option func(*redis.Options)

// WithTimeouts overrides the dial and read/write timeouts.
func WithTimeouts(dial, io time.Duration) Option {
	return func(o *redis.Options) {
		o.DialTimeout = dial
		o.ReadTimeout = io
		o.WriteTimeout = io
	}
}

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// New connects to Redis at url and pings it once.
func New(ctx context.Context, url string, opts ...Option) (*Cache, error) {
	ro, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	ro.DialTimeout = defaultDialTimeout
	ro.ReadTimeout = defaultIOTimeout
	ro.WriteTimeout = defaultIOTimeout
	for _, opt := range opts {
		opt(ro)
	}

	client := redis.NewClient(ro)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache at %s: %w", ro.Addr, err)
	}

	return &Cache{Client: client}, nil
}

// Name identifies the dependency in readiness reports.
func (c *Cache) Name() string { return "cache" }

// Close shuts down the cache client.
func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck verifies the cache connection is alive.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}
