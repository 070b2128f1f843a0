// Package redisclient is the C1 key-value cache adapter: get/set/setex/incr
// /expire/del/ping over go-redis, with reconnect-with-backoff on initial
// dial and a capped-retry wrapper around transient command errors (spec.md
// §5 "client-side retry with capped exponential backoff on transient
// errors"). Grounded on the teacher's internal/platform/redis/client.go
// connection-test-on-construct shape.
package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"worldcup-predict/internal/platform/config"
)

// Client wraps the go-redis client with health checking and a bounded retry
// helper for transient errors.
type Client struct {
	*redis.Client
	maxRetries int
	baseDelay  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithRetry overrides the retry/backoff parameters used by WithRetry-wrapped
// commands. Defaults are 3 retries (4 attempts in all), 50ms base delay
// (doubling each retry).
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.baseDelay = baseDelay
	}
}

// New dials Redis with a bounded number of connect attempts, each separated
// by exponential backoff, so a cache that is briefly unavailable at process
// start doesn't fail the whole boot.
func New(cfg config.Redis, opts ...Option) (*Client, error) {
	redisOpts := &redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
	}

	client := &Client{
		Client:     redis.NewClient(redisOpts),
		maxRetries: 3,
		baseDelay:  50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(client)
	}

	ctx := context.Background()
	var lastErr error
	delay := client.baseDelay
	for attempt := 0; attempt <= client.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay *= 2
		}
		if err := client.Client.Ping(ctx).Err(); err != nil {
			lastErr = err
			continue
		}
		return client, nil
	}
	client.Client.Close()
	return nil, fmt.Errorf("redisclient: connect after %d attempts: %w", client.maxRetries+1, lastErr)
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.Client.Close()
}

// IsMissing reports whether err represents "key does not exist" (redis.Nil)
// rather than a real infrastructure failure.
func IsMissing(err error) bool {
	return errors.Is(err, redis.Nil)
}

// withRetry retries fn on transient (non-redis.Nil) errors with capped
// exponential backoff. redis.Nil is never retried — it's a normal result,
// not a transient failure.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := c.baseDelay
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		err := fn()
		if err == nil || errors.Is(err, redis.Nil) {
			return err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return lastErr
}

// GetString fetches a string value, retrying transient errors.
func (c *Client) GetString(ctx context.Context, key string) (string, error) {
	var val string
	err := c.withRetry(ctx, func() error {
		var innerErr error
		val, innerErr = c.Client.Get(ctx, key).Result()
		return innerErr
	})
	return val, err
}

// SetEx sets key to value with a TTL, retrying transient errors.
func (c *Client) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.withRetry(ctx, func() error {
		return c.Client.Set(ctx, key, value, ttl).Err()
	})
}

// Incr atomically increments key (creating it at 1 if absent), retrying
// transient errors. The write-first ordering this enables is relied on by
// the OTP verify-attempt counter (spec.md §5).
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	var n int64
	err := c.withRetry(ctx, func() error {
		var innerErr error
		n, innerErr = c.Client.Incr(ctx, key).Result()
		return innerErr
	})
	return n, err
}

// Expire sets a TTL on an existing key.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.withRetry(ctx, func() error {
		return c.Client.Expire(ctx, key, ttl).Err()
	})
}

// Del deletes one or more keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.withRetry(ctx, func() error {
		return c.Client.Del(ctx, keys...).Err()
	})
}

// Exists reports whether key is present.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := c.withRetry(ctx, func() error {
		var innerErr error
		n, innerErr = c.Client.Exists(ctx, key).Result()
		return innerErr
	})
	return n > 0, err
}
