package session

import (
	"context"
	"time"
)

const (
	tokenKeyPrefix    = "session:token:"
	refreshKeyPrefix  = "session:refresh:"
	refreshFreqPrefix = "refresh:frequency:"
)

// CacheClient is the subset of redisclient.Client the session cache needs.
type CacheClient interface {
	GetString(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Cache is C4: prefix→session-id pointer maps for access and refresh
// tokens, plus the per-user refresh-frequency counter.
type Cache struct {
	client CacheClient
}

// NewCache wraps a cache client for session-pointer storage.
func NewCache(client CacheClient) *Cache {
	return &Cache{client: client}
}

// SetTokenPointer caches session.id under the access-token prefix.
func (c *Cache) SetTokenPointer(ctx context.Context, prefix, sessionID string, ttl time.Duration) error {
	return c.client.SetEx(ctx, tokenKeyPrefix+prefix, sessionID, ttl)
}

// SessionIDByTokenPrefix resolves a cached access-token prefix to a session
// id. Returns redisclient.IsMissing(err) == true when absent.
func (c *Cache) SessionIDByTokenPrefix(ctx context.Context, prefix string) (string, error) {
	return c.client.GetString(ctx, tokenKeyPrefix+prefix)
}

// PurgeTokenPointer removes a stale access-token cache entry — used when a
// cache hit's session.id no longer verifies against the presented token.
func (c *Cache) PurgeTokenPointer(ctx context.Context, prefix string) error {
	return c.client.Del(ctx, tokenKeyPrefix+prefix)
}

// SetRefreshPointer caches session.id under the refresh-token prefix.
func (c *Cache) SetRefreshPointer(ctx context.Context, prefix, sessionID string, ttl time.Duration) error {
	return c.client.SetEx(ctx, refreshKeyPrefix+prefix, sessionID, ttl)
}

// SessionIDByRefreshPrefix resolves a cached refresh-token prefix to a
// session id.
func (c *Cache) SessionIDByRefreshPrefix(ctx context.Context, prefix string) (string, error) {
	return c.client.GetString(ctx, refreshKeyPrefix+prefix)
}

// IncrRefreshFrequency bumps the hourly per-user refresh counter, per
// spec.md §4.2's "increment per-user refresh counter with 1-h TTL."
func (c *Cache) IncrRefreshFrequency(ctx context.Context, userID string) (int64, error) {
	key := refreshFreqPrefix + userID
	n, err := c.client.Incr(ctx, key)
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := c.client.Expire(ctx, key, time.Hour); err != nil {
			return n, err
		}
	}
	return n, nil
}
