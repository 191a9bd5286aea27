package kvstore

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cached puts a read-through TTL cache in front of another Provider.
// Writes and deletes through the wrapper invalidate the cached entries.
type Cached struct {
	next  Provider
	cache *cache.Cache
}

// NewCached wraps next with a cache whose entries live for ttl.
func NewCached(next Provider, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func cacheKey(authKey, dataKey string) string {
	return authKey + "\x00" + dataKey
}

// Get serves from the cache when possible.
func (c *Cached) Get(ctx context.Context, authKey, dataKey string) (Item, error) {
	if x, found := c.cache.Get(cacheKey(authKey, dataKey)); found {
		return x.(Item), nil
	}
	it, err := c.next.Get(ctx, authKey, dataKey)
	if err != nil {
		return Item{}, err
	}
	c.cache.Set(cacheKey(authKey, dataKey), it, cache.DefaultExpiration)
	return it, nil
}

// Set writes through and invalidates.
func (c *Cached) Set(ctx context.Context, authKey, dataKey string, value []byte) error {
	c.cache.Delete(cacheKey(authKey, dataKey))
	return c.next.Set(ctx, authKey, dataKey, value)
}

// List is not cached.
func (c *Cached) List(ctx context.Context, authKey string) ([]Item, error) {
	return c.next.List(ctx, authKey)
}

// Delete removes through and invalidates.
func (c *Cached) Delete(ctx context.Context, authKey, dataKey string) error {
	c.cache.Delete(cacheKey(authKey, dataKey))
	return c.next.Delete(ctx, authKey, dataKey)
}

// DeleteAll removes through and drops every cached entry for authKey.
func (c *Cached) DeleteAll(ctx context.Context, authKey string) (int, error) {
	prefix := authKey + "\x00"
	for k := range c.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			c.cache.Delete(k)
		}
	}
	return c.next.DeleteAll(ctx, authKey)
}

// Close closes the wrapped provider.
func (c *Cached) Close() error {
	return c.next.Close()
}
