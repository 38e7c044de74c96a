package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DocumentCache stores opaque byte documents under string keys with a fixed
// TTL. The registry client uses it to avoid re-downloading the multi-
// megabyte pool list every startup.
type DocumentCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewDocumentCache creates a DocumentCache backed by the given Client.
func NewDocumentCache(c *Client, ttl time.Duration) *DocumentCache {
	return &DocumentCache{rdb: c.rdb, ttl: ttl}
}

// Get returns the cached document and whether it was present.
func (dc *DocumentCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := dc.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return data, true, nil
}

// Set stores the document under key with the cache's TTL.
func (dc *DocumentCache) Set(ctx context.Context, key string, data []byte) error {
	if err := dc.rdb.Set(ctx, key, data, dc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}
