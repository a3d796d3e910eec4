package catalog

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores raw tier payloads in Redis. Payloads are cached byte-for-byte
// so the parser sees exactly what the store returned.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A nil client or non-positive TTL makes
// every operation a no-op.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(productID string) string {
	return "tiers:product:" + productID
}

// Get returns the cached payload and reports whether the key existed.
func (c *Cache) Get(ctx context.Context, productID string) ([]byte, bool, error) {
	if c == nil || c.client == nil || productID == "" {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, cacheKey(productID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set stores the payload with the configured TTL.
func (c *Cache) Set(ctx context.Context, productID string, payload []byte) error {
	if c == nil || c.client == nil || c.ttl <= 0 || productID == "" {
		return nil
	}
	return c.client.Set(ctx, cacheKey(productID), payload, c.ttl).Err()
}

// Invalidate drops the cached payload after a catalog mutation.
func (c *Cache) Invalidate(ctx context.Context, productID string) error {
	if c == nil || c.client == nil || productID == "" {
		return nil
	}
	return c.client.Del(ctx, cacheKey(productID)).Err()
}
