package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/gumdrop/internal/observability"
	"github.com/neexbeast/gumdrop/internal/stay"
)

const defaultTTL = 24 * time.Hour

// ErrCorrupt is returned by Get when a stored entry cannot be decoded.
var ErrCorrupt = errors.New("cache: corrupt entry")

// Cache wraps a Redis client and stores resolved geocoding coordinates.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache. A non-positive ttl selects 24 hours.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// key returns the Redis key for a location query and its fallback address.
func key(text, fallback string) string {
	return "geocode:" + normalize(text) + "|" + normalize(fallback)
}

// Get retrieves cached coordinates.
// Returns nil, nil on a cache miss (not an error).
func (c *Cache) Get(ctx context.Context, text, fallback string) (*stay.Coordinates, error) {
	val, err := c.client.Get(ctx, key(text, fallback)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			observability.ObserveCache("geocode", "miss")
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for %q: %w", text, err)
	}

	var coords stay.Coordinates
	if err := json.Unmarshal([]byte(val), &coords); err != nil {
		return nil, fmt.Errorf("%w for %q: %w", ErrCorrupt, text, err)
	}

	observability.ObserveCache("geocode", "hit")
	return &coords, nil
}

// Set stores coordinates with the configured TTL.
func (c *Cache) Set(ctx context.Context, text, fallback string, coords stay.Coordinates) error {
	b, err := json.Marshal(coords)
	if err != nil {
		return fmt.Errorf("marshaling coordinates for %q: %w", text, err)
	}

	if err := c.client.Set(ctx, key(text, fallback), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for %q: %w", text, err)
	}

	observability.ObserveCache("geocode", "set")
	return nil
}

// Delete removes the cached entry for a query.
func (c *Cache) Delete(ctx context.Context, text, fallback string) error {
	if err := c.client.Del(ctx, key(text, fallback)).Err(); err != nil {
		return fmt.Errorf("cache delete for %q: %w", text, err)
	}
	observability.ObserveCache("geocode", "del")
	return nil
}
