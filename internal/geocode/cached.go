package geocode

import (
	"context"
	"errors"
	"log/slog"

	"github.com/neexbeast/gumdrop/internal/cache"
	"github.com/neexbeast/gumdrop/internal/stay"
)

// Resolver is anything that turns a location query into coordinates.
type Resolver interface {
	Resolve(ctx context.Context, text, fallbackAddress string) (stay.Coordinates, error)
}

// Cache is the subset of the Redis cache the resolver needs.
type Cache interface {
	Get(ctx context.Context, text, fallback string) (*stay.Coordinates, error)
	Set(ctx context.Context, text, fallback string, coords stay.Coordinates) error
	Delete(ctx context.Context, text, fallback string) error
}

// CachedResolver serves repeat queries from the cache. Cache errors are
// logged and treated as misses; undecodable entries are evicted.
type CachedResolver struct {
	next  Resolver
	cache Cache
	log   *slog.Logger
}

// NewCachedResolver wraps next with cache.
func NewCachedResolver(next Resolver, cache Cache, log *slog.Logger) *CachedResolver {
	if log == nil {
		log = slog.Default()
	}
	return &CachedResolver{next: next, cache: cache, log: log}
}

func (r *CachedResolver) Resolve(ctx context.Context, text, fallbackAddress string) (stay.Coordinates, error) {
	if text != "" {
		cached, err := r.cache.Get(ctx, text, fallbackAddress)
		if err != nil {
			r.log.Warn("geocode cache read failed", "location", text, "err", err)
			if errors.Is(err, cache.ErrCorrupt) {
				if derr := r.cache.Delete(ctx, text, fallbackAddress); derr != nil {
					r.log.Warn("geocode cache evict failed", "location", text, "err", derr)
				}
			}
		} else if cached != nil {
			return *cached, nil
		}
	}

	coords, err := r.next.Resolve(ctx, text, fallbackAddress)
	if err != nil {
		return coords, err
	}

	if err := r.cache.Set(ctx, text, fallbackAddress, coords); err != nil {
		r.log.Warn("geocode cache write failed", "location", text, "err", err)
	}
	return coords, nil
}
