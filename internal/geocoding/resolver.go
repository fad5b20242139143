// Package geocoding resolves search text into places and coordinates into labels.
package geocoding

import (
	"context"
	"fmt"
	"strings"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache stores lookup results. Implemented by cache.RedisCache.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Resolver wraps a GeocodingProvider. Failures are logged and reported as
// "no result"; callers never see provider errors.
type Resolver struct {
	provider booking.GeocodingProvider
	cache    Cache
	group    singleflight.Group
	logger   *zap.Logger
}

// NewResolver creates a Resolver. cache may be nil.
func NewResolver(provider booking.GeocodingProvider, cache Cache, logger *zap.Logger) *Resolver {
	return &Resolver{
		provider: provider,
		cache:    cache,
		logger:   logger,
	}
}

// Geocode returns locations matching term, best match first. Blank terms,
// provider failures and misses all yield an empty slice.
func (r *Resolver) Geocode(ctx context.Context, term string) []booking.Location {
	query := strings.TrimSpace(term)
	if query == "" {
		return []booking.Location{}
	}

	key := "geocode:" + strings.ToLower(query)
	v, err, _ := r.group.Do(key, func() (any, error) {
		var cached []booking.Location
		if r.lookupCache(ctx, key, &cached) {
			return cached, nil
		}

		locations, err := r.provider.Geocode(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("geocode %q: %w", query, err)
		}
		if len(locations) > 0 {
			r.storeCache(ctx, key, locations)
		}
		return locations, nil
	})
	if err != nil {
		r.logger.Warn("geocoding failed", zap.String("term", query), zap.Error(err))
		return []booking.Location{}
	}

	locations, _ := v.([]booking.Location)
	if locations == nil {
		return []booking.Location{}
	}
	return append([]booking.Location{}, locations...)
}

// Reverse returns the most specific place name at c, or "" when unknown.
func (r *Resolver) Reverse(ctx context.Context, c booking.Coordinate) string {
	if err := c.Validate(); err != nil {
		return ""
	}

	key := "reverse:" + c.String()
	v, err, _ := r.group.Do(key, func() (any, error) {
		var cached string
		if r.lookupCache(ctx, key, &cached) {
			return cached, nil
		}

		places, err := r.provider.ReverseGeocode(ctx, c)
		if err != nil {
			return "", fmt.Errorf("reverse geocode %s: %w", c, err)
		}
		if len(places) == 0 {
			return "", nil
		}
		r.storeCache(ctx, key, places[0].Name)
		return places[0].Name, nil
	})
	if err != nil {
		r.logger.Warn("reverse geocoding failed", zap.String("coordinate", c.String()), zap.Error(err))
		return ""
	}

	name, _ := v.(string)
	return name
}

func (r *Resolver) lookupCache(ctx context.Context, key string, dest any) bool {
	if r.cache == nil {
		return false
	}
	found, err := r.cache.Get(ctx, key, dest)
	if err != nil {
		r.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return found
}

func (r *Resolver) storeCache(ctx context.Context, key string, value any) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, key, value); err != nil {
		r.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
