// Package directions fetches driving routes and normalises failures to the
// empty route.
package directions

import (
	"context"
	"time"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"
	"go.uber.org/zap"
)

// Cache stores resolved routes. Implemented by cache.RedisCache.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Service wraps a DirectionsProvider.
type Service struct {
	provider booking.DirectionsProvider
	cache    Cache
	logger   *zap.Logger
}

// NewService creates a Service. cache may be nil.
func NewService(provider booking.DirectionsProvider, cache Cache, logger *zap.Logger) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		logger:   logger,
	}
}

// GetRoute returns the driving route from origin to destination. Transport
// errors, malformed payloads and "no route" all return booking.EmptyRoute().
func (s *Service) GetRoute(ctx context.Context, origin, destination booking.Coordinate) booking.Route {
	key := "route:" + origin.String() + ";" + destination.String()

	if s.cache != nil {
		var cached booking.Route
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("route cache read failed", zap.String("key", key), zap.Error(err))
		} else if found && cached.Valid() {
			return cached
		}
	}

	start := time.Now()
	route, err := s.provider.Directions(ctx, origin, destination)
	if err != nil {
		s.logger.Warn("directions request failed",
			zap.String("origin", origin.String()),
			zap.String("destination", destination.String()),
			zap.Error(err),
		)
		return booking.EmptyRoute()
	}
	if route.IsEmpty() {
		s.logger.Info("no route found",
			zap.String("origin", origin.String()),
			zap.String("destination", destination.String()),
		)
		return booking.EmptyRoute()
	}
	if !route.Valid() {
		s.logger.Warn("malformed route discarded",
			zap.Int("points", len(route.Geometry)),
			zap.Float64("distance", route.Distance),
			zap.Float64("duration", route.Duration),
		)
		return booking.EmptyRoute()
	}

	s.logger.Debug("route resolved",
		zap.Float64("distance_m", route.Distance),
		zap.Float64("duration_s", route.Duration),
		zap.Duration("took", time.Since(start)),
	)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, route); err != nil {
			s.logger.Warn("route cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return route
}
