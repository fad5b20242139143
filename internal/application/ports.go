package application

import (
	"context"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"
)

// LocationResolver turns search text into places and coordinates into labels.
// Implemented by geocoding.Resolver.
type LocationResolver interface {
	Geocode(ctx context.Context, term string) []booking.Location
	Reverse(ctx context.Context, c booking.Coordinate) string
}

// RouteService resolves driving routes. Implemented by directions.Service.
type RouteService interface {
	GetRoute(ctx context.Context, origin, destination booking.Coordinate) booking.Route
}

// EventPublisher announces confirmed bookings. Implemented by events.KafkaPublisher.
type EventPublisher interface {
	PublishConfirmed(ctx context.Context, c booking.Confirmation) error
}

// SessionNotifier is told about every visible change of a session.
type SessionNotifier interface {
	SessionChanged(state SessionDTO)
	BookingConfirmed(confirmation ConfirmationDTO)
}

type nopNotifier struct{}

func (nopNotifier) SessionChanged(SessionDTO)        {}
func (nopNotifier) BookingConfirmed(ConfirmationDTO) {}

type nopPublisher struct{}

func (nopPublisher) PublishConfirmed(context.Context, booking.Confirmation) error { return nil }
