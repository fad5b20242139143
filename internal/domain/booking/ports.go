package booking

import "context"

// GeocodingProvider turns free text into places and places into labels.
type GeocodingProvider interface {
	// Geocode returns matches for query, best first. No match is an empty slice, not an error.
	Geocode(ctx context.Context, query string) ([]Location, error)

	// ReverseGeocode returns places at c, most specific first.
	ReverseGeocode(ctx context.Context, c Coordinate) ([]Location, error)
}

// DirectionsProvider computes driving routes.
type DirectionsProvider interface {
	// Directions returns the best route, or EmptyRoute when the provider found none.
	Directions(ctx context.Context, origin, destination Coordinate) (Route, error)
}

// MarkerRole names the two markers a map shows.
type MarkerRole string

const (
	MarkerPickup  MarkerRole = "pickup"
	MarkerDropoff MarkerRole = "dropoff"
)

// MapView is the rendering surface of a booking session.
type MapView interface {
	// Initialize creates the map. Failure leaves the view unrendered; callers keep going.
	Initialize(container string, center Coordinate, zoom float64) error

	// SetMarker places or moves the single marker for role.
	SetMarker(role MarkerRole, c Coordinate)

	// RemoveMarker drops the marker for role if present.
	RemoveMarker(role MarkerRole)

	// SetRoute upserts the single route overlay.
	SetRoute(geometry []Coordinate)

	// ClearRoute removes the route overlay; no-op when none exists.
	ClearRoute()

	// FlyTo moves the camera.
	FlyTo(c Coordinate, zoom float64)

	// OnClick registers a handler for clicks on the map.
	OnClick(handler func(Coordinate))

	// Teardown releases the map. Idempotent.
	Teardown()
}
