// Package googlemaps implements geocoding and directions on the Google Maps
// Platform web services.
package googlemaps

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"
	"go.uber.org/zap"
	maps "googlemaps.github.io/maps"
)

// Config configures a Client.
type Config struct {
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
}

// Client adapts the Google Maps SDK to the booking provider ports.
type Client struct {
	maps   *maps.Client
	logger *zap.Logger
}

var (
	_ booking.GeocodingProvider  = (*Client)(nil)
	_ booking.DirectionsProvider = (*Client)(nil)
)

// NewClient creates a Client. BaseURL is only set in tests.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := []maps.ClientOption{
		maps.WithAPIKey(cfg.APIKey),
		maps.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RatePerSecond >= 1 {
		opts = append(opts, maps.WithRateLimit(int(cfg.RatePerSecond)))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("maps.NewClient: %w", err)
	}
	return &Client{maps: client, logger: logger}, nil
}

// Geocode searches places matching query.
func (c *Client) Geocode(ctx context.Context, query string) ([]booking.Location, error) {
	results, err := c.maps.Geocode(ctx, &maps.GeocodingRequest{Address: query})
	if err != nil {
		return nil, fmt.Errorf("google geocode: %w", err)
	}
	return toLocations(results), nil
}

// ReverseGeocode returns places at coord, most specific first.
func (c *Client) ReverseGeocode(ctx context.Context, coord booking.Coordinate) ([]booking.Location, error) {
	results, err := c.maps.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: coord.Latitude, Lng: coord.Longitude},
	})
	if err != nil {
		return nil, fmt.Errorf("google reverse geocode: %w", err)
	}
	return toLocations(results), nil
}

// Directions returns the first driving route. Distance and duration are the
// sums over its legs; geometry is the decoded overview polyline.
func (c *Client) Directions(ctx context.Context, origin, destination booking.Coordinate) (booking.Route, error) {
	routes, _, err := c.maps.Directions(ctx, &maps.DirectionsRequest{
		Origin:      latLngString(origin),
		Destination: latLngString(destination),
		Mode:        maps.TravelModeDriving,
	})
	if err != nil {
		return booking.Route{}, fmt.Errorf("google directions: %w", err)
	}
	if len(routes) == 0 {
		return booking.EmptyRoute(), nil
	}

	first := routes[0]
	points, err := first.OverviewPolyline.Decode()
	if err != nil {
		return booking.Route{}, fmt.Errorf("decode overview polyline: %w", err)
	}

	var meters int
	var duration time.Duration
	for _, leg := range first.Legs {
		if leg == nil {
			continue
		}
		meters += leg.Distance.Meters
		duration += leg.Duration
	}

	geometry := make([]booking.Coordinate, len(points))
	for i, p := range points {
		geometry[i] = booking.Coordinate{Longitude: p.Lng, Latitude: p.Lat}
	}

	return booking.Route{
		Distance: float64(meters),
		Duration: duration.Seconds(),
		Geometry: geometry,
	}, nil
}

func toLocations(results []maps.GeocodingResult) []booking.Location {
	locations := make([]booking.Location, 0, len(results))
	for _, r := range results {
		locations = append(locations, booking.Location{
			Name: r.FormattedAddress,
			Coordinate: booking.Coordinate{
				Longitude: r.Geometry.Location.Lng,
				Latitude:  r.Geometry.Location.Lat,
			},
		})
	}
	return locations
}

// latLngString formats c the way the web services expect: "lat,lng".
func latLngString(c booking.Coordinate) string {
	return fmt.Sprintf("%f,%f", c.Latitude, c.Longitude)
}
