package booking

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/pkg/domain"
)

// Coordinate is an immutable WGS84 position.
type Coordinate struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// NewCoordinate builds a Coordinate and validates its ranges.
func NewCoordinate(longitude, latitude float64) (Coordinate, error) {
	c := Coordinate{Longitude: longitude, Latitude: latitude}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Validate checks the latitude and longitude ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return domain.NewValidationError("coordinate is not a number")
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return domain.NewValidationError(fmt.Sprintf("latitude out of range: %v", c.Latitude))
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return domain.NewValidationError(fmt.Sprintf("longitude out of range: %v", c.Longitude))
	}
	return nil
}

// LonLat returns the GeoJSON position order.
func (c Coordinate) LonLat() []float64 {
	return []float64{c.Longitude, c.Latitude}
}

// String formats the coordinate as "lon,lat".
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Longitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Latitude, 'f', -1, 64)
}

// Location is a named coordinate produced by geocoding.
type Location struct {
	Name       string     `json:"name"`
	Coordinate Coordinate `json:"coordinate"`
}

// Route is a drivable path between two coordinates.
// Distance is in meters and Duration in seconds.
type Route struct {
	Distance float64      `json:"distance"`
	Duration float64      `json:"duration"`
	Geometry []Coordinate `json:"geometry"`
}

// EmptyRoute returns the zero route used whenever no route could be computed.
// Geometry is an empty, non-nil slice.
func EmptyRoute() Route {
	return Route{Geometry: []Coordinate{}}
}

// IsEmpty reports whether the route has no path.
func (r Route) IsEmpty() bool {
	return len(r.Geometry) == 0
}

// Valid reports whether r is a well-formed non-empty route.
func (r Route) Valid() bool {
	return len(r.Geometry) >= 2 && r.Distance >= 0 && r.Duration >= 0
}

// DistanceKm returns the distance in kilometers.
func (r Route) DistanceKm() float64 { return r.Distance / 1000 }

// DurationMin returns the duration in minutes.
func (r Route) DurationMin() float64 { return r.Duration / 60 }

// RouteRequest identifies one route fetch. Seq grows with every request a
// session issues, so a late response can be matched against the latest one.
type RouteRequest struct {
	Seq     uint64
	Pickup  Coordinate
	Dropoff Coordinate
}
