package mapbox

import (
	"fmt"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"
)

type geocodingResponse struct {
	Features []geocodingFeature `json:"features"`
}

type geocodingFeature struct {
	PlaceName string    `json:"place_name"`
	Center    []float64 `json:"center"`
}

func (r geocodingResponse) locations() ([]booking.Location, error) {
	locations := make([]booking.Location, 0, len(r.Features))
	for i, f := range r.Features {
		if len(f.Center) < 2 {
			return nil, fmt.Errorf("feature %d: malformed center", i)
		}
		locations = append(locations, booking.Location{
			Name:       f.PlaceName,
			Coordinate: booking.Coordinate{Longitude: f.Center[0], Latitude: f.Center[1]},
		})
	}
	return locations, nil
}

type directionsResponse struct {
	Code   string            `json:"code"`
	Routes []directionsRoute `json:"routes"`
}

type directionsRoute struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Geometry struct {
		Type        string      `json:"type"`
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
}

func (r directionsResponse) route() (booking.Route, error) {
	if len(r.Routes) == 0 {
		return booking.EmptyRoute(), nil
	}

	first := r.Routes[0]
	geometry := make([]booking.Coordinate, 0, len(first.Geometry.Coordinates))
	for i, pt := range first.Geometry.Coordinates {
		if len(pt) < 2 {
			return booking.Route{}, fmt.Errorf("route point %d: malformed coordinate", i)
		}
		geometry = append(geometry, booking.Coordinate{Longitude: pt[0], Latitude: pt[1]})
	}

	return booking.Route{
		Distance: first.Distance,
		Duration: first.Duration,
		Geometry: geometry,
	}, nil
}
