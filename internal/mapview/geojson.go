package mapview

import "github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"

// FeatureCollection is a GeoJSON feature collection as consumed by mapbox-gl sources.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single GeoJSON feature.
type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

// Geometry holds a Point ([lon, lat]) or LineString ([[lon, lat], ...]).
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

func newFeatureCollection(features ...Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}

func pointFeature(c booking.Coordinate, props map[string]any) Feature {
	return Feature{
		Type:       "Feature",
		Properties: props,
		Geometry:   Geometry{Type: "Point", Coordinates: c.LonLat()},
	}
}

func lineFeature(geometry []booking.Coordinate, props map[string]any) Feature {
	coords := make([][]float64, len(geometry))
	for i, c := range geometry {
		coords[i] = c.LonLat()
	}
	if props == nil {
		props = map[string]any{}
	}
	return Feature{
		Type:       "Feature",
		Properties: props,
		Geometry:   Geometry{Type: "LineString", Coordinates: coords},
	}
}
