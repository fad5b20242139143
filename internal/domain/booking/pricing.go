package booking

import "fmt"

// PricingStrategy defines the interface for estimating ride fares.
type PricingStrategy interface {
	// Calculate returns the fare for the given route figures.
	Calculate(params PricingParams) (Fare, error)
}

// PricingParams holds the inputs for fare calculation.
type PricingParams struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Fare is an unrounded fare estimate. Rounding happens only in Display.
type Fare struct {
	Amount      float64 `json:"amount"`
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
}

// FareDisplay is the rounded text shown in the fare panel.
type FareDisplay struct {
	Amount   string `json:"amount"`
	Distance string `json:"distance"`
	Duration string `json:"duration"`
}

// Display formats the fare for the fare panel.
func (f Fare) Display() FareDisplay {
	return FareDisplay{
		Amount:   fmt.Sprintf("%.2f", f.Amount),
		Distance: fmt.Sprintf("%.2f km", f.DistanceKm),
		Duration: fmt.Sprintf("%.0f min", f.DurationMin),
	}
}

const (
	perKilometerRate = 2.0
	perMinuteRate    = 0.5
)

// StandardPricingStrategy implements the linear distance and time fare.
type StandardPricingStrategy struct{}

// NewStandardPricingStrategy creates a new StandardPricingStrategy.
func NewStandardPricingStrategy() *StandardPricingStrategy {
	return &StandardPricingStrategy{}
}

// Calculate computes the fare.
//
// Pricing formula:
//   - Distance: 2.00 per km
//   - Time: 0.50 per minute
func (s *StandardPricingStrategy) Calculate(params PricingParams) (Fare, error) {
	if params.DistanceMeters < 0 {
		return Fare{}, fmt.Errorf("distance cannot be negative")
	}
	if params.DurationSeconds < 0 {
		return Fare{}, fmt.Errorf("duration cannot be negative")
	}

	distanceKm := params.DistanceMeters / 1000
	durationMin := params.DurationSeconds / 60

	return Fare{
		Amount:      distanceKm*perKilometerRate + durationMin*perMinuteRate,
		DistanceKm:  distanceKm,
		DurationMin: durationMin,
	}, nil
}
