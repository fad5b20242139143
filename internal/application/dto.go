package application

import (
	"time"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"
	"github.com/google/uuid"
)

// SessionDTO is the response representation of a booking session.
type SessionDTO struct {
	ID           uuid.UUID           `json:"id"`
	Status       string              `json:"status"`
	MapRendered  bool                `json:"map_rendered"`
	Pickup       *booking.Coordinate `json:"pickup"`
	PickupLabel  string              `json:"pickup_label,omitempty"`
	Dropoff      *booking.Coordinate `json:"dropoff"`
	DropoffLabel string              `json:"dropoff_label,omitempty"`
	Route        *RouteDTO           `json:"route,omitempty"`
	FareVisible  bool                `json:"fare_visible"`
	Fare         *FareDTO            `json:"fare,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// RouteDTO is the response representation of a route.
type RouteDTO struct {
	Distance    float64              `json:"distance"`
	Duration    float64              `json:"duration"`
	DistanceKm  float64              `json:"distance_km"`
	DurationMin float64              `json:"duration_min"`
	Geometry    []booking.Coordinate `json:"geometry"`
}

// FareDTO carries the raw fare plus its display strings.
type FareDTO struct {
	Amount      float64             `json:"amount"`
	DistanceKm  float64             `json:"distance_km"`
	DurationMin float64             `json:"duration_min"`
	Display     booking.FareDisplay `json:"display"`
}

// ConfirmationDTO is returned when a ride is booked.
type ConfirmationDTO struct {
	BookingNumber string             `json:"booking_number"`
	SessionID     uuid.UUID          `json:"session_id"`
	Pickup        booking.Coordinate `json:"pickup"`
	PickupLabel   string             `json:"pickup_label,omitempty"`
	Dropoff       booking.Coordinate `json:"dropoff"`
	DropoffLabel  string             `json:"dropoff_label,omitempty"`
	Fare          FareDTO            `json:"fare"`
	Message       string             `json:"message"`
	ConfirmedAt   time.Time          `json:"confirmed_at"`
}

func toSessionDTO(s *booking.Session, rendered bool) SessionDTO {
	dto := SessionDTO{
		ID:           s.ID(),
		Status:       string(s.Status()),
		MapRendered:  rendered,
		Pickup:       s.Pickup(),
		PickupLabel:  s.PickupLabel(),
		Dropoff:      s.Dropoff(),
		DropoffLabel: s.DropoffLabel(),
		FareVisible:  s.FareVisible(),
		CreatedAt:    s.CreatedAt(),
		UpdatedAt:    s.UpdatedAt(),
	}
	if r := s.Route(); r != nil {
		dto.Route = &RouteDTO{
			Distance:    r.Distance,
			Duration:    r.Duration,
			DistanceKm:  r.DistanceKm(),
			DurationMin: r.DurationMin(),
			Geometry:    r.Geometry,
		}
	}
	if f := s.Fare(); f != nil {
		fare := toFareDTO(*f)
		dto.Fare = &fare
	}
	return dto
}

func toFareDTO(f booking.Fare) FareDTO {
	return FareDTO{
		Amount:      f.Amount,
		DistanceKm:  f.DistanceKm,
		DurationMin: f.DurationMin,
		Display:     f.Display(),
	}
}

func toConfirmationDTO(c booking.Confirmation) ConfirmationDTO {
	fare := toFareDTO(c.Fare)
	return ConfirmationDTO{
		BookingNumber: c.BookingNumber,
		SessionID:     c.SessionID,
		Pickup:        c.Pickup,
		PickupLabel:   c.PickupLabel,
		Dropoff:       c.Dropoff,
		DropoffLabel:  c.DropoffLabel,
		Fare:          fare,
		Message:       "Ride booked! " + c.BookingNumber + " for $" + fare.Display.Amount,
		ConfirmedAt:   c.ConfirmedAt,
	}
}
