package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Confirmation is the acknowledgment handed back when a ride is booked.
type Confirmation struct {
	BookingNumber string     `json:"booking_number"`
	SessionID     uuid.UUID  `json:"session_id"`
	Pickup        Coordinate `json:"pickup"`
	PickupLabel   string     `json:"pickup_label,omitempty"`
	Dropoff       Coordinate `json:"dropoff"`
	DropoffLabel  string     `json:"dropoff_label,omitempty"`
	DistanceKm    float64    `json:"distance_km"`
	DurationMin   float64    `json:"duration_min"`
	Fare          Fare       `json:"fare"`
	ConfirmedAt   time.Time  `json:"confirmed_at"`
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}
