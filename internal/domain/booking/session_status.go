package booking

import "fmt"

// SessionStatus represents where a booking session is in the route-and-fare flow.
type SessionStatus string

const (
	StatusIdle             SessionStatus = "idle"
	StatusLocatingPickup   SessionStatus = "locating_pickup"
	StatusAwaitingDropoff  SessionStatus = "awaiting_dropoff"
	StatusRoutePending     SessionStatus = "route_pending"
	StatusFareReady        SessionStatus = "fare_ready"
	StatusRouteUnavailable SessionStatus = "route_unavailable"
)

// validTransitions defines the state machine for session status transitions.
// Staying in the same status is always allowed.
var validTransitions = map[SessionStatus][]SessionStatus{
	StatusIdle:             {StatusLocatingPickup, StatusAwaitingDropoff, StatusRoutePending},
	StatusLocatingPickup:   {StatusIdle, StatusAwaitingDropoff, StatusRoutePending},
	StatusAwaitingDropoff:  {StatusRoutePending},
	StatusRoutePending:     {StatusFareReady, StatusRouteUnavailable, StatusAwaitingDropoff},
	StatusFareReady:        {StatusRoutePending, StatusAwaitingDropoff},
	StatusRouteUnavailable: {StatusRoutePending, StatusAwaitingDropoff},
}

// IsValid returns true if the status is a recognized session status.
func (s SessionStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	if s == target {
		return s.IsValid()
	}
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// String returns the string representation of the status.
func (s SessionStatus) String() string {
	return string(s)
}

// ParseSessionStatus converts a string to a SessionStatus, returning an error if invalid.
func ParseSessionStatus(s string) (SessionStatus, error) {
	status := SessionStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid session status: %s", s)
	}
	return status, nil
}
