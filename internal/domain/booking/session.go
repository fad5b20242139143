package booking

import (
	"errors"
	"time"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/pkg/domain"
	"github.com/google/uuid"
)

// ErrStaleRoute is returned by ApplyRoute for a response that no longer
// matches the session's latest route request.
var ErrStaleRoute = errors.New("route response superseded")

// Session is the aggregate root for one booking session: the single source of
// truth for pickup, dropoff, route and fare panel state.
type Session struct {
	id     uuid.UUID
	status SessionStatus

	pickup       *Coordinate
	pickupLabel  string
	dropoff      *Coordinate
	dropoffLabel string

	route       *Route
	fare        *Fare
	fareVisible bool

	pending *RouteRequest
	lastSeq uint64

	createdAt time.Time
	updatedAt time.Time
}

// NewSession creates a new Session with status=idle.
func NewSession() *Session {
	now := time.Now().UTC()
	return &Session{
		id:        uuid.New(),
		status:    StatusIdle,
		createdAt: now,
		updatedAt: now,
	}
}

// --- Getters ---

// ID returns the session's unique identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Status returns the current session status.
func (s *Session) Status() SessionStatus { return s.status }

// Pickup returns the pickup coordinate, or nil if unknown.
func (s *Session) Pickup() *Coordinate { return copyCoordinate(s.pickup) }

// PickupLabel returns the human label of the pickup, if resolved.
func (s *Session) PickupLabel() string { return s.pickupLabel }

// Dropoff returns the dropoff coordinate, or nil if not chosen.
func (s *Session) Dropoff() *Coordinate { return copyCoordinate(s.dropoff) }

// DropoffLabel returns the human label of the dropoff, if known.
func (s *Session) DropoffLabel() string { return s.dropoffLabel }

// Route returns the resolved route, or nil while none has been resolved.
func (s *Session) Route() *Route {
	if s.route == nil {
		return nil
	}
	r := *s.route
	r.Geometry = append([]Coordinate{}, s.route.Geometry...)
	return &r
}

// Fare returns the fare estimate, or nil when there is no usable route.
func (s *Session) Fare() *Fare {
	if s.fare == nil {
		return nil
	}
	f := *s.fare
	return &f
}

// FareVisible reports whether the fare panel is shown.
func (s *Session) FareVisible() bool { return s.fareVisible }

// PendingRoute returns the in-flight route request, or nil.
func (s *Session) PendingRoute() *RouteRequest {
	if s.pending == nil {
		return nil
	}
	req := *s.pending
	return &req
}

// CreatedAt returns the creation timestamp.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (s *Session) UpdatedAt() time.Time { return s.updatedAt }

// --- Behavior ---

// BeginLocating marks that a geolocation request is in flight.
func (s *Session) BeginLocating() error {
	if s.pickup != nil {
		return nil
	}
	return s.transition(StatusLocatingPickup)
}

// PickupUnavailable records a failed geolocation. The pickup stays unset.
func (s *Session) PickupUnavailable() error {
	if s.status != StatusLocatingPickup {
		return nil
	}
	return s.transition(StatusIdle)
}

// SetPickup records the pickup. It returns the route request to issue when a
// dropoff is already waiting, or nil when no fetch is needed.
func (s *Session) SetPickup(c Coordinate) (*RouteRequest, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if s.pickup != nil && *s.pickup == c && s.dropoff != nil && s.hasRouteFor(c, *s.dropoff) {
		return nil, nil
	}

	if s.pickup == nil || *s.pickup != c {
		s.pickupLabel = ""
	}
	s.pickup = &c
	if s.dropoff == nil {
		return nil, s.transition(StatusAwaitingDropoff)
	}
	return s.requestRoute()
}

// SetDropoff records the dropoff and shows the fare panel. It returns the
// route request to issue, or nil when the pickup is still unknown (the fetch
// is deferred until SetPickup) or the pair has already been requested.
func (s *Session) SetDropoff(c Coordinate, label string) (*RouteRequest, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if s.dropoff != nil && *s.dropoff == c && s.pickup != nil && s.hasRouteFor(*s.pickup, c) {
		if label != "" {
			s.dropoffLabel = label
		}
		return nil, nil
	}

	s.dropoff = &c
	s.dropoffLabel = label
	s.fareVisible = true
	s.route = nil
	s.fare = nil

	if s.pickup == nil {
		s.pending = nil
		s.touch()
		return nil, nil
	}
	return s.requestRoute()
}

// IsCurrent reports whether req is the latest request for the current pair.
func (s *Session) IsCurrent(req RouteRequest) bool {
	return s.pending != nil &&
		s.pending.Seq == req.Seq &&
		s.pickup != nil && *s.pickup == req.Pickup &&
		s.dropoff != nil && *s.dropoff == req.Dropoff
}

// ApplyRoute stores the result of req. Responses for superseded requests
// return ErrStaleRoute and change nothing. An empty route leaves the session
// in route_unavailable with no fare.
func (s *Session) ApplyRoute(req RouteRequest, route Route, pricing PricingStrategy) error {
	if !s.IsCurrent(req) {
		return ErrStaleRoute
	}

	if route.IsEmpty() {
		empty := EmptyRoute()
		s.pending = nil
		s.route = &empty
		s.fare = nil
		return s.transition(StatusRouteUnavailable)
	}

	fare, err := pricing.Calculate(PricingParams{
		DistanceMeters:  route.Distance,
		DurationSeconds: route.Duration,
	})
	if err != nil {
		return domain.NewValidationError("pricing error: " + err.Error())
	}

	stored := route
	stored.Geometry = append([]Coordinate{}, route.Geometry...)
	s.pending = nil
	s.route = &stored
	s.fare = &fare
	return s.transition(StatusFareReady)
}

// SetPickupLabel stores label if c is still the pickup.
func (s *Session) SetPickupLabel(c Coordinate, label string) bool {
	if s.pickup == nil || *s.pickup != c {
		return false
	}
	s.pickupLabel = label
	s.touch()
	return true
}

// SetDropoffLabel stores label if c is still the dropoff.
func (s *Session) SetDropoffLabel(c Coordinate, label string) bool {
	if s.dropoff == nil || *s.dropoff != c {
		return false
	}
	s.dropoffLabel = label
	s.touch()
	return true
}

// Confirm books the current fare and resets the session for the next ride.
// Only a session with a fare can be confirmed.
func (s *Session) Confirm() (Confirmation, error) {
	if s.status != StatusFareReady || s.fare == nil || s.route == nil {
		return Confirmation{}, domain.NewInvalidStateError(string(s.status), "confirmed")
	}

	number, err := generateBookingNumber()
	if err != nil {
		return Confirmation{}, err
	}

	confirmation := Confirmation{
		BookingNumber: number,
		SessionID:     s.id,
		Pickup:        *s.pickup,
		PickupLabel:   s.pickupLabel,
		Dropoff:       *s.dropoff,
		DropoffLabel:  s.dropoffLabel,
		DistanceKm:    s.route.DistanceKm(),
		DurationMin:   s.route.DurationMin(),
		Fare:          *s.fare,
		ConfirmedAt:   time.Now().UTC(),
	}

	if err := s.reset(); err != nil {
		return Confirmation{}, err
	}
	return confirmation, nil
}

// Cancel drops the dropoff, route and fare. The pickup is kept.
func (s *Session) Cancel() error {
	return s.reset()
}

func (s *Session) reset() error {
	s.dropoff = nil
	s.dropoffLabel = ""
	s.route = nil
	s.fare = nil
	s.fareVisible = false
	s.pending = nil

	switch {
	case s.pickup != nil:
		return s.transition(StatusAwaitingDropoff)
	default:
		// no pickup yet: idle or still locating, both unchanged
		s.touch()
		return nil
	}
}

func (s *Session) requestRoute() (*RouteRequest, error) {
	if err := s.transition(StatusRoutePending); err != nil {
		return nil, err
	}
	s.lastSeq++
	req := RouteRequest{Seq: s.lastSeq, Pickup: *s.pickup, Dropoff: *s.dropoff}
	s.pending = &req
	s.route = nil
	s.fare = nil
	out := req
	return &out, nil
}

// hasRouteFor reports whether the pair is already requested or resolved.
func (s *Session) hasRouteFor(pickup, dropoff Coordinate) bool {
	if s.pending != nil {
		return s.pending.Pickup == pickup && s.pending.Dropoff == dropoff
	}
	return s.route != nil
}

func (s *Session) transition(to SessionStatus) error {
	if !s.status.CanTransitionTo(to) {
		return domain.NewInvalidStateError(string(s.status), string(to))
	}
	s.status = to
	s.touch()
	return nil
}

func (s *Session) touch() {
	s.updatedAt = time.Now().UTC()
}

func copyCoordinate(c *Coordinate) *Coordinate {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}
