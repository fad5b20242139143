package application

import (
	"context"
	"errors"
	"sync"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/pkg/domain"
	"go.uber.org/zap"
)

// FlowSettings holds the map defaults used by every session.
type FlowSettings struct {
	Container string
	Center    booking.Coordinate
	Zoom      float64
	FocusZoom float64
}

// DefaultFlowSettings centres the map on San Juan, Puerto Rico.
func DefaultFlowSettings() FlowSettings {
	return FlowSettings{
		Container: "map",
		Center:    booking.Coordinate{Longitude: -66.065437, Latitude: 18.423933},
		Zoom:      10,
		FocusZoom: 12,
	}
}

// FlowDeps are the collaborators shared by all booking flows.
type FlowDeps struct {
	Resolver  LocationResolver
	Routes    RouteService
	Pricing   booking.PricingStrategy
	Publisher EventPublisher
	Notifier  SessionNotifier
	Settings  FlowSettings
	Logger    *zap.Logger
}

// clicker is implemented by views that can replay a browser click.
type clicker interface {
	Click(c booking.Coordinate) error
}

type renderer interface {
	Rendered() bool
}

// BookingFlow drives one booking session. Every event is applied under a
// single mutex, so the session sees them one at a time in arrival order.
// Route and label lookups run in the background and re-enter the lock when
// they complete.
type BookingFlow struct {
	mu      sync.Mutex
	session *booking.Session
	view    booking.MapView
	deps    FlowDeps
	logger  *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	closed  bool

	// searchSeq advances on every search and every dropoff change; a
	// geocode result applies only while its number is still current.
	searchSeq uint64
}

// NewBookingFlow creates a flow for session rendering into view.
func NewBookingFlow(session *booking.Session, view booking.MapView, deps FlowDeps) *BookingFlow {
	if deps.Pricing == nil {
		deps.Pricing = booking.NewStandardPricingStrategy()
	}
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Publisher == nil {
		deps.Publisher = nopPublisher{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Settings == (FlowSettings{}) {
		deps.Settings = DefaultFlowSettings()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &BookingFlow{
		session: session,
		view:    view,
		deps:    deps,
		logger:  deps.Logger.With(zap.String("session_id", session.ID().String())),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start initialises the map and waits for the browser's geolocation report.
// A map that cannot render is logged and the flow carries on without it.
func (f *BookingFlow) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkOpen("started"); err != nil {
		return err
	}
	if f.started {
		return nil
	}
	f.started = true

	s := f.deps.Settings
	if err := f.view.Initialize(s.Container, s.Center, s.Zoom); err != nil {
		f.logger.Error("map view unavailable", zap.Error(err))
	}
	f.view.OnClick(f.handleClick)

	if err := f.session.BeginLocating(); err != nil {
		return err
	}
	f.notifyLocked()
	return nil
}

// PickupLocated records the device position as the pickup.
func (f *BookingFlow) PickupLocated(c booking.Coordinate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkOpen("pickup_set"); err != nil {
		return err
	}
	return f.setPickupLocked(c)
}

// PickupFailed records that geolocation was denied or unavailable. The
// pickup stays unset until the user clicks the map.
func (f *BookingFlow) PickupFailed(reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkOpen("pickup_failed"); err != nil {
		return err
	}
	f.logger.Warn("geolocation failed", zap.String("reason", reason))
	if err := f.session.PickupUnavailable(); err != nil {
		return err
	}
	f.notifyLocked()
	return nil
}

// SubmitSearch geocodes term and takes the best match as the dropoff. It
// returns nil when nothing matched, or when a later search or dropoff
// change superseded this one; the session is unchanged in both cases.
func (f *BookingFlow) SubmitSearch(ctx context.Context, term string) (*booking.Location, error) {
	f.mu.Lock()
	if err := f.checkOpen("searched"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.searchSeq++
	seq := f.searchSeq
	f.mu.Unlock()

	locations := f.deps.Resolver.Geocode(ctx, term)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkOpen("searched"); err != nil {
		return nil, err
	}
	if seq != f.searchSeq {
		f.logger.Debug("stale search result dropped", zap.String("term", term), zap.Uint64("seq", seq))
		return nil, nil
	}
	if len(locations) == 0 {
		f.logger.Info("search returned no results", zap.String("term", term))
		return nil, nil
	}
	best := locations[0]

	if err := f.selectDropoffLocked(best.Coordinate, best.Name); err != nil {
		return nil, err
	}
	return &best, nil
}

// SelectDropoff sets the dropoff directly.
func (f *BookingFlow) SelectDropoff(c booking.Coordinate, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkOpen("dropoff_set"); err != nil {
		return err
	}
	return f.selectDropoffLocked(c, label)
}

// Click replays a map click from the browser.
func (f *BookingFlow) Click(c booking.Coordinate) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := f.ensureOpen("clicked"); err != nil {
		return err
	}

	cv, ok := f.view.(clicker)
	if !ok {
		f.handleClick(c)
		return nil
	}
	if err := cv.Click(c); err != nil {
		return domain.NewInvalidStateError("map_unavailable", "clicked")
	}
	return nil
}

// handleClick sets the pickup while it is unknown and no geolocation is in
// flight; every other click moves the dropoff.
func (f *BookingFlow) handleClick(c booking.Coordinate) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}

	var err error
	if f.session.Pickup() == nil && f.session.Status() != booking.StatusLocatingPickup {
		err = f.setPickupLocked(c)
	} else {
		err = f.selectDropoffLocked(c, "")
	}
	if err != nil {
		f.logger.Warn("map click rejected", zap.String("coordinate", c.String()), zap.Error(err))
	}
}

// Confirm books the displayed fare. Only a session showing a fare can be
// confirmed. The dropoff, route and fare are cleared; the pickup stays.
func (f *BookingFlow) Confirm(ctx context.Context) (*ConfirmationDTO, error) {
	f.mu.Lock()
	if err := f.checkOpen("confirmed"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	confirmation, err := f.session.Confirm()
	if err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.searchSeq++
	f.view.RemoveMarker(booking.MarkerDropoff)
	f.view.ClearRoute()
	f.notifyLocked()
	f.mu.Unlock()

	f.logger.Info("booking confirmed",
		zap.String("booking_number", confirmation.BookingNumber),
		zap.Float64("fare", confirmation.Fare.Amount),
	)

	if err := f.deps.Publisher.PublishConfirmed(ctx, confirmation); err != nil {
		f.logger.Error("failed to publish booking confirmation",
			zap.String("booking_number", confirmation.BookingNumber),
			zap.Error(err),
		)
	}

	dto := toConfirmationDTO(confirmation)
	f.deps.Notifier.BookingConfirmed(dto)
	return &dto, nil
}

// Cancel discards the dropoff, route and fare. The pickup stays.
func (f *BookingFlow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkOpen("cancelled"); err != nil {
		return err
	}
	if err := f.session.Cancel(); err != nil {
		return err
	}
	f.searchSeq++
	f.view.RemoveMarker(booking.MarkerDropoff)
	f.view.ClearRoute()
	f.notifyLocked()
	return nil
}

// State returns a snapshot of the session.
func (f *BookingFlow) State() SessionDTO {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

// ID returns the session ID.
func (f *BookingFlow) ID() string {
	return f.session.ID().String()
}

// View returns the flow's map view.
func (f *BookingFlow) View() booking.MapView {
	return f.view
}

// Close tears the map down and waits for background lookups to finish.
// Safe to call more than once.
func (f *BookingFlow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.cancel()
	f.view.Teardown()
	f.mu.Unlock()

	f.wg.Wait()
	f.logger.Debug("booking flow closed")
}

func (f *BookingFlow) setPickupLocked(c booking.Coordinate) error {
	req, err := f.session.SetPickup(c)
	if err != nil {
		return err
	}
	f.view.SetMarker(booking.MarkerPickup, c)
	f.view.FlyTo(c, f.deps.Settings.FocusZoom)
	if f.session.PickupLabel() == "" {
		f.resolveLabelLocked(booking.MarkerPickup, c)
	}
	if req != nil {
		f.fetchRouteLocked(*req)
	}
	f.notifyLocked()
	return nil
}

func (f *BookingFlow) selectDropoffLocked(c booking.Coordinate, label string) error {
	req, err := f.session.SetDropoff(c, label)
	if err != nil {
		return err
	}
	f.searchSeq++
	f.view.SetMarker(booking.MarkerDropoff, c)
	f.view.FlyTo(c, f.deps.Settings.FocusZoom)
	if f.session.DropoffLabel() == "" {
		f.resolveLabelLocked(booking.MarkerDropoff, c)
	}
	switch {
	case req != nil:
		f.fetchRouteLocked(*req)
	case f.session.Route() == nil:
		f.view.ClearRoute()
	}
	f.notifyLocked()
	return nil
}

// fetchRouteLocked starts the lookup for req. The old overlay is removed
// so the map never shows a route for a superseded pair.
func (f *BookingFlow) fetchRouteLocked(req booking.RouteRequest) {
	f.view.ClearRoute()
	f.logger.Debug("route requested",
		zap.Uint64("seq", req.Seq),
		zap.String("pickup", req.Pickup.String()),
		zap.String("dropoff", req.Dropoff.String()),
	)

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		route := f.deps.Routes.GetRoute(f.ctx, req.Pickup, req.Dropoff)
		f.applyRoute(req, route)
	}()
}

func (f *BookingFlow) applyRoute(req booking.RouteRequest, route booking.Route) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}

	err := f.session.ApplyRoute(req, route, f.deps.Pricing)
	switch {
	case errors.Is(err, booking.ErrStaleRoute):
		f.logger.Debug("stale route dropped", zap.Uint64("seq", req.Seq))
		return
	case err != nil:
		f.logger.Error("failed to apply route", zap.Uint64("seq", req.Seq), zap.Error(err))
		return
	}

	if route.IsEmpty() {
		f.view.ClearRoute()
		f.logger.Info("no route available", zap.Uint64("seq", req.Seq))
	} else {
		f.view.SetRoute(route.Geometry)
	}
	f.notifyLocked()
}

func (f *BookingFlow) resolveLabelLocked(role booking.MarkerRole, c booking.Coordinate) {
	if f.deps.Resolver == nil {
		return
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		label := f.deps.Resolver.Reverse(f.ctx, c)
		if label == "" {
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.closed {
			return
		}

		var applied bool
		switch role {
		case booking.MarkerPickup:
			applied = f.session.SetPickupLabel(c, label)
		case booking.MarkerDropoff:
			applied = f.session.SetDropoffLabel(c, label)
		}
		if applied {
			f.notifyLocked()
		}
	}()
}

func (f *BookingFlow) notifyLocked() {
	f.deps.Notifier.SessionChanged(f.stateLocked())
}

func (f *BookingFlow) stateLocked() SessionDTO {
	rendered := false
	if r, ok := f.view.(renderer); ok {
		rendered = r.Rendered()
	}
	return toSessionDTO(f.session, rendered)
}

func (f *BookingFlow) checkOpen(action string) error {
	if f.closed {
		return domain.NewInvalidStateError("closed", action)
	}
	return nil
}

func (f *BookingFlow) ensureOpen(action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checkOpen(action)
}
