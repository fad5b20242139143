// Package mapview keeps the server-side scene of a booking map: markers, the
// route overlay and the camera. Every change is forwarded to an Emitter so the
// browser's mapbox-gl instance can replay it.
package mapview

import (
	"errors"
	"sync"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"
	"go.uber.org/zap"
)

const (
	// RouteOverlayID is the id shared by the route source and its line layer.
	RouteOverlayID = "route"

	// DefaultStyle is the basemap used when none is configured.
	DefaultStyle = "mapbox://styles/mapbox/dark-v11"

	routeLineWidth = 6
)

var (
	// ErrMissingAccessToken is returned by Initialize when no access token was supplied.
	ErrMissingAccessToken = errors.New("map access token is not configured")

	// ErrNotRendered is returned by Click when the view never initialised or was torn down.
	ErrNotRendered = errors.New("map view is not rendered")
)

// Options configures a View.
type Options struct {
	AccessToken string
	Style       string
}

// Camera is the map viewport.
type Camera struct {
	Center booking.Coordinate `json:"center"`
	Zoom   float64            `json:"zoom"`
}

// Overlay is the route source plus its line layer.
type Overlay struct {
	SourceID string            `json:"source_id"`
	LayerID  string            `json:"layer_id"`
	Layout   map[string]string `json:"layout"`
	Paint    map[string]any    `json:"paint"`
	Data     Feature           `json:"data"`
}

// Scene is a point-in-time snapshot of the view.
type Scene struct {
	Rendered  bool                                      `json:"rendered"`
	Container string                                    `json:"container,omitempty"`
	Style     string                                    `json:"style,omitempty"`
	Camera    Camera                                    `json:"camera"`
	Markers   map[booking.MarkerRole]booking.Coordinate `json:"markers"`
	Overlays  int                                       `json:"overlays"`
	Features  FeatureCollection                         `json:"features"`
}

// View implements booking.MapView.
type View struct {
	mu       sync.Mutex
	opts     Options
	emitter  Emitter
	logger   *zap.Logger
	rendered bool
	tornDown bool

	container string
	camera    Camera
	markers   map[booking.MarkerRole]booking.Coordinate
	overlay   *Overlay
	handlers  []func(booking.Coordinate)
}

var _ booking.MapView = (*View)(nil)

// New creates an uninitialised view. A nil emitter discards commands.
func New(opts Options, emitter Emitter, logger *zap.Logger) *View {
	if opts.Style == "" {
		opts.Style = DefaultStyle
	}
	if emitter == nil {
		emitter = discardEmitter{}
	}
	return &View{
		opts:    opts,
		emitter: emitter,
		logger:  logger,
		markers: make(map[booking.MarkerRole]booking.Coordinate),
	}
}

// Initialize creates the map in container. Without an access token nothing is
// rendered and every later mutation is a no-op.
func (v *View) Initialize(container string, center booking.Coordinate, zoom float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.tornDown {
		return ErrNotRendered
	}
	if v.rendered {
		return nil
	}
	if v.opts.AccessToken == "" {
		v.logger.Error("map access token missing, map will not render",
			zap.String("container", container),
		)
		return ErrMissingAccessToken
	}

	v.rendered = true
	v.container = container
	v.camera = Camera{Center: center, Zoom: zoom}
	c := center
	v.emitter.Emit(Command{Op: OpInit, Container: container, Style: v.opts.Style, Coordinate: &c, Zoom: zoom})
	return nil
}

// SetMarker places the marker for role, replacing any previous one.
func (v *View) SetMarker(role booking.MarkerRole, c booking.Coordinate) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.rendered {
		return
	}
	v.markers[role] = c
	v.emitter.Emit(Command{Op: OpSetMarker, Role: role, Coordinate: &c})
}

// RemoveMarker drops the marker for role.
func (v *View) RemoveMarker(role booking.MarkerRole) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.rendered {
		return
	}
	if _, ok := v.markers[role]; !ok {
		return
	}
	delete(v.markers, role)
	v.emitter.Emit(Command{Op: OpRemoveMarker, Role: role})
}

// SetRoute upserts the route overlay. Geometry with fewer than two points
// cannot be drawn and clears the overlay instead.
func (v *View) SetRoute(geometry []booking.Coordinate) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.rendered {
		return
	}
	if len(geometry) < 2 {
		v.clearRouteLocked()
		return
	}

	data := lineFeature(geometry, nil)
	if v.overlay != nil {
		v.overlay.Data = data
	} else {
		v.overlay = &Overlay{
			SourceID: RouteOverlayID,
			LayerID:  RouteOverlayID,
			Layout:   map[string]string{"line-join": "round", "line-cap": "round"},
			Paint:    map[string]any{"line-color": "#3887be", "line-width": routeLineWidth},
			Data:     data,
		}
	}
	overlay := *v.overlay
	v.emitter.Emit(Command{Op: OpSetRoute, Overlay: &overlay})
}

// ClearRoute removes the route overlay if one exists.
func (v *View) ClearRoute() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.rendered {
		return
	}
	v.clearRouteLocked()
}

func (v *View) clearRouteLocked() {
	if v.overlay == nil {
		return
	}
	v.overlay = nil
	v.emitter.Emit(Command{Op: OpClearRoute})
}

// FlyTo moves the camera to c at zoom.
func (v *View) FlyTo(c booking.Coordinate, zoom float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.rendered {
		return
	}
	v.camera = Camera{Center: c, Zoom: zoom}
	v.emitter.Emit(Command{Op: OpFlyTo, Coordinate: &c, Zoom: zoom})
}

// OnClick registers handler for map clicks.
func (v *View) OnClick(handler func(booking.Coordinate)) {
	if handler == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.tornDown {
		return
	}
	v.handlers = append(v.handlers, handler)
}

// Click dispatches a click at c to the registered handlers. Handlers run
// without the view lock held so they may mutate the view.
func (v *View) Click(c booking.Coordinate) error {
	v.mu.Lock()
	if !v.rendered {
		v.mu.Unlock()
		return ErrNotRendered
	}
	handlers := append([]func(booking.Coordinate){}, v.handlers...)
	v.mu.Unlock()

	for _, h := range handlers {
		h(c)
	}
	return nil
}

// Teardown releases the map and drops all handlers. Safe to call repeatedly.
func (v *View) Teardown() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.tornDown {
		return
	}
	wasRendered := v.rendered
	v.tornDown = true
	v.rendered = false
	v.handlers = nil
	v.overlay = nil
	v.markers = make(map[booking.MarkerRole]booking.Coordinate)
	if wasRendered {
		v.emitter.Emit(Command{Op: OpTeardown})
	}
}

// Rendered reports whether the map is live.
func (v *View) Rendered() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rendered
}

// OverlayCount returns the number of route overlays, always 0 or 1.
func (v *View) OverlayCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.overlay == nil {
		return 0
	}
	return 1
}

// Marker returns the marker for role.
func (v *View) Marker(role booking.MarkerRole) (booking.Coordinate, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	c, ok := v.markers[role]
	return c, ok
}

// Scene returns a snapshot of the view.
func (v *View) Scene() Scene {
	v.mu.Lock()
	defer v.mu.Unlock()

	scene := Scene{
		Rendered:  v.rendered,
		Container: v.container,
		Style:     v.opts.Style,
		Camera:    v.camera,
		Markers:   make(map[booking.MarkerRole]booking.Coordinate, len(v.markers)),
	}

	var features []Feature
	for _, role := range []booking.MarkerRole{booking.MarkerPickup, booking.MarkerDropoff} {
		c, ok := v.markers[role]
		if !ok {
			continue
		}
		scene.Markers[role] = c
		features = append(features, pointFeature(c, map[string]any{"role": string(role)}))
	}
	if v.overlay != nil {
		scene.Overlays = 1
		route := v.overlay.Data
		route.Properties = map[string]any{"id": RouteOverlayID}
		features = append(features, route)
	}
	scene.Features = newFeatureCollection(features...)
	return scene
}
