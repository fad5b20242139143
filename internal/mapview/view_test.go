package mapview

import (
	"sync"
	"testing"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	sanJuan   = booking.Coordinate{Longitude: -66.065437, Latitude: 18.423933}
	pickup    = booking.Coordinate{Longitude: -66.1057, Latitude: 18.4655}
	dropoff   = booking.Coordinate{Longitude: -66.0614, Latitude: 18.4574}
	waypoint  = booking.Coordinate{Longitude: -66.0800, Latitude: 18.4600}
	testToken = "pk.test"
)

type recorder struct {
	mu   sync.Mutex
	cmds []Command
}

func (r *recorder) Emit(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmd)
}

func (r *recorder) ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Op, len(r.cmds))
	for i, c := range r.cmds {
		out[i] = c.Op
	}
	return out
}

func newRenderedView(t *testing.T) (*View, *recorder) {
	t.Helper()
	rec := &recorder{}
	v := New(Options{AccessToken: testToken}, rec, zap.NewNop())
	require.NoError(t, v.Initialize("map", sanJuan, 10))
	return v, rec
}

func TestView_Initialize(t *testing.T) {
	v, rec := newRenderedView(t)

	scene := v.Scene()
	assert.True(t, scene.Rendered)
	assert.Equal(t, "map", scene.Container)
	assert.Equal(t, DefaultStyle, scene.Style)
	assert.Equal(t, Camera{Center: sanJuan, Zoom: 10}, scene.Camera)

	require.NoError(t, v.Initialize("map", pickup, 12), "second initialise is a no-op")
	assert.Equal(t, []Op{OpInit}, rec.ops())
}

func TestView_MissingTokenRendersNothing(t *testing.T) {
	rec := &recorder{}
	v := New(Options{}, rec, zap.NewNop())

	err := v.Initialize("map", sanJuan, 10)
	assert.ErrorIs(t, err, ErrMissingAccessToken)

	v.SetMarker(booking.MarkerPickup, pickup)
	v.SetRoute([]booking.Coordinate{pickup, dropoff})
	v.FlyTo(pickup, 12)

	assert.False(t, v.Rendered())
	assert.Equal(t, 0, v.OverlayCount())
	assert.ErrorIs(t, v.Click(pickup), ErrNotRendered)
	assert.Empty(t, rec.ops())
}

func TestView_SetRouteTwiceKeepsOneOverlay(t *testing.T) {
	v, rec := newRenderedView(t)

	v.SetRoute([]booking.Coordinate{pickup, dropoff})
	v.SetRoute([]booking.Coordinate{pickup, waypoint, dropoff})

	assert.Equal(t, 1, v.OverlayCount())
	scene := v.Scene()
	require.Len(t, scene.Features.Features, 1)
	line := scene.Features.Features[0]
	assert.Equal(t, "LineString", line.Geometry.Type)
	assert.Len(t, line.Geometry.Coordinates, 3)
	assert.Equal(t, []Op{OpInit, OpSetRoute, OpSetRoute}, rec.ops())

	last := rec.cmds[len(rec.cmds)-1].Overlay
	require.NotNil(t, last)
	assert.Equal(t, RouteOverlayID, last.SourceID)
	assert.Equal(t, RouteOverlayID, last.LayerID)
	assert.Equal(t, "round", last.Layout["line-join"])
	assert.Equal(t, "round", last.Layout["line-cap"])
	assert.Equal(t, routeLineWidth, last.Paint["line-width"])
}

func TestView_ClearRouteIsIdempotent(t *testing.T) {
	v, rec := newRenderedView(t)

	v.ClearRoute()
	assert.Equal(t, []Op{OpInit}, rec.ops(), "clearing nothing emits nothing")

	v.SetRoute([]booking.Coordinate{pickup, dropoff})
	v.ClearRoute()
	v.ClearRoute()

	assert.Equal(t, 0, v.OverlayCount())
	assert.Equal(t, []Op{OpInit, OpSetRoute, OpClearRoute}, rec.ops())
}

func TestView_ShortGeometryClearsRoute(t *testing.T) {
	v, _ := newRenderedView(t)

	v.SetRoute([]booking.Coordinate{pickup, dropoff})
	v.SetRoute([]booking.Coordinate{pickup})

	assert.Equal(t, 0, v.OverlayCount())
}

func TestView_OneMarkerPerRole(t *testing.T) {
	v, _ := newRenderedView(t)

	v.SetMarker(booking.MarkerPickup, pickup)
	v.SetMarker(booking.MarkerPickup, waypoint)
	v.SetMarker(booking.MarkerDropoff, dropoff)

	c, ok := v.Marker(booking.MarkerPickup)
	require.True(t, ok)
	assert.Equal(t, waypoint, c)
	assert.Len(t, v.Scene().Markers, 2)

	v.RemoveMarker(booking.MarkerDropoff)
	v.RemoveMarker(booking.MarkerDropoff)
	_, ok = v.Marker(booking.MarkerDropoff)
	assert.False(t, ok)
	assert.Len(t, v.Scene().Features.Features, 1)
}

func TestView_FlyTo(t *testing.T) {
	v, _ := newRenderedView(t)

	v.FlyTo(pickup, 12)

	assert.Equal(t, Camera{Center: pickup, Zoom: 12}, v.Scene().Camera)
}

func TestView_ClickDispatchesOutsideLock(t *testing.T) {
	v, _ := newRenderedView(t)

	var clicked []booking.Coordinate
	v.OnClick(func(c booking.Coordinate) {
		clicked = append(clicked, c)
		v.SetMarker(booking.MarkerDropoff, c)
	})

	require.NoError(t, v.Click(dropoff))

	assert.Equal(t, []booking.Coordinate{dropoff}, clicked)
	c, ok := v.Marker(booking.MarkerDropoff)
	require.True(t, ok)
	assert.Equal(t, dropoff, c)
}

func TestView_TeardownIsIdempotent(t *testing.T) {
	v, rec := newRenderedView(t)
	v.OnClick(func(booking.Coordinate) { t.Fatal("handler survived teardown") })
	v.SetRoute([]booking.Coordinate{pickup, dropoff})

	v.Teardown()
	v.Teardown()

	assert.False(t, v.Rendered())
	assert.Equal(t, 0, v.OverlayCount())
	assert.ErrorIs(t, v.Click(pickup), ErrNotRendered)
	assert.ErrorIs(t, v.Initialize("map", sanJuan, 10), ErrNotRendered)
	assert.Equal(t, []Op{OpInit, OpSetRoute, OpTeardown}, rec.ops())
}
