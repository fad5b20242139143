package mapview

import "github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"

// Op names a render instruction sent to the browser map.
type Op string

const (
	OpInit         Op = "init"
	OpSetMarker    Op = "set_marker"
	OpRemoveMarker Op = "remove_marker"
	OpSetRoute     Op = "set_route"
	OpClearRoute   Op = "clear_route"
	OpFlyTo        Op = "fly_to"
	OpTeardown     Op = "teardown"
)

// Command is one render instruction. Only the fields relevant to Op are set.
type Command struct {
	Op         Op                  `json:"op"`
	Container  string              `json:"container,omitempty"`
	Style      string              `json:"style,omitempty"`
	Role       booking.MarkerRole  `json:"role,omitempty"`
	Coordinate *booking.Coordinate `json:"coordinate,omitempty"`
	Zoom       float64             `json:"zoom,omitempty"`
	Overlay    *Overlay            `json:"overlay,omitempty"`
}

// Emitter receives render commands in the order the view applied them.
// Emit is called with the view locked and must not block or call back into the view.
type Emitter interface {
	Emit(cmd Command)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(cmd Command)

// Emit calls f(cmd).
func (f EmitterFunc) Emit(cmd Command) { f(cmd) }

type discardEmitter struct{}

func (discardEmitter) Emit(Command) {}
