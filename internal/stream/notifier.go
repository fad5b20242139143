package stream

import (
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/application"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/mapview"
	"github.com/google/uuid"
)

// SessionNotifier forwards session changes to the hub.
type SessionNotifier struct {
	hub *Hub
}

var _ application.SessionNotifier = (*SessionNotifier)(nil)

// NewSessionNotifier creates a SessionNotifier publishing on hub.
func NewSessionNotifier(hub *Hub) *SessionNotifier {
	return &SessionNotifier{hub: hub}
}

// SessionChanged publishes the new session state.
func (n *SessionNotifier) SessionChanged(state application.SessionDTO) {
	n.hub.Publish(state.ID, Event{Type: EventState, Data: state})
}

// BookingConfirmed publishes the booking acknowledgment.
func (n *SessionNotifier) BookingConfirmed(c application.ConfirmationDTO) {
	n.hub.Publish(c.SessionID, Event{Type: EventConfirmed, Data: c})
}

// CommandEmitter returns an emitter that publishes map render commands for
// one session.
func (h *Hub) CommandEmitter(sessionID uuid.UUID) mapview.Emitter {
	return mapview.EmitterFunc(func(cmd mapview.Command) {
		h.Publish(sessionID, Event{Type: EventCommand, Data: cmd})
	})
}
