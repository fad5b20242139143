package application

import (
	"context"
	"sync"
	"time"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/pkg/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ViewFactory builds the map view for a new session.
type ViewFactory func(sessionID uuid.UUID) booking.MapView

// SessionManager owns the live booking flows. Sessions are kept in memory
// only and vanish on restart.
type SessionManager struct {
	mu      sync.RWMutex
	flows   map[uuid.UUID]*BookingFlow
	newView ViewFactory
	deps    FlowDeps
	logger  *zap.Logger

	onClosed func(id uuid.UUID)
}

// NewSessionManager creates a SessionManager.
func NewSessionManager(newView ViewFactory, deps FlowDeps, logger *zap.Logger) *SessionManager {
	if deps.Logger == nil {
		deps.Logger = logger
	}
	return &SessionManager{
		flows:   make(map[uuid.UUID]*BookingFlow),
		newView: newView,
		deps:    deps,
		logger:  logger,
	}
}

// OnClosed registers fn to run after a session is closed, whether by Close,
// idle expiry or Shutdown. It must be set before the manager is used.
func (m *SessionManager) OnClosed(fn func(id uuid.UUID)) {
	m.onClosed = fn
}

// Create opens and starts a new session.
func (m *SessionManager) Create() (*BookingFlow, error) {
	session := booking.NewSession()
	flow := NewBookingFlow(session, m.newView(session.ID()), m.deps)

	m.mu.Lock()
	m.flows[session.ID()] = flow
	m.mu.Unlock()

	if err := flow.Start(); err != nil {
		m.remove(session.ID())
		flow.Close()
		return nil, err
	}

	m.logger.Info("booking session created", zap.String("session_id", session.ID().String()))
	return flow, nil
}

// Get returns the flow for id.
func (m *SessionManager) Get(id uuid.UUID) (*BookingFlow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flow, ok := m.flows[id]
	if !ok {
		return nil, domain.NewNotFoundError("session", id.String())
	}
	return flow, nil
}

// Close ends the session id.
func (m *SessionManager) Close(id uuid.UUID) error {
	flow := m.remove(id)
	if flow == nil {
		return domain.NewNotFoundError("session", id.String())
	}
	flow.Close()
	m.closed(id)
	m.logger.Info("booking session closed", zap.String("session_id", id.String()))
	return nil
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.flows)
}

// ExpireIdle closes sessions untouched for longer than maxIdle and returns
// how many were closed.
func (m *SessionManager) ExpireIdle(maxIdle time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxIdle)

	var expired []*BookingFlow
	m.mu.Lock()
	for id, flow := range m.flows {
		if flow.State().UpdatedAt.Before(cutoff) {
			expired = append(expired, flow)
			delete(m.flows, id)
		}
	}
	m.mu.Unlock()

	for _, flow := range expired {
		flow.Close()
		m.closed(flow.session.ID())
		m.logger.Info("idle booking session expired", zap.String("session_id", flow.ID()))
	}
	return len(expired)
}

// RunJanitor calls ExpireIdle every interval until ctx is done.
func (m *SessionManager) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ExpireIdle(maxIdle)
		}
	}
}

// Shutdown closes every session.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	flows := m.flows
	m.flows = make(map[uuid.UUID]*BookingFlow)
	m.mu.Unlock()

	for id, flow := range flows {
		flow.Close()
		m.closed(id)
	}
	m.logger.Info("booking sessions shut down", zap.Int("count", len(flows)))
}

func (m *SessionManager) closed(id uuid.UUID) {
	if m.onClosed != nil {
		m.onClosed(id)
	}
}

func (m *SessionManager) remove(id uuid.UUID) *BookingFlow {
	m.mu.Lock()
	defer m.mu.Unlock()

	flow, ok := m.flows[id]
	if !ok {
		return nil
	}
	delete(m.flows, id)
	return flow
}
