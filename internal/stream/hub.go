// Package stream fans session events out to browsers over Server-Sent Events.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventType names an SSE event.
type EventType string

const (
	EventConnected EventType = "connected"
	EventCommand   EventType = "command"
	EventState     EventType = "state"
	EventConfirmed EventType = "confirmed"
)

const clientBuffer = 64

// Event is one SSE message.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

type client struct {
	topic  uuid.UUID
	events chan Event
}

// Hub routes events to the clients subscribed to a topic (a session ID).
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID][]*client
	closed  bool
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID][]*client),
		logger:  logger,
	}
}

// Subscribe registers a listener on topic. The returned cancel func is safe to
// call more than once.
func (h *Hub) Subscribe(topic uuid.UUID) (<-chan Event, func()) {
	cl := &client{topic: topic, events: make(chan Event, clientBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(cl.events)
		return cl.events, func() {}
	}
	h.clients[topic] = append(h.clients[topic], cl)
	h.mu.Unlock()

	var once sync.Once
	return cl.events, func() { once.Do(func() { h.remove(cl) }) }
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[cl.topic]
	for i, c := range clients {
		if c == cl {
			h.clients[cl.topic] = append(clients[:i], clients[i+1:]...)
			close(cl.events)
			break
		}
	}
	if len(h.clients[cl.topic]) == 0 {
		delete(h.clients, cl.topic)
	}
}

// Publish sends event to every subscriber of topic without blocking. Events
// for a full client buffer are dropped.
func (h *Hub) Publish(topic uuid.UUID, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients[topic] {
		select {
		case c.events <- event:
		default:
			h.logger.Warn("sse buffer full, dropping event",
				zap.String("topic", topic.String()),
				zap.String("event_type", string(event.Type)),
			)
		}
	}
}

// Subscribers returns the number of listeners on topic.
func (h *Hub) Subscribers(topic uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// CloseTopic disconnects every subscriber of topic.
func (h *Hub) CloseTopic(topic uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.clients[topic] {
		close(c.events)
	}
	delete(h.clients, topic)
}

// Close disconnects everyone and rejects later subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for _, c := range clients {
			close(c.events)
		}
	}
	h.clients = make(map[uuid.UUID][]*client)
	h.closed = true
}

// Stream serves topic as an SSE response until the client goes away or the
// topic is closed.
func (h *Hub) Stream(c *gin.Context, topic uuid.UUID) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	events, cancel := h.Subscribe(topic)
	defer cancel()

	c.Status(http.StatusOK)
	c.SSEvent(string(EventConnected), gin.H{"session_id": topic})
	c.Writer.Flush()

	h.logger.Debug("sse client connected", zap.String("topic", topic.String()))

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			h.logger.Debug("sse client disconnected", zap.String("topic", topic.String()))
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				h.logger.Error("failed to encode sse event", zap.Error(err))
				continue
			}
			c.SSEvent(string(event.Type), string(data))
			c.Writer.Flush()
		}
	}
}
