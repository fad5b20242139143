package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHub_PublishReachesTopicSubscribersOnly(t *testing.T) {
	hub := NewHub(zap.NewNop())
	topic, other := uuid.New(), uuid.New()

	events, cancel := hub.Subscribe(topic)
	defer cancel()
	otherEvents, cancelOther := hub.Subscribe(other)
	defer cancelOther()

	hub.Publish(topic, Event{Type: EventState, Data: "fare_ready"})

	select {
	case evt := <-events:
		assert.Equal(t, EventState, evt.Type)
		assert.Equal(t, "fare_ready", evt.Data)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	assert.Len(t, otherEvents, 0)
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub(zap.NewNop())
	topic := uuid.New()
	_, cancel := hub.Subscribe(topic)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < clientBuffer*2; i++ {
			hub.Publish(topic, Event{Type: EventCommand})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full buffer")
	}
}

func TestHub_CancelAndCloseTopic(t *testing.T) {
	hub := NewHub(zap.NewNop())
	topic := uuid.New()

	events, cancel := hub.Subscribe(topic)
	assert.Equal(t, 1, hub.Subscribers(topic))
	cancel()
	cancel()
	assert.Equal(t, 0, hub.Subscribers(topic))
	_, ok := <-events
	assert.False(t, ok)

	events, _ = hub.Subscribe(topic)
	hub.CloseTopic(topic)
	_, ok = <-events
	assert.False(t, ok)
}

func TestHub_CloseRejectsNewSubscribers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	hub.Close()

	events, cancel := hub.Subscribe(uuid.New())
	defer cancel()

	_, ok := <-events
	assert.False(t, ok)
}

func TestHub_Stream(t *testing.T) {
	hub := NewHub(zap.NewNop())
	topic := uuid.New()

	router := gin.New()
	router.GET("/events", func(c *gin.Context) { hub.Stream(c, topic) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return hub.Subscribers(topic) == 1 }, time.Second, 5*time.Millisecond)
	hub.Publish(topic, Event{Type: EventState, Data: map[string]string{"status": "route_pending"}})
	hub.CloseTopic(topic)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not end after topic close")
	}

	body := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(body, "event:connected"))
	assert.True(t, strings.Contains(body, "event:state"))
	assert.True(t, strings.Contains(body, `route_pending`))
}
