package directions

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var (
	origin      = booking.Coordinate{Longitude: -66.1057, Latitude: 18.4655}
	destination = booking.Coordinate{Longitude: -66.0614, Latitude: 18.4574}
)

type fakeProvider struct {
	route booking.Route
	err   error
	calls int
}

func (f *fakeProvider) Directions(ctx context.Context, o, d booking.Coordinate) (booking.Route, error) {
	f.calls++
	return f.route, f.err
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memoryCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func TestService_GetRoute(t *testing.T) {
	want := booking.Route{Distance: 5400, Duration: 720, Geometry: []booking.Coordinate{origin, destination}}
	svc := NewService(&fakeProvider{route: want}, nil, zap.NewNop())

	got := svc.GetRoute(context.Background(), origin, destination)

	assert.Equal(t, want, got)
	assert.GreaterOrEqual(t, len(got.Geometry), 2)
	assert.GreaterOrEqual(t, got.Distance, 0.0)
	assert.GreaterOrEqual(t, got.Duration, 0.0)
}

func TestService_FailuresReturnEmptyRoute(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
	}{
		{"transport error", &fakeProvider{err: errors.New("dial tcp: i/o timeout")}},
		{"no routes", &fakeProvider{route: booking.EmptyRoute()}},
		{"nil geometry", &fakeProvider{route: booking.Route{Distance: 10, Duration: 10}}},
		{"single point", &fakeProvider{route: booking.Route{Distance: 10, Duration: 10, Geometry: []booking.Coordinate{origin}}}},
		{"negative distance", &fakeProvider{route: booking.Route{Distance: -5, Duration: 10, Geometry: []booking.Coordinate{origin, destination}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.provider, nil, zap.NewNop())

			got := svc.GetRoute(context.Background(), origin, destination)

			assert.Equal(t, booking.EmptyRoute(), got)
		})
	}
}

func TestService_CachesValidRoutesOnly(t *testing.T) {
	want := booking.Route{Distance: 5400, Duration: 720, Geometry: []booking.Coordinate{origin, destination}}
	provider := &fakeProvider{route: want}
	svc := NewService(provider, &memoryCache{data: map[string][]byte{}}, zap.NewNop())

	svc.GetRoute(context.Background(), origin, destination)
	got := svc.GetRoute(context.Background(), origin, destination)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, provider.calls)

	provider.route = booking.EmptyRoute()
	svc.GetRoute(context.Background(), destination, origin)
	svc.GetRoute(context.Background(), destination, origin)
	assert.Equal(t, 3, provider.calls)
}
