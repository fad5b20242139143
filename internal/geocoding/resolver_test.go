package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var oldSanJuan = booking.Location{
	Name:       "Old San Juan, San Juan, Puerto Rico",
	Coordinate: booking.Coordinate{Longitude: -66.1057, Latitude: 18.4655},
}

type fakeProvider struct {
	calls     atomic.Int32
	locations []booking.Location
	err       error
	gate      chan struct{}
}

func (f *fakeProvider) Geocode(ctx context.Context, query string) ([]booking.Location, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return f.locations, f.err
}

func (f *fakeProvider) ReverseGeocode(ctx context.Context, c booking.Coordinate) ([]booking.Location, error) {
	f.calls.Add(1)
	return f.locations, f.err
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache { return &memoryCache{data: map[string][]byte{}} }

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

func TestResolver_Geocode(t *testing.T) {
	provider := &fakeProvider{locations: []booking.Location{oldSanJuan}}
	r := NewResolver(provider, nil, zap.NewNop())

	got := r.Geocode(context.Background(), "Old San Juan")

	require.Len(t, got, 1)
	assert.Equal(t, oldSanJuan, got[0])
}

func TestResolver_BlankTermSkipsProvider(t *testing.T) {
	provider := &fakeProvider{locations: []booking.Location{oldSanJuan}}
	r := NewResolver(provider, nil, zap.NewNop())

	for _, term := range []string{"", "   ", "\t\n"} {
		got := r.Geocode(context.Background(), term)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
	assert.Equal(t, int32(0), provider.calls.Load())
}

func TestResolver_FailureYieldsEmpty(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	r := NewResolver(provider, nil, zap.NewNop())

	got := r.Geocode(context.Background(), "Condado")

	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, "", r.Reverse(context.Background(), oldSanJuan.Coordinate))
}

func TestResolver_NoMatchYieldsEmpty(t *testing.T) {
	r := NewResolver(&fakeProvider{}, nil, zap.NewNop())

	got := r.Geocode(context.Background(), "qwxzzv")

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestResolver_CachesHits(t *testing.T) {
	provider := &fakeProvider{locations: []booking.Location{oldSanJuan}}
	cache := newMemoryCache()
	r := NewResolver(provider, cache, zap.NewNop())

	first := r.Geocode(context.Background(), "Old San Juan")
	second := r.Geocode(context.Background(), "  old san juan ")

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestResolver_DoesNotCacheMisses(t *testing.T) {
	provider := &fakeProvider{}
	r := NewResolver(provider, newMemoryCache(), zap.NewNop())

	r.Geocode(context.Background(), "nowhere")
	r.Geocode(context.Background(), "nowhere")

	assert.Equal(t, int32(2), provider.calls.Load())
}

func TestResolver_CoalescesConcurrentLookups(t *testing.T) {
	provider := &fakeProvider{locations: []booking.Location{oldSanJuan}, gate: make(chan struct{})}
	r := NewResolver(provider, nil, zap.NewNop())

	var wg sync.WaitGroup
	results := make([][]booking.Location, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Geocode(context.Background(), "Old San Juan")
		}(i)
	}

	require.Eventually(t, func() bool { return provider.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(provider.gate)
	wg.Wait()

	assert.Equal(t, int32(1), provider.calls.Load())
	for _, res := range results {
		assert.Equal(t, []booking.Location{oldSanJuan}, res)
	}
}

func TestResolver_Reverse(t *testing.T) {
	provider := &fakeProvider{locations: []booking.Location{oldSanJuan, {Name: "San Juan"}}}
	cache := newMemoryCache()
	r := NewResolver(provider, cache, zap.NewNop())

	assert.Equal(t, oldSanJuan.Name, r.Reverse(context.Background(), oldSanJuan.Coordinate))
	assert.Equal(t, oldSanJuan.Name, r.Reverse(context.Background(), oldSanJuan.Coordinate))
	assert.Equal(t, int32(1), provider.calls.Load())

	assert.Equal(t, "", r.Reverse(context.Background(), booking.Coordinate{Longitude: 500}))
}
