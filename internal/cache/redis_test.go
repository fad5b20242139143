package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/pkg/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cachedPlace struct {
	Name string  `json:"name"`
	Lon  float64 `json:"lon"`
}

func newTestCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, ttl, zap.NewNop()), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "geocode:old san juan", cachedPlace{Name: "Old San Juan", Lon: -66.1057}))
	assert.True(t, mr.Exists("ride-booking:geocode:old san juan"))

	var got cachedPlace
	found, err := c.Get(ctx, "geocode:old san juan", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, cachedPlace{Name: "Old San Juan", Lon: -66.1057}, got)
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	var got cachedPlace
	found, err := c.Get(context.Background(), "absent", &got)

	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_Expires(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", cachedPlace{Name: "x"}))

	mr.FastForward(2 * time.Minute)

	var got cachedPlace
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_DefaultTTL(t *testing.T) {
	c, mr := newTestCache(t, 0)
	require.NoError(t, c.Set(context.Background(), "k", 1))

	assert.Equal(t, DefaultTTL, mr.TTL(Key("k")))
}

func TestRedisCache_CorruptValue(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set(Key("bad"), "{not json"))

	var got cachedPlace
	_, err := c.Get(context.Background(), "bad", &got)
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := Connect(context.Background(), config.RedisConfig{Addr: mr.Addr()}, time.Minute, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()
	assert.NoError(t, c.Health(context.Background()))

	_, err = Connect(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"}, time.Minute, zap.NewNop())
	assert.Error(t, err)
}
