package slot

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisSlot, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisSlot(client, ttl), mr
}

func TestRedisSlot(t *testing.T) {
	s, _ := setupTestRedis(t, 0)
	exerciseSlot(t, s)
}

func TestRedisSlot_StoresPlainValue(t *testing.T) {
	s, mr := setupTestRedis(t, 0)

	require.NoError(t, s.Set(context.Background(), "@RocketShoes:cart", `[{"id":1,"amount":2}]`))

	stored, err := mr.Get("@RocketShoes:cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1,"amount":2}]`, stored)
	assert.Zero(t, mr.TTL("@RocketShoes:cart"))
}

func TestRedisSlot_WithTTL(t *testing.T) {
	s, mr := setupTestRedis(t, 24*time.Hour)

	require.NoError(t, s.Set(context.Background(), "@RocketShoes:cart", `[]`))

	assert.Equal(t, 24*time.Hour, mr.TTL("@RocketShoes:cart"))
}

func TestRedisSlot_ServerDown(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	mr.Close()

	_, _, err := s.Get(context.Background(), "@RocketShoes:cart")
	require.ErrorContains(t, err, "redis get failed")
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, client.Close())
}
