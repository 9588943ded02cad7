package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *DeliveryGuard) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := OpenRedis(context.Background(), RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return mr, NewDeliveryGuard(rdb, ttl)
}

func TestDeliveryGuard_AcquireOnce(t *testing.T) {
	_, g := newGuard(t, time.Minute)
	ctx := context.Background()

	ok, err := g.Acquire(ctx, "webhook:f1:abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Acquire(ctx, "webhook:f1:abc")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = g.Acquire(ctx, "webhook:f1:def")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeliveryGuard_Expires(t *testing.T) {
	mr, g := newGuard(t, time.Minute)
	ctx := context.Background()

	ok, err := g.Acquire(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("k"))

	mr.FastForward(2 * time.Minute)

	ok, err = g.Acquire(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeliveryGuard_Release(t *testing.T) {
	mr, g := newGuard(t, time.Minute)
	ctx := context.Background()

	_, err := g.Acquire(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, g.Release(ctx, "k"))
	assert.False(t, mr.Exists("k"))

	ok, err := g.Acquire(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeliveryGuard_Errors(t *testing.T) {
	mr, g := newGuard(t, 0)

	_, err := g.Acquire(context.Background(), "")
	assert.Error(t, err)

	mr.Close()
	_, err = g.Acquire(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, g.Ping(context.Background()))
}

func TestOpenRedis_RequiresAddr(t *testing.T) {
	_, err := OpenRedis(context.Background(), RedisConfig{})
	assert.EqualError(t, err, "redis addr is required")
}
