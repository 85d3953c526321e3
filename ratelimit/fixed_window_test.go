package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, mr *miniredis.Miniredis, limit int, window time.Duration) *FixedWindow {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l, err := NewFixedWindow(rdb, "test:ratelimit", limit, window)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestFixedWindowBlocksOverQuota(t *testing.T) {
	mr := miniredis.RunT(t)
	l := newLimiter(t, mr, 2, time.Minute)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "10.0.0.1"))
	assert.True(t, l.Allow(ctx, "10.0.0.1"))
	assert.False(t, l.Allow(ctx, "10.0.0.1"))

	assert.True(t, l.Allow(ctx, "10.0.0.2"), "keys are counted separately")
}

func TestFixedWindowResetsNextWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	l := newLimiter(t, mr, 1, time.Minute)
	ctx := context.Background()

	base := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }
	assert.True(t, l.Allow(ctx, "ip"))
	assert.False(t, l.Allow(ctx, "ip"))

	l.now = func() time.Time { return base.Add(time.Minute) }
	assert.True(t, l.Allow(ctx, "ip"))
}

func TestFixedWindowSetsExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	l := newLimiter(t, mr, 5, time.Minute)
	require.True(t, l.Allow(context.Background(), "ip"))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, time.Minute, mr.TTL(keys[0]))
}

func TestFixedWindowFailsClosed(t *testing.T) {
	mr := miniredis.RunT(t)
	l := newLimiter(t, mr, 10, time.Minute)
	mr.Close()
	assert.False(t, l.Allow(context.Background(), "ip"))
}

func TestNewFixedWindowRejectsBadConfig(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	_, err := NewFixedWindow(nil, "", 1, time.Second)
	assert.Error(t, err)
	_, err = NewFixedWindow(rdb, "", 0, time.Second)
	assert.Error(t, err)
	_, err = NewFixedWindow(rdb, "", 1, 0)
	assert.Error(t, err)

	_, err = Dial(context.Background(), "", "", 1, time.Second)
	assert.Error(t, err)
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)
	l, err := Dial(context.Background(), mr.Addr(), "", 1, time.Second)
	require.NoError(t, err)
	defer l.Close()
	assert.True(t, l.Allow(context.Background(), "ip"))
}
