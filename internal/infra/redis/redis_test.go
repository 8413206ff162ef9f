//go:build !integration

package redis

import (
	"context"
	"testing"
	"time"

	"intake-review/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(context.Background(), &config.RedisConfig{URL: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestNewClient_URL(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewClient(context.Background(), &config.RedisConfig{URL: "redis://" + mr.Addr() + "/0"})
	require.NoError(t, err)
	defer c.Close()
	assert.NoError(t, c.Ping(context.Background()))
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestClient(t)
	rl := NewRateLimiter(c)
	key := "login:10.0.0.1"

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, key, 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := rl.Allow(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL(rateLimitPrefix+key))

	mr.FastForward(time.Minute + time.Second)
	ok, err = rl.Allow(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiter_WindowAlwaysExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestClient(t)
	rl := NewRateLimiter(c)
	key := "submission:10.0.0.2"

	for i := 0; i < 5; i++ {
		_, err := rl.Allow(ctx, key, 2, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, time.Minute, mr.TTL(rateLimitPrefix+key), "hit %d", i)
	}
	got, err := mr.Get(rateLimitPrefix + key)
	require.NoError(t, err)
	assert.Equal(t, "5", got)

	// A later hit inside the window keeps the original expiry.
	mr.FastForward(30 * time.Second)
	_, err = rl.Allow(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, mr.TTL(rateLimitPrefix+key))
}

func TestRateLimiter_ClientError(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestClient(t)
	rl := NewRateLimiter(c)
	mr.Close()

	ok, err := rl.Allow(ctx, "login:10.0.0.3", 2, time.Minute)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestSessionDenylist(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestClient(t)
	d := NewSessionDenylist(c)

	ok, err := d.IsRevoked(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.Revoke(ctx, "sess-1", time.Hour))
	ok, err = d.IsRevoked(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Hour)
	ok, err = d.IsRevoked(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.Revoke(ctx, "", time.Hour))
	ok, err = d.IsRevoked(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionDenylist_RedisDown(t *testing.T) {
	c, mr := newTestClient(t)
	d := NewSessionDenylist(c)
	mr.Close()
	_, err := d.IsRevoked(context.Background(), "sess-1")
	assert.Error(t, err)
}
