package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllowSlidingWindow(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()
	limiter := Limiter{Client: client, Prefix: "rl:"}

	ctx := context.Background()
	window := 2 * time.Second
	max := 2

	for i := 0; i < max; i++ {
		allowed, remaining, _, err := limiter.Allow(ctx, "promo:203.0.113.7", window, max)
		require.NoError(t, err)
		require.True(t, allowed, "request %d", i)
		require.Equal(t, max-(i+1), remaining)
	}

	allowed, remaining, reset, err := limiter.Allow(ctx, "promo:203.0.113.7", window, max)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)
	require.False(t, reset.After(time.Now().Add(window)))

	members, err := client.ZCard(ctx, "rl:promo:203.0.113.7").Result()
	require.NoError(t, err)
	require.EqualValues(t, max, members, "rejected attempts are not counted")
}

func TestLimiterDisabled(t *testing.T) {
	allowed, remaining, _, err := Limiter{}.Allow(context.Background(), "k", time.Second, 3)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 3, remaining)
}
