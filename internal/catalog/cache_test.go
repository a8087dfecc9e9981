package catalog_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kinda-storefront/internal/catalog"
)

func TestFetchCachesFill(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := catalog.NewCache(client, time.Minute)
	calls := 0
	fill := func(context.Context) ([]string, error) {
		calls++
		return []string{"Pac Tee", "Ghost Tee"}, nil
	}

	ctx := context.Background()
	first, err := catalog.Fetch(ctx, cache, "arrivals:test", fill)
	require.NoError(t, err)
	second, err := catalog.Fetch(ctx, cache, "arrivals:test", fill)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, calls)
	require.True(t, mr.Exists("arrivals:test"))

	mr.FastForward(2 * time.Minute)
	_, err = catalog.Fetch(ctx, cache, "arrivals:test", fill)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestFetchWithoutRedisAlwaysFills(t *testing.T) {
	cache := catalog.NewCache(nil, time.Minute)
	calls := 0
	for i := 0; i < 2; i++ {
		_, err := catalog.Fetch(context.Background(), cache, "k", func(context.Context) (int, error) {
			calls++
			return calls, nil
		})
		require.NoError(t, err)
	}
	require.Equal(t, 2, calls)

	_, err := catalog.Fetch(context.Background(), cache, "k", func(context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	require.EqualError(t, err, "boom")
}

func TestFetchSharedFillSurvivesFirstCallerCancel(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := catalog.NewCache(client, time.Minute)
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fillErr := make(chan error, 1)
	fill := func(ctx context.Context) (string, error) {
		calls.Add(1)
		close(started)
		<-release
		fillErr <- ctx.Err()
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "Pac Tee", nil
	}

	firstCtx, cancel := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := catalog.Fetch(firstCtx, cache, "arrivals:shared", fill)
		firstDone <- err
	}()
	<-started

	secondDone := make(chan string, 1)
	go func() {
		v, err := catalog.Fetch(context.Background(), cache, "arrivals:shared", fill)
		if err != nil {
			v = err.Error()
		}
		secondDone <- v
	}()

	cancel()
	require.ErrorIs(t, <-firstDone, context.Canceled)

	close(release)
	require.NoError(t, <-fillErr)
	require.Equal(t, "Pac Tee", <-secondDone)
	require.EqualValues(t, 1, calls.Load())
	require.True(t, mr.Exists("arrivals:shared"))
}
