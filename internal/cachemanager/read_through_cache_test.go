package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type profile struct {
	ID   string
	Role string
}

func TestInMemoryCacheManager_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[profile]("profiles", DefaultExpiration, DefaultCleanupInterval)

	_, ok := cache.Get(ctx, "u1")
	require.False(t, ok)

	cache.Set(ctx, "u1", profile{ID: "u1", Role: "admin"}, time.Minute)
	got, ok := cache.Get(ctx, "u1")
	require.True(t, ok)
	require.Equal(t, "admin", got.Role)
	require.Equal(t, 1, cache.Len())

	cache.Delete(ctx, "u1")
	_, ok = cache.Get(ctx, "u1")
	require.False(t, ok)
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string]("short", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(ctx, "k", "v", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	_, ok := cache.Get(ctx, "k")
	require.False(t, ok)
}

func TestReadThroughCache_LoadsOnce(t *testing.T) {
	ctx := context.Background()
	calls := 0
	rt := NewReadThroughCache[profile](
		NewInMemoryCacheManager[profile]("profiles", DefaultExpiration, DefaultCleanupInterval),
		func(_ context.Context, key string) (profile, error) {
			calls++
			return profile{ID: key}, nil
		},
		time.Minute,
	)

	for i := 0; i < 3; i++ {
		got, err := rt.Get(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, "u1", got.ID)
	}
	require.Equal(t, 1, calls)

	rt.Invalidate(ctx, "u1")
	_, err := rt.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestReadThroughCache_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	calls := 0
	boom := errors.New("boom")
	rt := NewReadThroughCache[profile](
		NewInMemoryCacheManager[profile]("profiles", DefaultExpiration, DefaultCleanupInterval),
		func(context.Context, string) (profile, error) {
			calls++
			return profile{}, boom
		},
		time.Minute,
	)

	_, err := rt.Get(ctx, "u1")
	require.ErrorIs(t, err, boom)
	_, err = rt.Get(ctx, "u1")
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, calls)
}

func TestReadThroughCache_ZeroTTLBypasses(t *testing.T) {
	ctx := context.Background()
	calls := 0
	rt := NewReadThroughCache[string](
		NewInMemoryCacheManager[string]("bypass", DefaultExpiration, DefaultCleanupInterval),
		func(context.Context, string) (string, error) {
			calls++
			return "v", nil
		},
		0,
	)
	_, _ = rt.Get(ctx, "k")
	_, _ = rt.Get(ctx, "k")
	require.Equal(t, 2, calls)
}
