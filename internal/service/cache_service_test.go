package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCacheKeySkipsBlankParts(t *testing.T) {
	assert.Equal(t, "dashboard:student:u1", Key("dashboard", " ", "student", "", "u1 "))
	assert.Equal(t, "", Key())
}

func TestCacheServiceHitMissAndMetrics(t *testing.T) {
	store := newMemoryCacheStore()
	metrics := NewMetricsService()
	cache := NewCacheService(store, metrics, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var out map[string]int
	found, err := cache.Get(ctx, "dashboard:admin", &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, "dashboard:admin", map[string]int{"students": 4}, 0))
	found, err = cache.Get(ctx, "dashboard:admin", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 4, out["students"])

	snap := metrics.Snapshot()
	assert.EqualValues(t, 1, snap.Cache.Hits)
	assert.EqualValues(t, 1, snap.Cache.Misses)
}

func TestCacheServiceInvalidate(t *testing.T) {
	store := newMemoryCacheStore()
	cache := NewCacheService(store, nil, time.Minute, nil, true)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "dashboard:student:u1", 1, time.Minute))
	require.NoError(t, cache.Set(ctx, "dashboard:student:u2", 2, time.Minute))
	require.NoError(t, cache.Set(ctx, "dashboard:admin", 3, time.Minute))

	require.NoError(t, cache.Invalidate(ctx, "dashboard:student:*"))
	assert.Len(t, store.items, 1)
	assert.Contains(t, store.items, "dashboard:admin")
}

func TestCacheServiceSurfacesStoreErrors(t *testing.T) {
	store := newMemoryCacheStore()
	store.getErr = errors.New("connection reset")
	cache := NewCacheService(store, nil, time.Minute, nil, true)

	var out int
	found, err := cache.Get(context.Background(), "k", &out)
	assert.False(t, found)
	assert.EqualError(t, err, "connection reset")
}

func TestCacheServiceDisabled(t *testing.T) {
	store := newMemoryCacheStore()
	disabled := NewCacheService(store, nil, time.Minute, nil, false)
	ctx := context.Background()

	require.NoError(t, disabled.Set(ctx, "k", 1, 0))
	assert.Empty(t, store.items)
	var out int
	found, err := disabled.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, store.gets)

	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
	require.NoError(t, nilCache.Invalidate(ctx, "*"))
}
