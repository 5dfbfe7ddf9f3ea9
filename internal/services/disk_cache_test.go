package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/richard-sim/internal/models"
)

func TestDiskCacheSetGet(t *testing.T) {
	cache := NewDiskCache(newTestDB(t).DB)
	ctx := context.Background()

	logs := goalLogs(1, 100, 0, 1, 2)
	require.NoError(t, cache.Set(ctx, "nhl:gamelog:1:20232024", logs, time.Hour))

	var got []models.PlayerGameRecord
	require.NoError(t, cache.Get(ctx, "nhl:gamelog:1:20232024", &got))
	assert.Equal(t, logs, got)

	var missing []models.PlayerGameRecord
	assert.ErrorIs(t, cache.Get(ctx, "nhl:gamelog:2:20232024", &missing), ErrCacheMiss)
}

func TestDiskCacheOverwrite(t *testing.T) {
	cache := NewDiskCache(newTestDB(t).DB)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "nhl:team:1", "EDM", time.Hour))
	require.NoError(t, cache.Set(ctx, "nhl:team:1", "TOR", time.Hour))

	var team string
	require.NoError(t, cache.Get(ctx, "nhl:team:1", &team))
	assert.Equal(t, "TOR", team)
}

func TestDiskCacheExpiry(t *testing.T) {
	cache := NewDiskCache(newTestDB(t).DB)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "short", 1, time.Minute))
	require.NoError(t, cache.Set(ctx, "forever", 2, 0))

	now = now.Add(2 * time.Minute)

	var v int
	assert.ErrorIs(t, cache.Get(ctx, "short", &v), ErrCacheMiss)
	require.NoError(t, cache.Get(ctx, "forever", &v))
	assert.Equal(t, 2, v)
}

func TestDiskCacheDeleteExpired(t *testing.T) {
	cache := NewDiskCache(newTestDB(t).DB)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, cache.Set(ctx, "b", 2, 48*time.Hour))
	require.NoError(t, cache.Set(ctx, "c", 3, 0))

	now = now.Add(time.Hour)

	n, err := cache.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var v int
	assert.NoError(t, cache.Get(ctx, "b", &v))
	assert.NoError(t, cache.Get(ctx, "c", &v))
}

func TestDiskCacheClear(t *testing.T) {
	cache := NewDiskCache(newTestDB(t).DB)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "nhl:gamelog:1:20232024", 1, time.Hour))
	require.NoError(t, cache.Set(ctx, "nhl:standings:now", 2, time.Hour))
	require.NoError(t, cache.Set(ctx, "other", 3, time.Hour))

	n, err := cache.Clear(ctx, "nhl:")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var v int
	assert.NoError(t, cache.Get(ctx, "other", &v))
	assert.ErrorIs(t, cache.Get(ctx, "nhl:standings:now", &v), ErrCacheMiss)
}

func TestNoopCache(t *testing.T) {
	var cache ResponseCache = NoopCache{}
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", 1, time.Hour))
	var v int
	assert.ErrorIs(t, cache.Get(ctx, "k", &v), ErrCacheMiss)
}
