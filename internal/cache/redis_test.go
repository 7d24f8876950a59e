// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedis(context.Background(), RedisConfig{Addr: mr.Addr()}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestRedisCache_SetGet(t *testing.T) {
	mr, c := setupMiniRedis(t)
	ctx := context.Background()

	c.Set(ctx, "details:123", []byte(`{"id":"123"}`), 5*time.Minute)
	got, ok := c.Get(ctx, "details:123")
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"123"}`, string(got))

	assert.True(t, mr.Exists("pzpanel:details:123"), "keys are prefixed")
	assert.Equal(t, 5*time.Minute, mr.TTL("pzpanel:details:123"))

	_, ok = c.Get(ctx, "nope")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestRedisCache_Expiry(t *testing.T) {
	mr, c := setupMiniRedis(t)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Second)
	mr.FastForward(2 * time.Second)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisCache_ClearKeepsForeignKeys(t *testing.T) {
	mr, c := setupMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("other:key", "keep"))
	c.Set(ctx, "a", []byte("1"), time.Minute)
	c.Set(ctx, "b", []byte("2"), time.Minute)

	c.Clear(ctx)
	assert.False(t, mr.Exists("pzpanel:a"))
	assert.False(t, mr.Exists("pzpanel:b"))
	assert.True(t, mr.Exists("other:key"))
	assert.Equal(t, 0, c.Stats().CurrentSize)
}

func TestRedisCache_Delete(t *testing.T) {
	_, c := setupMiniRedis(t)
	ctx := context.Background()
	c.Set(ctx, "a", []byte("1"), time.Minute)
	c.Delete(ctx, "a")
	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	require.NoError(t, c.HealthCheck(ctx))
}

func TestNewFallsBackWithoutRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	c, err := New(context.Background(), Options{Backend: BackendRedis, Redis: RedisConfig{Addr: addr}}, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	assert.IsType(t, &memoryCache{}, c)
}
