package llm_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"taskflow/core/internal/llm"
)

func newMiniredisLimiter(t *testing.T, window time.Duration) *llm.RateLimiter {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return llm.NewRateLimiter(client, window)
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	rl := newMiniredisLimiter(t, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, "gpt-4o", 3)
		require.NoError(t, err)
		require.True(t, ok, "request %d should be allowed", i)
	}
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	rl := newMiniredisLimiter(t, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := rl.Allow(ctx, "gpt-4o", 2)
		require.NoError(t, err)
	}
	ok, err := rl.Allow(ctx, "gpt-4o", 2)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRateLimiter_Reset_ClearsWindow(t *testing.T) {
	rl := newMiniredisLimiter(t, time.Minute)
	ctx := context.Background()

	_, err := rl.Allow(ctx, "gpt-4o", 1)
	require.NoError(t, err)
	ok, err := rl.Allow(ctx, "gpt-4o", 1)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, rl.Reset(ctx, "gpt-4o"))
	ok, err = rl.Allow(ctx, "gpt-4o", 1)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRateLimiter_IndependentPerModel(t *testing.T) {
	rl := newMiniredisLimiter(t, time.Minute)
	ctx := context.Background()

	_, err := rl.Allow(ctx, "model-a", 1)
	require.NoError(t, err)
	ok, err := rl.Allow(ctx, "model-b", 1)
	require.NoError(t, err)
	require.True(t, ok)
}
