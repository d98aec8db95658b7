package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRateLimitService(now func() time.Time) *RateLimitService {
	store := newMemoryRateLimitStore()
	store.now = now
	return &RateLimitService{store: store, memStore: store}
}

func TestRateLimitCheckCountsWithinWindow(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestRateLimitService(func() time.Time { return current })

	for i := 1; i <= 3; i++ {
		allowed, info, err := svc.Check("1.2.3.4", "/api/v1/login", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, i, info.Count)
		assert.Equal(t, 3-i, info.Remaining)
	}

	allowed, info, err := svc.Check("1.2.3.4", "/api/v1/login", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 4, info.Count)
	assert.Equal(t, 0, info.Remaining)
}

func TestRateLimitWindowRollsOverLazily(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestRateLimitService(func() time.Time { return current })

	for i := 0; i < 3; i++ {
		_, _, err := svc.Check("1.2.3.4", "/route", 2, time.Minute)
		require.NoError(t, err)
	}

	allowed, _, err := svc.Check("1.2.3.4", "/route", 2, time.Minute)
	require.NoError(t, err)
	require.False(t, allowed)

	// The first call after the deadline starts a fresh window.
	current = current.Add(61 * time.Second)

	allowed, info, err := svc.Check("1.2.3.4", "/route", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, info.Count)
}

func TestRateLimitKeysAreIndependent(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestRateLimitService(func() time.Time { return current })

	for i := 0; i < 2; i++ {
		_, _, err := svc.Check("1.2.3.4", "/route", 1, time.Minute)
		require.NoError(t, err)
	}

	// Different client, same route.
	allowed, _, err := svc.Check("5.6.7.8", "/route", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Same client, different route.
	allowed, _, err = svc.Check("1.2.3.4", "/other", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitResetKey(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestRateLimitService(func() time.Time { return current })

	for i := 0; i < 2; i++ {
		_, _, err := svc.Check("1.2.3.4", "/route", 1, time.Minute)
		require.NoError(t, err)
	}

	require.NoError(t, svc.ResetKey("1.2.3.4", "/route"))

	allowed, info, err := svc.Check("1.2.3.4", "/route", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, info.Count)
}

func TestMemoryStoreSweepDropsExpiredWindows(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newMemoryRateLimitStore()
	store.now = func() time.Time { return current }

	_, _, err := store.Incr("a", time.Minute)
	require.NoError(t, err)
	_, _, err = store.Incr("b", time.Hour)
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)

	assert.Equal(t, 1, store.sweep())
	assert.Len(t, store.entries, 1)
	assert.Contains(t, store.entries, "b")
}
