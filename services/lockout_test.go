package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLockoutService(now func() time.Time) *LockoutService {
	return &LockoutService{
		attempts:        make(map[string]*failedAttemptEntry),
		maxAttempts:     5,
		lockoutDuration: 15 * time.Minute,
		now:             now,
	}
}

func TestRecordFailureLocksAtThreshold(t *testing.T) {
	svc := newTestLockoutService(time.Now)

	for i := 1; i <= 4; i++ {
		count, justLocked := svc.RecordFailure("user-1")
		assert.Equal(t, i, count)
		assert.False(t, justLocked)

		locked, _ := svc.IsLocked("user-1")
		assert.False(t, locked)
	}

	count, justLocked := svc.RecordFailure("user-1")
	assert.Equal(t, 5, count)
	assert.True(t, justLocked)

	locked, until := svc.IsLocked("user-1")
	assert.True(t, locked)
	require.NotNil(t, until)
}

func TestJustLockedFiresExactlyOnce(t *testing.T) {
	svc := newTestLockoutService(time.Now)

	lockedEvents := 0
	for i := 0; i < 8; i++ {
		if _, justLocked := svc.RecordFailure("user-1"); justLocked {
			lockedEvents++
		}
	}

	assert.Equal(t, 1, lockedEvents)
}

func TestLockoutExpiresAfterDuration(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestLockoutService(func() time.Time { return current })

	for i := 0; i < 5; i++ {
		svc.RecordFailure("user-1")
	}

	locked, until := svc.IsLocked("user-1")
	require.True(t, locked)
	assert.Equal(t, current.Add(15*time.Minute), *until)

	current = current.Add(15 * time.Minute)

	locked, _ = svc.IsLocked("user-1")
	assert.False(t, locked)
	// The expired entry was cleared, so the counter starts over.
	assert.Equal(t, 0, svc.FailureCount("user-1"))
}

func TestClearResetsCounter(t *testing.T) {
	svc := newTestLockoutService(time.Now)

	svc.RecordFailure("user-1")
	svc.RecordFailure("user-1")
	require.Equal(t, 2, svc.FailureCount("user-1"))

	svc.Clear("user-1")
	assert.Equal(t, 0, svc.FailureCount("user-1"))

	locked, _ := svc.IsLocked("user-1")
	assert.False(t, locked)
}

func TestStaleFailuresStartFreshWindow(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestLockoutService(func() time.Time { return current })

	svc.RecordFailure("user-1")
	svc.RecordFailure("user-1")

	// Failures older than the lockout duration no longer count.
	current = current.Add(16 * time.Minute)

	count, justLocked := svc.RecordFailure("user-1")
	assert.Equal(t, 1, count)
	assert.False(t, justLocked)
}

func TestLockoutIsPerUser(t *testing.T) {
	svc := newTestLockoutService(time.Now)

	for i := 0; i < 5; i++ {
		svc.RecordFailure("user-1")
	}

	locked, _ := svc.IsLocked("user-1")
	assert.True(t, locked)

	locked, _ = svc.IsLocked("user-2")
	assert.False(t, locked)
}
