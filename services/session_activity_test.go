package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionService(now func() time.Time) *SessionActivityService {
	return &SessionActivityService{
		sessions:        make(map[string]*sessionActivityEntry),
		activityTimeout: 30 * time.Minute,
		now:             now,
	}
}

func TestSessionKeyIsDeterministic(t *testing.T) {
	a := SessionKey("1.2.3.4", "Mozilla/5.0")
	b := SessionKey("1.2.3.4", "Mozilla/5.0")
	c := SessionKey("1.2.3.4", "curl/8.0")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestTouchCreatesAndRefreshesSessions(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestSessionService(func() time.Time { return current })

	key := SessionKey("1.2.3.4", "ua")
	require.True(t, svc.Touch(key, "user-1", "1.2.3.4", "ua", "/a"))

	current = current.Add(20 * time.Minute)
	require.True(t, svc.Touch(key, "user-1", "1.2.3.4", "ua", "/b"))

	// The second touch reset the clock; 20 more minutes is still inside
	// the 30-minute window.
	current = current.Add(20 * time.Minute)
	assert.True(t, svc.Touch(key, "user-1", "1.2.3.4", "ua", "/c"))
}

func TestTouchEvictsAfterInactivityTimeout(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestSessionService(func() time.Time { return current })

	key := SessionKey("1.2.3.4", "ua")
	require.True(t, svc.Touch(key, "user-1", "1.2.3.4", "ua", "/a"))

	current = current.Add(31 * time.Minute)
	assert.False(t, svc.Touch(key, "user-1", "1.2.3.4", "ua", "/b"))

	// The expired entry was evicted, so the next touch starts fresh.
	assert.True(t, svc.Touch(key, "user-1", "1.2.3.4", "ua", "/c"))
}

func TestCountForUser(t *testing.T) {
	svc := newTestSessionService(time.Now)

	svc.Touch(SessionKey("1.1.1.1", "ua"), "user-1", "1.1.1.1", "ua", "/")
	svc.Touch(SessionKey("2.2.2.2", "ua"), "user-1", "2.2.2.2", "ua", "/")
	svc.Touch(SessionKey("3.3.3.3", "ua"), "user-2", "3.3.3.3", "ua", "/")

	assert.Equal(t, 2, svc.CountForUser("user-1"))
	assert.Equal(t, 1, svc.CountForUser("user-2"))
	assert.Equal(t, 0, svc.CountForUser("user-3"))
}

func TestForceLogoutUserRemovesOnlyTheirSessions(t *testing.T) {
	svc := newTestSessionService(time.Now)

	svc.Touch(SessionKey("1.1.1.1", "ua"), "user-1", "1.1.1.1", "ua", "/")
	svc.Touch(SessionKey("2.2.2.2", "ua"), "user-1", "2.2.2.2", "ua", "/")
	svc.Touch(SessionKey("3.3.3.3", "ua"), "user-2", "3.3.3.3", "ua", "/")

	assert.Equal(t, 2, svc.ForceLogoutUser("user-1"))
	assert.Equal(t, 0, svc.CountForUser("user-1"))
	assert.Equal(t, 1, svc.CountForUser("user-2"))
}

func TestSessionsForUserMarksCurrent(t *testing.T) {
	svc := newTestSessionService(time.Now)

	currentKey := SessionKey("1.1.1.1", "ua")
	svc.Touch(currentKey, "user-1", "1.1.1.1", "ua", "/profile")
	svc.Touch(SessionKey("2.2.2.2", "ua"), "user-1", "2.2.2.2", "ua", "/coupons")

	sessions := svc.SessionsForUser("user-1", currentKey)
	require.Len(t, sessions, 2)

	currentCount := 0
	for _, s := range sessions {
		assert.Len(t, s.SessionKey, 16)
		if s.IsCurrent {
			currentCount++
			assert.Equal(t, "1.1.1.1", s.IP)
		}
	}
	assert.Equal(t, 1, currentCount)
}

func TestFindKeyByPrefixScopedToUser(t *testing.T) {
	svc := newTestSessionService(time.Now)

	key := SessionKey("1.1.1.1", "ua")
	svc.Touch(key, "user-1", "1.1.1.1", "ua", "/")

	found, ok := svc.FindKeyByPrefix("user-1", key[:16])
	require.True(t, ok)
	assert.Equal(t, key, found)

	// Another user cannot resolve someone else's session.
	_, ok = svc.FindKeyByPrefix("user-2", key[:16])
	assert.False(t, ok)
}

func TestSweepExpiredSessions(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestSessionService(func() time.Time { return current })

	svc.Touch(SessionKey("1.1.1.1", "ua"), "user-1", "1.1.1.1", "ua", "/")

	current = current.Add(10 * time.Minute)
	svc.Touch(SessionKey("2.2.2.2", "ua"), "user-2", "2.2.2.2", "ua", "/")

	current = current.Add(25 * time.Minute)

	assert.Equal(t, 1, svc.sweepExpired())
	assert.Equal(t, 0, svc.CountForUser("user-1"))
	assert.Equal(t, 1, svc.CountForUser("user-2"))
}
