package services

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/couponhub/coupon_api/dto"
)

type sessionActivityEntry struct {
	userID         string
	lastActivityAt time.Time
	ip             string
	userAgent      string
	endpoint       string
}

// SessionActivityService tracks per-session last-activity timestamps and
// enforces the inactivity timeout. The session key is derived from client
// address and user agent rather than a random per-login token, so repeated
// requests from the same apparent client map to the same tracked session.
// Two users behind the same NAT with identical user agents collide into
// one entry; kept for parity with the original design.
type SessionActivityService struct {
	appContext.DefaultService

	mu              sync.RWMutex
	sessions        map[string]*sessionActivityEntry
	activityTimeout time.Duration
	now             func() time.Time
}

const SESSION_ACTIVITY_SVC = "session_activity_svc"

func (svc SessionActivityService) Id() string {
	return SESSION_ACTIVITY_SVC
}

func (svc *SessionActivityService) Configure(ctx *appContext.Context) error {
	svc.sessions = make(map[string]*sessionActivityEntry)
	svc.now = time.Now

	svc.activityTimeout = 30 * time.Minute
	if raw := os.Getenv("SESSION_ACTIVITY_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			svc.activityTimeout = d
		}
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *SessionActivityService) Start() error {
	go svc.startCleanupJob()
	return nil
}

// SessionKey derives the deterministic tracking key for a client.
func SessionKey(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent))
	return hex.EncodeToString(sum[:])
}

// Touch records activity for a session. It reports false when the entry
// exceeded the inactivity timeout, evicting it in the same call; the next
// touch starts a fresh session.
func (svc *SessionActivityService) Touch(sessionKey, userID, ip, userAgent, endpoint string) bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	now := svc.now()
	entry, exists := svc.sessions[sessionKey]
	if !exists {
		svc.sessions[sessionKey] = &sessionActivityEntry{
			userID:         userID,
			lastActivityAt: now,
			ip:             ip,
			userAgent:      userAgent,
			endpoint:       endpoint,
		}
		return true
	}

	if now.Sub(entry.lastActivityAt) > svc.activityTimeout {
		delete(svc.sessions, sessionKey)
		return false
	}

	entry.userID = userID
	entry.lastActivityAt = now
	entry.endpoint = endpoint
	return true
}

// CountForUser scans the whole registry. O(n) over tracked sessions, which
// is fine at this registry's scale.
func (svc *SessionActivityService) CountForUser(userID string) int {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	count := 0
	for _, entry := range svc.sessions {
		if entry.userID == userID {
			count++
		}
	}
	return count
}

func (svc *SessionActivityService) Invalidate(sessionKey string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	delete(svc.sessions, sessionKey)
}

// ForceLogoutUser removes every tracked session owned by the user.
func (svc *SessionActivityService) ForceLogoutUser(userID string) int {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	removed := 0
	for key, entry := range svc.sessions {
		if entry.userID == userID {
			delete(svc.sessions, key)
			removed++
		}
	}
	return removed
}

// SessionsForUser lists the live sessions a user owns, for the session
// management endpoints.
func (svc *SessionActivityService) SessionsForUser(userID, currentKey string) []dto.SessionInfo {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	var sessions []dto.SessionInfo
	for key, entry := range svc.sessions {
		if entry.userID != userID {
			continue
		}
		sessions = append(sessions, dto.SessionInfo{
			SessionKey:   key[:16],
			IP:           entry.ip,
			UserAgent:    entry.userAgent,
			Endpoint:     entry.endpoint,
			LastActivity: entry.lastActivityAt,
			IsCurrent:    key == currentKey,
		})
	}
	return sessions
}

// FindKeyByPrefix resolves the shortened key shown to clients back to the
// full registry key.
func (svc *SessionActivityService) FindKeyByPrefix(userID, prefix string) (string, bool) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	for key, entry := range svc.sessions {
		if entry.userID == userID && len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			return key, true
		}
	}
	return "", false
}

func (svc *SessionActivityService) ActivityTimeout() time.Duration {
	return svc.activityTimeout
}

func (svc *SessionActivityService) sweepExpired() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	now := svc.now()
	removed := 0
	for key, entry := range svc.sessions {
		if now.Sub(entry.lastActivityAt) > svc.activityTimeout {
			delete(svc.sessions, key)
			removed++
		}
	}
	return removed
}

func (svc *SessionActivityService) startCleanupJob() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if removed := svc.sweepExpired(); removed > 0 {
			log.WithFields(log.Fields{
				"category": "system",
				"removed":  removed,
			}).Info("Inactive session sweep completed")
		}
	}
}
