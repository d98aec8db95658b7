package services

import (
	"os"
	"strconv"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
)

type failedAttemptEntry struct {
	count         int
	lastAttemptAt time.Time
}

// LockoutService counts failed authentication attempts per user identity
// and enforces a timed lockout. Lock state auto-clears once the lockout
// duration has elapsed since the last failure; no explicit reset needed.
type LockoutService struct {
	appContext.DefaultService

	mu              sync.Mutex
	attempts        map[string]*failedAttemptEntry
	maxAttempts     int
	lockoutDuration time.Duration
	now             func() time.Time
}

const LOCKOUT_SVC = "lockout_svc"

func (svc LockoutService) Id() string {
	return LOCKOUT_SVC
}

func (svc *LockoutService) Configure(ctx *appContext.Context) error {
	svc.attempts = make(map[string]*failedAttemptEntry)
	svc.now = time.Now

	svc.maxAttempts = 5
	if raw := os.Getenv("LOCKOUT_MAX_ATTEMPTS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			svc.maxAttempts = n
		}
	}

	svc.lockoutDuration = 15 * time.Minute
	if raw := os.Getenv("LOCKOUT_DURATION"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			svc.lockoutDuration = d
		}
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *LockoutService) Start() error {
	return nil
}

// RecordFailure increments the per-user counter. justLocked is true only
// on the call that crosses the threshold, so the caller can emit a
// suspicious-activity event exactly once per lockout.
func (svc *LockoutService) RecordFailure(userID string) (count int, justLocked bool) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	now := svc.now()
	entry, exists := svc.attempts[userID]
	if !exists || now.Sub(entry.lastAttemptAt) >= svc.lockoutDuration {
		entry = &failedAttemptEntry{}
		svc.attempts[userID] = entry
	}

	entry.count++
	entry.lastAttemptAt = now
	return entry.count, entry.count == svc.maxAttempts
}

// IsLocked computes lock state from the stored counter. An expired lockout
// clears the entry as a side effect.
func (svc *LockoutService) IsLocked(userID string) (bool, *time.Time) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	entry, exists := svc.attempts[userID]
	if !exists || entry.count < svc.maxAttempts {
		return false, nil
	}

	lockoutUntil := entry.lastAttemptAt.Add(svc.lockoutDuration)
	if !svc.now().Before(lockoutUntil) {
		delete(svc.attempts, userID)
		return false, nil
	}

	return true, &lockoutUntil
}

// Clear removes the entry unconditionally. Called once on successful
// authentication.
func (svc *LockoutService) Clear(userID string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	delete(svc.attempts, userID)
}

// FailureCount returns the current counter for a user, 0 when none exists.
func (svc *LockoutService) FailureCount(userID string) int {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if entry, exists := svc.attempts[userID]; exists {
		return entry.count
	}
	return 0
}

func (svc *LockoutService) MaxAttempts() int {
	return svc.maxAttempts
}

func (svc *LockoutService) LockoutDuration() time.Duration {
	return svc.lockoutDuration
}
