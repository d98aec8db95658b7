package services

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
)

// CSRFService issues and validates anti-forgery tokens. Tokens are valid
// for their full lifetime and may be reused across multiple state-changing
// calls from the same page load; they are not single-use nonces.
type CSRFService struct {
	appContext.DefaultService

	mu       sync.Mutex
	tokens   map[string]time.Time
	tokenTTL time.Duration
	now      func() time.Time
}

const CSRF_SVC = "csrf_svc"

func (svc CSRFService) Id() string {
	return CSRF_SVC
}

func (svc *CSRFService) Configure(ctx *appContext.Context) error {
	svc.tokens = make(map[string]time.Time)
	svc.tokenTTL = time.Hour
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *CSRFService) Start() error {
	return nil
}

// IssueToken creates a 256-bit random token and sweeps expired entries
// while it holds the lock. Cleanup is amortized over issuance; no
// background timer is needed.
func (svc *CSRFService) IssueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	svc.mu.Lock()
	defer svc.mu.Unlock()

	now := svc.now()
	for tok, expiresAt := range svc.tokens {
		if now.After(expiresAt) {
			delete(svc.tokens, tok)
		}
	}

	svc.tokens[token] = now.Add(svc.tokenTTL)
	return token, nil
}

// ValidateToken reports whether the token exists and has not expired. An
// expired token is evicted on the validation attempt.
func (svc *CSRFService) ValidateToken(token string) bool {
	if token == "" {
		return false
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	expiresAt, exists := svc.tokens[token]
	if !exists {
		return false
	}

	if svc.now().After(expiresAt) {
		delete(svc.tokens, token)
		return false
	}

	return true
}

func (svc *CSRFService) TokenTTL() time.Duration {
	return svc.tokenTTL
}
