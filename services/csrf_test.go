package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCSRFService(now func() time.Time) *CSRFService {
	return &CSRFService{
		tokens:   make(map[string]time.Time),
		tokenTTL: time.Hour,
		now:      now,
	}
}

func TestCSRFIssueAndValidate(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestCSRFService(func() time.Time { return current })

	token, err := svc.IssueToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)

	assert.True(t, svc.ValidateToken(token))
}

func TestCSRFTokenIsReusable(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestCSRFService(func() time.Time { return current })

	token, err := svc.IssueToken()
	require.NoError(t, err)

	// Tokens survive validation; they are not single-use nonces.
	for i := 0; i < 3; i++ {
		assert.True(t, svc.ValidateToken(token))
	}
}

func TestCSRFRejectsUnknownAndEmptyTokens(t *testing.T) {
	svc := newTestCSRFService(time.Now)

	assert.False(t, svc.ValidateToken(""))
	assert.False(t, svc.ValidateToken("deadbeef"))
}

func TestCSRFTokenExpires(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestCSRFService(func() time.Time { return current })

	token, err := svc.IssueToken()
	require.NoError(t, err)

	current = current.Add(time.Hour + time.Second)

	assert.False(t, svc.ValidateToken(token))
	// Expired entry is evicted on the failed validation.
	assert.Empty(t, svc.tokens)
}

func TestCSRFIssueSweepsExpiredTokens(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestCSRFService(func() time.Time { return current })

	stale, err := svc.IssueToken()
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)

	fresh, err := svc.IssueToken()
	require.NoError(t, err)

	assert.NotContains(t, svc.tokens, stale)
	assert.Contains(t, svc.tokens, fresh)
}

func TestCSRFTokensAreUnique(t *testing.T) {
	svc := newTestCSRFService(time.Now)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := svc.IssueToken()
		require.NoError(t, err)
		require.False(t, seen[token])
		seen[token] = true
	}
}
