package services

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couponhub/coupon_api/dto"
	"github.com/couponhub/coupon_api/model"
	"github.com/couponhub/coupon_api/shared"
)

type auditStoreStub struct {
	mu      sync.Mutex
	entries []*model.AuditLog
}

func (s *auditStoreStub) CreateAuditLog(entry *model.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *auditStoreStub) GetAuditLogs(dto.AuditLogFilter) ([]model.AuditLog, int64, error) {
	return nil, 0, nil
}

func (s *auditStoreStub) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Action
	}
	return out
}

type pipelineFixture struct {
	sec        *SecurityService
	jwtSvc     *JWTService
	csrfSvc    *CSRFService
	sessionSvc *SessionActivityService
	lockoutSvc *LockoutService
	auditStore *auditStoreStub
	clock      *time.Time
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	memStore := newMemoryRateLimitStore()
	memStore.now = now
	rateLimitSvc := &RateLimitService{store: memStore, memStore: memStore}

	csrfSvc := &CSRFService{tokens: make(map[string]time.Time), tokenTTL: time.Hour, now: now}
	sessionSvc := &SessionActivityService{
		sessions:        make(map[string]*sessionActivityEntry),
		activityTimeout: 30 * time.Minute,
		now:             now,
	}
	lockoutSvc := &LockoutService{
		attempts:        make(map[string]*failedAttemptEntry),
		maxAttempts:     5,
		lockoutDuration: 15 * time.Minute,
		now:             now,
	}
	jwtSvc := &JWTService{AccessTokenDuration: time.Hour, jwtSecretKey: "test-secret"}

	auditStore := &auditStoreStub{}
	auditSvc := &AuditService{store: auditStore, now: now}

	sec := &SecurityService{
		rateLimitSvc:          rateLimitSvc,
		csrfSvc:               csrfSvc,
		sessionSvc:            sessionSvc,
		lockoutSvc:            lockoutSvc,
		jwtSvc:                jwtSvc,
		auditSvc:              auditSvc,
		maxConcurrentSessions: 5,
	}

	return &pipelineFixture{
		sec:        sec,
		jwtSvc:     jwtSvc,
		csrfSvc:    csrfSvc,
		sessionSvc: sessionSvc,
		lockoutSvc: lockoutSvc,
		auditStore: auditStore,
		clock:      &clock,
	}
}

func newPipelineApp() *fiber.App {
	return fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          (&HttpService{}).handleError,
	})
}

func okHandler(c *fiber.Ctx) error {
	return shared.ResponseOK(c, "ok")
}

func (f *pipelineFixture) bearer(t *testing.T, identity dto.Identity) string {
	t.Helper()
	token, err := f.jwtSvc.ToJWT(identity)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestPipelineRateLimitRejectsOverLimit(t *testing.T) {
	f := newPipelineFixture(t)
	app := newPipelineApp()
	app.Get("/limited", f.sec.Secure(okHandler, SecureOptions{
		RateLimit: &RateLimitOptions{MaxRequests: 2, Window: time.Minute},
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		resp := doRequest(t, app, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	}

	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	resp := doRequest(t, app, req)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	assert.Contains(t, f.auditStore.actions(), shared.ActionRateLimitExceeded)
}

func TestPipelineRateLimitIsPerClient(t *testing.T) {
	f := newPipelineFixture(t)
	app := newPipelineApp()
	app.Get("/limited", f.sec.Secure(okHandler, SecureOptions{
		RateLimit: &RateLimitOptions{MaxRequests: 1, Window: time.Minute},
	}))

	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	req.Header.Set("X-Forwarded-For", "1.1.1.1")
	resp := doRequest(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/limited", nil)
	req.Header.Set("X-Forwarded-For", "1.1.1.1")
	resp = doRequest(t, app, req)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/limited", nil)
	req.Header.Set("X-Forwarded-For", "2.2.2.2")
	resp = doRequest(t, app, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPipelineCSRFOnStateChangingOnly(t *testing.T) {
	f := newPipelineFixture(t)
	app := newPipelineApp()
	app.Get("/resource", f.sec.Secure(okHandler, SecureOptions{RequireCSRF: true}))
	app.Post("/resource", f.sec.Secure(okHandler, SecureOptions{RequireCSRF: true}))

	// GET passes without a token.
	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/resource", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// POST without a token is rejected.
	resp = doRequest(t, app, httptest.NewRequest(http.MethodPost, "/resource", nil))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, f.auditStore.actions(), shared.ActionCSRFRejected)

	// POST with an issued token passes, and the token is reusable.
	token, err := f.csrfSvc.IssueToken()
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/resource", nil)
		req.Header.Set(shared.CSRFHeader, token)
		resp = doRequest(t, app, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestPipelineAuthRequiresValidToken(t *testing.T) {
	f := newPipelineFixture(t)
	app := newPipelineApp()
	app.Get("/me", f.sec.Secure(func(c *fiber.Ctx) error {
		return shared.ResponseOK(c, c.Locals(shared.UserID))
	}, SecureOptions{RequireAuth: true}))

	// Missing credentials.
	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Garbage token.
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp = doRequest(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Valid token reaches the handler with locals populated.
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", f.bearer(t, dto.Identity{UserID: "user-1", Email: "u@example.com", Role: shared.RoleUser}))
	resp = doRequest(t, app, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "user-1")
}

func TestPipelineRejectsLockedAccount(t *testing.T) {
	f := newPipelineFixture(t)
	app := newPipelineApp()
	app.Get("/me", f.sec.Secure(okHandler, SecureOptions{RequireAuth: true}))

	for i := 0; i < 5; i++ {
		f.lockoutSvc.RecordFailure("user-1")
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", f.bearer(t, dto.Identity{UserID: "user-1", Role: shared.RoleUser}))
	resp := doRequest(t, app, req)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, f.auditStore.actions(), shared.ActionAccountLocked)
}

func TestPipelineSessionExpiresAfterInactivity(t *testing.T) {
	f := newPipelineFixture(t)
	app := newPipelineApp()
	app.Get("/me", f.sec.Secure(okHandler, SecureOptions{RequireAuth: true}))

	auth := f.bearer(t, dto.Identity{UserID: "user-1", Role: shared.RoleUser})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", auth)
	resp := doRequest(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	*f.clock = f.clock.Add(31 * time.Minute)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", auth)
	resp = doRequest(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, f.auditStore.actions(), shared.ActionSessionExpired)

	// The expired entry was evicted, so the request after that starts a
	// fresh session and succeeds.
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", auth)
	resp = doRequest(t, app, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPipelineConcurrentSessionCap(t *testing.T) {
	f := newPipelineFixture(t)
	f.sec.maxConcurrentSessions = 2
	app := newPipelineApp()
	app.Get("/me", f.sec.Secure(okHandler, SecureOptions{RequireAuth: true}))

	// Two other live sessions for the same user.
	f.sessionSvc.Touch(SessionKey("9.9.9.1", "other"), "user-1", "9.9.9.1", "other", "/")
	f.sessionSvc.Touch(SessionKey("9.9.9.2", "other"), "user-1", "9.9.9.2", "other", "/")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", f.bearer(t, dto.Identity{UserID: "user-1", Role: shared.RoleUser}))
	resp := doRequest(t, app, req)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, f.auditStore.actions(), shared.ActionTooManySessions)

	// The over-cap attempt did not leave a tracked session behind.
	assert.Equal(t, 2, f.sessionSvc.CountForUser("user-1"))
}

func TestPipelineRoleEnforcement(t *testing.T) {
	f := newPipelineFixture(t)
	app := newPipelineApp()
	app.Get("/admin", f.sec.Secure(okHandler, SecureOptions{
		RequireAuth:         true,
		RequireElevatedRole: true,
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", f.bearer(t, dto.Identity{UserID: "user-1", Role: shared.RoleUser}))
	resp := doRequest(t, app, req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, f.auditStore.actions(), shared.ActionAccessDenied)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", f.bearer(t, dto.Identity{UserID: "admin-1", Role: shared.RoleAdmin}))
	resp = doRequest(t, app, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPipelineValidationRejectsBadBody(t *testing.T) {
	f := newPipelineFixture(t)
	app := newPipelineApp()
	app.Post("/brands", f.sec.Secure(okHandler, SecureOptions{
		Validate: func() dto.Validator { return &dto.CreateBrandRequest{} },
	}))

	// Empty body.
	resp := doRequest(t, app, httptest.NewRequest(http.MethodPost, "/brands", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Schema violation: slug is not a slug, name too short.
	body := bytes.NewReader([]byte(`{"name":"A","slug":"Not A Slug"}`))
	req := httptest.NewRequest(http.MethodPost, "/brands", body)
	req.Header.Set("Content-Type", "application/json")
	resp = doRequest(t, app, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "Validation failed")
}

func TestPipelineValidationSanitizesBody(t *testing.T) {
	f := newPipelineFixture(t)
	app := newPipelineApp()

	var received dto.CreateBrandRequest
	app.Post("/brands", f.sec.Secure(func(c *fiber.Ctx) error {
		if err := shared.JSONAPI().Unmarshal(c.Body(), &received); err != nil {
			return err
		}
		return shared.ResponseOK(c, nil)
	}, SecureOptions{
		Validate: func() dto.Validator { return &dto.CreateBrandRequest{} },
	}))

	body := bytes.NewReader([]byte(`{"name":"Acme <script>alert(1)</script>Store","slug":"acme-store"}`))
	req := httptest.NewRequest(http.MethodPost, "/brands", body)
	req.Header.Set("Content-Type", "application/json")
	resp := doRequest(t, app, req)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Acme Store", received.Name)
}

func TestPipelineStageOrderRateLimitBeforeCSRF(t *testing.T) {
	f := newPipelineFixture(t)
	app := newPipelineApp()
	app.Post("/resource", f.sec.Secure(okHandler, SecureOptions{
		RequireCSRF: true,
		RateLimit:   &RateLimitOptions{MaxRequests: 1, Window: time.Minute},
	}))

	// First request fails CSRF (no token): limiter stage ran first and
	// counted it.
	resp := doRequest(t, app, httptest.NewRequest(http.MethodPost, "/resource", nil))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Second request is over the limit; 429 wins over the CSRF failure.
	resp = doRequest(t, app, httptest.NewRequest(http.MethodPost, "/resource", nil))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	f := newPipelineFixture(t)
	app := newPipelineApp()
	app.Use(f.sec.SecurityHeaders())
	app.Get("/", okHandler)

	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", resp.Header.Get("Referrer-Policy"))
}
