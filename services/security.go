package services

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/couponhub/coupon_api/dto"
	"github.com/couponhub/coupon_api/shared"
)

// RateLimitOptions configures the fixed-window limit for one endpoint.
type RateLimitOptions struct {
	MaxRequests int
	Window      time.Duration
}

// SecureOptions declares what the pipeline enforces for an endpoint.
// Stages always run in the order rate-limit -> CSRF -> auth -> validation
// -> handler; a rejection at any stage short-circuits the rest while still
// emitting its own security event.
type SecureOptions struct {
	RequireAuth         bool
	RequireElevatedRole bool
	// Roles overrides the elevated-role set; defaults to admin only.
	Roles       []string
	RequireCSRF bool
	RateLimit   *RateLimitOptions
	// Validate returns a fresh schema instance for the endpoint's body.
	Validate func() dto.Validator
}

// SecurityService composes rate limiting, CSRF, authentication/
// authorization, session activity tracking and input validation into one
// pipeline wrapping a request handler.
type SecurityService struct {
	appContext.DefaultService

	rateLimitSvc *RateLimitService
	csrfSvc      *CSRFService
	sessionSvc   *SessionActivityService
	lockoutSvc   *LockoutService
	jwtSvc       *JWTService
	auditSvc     *AuditService

	maxConcurrentSessions int
}

const SECURITY_SVC = "security_svc"

func (svc SecurityService) Id() string {
	return SECURITY_SVC
}

func (svc *SecurityService) Configure(ctx *appContext.Context) error {
	svc.maxConcurrentSessions = 5
	if raw := os.Getenv("MAX_CONCURRENT_SESSIONS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			svc.maxConcurrentSessions = n
		}
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *SecurityService) Start() error {
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.csrfSvc = svc.Service(CSRF_SVC).(*CSRFService)
	svc.sessionSvc = svc.Service(SESSION_ACTIVITY_SVC).(*SessionActivityService)
	svc.lockoutSvc = svc.Service(LOCKOUT_SVC).(*LockoutService)
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	svc.auditSvc = svc.Service(AUDIT_SVC).(*AuditService)
	return nil
}

func isStateChanging(method string) bool {
	switch method {
	case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		return true
	}
	return false
}

// Secure wraps a business handler with the ordered security pipeline.
func (svc *SecurityService) Secure(handler fiber.Handler, opts SecureOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if opts.RateLimit != nil {
			if err := svc.rateLimitStage(c, opts.RateLimit); err != nil {
				return err
			}
		}

		if opts.RequireCSRF && isStateChanging(c.Method()) {
			if err := svc.csrfStage(c); err != nil {
				return err
			}
		}

		if opts.RequireAuth || opts.RequireElevatedRole {
			identity, err := svc.resolve(c)
			if err != nil {
				return err
			}

			if opts.RequireElevatedRole {
				if err := svc.requireRole(c, identity, opts.Roles); err != nil {
					return err
				}
			}

			c.Locals(shared.UserID, identity.UserID)
			c.Locals(shared.UserEmail, identity.Email)
			c.Locals(shared.UserRole, identity.Role)
		}

		if opts.Validate != nil && isStateChanging(c.Method()) {
			if err := svc.validationStage(c, opts.Validate); err != nil {
				return err
			}
		}

		return handler(c)
	}
}

// ==================== PIPELINE STAGES ====================

func (svc *SecurityService) rateLimitStage(c *fiber.Ctx, opts *RateLimitOptions) error {
	clientKey := GetClientIP(c)
	routeKey := c.Route().Path

	allowed, info, err := svc.rateLimitSvc.Check(clientKey, routeKey, opts.MaxRequests, opts.Window)
	if err != nil {
		// Infra failure in the limiter must not take the API down.
		log.WithFields(log.Fields{
			"category": shared.CategorySystem,
			"client":   clientKey,
			"route":    routeKey,
			"error":    err.Error(),
		}).Error("Rate limit check failed")
		return nil
	}

	svc.rateLimitSvc.AddRateLimitHeaders(c, info)

	if !allowed {
		rateLimitRejections.WithLabelValues(routeKey).Inc()
		svc.auditSvc.LogSecurityEvent(shared.ActionRateLimitExceeded, AnonymousActor(), RequestContextFrom(c), map[string]interface{}{
			"client_key": clientKey,
			"route_key":  routeKey,
			"count":      info.Count,
			"limit":      info.Limit,
		})
		return shared.NewRateLimitError(nil, "Too many requests. Please try again later.").
			WithDetails(map[string]interface{}{"limit": info.Limit})
	}

	return nil
}

func (svc *SecurityService) csrfStage(c *fiber.Ctx) error {
	token := c.Get(shared.CSRFHeader)
	if svc.csrfSvc.ValidateToken(token) {
		return nil
	}

	csrfRejections.Inc()
	svc.auditSvc.LogSecurityEvent(shared.ActionCSRFRejected, AnonymousActor(), RequestContextFrom(c), map[string]interface{}{
		"token_present": token != "",
	})
	return shared.NewAuthorizationError(nil, "Invalid or missing CSRF token")
}

// resolve produces the accept/reject verdict for the caller, in order:
// identity -> lockout -> session activity -> concurrent session cap.
func (svc *SecurityService) resolve(c *fiber.Ctx) (*dto.Identity, error) {
	reqCtx := RequestContextFrom(c)

	token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		authFailures.WithLabelValues("missing_credentials").Inc()
		return nil, shared.NewAuthenticationError(err, "Unauthorized")
	}

	identity, err := svc.jwtSvc.VerifyToken(token)
	if err != nil {
		authFailures.WithLabelValues("invalid_token").Inc()
		return nil, shared.NewAuthenticationError(err, "Unauthorized")
	}

	if locked, lockoutUntil := svc.lockoutSvc.IsLocked(identity.UserID); locked {
		authFailures.WithLabelValues("locked").Inc()
		svc.auditSvc.LogSecurityEvent(shared.ActionAccountLocked, *identity, reqCtx, map[string]interface{}{
			"lockout_until": lockoutUntil.UTC().Format(time.RFC3339),
		})
		return nil, shared.NewAuthenticationError(nil, "Account temporarily locked").
			WithDetails(map[string]interface{}{"lockout_until": lockoutUntil.UTC().Format(time.RFC3339)})
	}

	sessionKey := SessionKey(reqCtx.IP, reqCtx.UserAgent)
	if !svc.sessionSvc.Touch(sessionKey, identity.UserID, reqCtx.IP, reqCtx.UserAgent, reqCtx.Endpoint) {
		authFailures.WithLabelValues("session_expired").Inc()
		svc.auditSvc.LogSecurityEvent(shared.ActionSessionExpired, *identity, reqCtx, nil)
		return nil, shared.NewAuthenticationError(nil, "Session expired due to inactivity")
	}

	if count := svc.sessionSvc.CountForUser(identity.UserID); count > svc.maxConcurrentSessions {
		svc.sessionSvc.Invalidate(sessionKey)
		svc.auditSvc.LogSecurityEvent(shared.ActionTooManySessions, *identity, reqCtx, map[string]interface{}{
			"active_sessions": count,
			"max_sessions":    svc.maxConcurrentSessions,
		})
		return nil, shared.NewAuthorizationError(nil, "Too many concurrent sessions")
	}

	return identity, nil
}

func (svc *SecurityService) requireRole(c *fiber.Ctx, identity *dto.Identity, roles []string) error {
	if len(roles) == 0 {
		roles = []string{shared.RoleAdmin}
	}

	for _, role := range roles {
		if identity.Role == role {
			return nil
		}
	}

	authFailures.WithLabelValues("forbidden").Inc()
	svc.auditSvc.LogSecurityEvent(shared.ActionAccessDenied, *identity, RequestContextFrom(c), map[string]interface{}{
		"held_role":      identity.Role,
		"required_roles": strings.Join(roles, ","),
	})
	return shared.NewAuthorizationError(nil, "Insufficient privileges")
}

func (svc *SecurityService) validationStage(c *fiber.Ctx, schemaFactory func() dto.Validator) error {
	body := c.Body()
	if len(body) == 0 {
		return shared.NewValidationError(nil, "Request body is required")
	}

	var raw interface{}
	if err := shared.JSONAPI().Unmarshal(body, &raw); err != nil {
		return shared.NewValidationError(err, "Invalid JSON body")
	}

	sanitized, err := shared.JSONAPI().Marshal(shared.SanitizeValue(raw))
	if err != nil {
		return shared.NewInternalError(err, "Failed to process request body")
	}

	// Handlers re-parse the body, so they only ever see sanitized bytes.
	c.Request().SetBodyRaw(sanitized)

	schema := schemaFactory()
	if err := shared.JSONAPI().Unmarshal(sanitized, schema); err != nil {
		return shared.NewValidationError(err, "Invalid request body")
	}

	if err := schema.Validate(); err != nil {
		return shared.NewValidationError(err, dto.AggregateValidationMessage(err)).
			WithDetails(dto.FormatValidationErrors(err))
	}

	return nil
}

// ==================== STANDALONE MIDDLEWARE ====================

// SecurityHeaders appends the hardening headers to every response.
func (svc *SecurityService) SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		return c.Next()
	}
}

// RequireAuth is the plain authenticated-caller middleware for route
// groups that do not need the full Secure wrapper.
func (svc *SecurityService) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := svc.resolve(c)
		if err != nil {
			return err
		}

		c.Locals(shared.UserID, identity.UserID)
		c.Locals(shared.UserEmail, identity.Email)
		c.Locals(shared.UserRole, identity.Role)
		return c.Next()
	}
}

// IdentityFromLocals rebuilds the resolved identity inside a handler.
func IdentityFromLocals(c *fiber.Ctx) dto.Identity {
	identity := dto.Identity{}
	if v, ok := c.Locals(shared.UserID).(string); ok {
		identity.UserID = v
	}
	if v, ok := c.Locals(shared.UserEmail).(string); ok {
		identity.Email = v
	}
	if v, ok := c.Locals(shared.UserRole).(string); ok {
		identity.Role = v
	}
	return identity
}

// ==================== REQUEST HELPERS ====================

// GetClientIP walks the forwarding headers before falling back to the
// transport peer address.
func GetClientIP(c *fiber.Ctx) string {
	forwarded := c.Get("X-Forwarded-For")
	if forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if len(ips) > 0 {
			ip := strings.TrimSpace(ips[0])
			if ip != "" {
				return ip
			}
		}
	}

	realIP := c.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	cfIP := c.Get("CF-Connecting-IP")
	if cfIP != "" {
		return cfIP
	}

	ip, _, err := net.SplitHostPort(c.Context().RemoteAddr().String())
	if err != nil {
		return c.Context().RemoteAddr().String()
	}
	return ip
}

// RequestContextFrom captures the request origin for audit entries.
func RequestContextFrom(c *fiber.Ctx) dto.RequestContext {
	return dto.RequestContext{
		IP:        GetClientIP(c),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Endpoint:  c.Path(),
		Method:    c.Method(),
	}
}
