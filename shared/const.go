package shared

const (
	UserID     = "user_id"
	UserEmail  = "user_email"
	UserRole   = "user_role"
	RequestID  = "request_id"
	RequestCtx = "request_ctx"

	RoleUser  = "user"
	RoleAdmin = "admin"

	// Actor fields on audit entries written before any identity is
	// resolved. Entries always carry a full actor shape.
	AnonymousUserID = "anonymous"
	AnonymousEmail  = "anonymous"
	AnonymousRole   = "anonymous"

	CSRFHeader = "X-CSRF-Token"
)

// Log categories. Every logrus entry emitted by this service carries one.
const (
	CategorySecurity = "security"
	CategoryAuth     = "auth"
	CategoryAudit    = "audit"
	CategoryAPI      = "api"
	CategoryDatabase = "database"
	CategorySystem   = "system"
)

// Audit action kinds. An audit entry's action must be one of these.
const (
	ActionCreate             = "create"
	ActionUpdate             = "update"
	ActionDelete             = "delete"
	ActionLogin              = "login"
	ActionLoginFailed        = "login_failed"
	ActionLogout             = "logout"
	ActionRegister           = "register"
	ActionAccessDenied       = "access_denied"
	ActionRateLimitExceeded  = "rate_limit_exceeded"
	ActionCSRFRejected       = "csrf_rejected"
	ActionSessionExpired     = "session_expired"
	ActionSessionRevoked     = "session_revoked"
	ActionForcedLogout       = "forced_logout"
	ActionAccountLocked      = "account_locked"
	ActionSuspiciousActivity = "suspicious_activity"
	ActionTooManySessions    = "too_many_sessions"
)

// Audit resource families.
const (
	ResourceUser     = "user"
	ResourceCoupon   = "coupon"
	ResourceBrand    = "brand"
	ResourceCategory = "category"
	ResourceSecurity = "security"
)
