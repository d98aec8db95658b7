package services

import (
	"errors"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/couponhub/coupon_api/dto"
	"github.com/couponhub/coupon_api/model"
	"github.com/couponhub/coupon_api/shared"
)

var errInvalidCredentials = errors.New("invalid credentials")

// AuthService owns registration and the credential-verification side of
// login. The security pipeline never sees passwords; it only consumes the
// identity this service (via JWTService) vouches for.
type AuthService struct {
	appContext.DefaultService

	sqlSvc     *PostgresService
	jwtSvc     *JWTService
	lockoutSvc *LockoutService
	sessionSvc *SessionActivityService
	auditSvc   *AuditService
	geoSvc     *GeolocationService
}

const AUTH_SVC = "auth_svc"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	svc.lockoutSvc = svc.Service(LOCKOUT_SVC).(*LockoutService)
	svc.sessionSvc = svc.Service(SESSION_ACTIVITY_SVC).(*SessionActivityService)
	svc.auditSvc = svc.Service(AUDIT_SVC).(*AuditService)
	svc.geoSvc = svc.Service(GEOLOCATION_SVC).(*GeolocationService)
	return nil
}

func (svc *AuthService) Register(req dto.RegisterRequest, reqCtx dto.RequestContext) (*dto.RegisterResponse, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to process password")
	}

	user, err := svc.sqlSvc.CreateUser(&model.User{
		Email:    req.Email,
		Username: req.Username,
		Password: string(hashed),
		Role:     shared.RoleUser,
		IsActive: true,
	})
	if err != nil {
		if appErr, ok := shared.GetAppError(err); ok && appErr.Kind == shared.KindConflict {
			return nil, shared.NewConflictError(appErr.Err, "Email or username is already taken")
		}
		return nil, err
	}

	svc.auditSvc.LogUserAction(shared.ActionRegister, dto.Identity{
		UserID: user.ID, Email: user.Email, Role: user.Role,
	}, user.ID, reqCtx, nil)

	return &dto.RegisterResponse{
		UserID:  user.ID,
		Message: "Registration successful",
	}, nil
}

// Login verifies credentials, applying the failed-attempt lockout. The
// lockout counter clears exactly once, on a successful authentication.
func (svc *AuthService) Login(req dto.LoginRequest, reqCtx dto.RequestContext) (*dto.LoginResponse, error) {
	user, err := svc.sqlSvc.GetUserByEmail(req.Email)
	if err != nil {
		// Unknown identity: keep the response indistinguishable from a
		// wrong password.
		svc.auditSvc.LogSecurityEvent(shared.ActionLoginFailed, AnonymousActor(), reqCtx, map[string]interface{}{
			"email":  req.Email,
			"reason": "unknown_user",
		})
		return nil, shared.NewAuthenticationError(errInvalidCredentials, "Invalid email or password")
	}

	identity := dto.Identity{UserID: user.ID, Email: user.Email, Role: user.Role}

	if locked, lockoutUntil := svc.lockoutSvc.IsLocked(user.ID); locked {
		svc.auditSvc.LogSecurityEvent(shared.ActionAccountLocked, identity, reqCtx, map[string]interface{}{
			"lockout_until": lockoutUntil.UTC().Format(time.RFC3339),
		})
		return nil, shared.NewAuthenticationError(nil, "Account temporarily locked. Try again later.").
			WithDetails(map[string]interface{}{"lockout_until": lockoutUntil.UTC().Format(time.RFC3339)})
	}

	if !user.IsActive {
		return nil, shared.NewAuthorizationError(nil, "Account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		count, justLocked := svc.lockoutSvc.RecordFailure(user.ID)

		svc.auditSvc.LogUserAction(shared.ActionLoginFailed, identity, user.ID, reqCtx, map[string]interface{}{
			"failed_attempts": count,
		})

		if justLocked {
			lockouts.Inc()
			svc.emitLockoutEvent(identity, reqCtx, count)
		}

		return nil, shared.NewAuthenticationError(errInvalidCredentials, "Invalid email or password")
	}

	svc.lockoutSvc.Clear(user.ID)

	now := time.Now()
	user.LastLogin = &now
	user.LastLoginIP = reqCtx.IP
	if err := svc.sqlSvc.UpdateUser(user); err != nil {
		log.WithFields(log.Fields{
			"category": shared.CategoryAuth,
			"user_id":  user.ID,
			"error":    err.Error(),
		}).Warn("Failed to record last login")
	}

	tokens, err := svc.jwtSvc.GenerateTokenPair(identity)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to issue access token")
	}

	svc.sessionSvc.Touch(SessionKey(reqCtx.IP, reqCtx.UserAgent), user.ID, reqCtx.IP, reqCtx.UserAgent, reqCtx.Endpoint)

	svc.auditSvc.LogUserAction(shared.ActionLogin, identity, user.ID, reqCtx, nil)

	return &dto.LoginResponse{
		AccessToken: tokens.AccessToken,
		ExpiresIn:   tokens.ExpiresIn,
		User: dto.UserInfo{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
			LastLogin: user.LastLogin,
		},
	}, nil
}

// emitLockoutEvent records the distinguishable suspicious-activity event
// that fires when the failure threshold is crossed, enriched best-effort
// with the origin's geolocation.
func (svc *AuthService) emitLockoutEvent(identity dto.Identity, reqCtx dto.RequestContext, attempts int) {
	metadata := map[string]interface{}{
		"failed_attempts":  attempts,
		"lockout_duration": svc.lockoutSvc.LockoutDuration().String(),
	}

	if geo, err := svc.geoSvc.Lookup(reqCtx.IP); err == nil && geo != nil {
		metadata["origin_country"] = geo.CountryName
		metadata["origin_city"] = geo.CityName
	}

	svc.auditSvc.LogSecurityEvent(shared.ActionSuspiciousActivity, identity, reqCtx, metadata)
}

func (svc *AuthService) Logout(identity dto.Identity, reqCtx dto.RequestContext) {
	svc.sessionSvc.Invalidate(SessionKey(reqCtx.IP, reqCtx.UserAgent))
	svc.auditSvc.LogUserAction(shared.ActionLogout, identity, identity.UserID, reqCtx, nil)
}

func (svc *AuthService) LogoutAllDevices(identity dto.Identity, reqCtx dto.RequestContext) int {
	removed := svc.sessionSvc.ForceLogoutUser(identity.UserID)
	svc.auditSvc.LogUserAction(shared.ActionForcedLogout, identity, identity.UserID, reqCtx, map[string]interface{}{
		"sessions_removed": removed,
	})
	return removed
}
