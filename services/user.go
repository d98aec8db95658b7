package services

import (
	appContext "github.com/alphabatem/common/context"

	"github.com/couponhub/coupon_api/dto"
	"github.com/couponhub/coupon_api/shared"
)

// UserService exposes profile and session-management operations on top of
// the identity and session registries.
type UserService struct {
	appContext.DefaultService

	sqlSvc     *PostgresService
	sessionSvc *SessionActivityService
	auditSvc   *AuditService
}

const USER_SVC = "user_svc"

func (svc UserService) Id() string {
	return USER_SVC
}

func (svc *UserService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *UserService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.sessionSvc = svc.Service(SESSION_ACTIVITY_SVC).(*SessionActivityService)
	svc.auditSvc = svc.Service(AUDIT_SVC).(*AuditService)
	return nil
}

func (svc *UserService) GetProfile(userID string) (*dto.UserInfo, error) {
	user, err := svc.sqlSvc.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	return &dto.UserInfo{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLogin,
	}, nil
}

// ListSessions shows the caller their live sessions, marking the one the
// request arrived on.
func (svc *UserService) ListSessions(identity dto.Identity, reqCtx dto.RequestContext) *dto.SessionListResponse {
	currentKey := SessionKey(reqCtx.IP, reqCtx.UserAgent)
	sessions := svc.sessionSvc.SessionsForUser(identity.UserID, currentKey)

	return &dto.SessionListResponse{
		Sessions: sessions,
		Total:    len(sessions),
	}
}

// RevokeSession invalidates one of the caller's sessions by its shortened
// key. Users can only revoke sessions they own; the prefix lookup is scoped
// to the caller.
func (svc *UserService) RevokeSession(identity dto.Identity, keyPrefix string, reqCtx dto.RequestContext) error {
	fullKey, found := svc.sessionSvc.FindKeyByPrefix(identity.UserID, keyPrefix)
	if !found {
		return shared.NewNotFoundError(nil, "Session not found")
	}

	svc.sessionSvc.Invalidate(fullKey)

	svc.auditSvc.LogSecurityEvent(shared.ActionSessionRevoked, identity, reqCtx, map[string]interface{}{
		"session_key": keyPrefix,
	})
	return nil
}

// ForceLogout is the admin-side counterpart: it drops every session of the
// target user and records who did it.
func (svc *UserService) ForceLogout(actor dto.Identity, targetUserID string, reqCtx dto.RequestContext) (int, error) {
	if _, err := svc.sqlSvc.GetUserByID(targetUserID); err != nil {
		return 0, err
	}

	removed := svc.sessionSvc.ForceLogoutUser(targetUserID)

	svc.auditSvc.LogSecurityEvent(shared.ActionForcedLogout, actor, reqCtx, map[string]interface{}{
		"target_user_id":   targetUserID,
		"sessions_removed": removed,
	})
	return removed, nil
}

// DeactivateUser disables the account and drops its sessions so the change
// takes effect immediately, not at next token expiry.
func (svc *UserService) DeactivateUser(actor dto.Identity, targetUserID string, reqCtx dto.RequestContext) error {
	user, err := svc.sqlSvc.GetUserByID(targetUserID)
	if err != nil {
		return err
	}

	user.IsActive = false
	if err := svc.sqlSvc.UpdateUser(user); err != nil {
		return err
	}

	svc.sessionSvc.ForceLogoutUser(targetUserID)

	svc.auditSvc.LogUserAction(shared.ActionUpdate, actor, targetUserID, reqCtx, map[string]interface{}{
		"is_active": false,
	})
	return nil
}
