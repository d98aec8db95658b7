package services

import (
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/couponhub/coupon_api/dto"
	"github.com/couponhub/coupon_api/model"
	"github.com/couponhub/coupon_api/shared"
)

// auditLogStore is the slice of the data layer the audit trail needs.
type auditLogStore interface {
	CreateAuditLog(entry *model.AuditLog) error
	GetAuditLogs(filter dto.AuditLogFilter) ([]model.AuditLog, int64, error)
}

// AuditService writes one immutable audit row per audited action and
// mirrors it to the log sink as a categorized entry. Persistence is
// best-effort relative to the primary request: a failed write is logged as
// a system error and never propagated to the caller.
type AuditService struct {
	appContext.DefaultService

	store auditLogStore
	now   func() time.Time
}

const AUDIT_SVC = "audit_svc"

func (svc AuditService) Id() string {
	return AUDIT_SVC
}

func (svc *AuditService) Configure(ctx *appContext.Context) error {
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuditService) Start() error {
	svc.store = svc.Service(POSTGRES_SVC).(*PostgresService)
	return nil
}

// AnonymousActor fills actor fields for events that occur before any
// identity is resolved, so every entry has a uniform shape.
func AnonymousActor() dto.Identity {
	return dto.Identity{
		UserID: shared.AnonymousUserID,
		Email:  shared.AnonymousEmail,
		Role:   shared.AnonymousRole,
	}
}

func marshalOrEmpty(v map[string]interface{}) string {
	if len(v) == 0 {
		return ""
	}
	data, err := shared.JSONAPI().Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// Record persists one audit entry and emits the matching log line. The two
// channels are independent: a storage failure does not suppress the log
// entry, and vice versa.
func (svc *AuditService) Record(action string, actor dto.Identity, resourceType, resourceID, resourceName string,
	oldValues, newValues map[string]interface{}, reqCtx dto.RequestContext, metadata map[string]interface{}) {

	if actor.UserID == "" {
		actor = AnonymousActor()
	}

	entry := &model.AuditLog{
		Action:       action,
		ActorID:      actor.UserID,
		ActorEmail:   actor.Email,
		ActorRole:    actor.Role,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ResourceName: resourceName,
		OldValues:    marshalOrEmpty(oldValues),
		NewValues:    marshalOrEmpty(newValues),
		IP:           reqCtx.IP,
		UserAgent:    reqCtx.UserAgent,
		Endpoint:     reqCtx.Endpoint,
		Method:       reqCtx.Method,
		Metadata:     marshalOrEmpty(metadata),
		Timestamp:    svc.now(),
	}

	log.WithFields(log.Fields{
		"category":      shared.CategoryAudit,
		"action":        action,
		"actor_id":      actor.UserID,
		"resource_type": resourceType,
		"resource_id":   resourceID,
		"ip":            reqCtx.IP,
		"endpoint":      reqCtx.Endpoint,
	}).Info("Audit event")

	if err := svc.store.CreateAuditLog(entry); err != nil {
		log.WithFields(log.Fields{
			"category": shared.CategorySystem,
			"action":   action,
			"error":    err.Error(),
		}).Error("Failed to persist audit log entry")
	}
}

// ==================== RESOURCE FAMILY HELPERS ====================

func (svc *AuditService) LogUserAction(action string, actor dto.Identity, userID string, reqCtx dto.RequestContext, metadata map[string]interface{}) {
	svc.Record(action, actor, shared.ResourceUser, userID, "", nil, nil, reqCtx, metadata)
}

func (svc *AuditService) LogCouponAction(action string, actor dto.Identity, couponID, title string,
	oldValues, newValues map[string]interface{}, reqCtx dto.RequestContext) {
	svc.Record(action, actor, shared.ResourceCoupon, couponID, title, oldValues, newValues, reqCtx, nil)
}

func (svc *AuditService) LogBrandAction(action string, actor dto.Identity, brandID, name string,
	oldValues, newValues map[string]interface{}, reqCtx dto.RequestContext) {
	svc.Record(action, actor, shared.ResourceBrand, brandID, name, oldValues, newValues, reqCtx, nil)
}

func (svc *AuditService) LogCategoryAction(action string, actor dto.Identity, categoryID, name string,
	oldValues, newValues map[string]interface{}, reqCtx dto.RequestContext) {
	svc.Record(action, actor, shared.ResourceCategory, categoryID, name, oldValues, newValues, reqCtx, nil)
}

// LogSecurityEvent records abuse-prevention outcomes (rate limit, CSRF,
// lockout, authorization denial). Safe to call before identity resolution.
func (svc *AuditService) LogSecurityEvent(action string, actor dto.Identity, reqCtx dto.RequestContext, metadata map[string]interface{}) {
	log.WithFields(log.Fields{
		"category": shared.CategorySecurity,
		"action":   action,
		"actor_id": actor.UserID,
		"ip":       reqCtx.IP,
		"endpoint": reqCtx.Endpoint,
		"metadata": metadata,
	}).Warn("Security event")

	svc.Record(action, actor, shared.ResourceSecurity, "", "", nil, nil, reqCtx, metadata)
}

// ==================== RETRIEVAL ====================

func (svc *AuditService) GetAuditLogs(filter dto.AuditLogFilter) (*dto.AuditLogListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	rows, total, err := svc.store.GetAuditLogs(filter)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.AuditLogEntry, len(rows))
	for i, row := range rows {
		entries[i] = dto.AuditLogEntry{
			ID:           row.ID,
			Action:       row.Action,
			ActorID:      row.ActorID,
			ActorEmail:   row.ActorEmail,
			ActorRole:    row.ActorRole,
			ResourceType: row.ResourceType,
			ResourceID:   row.ResourceID,
			ResourceName: row.ResourceName,
			OldValues:    unmarshalOrNil(row.OldValues),
			NewValues:    unmarshalOrNil(row.NewValues),
			IP:           row.IP,
			UserAgent:    row.UserAgent,
			Endpoint:     row.Endpoint,
			Method:       row.Method,
			Metadata:     unmarshalOrNil(row.Metadata),
			Timestamp:    row.Timestamp,
		}
	}

	return &dto.AuditLogListResponse{
		Logs:  entries,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func unmarshalOrNil(raw string) map[string]interface{} {
	if raw == "" {
		return nil
	}
	var out map[string]interface{}
	if err := shared.JSONAPI().Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
