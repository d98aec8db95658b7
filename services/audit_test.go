package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couponhub/coupon_api/dto"
	"github.com/couponhub/coupon_api/model"
	"github.com/couponhub/coupon_api/shared"
)

type recordingAuditStore struct {
	auditStoreStub
	rows       []model.AuditLog
	lastFilter dto.AuditLogFilter
}

func (s *recordingAuditStore) GetAuditLogs(filter dto.AuditLogFilter) ([]model.AuditLog, int64, error) {
	s.lastFilter = filter
	return s.rows, int64(len(s.rows)), nil
}

func newTestAuditService(store auditLogStore) *AuditService {
	return &AuditService{
		store: store,
		now:   func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestRecordPersistsFullEntry(t *testing.T) {
	store := &auditStoreStub{}
	svc := newTestAuditService(store)

	actor := dto.Identity{UserID: "admin-1", Email: "a@example.com", Role: shared.RoleAdmin}
	reqCtx := dto.RequestContext{IP: "1.2.3.4", UserAgent: "ua", Endpoint: "/api/v1/admin/coupons", Method: "POST"}

	svc.Record(shared.ActionCreate, actor, shared.ResourceCoupon, "c-1", "20% off",
		nil, map[string]interface{}{"title": "20% off"}, reqCtx, nil)

	require.Len(t, store.entries, 1)
	entry := store.entries[0]

	assert.Equal(t, shared.ActionCreate, entry.Action)
	assert.Equal(t, "admin-1", entry.ActorID)
	assert.Equal(t, shared.ResourceCoupon, entry.ResourceType)
	assert.Equal(t, "c-1", entry.ResourceID)
	assert.Empty(t, entry.OldValues)
	assert.Contains(t, entry.NewValues, "20% off")
	assert.Equal(t, "1.2.3.4", entry.IP)
	assert.Equal(t, "POST", entry.Method)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), entry.Timestamp)
}

func TestRecordFillsAnonymousActor(t *testing.T) {
	store := &auditStoreStub{}
	svc := newTestAuditService(store)

	svc.Record(shared.ActionRateLimitExceeded, dto.Identity{}, shared.ResourceSecurity, "", "",
		nil, nil, dto.RequestContext{IP: "1.2.3.4"}, nil)

	require.Len(t, store.entries, 1)
	assert.Equal(t, shared.AnonymousUserID, store.entries[0].ActorID)
	assert.Equal(t, shared.AnonymousRole, store.entries[0].ActorRole)
}

func TestLogSecurityEventRecordsMetadata(t *testing.T) {
	store := &auditStoreStub{}
	svc := newTestAuditService(store)

	svc.LogSecurityEvent(shared.ActionCSRFRejected, AnonymousActor(), dto.RequestContext{IP: "1.2.3.4"},
		map[string]interface{}{"token_present": false})

	require.Len(t, store.entries, 1)
	assert.Equal(t, shared.ActionCSRFRejected, store.entries[0].Action)
	assert.Equal(t, shared.ResourceSecurity, store.entries[0].ResourceType)
	assert.Contains(t, store.entries[0].Metadata, "token_present")
}

func TestGetAuditLogsClampsPagination(t *testing.T) {
	store := &recordingAuditStore{
		rows: []model.AuditLog{
			{
				ID:        "log-1",
				Action:    shared.ActionLogin,
				ActorID:   "user-1",
				NewValues: `{"k":"v"}`,
				Timestamp: time.Now(),
			},
		},
	}
	svc := newTestAuditService(store)

	resp, err := svc.GetAuditLogs(dto.AuditLogFilter{Page: 0, Limit: 1000})
	require.NoError(t, err)

	assert.Equal(t, 1, store.lastFilter.Page)
	assert.Equal(t, 20, store.lastFilter.Limit)

	require.Len(t, resp.Logs, 1)
	assert.Equal(t, "log-1", resp.Logs[0].ID)
	assert.Equal(t, map[string]interface{}{"k": "v"}, resp.Logs[0].NewValues)
}
