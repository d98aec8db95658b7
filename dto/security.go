package dto

import "time"

type RateLimitInfo struct {
	Allowed   bool       `json:"allowed"`
	Count     int        `json:"count"`
	Limit     int        `json:"limit"`
	Remaining int        `json:"remaining"`
	ResetTime *time.Time `json:"reset_time,omitempty"`
}

type CSRFTokenResponse struct {
	CSRFToken string `json:"csrf_token" example:"9f86d081884c7d659a2feaa0c55ad015"`
	ExpiresIn int64  `json:"expires_in" example:"3600"`
}

// RequestContext captures where an audited action came from.
type RequestContext struct {
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
	Endpoint  string `json:"endpoint"`
	Method    string `json:"method"`
}

type AuditLogEntry struct {
	ID           string                 `json:"id"`
	Action       string                 `json:"action"`
	ActorID      string                 `json:"actor_id"`
	ActorEmail   string                 `json:"actor_email"`
	ActorRole    string                 `json:"actor_role"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	ResourceName string                 `json:"resource_name,omitempty"`
	OldValues    map[string]interface{} `json:"old_values,omitempty"`
	NewValues    map[string]interface{} `json:"new_values,omitempty"`
	IP           string                 `json:"ip,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	Endpoint     string                 `json:"endpoint,omitempty"`
	Method       string                 `json:"method,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
}

type AuditLogFilter struct {
	Action       string
	ActorID      string
	ResourceType string
	ResourceID   string
	From         *time.Time
	To           *time.Time
	Page         int
	Limit        int
}

type AuditLogListResponse struct {
	Logs  []AuditLogEntry `json:"logs"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
