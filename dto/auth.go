package dto

import "time"

// ==================== AUTHENTICATION REQUEST DTOs ====================

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Username string `json:"username" validate:"required,min=3,max=30,alphanum" example:"johndoe"`
	Password string `json:"password" validate:"required,strong_password" example:"SecurePass123!"`
}

func (r RegisterRequest) Validate() error {
	return GetValidator().Struct(r)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required" example:"SecurePass123!"`
}

func (l LoginRequest) Validate() error {
	return GetValidator().Struct(l)
}

// ==================== AUTHENTICATION RESPONSE DTOs ====================

type RegisterResponse struct {
	UserID  string `json:"user_id" example:"usr_123456789"`
	Message string `json:"message" example:"Registration successful"`
}

type LoginResponse struct {
	AccessToken string   `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresIn   int64    `json:"expires_in" example:"86400"`
	User        UserInfo `json:"user"`
}

type UserInfo struct {
	ID        string     `json:"id" example:"usr_123456789"`
	Username  string     `json:"username" example:"johndoe"`
	Email     string     `json:"email" example:"user@example.com"`
	Role      string     `json:"role" example:"user"`
	CreatedAt time.Time  `json:"created_at" example:"2023-01-01T00:00:00Z"`
	LastLogin *time.Time `json:"last_login,omitempty" example:"2023-01-15T10:30:00Z"`
}

// Identity is the verdict the identity provider hands to the security
// pipeline. The pipeline never sees credentials, only this triple.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type TokenPair struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ==================== SESSION DTOs ====================

type SessionInfo struct {
	SessionKey   string    `json:"session_key" example:"9f86d081884c7d65"`
	IP           string    `json:"ip" example:"192.168.1.1"`
	UserAgent    string    `json:"user_agent" example:"Mozilla/5.0..."`
	Endpoint     string    `json:"endpoint" example:"/api/v1/coupons"`
	LastActivity time.Time `json:"last_activity" example:"2023-01-15T11:30:00Z"`
	IsCurrent    bool      `json:"is_current" example:"true"`
}

type SessionListResponse struct {
	Sessions []SessionInfo `json:"sessions"`
	Total    int           `json:"total" example:"2"`
}
