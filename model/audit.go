package model

import "time"

// AuditLog rows are append-only: written exactly once per audited action,
// never mutated or deleted by this service.
type AuditLog struct {
	ID           string    `gorm:"primaryKey;type:text;not null"`
	Action       string    `gorm:"not null;index;size:50"`
	ActorID      string    `gorm:"not null;index;size:64"`
	ActorEmail   string    `gorm:"not null;size:255"`
	ActorRole    string    `gorm:"not null;size:20"`
	ResourceType string    `gorm:"not null;index;size:30"`
	ResourceID   string    `gorm:"index;size:64"`
	ResourceName string    `gorm:"size:200"`
	OldValues    string    `gorm:"type:text"`
	NewValues    string    `gorm:"type:text"`
	IP           string    `gorm:"size:45"`
	UserAgent    string    `gorm:"size:500"`
	Endpoint     string    `gorm:"size:200"`
	Method       string    `gorm:"size:10"`
	Metadata     string    `gorm:"type:text"`
	Timestamp    time.Time `gorm:"not null;index"`
}
