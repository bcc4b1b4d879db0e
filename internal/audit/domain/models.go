// Package domain contains persistence models for the audit service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog is an append-only record of a security-relevant action.
type AuditLog struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	UserID    snowflake.ID      `gorm:"column:user_id;not null;index"`
	Event     string            `gorm:"type:text;not null;index"`
	IPAddress *string           `gorm:"column:ip_address;type:text"`
	UserAgent *string           `gorm:"column:user_agent;type:text"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }

// Cursor identifies a position in the audit log stream.
type Cursor struct {
	CreatedAt time.Time
	ID        snowflake.ID
}

// ListFilter narrows audit log listings.
type ListFilter struct {
	UserID  snowflake.ID
	Event   string
	StartAt *time.Time
	EndAt   *time.Time
	Cursor  *Cursor
	Limit   int
}
