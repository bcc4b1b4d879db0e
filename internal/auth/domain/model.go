// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// User represents a system user account.
type User struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	Name            string       `gorm:"type:text;not null"`
	Email           string       `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash    *string      `gorm:"type:text"`
	Active          bool         `gorm:"not null;default:true"`
	EmailVerifiedAt *time.Time   `gorm:"column:email_verified_at"`
	CompanyID       *snowflake.ID `gorm:"column:company_id;index"`
	TeamID          *snowflake.ID `gorm:"column:team_id;index"`
	LanguageID      *int64        `gorm:"column:language_id"`
	MFASecret       *string       `gorm:"column:mfa_secret;type:text"`
	RememberToken   string        `gorm:"column:remember_token;type:text"`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// HasVerifiedEmail reports whether the user's email has been verified.
func (u *User) HasVerifiedEmail() bool {
	return u.EmailVerifiedAt != nil
}

// Token is an opaque bearer credential bound to one device.
// Only a sha256 hash of the plaintext is stored.
type Token struct {
	ID         snowflake.ID                `gorm:"primaryKey"`
	UserID     snowflake.ID                `gorm:"column:user_id;not null;index"`
	DeviceName string                      `gorm:"column:device_name;type:text;not null"`
	TokenHash  string                      `gorm:"column:token_hash;type:text;not null;uniqueIndex"`
	Abilities  datatypes.JSONSlice[string] `gorm:"column:abilities"`
	ExpiresAt  time.Time                   `gorm:"column:expires_at;not null;index"`
	LastUsedAt *time.Time                  `gorm:"column:last_used_at"`
	CreatedAt  time.Time                   `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Token) TableName() string { return "personal_access_tokens" }

// SocialAccount links a local user to an identity-provider account.
type SocialAccount struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	UserID     snowflake.ID `gorm:"column:user_id;not null;uniqueIndex:ux_social_user_provider,priority:1"`
	Provider   string       `gorm:"type:text;not null;uniqueIndex:ux_social_user_provider,priority:2"`
	ProviderID string       `gorm:"column:provider_id;type:text;not null;index"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (SocialAccount) TableName() string { return "social_accounts" }

// PasswordResetToken is a single-use hashed reset credential.
type PasswordResetToken struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Email     string    `gorm:"type:text;not null;index"`
	TokenHash string    `gorm:"column:token_hash;type:text;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PasswordResetToken) TableName() string { return "password_reset_tokens" }
