// Package domain contains persistence models for tenant subscriptions.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusTrialing SubscriptionStatus = "TRIALING"
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPastDue  SubscriptionStatus = "PAST_DUE"
	SubscriptionStatusCanceled SubscriptionStatus = "CANCELED"
)

// Subscription binds a team to a plan. One row per tenant.
type Subscription struct {
	ID          snowflake.ID       `gorm:"primaryKey"`
	TeamID      snowflake.ID       `gorm:"not null;uniqueIndex"`
	PlanID      snowflake.ID       `gorm:"not null;index"`
	Status      SubscriptionStatus `gorm:"type:text;not null"`
	TrialEndsAt *time.Time         `gorm:""`
	StartAt     time.Time          `gorm:"not null"`
	EndAt       *time.Time         `gorm:""`
	Metadata    datatypes.JSONMap  `gorm:"type:jsonb"`
	CreatedAt   time.Time          `gorm:"not null"`
	UpdatedAt   time.Time          `gorm:"not null"`
}

func (Subscription) TableName() string { return "subscriptions" }

type CreateSubscriptionRequest struct {
	TeamID    snowflake.ID
	PlanID    snowflake.ID
	TrialDays int
}

// Service creates and reads tenant subscriptions. WithTx returns a copy
// bound to the transaction so provisioning can create inside its own tx.
type Service interface {
	Create(ctx context.Context, req CreateSubscriptionRequest) (*Subscription, error)
	GetByTeam(ctx context.Context, teamID snowflake.ID) (*Subscription, error)
	WithTx(tx *gorm.DB) Service
}

type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	FindByTeam(ctx context.Context, teamID snowflake.ID) (*Subscription, error)
	WithTx(tx *gorm.DB) Repository
}
