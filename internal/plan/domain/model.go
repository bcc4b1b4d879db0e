package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var ErrPlanNotFound = errors.New("plan not found")

const (
	TierStarter = "starter"
	TierSpark   = "spark"

	CycleMonthly = "monthly"
	CycleYearly  = "yearly"
)

// Plan is a billing plan row. Tag is the stable external identifier in the
// form "{tier}-{cycle}".
type Plan struct {
	ID         snowflake.ID `gorm:"column:id;primaryKey"`
	Tag        string       `gorm:"column:tag;uniqueIndex"`
	Name       string       `gorm:"column:name"`
	Tier       string       `gorm:"column:tier"`
	Cycle      string       `gorm:"column:cycle"`
	AmountCent int64        `gorm:"column:amount_cent"`
	Currency   string       `gorm:"column:currency"`
	TrialDays  int          `gorm:"column:trial_days"`
	CreatedAt  time.Time    `gorm:"column:created_at"`
	UpdatedAt  time.Time    `gorm:"column:updated_at"`
}

func (Plan) TableName() string {
	return "plans"
}

// Service resolves plan tags and looks up plan rows.
type Service interface {
	GetByTag(ctx context.Context, tag string) (*Plan, error)
	List(ctx context.Context) ([]Plan, error)
}

type Repository interface {
	FindByTag(ctx context.Context, tag string) (*Plan, error)
	List(ctx context.Context) ([]Plan, error)
	Create(ctx context.Context, plan *Plan) error
}
