// Package domain contains the tenant models created during onboarding.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/koverhq/kover/internal/subscription/domain"
	"gorm.io/gorm"
)

var (
	ErrInvalidUser     = errors.New("invalid user")
	ErrInvalidName     = errors.New("invalid company name")
	ErrInvalidCapacity = errors.New("invalid room capacity")
	ErrInvalidCountry  = errors.New("invalid country")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidLanguage = errors.New("invalid language")
	ErrWebsiteTaken    = errors.New("website already in use")
	ErrAlreadyOnboard  = errors.New("user already belongs to a company")
)

// Team is the tenant root. Every company, subscription, and role grant hangs
// off a team.
type Team struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"type:text;not null"`
	OwnerID   snowflake.ID `gorm:"not null;index"`
	CreatedAt time.Time    `gorm:"not null"`
	UpdatedAt time.Time    `gorm:"not null"`
}

func (Team) TableName() string { return "teams" }

// Company is the onboarded property. Website is nullable but unique: two
// tenants can both leave it empty, never share one.
type Company struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	TeamID     snowflake.ID `gorm:"not null;uniqueIndex"`
	OwnerID    snowflake.ID `gorm:"not null;index"`
	Name       string       `gorm:"type:text;not null"`
	Slug       string       `gorm:"type:text;not null;index"`
	Type       string       `gorm:"type:text;not null"`
	Rooms      int          `gorm:"not null"`
	City       string       `gorm:"type:text"`
	CountryID  int64        `gorm:"not null"`
	CurrencyID int64        `gorm:"not null"`
	Website    *string      `gorm:"type:text;uniqueIndex"`
	CreatedAt  time.Time    `gorm:"not null"`
	UpdatedAt  time.Time    `gorm:"not null"`
}

func (Company) TableName() string { return "companies" }

// OnboardingForm carries everything the provisioning flow needs.
type OnboardingForm struct {
	Name         string
	Type         string
	Rooms        int
	City         string
	CountryID    int64
	CurrencyID   int64
	LanguageID   int64
	Website      *string
	Role         string
	BillingCycle string
}

// ProvisionResult is returned on success.
type ProvisionResult struct {
	Team         *Team
	Company      *Company
	Subscription *subscriptiondomain.Subscription
	PlanTag      string
}

// Provisioner runs the onboarding transaction.
type Provisioner interface {
	Provision(ctx context.Context, userID snowflake.ID, form OnboardingForm) (*ProvisionResult, error)
	WebsiteExists(ctx context.Context, website string) (bool, error)
}

type Repository interface {
	CreateTeam(ctx context.Context, team *Team) error
	CreateCompany(ctx context.Context, company *Company) error
	WebsiteExists(ctx context.Context, website string) (bool, error)
	WithTx(tx *gorm.DB) Repository
}
