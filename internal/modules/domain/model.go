// Package domain contains persistence models for tenant feature modules and
// their installation jobs.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Default module keys installed for every new company.
const (
	ModuleReservations = "reservations"
	ModuleRooms        = "rooms"
	ModuleHousekeeping = "housekeeping"
	ModuleBilling      = "billing"
	ModuleReports      = "reports"
)

// DefaultModules returns the keys installed during provisioning, in install
// order.
func DefaultModules() []string {
	return []string{
		ModuleReservations,
		ModuleRooms,
		ModuleHousekeeping,
		ModuleBilling,
		ModuleReports,
	}
}

// CompanyModule marks a module as installed for a company. The composite
// unique index makes installation idempotent.
type CompanyModule struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	CompanyID snowflake.ID `gorm:"not null;uniqueIndex:idx_company_module"`
	ModuleKey string       `gorm:"type:text;not null;uniqueIndex:idx_company_module"`
	CreatedAt time.Time    `gorm:"not null"`
}

func (CompanyModule) TableName() string { return "company_modules" }

// InstallJobStatus is the lifecycle of one install job.
type InstallJobStatus string

const (
	InstallJobPending   InstallJobStatus = "PENDING"
	InstallJobRunning   InstallJobStatus = "RUNNING"
	InstallJobCompleted InstallJobStatus = "COMPLETED"
	InstallJobFailed    InstallJobStatus = "FAILED"
)

// InstallJob is one durable request to install the default modules for a
// company. Jobs survive restarts; the installer may pick the same company up
// more than once.
type InstallJob struct {
	ID        snowflake.ID     `gorm:"primaryKey"`
	CompanyID snowflake.ID     `gorm:"not null;index"`
	UserID    snowflake.ID     `gorm:"column:user_id;not null"`
	Status    InstallJobStatus `gorm:"type:text;not null;index"`
	Attempts  int              `gorm:"not null;default:0"`
	LastError *string          `gorm:"type:text"`
	CreatedAt time.Time        `gorm:"not null"`
	UpdatedAt time.Time        `gorm:"not null"`
}

func (InstallJob) TableName() string { return "module_install_jobs" }

// Queue enqueues durable install jobs.
type Queue interface {
	Enqueue(ctx context.Context, companyID, userID snowflake.ID) error
}
