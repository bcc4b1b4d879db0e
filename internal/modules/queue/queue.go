// Package queue persists module install jobs.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/koverhq/kover/internal/modules/domain"
	"gorm.io/gorm"
)

type dbQueue struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func New(db *gorm.DB, genID *snowflake.Node) domain.Queue {
	return &dbQueue{db: db, genID: genID}
}

// Enqueue writes one pending job row carrying the company and the user who
// triggered provisioning. Enqueueing the same company twice yields two jobs;
// the installer is idempotent so the second is a no-op.
func (q *dbQueue) Enqueue(ctx context.Context, companyID, userID snowflake.ID) error {
	if companyID == 0 {
		return errors.New("missing company id")
	}
	if userID == 0 {
		return errors.New("missing user id")
	}

	now := time.Now().UTC()
	job := &domain.InstallJob{
		ID:        q.genID.Generate(),
		CompanyID: companyID,
		UserID:    userID,
		Status:    domain.InstallJobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return q.db.WithContext(ctx).Create(job).Error
}
