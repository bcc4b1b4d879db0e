// Package installer runs the background worker that installs default modules
// for newly provisioned companies.
package installer

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/koverhq/kover/internal/modules/domain"
	"github.com/koverhq/kover/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Metrics *telemetry.Metrics `optional:"true"`
	Config  Config             `optional:"true"`
}

type Worker struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	metrics *telemetry.Metrics
	cfg     Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		db:      p.DB,
		log:     p.Log.Named("modules.installer"),
		genID:   p.GenID,
		metrics: p.Metrics,
		cfg:     p.Config.withDefaults(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("module install run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce(parentCtx context.Context) error {
	ctx, cancel := context.WithTimeout(parentCtx, w.cfg.RunTimeout)
	defer cancel()

	_, err := w.processBatch(ctx, w.cfg.BatchSize)
	if err == nil {
		w.reportBacklog(ctx)
	}
	return err
}

func (w *Worker) processBatch(ctx context.Context, limit int) (int, error) {
	var jobs []domain.InstallJob

	// Claim a batch up front so a crash mid-batch leaves the rest pending.
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("status = ?", domain.InstallJobPending).
			Order("created_at asc").
			Limit(limit).
			Find(&jobs).Error
		if err != nil {
			return err
		}
		for i := range jobs {
			err := tx.Model(&domain.InstallJob{}).
				Where("id = ?", jobs[i].ID).
				Updates(map[string]any{
					"status":     domain.InstallJobRunning,
					"attempts":   gorm.Expr("attempts + 1"),
					"updated_at": time.Now().UTC(),
				}).Error
			if err != nil {
				return err
			}
			jobs[i].Attempts++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, job := range jobs {
		if err := w.installDefaults(ctx, job.CompanyID); err != nil {
			w.log.Warn("module install failed",
				zap.Error(err),
				zap.String("company_id", job.CompanyID.String()),
				zap.Int("attempts", job.Attempts),
			)
			w.failJob(ctx, job, err)
			continue
		}

		if err := w.completeJob(ctx, job.ID); err != nil {
			w.log.Warn("failed to mark install job completed", zap.Error(err), zap.String("job_id", job.ID.String()))
			continue
		}
		w.metrics.ModuleInstall("completed")
		processed++
	}

	return processed, nil
}

// installDefaults is safe to run any number of times for the same company:
// existing rows are left untouched.
func (w *Worker) installDefaults(ctx context.Context, companyID snowflake.ID) error {
	now := time.Now().UTC()
	for _, key := range domain.DefaultModules() {
		row := &domain.CompanyModule{
			ID:        w.genID.Generate(),
			CompanyID: companyID,
			ModuleKey: key,
			CreatedAt: now,
		}
		err := w.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "company_id"}, {Name: "module_key"}},
				DoNothing: true,
			}).
			Create(row).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) completeJob(ctx context.Context, jobID snowflake.ID) error {
	return w.db.WithContext(ctx).Model(&domain.InstallJob{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"status":     domain.InstallJobCompleted,
			"last_error": nil,
			"updated_at": time.Now().UTC(),
		}).Error
}

// failJob returns the job to the pending state until attempts run out.
func (w *Worker) failJob(ctx context.Context, job domain.InstallJob, cause error) {
	status := domain.InstallJobPending
	if job.Attempts >= w.cfg.MaxAttempts {
		status = domain.InstallJobFailed
	}
	w.metrics.ModuleInstall(string(status))

	msg := cause.Error()
	err := w.db.WithContext(ctx).Model(&domain.InstallJob{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"status":     status,
			"last_error": msg,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		w.log.Warn("failed to record install job failure", zap.Error(err), zap.String("job_id", job.ID.String()))
	}
}

func (w *Worker) reportBacklog(ctx context.Context) {
	var backlog int64
	err := w.db.WithContext(ctx).Model(&domain.InstallJob{}).
		Where("status = ?", domain.InstallJobPending).
		Count(&backlog).Error
	if err != nil {
		return
	}
	w.metrics.SetInstallBacklog(float64(backlog))
}
