package installer_test

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/koverhq/kover/internal/modules/domain"
	"github.com/koverhq/kover/internal/modules/installer"
	"github.com/koverhq/kover/internal/modules/queue"
	"github.com/koverhq/kover/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newWorker(t *testing.T) (*installer.Worker, domain.Queue, *gorm.DB, *snowflake.Node) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.InstallJob{}, &domain.CompanyModule{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	worker := installer.NewWorker(installer.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
	})
	return worker, queue.New(conn, node), conn, node
}

func moduleKeys(t *testing.T, conn *gorm.DB, companyID snowflake.ID) []string {
	t.Helper()
	var keys []string
	require.NoError(t, conn.Model(&domain.CompanyModule{}).
		Where("company_id = ?", companyID).
		Order("module_key asc").
		Pluck("module_key", &keys).Error)
	return keys
}

func TestRunOnceInstallsDefaultModules(t *testing.T) {
	worker, jobs, conn, node := newWorker(t)
	ctx := context.Background()

	companyID, userID := node.Generate(), node.Generate()
	require.NoError(t, jobs.Enqueue(ctx, companyID, userID))
	require.NoError(t, worker.RunOnce(ctx))

	installed := moduleKeys(t, conn, companyID)
	require.Len(t, installed, len(domain.DefaultModules()))
	require.Contains(t, installed, "reservations")

	var job domain.InstallJob
	require.NoError(t, conn.First(&job, "company_id = ?", companyID).Error)
	require.Equal(t, userID, job.UserID)
	require.Equal(t, domain.InstallJobCompleted, job.Status)
	require.Equal(t, 1, job.Attempts)
	require.Nil(t, job.LastError)
}

func TestRunOnceIsIdempotentPerCompany(t *testing.T) {
	worker, jobs, conn, node := newWorker(t)
	ctx := context.Background()

	companyID, userID := node.Generate(), node.Generate()
	require.NoError(t, jobs.Enqueue(ctx, companyID, userID))
	require.NoError(t, worker.RunOnce(ctx))

	// A second job for the same company completes without duplicating rows.
	require.NoError(t, jobs.Enqueue(ctx, companyID, userID))
	require.NoError(t, worker.RunOnce(ctx))

	require.Len(t, moduleKeys(t, conn, companyID), len(domain.DefaultModules()))

	var completed int64
	require.NoError(t, conn.Model(&domain.InstallJob{}).
		Where("company_id = ? AND status = ?", companyID, domain.InstallJobCompleted).
		Count(&completed).Error)
	require.EqualValues(t, 2, completed)
}

func TestRunOnceProcessesBacklogInOrder(t *testing.T) {
	worker, jobs, conn, node := newWorker(t)
	ctx := context.Background()

	first := node.Generate()
	second := node.Generate()
	userID := node.Generate()
	require.NoError(t, jobs.Enqueue(ctx, first, userID))
	require.NoError(t, jobs.Enqueue(ctx, second, userID))
	require.NoError(t, worker.RunOnce(ctx))

	var pending int64
	require.NoError(t, conn.Model(&domain.InstallJob{}).
		Where("status = ?", domain.InstallJobPending).
		Count(&pending).Error)
	require.Zero(t, pending)
	require.NotEmpty(t, moduleKeys(t, conn, first))
	require.NotEmpty(t, moduleKeys(t, conn, second))
}

func TestFailedInstallReturnsJobToPending(t *testing.T) {
	worker, jobs, conn, node := newWorker(t)
	ctx := context.Background()

	companyID, userID := node.Generate(), node.Generate()
	require.NoError(t, jobs.Enqueue(ctx, companyID, userID))

	// Dropping the table makes every insert fail until it is restored.
	migrator := conn.Migrator()
	require.NoError(t, migrator.DropTable(&domain.CompanyModule{}))
	require.NoError(t, worker.RunOnce(ctx))

	var job domain.InstallJob
	require.NoError(t, conn.First(&job, "company_id = ?", companyID).Error)
	require.Equal(t, domain.InstallJobPending, job.Status)
	require.Equal(t, 1, job.Attempts)
	require.NotNil(t, job.LastError)

	// Once the fault clears, the next run completes the job.
	require.NoError(t, migrator.CreateTable(&domain.CompanyModule{}))
	require.NoError(t, worker.RunOnce(ctx))
	require.NoError(t, conn.First(&job, "company_id = ?", companyID).Error)
	require.Equal(t, domain.InstallJobCompleted, job.Status)
	require.Equal(t, 2, job.Attempts)
}

func TestJobFailsAfterMaxAttempts(t *testing.T) {
	worker, jobs, conn, node := newWorker(t)
	ctx := context.Background()

	companyID, userID := node.Generate(), node.Generate()
	require.NoError(t, jobs.Enqueue(ctx, companyID, userID))
	require.NoError(t, conn.Migrator().DropTable(&domain.CompanyModule{}))

	for i := 0; i < 5; i++ {
		require.NoError(t, worker.RunOnce(ctx))
	}

	var job domain.InstallJob
	require.NoError(t, conn.First(&job, "company_id = ?", companyID).Error)
	require.Equal(t, domain.InstallJobFailed, job.Status)
	require.Equal(t, 5, job.Attempts)

	// A terminal job is never picked up again.
	require.NoError(t, worker.RunOnce(ctx))
	require.NoError(t, conn.First(&job, "company_id = ?", companyID).Error)
	require.Equal(t, 5, job.Attempts)
}
