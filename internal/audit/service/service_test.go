package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/koverhq/kover/internal/audit/domain"
	"github.com/koverhq/kover/internal/audit/repository"
	"github.com/koverhq/kover/internal/audit/service"
	"github.com/koverhq/kover/internal/auditcontext"
	"github.com/koverhq/kover/pkg/db"
	"github.com/koverhq/kover/pkg/db/pagination"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := service.NewService(service.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, conn, node
}

func TestLogCapturesRequestContext(t *testing.T) {
	svc, conn, node := newService(t)
	userID := node.Generate()

	ctx := auditcontext.WithRequestID(context.Background(), "req-1")
	ctx = auditcontext.WithIPAddress(ctx, "203.0.113.9")
	ctx = auditcontext.WithUserAgent(ctx, "curl/8")

	svc.Log(ctx, userID, "user.login", map[string]any{"device": "laptop"})

	var row domain.AuditLog
	require.NoError(t, conn.First(&row, "user_id = ?", userID).Error)
	require.Equal(t, "user.login", row.Event)
	require.Equal(t, "laptop", row.Metadata["device"])
	require.Equal(t, "req-1", row.Metadata["request_id"])
	require.NotNil(t, row.IPAddress)
	require.Equal(t, "203.0.113.9", *row.IPAddress)
	require.NotNil(t, row.UserAgent)
}

func TestLogIgnoresBlankEvents(t *testing.T) {
	svc, conn, node := newService(t)

	svc.Log(context.Background(), node.Generate(), "   ", nil)
	svc.Log(context.Background(), 0, "user.login", nil)

	var count int64
	require.NoError(t, conn.Model(&domain.AuditLog{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestLogNeverPanicsOnInsertFailure(t *testing.T) {
	svc, conn, node := newService(t)
	require.NoError(t, conn.Migrator().DropTable(&domain.AuditLog{}))

	// Audit writes are best-effort; a broken sink must not surface.
	svc.Log(context.Background(), node.Generate(), "user.login", nil)
}

func TestListPaginates(t *testing.T) {
	svc, conn, node := newService(t)
	userID := node.Generate()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, conn.Create(&domain.AuditLog{
			ID:        node.Generate(),
			UserID:    userID,
			Event:     "user.login",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	first, err := svc.List(context.Background(), domain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 3},
		UserID:     userID,
	})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 3)
	require.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	// Newest first, no overlap across pages.
	require.True(t, first.AuditLogs[0].CreatedAt.After(first.AuditLogs[2].CreatedAt))

	second, err := svc.List(context.Background(), domain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 3, PageToken: first.NextPageToken},
		UserID:     userID,
	})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 2)
	require.False(t, second.HasMore)
	require.Empty(t, second.NextPageToken)

	seen := map[snowflake.ID]bool{}
	for _, row := range append(first.AuditLogs, second.AuditLogs...) {
		require.False(t, seen[row.ID])
		seen[row.ID] = true
	}
}

func TestListFiltersByEventAndRange(t *testing.T) {
	svc, conn, node := newService(t)
	userID := node.Generate()

	now := time.Now().UTC()
	old := now.Add(-2 * time.Hour)
	rows := []domain.AuditLog{
		{ID: node.Generate(), UserID: userID, Event: "user.login", CreatedAt: old},
		{ID: node.Generate(), UserID: userID, Event: "user.login", CreatedAt: now},
		{ID: node.Generate(), UserID: userID, Event: "user.logout", CreatedAt: now},
	}
	for i := range rows {
		require.NoError(t, conn.Create(&rows[i]).Error)
	}

	cutoff := now.Add(-time.Hour)
	resp, err := svc.List(context.Background(), domain.ListAuditLogRequest{
		UserID:  userID,
		Event:   "user.login",
		StartAt: &cutoff,
	})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	require.Equal(t, "user.login", resp.AuditLogs[0].Event)
}

func TestListRejectsBadInput(t *testing.T) {
	svc, _, node := newService(t)
	userID := node.Generate()

	_, err := svc.List(context.Background(), domain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageToken: "not-a-cursor"},
		UserID:     userID,
	})
	require.ErrorIs(t, err, domain.ErrInvalidPageToken)

	start := time.Now().UTC()
	end := start.Add(-time.Minute)
	_, err = svc.List(context.Background(), domain.ListAuditLogRequest{
		UserID:  userID,
		StartAt: &start,
		EndAt:   &end,
	})
	require.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}
