package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/koverhq/kover/internal/subscription/domain"
	"github.com/koverhq/kover/internal/subscription/repository"
	"github.com/koverhq/kover/internal/subscription/service"
	"github.com/koverhq/kover/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Subscription{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := service.NewService(service.Params{
		Log:   zap.NewNop(),
		Repo:  repository.Provide(conn),
		GenID: node,
	})
	return svc, conn, node
}

func TestCreateWithTrial(t *testing.T) {
	svc, _, node := newService(t)

	sub, err := svc.Create(context.Background(), domain.CreateSubscriptionRequest{
		TeamID:    node.Generate(),
		PlanID:    node.Generate(),
		TrialDays: 14,
	})
	require.NoError(t, err)
	require.Equal(t, domain.SubscriptionStatusTrialing, sub.Status)
	require.NotNil(t, sub.TrialEndsAt)
	require.True(t, sub.TrialEndsAt.After(time.Now().UTC().AddDate(0, 0, 13)))
}

func TestCreateWithoutTrial(t *testing.T) {
	svc, _, node := newService(t)

	sub, err := svc.Create(context.Background(), domain.CreateSubscriptionRequest{
		TeamID: node.Generate(),
		PlanID: node.Generate(),
	})
	require.NoError(t, err)
	require.Equal(t, domain.SubscriptionStatusActive, sub.Status)
	require.Nil(t, sub.TrialEndsAt)
}

func TestGetByTeam(t *testing.T) {
	svc, _, node := newService(t)
	teamID := node.Generate()

	created, err := svc.Create(context.Background(), domain.CreateSubscriptionRequest{
		TeamID: teamID,
		PlanID: node.Generate(),
	})
	require.NoError(t, err)

	found, err := svc.GetByTeam(context.Background(), teamID)
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)

	_, err = svc.GetByTeam(context.Background(), node.Generate())
	require.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
}

func TestWithTxRollsBackCreate(t *testing.T) {
	svc, conn, node := newService(t)
	teamID := node.Generate()

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := svc.WithTx(tx).Create(context.Background(), domain.CreateSubscriptionRequest{
			TeamID: teamID,
			PlanID: node.Generate(),
		})
		require.NoError(t, err)
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, err)

	_, err = svc.GetByTeam(context.Background(), teamID)
	require.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
}
