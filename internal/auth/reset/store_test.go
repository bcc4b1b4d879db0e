package reset_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/koverhq/kover/internal/auth/domain"
	"github.com/koverhq/kover/internal/auth/reset"
	"github.com/koverhq/kover/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type captureMailer struct {
	to    string
	token string
	sent  int
}

func (m *captureMailer) SendPasswordResetLink(ctx context.Context, email, token string) error {
	m.to = email
	m.token = token
	m.sent++
	return nil
}

func newStore(t *testing.T) (*reset.Store, *gorm.DB, *captureMailer) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.User{}, &domain.PasswordResetToken{}))

	mailer := &captureMailer{}
	store := reset.NewStore(conn, zap.NewNop(), mailer, time.Hour)
	return store, conn, mailer
}

func seedUser(t *testing.T, conn *gorm.DB, email string) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	require.NoError(t, conn.Create(&domain.User{
		ID:     node.Generate(),
		Name:   "Ada",
		Email:  email,
		Active: true,
	}).Error)
}

func TestSendLinkUnknownEmailReturnsGenericStatus(t *testing.T) {
	store, conn, mailer := newStore(t)

	status, matched, err := store.SendLink(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	require.Equal(t, reset.StatusLinkSent, status)
	require.False(t, matched)
	require.Zero(t, mailer.sent)

	var count int64
	require.NoError(t, conn.Model(&domain.PasswordResetToken{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestSendLinkKnownEmailMailsToken(t *testing.T) {
	store, conn, mailer := newStore(t)
	seedUser(t, conn, "ada@example.com")

	status, matched, err := store.SendLink(context.Background(), "Ada@Example.com")
	require.NoError(t, err)
	require.Equal(t, reset.StatusLinkSent, status)
	require.True(t, matched)
	require.Equal(t, 1, mailer.sent)
	require.Equal(t, "ada@example.com", mailer.to)
	require.NotEmpty(t, mailer.token)
}

func TestSendLinkReplacesOutstandingToken(t *testing.T) {
	store, conn, _ := newStore(t)
	seedUser(t, conn, "ada@example.com")
	ctx := context.Background()

	_, _, err := store.SendLink(ctx, "ada@example.com")
	require.NoError(t, err)
	_, _, err = store.SendLink(ctx, "ada@example.com")
	require.NoError(t, err)

	var count int64
	require.NoError(t, conn.Model(&domain.PasswordResetToken{}).
		Where("email = ?", "ada@example.com").Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestConsume(t *testing.T) {
	store, conn, mailer := newStore(t)
	seedUser(t, conn, "ada@example.com")
	ctx := context.Background()

	_, _, err := store.SendLink(ctx, "ada@example.com")
	require.NoError(t, err)

	require.NoError(t, store.Consume(ctx, "ada@example.com", mailer.token))

	// The token is single use.
	err = store.Consume(ctx, "ada@example.com", mailer.token)
	require.ErrorIs(t, err, domain.ErrInvalidResetToken)
}

func TestConsumeRejectsWrongToken(t *testing.T) {
	store, conn, _ := newStore(t)
	seedUser(t, conn, "ada@example.com")
	ctx := context.Background()

	_, _, err := store.SendLink(ctx, "ada@example.com")
	require.NoError(t, err)

	err = store.Consume(ctx, "ada@example.com", "forged-token")
	require.ErrorIs(t, err, domain.ErrInvalidResetToken)
}

func TestConsumeRejectsExpiredToken(t *testing.T) {
	store, conn, mailer := newStore(t)
	seedUser(t, conn, "ada@example.com")
	ctx := context.Background()

	_, _, err := store.SendLink(ctx, "ada@example.com")
	require.NoError(t, err)

	expired := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, conn.Model(&domain.PasswordResetToken{}).
		Where("email = ?", "ada@example.com").
		Update("expires_at", expired).Error)

	err = store.Consume(ctx, "ada@example.com", mailer.token)
	require.ErrorIs(t, err, domain.ErrInvalidResetToken)
}
