package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/koverhq/kover/internal/audit/domain"
	auditrepo "github.com/koverhq/kover/internal/audit/repository"
	auditservice "github.com/koverhq/kover/internal/audit/service"
	"github.com/koverhq/kover/internal/auth/domain"
	"github.com/koverhq/kover/internal/auth/mfa"
	"github.com/koverhq/kover/internal/auth/oauth"
	"github.com/koverhq/kover/internal/auth/repository"
	"github.com/koverhq/kover/internal/auth/reset"
	"github.com/koverhq/kover/internal/auth/service"
	"github.com/koverhq/kover/internal/auth/token"
	"github.com/koverhq/kover/internal/providers/email"
	"github.com/koverhq/kover/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type linkMailer struct {
	token string
}

func (m *linkMailer) SendPasswordResetLink(ctx context.Context, email, token string) error {
	m.token = token
	return nil
}

type staticResolver struct {
	identity oauth.Identity
	err      error
}

func (r *staticResolver) ResolveFromCode(ctx context.Context, provider, code string) (oauth.Identity, error) {
	return r.identity, r.err
}

func (r *staticResolver) ResolveFromToken(ctx context.Context, provider, accessToken string) (oauth.Identity, error) {
	return r.identity, r.err
}

type fixture struct {
	svc      domain.Service
	conn     *gorm.DB
	resolver *staticResolver
	mailer   *linkMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&domain.User{},
		&domain.Token{},
		&domain.SocialAccount{},
		&domain.PasswordResetToken{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	userRepo, tokenRepo := repository.New(conn)
	mailer := &linkMailer{}
	resolver := &staticResolver{}
	box, err := mfa.NewBox(strings.Repeat("ab", 32))
	require.NoError(t, err)

	audit := auditservice.NewService(auditservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepo.Provide(),
	})

	svc := service.New(service.Params{
		Log:      zap.NewNop(),
		Repo:     userRepo,
		Tokens:   token.NewIssuer(tokenRepo, node),
		Reset:    reset.NewStore(conn, zap.NewNop(), mailer, time.Hour),
		Resolver: resolver,
		MFABox:   box,
		Audit:    audit,
		Mailer:   email.NewMailer(&email.NoOpProvider{}),
		GenID:    node,
	})

	return &fixture{svc: svc, conn: conn, resolver: resolver, mailer: mailer}
}

func (f *fixture) register(t *testing.T, emailAddr, pass string) *domain.User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), domain.RegisterRequest{
		Name:     "Ada",
		Email:    emailAddr,
		Password: pass,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) auditCount(t *testing.T, event string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.conn.Model(&auditdomain.AuditLog{}).
		Where("event = ?", event).Count(&count).Error)
	return count
}

func (f *fixture) tokenCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.conn.Model(&domain.Token{}).Count(&count).Error)
	return count
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	user := f.register(t, "ada@example.com", "correct-horse")
	require.True(t, user.Active)
	require.Equal(t, "ada@example.com", user.Email)
	require.NotNil(t, user.PasswordHash)
	require.NotEqual(t, "correct-horse", *user.PasswordHash)
	require.EqualValues(t, 1, f.auditCount(t, "user.register"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ada@example.com", "correct-horse")

	_, err := f.svc.Register(context.Background(), domain.RegisterRequest{
		Name:     "Other",
		Email:    "Ada@Example.com",
		Password: "different-pass",
	})
	require.ErrorIs(t, err, domain.ErrUserExists)
	require.EqualValues(t, 1, f.auditCount(t, "user.register"))
}

func TestRegisterRejectsMalformedInput(t *testing.T) {
	f := newFixture(t)

	// Bad input on register is a validation failure, distinct from the
	// credential errors login returns.
	_, err := f.svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "ada@example.com",
		Password: "short",
	})
	require.ErrorIs(t, err, domain.ErrInvalidRegistration)

	_, err = f.svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "not-an-address",
		Password: "correct-horse",
	})
	require.ErrorIs(t, err, domain.ErrInvalidRegistration)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "ada@example.com", "correct-horse")

	result, err := f.svc.Login(context.Background(), domain.LoginRequest{
		Email:      "ada@example.com",
		Password:   "correct-horse",
		DeviceName: "laptop",
	})
	require.NoError(t, err)
	require.Equal(t, user.ID, result.User.ID)
	require.NotEmpty(t, result.RawToken)
	require.Equal(t, "laptop", result.Token.DeviceName)

	authed, _, err := f.svc.Authenticate(context.Background(), result.RawToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, authed.ID)
}

func TestLoginWrongPasswordLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ada@example.com", "correct-horse")

	_, err := f.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong-horse",
	})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	require.Zero(t, f.tokenCount(t))
	require.Zero(t, f.auditCount(t, "user.login"))
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct-horse",
	})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "ada@example.com", "correct-horse")
	require.NoError(t, f.conn.Model(&domain.User{}).
		Where("id = ?", user.ID).Update("active", false).Error)

	// Correct credentials on a deactivated account get the specific failure,
	// not the generic one.
	_, err := f.svc.Login(context.Background(), domain.LoginRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
	})
	require.ErrorIs(t, err, domain.ErrAccountDeactivated)
	require.Zero(t, f.tokenCount(t))
}

func TestLogoutRevokesOnlyPresentedToken(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "ada@example.com", "correct-horse")
	ctx := context.Background()

	login := func(device string) *domain.LoginResult {
		result, err := f.svc.Login(ctx, domain.LoginRequest{
			Email:      "ada@example.com",
			Password:   "correct-horse",
			DeviceName: device,
		})
		require.NoError(t, err)
		return result
	}
	laptop := login("laptop")
	phone := login("phone")

	require.NoError(t, f.svc.Logout(ctx, user, laptop.RawToken))

	_, _, err := f.svc.Authenticate(ctx, laptop.RawToken)
	require.ErrorIs(t, err, domain.ErrTokenNotFound)
	_, _, err = f.svc.Authenticate(ctx, phone.RawToken)
	require.NoError(t, err)
}

func TestLogoutAllDevices(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "ada@example.com", "correct-horse")
	ctx := context.Background()

	var raws []string
	for _, device := range []string{"laptop", "phone", "tablet"} {
		result, err := f.svc.Login(ctx, domain.LoginRequest{
			Email:      "ada@example.com",
			Password:   "correct-horse",
			DeviceName: device,
		})
		require.NoError(t, err)
		raws = append(raws, result.RawToken)
	}

	require.NoError(t, f.svc.LogoutAllDevices(ctx, user))
	require.Zero(t, f.tokenCount(t))
	for _, raw := range raws {
		_, _, err := f.svc.Authenticate(ctx, raw)
		require.ErrorIs(t, err, domain.ErrTokenNotFound)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ada@example.com", "correct-horse")
	ctx := context.Background()

	status, err := f.svc.SendPasswordResetLink(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, reset.StatusLinkSent, status)
	require.NotEmpty(t, f.mailer.token)

	status, err = f.svc.ResetPassword(ctx, domain.ResetPasswordRequest{
		Email:       "ada@example.com",
		Token:       f.mailer.token,
		NewPassword: "brand-new-pass",
	})
	require.NoError(t, err)
	require.Equal(t, reset.StatusPasswordReset, status)

	_, err = f.svc.Login(ctx, domain.LoginRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
	})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, domain.LoginRequest{
		Email:    "ada@example.com",
		Password: "brand-new-pass",
	})
	require.NoError(t, err)
}

func TestSendPasswordResetLinkUnknownEmail(t *testing.T) {
	f := newFixture(t)

	// The status must not reveal whether the email exists.
	status, err := f.svc.SendPasswordResetLink(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	require.Equal(t, reset.StatusLinkSent, status)
	require.Zero(t, f.auditCount(t, "user.password_reset_requested"))
}

func TestUpdatePassword(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "ada@example.com", "correct-horse")
	ctx := context.Background()

	updated, err := f.svc.UpdatePassword(ctx, user, "wrong-horse", "brand-new-pass")
	require.NoError(t, err)
	require.False(t, updated)

	updated, err = f.svc.UpdatePassword(ctx, user, "correct-horse", "brand-new-pass")
	require.NoError(t, err)
	require.True(t, updated)

	_, err = f.svc.Login(ctx, domain.LoginRequest{
		Email:    "ada@example.com",
		Password: "brand-new-pass",
	})
	require.NoError(t, err)
}

func TestVerifyEmailIdempotent(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "ada@example.com", "correct-horse")
	ctx := context.Background()

	require.NoError(t, f.svc.VerifyEmail(ctx, user))
	require.True(t, user.HasVerifiedEmail())
	require.NoError(t, f.svc.VerifyEmail(ctx, user))
	require.EqualValues(t, 1, f.auditCount(t, "user.email_verified"))
}

func TestSocialLoginCreatesThenReuses(t *testing.T) {
	f := newFixture(t)
	f.resolver.identity = oauth.Identity{
		ExternalID:  "google-123",
		Email:       "ada@example.com",
		DisplayName: "Ada",
	}
	ctx := context.Background()

	first, err := f.svc.SocialLogin(ctx, domain.SocialLoginRequest{
		Provider: "google",
		Token:    "provider-access-token",
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.RawToken)
	require.True(t, first.User.HasVerifiedEmail())
	require.EqualValues(t, 1, f.auditCount(t, "user.register_social"))

	second, err := f.svc.SocialLogin(ctx, domain.SocialLoginRequest{
		Provider: "google",
		Token:    "provider-access-token",
	})
	require.NoError(t, err)
	require.Equal(t, first.User.ID, second.User.ID)

	var users, accounts int64
	require.NoError(t, f.conn.Model(&domain.User{}).Count(&users).Error)
	require.NoError(t, f.conn.Model(&domain.SocialAccount{}).Count(&accounts).Error)
	require.EqualValues(t, 1, users)
	require.EqualValues(t, 1, accounts)
	require.EqualValues(t, 1, f.auditCount(t, "user.register_social"))
}

func TestSocialLoginLinksExistingUser(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "ada@example.com", "correct-horse")
	f.resolver.identity = oauth.Identity{
		ExternalID:  "google-123",
		Email:       "ada@example.com",
		DisplayName: "Ada",
	}

	result, err := f.svc.SocialLogin(context.Background(), domain.SocialLoginRequest{
		Provider: "google",
		Token:    "provider-access-token",
	})
	require.NoError(t, err)
	require.Equal(t, user.ID, result.User.ID)

	var users int64
	require.NoError(t, f.conn.Model(&domain.User{}).Count(&users).Error)
	require.EqualValues(t, 1, users)
}

func TestRevokeTokenOwnership(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ada@example.com", "correct-horse")
	other := f.register(t, "eve@example.com", "another-pass")
	ctx := context.Background()

	result, err := f.svc.Login(ctx, domain.LoginRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	// A foreign token looks exactly like a missing one.
	err = f.svc.RevokeToken(ctx, other, result.Token.ID)
	require.ErrorIs(t, err, domain.ErrTokenNotFound)

	_, _, err = f.svc.Authenticate(ctx, result.RawToken)
	require.NoError(t, err)
}

func TestRevokeTokenByOwner(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "ada@example.com", "correct-horse")
	ctx := context.Background()

	result, err := f.svc.Login(ctx, domain.LoginRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.RevokeToken(ctx, user, result.Token.ID))
	_, _, err = f.svc.Authenticate(ctx, result.RawToken)
	require.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestEnableMFA(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "ada@example.com", "correct-horse")

	secret, err := f.svc.EnableMFA(context.Background(), user)
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	var row domain.User
	require.NoError(t, f.conn.First(&row, "id = ?", user.ID).Error)
	require.NotNil(t, row.MFASecret)
	// The stored secret is sealed, never the enrollment plaintext.
	require.NotEqual(t, secret, *row.MFASecret)
}

func TestEnableMFAWithoutKey(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "ada@example.com", "correct-horse")

	conn := f.conn
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	userRepo, tokenRepo := repository.New(conn)
	svc := service.New(service.Params{
		Log:      zap.NewNop(),
		Repo:     userRepo,
		Tokens:   token.NewIssuer(tokenRepo, node),
		Reset:    reset.NewStore(conn, zap.NewNop(), f.mailer, time.Hour),
		Resolver: f.resolver,
		Audit: auditservice.NewService(auditservice.Params{
			DB:    conn,
			Log:   zap.NewNop(),
			GenID: node,
			Repo:  auditrepo.Provide(),
		}),
		Mailer: email.NewMailer(&email.NoOpProvider{}),
		GenID:  node,
	})

	_, err = svc.EnableMFA(context.Background(), user)
	require.ErrorIs(t, err, domain.ErrMFAUnavailable)
}
