package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/koverhq/kover/internal/audit/domain"
	"github.com/koverhq/kover/internal/audit/masking"
	"github.com/koverhq/kover/internal/auth/domain"
	"github.com/koverhq/kover/internal/auth/mfa"
	"github.com/koverhq/kover/internal/auth/oauth"
	"github.com/koverhq/kover/internal/auth/password"
	"github.com/koverhq/kover/internal/auth/reset"
	"github.com/koverhq/kover/internal/auth/token"
	"github.com/koverhq/kover/internal/providers/email"
	"github.com/koverhq/kover/pkg/db"
	"github.com/koverhq/kover/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const minPasswordLength = 8

type Params struct {
	fx.In

	Log      *zap.Logger
	Repo     domain.Repository
	Tokens   *token.Issuer
	Reset    *reset.Store
	Resolver oauth.Resolver
	MFABox   *mfa.Box `optional:"true"`
	Audit    auditdomain.Service
	Mailer   *email.Mailer
	Metrics  *telemetry.Metrics `optional:"true"`
	GenID    *snowflake.Node
}

type Service struct {
	log      *zap.Logger
	repo     domain.Repository
	tokens   *token.Issuer
	reset    *reset.Store
	resolver oauth.Resolver
	mfaBox   *mfa.Box
	audit    auditdomain.Service
	mailer   *email.Mailer
	metrics  *telemetry.Metrics
	genID    *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("auth.service"),
		repo:     p.Repo,
		tokens:   p.Tokens,
		reset:    p.Reset,
		resolver: p.Resolver,
		mfaBox:   p.MFABox,
		audit:    p.Audit,
		mailer:   p.Mailer,
		metrics:  p.Metrics,
		genID:    p.GenID,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidRegistration
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		return nil, domain.ErrInvalidRegistration
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultName(email)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           s.genID.Generate(),
		Name:         name,
		Email:        email,
		PasswordHash: &hashed,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// The unique index is authoritative; the pre-check only narrows the
		// window.
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrUserExists
		}
		return nil, err
	}

	s.audit.Log(ctx, user.ID, "user.register", nil)
	s.metrics.Registration()

	if err := s.mailer.SendWelcome(ctx, user.Email, user.Name); err != nil {
		s.log.Warn("failed to send welcome mail", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		s.metrics.Login("invalid")
		return nil, domain.ErrInvalidCredentials
	}
	if strings.TrimSpace(req.Password) == "" {
		s.metrics.Login("invalid")
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.metrics.Login("invalid")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == nil || !password.Verify(req.Password, *user.PasswordHash) {
		s.metrics.Login("invalid")
		return nil, domain.ErrInvalidCredentials
	}

	// Active status is checked after the credential check so a deactivated
	// account with correct credentials gets the more specific failure.
	if !user.Active {
		s.metrics.Login("deactivated")
		return nil, domain.ErrAccountDeactivated
	}

	issued, err := s.tokens.Issue(ctx, user, req.DeviceName, []string{token.AbilityAll})
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, user.ID, "user.login", map[string]any{
		"device": issued.Record.DeviceName,
	})
	s.metrics.Login("success")

	return &domain.LoginResult{
		User:     user,
		RawToken: issued.Plaintext,
		Token:    issued.Record,
	}, nil
}

func (s *Service) Logout(ctx context.Context, user *domain.User, rawToken string) error {
	current, err := s.tokens.Current(ctx, rawToken)
	if err != nil {
		return err
	}
	if current.UserID != user.ID {
		return domain.ErrTokenNotFound
	}

	// Only the presenting token is revoked, never other devices.
	if err := s.tokens.Revoke(ctx, current.ID); err != nil {
		return err
	}

	s.audit.Log(ctx, user.ID, "user.logout", map[string]any{
		"device": current.DeviceName,
	})
	return nil
}

func (s *Service) LogoutAllDevices(ctx context.Context, user *domain.User) error {
	if err := s.tokens.RevokeAll(ctx, user.ID); err != nil {
		return err
	}
	s.audit.Log(ctx, user.ID, "user.logout_all", nil)
	return nil
}

func (s *Service) SendPasswordResetLink(ctx context.Context, emailAddr string) (string, error) {
	status, matched, err := s.reset.SendLink(ctx, emailAddr)
	if err != nil {
		return "", err
	}

	// Only audit when a user matched; the status itself never reveals that.
	if matched {
		if user, err := s.repo.FindByEmail(ctx, emailAddr); err == nil {
			s.audit.Log(ctx, user.ID, "user.password_reset_requested", map[string]any{
				"email": masking.MaskEmail(user.Email),
			})
		}
	}

	return status, nil
}

func (s *Service) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) (string, error) {
	if len(strings.TrimSpace(req.NewPassword)) < minPasswordLength {
		return "", domain.ErrInvalidResetToken
	}

	if err := s.reset.Consume(ctx, req.Email, req.Token); err != nil {
		return "", err
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return "", err
	}

	hashed, err := password.Hash(req.NewPassword)
	if err != nil {
		return "", err
	}
	remember, err := randomRememberToken()
	if err != nil {
		return "", err
	}

	err = s.repo.UpdateFields(ctx, user.ID, map[string]any{
		"password_hash":  hashed,
		"remember_token": remember,
	})
	if err != nil {
		return "", err
	}

	s.audit.Log(ctx, user.ID, "user.password_reset", nil)
	return reset.StatusPasswordReset, nil
}

func (s *Service) UpdatePassword(ctx context.Context, user *domain.User, currentPassword, newPassword string) (bool, error) {
	if user.PasswordHash == nil || !password.Verify(currentPassword, *user.PasswordHash) {
		return false, nil
	}
	if len(strings.TrimSpace(newPassword)) < minPasswordLength {
		return false, nil
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return false, err
	}
	if err := s.repo.UpdateFields(ctx, user.ID, map[string]any{"password_hash": hashed}); err != nil {
		return false, err
	}

	s.audit.Log(ctx, user.ID, "user.password_updated", nil)
	return true, nil
}

func (s *Service) VerifyEmail(ctx context.Context, user *domain.User) error {
	if user.HasVerifiedEmail() {
		return nil
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateFields(ctx, user.ID, map[string]any{"email_verified_at": now}); err != nil {
		return err
	}
	user.EmailVerifiedAt = &now

	s.audit.Log(ctx, user.ID, "user.email_verified", nil)
	return nil
}

func (s *Service) SocialLogin(ctx context.Context, req domain.SocialLoginRequest) (*domain.LoginResult, error) {
	provider := strings.ToLower(strings.TrimSpace(req.Provider))

	var identity oauth.Identity
	var err error
	if strings.TrimSpace(req.Token) != "" {
		identity, err = s.resolver.ResolveFromToken(ctx, provider, req.Token)
	} else {
		identity, err = s.resolver.ResolveFromCode(ctx, provider, req.Code)
	}
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByEmail(ctx, identity.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		now := time.Now().UTC()
		user = &domain.User{
			ID:              s.genID.Generate(),
			Name:            identity.DisplayName,
			Email:           strings.ToLower(identity.Email),
			Active:          true,
			EmailVerifiedAt: &now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if user.Name == "" {
			user.Name = defaultName(user.Email)
		}
		if err := s.repo.Create(ctx, user); err != nil {
			if db.IsDuplicateKeyErr(err) {
				// Concurrent first login with the same identity.
				user, err = s.repo.FindByEmail(ctx, identity.Email)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		} else {
			s.audit.Log(ctx, user.ID, "user.register_social", map[string]any{
				"provider": provider,
			})
		}
	} else if err != nil {
		return nil, err
	}

	if !user.Active {
		return nil, domain.ErrAccountDeactivated
	}

	now := time.Now().UTC()
	account := &domain.SocialAccount{
		ID:         s.genID.Generate(),
		UserID:     user.ID,
		Provider:   provider,
		ProviderID: identity.ExternalID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.UpsertSocialAccount(ctx, account); err != nil {
		return nil, err
	}

	issued, err := s.tokens.Issue(ctx, user, req.DeviceName, []string{token.AbilityAll})
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, user.ID, "user.social_login", map[string]any{
		"provider": provider,
	})

	return &domain.LoginResult{
		User:     user,
		RawToken: issued.Plaintext,
		Token:    issued.Record,
	}, nil
}

func (s *Service) EnableMFA(ctx context.Context, user *domain.User) (string, error) {
	if s.mfaBox == nil {
		return "", domain.ErrMFAUnavailable
	}

	secret, err := mfa.NewSecret()
	if err != nil {
		return "", err
	}
	sealed, err := s.mfaBox.Seal(secret)
	if err != nil {
		return "", err
	}

	if err := s.repo.UpdateFields(ctx, user.ID, map[string]any{"mfa_secret": sealed}); err != nil {
		return "", err
	}

	s.audit.Log(ctx, user.ID, "user.mfa_enabled", nil)

	// The plaintext secret is returned exactly once for enrollment.
	return secret, nil
}

func (s *Service) RevokeToken(ctx context.Context, user *domain.User, tokenID snowflake.ID) error {
	record, err := s.tokens.Find(ctx, tokenID)
	if err != nil {
		return err
	}
	// A token the caller does not own is indistinguishable from a missing one.
	if record.UserID != user.ID {
		return domain.ErrTokenNotFound
	}

	if err := s.tokens.Revoke(ctx, record.ID); err != nil {
		return err
	}

	s.audit.Log(ctx, user.ID, "user.token_revoked", map[string]any{
		"device": record.DeviceName,
	})
	return nil
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.User, *domain.Token, error) {
	record, err := s.tokens.Current(ctx, rawToken)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.repo.FindByID(ctx, record.UserID)
	if err != nil {
		return nil, nil, err
	}
	if !user.Active {
		return nil, nil, domain.ErrAccountDeactivated
	}

	return user, record, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}

func defaultName(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) != "" {
		return strings.TrimSpace(parts[0])
	}
	return email
}

func randomRememberToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
