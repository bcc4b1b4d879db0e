// Package reset implements the password-reset token backend.
package reset

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/koverhq/kover/internal/auth/domain"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const resetTokenBytes = 32

// Statuses mirror the password-broker contract. The link status stays the
// same whether or not the email matches an account.
const (
	StatusLinkSent      = "passwords.sent"
	StatusPasswordReset = "passwords.reset"
)

// Mailer delivers the reset link out-of-band.
type Mailer interface {
	SendPasswordResetLink(ctx context.Context, email, token string) error
}

// Store creates and consumes single-use reset tokens.
type Store struct {
	db     *gorm.DB
	log    *zap.Logger
	mailer Mailer
	ttl    time.Duration
}

func NewStore(db *gorm.DB, log *zap.Logger, mailer Mailer, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{
		db:     db,
		log:    log.Named("auth.reset"),
		mailer: mailer,
		ttl:    ttl,
	}
}

// SendLink issues a reset token for the email and mails it. The returned
// status is identical whether or not the email matches an account. The second
// return reports whether a matching user existed, for caller-side auditing.
func (s *Store) SendLink(ctx context.Context, email string) (string, bool, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return StatusLinkSent, false, nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", normalized).Count(&count).Error; err != nil {
		return "", false, err
	}
	if count == 0 {
		return StatusLinkSent, false, nil
	}

	raw, err := newToken()
	if err != nil {
		return "", false, err
	}

	now := time.Now().UTC()
	row := &domain.PasswordResetToken{
		ID:        ulid.Make().String(),
		Email:     normalized,
		TokenHash: hashToken(raw),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	// One outstanding token per email.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", normalized).Delete(&domain.PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(row).Error
	})
	if err != nil {
		return "", false, err
	}

	if s.mailer != nil {
		if err := s.mailer.SendPasswordResetLink(ctx, normalized, raw); err != nil {
			s.log.Warn("failed to send reset link", zap.Error(err))
		}
	}

	return StatusLinkSent, true, nil
}

// Consume validates the (email, token) tuple and deletes the row on success.
func (s *Store) Consume(ctx context.Context, email, rawToken string) error {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" || strings.TrimSpace(rawToken) == "" {
		return domain.ErrInvalidResetToken
	}

	var row domain.PasswordResetToken
	err := s.db.WithContext(ctx).Where("email = ?", normalized).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrInvalidResetToken
	}
	if err != nil {
		return err
	}

	if time.Now().UTC().After(row.ExpiresAt) {
		return domain.ErrInvalidResetToken
	}
	if subtle.ConstantTimeCompare([]byte(row.TokenHash), []byte(hashToken(rawToken))) != 1 {
		return domain.ErrInvalidResetToken
	}

	return s.db.WithContext(ctx).Where("id = ?", row.ID).Delete(&domain.PasswordResetToken{}).Error
}

func newToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
