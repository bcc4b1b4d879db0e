// Package token issues and revokes opaque device-bound bearer tokens.
package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/koverhq/kover/internal/auth/domain"
	"gorm.io/datatypes"
)

const (
	tokenBytes = 32
	tokenTTL   = 30 * 24 * time.Hour

	// DefaultDeviceName is used when the client does not name its device.
	DefaultDeviceName = "web"
)

// AbilityAll grants every ability to a token.
const AbilityAll = "*"

// Issued pairs a persisted token with its one-time plaintext.
type Issued struct {
	Plaintext string
	Record    *domain.Token
}

// Issuer creates and revokes tokens. Each token is an independent row; no
// cross-request locking is required.
type Issuer struct {
	repo  domain.TokenRepository
	genID *snowflake.Node
}

func NewIssuer(repo domain.TokenRepository, genID *snowflake.Node) *Issuer {
	return &Issuer{repo: repo, genID: genID}
}

// Issue creates a token for the user scoped to the given device and abilities.
func (i *Issuer) Issue(ctx context.Context, user *domain.User, deviceName string, abilities []string) (*Issued, error) {
	raw, err := newPlaintext()
	if err != nil {
		return nil, err
	}

	device := strings.TrimSpace(deviceName)
	if device == "" {
		device = DefaultDeviceName
	}
	if len(abilities) == 0 {
		abilities = []string{AbilityAll}
	}

	now := time.Now().UTC()
	record := &domain.Token{
		ID:         i.genID.Generate(),
		UserID:     user.ID,
		DeviceName: device,
		TokenHash:  HashToken(raw),
		Abilities:  datatypes.NewJSONSlice(abilities),
		ExpiresAt:  now.Add(tokenTTL),
		CreatedAt:  now,
	}
	if err := i.repo.CreateToken(ctx, record); err != nil {
		return nil, err
	}

	return &Issued{Plaintext: raw, Record: record}, nil
}

// Current resolves the token presented as plaintext, enforcing expiry.
func (i *Issuer) Current(ctx context.Context, rawToken string) (*domain.Token, error) {
	raw := strings.TrimSpace(rawToken)
	if raw == "" {
		return nil, domain.ErrTokenNotFound
	}

	record, err := i.repo.FindTokenByHash(ctx, HashToken(raw))
	if err != nil {
		return nil, err
	}
	if time.Now().UTC().After(record.ExpiresAt) {
		return nil, domain.ErrTokenNotFound
	}

	_ = i.repo.TouchLastUsed(ctx, record.ID)
	return record, nil
}

// Revoke deletes one token.
func (i *Issuer) Revoke(ctx context.Context, tokenID snowflake.ID) error {
	return i.repo.DeleteToken(ctx, tokenID)
}

// RevokeAll deletes every token owned by the user.
func (i *Issuer) RevokeAll(ctx context.Context, userID snowflake.ID) error {
	return i.repo.DeleteTokensByUser(ctx, userID)
}

// Find returns the token row by id.
func (i *Issuer) Find(ctx context.Context, tokenID snowflake.ID) (*domain.Token, error) {
	return i.repo.FindTokenByID(ctx, tokenID)
}

func newPlaintext() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken returns the hex sha256 digest stored at rest.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
