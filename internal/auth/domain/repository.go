package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)


// Repository is the credential store contract.
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id snowflake.ID) (*User, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	UpsertSocialAccount(ctx context.Context, account *SocialAccount) error
	WithTx(tx *gorm.DB) Repository
}

// TokenRepository persists device-bound bearer tokens.
type TokenRepository interface {
	CreateToken(ctx context.Context, token *Token) error
	FindTokenByHash(ctx context.Context, tokenHash string) (*Token, error)
	FindTokenByID(ctx context.Context, id snowflake.ID) (*Token, error)
	TouchLastUsed(ctx context.Context, id snowflake.ID) error
	DeleteToken(ctx context.Context, id snowflake.ID) error
	DeleteTokensByUser(ctx context.Context, userID snowflake.ID) error
}
