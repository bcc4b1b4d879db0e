package auth

import (
	authconfig "github.com/koverhq/kover/internal/auth/config"
	"github.com/koverhq/kover/internal/auth/mfa"
	"github.com/koverhq/kover/internal/auth/oauth"
	"github.com/koverhq/kover/internal/auth/repository"
	"github.com/koverhq/kover/internal/auth/reset"
	"github.com/koverhq/kover/internal/auth/service"
	"github.com/koverhq/kover/internal/auth/token"
	"github.com/koverhq/kover/internal/config"
	"github.com/koverhq/kover/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(token.NewIssuer),
	fx.Provide(newResetStore),
	fx.Provide(newProviderRegistry),
	fx.Provide(newResolver),
	fx.Provide(newMFABox),
	fx.Provide(service.New),
)

func newResetStore(db *gorm.DB, log *zap.Logger, mailer *email.Mailer, cfg config.Config) *reset.Store {
	return reset.NewStore(db, log, mailer, cfg.ResetTokenTTL)
}

func newProviderRegistry() authconfig.ProviderRegistry {
	return authconfig.BuildProviderRegistry(authconfig.ParseProvidersFromEnv())
}

func newResolver(registry authconfig.ProviderRegistry, cfg config.Config) oauth.Resolver {
	return oauth.NewResolver(registry, cfg.ProviderTimeout)
}

func newMFABox(cfg config.Config) (*mfa.Box, error) {
	return mfa.NewBox(cfg.MFASecretKey)
}
