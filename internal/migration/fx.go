package migration

import (
	"github.com/koverhq/kover/internal/config"
	"github.com/koverhq/kover/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// The embedded migrations target postgres; other dialects are
		// expected to be schema-managed externally (tests auto-migrate).
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		}

		if err := seed.EnsurePlans(conn); err != nil {
			return err
		}
		return seed.EnsureReferenceData(conn)
	}),
)
