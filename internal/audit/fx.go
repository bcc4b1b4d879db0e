package audit

import (
	"github.com/koverhq/kover/internal/audit/repository"
	"github.com/koverhq/kover/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
