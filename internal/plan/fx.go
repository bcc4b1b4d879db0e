package plan

import (
	"github.com/koverhq/kover/internal/plan/repository"
	"github.com/koverhq/kover/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
