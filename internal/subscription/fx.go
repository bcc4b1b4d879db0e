package subscription

import (
	"github.com/koverhq/kover/internal/subscription/repository"
	"github.com/koverhq/kover/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
