package onboarding

import (
	"github.com/koverhq/kover/internal/onboarding/repository"
	"github.com/koverhq/kover/internal/onboarding/service"
	"go.uber.org/fx"
)

var Module = fx.Module("onboarding.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewProvisioner),
)
