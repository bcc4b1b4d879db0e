package reference

import "go.uber.org/fx"

// Module exposes the country/currency/language catalogs consumed by the
// onboarding form.
var Module = fx.Module("reference",
	fx.Provide(NewRepository),
)
