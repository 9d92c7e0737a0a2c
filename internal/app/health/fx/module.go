package fx

import (
	"go.uber.org/fx"

	"parsera-notifier/internal/app/health"
	"parsera-notifier/internal/router"
)

var Module = fx.Options(
	fx.Provide(router.AsRoute(health.NewHandler)),
)
