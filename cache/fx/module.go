package fx

import (
	"parsera-notifier/cache"

	"go.uber.org/fx"
)

var Module = fx.Module(
	"redis",
	fx.Provide(cache.NewRedis),
)
