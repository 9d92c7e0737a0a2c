package fx

import (
	"parsera-notifier/config"
	"parsera-notifier/internal/logs"

	"go.uber.org/fx"
)

var CoreAppOptions = fx.Options(
	fx.Provide(
		config.NewViper,
		config.NewConfig,
		logs.NewLogger,
		logs.NewSugaredLogger,
	),
	fx.Invoke(logs.RegisterLifecycle),
)
