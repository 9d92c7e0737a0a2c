package fx

import (
	"go.uber.org/fx"

	"parsera-notifier/internal/app/notify"
)

var Module = fx.Module(
	"notify",
	fx.Provide(
		notify.NewSenders,
		notify.NewEvaluator,
		notify.NewDispatcher,
		notify.NewFiredStore,
		notify.NewService,
	),
)
