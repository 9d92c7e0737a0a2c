package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	cachefx "parsera-notifier/cache/fx"
	dbfx "parsera-notifier/db/fx"
	eventsfx "parsera-notifier/internal/app/events/fx"
	appfx "parsera-notifier/internal/app/fx"
	healthfx "parsera-notifier/internal/app/health/fx"
	inngestfx "parsera-notifier/internal/app/inngest/fx"
	notifyfx "parsera-notifier/internal/app/notify/fx"
	routerfx "parsera-notifier/internal/router/fx"
	serverfx "parsera-notifier/internal/server/fx"
)

func main() {
	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		appfx.CoreAppOptions,
		dbfx.Module,
		dbfx.SQLiteModule,
		cachefx.Module,
		notifyfx.Module,
		routerfx.CoreRouterOptions,
		serverfx.ServerOptions,
		healthfx.Module,
		eventsfx.Module,
		inngestfx.Module,
	)

	app.Run()
}
