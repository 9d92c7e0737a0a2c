package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	cachefx "parsera-notifier/cache/fx"
	dbfx "parsera-notifier/db/fx"
	eventworkerfx "parsera-notifier/internal/app/amqp/eventworker/fx"
	appfx "parsera-notifier/internal/app/fx"
	notifyfx "parsera-notifier/internal/app/notify/fx"
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
		eventworkerfx.Module,
	)

	app.Run()
}
