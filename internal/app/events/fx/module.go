package fx

import (
	"parsera-notifier/internal/app/events"
	"parsera-notifier/internal/pkg/amqpclient"
	"parsera-notifier/internal/router"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		amqpclient.NewAMQP,
		amqpclient.NewPublisher,
		router.AsRoute(events.NewPublishHandler),
		router.AsRoute(events.NewDispatchHandler),
	),
)
