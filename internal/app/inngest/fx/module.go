package fx

import (
	"parsera-notifier/config"
	"parsera-notifier/internal/app/inngest"
	"parsera-notifier/internal/app/inngest/notification"
	pkginngest "parsera-notifier/internal/pkg/inngest"
	"parsera-notifier/internal/router"

	"github.com/inngest/inngestgo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(
		pkginngest.NewInngestClient,
		notification.NewFunction,
		router.AsRoute(inngest.NewInngestHandler),
	),
	fx.Invoke(registerFunctions),
)

func registerFunctions(
	cfg *config.Config,
	client inngestgo.Client,
	fn *notification.Function,
	logger *zap.SugaredLogger,
) error {
	if !pkginngest.Enabled(client) {
		logger.Infow("inngest_disabled", "reason", "missing INNGEST_APP_ID")
		return nil
	}

	_, err := inngestgo.CreateFunction(
		client,
		inngestgo.FunctionOpts{
			ID: notification.FunctionID,
			// Sends are single-attempt; a retry would re-notify recipients.
			Retries: inngestgo.IntPtr(0),
		},
		inngestgo.EventTrigger(notification.EventReceivedName, nil),
		fn.Handle,
	)
	if err != nil {
		logger.Errorw("inngest_create_function_failed", "function", notification.FunctionID, "err", err)
		return err
	}

	logger.Infow("inngest_enabled",
		"path", pkginngest.ServePath(cfg),
		"event", notification.EventReceivedName,
	)
	return nil
}
