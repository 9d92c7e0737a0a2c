package fx

import (
	"go.uber.org/fx"

	"parsera-notifier/internal/server"
)

var ServerOptions = fx.Options(
	fx.Provide(server.NewHTTPServer),
	fx.Invoke(RegisterHTTPServerLifecycle),
)
