package fx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"parsera-notifier/config"
)

// shutdownGrace leaves room for a synchronous /v1/dispatch that started just
// before shutdown to finish its sends.
func shutdownGrace(cfg *config.Config) time.Duration {
	grace := 10 * time.Second
	if cfg != nil && cfg.Dispatch.SendTimeout+5*time.Second > grace {
		grace = cfg.Dispatch.SendTimeout + 5*time.Second
	}
	return grace
}

func RegisterHTTPServerLifecycle(
	lc fx.Lifecycle,
	cfg *config.Config,
	srv *http.Server,
	log *zap.SugaredLogger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Bind here so a taken port fails startup instead of a background goroutine.
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("http listen %s: %w", srv.Addr, err)
			}
			log.Infow("http_server_listening", "addr", ln.Addr().String())
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorw("http_server_crashed", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			grace := shutdownGrace(cfg)
			log.Infow("http_server_stopping", "addr", srv.Addr, "grace", grace)
			shutdownCtx, cancel := context.WithTimeout(ctx, grace)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
