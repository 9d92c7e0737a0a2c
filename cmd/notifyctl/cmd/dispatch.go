package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	cachefx "parsera-notifier/cache/fx"
	"parsera-notifier/config"
	dbfx "parsera-notifier/db/fx"
	"parsera-notifier/internal/app/notify"
	notifyfx "parsera-notifier/internal/app/notify/fx"
	"parsera-notifier/internal/envutil"
	"parsera-notifier/internal/logs"
)

func newDispatchCmd() *cobra.Command {
	var (
		store     string
		monthMode string
		timeout   time.Duration
	)

	c := &cobra.Command{
		Use:   "dispatch <file|->",
		Short: "Decide and deliver one envelope using the configured channels",
		Args:  exactlyOneFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := readEnvelope(cmd, args[0])
			if err != nil {
				return err
			}

			var svc *notify.Service
			app := fx.New(
				fx.NopLogger,
				fx.Provide(
					func() *viper.Viper {
						vp := config.NewViper()
						if store != "" {
							vp.Set("POLICY_STORE", store)
						}
						if monthMode != "" {
							vp.Set("POLICY_MONTH_MODE", monthMode)
						}
						return vp
					},
					config.NewConfig,
					logs.NewLogger,
					logs.NewSugaredLogger,
				),
				dbfx.Module,
				dbfx.SQLiteModule,
				cachefx.Module,
				notifyfx.Module,
				fx.Populate(&svc),
			)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := app.Start(ctx); err != nil {
				return fmt.Errorf("start: %w", err)
			}
			defer func() {
				stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer stopCancel()
				_ = app.Stop(stopCtx)
			}()

			res, err := svc.Process(ctx, ev)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	c.Flags().StringVar(&store, "store", envutil.String(os.Getenv, "NOTIFYCTL_STORE", ""), "override POLICY_STORE (memory|redis|postgres|sqlite)")
	c.Flags().StringVar(&monthMode, "month-mode", "", "override POLICY_MONTH_MODE (fixed|calendar)")
	c.Flags().DurationVar(&timeout, "timeout", envutil.Duration(os.Getenv, "NOTIFYCTL_TIMEOUT", time.Minute), "overall deadline for startup and delivery")
	return c
}
