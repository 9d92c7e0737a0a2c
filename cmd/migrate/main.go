package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"parsera-notifier/config"
	"parsera-notifier/db"
	"parsera-notifier/db/migrations"
	appfx "parsera-notifier/internal/app/fx"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

type MigrateCmd string

func main() {
	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		appfx.CoreAppOptions,
		fx.Supply(MigrateCmd(cmd)),
		fx.Invoke(registerMigrateHook),
	)

	startCtx, startCancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

type migrateHookParams struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    *config.Config
	Logger *zap.SugaredLogger

	Cmd MigrateCmd
}

// target resolves which database the cadence table lives in. POLICY_STORE
// picks postgres explicitly; otherwise SQLITE_DSN is migrated.
type target struct {
	dialect string
	driver  string
	dsn     string
}

func resolveTarget(cfg *config.Config) (target, error) {
	if cfg.Policy.Store == config.StorePostgres {
		if strings.TrimSpace(cfg.DBHost) == "" || strings.TrimSpace(cfg.DBName) == "" {
			return target{}, errors.New("postgres disabled: set DB_HOST and DB_NAME")
		}
		return target{dialect: "postgres", driver: "pgx", dsn: db.PostgresDSN(cfg)}, nil
	}

	dsn := strings.TrimSpace(cfg.SQLite.DSN)
	if dsn == "" {
		return target{}, errors.New("sqlite disabled: set SQLITE_DSN (and SQLITE_TOKEN for remote libsql)")
	}
	driver, resolved := db.SQLiteDriver(dsn, strings.TrimSpace(cfg.SQLite.Token))
	return target{dialect: "sqlite3", driver: driver, dsn: resolved}, nil
}

func registerMigrateHook(p migrateHookParams) {
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			t, err := resolveTarget(p.Cfg)
			if err != nil {
				return err
			}

			if err := goose.SetDialect(t.dialect); err != nil {
				return fmt.Errorf("set goose dialect: %w", err)
			}
			goose.SetBaseFS(migrations.FS)

			var conn *sqlx.DB
			if t.dialect == "postgres" {
				conn, err = sqlx.Open(t.driver, t.dsn)
			} else {
				conn, err = db.OpenSQLite(t.driver, t.dsn)
			}
			if err != nil {
				return fmt.Errorf("open %s: %w", t.dialect, err)
			}
			defer func() {
				_ = conn.Close()
			}()

			pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
			defer pingCancel()
			if err := conn.PingContext(pingCtx); err != nil {
				return fmt.Errorf("ping %s: %w", t.dialect, err)
			}
			p.Logger.Infow("migrate_connection_ok", dsnLogFields(t)...)

			p.Logger.Infow("goose_run_start", "cmd", string(p.Cmd))
			if err := goose.RunContext(ctx, string(p.Cmd), conn.DB, "."); err != nil {
				return fmt.Errorf("goose run %q: %w", p.Cmd, err)
			}
			p.Logger.Infow("goose_run_done", "cmd", string(p.Cmd))
			return nil
		},
	})
}

func dsnLogFields(t target) []any {
	u, err := url.Parse(t.dsn)
	if err != nil || u.Scheme == "" {
		return []any{"dialect", t.dialect, "driver", t.driver}
	}
	return []any{"dialect", t.dialect, "driver", t.driver, "scheme", u.Scheme, "host", u.Host}
}
