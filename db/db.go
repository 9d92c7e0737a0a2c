package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"parsera-notifier/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresOut struct {
	fx.Out

	DB   *sqlx.DB `name:"postgres"`
	Conn Conn     `name:"postgres"`
}

func NewSQLXPostgresDB(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger) (PostgresOut, error) {
	if strings.TrimSpace(cfg.DBHost) == "" || strings.TrimSpace(cfg.DBName) == "" {
		log.Infow("postgres_disabled", "reason", "missing DB_HOST/DB_NAME")
		return PostgresOut{Conn: newDisabledConn(ErrPostgresDisabled, "pgx")}, nil
	}

	db, err := sqlx.Open("pgx", PostgresDSN(cfg))
	if err != nil {
		return PostgresOut{}, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.PingContext(ctx); err != nil {
				_ = db.Close()
				return fmt.Errorf("postgres ping failed: %w", err)
			}
			log.Infow("postgres_connected", "host", cfg.DBHost, "db", cfg.DBName)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := db.Close(); err != nil {
				log.Warnw("postgres_close_failed", "err", err)
			}
			return nil
		},
	})

	return PostgresOut{DB: db, Conn: db}, nil
}

// PostgresDSN builds a pgx URL from the DB_* settings.
func PostgresDSN(cfg *config.Config) string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.DBHost, cfg.DBPort),
		Path:   cfg.DBName,
	}
	if strings.TrimSpace(cfg.DBUser) != "" {
		if cfg.DBPassword == "" {
			u.User = url.User(cfg.DBUser)
		} else {
			u.User = url.UserPassword(cfg.DBUser, cfg.DBPassword)
		}
	}
	return u.String()
}
