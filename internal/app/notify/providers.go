package notify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"parsera-notifier/config"
	"parsera-notifier/db"
	"parsera-notifier/internal/channel"
	"parsera-notifier/internal/dispatch"
	"parsera-notifier/internal/policy"
)

// Redis entries outlive the longest cadence (a calendar month).
const redisFiredTTL = 35 * 24 * time.Hour

var ErrStoreBackendMissing = errors.New("policy store backend not configured")

func NewSenders(cfg *config.Config, logger *zap.SugaredLogger) (Senders, error) {
	out := Senders{}

	if strings.TrimSpace(cfg.SMTP.Host) != "" && strings.TrimSpace(cfg.SMTP.From) != "" {
		email := channel.NewEmailSender(channel.SMTPCredentials{
			Host:   cfg.SMTP.Host,
			Port:   cfg.SMTP.Port,
			From:   cfg.SMTP.From,
			Login:  cfg.SMTP.Login,
			Secret: cfg.SMTP.Secret,
		}, cfg.Dispatch.SendTimeout)
		out[channel.Email] = channel.Limited(email, cfg.Dispatch.RatePerSec)
		logger.Infow("email_channel_enabled", "host", cfg.SMTP.Host, "port", cfg.SMTP.Port)
	} else {
		logger.Infow("email_channel_disabled", "reason", "missing SMTP_HOST/SMTP_FROM")
	}

	if strings.TrimSpace(cfg.Telegram.Token) != "" {
		tg, err := channel.NewTelegramSender(channel.TelegramCredentials{
			Token:  cfg.Telegram.Token,
			APIURL: cfg.Telegram.APIURL,
		}, cfg.Dispatch.SendTimeout)
		if err != nil {
			return nil, fmt.Errorf("telegram sender: %w", err)
		}
		out[channel.Telegram] = channel.Limited(tg, cfg.Dispatch.RatePerSec)
		logger.Infow("telegram_channel_enabled")
	} else {
		logger.Infow("telegram_channel_disabled", "reason", "missing TELEGRAM_TOKEN")
	}

	return out, nil
}

func NewEvaluator(cfg *config.Config) (*policy.Evaluator, error) {
	mode, err := policy.ParseMonthMode(cfg.Policy.MonthMode)
	if err != nil {
		return nil, err
	}
	return policy.NewEvaluator(mode), nil
}

func NewDispatcher(cfg *config.Config) *dispatch.Dispatcher {
	return dispatch.NewDispatcher(cfg.Dispatch.Workers, cfg.Dispatch.SendTimeout)
}

type NewFiredStoreParams struct {
	fx.In

	Cfg      *config.Config
	Logger   *zap.SugaredLogger
	Redis    *redis.Client `optional:"true"`
	Postgres db.Conn       `name:"postgres" optional:"true"`
	SQLite   db.Conn       `name:"sqlite" optional:"true"`
}

// NewFiredStore picks the last-fired backend named by POLICY_STORE.
func NewFiredStore(p NewFiredStoreParams) (policy.FiredStore, error) {
	backend := p.Cfg.Policy.Store
	var store policy.FiredStore

	switch backend {
	case "", config.StoreMemory:
		backend = config.StoreMemory
		store = policy.NewMemoryStore()
	case config.StoreRedis:
		if p.Redis == nil {
			return nil, fmt.Errorf("%w: redis (set REDIS_HOST)", ErrStoreBackendMissing)
		}
		store = policy.NewRedisStore(p.Redis, redisFiredTTL)
	case config.StorePostgres:
		if p.Postgres == nil || db.Disabled(p.Postgres) {
			return nil, fmt.Errorf("%w: postgres (set DB_HOST/DB_NAME)", ErrStoreBackendMissing)
		}
		store = policy.NewSQLStore(p.Postgres)
	case config.StoreSQLite:
		if p.SQLite == nil || db.Disabled(p.SQLite) {
			return nil, fmt.Errorf("%w: sqlite (set SQLITE_DSN)", ErrStoreBackendMissing)
		}
		store = policy.NewSQLStore(p.SQLite)
	default:
		return nil, fmt.Errorf("unknown POLICY_STORE %q", backend)
	}

	p.Logger.Infow("policy_store_selected", "backend", backend, "month_mode", p.Cfg.Policy.MonthMode)
	return store, nil
}
