package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Env string

const (
	Dev        Env = "development"
	Test       Env = "test"
	Preview    Env = "preview"
	Production Env = "production"
)

type Config struct {
	AppName string
	ENV     Env
	AppPort int

	LogLevel string

	// Postgres (optional; enabled only when DBHost + DBName are set).
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     int
	DBName     string

	// Redis (optional; enabled only when RedisHost is set).
	RedisUser     string
	RedisPassword string
	RedisHost     string
	RedisPort     int
	RedisScheme   string

	SQLite   SQLiteConfig
	RabbitMQ RabbitMQConfig
	SMTP     SMTPConfig
	Telegram TelegramConfig
	Dispatch DispatchConfig
	Policy   PolicyConfig
	Inngest  InngestConfig
}

// SQLiteConfig accepts a local file DSN (modernc driver) or a remote libsql:// DSN.
type SQLiteConfig struct {
	DSN   string
	Token string
}

type RabbitMQConfig struct {
	URL             string
	Exchange        string
	Queue           string
	RoutingKey      string
	Prefetch        int
	DeclareTopology bool
}

type SMTPConfig struct {
	Host   string
	Port   int
	From   string
	Login  string
	Secret string
}

type TelegramConfig struct {
	Token  string
	APIURL string
}

type DispatchConfig struct {
	Workers     int
	SendTimeout time.Duration
	RatePerSec  int
}

// Cadence store backends accepted by POLICY_STORE.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

type PolicyConfig struct {
	MonthMode string
	Store     string
}

type InngestConfig struct {
	AppID      string
	Dev        string
	SigningKey string
	ServeHost  string
	ServePath  string
}

func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "parsera-notifier")
	v.SetDefault("APP_ENV", string(Dev))
	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_SCHEME", "redis")

	v.SetDefault("RABBITMQ_EXCHANGE", "events")
	v.SetDefault("RABBITMQ_QUEUE", "notification.events.v1")
	v.SetDefault("RABBITMQ_ROUTING_KEY", "notification.events.v1")
	v.SetDefault("RABBITMQ_PREFETCH", 8)
	v.SetDefault("RABBITMQ_DECLARE_TOPOLOGY", true)

	v.SetDefault("SMTP_PORT", 587)

	v.SetDefault("DISPATCH_WORKERS", 4)
	v.SetDefault("DISPATCH_SEND_TIMEOUT", "15s")
	v.SetDefault("DISPATCH_RATE_PER_SEC", 0)

	v.SetDefault("POLICY_MONTH_MODE", "fixed")
	v.SetDefault("POLICY_STORE", "memory")

	return v
}

func NewConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppName: v.GetString("APP_NAME"),
		ENV:     Env(strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV")))),
		AppPort: v.GetInt("APP_PORT"),

		LogLevel: v.GetString("LOG_LEVEL"),

		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetInt("DB_PORT"),
		DBName:     v.GetString("DB_NAME"),

		RedisUser:     v.GetString("REDIS_USER"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisHost:     v.GetString("REDIS_HOST"),
		RedisPort:     v.GetInt("REDIS_PORT"),
		RedisScheme:   v.GetString("REDIS_SCHEME"),

		SQLite: SQLiteConfig{
			DSN:   v.GetString("SQLITE_DSN"),
			Token: v.GetString("SQLITE_TOKEN"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:             v.GetString("RABBITMQ_URL"),
			Exchange:        v.GetString("RABBITMQ_EXCHANGE"),
			Queue:           v.GetString("RABBITMQ_QUEUE"),
			RoutingKey:      v.GetString("RABBITMQ_ROUTING_KEY"),
			Prefetch:        v.GetInt("RABBITMQ_PREFETCH"),
			DeclareTopology: v.GetBool("RABBITMQ_DECLARE_TOPOLOGY"),
		},
		SMTP: SMTPConfig{
			Host:   v.GetString("SMTP_HOST"),
			Port:   v.GetInt("SMTP_PORT"),
			From:   v.GetString("SMTP_FROM"),
			Login:  v.GetString("SMTP_LOGIN"),
			Secret: v.GetString("SMTP_SECRET"),
		},
		Telegram: TelegramConfig{
			Token:  v.GetString("TELEGRAM_TOKEN"),
			APIURL: v.GetString("TELEGRAM_API_URL"),
		},
		Dispatch: DispatchConfig{
			Workers:     v.GetInt("DISPATCH_WORKERS"),
			SendTimeout: v.GetDuration("DISPATCH_SEND_TIMEOUT"),
			RatePerSec:  v.GetInt("DISPATCH_RATE_PER_SEC"),
		},
		Policy: PolicyConfig{
			MonthMode: strings.ToLower(strings.TrimSpace(v.GetString("POLICY_MONTH_MODE"))),
			Store:     strings.ToLower(strings.TrimSpace(v.GetString("POLICY_STORE"))),
		},
		Inngest: InngestConfig{
			AppID:      v.GetString("INNGEST_APP_ID"),
			Dev:        v.GetString("INNGEST_DEV"),
			SigningKey: v.GetString("INNGEST_SIGNING_KEY"),
			ServeHost:  v.GetString("INNGEST_SERVE_HOST"),
			ServePath:  v.GetString("INNGEST_SERVE_PATH"),
		},
	}

	var errs []error
	checkPort := func(name string, port int) {
		if port <= 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("invalid %s %d", name, port))
		}
	}
	checkPort("APP_PORT", cfg.AppPort)
	checkPort("DB_PORT", cfg.DBPort)
	checkPort("REDIS_PORT", cfg.RedisPort)
	checkPort("SMTP_PORT", cfg.SMTP.Port)

	if cfg.Dispatch.Workers <= 0 {
		errs = append(errs, fmt.Errorf("invalid DISPATCH_WORKERS %d", cfg.Dispatch.Workers))
	}
	if cfg.Dispatch.SendTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid DISPATCH_SEND_TIMEOUT %s", cfg.Dispatch.SendTimeout))
	}
	switch cfg.Policy.MonthMode {
	case "fixed", "calendar":
	default:
		errs = append(errs, fmt.Errorf("invalid POLICY_MONTH_MODE %q (want fixed|calendar)", cfg.Policy.MonthMode))
	}
	switch cfg.Policy.Store {
	case StoreMemory, StoreRedis, StorePostgres, StoreSQLite:
	default:
		errs = append(errs, fmt.Errorf("invalid POLICY_STORE %q (want memory|redis|postgres|sqlite)", cfg.Policy.Store))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return cfg, nil
}
