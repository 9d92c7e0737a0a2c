package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"parsera-notifier/config"
)

// NewRedis returns a nil client when REDIS_HOST is unset; consumers must
// treat that as "backend not configured".
func NewRedis(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger) (*redis.Client, error) {
	if strings.TrimSpace(cfg.RedisHost) == "" {
		log.Infow("redis_disabled", "reason", "missing REDIS_HOST")
		return nil, nil
	}

	client := redis.NewClient(Options(cfg))
	addr := client.Options().Addr

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				_ = client.Close()
				return fmt.Errorf("redis ping failed: %w", err)
			}
			log.Infow("redis_connected", "addr", addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := client.Close(); err != nil {
				log.Warnw("redis_close_failed", "err", err)
			}
			return nil
		},
	})

	return client, nil
}

// Options keeps command timeouts short: the cadence CAS sits on the
// delivery path of every notification.
func Options(cfg *config.Config) *redis.Options {
	opts := &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Username:     strings.TrimSpace(cfg.RedisUser),
		Password:     cfg.RedisPassword,
		ClientName:   strings.TrimSpace(cfg.AppName),
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	}
	if strings.EqualFold(strings.TrimSpace(cfg.RedisScheme), "rediss") {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: cfg.RedisHost}
	}
	return opts
}
