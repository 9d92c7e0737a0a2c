package logs

import (
	"context"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"parsera-notifier/config"
)

// NewLogger writes JSON to stderr, or a colored console format in development.
// stdout stays free for CLI output.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg == nil {
		return zcfg.Build()
	}
	zcfg.Level = zap.NewAtomicLevelAt(levelFromString(cfg.LogLevel))
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	zcfg.InitialFields = map[string]any{"app": cfg.AppName, "env": string(cfg.ENV)}

	if cfg.ENV == config.Dev {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zcfg.Sampling = nil
	}

	return zcfg.Build()
}

func NewSugaredLogger(l *zap.Logger) *zap.SugaredLogger {
	return l.Sugar()
}

func RegisterLifecycle(lc fx.Lifecycle, l *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = l.Sync()
			return nil
		},
	})
}

func levelFromString(raw string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
