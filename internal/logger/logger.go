// Package logger builds the service's zap logger and carries request-scoped loggers in contexts.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every log line.
const ServiceName = "knowledgehub"

// Options tune the logger beyond the environment defaults.
type Options struct {
	// Level overrides the environment default: debug, info, warn or error.
	Level string
	// Version is the build version stamped on every line; empty omits it.
	Version string
}

// NewLogger builds a logger for env. prod writes sampled JSON; local, dev and
// docker write colored console output at debug level.
func NewLogger(env string, opts Options) (*zap.Logger, error) {
	cfg, err := baseConfig(env)
	if err != nil {
		return nil, err
	}

	if opts.Level != "" {
		level, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	cfg.InitialFields = map[string]any{"service": ServiceName, "env": env}
	if opts.Version != "" {
		cfg.InitialFields["version"] = opts.Version
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

func baseConfig(env string) (zap.Config, error) {
	switch env {
	case "prod":
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg, nil
	case "local", "dev", "docker":
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg, nil
	default:
		return zap.Config{}, fmt.Errorf("unknown environment %q for logger", env)
	}
}
