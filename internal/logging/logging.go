// Package logging builds the zap loggers used by the server and CLI.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger construction.
type Config struct {
	Format string // "json" or "console"
	Level  string // debug, info, warn, error
}

// ConfigFromEnv reads LOG_FORMAT (default console) and LOG_LEVEL (default info).
func ConfigFromEnv() Config {
	cfg := Config{
		Format: strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT"))),
		Level:  strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
	}
	if cfg.Format == "" {
		cfg.Format = "console"
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	return cfg
}

// New builds a sugared logger. JSON output uses zap's production encoder; console
// output is human-readable and writes to stdout.
func New(cfg Config) (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	switch cfg.Format {
	case "json":
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(level)
		zc.OutputPaths = []string{"stdout"}
		zc.ErrorOutputPaths = []string{"stderr"}
		logger, err := zc.Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build json logger: %w", err)
		}
		return logger.Sugar(), nil
	case "console", "":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stdout), level)
		return zap.New(core).Sugar(), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want json or console)", cfg.Format)
	}
}

// Nop returns a logger that discards everything. Services fall back to it when no
// logger is injected.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return Nop()
	}
	return l
}
