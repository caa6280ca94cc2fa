// Package logging provides the ambient structured logger shared across
// the SDK's subsystems, built on go.uber.org/zap. Each subsystem gets
// its own named logger so a caller can raise or silence one area
// without affecting the rest.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu      sync.RWMutex
	base    *zap.Logger
	initted bool
)

// Configure installs the process-wide base logger. Call once at
// start-up; defaults to a production JSON logger if never called.
func Configure(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	initted = true
}

func ensure() *zap.Logger {
	mu.RLock()
	if initted {
		defer mu.RUnlock()
		return base
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if !initted {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
		base = l
		initted = true
	}
	return base
}

// Named returns a subsystem-scoped logger, e.g. logging.Named("user").
func Named(subsystem string) *zap.Logger {
	return ensure().Named(subsystem)
}

// Sync flushes any buffered log entries; call before process exit.
func Sync() error {
	return ensure().Sync()
}

// FromLevelFormat builds a zap.Logger for the given level ("debug",
// "info", "warn", "error") and format ("json" or "console"), writing
// to output ("stdout", "stderr", or a file path). Intended to turn a
// config.LoggingConfig into a logger at process start-up.
func FromLevelFormat(level, format, output string) (*zap.Logger, error) {
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zapLevel
	cfg.OutputPaths = []string{output}
	if format == "console" {
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	return cfg.Build()
}
