package util

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// InitLogger initializes the global logger. level is optional ("debug",
// "info", ...); an unparsable level keeps the environment default.
func InitLogger(env, level string) error {
	var err error
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level != "" {
		if lvl, perr := zapcore.ParseLevel(level); perr == nil {
			config.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	logger, err = config.Build(zap.Fields(zap.String("service", "storefront-orders")))
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(logger)
	return nil
}

// GetLogger returns the global logger. Before InitLogger it is zap's
// global logger, a no-op unless replaced.
func GetLogger() *zap.Logger {
	if logger == nil {
		return zap.L()
	}
	return logger
}

// Component returns the global logger tagged with a component name.
func Component(name string) *zap.Logger {
	return GetLogger().With(zap.String("component", name))
}

// SyncLogger flushes any buffered log entries
func SyncLogger() {
	if logger != nil {
		_ = logger.Sync()
	}
}
