package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger = zap.NewNop()

// Init builds the global zap logger.  In "prod" the JSON production encoder
// is used; anywhere else the colored development encoder keeps local output
// readable.  The level string accepts debug/info/warn/error and falls back
// to info.
func Init(level, env string) error {
	var lvl zapcore.Level
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "info":
		lvl = zapcore.InfoLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	default:
		lvl = zapcore.InfoLevel
	}

	var (
		l   *zap.Logger
		err error
	)
	if env == "prod" {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		l, err = cfg.Build(zap.Fields(
			zap.String("service", "booking-api"),
			zap.String("environment", env),
		))
	} else {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		l, err = cfg.Build(zap.Fields(
			zap.String("service", "booking-api"),
			zap.String("environment", env),
		))
	}
	if err != nil {
		return err
	}
	log = l
	zap.ReplaceGlobals(log)
	return nil
}

// L returns the global logger instance.
func L() *zap.Logger {
	return log
}
