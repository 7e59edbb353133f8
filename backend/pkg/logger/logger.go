package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"plantao/backend/config"
)

const serviceName = "plantao"

// NewLogger builds the process logger. "console" is for local runs, anything
// else yields JSON lines with ISO8601 timestamps for the log collector.
func NewLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("nível de log inválido %q: %w", cfg.Level, err)
	}

	zapCfg := encoderFor(cfg.Format)
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("falha ao inicializar logger: %w", err)
	}
	return logger.With(zap.String("service", serviceName)), nil
}

func encoderFor(format string) zap.Config {
	if format == "console" {
		c := zap.NewDevelopmentConfig()
		c.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return c
	}
	c := zap.NewProductionConfig()
	// audit lines (toggles, confirmations) must not be dropped
	c.Sampling = nil
	return c
}
