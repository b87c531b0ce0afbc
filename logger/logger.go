package logger

import (
	"github.com/arzbazar/orderbook-bot/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger according to the configured mode and level.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.Mode == config.ModeProduction {
		c := zap.NewProductionConfig()
		c.Level = lvl
		return c.Build()
	}

	c := zap.NewDevelopmentConfig()
	c.Level = lvl
	c.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return c.Build()
}
