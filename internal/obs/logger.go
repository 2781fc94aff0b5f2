// Package obs holds observability plumbing shared by the whole binary.
package obs

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. An unparsable level falls back to info.
func NewLogger(level string, pretty bool) (*zap.Logger, error) {
	var cfg zap.Config
	if pretty {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	lvl := new(zapcore.Level)
	if err := lvl.Set(level); err != nil {
		*lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(*lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build(zap.Fields(zap.String("service", "wb-order-monitor")))
}
