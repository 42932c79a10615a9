// Package log configures the daemon's structured logger: zap in JSON
// production mode, optionally rotated to disk through lumberjack.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel maps a level name ("debug", "info", "warn", "error", or "" for
// the default) to a zap atomic level, for use as a config flag value.
func ParseLevel(s string) (zap.AtomicLevel, error) {
	if s == "" {
		return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zap.AtomicLevel{}, err
	}
	return zap.NewAtomicLevelAt(lvl), nil
}

// CreateLogger builds a sugared logger at the given level. If logFile is
// empty, logs go to stderr in JSON; otherwise they are written through a
// lumberjack-rotated file at the given path.
func CreateLogger(level zap.AtomicLevel, logFile string) *zap.SugaredLogger {
	if logFile == "" {
		cfg := zap.NewProductionConfig()
		cfg.Level = level
		l, err := cfg.Build()
		if err != nil {
			return zap.NewNop().Sugar()
		}
		return l.Sugar()
	}
	return CreateLoggerWithLumberjack(logFile, 100, level.Level())
}

// CreateLoggerWithLumberjack builds a sugared logger that writes JSON lines
// to logFile, rotated once it exceeds maxSizeMB.
func CreateLoggerWithLumberjack(logFile string, maxSizeMB int, level zapcore.Level) *zap.SugaredLogger {
	writer := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    maxSizeMB,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(writer),
		level,
	)
	return zap.New(core).Sugar()
}
