package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger configured with datetime, caller information,
// and splits output to stdout and stderr based on error level.
var Logger *zap.Logger

func init() {
	Logger = newLogger(zapcore.InfoLevel, false)
}

// New returns a logger at the given level ("debug", "info", "warn", "error"). Development
// loggers use the console encoder instead of JSON.
func New(level string, development bool) (*zap.Logger, error) {
	var lvl zapcore.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
	}
	return newLogger(lvl, development), nil
}

// OrDefault returns l, or the package Logger if l is nil.
func OrDefault(l *zap.Logger) *zap.Logger {
	if l == nil {
		return Logger
	}
	return l
}

func newLogger(min zapcore.Level, development bool) *zap.Logger {
	isErrorLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel && lvl >= min
	})
	isInfoLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl < zapcore.ErrorLevel && lvl >= min
	})
	stdoutWriter := zapcore.Lock(os.Stdout)
	stderrWriter := zapcore.Lock(os.Stderr)

	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.RFC3339TimeEncoder
	encoder := zapcore.NewJSONEncoder(config)
	if development {
		config.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(config)
	}

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, stderrWriter, isErrorLevel),
		zapcore.NewCore(encoder, stdoutWriter, isInfoLevel),
	)
	return zap.New(core, zap.AddCaller())
}
