package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	encodingConsole = "console"
	encodingJSON    = "json"
)

// New builds the process logger. Logs go to stderr so that command output on
// stdout stays machine-readable. fields are attached to every entry.
func New(json bool, debug bool, fields ...zap.Field) (*zap.Logger, error) {
	cfg := zap.Config{
		Encoding:         encodingConsole,
		Level:            zap.NewAtomicLevelAt(zapcore.InfoLevel),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    encoderConfig(json),
	}

	if json {
		cfg.Encoding = encodingJSON
	}

	if debug {
		cfg.Level.SetLevel(zapcore.DebugLevel)
		cfg.EncoderConfig.StacktraceKey = "stacktrace"
	} else {
		cfg.DisableStacktrace = true
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	return logger.With(fields...), nil
}

func encoderConfig(json bool) zapcore.EncoderConfig {
	level := zapcore.CapitalColorLevelEncoder
	if json {
		level = zapcore.LowercaseLevelEncoder
	}

	return zapcore.EncoderConfig{
		MessageKey: "step",

		LevelKey:    "level",
		EncodeLevel: level,

		TimeKey:    "time",
		EncodeTime: zapcore.RFC3339TimeEncoder,

		CallerKey:    "caller",
		EncodeCaller: zapcore.ShortCallerEncoder,

		NameKey:        "logger",
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}
