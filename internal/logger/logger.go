// Package logger builds the zap loggers used by the server, the worker and
// taskctl, and sanitizes user-supplied values before they are logged.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for log files written by WithRotatingFile
const (
	maxLogFileMB      = 100
	maxLogFileAgeDays = 7
	maxLogFileBackups = 5
)

func level(debugMode bool) zap.AtomicLevel {
	if debugMode {
		return zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zap.NewAtomicLevelAt(zapcore.InfoLevel)
}

// NewProductionLogger creates a JSON logger whose entries carry the
// service name, so server and worker logs can share a sink.
func NewProductionLogger(service string, debugMode bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = level(debugMode)
	config.Encoding = "json"
	config.EncoderConfig = jsonEncoderConfig()
	// Stack traces from error level up
	config.DisableStacktrace = false
	if service != "" {
		config.InitialFields = map[string]any{"service": service}
	}
	return config.Build()
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// WithRotatingFile tees base into a size-rotated JSON file at path. The
// returned func closes the file. An empty path returns base unchanged.
func WithRotatingFile(base *zap.Logger, path, service string, debugMode bool) (*zap.Logger, func() error) {
	if path == "" {
		return base, func() error { return nil }
	}
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxLogFileMB,
		MaxAge:     maxLogFileAgeDays,
		MaxBackups: maxLogFileBackups,
		Compress:   true,
	}
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(jsonEncoderConfig()), zapcore.AddSync(file), level(debugMode))
	if service != "" {
		fileCore = fileCore.With([]zapcore.Field{zap.String("service", service)})
	}
	teed := base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	}))
	return teed, file.Close
}

// NewDevelopmentLogger creates a console logger for interactive use.
// Only warnings go to stderr unless debugMode is set, so CLI output stays readable.
func NewDevelopmentLogger(debugMode bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if debugMode {
		config.Level = level(true)
	}
	config.DisableStacktrace = !debugMode
	return config.Build()
}

// Sync flushes buffered entries. Safe to call on a nil logger.
func Sync(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	return logger.Sync()
}
