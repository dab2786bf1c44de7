// Package logger wraps a process-wide zap logger.
package logger

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var (
	globalLogger *zap.Logger
	wrapLogger   *zap.Logger // skips the package-level helpers
	sugarLogger  *zap.SugaredLogger
	atomicLevel  = zap.NewAtomicLevel()
)

// Config selects the level and encoding of the global logger.
type Config struct {
	Level       string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format      string `yaml:"format" json:"format"` // json, console
	ServiceName string `yaml:"service_name" json:"service_name"`
}

// Init builds the global logger. Unknown levels fall back to info.
func Init(cfg *Config) error {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}
	atomicLevel.SetLevel(level)

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), atomicLevel)

	fields := []zap.Field{}
	if cfg.ServiceName != "" {
		fields = append(fields, zap.String("service", cfg.ServiceName))
	}
	install(core, fields...)
	return nil
}

func install(core zapcore.Core, fields ...zap.Field) {
	globalLogger = zap.New(core, zap.AddCaller(), zap.Fields(fields...))
	wrapLogger = globalLogger.WithOptions(zap.AddCallerSkip(1))
	sugarLogger = globalLogger.Sugar()
}

// SetLevel changes the level at runtime; invalid levels are ignored.
func SetLevel(levelStr string) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		return
	}
	atomicLevel.SetLevel(level)
}

// L returns the global logger, a no-op logger before Init.
func L() *zap.Logger {
	if globalLogger == nil {
		return zap.NewNop()
	}
	return globalLogger
}

func S() *zap.SugaredLogger {
	if sugarLogger == nil {
		return L().Sugar()
	}
	return sugarLogger
}

// NewContext stores a logger enriched with fields in ctx.
func NewContext(ctx context.Context, fields ...zap.Field) context.Context {
	return context.WithValue(ctx, ctxKey{}, WithContext(ctx).With(fields...))
}

// WithContext returns the logger stored in ctx, or the global one.
func WithContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return L()
	}
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return L()
}

func wrapped() *zap.Logger {
	if wrapLogger == nil {
		return zap.NewNop()
	}
	return wrapLogger
}

func Debug(msg string, fields ...zap.Field) {
	wrapped().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	wrapped().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	wrapped().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	wrapped().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	wrapped().Fatal(msg, fields...)
}

// Sync flushes buffered entries.
func Sync() error {
	return L().Sync()
}
