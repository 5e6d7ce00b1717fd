// Package log provides the service-wide structured logging interface and its
// zap-backed implementation, with optional file rotation via lumberjack.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level names, mirrored as plain strings so callers don't need to import zap.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
	FatalLevel = "fatal"
)

// Logger is the logging interface every package in this service depends on,
// rather than on *zap.Logger directly, so tests can substitute a no-op or
// observed logger.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Warn(msg string)
	Warnf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
	Fatal(msg string)
	Fatalf(format string, args ...interface{})
	With(args ...interface{}) Logger
	Sync() error
}

// Config controls how New builds the zap core.
type Config struct {
	// Level is one of Debug/Info/Warn/Error/FatalLevel.
	Level string
	// FilePath is a file path, "stdout", or "stderr". Empty means "stdout".
	FilePath string
	// Encoding selects "json" or "console".
	Encoding string
	// EnableCaller adds the call site to each entry.
	EnableCaller bool
	// EnableStacktrace adds a stack trace to Error-and-above entries.
	EnableStacktrace bool
	// MaxSizeMB, MaxBackups, MaxAgeDays, Compress control lumberjack rotation
	// when FilePath is an actual file rather than stdout/stderr.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultConfig returns sane defaults for local development: info level,
// console encoding to stdout.
func DefaultConfig() Config {
	return Config{
		Level:      InfoLevel,
		FilePath:   "stdout",
		Encoding:   "console",
		MaxSizeMB:  100,
		MaxBackups: 7,
		MaxAgeDays: 30,
		Compress:   true,
	}
}

type logger struct {
	zapLogger *zap.Logger
	sugar     *zap.SugaredLogger
}

func zapLevel(level string) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoder(cfg Config) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Encoding == "console" {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encCfg)
	}
	encCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return zapcore.NewJSONEncoder(encCfg)
}

func writer(cfg Config) (zapcore.WriteSyncer, error) {
	// stdout and stderr are unbuffered, and fsync on a pipe or terminal fails,
	// so they are wrapped as plain writers whose Sync is a no-op.
	switch cfg.FilePath {
	case "", "stdout":
		return zapcore.AddSync(struct{ io.Writer }{os.Stdout}), nil
	case "stderr":
		return zapcore.AddSync(struct{ io.Writer }{os.Stderr}), nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o700); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}), nil
	}
}

// New builds a Logger from cfg.
func New(cfg Config) (Logger, error) {
	out, err := writer(cfg)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder(cfg), out, zap.NewAtomicLevelAt(zapLevel(cfg.Level)))

	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	zapLogger := zap.New(core, opts...)
	return &logger{zapLogger: zapLogger, sugar: zapLogger.Sugar()}, nil
}

func (l *logger) Debug(msg string)                          { l.sugar.Debug(msg) }
func (l *logger) Debugf(format string, args ...interface{})  { l.sugar.Debugf(format, args...) }
func (l *logger) Info(msg string)                            { l.sugar.Info(msg) }
func (l *logger) Infof(format string, args ...interface{})   { l.sugar.Infof(format, args...) }
func (l *logger) Warn(msg string)                            { l.sugar.Warn(msg) }
func (l *logger) Warnf(format string, args ...interface{})   { l.sugar.Warnf(format, args...) }
func (l *logger) Error(msg string)                           { l.sugar.Error(msg) }
func (l *logger) Errorf(format string, args ...interface{})  { l.sugar.Errorf(format, args...) }
func (l *logger) Fatal(msg string)                           { l.sugar.Fatal(msg) }
func (l *logger) Fatalf(format string, args ...interface{})  { l.sugar.Fatalf(format, args...) }

func (l *logger) With(args ...interface{}) Logger {
	return &logger{
		zapLogger: l.zapLogger.With(toZapFields(args...)...),
		sugar:     l.sugar.With(args...),
	}
}

func (l *logger) Sync() error { return l.zapLogger.Sync() }

// ZapLogger exposes the underlying *zap.Logger for the callers (the HTTP
// server and its request-logging middleware) that need it directly.
func ZapLogger(l Logger) *zap.Logger {
	if impl, ok := l.(*logger); ok {
		return impl.zapLogger
	}
	return nil
}

func toZapFields(args ...interface{}) []zap.Field {
	if len(args)%2 != 0 {
		args = args[:len(args)-1]
	}
	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}

// globalMu serializes NewNop calls; the package keeps no default logger.
var globalMu sync.Mutex

// NewNop returns a Logger that discards everything, for tests that need a
// Logger but don't care about its output.
func NewNop() Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	zapLogger := zap.NewNop()
	return &logger{zapLogger: zapLogger, sugar: zapLogger.Sugar()}
}
