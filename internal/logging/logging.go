package logging

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields carries structured key/value pairs attached to a log entry.
type Fields map[string]interface{}

var base = newBaseLogger(os.Getenv("LOG_LEVEL"))

// Logger is a named structured logger backed by zap.
type Logger struct {
	zl *zap.Logger
}

// NewLogger creates a logger tagged with the given component name.
func NewLogger(component string) *Logger {
	return &Logger{zl: base.With(zap.String("component", component))}
}

// NewFromZap wraps an existing zap logger, e.g. one built by zaptest.
func NewFromZap(zl *zap.Logger, component string) *Logger {
	return &Logger{zl: zl.With(zap.String("component", component))}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

// Base returns the process-wide zap logger.
func Base() *zap.Logger {
	return base
}

// Sync flushes buffered entries of the process-wide logger.
func Sync() {
	_ = Base().Sync()
}

func (l *Logger) Debug(msg string, fields ...Fields) {
	l.zl.Debug(msg, toZapFields(fields)...)
}

func (l *Logger) Info(msg string, fields ...Fields) {
	l.zl.Info(msg, toZapFields(fields)...)
}

func (l *Logger) Warn(msg string, fields ...Fields) {
	l.zl.Warn(msg, toZapFields(fields)...)
}

func (l *Logger) Error(msg string, fields ...Fields) {
	l.zl.Error(msg, toZapFields(fields)...)
}

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, fields ...Fields) {
	l.zl.Fatal(msg, toZapFields(fields)...)
}

// Infof logs a formatted message on the process-wide logger.
func Infof(format string, args ...interface{}) {
	Base().Info(fmt.Sprintf(format, args...))
}

func toZapFields(sets []Fields) []zap.Field {
	if len(sets) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(sets[0]))
	for _, set := range sets {
		keys := make([]string, 0, len(set))
		for k := range set {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch v := set[k].(type) {
			case error:
				out = append(out, zap.NamedError(k, v))
			default:
				out = append(out, zap.Any(k, v))
			}
		}
	}
	return out
}

func newBaseLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return zl
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
