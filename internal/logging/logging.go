package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

type Field struct {
	Key   string
	Value any
}

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Enabled(level Level) bool
	Sync() error
}

type zapLogger struct {
	base  *zap.Logger
	level zap.AtomicLevel
}

func New(out io.Writer, level Level) Logger {
	if out == nil {
		out = os.Stdout
	}
	atom := zap.NewAtomicLevelAt(zapLevel(level))
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(out), atom)
	return &zapLogger{base: zap.New(core), level: atom}
}

// NewFile appends log lines to path, creating parent directories as needed.
func NewFile(path string, level Level) (Logger, io.Closer, error) {
	path = strings.TrimSpace(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return New(file, level), file, nil
}

func Nop() Logger {
	return &zapLogger{base: zap.NewNop(), level: zap.NewAtomicLevelAt(zapcore.ErrorLevel)}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.LowercaseLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.UTC().Format(time.RFC3339Nano))
		},
	}
}

func (l *zapLogger) Enabled(level Level) bool {
	if l == nil {
		return false
	}
	return l.level.Enabled(zapLevel(level))
}

func (l *zapLogger) With(fields ...Field) Logger {
	if l == nil {
		return Nop()
	}
	return &zapLogger{base: l.base.With(zapFields(fields)...), level: l.level}
}

func (l *zapLogger) Sync() error {
	if l == nil {
		return nil
	}
	return l.base.Sync()
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.log(Debug, msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.log(Info, msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.log(Warn, msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.log(Error, msg, fields...) }

func (l *zapLogger) log(level Level, msg string, fields ...Field) {
	if l == nil || !l.Enabled(level) {
		return
	}
	if ce := l.base.Check(zapLevel(level), msg); ce != nil {
		ce.Write(zapFields(fields)...)
	}
}

func zapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if err, ok := field.Value.(error); ok {
			out = append(out, zap.NamedError(field.Key, err))
			continue
		}
		out = append(out, zap.Any(field.Key, field.Value))
	}
	return out
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case Debug:
		return zapcore.DebugLevel
	case Warn:
		return zapcore.WarnLevel
	case Error:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}
