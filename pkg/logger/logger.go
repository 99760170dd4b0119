package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"blogapi/pkg/tracing"
)

type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	FatalLevel LogLevel = "fatal"
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Fatal(msg string, fields map[string]interface{})

	WithContext(ctx context.Context) Logger
	InfoContext(ctx context.Context, msg string, fields map[string]interface{})
	WarnContext(ctx context.Context, msg string, fields map[string]interface{})
	ErrorContext(ctx context.Context, msg string, fields map[string]interface{})

	WithFields(fields map[string]interface{}) Logger
}

type ZerologLogger struct {
	logger zerolog.Logger
	fields map[string]interface{}
}

// New builds a JSON logger writing to output (stdout when nil). In the
// development environment the output is human readable instead.
func New(level LogLevel, output io.Writer) Logger {
	if output == nil {
		output = os.Stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339

	writer := output
	if strings.ToLower(os.Getenv("APP_ENV")) == "development" {
		writer = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zl := zerolog.New(writer).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()

	return &ZerologLogger{
		logger: zl,
		fields: make(map[string]interface{}),
	}
}

// Nop discards everything. Handy in tests.
func Nop() Logger {
	return &ZerologLogger{
		logger: zerolog.Nop(),
		fields: make(map[string]interface{}),
	}
}

func ParseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *ZerologLogger) with(extra map[string]interface{}) *ZerologLogger {
	merged := make(map[string]interface{}, len(l.fields)+len(extra))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return &ZerologLogger{logger: l.logger, fields: merged}
}

func (l *ZerologLogger) WithFields(fields map[string]interface{}) Logger {
	return l.with(fields)
}

// WithContext copies trace and request ids found in ctx into the fields.
func (l *ZerologLogger) WithContext(ctx context.Context) Logger {
	extra := make(map[string]interface{}, 2)
	if traceID := tracing.GetTraceID(ctx); traceID != "" {
		extra["trace_id"] = traceID
	}
	if requestID := tracing.GetRequestID(ctx); requestID != "" {
		extra["request_id"] = requestID
	}
	return l.with(extra)
}

func (l *ZerologLogger) emit(event *zerolog.Event, msg string, fields map[string]interface{}) {
	for k, v := range l.fields {
		event = event.Interface(k, v)
	}
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func (l *ZerologLogger) Debug(msg string, fields map[string]interface{}) {
	event := l.logger.Debug()
	if l.logger.GetLevel() == zerolog.DebugLevel {
		if _, file, line, ok := runtime.Caller(1); ok {
			parts := strings.Split(file, "/")
			if len(parts) > 2 {
				file = strings.Join(parts[len(parts)-2:], "/")
			}
			event = event.Str("source", fmt.Sprintf("%s:%d", file, line))
		}
	}
	l.emit(event, msg, fields)
}

func (l *ZerologLogger) Info(msg string, fields map[string]interface{}) {
	l.emit(l.logger.Info(), msg, fields)
}

func (l *ZerologLogger) Warn(msg string, fields map[string]interface{}) {
	l.emit(l.logger.Warn(), msg, fields)
}

func (l *ZerologLogger) Error(msg string, fields map[string]interface{}) {
	l.emit(l.logger.Error(), msg, fields)
}

func (l *ZerologLogger) Fatal(msg string, fields map[string]interface{}) {
	l.emit(l.logger.Fatal(), msg, fields)
}

func (l *ZerologLogger) InfoContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.WithContext(ctx).Info(msg, fields)
}

func (l *ZerologLogger) WarnContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.WithContext(ctx).Warn(msg, fields)
}

func (l *ZerologLogger) ErrorContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.WithContext(ctx).Error(msg, fields)
}
