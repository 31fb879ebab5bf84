// Package logging is the engine's debug-gated log facade. It never buffers;
// every accepted entry goes straight to the sink.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bytedance/sonic"
)

// logWriter is where NewLogger writes; tests swap it.
var logWriter io.Writer = os.Stdout

// Level follows the syslog severities platforms usually expose.
type Level string

const (
	LevelDebug     Level = "debug"
	LevelInfo      Level = "info"
	LevelNotice    Level = "notice"
	LevelWarning   Level = "warning"
	LevelError     Level = "error"
	LevelCritical  Level = "critical"
	LevelAlert     Level = "alert"
	LevelEmergency Level = "emergency"
)

// Sink receives log entries. Platform adapters implement it.
type Sink interface {
	Log(ctx context.Context, level Level, message string, fields map[string]any)
}

// Facade forwards entries to a Sink while debug is enabled.
type Facade struct {
	debug bool
	sink  Sink
}

// NewFacade creates a Facade. A nil sink disables logging.
func NewFacade(debug bool, sink Sink) *Facade {
	return &Facade{debug: debug, sink: sink}
}

// Enabled reports whether entries reach the sink.
func (f *Facade) Enabled() bool {
	return f != nil && f.debug && f.sink != nil
}

// Log stringifies message and hands it to the sink.
func (f *Facade) Log(ctx context.Context, level Level, message any, fields map[string]any) {
	if !f.Enabled() {
		return
	}
	f.sink.Log(ctx, level, Stringify(message), fields)
}

func (f *Facade) Debug(ctx context.Context, message any, fields map[string]any) {
	f.Log(ctx, LevelDebug, message, fields)
}

// Stringify renders any message as text: strings as they are, errors and
// Stringers by their own text, anything else as JSON.
func Stringify(message any) string {
	switch v := message.(type) {
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	}
	encoded, err := sonic.ConfigStd.Marshal(message)
	if err != nil {
		return fmt.Sprintf("%#v", message)
	}
	return string(encoded)
}

// SlogSink writes entries to a *slog.Logger.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Log(ctx context.Context, level Level, message string, fields map[string]any) {
	attrs := make([]slog.Attr, 0, len(fields)+1)
	attrs = append(attrs, slog.String("severity", string(level)))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	s.logger.LogAttrs(ctx, SlogLevel(level), message, attrs...)
}

// SlogLevel maps a facade level onto the nearest slog level.
func SlogLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo, LevelNotice:
		return slog.LevelInfo
	case LevelWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// NewLogger builds the service logger: JSON in production, text elsewhere.
func NewLogger(environment, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if environment == "production" {
		handler = slog.NewJSONHandler(logWriter, opts)
	} else {
		handler = slog.NewTextHandler(logWriter, opts)
	}
	return slog.New(handler)
}
