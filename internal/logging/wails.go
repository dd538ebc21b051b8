package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/logger"
)

// WailsLogger routes the web view runtime's own log lines into slog.
type WailsLogger struct {
	log func() *slog.Logger
}

var _ logger.Logger = (*WailsLogger)(nil)

// NewWailsLogger returns a logger.Logger backed by the process logger.
func NewWailsLogger() *WailsLogger {
	return &WailsLogger{log: func() *slog.Logger { return WithComponent("webview") }}
}

func (w *WailsLogger) Print(message string)   { w.log().Info(message) }
func (w *WailsLogger) Trace(message string)   { w.log().Log(context.Background(), LevelTrace, message) }
func (w *WailsLogger) Debug(message string)   { w.log().Debug(message) }
func (w *WailsLogger) Info(message string)    { w.log().Info(message) }
func (w *WailsLogger) Warning(message string) { w.log().Warn(message) }
func (w *WailsLogger) Error(message string)   { w.log().Error(message) }

// Fatal logs at error level. Terminating the process is left to the runtime.
func (w *WailsLogger) Fatal(message string) { w.log().Error(message, "fatal", true) }

// LevelTrace sits below slog.LevelDebug for the runtime's trace output.
const LevelTrace = slog.LevelDebug - 4

// WailsLevel maps a logging level name onto the runtime's log level.
func WailsLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "trace":
		return logger.TRACE
	case "debug":
		return logger.DEBUG
	case "warn", "warning":
		return logger.WARNING
	case "error":
		return logger.ERROR
	default:
		return logger.INFO
	}
}
