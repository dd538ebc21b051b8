package logging

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/wailsapp/wails/v2/pkg/logger"
)

func TestWailsLogger_RoutesIntoSlog(t *testing.T) {
	buf := captureDefault(t, LevelTrace)
	l := NewWailsLogger()

	l.Trace("trace line")
	l.Debug("debug line")
	l.Info("info line")
	l.Print("print line")
	l.Warning("warning line")
	l.Error("error line")
	l.Fatal("fatal line")

	output := buf.String()
	for _, want := range []string{"trace line", "debug line", "info line", "print line", "warning line", "error line", "fatal=true", "component=webview"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}
}

func TestWailsLogger_RespectsLevel(t *testing.T) {
	buf := captureDefault(t, slog.LevelWarn)
	l := NewWailsLogger()

	l.Info("hidden")
	l.Warning("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warning line should pass at warn level")
	}
}

func TestWailsLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"trace":   logger.TRACE,
		"debug":   logger.DEBUG,
		"info":    logger.INFO,
		"":        logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"error":   logger.ERROR,
	}
	for in, want := range tests {
		if got := WailsLevel(in); got != want {
			t.Errorf("WailsLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
