package logger

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestZapLevel(t *testing.T) {
	if got := zapLevel(slog.LevelDebug); got != zapcore.DebugLevel {
		t.Errorf("debug mapped to %v", got)
	}
	if got := zapLevel(slog.LevelError); got != zapcore.ErrorLevel {
		t.Errorf("error mapped to %v", got)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("LOG_DETAILED", "true")

	config, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv failed: %v", err)
	}
	if config.Level != "DEBUG" || config.Format != "text" || !config.DetailedLogging {
		t.Errorf("unexpected config: %+v", config)
	}
	if config.TracingEnabled {
		t.Error("tracing should default to off")
	}
}

func TestLoadConfigFromEnvInvalidBool(t *testing.T) {
	t.Setenv("LOG_DETAILED", "sometimes")
	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatal("expected error for non-boolean LOG_DETAILED")
	}
}

func TestInitWithConfigConsole(t *testing.T) {
	t.Cleanup(func() {
		_ = InitWithConfig(LogConfig{Level: "INFO", Format: "json"})
	})

	if err := InitWithConfig(LogConfig{Level: "DEBUG", Format: "console", DetailedLogging: true}); err != nil {
		t.Fatalf("InitWithConfig failed: %v", err)
	}
	if consoleLogger == nil {
		t.Fatal("console format should install the zap backend")
	}
	if !IsDebugEnabled() {
		t.Error("detailed logging should enable debug")
	}

	if err := InitWithConfig(LogConfig{Level: "INFO", Format: "json"}); err != nil {
		t.Fatalf("InitWithConfig failed: %v", err)
	}
	if consoleLogger != nil {
		t.Error("json format should drop the zap backend")
	}
}

func TestOperationTimerWithoutTracing(t *testing.T) {
	ctx := context.Background()
	op := StartOperation(ctx, "test.op", "code", "BBCA", "items", 3)
	if op.GetContext() == nil {
		t.Fatal("operation context should not be nil")
	}
	op.End("status", "ok")

	op = StartOperation(ctx, "test.op")
	op.EndWithError(errors.New("boom"))
}
