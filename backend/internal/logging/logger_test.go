package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitialize(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "error")

	if err := Initialize("debug"); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer Sync()

	if GetLogger().Core().Enabled(zapcore.WarnLevel) {
		t.Error("environment level was not applied")
	}
	if Named("test") == nil {
		t.Error("Named() returned nil")
	}
}
