package logging

import (
	"log/slog"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestInit_Defaults(t *testing.T) {
	if err := Init(nil); err != nil {
		t.Fatalf("Init(nil) error: %v", err)
	}
	if Logger() == nil {
		t.Fatal("Logger() returned nil after Init")
	}
}

func TestInit_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accadmin.log")
	cfg := &Config{Level: "debug", Format: "json", Output: path}

	if err := Init(cfg); err != nil {
		t.Fatalf("Init with file output error: %v", err)
	}

	Info("test entry", slog.String("k", "v"))
}

func TestWithComponent(t *testing.T) {
	logger := WithComponent("bulk.executor")
	if logger == nil {
		t.Fatal("WithComponent returned nil")
	}
}
