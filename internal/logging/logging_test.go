package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{" WARN ", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetup_ConsoleJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := Setup(Options{Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("check-in recorded", zap.Int("current_streak", 3))
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["msg"] != "check-in recorded" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["current_streak"] != float64(3) {
		t.Errorf("current_streak = %v", entry["current_streak"])
	}
}

func TestSetup_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "habitloop.log")
	logger, closeFn, err := Setup(Options{Level: "debug", File: path, Console: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	logger.Warn("reminder tick failed")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "reminder tick failed") {
		t.Errorf("log file missing entry: %q", data)
	}
}

func TestSetup_BadLevel(t *testing.T) {
	if _, _, err := Setup(Options{Level: "verbose"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
