package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_FileWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "studify.log")
	logger, closer, err := New(Options{Level: "warn", File: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info().Msg("dropped")
	logger.Warn().Str("op", "end").Msg("kept")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %s", len(lines), data)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if entry["message"] != "kept" || entry["op"] != "end" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_ConsoleIsVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Level: "error", Console: true, Stderr: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Debug().Msg("state transition")
	if !strings.Contains(buf.String(), "state transition") {
		t.Errorf("console output = %q", buf.String())
	}
}

func TestNew_NoOutputs(t *testing.T) {
	logger, closer, err := New(Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if logger.GetLevel() != zerolog.Disabled {
		t.Errorf("level = %v, want disabled", logger.GetLevel())
	}
	if err := closer.Close(); err != nil {
		t.Error(err)
	}
}
