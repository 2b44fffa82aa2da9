package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewEmitsJSONWithServiceAttr(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "deployctl", slog.LevelInfo).Info("started", "verb", "init")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if record["service"] != "deployctl" {
		t.Fatalf("expected service attr, got %v", record["service"])
	}
	if record["verb"] != "init" {
		t.Fatalf("expected verb attr, got %v", record["verb"])
	}
}

func TestNewTextEmitsSingleLine(t *testing.T) {
	var buf bytes.Buffer
	NewText(&buf, slog.LevelInfo).Info("started")

	line := buf.String()
	if strings.Count(line, "\n") != 1 {
		t.Fatalf("expected one line, got %q", line)
	}
	if !strings.Contains(line, "msg=started") {
		t.Fatalf("expected text format, got %q", line)
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "deployctl", slog.LevelInfo).Debug("noise")
	if buf.Len() != 0 {
		t.Fatalf("expected debug suppressed at info level, got %q", buf.String())
	}
}
