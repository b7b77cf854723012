package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("queue refreshed", FieldProblemID, "1000")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["level"] != "info" || entry["msg"] != "queue refreshed" || entry[FieldProblemID] != "1000" {
		t.Fatalf("entry = %v, want info line with problem_id", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("entry missing ts: %v", entry)
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bojq.log")
	logger, closer, err := New(Options{Level: "debug", Format: "text", OutputPaths: []string{path, path}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("debug line")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if strings.Count(text, "debug line") != 1 {
		t.Fatalf("log file = %q, want a single debug line", text)
	}
	if !strings.Contains(text, ".go:") {
		t.Fatalf("debug logs should include source, got %q", text)
	}
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	if _, _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatalf("New accepted unknown format")
	}
	if ValidFormat("xml") || !ValidFormat("JSON") {
		t.Fatalf("ValidFormat mismatch")
	}
}

func TestWithContext_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	id := NewRequestID()
	ctx := WithRequestID(context.Background(), id)
	WithContext(ctx, logger).Info("dispatch")

	if !strings.Contains(buf.String(), `"request_id":"`+id+`"`) {
		t.Fatalf("log = %q, want request_id %s", buf.String(), id)
	}
	if got, ok := RequestIDFromContext(context.Background()); ok || got != "" {
		t.Fatalf("empty context yielded request id %q", got)
	}
}
