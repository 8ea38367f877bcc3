package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filingdesk/internal/config"
	"filingdesk/internal/logging"
	"filingdesk/internal/services"
)

func TestNewFromConfigFileOnly(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, true)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("console started")

	content, err := os.ReadFile(cfg.LogPath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "console started") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerWritesPlainTextToFiles(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("frame captured", logging.String(logging.FieldCaptureID, "abc"))
	logger.Debug("hidden")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if strings.Contains(text, "\x1b[") {
		t.Fatalf("expected no ANSI colour in file output, got %q", text)
	}
	if !strings.Contains(text, "capture_id=abc") {
		t.Fatalf("expected capture_id attribute, got %q", text)
	}
	if strings.Contains(text, "hidden") {
		t.Fatalf("expected debug line to be filtered at info level, got %q", text)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("backend slow", logging.Int("attempt", 1))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &record); err != nil {
		t.Fatalf("decode json log line: %v", err)
	}
	if record["msg"] != "backend slow" || record["level"] != "warn" {
		t.Fatalf("unexpected record: %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsCaptureAndRequestIDs(t *testing.T) {
	ctx := services.WithCaptureID(context.Background(), "cap-1")
	ctx = services.WithRequestID(ctx, "req-9")

	fields := logging.ContextFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %v", fields)
	}
	if fields[0].Key != logging.FieldCaptureID || fields[0].Value.String() != "cap-1" {
		t.Fatalf("unexpected capture field: %v", fields[0])
	}
	if fields[1].Key != logging.FieldCorrelationID || fields[1].Value.String() != "req-9" {
		t.Fatalf("unexpected correlation field: %v", fields[1])
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "camera lost", "camera_lost")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, key := range []string{`"event_type":"camera_lost"`, `"error_hint"`, `"impact"`} {
		if !strings.Contains(string(content), key) {
			t.Fatalf("expected %s in %q", key, content)
		}
	}
}
