package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"relocator/internal/config"
	"relocator/internal/logging"
)

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("batch started", logging.String(logging.FieldComponent, "verify"), logging.Int("filenames", 12))
	logger.Debug("suppressed")

	content := readFile(t, logPath)
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no source information in info logs, got %q", content)
	}
	if !strings.Contains(content, "INFO [verify] – batch started") {
		t.Fatalf("missing header line: %q", content)
	}
	if !strings.Contains(content, "    - filenames: 12") {
		t.Fatalf("missing field line: %q", content)
	}
	if strings.Contains(content, "suppressed") {
		t.Fatalf("debug line leaked at info level: %q", content)
	}
}

func TestConsoleLoggerIncludesSourceForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("walk entry skipped", logging.String("path", "/music/a b"))

	content := readFile(t, logPath)
	if !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected source information in debug logs, got %q", content)
	}
	if !strings.Contains(content, `path: /music/a b`) {
		t.Fatalf("expected path field, got %q", content)
	}
}

func TestJSONLoggerFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("lookup failed", logging.String(logging.FieldFilename, "song.mp3"))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readFile(t, logPath))), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry["level"] != "warn" {
		t.Fatalf("level = %v, want warn", entry["level"])
	}
	if entry["msg"] != "lookup failed" || entry["filename"] != "song.mp3" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesRunLog(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Level = "error"
	started := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

	logger, path, err := logging.NewFromConfig(&cfg, "run-123", started)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if want := filepath.Join(cfg.Paths.LogDir, "relocator-20260301T123000Z.log"); path != want {
		t.Fatalf("log path = %q, want %q", path, want)
	}
	logger.Debug("debug detail", logging.String("k", "v"))

	content := readFile(t, path)
	if !strings.Contains(content, `"msg":"debug detail"`) {
		t.Fatalf("run log should capture debug regardless of console level, got %q", content)
	}
	if !strings.Contains(content, `"run_id":"run-123"`) {
		t.Fatalf("run log missing run id: %q", content)
	}
}

func TestNewFromConfigWithoutLogDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = ""
	logger, path, err := logging.NewFromConfig(&cfg, "", time.Now())
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if logger == nil || path != "" {
		t.Fatalf("expected console-only logger, got path %q", path)
	}
}

func TestNopLogger(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(t.Context(), 100) {
		t.Fatal("noop logger should not be enabled")
	}
	logging.WarnWithContext(logger, "ignored", "noop")
	logging.WarnWithContext(nil, "ignored", "noop")
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
