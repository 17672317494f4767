package logs_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"relocator/internal/logs"
)

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, t.TempDir(), "relocator-20260301T120000Z.log", "a\nb\nc\n")

	lines, err := logs.Tail(path, 2)
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}

	all, err := logs.Tail(path, 0)
	if err != nil {
		t.Fatalf("tail all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 lines, got %#v", all)
	}

	short, err := logs.Tail(path, 10)
	if err != nil {
		t.Fatalf("tail short: %v", err)
	}
	if len(short) != 3 || short[0] != "a" {
		t.Fatalf("unexpected lines: %#v", short)
	}
}

func TestLatestAndFindRun(t *testing.T) {
	dir := t.TempDir()
	older := writeLog(t, dir, "relocator-20260301T120000Z.log",
		`{"ts":"2026-03-01T12:00:00Z","level":"info","msg":"relocation started","run_id":"aaaa1111-0000"}`+"\n")
	newer := writeLog(t, dir, "relocator-20260302T120000Z.log",
		`{"ts":"2026-03-02T12:00:00Z","level":"info","msg":"relocation started","run_id":"bbbb2222-0000"}`+"\n")
	writeLog(t, dir, "notes.txt", "ignored\n")

	latest, err := logs.Latest(dir)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest != newer {
		t.Fatalf("Latest = %s, want %s", latest, newer)
	}

	found, err := logs.FindRun(dir, "aaaa1111")
	if err != nil {
		t.Fatalf("FindRun: %v", err)
	}
	if found != older {
		t.Fatalf("FindRun = %s, want %s", found, older)
	}

	if _, err := logs.FindRun(dir, "cccc"); !errors.Is(err, logs.ErrNoLogs) {
		t.Fatalf("expected ErrNoLogs, got %v", err)
	}
	if _, err := logs.Latest(t.TempDir()); !errors.Is(err, logs.ErrNoLogs) {
		t.Fatalf("expected ErrNoLogs for empty dir, got %v", err)
	}
}

func TestFormat(t *testing.T) {
	line := `{"ts":"2026-03-01T12:00:00Z","level":"warn","msg":"file not found","component":"pipeline","run_id":"x","filename":"a.mp3","source":"pipeline.go:10"}`
	got := logs.Format(line)
	for _, want := range []string{"WARN [pipeline] file not found", "filename=a.mp3"} {
		if !strings.Contains(got, want) {
			t.Fatalf("Format(%q) = %q, missing %q", line, got, want)
		}
	}
	if strings.Contains(got, "source=") || strings.Contains(got, "run_id") {
		t.Fatalf("Format kept internal keys: %q", got)
	}
	if got := logs.Format("plain text"); got != "plain text" {
		t.Fatalf("non-JSON line changed: %q", got)
	}
}
