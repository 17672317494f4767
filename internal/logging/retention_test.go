package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "relocator-20200101T000000Z.log")
	current := filepath.Join(dir, "relocator-20200102T000000Z.log")
	recent := filepath.Join(dir, "relocator-20991231T000000Z.log")
	unrelated := filepath.Join(dir, "notes.txt")

	for _, path := range []string{old, current, recent, unrelated} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	stale := time.Now().AddDate(0, 0, -90)
	for _, path := range []string{old, current, unrelated} {
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatal(err)
		}
	}

	removed := CleanupOldLogs(NewNop(), 30, dir, current)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed", old)
	}
	for _, path := range []string{current, recent, unrelated} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	if got := CleanupOldLogs(nil, 0, t.TempDir(), ""); got != 0 {
		t.Fatalf("expected no pruning when retention is 0, got %d", got)
	}
}
