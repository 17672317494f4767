package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFileMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "rekordbox.xml")
	dst := filepath.Join(dir, "rekordbox.xml.backup")

	if err := os.WriteFile(src, []byte("<DJ_PLAYLISTS/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("stale backup that is longer"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileMode(src, dst, 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "<DJ_PLAYLISTS/>" {
		t.Fatalf("content mismatch: got %q", got)
	}
}

func TestCopyFileModeMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFileMode(filepath.Join(dir, "nope"), filepath.Join(dir, "dst"), 0o644); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestAtomicWriteReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.xml")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := AtomicWrite(path, []byte("new content"), 0o640); err != nil {
		t.Fatalf("AtomicWrite: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new content" {
		t.Fatalf("content = %q", got)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Fatalf("mode = %o, want 640", info.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestAtomicWriteMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "catalog.xml")
	if err := AtomicWrite(path, []byte("x"), 0o644); err == nil {
		t.Fatal("expected error when the directory does not exist")
	}
}
