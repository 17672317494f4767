package preflight

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rekordbox.xml")
	if err := os.WriteFile(path, []byte("<DJ_PLAYLISTS/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckCatalog_OK(t *testing.T) {
	result := CheckCatalog(writeCatalog(t))
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckCatalog_NotExist(t *testing.T) {
	result := CheckCatalog(filepath.Join(t.TempDir(), "nope.xml"))
	if result.Passed {
		t.Fatal("expected failure for missing catalog")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckCatalog_Directory(t *testing.T) {
	if result := CheckCatalog(t.TempDir()); result.Passed {
		t.Fatal("expected failure for directory")
	}
}

func TestCheckRoot_OK(t *testing.T) {
	if result := CheckRoot(t.TempDir()); !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckRoot_NotDir(t *testing.T) {
	if result := CheckRoot(writeCatalog(t)); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckRoot_NotExist(t *testing.T) {
	if result := CheckRoot(filepath.Join(t.TempDir(), "gone")); result.Passed {
		t.Fatal("expected failure for missing dir")
	}
}

func TestRunAll(t *testing.T) {
	catalog := writeCatalog(t)
	root := t.TempDir()

	results := RunAll(Options{Catalog: catalog, Root: root})
	if len(results) != 2 || len(Failed(results)) != 0 {
		t.Fatalf("dry run checks = %+v", results)
	}

	results = RunAll(Options{Catalog: catalog, Root: filepath.Join(root, "missing"), Write: true})
	if len(results) != 3 {
		t.Fatalf("expected writable check, got %+v", results)
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Search root" {
		t.Fatalf("failed = %+v", failed)
	}
}
