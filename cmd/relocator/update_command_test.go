package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"relocator/internal/location"
	"relocator/internal/testsupport"
)

func TestUpdateRewritesCatalogAndKeepsBackup(t *testing.T) {
	env := setupCLITestEnv(t)
	original := readFile(t, env.catalog)

	out, _, err := runCLI(t, []string{"update", env.catalog, env.root}, env.configPath)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	requireContains(t, out, "✓ Updated: song.mp3 (found in root)")
	requireContains(t, out, "✓ Updated: deep.flac (found in Albums)")
	requireContains(t, out, "✗ Error: File not found: "+filepath.Join(env.root, "gone.wav"))
	requireContains(t, out, "Catalog updated")
	requireContains(t, out, "Backup: "+env.catalog+".backup")

	updated := readFile(t, env.catalog)
	requireContains(t, updated, `Location="`+location.Encode(env.root, "song.mp3")+`"`)
	requireContains(t, updated, `Location="`+location.Encode(env.root, "deep.flac")+`"`)
	requireContains(t, updated, `Location="`+testsupport.OldLocation("gone.wav")+`"`)

	if backup := readFile(t, env.catalog+".backup"); backup != original {
		t.Fatalf("backup differs from original catalog")
	}
}

func TestUpdatePointToMatch(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutBackup())

	if _, _, err := runCLI(t, []string{"update", "--point-to-match", "--quiet", env.catalog, env.root}, env.configPath); err != nil {
		t.Fatalf("update: %v", err)
	}
	updated := readFile(t, env.catalog)
	requireContains(t, updated, `Location="`+location.Encode(filepath.Join(env.root, "Albums"), "deep.flac")+`"`)
	if _, err := os.Stat(env.catalog + ".backup"); !os.IsNotExist(err) {
		t.Fatalf("expected no backup with backup disabled, stat err=%v", err)
	}
}

func TestUpdateDryRunLeavesCatalogUntouched(t *testing.T) {
	env := setupCLITestEnv(t)
	original := readFile(t, env.catalog)

	out, _, err := runCLI(t, []string{"update", "--dry-run", "--sequential", env.catalog, env.root}, env.configPath)
	if err != nil {
		t.Fatalf("update --dry-run: %v", err)
	}
	requireContains(t, out, "Re-run without --dry-run")
	requireNotContains(t, out, "Catalog updated")

	if got := readFile(t, env.catalog); got != original {
		t.Fatalf("dry run modified the catalog")
	}
	if _, err := os.Stat(env.catalog + ".backup"); !os.IsNotExist(err) {
		t.Fatalf("dry run created a backup, stat err=%v", err)
	}
}

func TestUpdateJSONReport(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"update", "--json", "--dry-run", "--workers", "2", env.catalog, env.root}, env.configPath)
	if err != nil {
		t.Fatalf("update --json: %v", err)
	}
	var report reportJSON
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Status != "dry_run" || !report.DryRun || report.Written {
		t.Fatalf("unexpected report header: %+v", report)
	}
	if report.Summary.Total != 3 || report.Summary.Relocated != 2 || report.Summary.Missing != 1 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}
	if report.Workers != 2 {
		t.Fatalf("expected 2 workers, got %d", report.Workers)
	}
	if len(report.Results) != 3 || report.Results[2].Kind != "missing" {
		t.Fatalf("unexpected results: %+v", report.Results)
	}
}

func TestUpdateRejectsBadFlags(t *testing.T) {
	env := setupCLITestEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "workers too low", args: []string{"update", "--workers", "0", env.catalog, env.root}},
		{name: "workers too high", args: []string{"update", "--workers", "65", env.catalog, env.root}},
		{name: "timeout", args: []string{"update", "--timeout", "0", env.catalog, env.root}},
		{name: "missing args", args: []string{"update", env.catalog}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := runCLI(t, tt.args, env.configPath); err == nil {
				t.Fatalf("expected error for %v", tt.args)
			}
		})
	}
}

func TestUpdateMissingRootFailsPreflight(t *testing.T) {
	env := setupCLITestEnv(t)
	original := readFile(t, env.catalog)

	_, stderr, err := runCLI(t, []string{"update", env.catalog, filepath.Join(env.baseDir, "nope")}, env.configPath)
	if err == nil {
		t.Fatal("expected preflight error")
	}
	requireContains(t, err.Error(), "preflight failed")
	requireContains(t, stderr, "Hint:")
	if got := readFile(t, env.catalog); got != original {
		t.Fatalf("failed run modified the catalog")
	}
}

func TestHistoryListsRuns(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	if _, _, err := runCLI(t, []string{"update", "--dry-run", "--quiet", env.catalog, env.root}, env.configPath); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, _, err := runCLI(t, []string{"update", "--quiet", env.catalog, env.root}, env.configPath); err != nil {
		t.Fatalf("update: %v", err)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "completed")
	requireContains(t, out, "dry_run")

	out, _, err = runCLI(t, []string{"history", "--json", "--limit", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var runs []runJSON
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs: %v\n%s", err, out)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run with --limit 1, got %d", len(runs))
	}
	if runs[0].Relocated != 2 || runs[0].Missing != 1 || runs[0].Catalog != env.catalog {
		t.Fatalf("unexpected run: %+v", runs[0])
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.History.Enabled = false
	testsupport.WriteConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err == nil {
		t.Fatal("expected error when history is disabled")
	}
	requireContains(t, err.Error(), "history is disabled")
}

func TestLogsShowsLatestRun(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"logs"}, env.configPath); err == nil {
		t.Fatal("expected error before any run")
	}

	if _, _, err := runCLI(t, []string{"update", "--dry-run", "--quiet", env.catalog, env.root}, env.configPath); err != nil {
		t.Fatalf("update: %v", err)
	}

	out, stderr, err := runCLI(t, []string{"logs", "--lines", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, stderr, "relocator-")
	requireContains(t, out, "INFO [pipeline] relocation started")
	requireContains(t, out, "filename=gone.wav")

	raw, _, err := runCLI(t, []string{"logs", "--raw", "-n", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --raw: %v", err)
	}
	requireContains(t, raw, `"run_id":`)
}
