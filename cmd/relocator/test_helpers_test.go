package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"relocator/internal/config"
	"relocator/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	catalog    string
	root       string
}

// setupCLITestEnv writes a config with history enabled plus a catalog of
// three tracks: one at the new root, one in a subdirectory and one missing.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithHistory()}, opts...)...)
	configPath := filepath.Join(homeDir, ".config", "relocator", "config.toml")
	testsupport.WriteConfig(t, configPath, cfg)

	root := filepath.Join(base, "NewDrive")
	testsupport.WriteFile(t, filepath.Join(root, "song.mp3"), 64)
	testsupport.WriteFile(t, filepath.Join(root, "Albums", "deep.flac"), 64)
	catalogPath := testsupport.WriteCatalog(t, filepath.Join(base, "lib"),
		testsupport.Track{ID: "1", Location: testsupport.OldLocation("song.mp3")},
		testsupport.Track{ID: "2", Location: testsupport.OldLocation("deep.flac")},
		testsupport.Track{ID: "3", Location: testsupport.OldLocation("gone.wav")},
	)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		catalog:    catalogPath,
		root:       root,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
