package locator

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"golang.org/x/text/unicode/norm"
)

type recordingObserver struct {
	mu      sync.Mutex
	results []string
	errors  int
	retries int
}

func (o *recordingObserver) ObserveLookup(result string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

func (o *recordingObserver) ObserveLookupError() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors++
}

func (o *recordingObserver) ObserveStatRetry() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retries++
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLocateDirectHit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "song.mp3"))
	writeFile(t, filepath.Join(root, "Sub", "song.mp3"))

	obs := &recordingObserver{}
	l := New(Options{Observer: obs})
	match := l.Locate(context.Background(), root, "song.mp3")

	if !match.Found || !match.Direct {
		t.Fatalf("expected direct match, got %+v", match)
	}
	if want := filepath.Join(root, "song.mp3"); match.Path != want {
		t.Fatalf("path = %q, want %q", match.Path, want)
	}
	if len(obs.results) != 1 || obs.results[0] != "direct" {
		t.Fatalf("observer results = %v", obs.results)
	}
}

func TestLocateWalkFallback(t *testing.T) {
	root := t.TempDir()
	want := filepath.Join(root, "A", "B", "deep track.flac")
	writeFile(t, want)

	obs := &recordingObserver{}
	match := New(Options{Observer: obs}).Locate(context.Background(), root, "deep track.flac")

	if !match.Found || match.Direct || match.Path != want {
		t.Fatalf("unexpected match %+v, want path %q", match, want)
	}
	if obs.results[0] != "walk" {
		t.Fatalf("observer results = %v", obs.results)
	}
}

func TestLocateMissing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "other.mp3"))

	obs := &recordingObserver{}
	match := New(Options{Observer: obs}).Locate(context.Background(), root, "song.mp3")
	if match.Found || match.Path != "" {
		t.Fatalf("expected not found, got %+v", match)
	}
	if obs.results[0] != "missing" || obs.errors != 0 {
		t.Fatalf("observer = %+v", obs)
	}
}

func TestLocateIgnoresDirectoriesWithTargetName(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "song.mp3"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "z", "song.mp3"))

	match := New(Options{}).Locate(context.Background(), root, "song.mp3")
	if want := filepath.Join(root, "z", "song.mp3"); !match.Found || match.Path != want {
		t.Fatalf("got %+v, want %q", match, want)
	}
}

func TestLocateFirstMatchInWalkOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b", "dup.wav"))
	writeFile(t, filepath.Join(root, "a", "dup.wav"))

	match := New(Options{}).Locate(context.Background(), root, "dup.wav")
	if want := filepath.Join(root, "a", "dup.wav"); match.Path != want {
		t.Fatalf("path = %q, want %q", match.Path, want)
	}
}

func TestLocateHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	hidden := filepath.Join(root, ".Archive", "song.mp3")
	writeFile(t, hidden)

	match := New(Options{}).Locate(context.Background(), root, "song.mp3")
	if !match.Found || match.Path != hidden || match.Direct {
		t.Fatalf("expected match under hidden directory, got %+v", match)
	}
	if match := New(Options{SkipHidden: true}).Locate(context.Background(), root, "song.mp3"); match.Found {
		t.Fatalf("hidden directory should be skipped, got %+v", match)
	}
}

func TestLocateUnicodeNormalization(t *testing.T) {
	root := t.TempDir()
	composed := "Café.mp3"
	decomposed := norm.NFD.String(composed)
	onDisk := filepath.Join(root, "Sub", decomposed)
	writeFile(t, onDisk)

	match := New(Options{}).Locate(context.Background(), root, composed)
	if !match.Found || match.Path != onDisk {
		t.Fatalf("expected NFD file to match NFC name, got %+v", match)
	}
}

func TestLocateFollowsFileSymlinks(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(t.TempDir(), "real.mp3")
	writeFile(t, target)
	link := filepath.Join(root, "links", "song.mp3")
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	match := New(Options{}).Locate(context.Background(), root, "song.mp3")
	if !match.Found || match.Path != link {
		t.Fatalf("expected symlink match, got %+v", match)
	}
}

func TestLocateMissingRootIsNotFound(t *testing.T) {
	obs := &recordingObserver{}
	match := New(Options{Observer: obs}).Locate(context.Background(), filepath.Join(t.TempDir(), "gone"), "song.mp3")
	if match.Found {
		t.Fatalf("expected not found, got %+v", match)
	}
	if obs.errors != 1 {
		t.Fatalf("lookup errors = %d, want 1", obs.errors)
	}
}

func TestLocateUnreadableSubdirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "a-locked")
	writeFile(t, filepath.Join(locked, "song.mp3"))
	writeFile(t, filepath.Join(root, "b", "song.mp3"))
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	match := New(Options{}).Locate(context.Background(), root, "song.mp3")
	if want := filepath.Join(root, "b", "song.mp3"); !match.Found || match.Path != want {
		t.Fatalf("got %+v, want %q", match, want)
	}
}

func TestLocateCanceledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Sub", "song.mp3"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	obs := &recordingObserver{}
	if match := New(Options{Observer: obs}).Locate(ctx, root, "song.mp3"); match.Found {
		t.Fatalf("canceled walk should not report a match, got %+v", match)
	}
	if obs.errors != 0 {
		t.Fatalf("cancellation should not count as a lookup error")
	}
}

func TestLocateEmptyName(t *testing.T) {
	if match := New(Options{}).Locate(context.Background(), t.TempDir(), ""); match.Found {
		t.Fatalf("empty name should never match, got %+v", match)
	}
}

func TestIsStaleHandle(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"estale", syscall.ESTALE, true},
		{"wrapped estale", &os.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}, true},
		{"enoent", syscall.ENOENT, false},
		{"not exist", os.ErrNotExist, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStaleHandle(tt.err); got != tt.want {
				t.Fatalf("isStaleHandle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDirectLookupRetriesStaleHandle(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "song.mp3")
	writeFile(t, path)

	calls := 0
	obs := &recordingObserver{}
	l := New(Options{
		Retry:    RetryPolicy{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond},
		Observer: obs,
	})
	l.stat = func(p string) (os.FileInfo, error) {
		calls++
		if calls < 3 {
			return nil, &os.PathError{Op: "stat", Path: p, Err: syscall.ESTALE}
		}
		return os.Stat(p)
	}

	match := l.Locate(context.Background(), root, "song.mp3")
	if !match.Found || !match.Direct {
		t.Fatalf("expected direct match after retries, got %+v", match)
	}
	if calls != 3 || obs.retries != 2 {
		t.Fatalf("calls = %d retries = %d, want 3 and 2", calls, obs.retries)
	}
}

func TestStatWithRetryGivesUp(t *testing.T) {
	calls := 0
	stale := func(p string) (os.FileInfo, error) {
		calls++
		return nil, syscall.ESTALE
	}
	policy := RetryPolicy{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
	if _, err := statWithRetry(context.Background(), stale, "/x", policy, nil); err != syscall.ESTALE {
		t.Fatalf("err = %v, want ESTALE", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestStatWithRetryDoesNotRetryOtherErrors(t *testing.T) {
	calls := 0
	missing := func(p string) (os.FileInfo, error) {
		calls++
		return nil, os.ErrNotExist
	}
	if _, err := statWithRetry(context.Background(), missing, "/x", DefaultRetryPolicy(), nil); err != os.ErrNotExist {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
