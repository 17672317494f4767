package locator

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"relocator/internal/logging"
	"relocator/internal/metrics"
)

// Observer receives per-lookup measurements. *metrics.Recorder implements it.
type Observer interface {
	ObserveLookup(result string, d time.Duration)
	ObserveLookupError()
	ObserveStatRetry()
}

// Match is the outcome of a single lookup.
type Match struct {
	Found bool
	// Path is the resolved file path; empty when not found.
	Path string
	// Direct reports that the file sits directly under the root.
	Direct bool
}

// Options configures a Locator.
type Options struct {
	Retry         RetryPolicy
	SkipHidden    bool
	Observer      Observer
	Logger        *slog.Logger
}

// Locator resolves filenames beneath a root. It holds no per-lookup state and
// is safe for concurrent use.
type Locator struct {
	retry         RetryPolicy
	skipHidden    bool
	observer      Observer
	logger        *slog.Logger
	stat          statFunc
}

// New constructs a Locator. A zero RetryPolicy disables retries.
func New(opts Options) *Locator {
	return &Locator{
		retry:         opts.Retry,
		skipHidden:    opts.SkipHidden,
		observer:      opts.Observer,
		logger:        logging.NewComponentLogger(opts.Logger, "locator"),
		stat:          os.Stat,
	}
}

// Locate looks for name directly under root, then anywhere below it. The
// first regular file whose name matches wins; walk order is lexical within
// each directory. Errors never escape: they are logged and reported as not
// found.
func (l *Locator) Locate(ctx context.Context, root, name string) Match {
	start := time.Now()
	if name == "" {
		return Match{}
	}

	if path, ok := l.direct(ctx, root, name); ok {
		l.observe(metrics.ResultDirect, start)
		return Match{Found: true, Path: path, Direct: true}
	}

	path, err := l.walk(ctx, root, name)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		l.logger.Debug("walk failed; treating as not found",
			logging.String(logging.FieldFilename, name),
			logging.String("root", root),
			logging.Error(err),
			logging.String(logging.FieldEventType, "lookup_error"),
		)
		if l.observer != nil {
			l.observer.ObserveLookupError()
		}
	}
	if path == "" {
		l.observe(metrics.ResultMissing, start)
		return Match{}
	}
	l.observe(metrics.ResultWalk, start)
	return Match{Found: true, Path: path}
}

func (l *Locator) direct(ctx context.Context, root, name string) (string, bool) {
	path := filepath.Join(root, name)
	info, err := statWithRetry(ctx, l.stat, path, l.retry, func(attempt int, err error) {
		if l.observer != nil {
			l.observer.ObserveStatRetry()
		}
		l.logger.Debug("stale file handle; retrying stat",
			logging.String("path", path),
			logging.Int("attempt", attempt),
			logging.Error(err),
		)
	})
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			l.logger.Debug("direct lookup failed",
				logging.String("path", path),
				logging.Error(err),
			)
		}
		return "", false
	}
	if !info.Mode().IsRegular() {
		return "", false
	}
	return path, true
}

func (l *Locator) walk(ctx context.Context, root, name string) (string, error) {
	target := norm.NFC.String(name)
	var found string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			l.logger.Debug("skipping unreadable entry",
				logging.String("path", path),
				logging.Error(err),
			)
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			if path != root && l.skipHidden && strings.HasPrefix(entry.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !sameName(entry.Name(), name, target) {
			return nil
		}
		if !l.isRegular(path, entry) {
			return nil
		}
		found = path
		return fs.SkipAll
	})
	return found, err
}

// isRegular accepts regular files and symlinks that resolve to one.
func (l *Locator) isRegular(path string, entry fs.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := l.stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (l *Locator) observe(result string, start time.Time) {
	if l.observer == nil {
		return
	}
	l.observer.ObserveLookup(result, time.Since(start))
}

// sameName compares exactly, then in NFC so decomposed names stored by
// macOS volumes match composed catalog names.
func sameName(entry, name, nfcName string) bool {
	if entry == name {
		return true
	}
	return norm.NFC.String(entry) == nfcName
}
