package catalog

import (
	"errors"
	"log/slog"

	"github.com/gofrs/flock"

	"relocator/internal/fileutil"
	"relocator/internal/logging"
)

// DefaultBackupSuffix names the copy of the original catalog.
const DefaultBackupSuffix = ".backup"

// Writer persists a rewritten catalog.
type Writer struct {
	Backup       bool
	BackupSuffix string
	Logger       *slog.Logger
}

// WriteResult describes a completed write.
type WriteResult struct {
	Path       string
	BackupPath string
	Bytes      int
}

// LockPath returns the advisory lock file guarding catalogPath.
func LockPath(catalogPath string) string {
	return catalogPath + ".lock"
}

// BackupPath returns where the original catalog is copied before a write.
func (w Writer) BackupPath(catalogPath string) string {
	suffix := w.BackupSuffix
	if suffix == "" {
		suffix = DefaultBackupSuffix
	}
	return catalogPath + suffix
}

// Write takes the catalog lock, optionally backs up the file on disk, then
// atomically replaces it with doc's bytes. The backup always holds the bytes
// that were on disk immediately before the replace.
func (w Writer) Write(doc *Document) (WriteResult, error) {
	logger := logging.NewComponentLogger(w.Logger, "catalog")
	result := WriteResult{Path: doc.Path}

	lock := flock.New(LockPath(doc.Path))
	ok, err := lock.TryLock()
	if err != nil {
		return result, &WriteError{Op: "lock", Path: LockPath(doc.Path), Err: err}
	}
	if !ok {
		return result, &WriteError{Op: "lock", Path: LockPath(doc.Path), Err: ErrLocked}
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release catalog lock", logging.Error(err))
		}
	}()

	if w.Backup {
		backup := w.BackupPath(doc.Path)
		if err := fileutil.CopyFileMode(doc.Path, backup, doc.Mode); err != nil {
			return result, &WriteError{Op: "backup", Path: backup, Err: err}
		}
		result.BackupPath = backup
		logger.Info("catalog backed up",
			logging.String("backup", backup),
			logging.String(logging.FieldEventType, "catalog_backup"),
		)
	}

	data := doc.Bytes()
	mode := doc.Mode
	if mode == 0 {
		mode = 0o644
	}
	if err := fileutil.AtomicWrite(doc.Path, data, mode); err != nil {
		return result, &WriteError{Op: "write", Path: doc.Path, Err: err}
	}
	result.Bytes = len(data)
	logger.Info("catalog written",
		logging.String("path", doc.Path),
		logging.Int("bytes", len(data)),
		logging.String(logging.FieldEventType, "catalog_write"),
	)
	return result, nil
}

// IsLocked reports whether err came from a held catalog lock.
func IsLocked(err error) bool {
	return errors.Is(err, ErrLocked)
}
