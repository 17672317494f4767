package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed marks a catalog that could not be parsed.
	ErrMalformed = errors.New("malformed catalog")
	// ErrWrite marks a failure persisting the rewritten catalog.
	ErrWrite = errors.New("catalog write failed")
	// ErrLocked reports that another process holds the catalog lock.
	ErrLocked = errors.New("catalog is locked by another relocation")
)

// MalformedError wraps a parse failure with the catalog path.
type MalformedError struct {
	Path string
	Err  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrMalformed, e.Path, e.Err)
}

func (e *MalformedError) Unwrap() []error { return []error{ErrMalformed, e.Err} }

// WriteError wraps a failure in one step of Writer.Write.
type WriteError struct {
	Op   string // lock, backup, write
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrWrite, e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() []error { return []error{ErrWrite, e.Err} }
