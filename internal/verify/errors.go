package verify

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBatchTimeout reports that the batch deadline fired before every
	// filename was looked up.
	ErrBatchTimeout = errors.New("batch verification timed out")
	// ErrBatchCanceled reports that the caller canceled the batch.
	ErrBatchCanceled = errors.New("batch verification canceled")
)

// BatchError describes an incomplete batch.
type BatchError struct {
	Kind      error // ErrBatchTimeout or ErrBatchCanceled
	Completed int
	Total     int
	Timeout   time.Duration
	Cause     error
}

func (e *BatchError) Error() string {
	if errors.Is(e.Kind, ErrBatchTimeout) {
		return fmt.Sprintf("%v after %s (%d of %d filenames checked)", e.Kind, e.Timeout, e.Completed, e.Total)
	}
	return fmt.Sprintf("%v (%d of %d filenames checked)", e.Kind, e.Completed, e.Total)
}

func (e *BatchError) Unwrap() []error {
	return []error{e.Kind, e.Cause}
}
