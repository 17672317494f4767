package locator

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"
)

// RetryPolicy bounds stat retries on stale file handles.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy returns the retry policy used for network mounts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func isStaleHandle(err error) bool {
	if err == nil {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}
	return false
}

type statFunc func(string) (os.FileInfo, error)

// statWithRetry stats path, retrying only ESTALE failures. onRetry fires
// once per retry attempt.
func statWithRetry(ctx context.Context, stat statFunc, path string, policy RetryPolicy, onRetry func(attempt int, err error)) (os.FileInfo, error) {
	backoff := policy.InitialBackoff
	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		info, err := stat(path)
		if err == nil {
			return info, nil
		}
		lastErr = err
		if !isStaleHandle(err) {
			return nil, err
		}
		if attempt == policy.MaxRetries {
			break
		}
		if onRetry != nil {
			onRetry(attempt+1, err)
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
		if backoff > policy.MaxBackoff {
			backoff = policy.MaxBackoff
		}
	}
	return nil, lastErr
}
