// Package locator finds a file by name beneath a search root.
//
// A lookup first stats <root>/<name> directly and only walks the tree when
// that misses. Stat calls that hit a stale NFS file handle are retried with
// bounded exponential backoff. Every traversal error is absorbed: the caller
// only ever sees found or not found.
package locator
