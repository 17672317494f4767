// Package logs reads back the per-run JSON log files written under the
// configured log directory.
//
// It locates the newest run log or the log of a specific run ID, returns the
// last N lines with bounded memory, and renders JSON records as short
// human-readable lines for `relocator logs`.
package logs
