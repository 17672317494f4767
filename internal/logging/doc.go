// Package logging assembles the structured slog loggers used by the
// relocator CLI and its internal packages.
//
// It owns the console and JSON handlers, level parsing, file output, and the
// per-run log file that is teed alongside console output. Loggers are always
// passed explicitly; the package keeps no process-wide logger. NewNop serves
// tests and wiring code that has no logger to offer.
package logging
