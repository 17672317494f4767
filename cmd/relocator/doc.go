// Package main hosts the relocator CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, applies flag overrides,
// builds the run logger, and renders results. The relocation itself lives in
// internal/pipeline; keep this package to wiring and presentation.
package main
