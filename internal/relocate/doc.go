// Package relocate turns verification outcomes into per-record relocation
// results and a run summary. It never touches the catalog: callers decide
// whether and how the returned updates are written.
package relocate
