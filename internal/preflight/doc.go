// Package preflight checks the catalog file and search root before a
// relocation run starts, so a doomed run fails in milliseconds instead of
// after a full tree walk.
package preflight
