// Package pipeline runs one relocation end to end: preflight, catalog read,
// batch verification, planning, the catalog write, and the history and
// metrics bookkeeping around them.
//
// The catalog is written only after the whole batch has been verified, and
// only when at least one record was relocated and the run is not a dry run.
// A verification timeout leaves the catalog untouched.
package pipeline
