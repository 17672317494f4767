// Package history records relocation runs in a local SQLite database.
//
// Every run is stored, including dry runs, timeouts and failures, together
// with the per-record results of runs that finished verification. The store
// is an audit trail only: nothing reads it back to skip or resume work.
//
// Schema changes are added as new files under migrations/; they are applied
// in lexical order and recorded in schema_migrations.
package history
