// Package verify checks a batch of filenames against a search root.
//
// Filenames are deduplicated, then looked up either by a bounded worker pool
// or one at a time. The whole batch shares a single deadline; when it fires
// the batch fails and no partial result is returned.
package verify
