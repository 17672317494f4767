// Package catalog reads and rewrites Rekordbox XML collections.
//
// Only the Location attribute of TRACK elements is ever changed. Every other
// byte of the document, including attribute order, quoting, whitespace and
// playlist sections, is written back exactly as it was read.
package catalog
