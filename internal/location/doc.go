// Package location converts between catalog location URLs and bare
// filenames.
//
// Catalog entries store absolute paths as escaped `file://localhost/` URLs.
// Decode reduces such a URL to the final path segment; Encode rebuilds a URL
// from a search root and a filename using a single canonical escaper, so the
// same input always produces byte-identical output. Neither function touches
// the filesystem.
package location
