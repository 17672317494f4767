package relocate

import (
	"fmt"
	"path/filepath"
	"time"

	"relocator/internal/location"
	"relocator/internal/verify"
)

// RootLabel is the relative path reported for files found directly under the
// search root.
const RootLabel = "root"

// Record is a catalog entry: an opaque identifier plus its stored location.
type Record struct {
	ID       string
	Location string
}

// Kind is the terminal state of a record within one run.
type Kind int

const (
	KindRelocated Kind = iota + 1
	KindMissing
)

func (k Kind) String() string {
	switch k {
	case KindRelocated:
		return "relocated"
	case KindMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Result is the relocation decision for one eligible record.
type Result struct {
	RecordID    string
	Filename    string
	Kind        Kind
	OldLocation string
	// NewLocation is set for relocated records only.
	NewLocation string
	// SearchedPath is <root>/<filename>; set for missing records only.
	SearchedPath string
	// RelativePath is RootLabel or the slash-separated directory below root
	// the file was found in; set for relocated records only.
	RelativePath string
	// ResolvedPath is where the file was found.
	ResolvedPath string
}

// Provenance renders where the file was found, or where it was looked for.
func (r Result) Provenance() string {
	if r.Kind == KindRelocated {
		return "found in " + r.RelativePath
	}
	return "not found: " + r.SearchedPath
}

// Update is a location change to apply to the catalog.
type Update struct {
	ID       string
	Location string
}

// Planner turns outcomes into results for one search root.
type Planner struct {
	Root string
	// PointToMatch encodes the directory the file was found in rather than
	// <root>/<filename> for files found below the root.
	PointToMatch bool
}

// Plan is Planner{Root: root}.Plan.
func Plan(root string, records []Record, outcomes verify.Outcomes) (Summary, []Result) {
	return Planner{Root: root}.Plan(records, outcomes)
}

// Eligible reports whether rec carries a recognized location with a
// non-empty filename. Ineligible records pass through untouched.
func Eligible(rec Record) (string, bool) {
	if !location.IsLocation(rec.Location) {
		return "", false
	}
	name := location.Decode(rec.Location)
	return name, name != ""
}

// Filenames returns the distinct filenames of eligible records in order of
// first appearance. This is the batch handed to the verifier.
func Filenames(records []Record) []string {
	names := make([]string, 0, len(records))
	for _, rec := range records {
		if name, ok := Eligible(rec); ok {
			names = append(names, name)
		}
	}
	return verify.Distinct(names)
}

// Plan returns one result per eligible record, in record order. A filename
// absent from outcomes is reported missing. Records are not modified.
func (p Planner) Plan(records []Record, outcomes verify.Outcomes) (Summary, []Result) {
	var summary Summary
	results := make([]Result, 0, len(records))
	seen := make(map[string]struct{})

	summary.Total = len(records)
	for _, rec := range records {
		name, ok := Eligible(rec)
		if !ok {
			summary.Skipped++
			continue
		}
		seen[name] = struct{}{}

		res := Result{RecordID: rec.ID, Filename: name, OldLocation: rec.Location}
		outcome, ok := outcomes[name]
		if ok && outcome.Found {
			res.Kind = KindRelocated
			res.ResolvedPath = outcome.Path
			res.RelativePath = p.relativePath(name, outcome.Path)
			res.NewLocation = p.newLocation(name, outcome.Path)
			summary.Relocated++
		} else {
			res.Kind = KindMissing
			res.SearchedPath = filepath.Join(p.Root, name)
			summary.Missing++
		}
		results = append(results, res)
	}
	summary.Distinct = len(seen)
	return summary, results
}

func (p Planner) relativePath(name, resolved string) string {
	if filepath.Clean(resolved) == filepath.Join(p.Root, name) {
		return RootLabel
	}
	rel, err := filepath.Rel(p.Root, filepath.Dir(resolved))
	if err != nil || rel == "." {
		return RootLabel
	}
	return filepath.ToSlash(rel)
}

func (p Planner) newLocation(name, resolved string) string {
	if p.PointToMatch && resolved != "" {
		return location.Encode(filepath.Dir(resolved), filepath.Base(resolved))
	}
	return location.Encode(p.Root, name)
}

// Updates returns the catalog changes for relocated results.
func Updates(results []Result) []Update {
	var updates []Update
	for _, r := range results {
		if r.Kind != KindRelocated {
			continue
		}
		updates = append(updates, Update{ID: r.RecordID, Location: r.NewLocation})
	}
	return updates
}

// MissingPaths returns the searched paths of missing results.
func MissingPaths(results []Result) []string {
	var paths []string
	for _, r := range results {
		if r.Kind == KindMissing {
			paths = append(paths, r.SearchedPath)
		}
	}
	return paths
}

// Summary aggregates one run.
type Summary struct {
	Total     int
	Relocated int
	Missing   int
	Skipped   int
	Distinct  int

	Duration       time.Duration
	RelocatedRate  float64
	MissingRate    float64
	ItemsPerSecond float64
}

// Processed is the number of eligible records.
func (s Summary) Processed() int {
	return s.Relocated + s.Missing
}

// Finish stamps the run duration and derives rates. Zero counts or durations
// yield zero rates.
func (s *Summary) Finish(elapsed time.Duration) {
	s.Duration = elapsed
	processed := s.Processed()
	s.RelocatedRate, s.MissingRate, s.ItemsPerSecond = 0, 0, 0
	if processed > 0 {
		s.RelocatedRate = float64(s.Relocated) / float64(processed) * 100
		s.MissingRate = float64(s.Missing) / float64(processed) * 100
	}
	if secs := elapsed.Seconds(); secs > 0 {
		s.ItemsPerSecond = float64(processed) / secs
	}
}

// Counts returns per-kind totals keyed by Kind.String, plus "skipped".
func (s Summary) Counts() map[string]int {
	return map[string]int{
		KindRelocated.String(): s.Relocated,
		KindMissing.String():   s.Missing,
		"skipped":              s.Skipped,
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("%d relocated, %d missing, %d skipped of %d records", s.Relocated, s.Missing, s.Skipped, s.Total)
}
