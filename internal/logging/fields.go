package logging

const (
	// FieldComponent names the package or subsystem emitting the line.
	FieldComponent = "component"
	// FieldRunID correlates every line of one relocation run.
	FieldRunID = "run_id"
	// FieldFilename is the bare filename being looked up.
	FieldFilename = "filename"
	// FieldRecordID is the catalog's identifier for a record.
	FieldRecordID = "record_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step after a failure.
	FieldErrorHint = "error_hint"
	// FieldImpact states the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldProgressPercent carries batch completion in percent.
	FieldProgressPercent = "progress_percent"
)
