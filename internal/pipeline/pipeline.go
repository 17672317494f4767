package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"relocator/internal/catalog"
	"relocator/internal/history"
	"relocator/internal/locator"
	"relocator/internal/logging"
	"relocator/internal/metrics"
	"relocator/internal/preflight"
	"relocator/internal/relocate"
	"relocator/internal/verify"
	"relocator/internal/workers"
)

// Request describes one relocation run.
type Request struct {
	RunID   string
	Catalog string
	Root    string
	DryRun  bool

	Backup       bool
	BackupSuffix string
	PointToMatch bool

	// Workers pins the pool size; 0 sizes it automatically.
	Workers       int
	Timeout       time.Duration
	Sequential    bool
	SkipHidden    bool
	StatRetries   int

	Progress func(verify.Progress)
}

// Report is the outcome of a run that got as far as planning.
type Report struct {
	RunID     string
	Started   time.Time
	Sizing    workers.Sizing
	Summary   relocate.Summary
	Results   []relocate.Result
	Applied   int
	Write     *catalog.WriteResult
	DryRun    bool
	Preflight []preflight.Result
}

// PreflightError lists the checks that failed before a run started.
type PreflightError struct {
	Failed []preflight.Result
}

func (e *PreflightError) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, r := range e.Failed {
		parts = append(parts, r.Name+": "+r.Detail)
	}
	return "preflight failed: " + strings.Join(parts, "; ")
}

// Options wires a Runner's collaborators. History and Metrics are optional.
type Options struct {
	Logger  *slog.Logger
	History *history.Store
	Metrics *metrics.Recorder
}

// Runner executes relocation requests.
type Runner struct {
	logger  *slog.Logger
	history *history.Store
	metrics *metrics.Recorder
}

// NewRunner constructs a Runner.
func NewRunner(opts Options) *Runner {
	return &Runner{
		logger:  logging.NewComponentLogger(opts.Logger, "pipeline"),
		history: opts.History,
		metrics: opts.Metrics,
	}
}

// Run executes req. A non-nil report is returned whenever planning finished,
// even if the catalog write then failed.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	report := &Report{RunID: req.RunID, Started: time.Now(), DryRun: req.DryRun}
	if report.RunID == "" {
		report.RunID = history.NewRunID()
	}

	err := r.run(ctx, req, report)
	r.finish(ctx, req, report, err)
	if err != nil && report.Results == nil {
		return nil, err
	}
	return report, err
}

func (r *Runner) run(ctx context.Context, req Request, report *Report) error {
	report.Preflight = preflight.RunAll(preflight.Options{
		Catalog: req.Catalog,
		Root:    req.Root,
		Write:   !req.DryRun,
	})
	if failed := preflight.Failed(report.Preflight); len(failed) > 0 {
		return &PreflightError{Failed: failed}
	}

	doc, err := catalog.Read(req.Catalog)
	if err != nil {
		return err
	}
	records := doc.Records()
	names := relocate.Filenames(records)

	report.Sizing = workers.Resolve(req.Workers)
	if req.Sequential {
		report.Sizing.Workers = 1
	}
	r.metrics.SetWorkers(report.Sizing.Workers)
	r.logger.Info("relocation started",
		logging.String("catalog", req.Catalog),
		logging.String("root", req.Root),
		logging.Int("records", len(records)),
		logging.Int("distinct", len(names)),
		logging.Int("workers", report.Sizing.Workers),
		logging.String("worker_source", report.Sizing.Source),
		logging.Int("cpus", report.Sizing.CPUs),
		logging.Float64("memory_gib", report.Sizing.MemoryGiB),
		logging.Bool("dry_run", req.DryRun),
		logging.String(logging.FieldEventType, "run_start"),
	)

	retry := locator.DefaultRetryPolicy()
	retry.MaxRetries = req.StatRetries
	finder := locator.New(locator.Options{
		Retry:         retry,
		SkipHidden:    req.SkipHidden,
		Observer:      r.metrics,
		Logger:        r.logger,
	})
	outcomes, err := verify.New(finder, r.logger).Verify(ctx, names, verify.Options{
		Root:       req.Root,
		Workers:    report.Sizing.Workers,
		Timeout:    req.Timeout,
		Sequential: req.Sequential,
		Progress:   req.Progress,
	})
	if err != nil {
		return err
	}

	planner := relocate.Planner{Root: req.Root, PointToMatch: req.PointToMatch}
	report.Summary, report.Results = planner.Plan(records, outcomes)
	for _, res := range report.Results {
		r.logResult(res)
	}

	updates := relocate.Updates(report.Results)
	if req.DryRun || len(updates) == 0 {
		return nil
	}
	applied, err := doc.Apply(updates)
	if err != nil {
		return fmt.Errorf("apply updates: %w", err)
	}
	report.Applied = applied
	if !doc.Dirty() {
		r.logger.Info("catalog already up to date; nothing written")
		return nil
	}
	writer := catalog.Writer{Backup: req.Backup, BackupSuffix: req.BackupSuffix, Logger: r.logger}
	written, err := writer.Write(doc)
	if err != nil {
		return err
	}
	report.Write = &written
	return nil
}

func (r *Runner) logResult(res relocate.Result) {
	if res.Kind == relocate.KindRelocated {
		r.logger.Debug("record relocated",
			logging.String(logging.FieldRecordID, res.RecordID),
			logging.String(logging.FieldFilename, res.Filename),
			logging.String("relative_path", res.RelativePath),
			logging.String("location", res.NewLocation),
		)
		return
	}
	r.logger.Debug("record missing",
		logging.String(logging.FieldRecordID, res.RecordID),
		logging.String(logging.FieldFilename, res.Filename),
		logging.String("searched", res.SearchedPath),
	)
}

// finish stamps the summary, logs the outcome, and records history and
// metrics. Bookkeeping failures are logged, never returned.
func (r *Runner) finish(ctx context.Context, req Request, report *Report, runErr error) {
	elapsed := time.Since(report.Started)
	report.Summary.Finish(elapsed)
	status := Status(req.DryRun, runErr)

	if runErr != nil {
		logging.ErrorWithContext(r.logger, "relocation failed", "run_failed",
			logging.String("status", string(status)),
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, Hint(runErr)),
		)
	} else {
		r.logger.Info("relocation finished",
			logging.Int("relocated", report.Summary.Relocated),
			logging.Int("missing", report.Summary.Missing),
			logging.Int("skipped", report.Summary.Skipped),
			logging.Int("applied", report.Applied),
			logging.Duration("elapsed", elapsed),
			logging.Float64("items_per_second", report.Summary.ItemsPerSecond),
			logging.String("status", string(status)),
			logging.String(logging.FieldEventType, "run_complete"),
		)
	}

	r.metrics.ObserveRun(report.Summary.Counts(), elapsed, time.Now())

	if r.history == nil {
		return
	}
	run := history.Run{
		ID:        report.RunID,
		StartedAt: report.Started,
		Catalog:   req.Catalog,
		Root:      req.Root,
		DryRun:    req.DryRun,
		Total:     report.Summary.Total,
		Relocated: report.Summary.Relocated,
		Missing:   report.Summary.Missing,
		Skipped:   report.Summary.Skipped,
		Duration:  elapsed,
		Status:    status,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	// A canceled run still gets its history row.
	if _, err := r.history.RecordRun(context.WithoutCancel(ctx), run, report.Results); err != nil {
		logging.WarnWithContext(r.logger, "failed to record run history", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history.path permissions"),
			logging.String(logging.FieldImpact, "run missing from `relocator history`"),
		)
	}
}

// Status maps a run outcome to its history status.
func Status(dryRun bool, err error) history.Status {
	switch {
	case err == nil && dryRun:
		return history.StatusDryRun
	case err == nil:
		return history.StatusCompleted
	case errors.Is(err, verify.ErrBatchTimeout):
		return history.StatusTimeout
	case errors.Is(err, verify.ErrBatchCanceled), errors.Is(err, context.Canceled):
		return history.StatusCanceled
	default:
		return history.StatusFailed
	}
}

// Hint returns operator guidance for a run error.
func Hint(err error) string {
	var preflightErr *PreflightError
	switch {
	case errors.Is(err, verify.ErrBatchTimeout):
		return "retry with a smaller --workers value, --sequential, or a longer --timeout"
	case errors.Is(err, catalog.ErrMalformed):
		return "the catalog is not valid XML; re-export it from Rekordbox"
	case errors.Is(err, catalog.ErrLocked):
		return "another relocation is writing this catalog; wait for it to finish"
	case errors.Is(err, catalog.ErrWrite):
		return "check free space and permissions next to the catalog; the original file is unchanged"
	case errors.As(err, &preflightErr):
		return "check the catalog path and that the new root is a readable directory"
	default:
		return "check logs for details"
	}
}
