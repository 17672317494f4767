package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"relocator/internal/config"
	"relocator/internal/history"
	"relocator/internal/logging"
	"relocator/internal/metrics"
	"relocator/internal/pipeline"
	"relocator/internal/relocate"
		"relocator/internal/workers"
)

type updateFlags struct {
	dryRun        bool
	noBackup      bool
	workers       int
	timeout       int
	sequential    bool
	skipHidden    bool
	pointToMatch  bool
	jsonOutput    bool
	quiet         bool
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var flags updateFlags

	cmd := &cobra.Command{
		Use:     "update <catalog.xml> <new-root>",
		Aliases: []string{"relocate"},
		Short:   "Rewrite catalog locations to files found under a new root",
		Long: `Look up every track of a Rekordbox XML collection under <new-root>, first
directly and then in any subdirectory, and rewrite the Location of every
track that was found. The original catalog is copied to <catalog>.backup
before it is replaced unless --no-backup is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyUpdateFlags(cmd, cfg, flags); err != nil {
				return err
			}
			catalogPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve catalog path: %w", err)
			}
			root, err := filepath.Abs(args[1])
			if err != nil {
				return fmt.Errorf("resolve root path: %w", err)
			}
			return runUpdate(cmd, cfg, flags, catalogPath, root)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Report what would change without writing the catalog")
	cmd.Flags().BoolVar(&flags.noBackup, "no-backup", false, "Do not copy the original catalog before rewriting it")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, fmt.Sprintf("Lookup workers (%d-%d, default automatic)", workers.MinOverride, workers.MaxOverride))
	cmd.Flags().IntVar(&flags.timeout, "timeout", 0, "Batch deadline in seconds (default from config, 1800)")
	cmd.Flags().BoolVar(&flags.sequential, "sequential", false, "Look up one file at a time")
	cmd.Flags().BoolVar(&flags.skipHidden, "skip-hidden", false, "Do not search hidden directories")
	cmd.Flags().BoolVar(&flags.pointToMatch, "point-to-match", false, "Point relocated tracks at the subdirectory they were found in")
	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "Print the run report as JSON")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Only print the summary")

	return cmd
}

func applyUpdateFlags(cmd *cobra.Command, cfg *config.Config, flags updateFlags) error {
	if cmd.Flags().Changed("workers") {
		if flags.workers < workers.MinOverride || flags.workers > workers.MaxOverride {
			return fmt.Errorf("--workers must be between %d and %d", workers.MinOverride, workers.MaxOverride)
		}
		cfg.Search.Workers = flags.workers
	}
	if cmd.Flags().Changed("timeout") {
		if flags.timeout <= 0 {
			return errors.New("--timeout must be positive")
		}
		cfg.Search.TimeoutSeconds = flags.timeout
	}
	if flags.sequential {
		cfg.Search.Sequential = true
	}
	if flags.skipHidden {
		cfg.Search.SkipHidden = true
	}
	if flags.pointToMatch {
		cfg.Catalog.PointToMatch = true
	}
	if flags.noBackup {
		cfg.Catalog.Backup = false
	}
	return nil
}

func runUpdate(cmd *cobra.Command, cfg *config.Config, flags updateFlags, catalogPath, root string) error {
	runID := history.NewRunID()
	started := time.Now()
	logger, logPath, err := logging.NewFromConfig(cfg, runID, started)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, cfg.Paths.LogDir, logPath)

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cmd.Context(), cfg.History.Path)
		if err != nil {
			logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
				logging.String("path", cfg.History.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check history.path in the config"),
				logging.String(logging.FieldImpact, "this run will not appear in `relocator history`"),
			)
			store = nil
		} else {
			defer store.Close()
		}
	}

	recorder := metrics.New()
	stderr := cmd.ErrOrStderr()
	progress := newProgressReporter(stderr, logger, shouldColorize(stderr) && !flags.jsonOutput)

	runner := pipeline.NewRunner(pipeline.Options{Logger: logger, History: store, Metrics: recorder})
	report, runErr := runner.Run(cmd.Context(), pipeline.Request{
		RunID:         runID,
		Catalog:       catalogPath,
		Root:          root,
		DryRun:        flags.dryRun,
		Backup:        cfg.Catalog.Backup,
		BackupSuffix:  cfg.Catalog.BackupSuffix,
		PointToMatch:  cfg.Catalog.PointToMatch,
		Workers:       cfg.Search.Workers,
		Timeout:       cfg.Timeout(),
		Sequential:    cfg.Search.Sequential,
		SkipHidden:    cfg.Search.SkipHidden,
		StatRetries:   cfg.Search.StatRetries,
		Progress:      progress.update,
	})
	progress.finish()

	if err := recorder.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
		logging.WarnWithContext(logger, "metrics export failed", "metrics_write_failed",
			logging.String("path", cfg.Metrics.TextfilePath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run metrics not exported"),
		)
	}

	if report != nil {
		if flags.jsonOutput {
			if err := writeJSON(cmd, newReportJSON(report, catalogPath, root, runErr)); err != nil {
				return err
			}
		} else {
			renderReport(cmd.OutOrStdout(), report, catalogPath, flags.quiet, newPalette(shouldColorize(cmd.OutOrStdout())))
		}
	}
	if runErr != nil {
		return describeRunError(cmd, logger, runErr)
	}
	return nil
}

func describeRunError(cmd *cobra.Command, logger *slog.Logger, err error) error {
	if pipeline.Status(false, err) == history.StatusCanceled {
		logger.Info("run canceled; catalog left unchanged")
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Hint: %s\n", pipeline.Hint(err))
	return err
}

func renderReport(out io.Writer, report *pipeline.Report, catalogPath string, quiet bool, p palette) {
	if !quiet {
		for _, r := range report.Results {
			fmt.Fprintln(out, renderResultLine(r, p))
		}
		if len(report.Results) > 0 {
			fmt.Fprintln(out)
		}
	}

	s := report.Summary
	fmt.Fprintln(out, renderSectionHeader("Summary", p))
	fmt.Fprintln(out, renderKeyValueTable([][]string{
		{"Records", humanize.Comma(int64(s.Total))},
		{"Relocated", humanize.Comma(int64(s.Relocated))},
		{"Missing", humanize.Comma(int64(s.Missing))},
		{"Skipped", humanize.Comma(int64(s.Skipped))},
		{"Distinct filenames", humanize.Comma(int64(s.Distinct))},
		{"Workers", fmt.Sprintf("%d (%s)", report.Sizing.Workers, report.Sizing.Source)},
		{"Elapsed", s.Duration.Round(time.Millisecond).String()},
		{"Relocated rate", fmt.Sprintf("%.1f%%", s.RelocatedRate)},
		{"Throughput", fmt.Sprintf("%s files/s", humanize.FtoaWithDigits(s.ItemsPerSecond, 1))},
	}))

	if missing := relocate.MissingPaths(report.Results); len(missing) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderSectionHeader(fmt.Sprintf("Files not found (%s)", humanize.Comma(int64(len(missing)))), p))
		for _, path := range missing {
			fmt.Fprintf(out, "  %s\n", path)
		}
	}

	fmt.Fprintln(out)
	switch {
	case report.DryRun:
		fmt.Fprintln(out, p.warn.Sprint("Dry run: no changes written. Re-run without --dry-run to update the catalog."))
	case report.Write != nil:
		line := fmt.Sprintf("%s Catalog updated: %s (%d locations, %s)", p.ok.Sprint(markOK), catalogPath, report.Applied, humanize.Bytes(uint64(report.Write.Bytes)))
		fmt.Fprintln(out, line)
		if report.Write.BackupPath != "" {
			fmt.Fprintf(out, "  Backup: %s\n", report.Write.BackupPath)
		}
	default:
		fmt.Fprintln(out, "No locations changed; catalog not written.")
	}
}

type reportJSON struct {
	RunID     string       `json:"run_id"`
	Catalog   string       `json:"catalog"`
	Root      string       `json:"root"`
	DryRun    bool         `json:"dry_run"`
	Status    string       `json:"status"`
	Error     string       `json:"error,omitempty"`
	Summary   summaryJSON  `json:"summary"`
	Results   []resultJSON `json:"results"`
	Written   bool         `json:"written"`
	Backup    string       `json:"backup,omitempty"`
	Workers   int          `json:"workers"`
	DurationS float64      `json:"duration_seconds"`
}

type summaryJSON struct {
	Total          int     `json:"total"`
	Relocated      int     `json:"relocated"`
	Missing        int     `json:"missing"`
	Skipped        int     `json:"skipped"`
	Distinct       int     `json:"distinct"`
	RelocatedRate  float64 `json:"relocated_rate"`
	MissingRate    float64 `json:"missing_rate"`
	ItemsPerSecond float64 `json:"items_per_second"`
}

type resultJSON struct {
	RecordID     string `json:"record_id"`
	Filename     string `json:"filename"`
	Kind         string `json:"kind"`
	Provenance   string `json:"provenance"`
	OldLocation  string `json:"old_location"`
	NewLocation  string `json:"new_location,omitempty"`
	SearchedPath string `json:"searched_path,omitempty"`
	RelativePath string `json:"relative_path,omitempty"`
}

func newReportJSON(report *pipeline.Report, catalogPath, root string, runErr error) reportJSON {
	s := report.Summary
	out := reportJSON{
		RunID:   report.RunID,
		Catalog: catalogPath,
		Root:    root,
		DryRun:  report.DryRun,
		Status:  string(pipeline.Status(report.DryRun, runErr)),
		Summary: summaryJSON{
			Total:          s.Total,
			Relocated:      s.Relocated,
			Missing:        s.Missing,
			Skipped:        s.Skipped,
			Distinct:       s.Distinct,
			RelocatedRate:  s.RelocatedRate,
			MissingRate:    s.MissingRate,
			ItemsPerSecond: s.ItemsPerSecond,
		},
		Results:   make([]resultJSON, 0, len(report.Results)),
		Written:   report.Write != nil,
		Workers:   report.Sizing.Workers,
		DurationS: s.Duration.Seconds(),
	}
	if runErr != nil {
		out.Error = strings.TrimSpace(runErr.Error())
	}
	if report.Write != nil {
		out.Backup = report.Write.BackupPath
	}
	for _, r := range report.Results {
		out.Results = append(out.Results, resultJSON{
			RecordID:     r.RecordID,
			Filename:     r.Filename,
			Kind:         r.Kind.String(),
			Provenance:   r.Provenance(),
			OldLocation:  r.OldLocation,
			NewLocation:  r.NewLocation,
			SearchedPath: r.SearchedPath,
			RelativePath: r.RelativePath,
		})
	}
	return out
}
