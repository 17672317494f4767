package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"relocator/internal/history"
)

type runJSON struct {
	ID        string  `json:"id"`
	StartedAt string  `json:"started_at"`
	Status    string  `json:"status"`
	Catalog   string  `json:"catalog"`
	Root      string  `json:"root"`
	DryRun    bool    `json:"dry_run"`
	Total     int     `json:"total"`
	Relocated int     `json:"relocated"`
	Missing   int     `json:"missing"`
	Skipped   int     `json:"skipped"`
	DurationS float64 `json:"duration_seconds"`
	Error     string  `json:"error,omitempty"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent relocation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errors.New("run history is disabled; set history.enabled = true in the config")
			}
			store, err := history.Open(cmd.Context(), cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if jsonOutput {
				out := make([]runJSON, 0, len(runs))
				for _, run := range runs {
					out = append(out, runJSON{
						ID:        run.ID,
						StartedAt: run.StartedAt.UTC().Format(time.RFC3339),
						Status:    string(run.Status),
						Catalog:   run.Catalog,
						Root:      run.Root,
						DryRun:    run.DryRun,
						Total:     run.Total,
						Relocated: run.Relocated,
						Missing:   run.Missing,
						Skipped:   run.Skipped,
						DurationS: run.Duration.Seconds(),
						Error:     run.Error,
					})
				}
				return writeJSON(cmd, out)
			}

			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRunsTable(runs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")
	return cmd
}

func renderRunsTable(runs []history.Run) string {
	headers := []string{"Started", "Status", "Relocated", "Missing", "Skipped", "Duration", "Catalog", "Root", "Run"}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			humanize.Time(run.StartedAt),
			string(run.Status),
			strconv.Itoa(run.Relocated),
			strconv.Itoa(run.Missing),
			strconv.Itoa(run.Skipped),
			run.Duration.Round(time.Millisecond).String(),
			run.Catalog,
			run.Root,
			shortID(run.ID),
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft, alignLeft}
	return renderTable(headers, rows, aligns)
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
