package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"relocator/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var runID string
	var raw bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the log of the latest run or of a given run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := logs.FindRun(cfg.Paths.LogDir, runID)
			if err != nil {
				return err
			}
			entries, err := logs.Tail(path, lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(cmd.ErrOrStderr(), "==> %s <==\n", path)
			for _, line := range entries {
				if !raw {
					line = logs.Format(line)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Run ID or prefix as shown by `relocator history`")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON records unformatted")
	return cmd
}
