package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/flemzord/every/internal/history"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [job]",
		Short: "Show recent job runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("run history is disabled in the configuration")
			}
			limit, _ := cmd.Flags().GetInt("limit")

			path := cfg.History.Path
			if path == "" {
				dataDir := cfg.DataDir
				if dataDir == "" {
					dataDir = defaultDataDir()
				}
				path = history.DefaultPath(dataDir)
			}

			store, err := history.Open(cmd.Context(), path, cfg.History.BusyTimeout)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var job string
			if len(args) == 1 {
				job = args[0]
			}
			runs, err := store.Recent(cmd.Context(), job, limit)
			if err != nil {
				return err
			}
			return printRuns(cmd, runs)
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func printRuns(cmd *cobra.Command, runs []history.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tSTARTED\tDURATION\tSTATUS\tNEXT RUN\tERROR")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Job,
			r.Started.Local().Format(time.DateTime),
			r.Duration.Round(time.Millisecond),
			r.Status,
			r.NextRun.Local().Format(time.DateTime),
			r.Error,
		)
	}
	return tw.Flush()
}
