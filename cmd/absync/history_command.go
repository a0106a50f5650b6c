package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"absync/internal/report"
	"absync/internal/runlog"
)

func newHistoryCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent sync runs, or the per-book outcomes of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := runlog.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				return renderRunBooks(cmd, store, args[0])
			}
			return renderRecentRuns(cmd, store, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of runs to list")
	return cmd
}

func renderRecentRuns(cmd *cobra.Command, store *runlog.Store, limit int) error {
	runs, err := store.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.Started.Local().Format(time.DateTime),
			run.Finished.Sub(run.Started).Round(time.Second).String(),
			strconv.Itoa(run.Counts.Processed),
			strconv.Itoa(run.Counts.Downloaded),
			strconv.Itoa(run.Counts.SkippedInvalid),
			strconv.Itoa(run.Counts.Failed),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.Table(
		[]string{"RUN", "STARTED", "DURATION", "PROCESSED", "DOWNLOADED", "INVALID", "FAILED"},
		rows,
		[]report.Alignment{report.AlignLeft, report.AlignLeft, report.AlignRight, report.AlignRight, report.AlignRight, report.AlignRight, report.AlignRight},
	))
	return nil
}

func renderRunBooks(cmd *cobra.Command, store *runlog.Store, runID string) error {
	books, err := store.RunBooks(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		return fmt.Errorf("no outcomes recorded for run %s", runID)
	}

	rows := make([][]string, 0, len(books))
	for _, book := range books {
		rows = append(rows, []string{string(book.Status), book.Title, book.Author, book.Path, book.Reason})
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.Table(
		[]string{"STATUS", "TITLE", "AUTHOR", "PATH", "DETAIL"},
		rows,
		nil,
	))
	return nil
}
