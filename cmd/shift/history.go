package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jottr/shift/internal/history"
	"github.com/jottr/shift/internal/stats"
)

var historyCmd = &cobra.Command{
	Use:   "history [job-id]",
	Short: "List recent transfers, or show the failures of one job",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of jobs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	hdb, err := history.Open()
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer hdb.Close()

	if len(args) == 1 {
		return printFailures(hdb, args[0])
	}

	limit, _ := cmd.Flags().GetInt("limit") //nolint:errcheck // flag name is hardcoded
	jobs, err := hdb.Recent(limit)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}
	if len(jobs) == 0 {
		fmt.Fprintln(os.Stdout, "no recorded transfers")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tMODE\tSTATUS\tFILES\tSIZE\tSOURCE\tDESTINATION")
	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			j.ID,
			j.Started.Local().Format(time.DateTime),
			j.Mode,
			j.Status,
			j.Files,
			stats.FormatBytes(j.Bytes),
			j.Src,
			j.Dst,
		)
	}
	return w.Flush()
}

func printFailures(hdb *history.DB, jobID string) error {
	failures, err := hdb.Failures(jobID)
	if err != nil {
		return fmt.Errorf("list failures: %w", err)
	}
	if len(failures) == 0 {
		fmt.Fprintln(os.Stdout, "no failures recorded for job", jobID)
		return nil
	}
	for _, f := range failures {
		fmt.Fprintf(os.Stdout, "%s: %s\n", f.Path, f.Err)
	}
	return nil
}
