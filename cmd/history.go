package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/tally-voucher-export/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past export runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runs, closeDB, err := openRuns(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		list, err := runs.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		fmt.Printf("%-36s  %-8s  %-10s  %-10s  %-19s  %6s  %6s  %-9s\n",
			"RUN", "KIND", "FROM", "TO", "STARTED", "OK", "FAILED", "STATUS")
		for _, run := range list {
			fmt.Printf("%-36s  %-8s  %-10s  %-10s  %-19s  %6d  %6d  %-9s\n",
				run.RunID,
				run.Kind,
				run.PeriodFrom,
				run.PeriodTo,
				run.StartedAt.Local().Format("2006-01-02 15:04:05"),
				run.Succeeded,
				run.Failed,
				run.Status)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run and its failures",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runs, closeDB, err := openRuns(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		run, err := runs.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %s not found", args[0])
		}

		fmt.Printf("Run:       %s\n", run.RunID)
		fmt.Printf("Export:    %s\n", run.Kind)
		fmt.Printf("Period:    %s to %s\n", run.PeriodFrom, run.PeriodTo)
		fmt.Printf("Started:   %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Finished:  %s\n", run.FinishedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Status:    %s\n", run.Status)
		fmt.Printf("Total:     %d (succeeded %d, failed %d, warnings %d)\n",
			run.Total, run.Succeeded, run.Failed, run.Warnings)
		fmt.Printf("Output:    %s\n", run.OutputFile)

		if len(run.Failures) > 0 {
			fmt.Println("\nFailures:")
			for _, f := range run.Failures {
				fmt.Printf("  #%d  %s  %s  [%s]\n    %s\n", f.Position, f.VoucherDate, f.VoucherNo, f.Kind, f.Message)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd)

	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to show")
}

// openRuns opens the configured history database.
func openRuns(cmd *cobra.Command) (*history.Runs, func(), error) {
	cfg, logger, err := setup()
	if err != nil {
		return nil, nil, err
	}
	defer logger.Sync()

	if cfg.HistoryDB == "" {
		return nil, nil, errors.New("no history_db configured")
	}

	conn, err := history.Open(cmd.Context(), cfg.HistoryDB)
	if err != nil {
		return nil, nil, err
	}

	return history.NewRuns(conn), func() { conn.Close() }, nil
}
