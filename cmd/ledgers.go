package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/tally-voucher-export/internal/converter"
)

var (
	ledgerNames  []string
	ledgerDryRun bool
)

// ledgersCmd exports ledger masters so that the vouchers' ledgers exist in
// the target books before the vouchers are imported.
var ledgersCmd = &cobra.Command{
	Use:   "ledgers",
	Short: "Export ledger masters for the account directory",
	Long: `The ledgers command writes one Tally LEDGER record per account that has an
account type. The ledger is named after the account (renamed through the
account alias table) and filed under its account group (renamed through the
account type alias table).

Use --name, once or more, to export only some accounts.`,

	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		pipeline, cleanup, err := newPipeline(ctx, cfg, logger, ledgerDryRun)
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := pipeline.ExportLedgers(ctx, ledgerNames, ledgerDryRun)
		if report != nil {
			printReports([]*converter.Report{report}, ledgerDryRun)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(ledgersCmd)

	ledgersCmd.Flags().StringSliceVar(&ledgerNames, "name", nil, "Account name to export (repeatable)")
	ledgersCmd.Flags().BoolVar(&ledgerDryRun, "dry-run", false, "Build and report without writing files")
}
