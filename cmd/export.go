// =============================================================================
// Voucher Export - Export Command
// =============================================================================
//
// This file defines the 'export' command, the main command of the tool. It
// reads the vouchers of a date range and writes them as one Tally XML file.
//
// COMMAND USAGE:
//   tally-export export [flags]
//
// FLAGS:
//   --from       : First voucher date (YYYY-MM-DD); open when empty
//   --to         : Last voucher date (YYYY-MM-DD); open when empty
//   --split      : "month" writes one file per calendar month
//   --dry-run    : Transform and report without writing files
//
// PROCESSING PIPELINE:
//   1. Load configuration and alias tables
//   2. Connect the voucher source (CSV or MongoDB)
//   3. Load the account directory and the vouchers of the range
//   4. Transform vouchers concurrently, in input order
//   5. Write the XML file, the error log and the summary
//   6. Archive the output and record the run
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/tally-voucher-export/internal/converter"
	"github.com/ginjaninja78/tally-voucher-export/internal/source"
	"github.com/ginjaninja78/tally-voucher-export/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	exportFrom   string
	exportTo     string
	exportSplit  string
	exportDryRun bool
)

// splitMonth is the only supported --split value.
const splitMonth = "month"

// =============================================================================
// EXPORT COMMAND DEFINITION
// =============================================================================

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the vouchers of a date range as Tally XML",
	Long: `The export command reads the vouchers dated inside --from and --to,
transforms them into Tally vouchers and writes one XML import file.

A voucher that cannot be transformed is left out of the file and reported
in the summary and the error log; the others are still exported. Set
continue_on_error: false in the configuration to write nothing when any
voucher fails.

Legs of excluded account types (STOCK by default) are dropped before
transformation.`,

	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFrom, "from", "", "First voucher date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Last voucher date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportSplit, "split", "", `Write one file per period; only "month" is supported`)
	exportCmd.Flags().BoolVar(&exportDryRun, "dry-run", false, "Transform and report without writing files")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runExport(cmd *cobra.Command) error {
	ctx := cmd.Context()

	if exportSplit != "" && exportSplit != splitMonth {
		return fmt.Errorf("unsupported --split %q", exportSplit)
	}

	period, err := source.ParsePeriod(exportFrom, exportTo)
	if err != nil {
		return err
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	pipeline, cleanup, err := newPipeline(ctx, cfg, logger, exportDryRun)
	if err != nil {
		return err
	}
	defer cleanup()

	var reports []*converter.Report
	if exportSplit == splitMonth {
		reports, err = pipeline.ExportVouchersByMonth(ctx, period, exportDryRun)
	} else {
		var report *converter.Report
		report, err = pipeline.ExportVouchers(ctx, period, exportDryRun)
		if report != nil {
			reports = append(reports, report)
		}
	}

	printReports(reports, exportDryRun)

	return err
}

// printReports writes the run summaries to stdout.
func printReports(reports []*converter.Report, dryRun bool) {
	if dryRun {
		fmt.Println("Dry run: no files were written.")
	}
	for _, report := range reports {
		fmt.Println()
		utils.FormatSummary(os.Stdout, report.Summary)
		if report.ErrorLog != "" {
			fmt.Printf("Error log: %s\n", report.ErrorLog)
		}
	}
}
