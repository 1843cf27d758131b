// =============================================================================
// Voucher Export - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (tally-export)
//   ├── exportCmd  (tally-export export)
//   ├── ledgersCmd (tally-export ledgers)
//   ├── historyCmd (tally-export history list|show)
//   └── versionCmd (tally-export version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration for the subcommands
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/tally-voucher-export/internal/config"
	"github.com/ginjaninja78/tally-voucher-export/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tally-export",
	Short: "Tally Voucher Export - Export accounting vouchers as Tally XML",
	Long: `Tally Voucher Export reads accounting vouchers from a CSV leg file or a
MongoDB database and writes them as a Tally XML import file.

Key Features:
  - Party ledger resolution per voucher type
  - Alias tables for account, voucher type and account group names
  - Partial failure: failed vouchers are reported, the rest are exported
  - Concurrent transformation with input order preserved
  - Ledger master export and a local history of runs

Example Usage:
  tally-export export --from 2022-04-01 --to 2022-04-30
  tally-export export --from 2022-04-01 --to 2023-03-31 --split month
  tally-export ledgers --config ./prod.yaml
  tally-export history list`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. Interrupts cancel the running export.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultPath,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// setup loads the configuration and builds the logger.
func setup() (*config.MainConfig, *zap.Logger, error) {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load main config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}

	logger, err := logging.New(level, cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}

	logger.Debug("configuration loaded",
		zap.String("config", cfgFile),
		zap.String("source", cfg.Source.Kind),
		zap.String("output_dir", cfg.OutputDir))

	return cfg, logger, nil
}
