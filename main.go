// =============================================================================
// Tally Voucher Export - Main Entry Point
// =============================================================================
//
// This is the main entry point for the voucher export CLI. It delegates
// command execution to the cmd package.
//
// USAGE:
//   tally-export export     - Export the vouchers of a date range
//   tally-export ledgers    - Export ledger masters
//   tally-export history    - Show past runs
//   tally-export version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core business logic (not for external import)
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/tally-voucher-export/cmd"
)

func main() {
	cmd.Execute()
}
