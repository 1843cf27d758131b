// =============================================================================
// Voucher Export - Ledger Masters
// =============================================================================
//
// This module builds ledger master records from the account directory, so
// that every ledger a voucher refers to can be created in the target books
// before the vouchers are imported.
//
// Each account that carries an account-type code becomes one ledger:
//   NAME   - the account name, renamed through the account alias table
//   PARENT - the classified account type, renamed through the account-type
//            alias table
//
// An account with an unknown type code fails on its own; the other ledgers
// are still built.
//
// =============================================================================

package masters

import (
	"fmt"

	"github.com/ginjaninja78/tally-voucher-export/internal/voucher"
)

// Ledger is one ledger master record.
type Ledger struct {
	Name   string
	Parent string
}

// Document is the ledger export payload, one ledger per message.
type Document struct {
	Ledgers []Ledger
}

// Failure is an account that could not be turned into a ledger.
type Failure struct {
	AccountID   string
	AccountName string
	Err         error
	Kind        voucher.Kind
}

// Result is the outcome of a ledger export.
type Result struct {
	Document Document
	Failures []Failure
	// Skipped counts accounts without a type code or outside the name
	// filter.
	Skipped int
}

// Build turns accounts into ledger masters, in directory order.
//
// PARAMETERS:
//   - accounts: The account directory.
//   - t: The run's transformer, which owns the alias tables.
//   - names: Optional account names to export. Empty exports all.
//
// RETURNS:
//   - The ledgers and the per-account failures.
func Build(accounts []voucher.Account, t *voucher.Transformer, names ...string) Result {
	var wanted map[string]bool
	if len(names) > 0 {
		wanted = make(map[string]bool, len(names))
		for _, name := range names {
			wanted[name] = true
		}
	}

	var result Result
	for _, account := range accounts {
		if wanted != nil && !wanted[account.Name] {
			result.Skipped++
			continue
		}
		if account.TypeCode == "" {
			result.Skipped++
			continue
		}

		parent, err := t.ClassifyAccountType(account.TypeCode)
		if err != nil {
			result.Failures = append(result.Failures, Failure{
				AccountID:   account.ID,
				AccountName: account.Name,
				Err:         fmt.Errorf("account %q: %w", account.Name, err),
				Kind:        voucher.KindOf(err),
			})
			continue
		}

		result.Document.Ledgers = append(result.Document.Ledgers, Ledger{
			Name:   t.LedgerName(account),
			Parent: parent,
		})
	}

	return result
}
