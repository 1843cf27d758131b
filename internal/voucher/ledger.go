package voucher

import (
	"github.com/shopspring/decimal"
)

// NewLedgerEntry builds the ledger entry for one leg. The account name must
// already be alias-resolved. IsDeemedPositive is set for debits (amount < 0).
func NewLedgerEntry(ledgerName string, amount decimal.Decimal) LedgerEntry {
	return LedgerEntry{
		LedgerName:       ledgerName,
		IsDeemedPositive: amount.IsNegative(),
		Amount:           amount,
	}
}
