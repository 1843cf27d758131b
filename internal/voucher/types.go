// =============================================================================
// Voucher Export - Voucher Types
// =============================================================================
//
// This file contains the data model shared by the voucher pipeline. Types
// defined here are used by:
//   - converter   (run orchestration)
//   - csvparser   (CSV leg source)
//   - source      (MongoDB source)
//   - validation  (data-quality checks)
//   - xmlwriter   (Tally XML encoder)
//
// INPUT SIDE:
//   Account, Transaction, RawVoucher
//
// OUTPUT SIDE:
//   LedgerEntry, Voucher, ExportDocument (Envelope -> Body -> ImportData ->
//   RequestData -> Message)
//
// =============================================================================

package voucher

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayouts are the accepted layouts of a voucher date.
var DateLayouts = []string{"2006-01-02", "20060102"}

// ParseDate reads a voucher date in any of DateLayouts.
func ParseDate(date string) (time.Time, error) {
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q is neither YYYY-MM-DD nor YYYYMMDD", date)
}

// =============================================================================
// INPUT TYPES
// =============================================================================

// Account is a read-only entry of the account directory.
type Account struct {
	// ID is the identifier referenced by Transaction.AccountID.
	ID string

	// Name is the account name as held in the source system.
	Name string

	// TypeCode is the internal account-type code. It is only needed by the
	// ledger master export and may be empty for voucher exports.
	TypeCode string
}

// Directory maps account ids to accounts for the duration of one run.
type Directory map[string]Account

// NewDirectory builds a Directory from a list of accounts. Later entries
// with the same id replace earlier ones.
func NewDirectory(accounts []Account) Directory {
	dir := make(Directory, len(accounts))
	for _, acc := range accounts {
		dir[acc.ID] = acc
	}
	return dir
}

// Transaction is one debit/credit leg of a voucher.
type Transaction struct {
	// AccountID references an Account in the Directory.
	AccountID string

	// Amount is credit minus debit: positive = credit, negative = debit.
	Amount decimal.Decimal

	// AccountTypeCode is the internal account-type code of the leg.
	AccountTypeCode string
}

// RawVoucher is the input unit of work. One RawVoucher yields exactly one
// Voucher or one error.
type RawVoucher struct {
	Date            string
	RefNo           *string
	RefDate         *string
	VoucherTypeCode string
	VoucherNo       *string
	Legs            []Transaction
}

// =============================================================================
// OUTPUT TYPES
// =============================================================================

// LedgerEntry is one line of a voucher in the target vocabulary.
type LedgerEntry struct {
	LedgerName       string
	IsDeemedPositive bool
	Amount           decimal.Decimal
}

// DeemedPositive renders the positivity flag the way the import format
// expects it.
func (e LedgerEntry) DeemedPositive() string {
	if e.IsDeemedPositive {
		return "Yes"
	}
	return "No"
}

// Voucher is the transformed voucher handed to the encoder. Field order
// follows the import format.
type Voucher struct {
	Date            string
	Reference       *string
	ReferenceDate   *string
	VoucherTypeName string
	PartyLedgerName string
	VoucherNumber   *string
	LedgerEntries   []LedgerEntry
}

// HasLedger reports whether name is one of the voucher's ledger names.
func (v *Voucher) HasLedger(name string) bool {
	for _, e := range v.LedgerEntries {
		if e.LedgerName == name {
			return true
		}
	}
	return false
}

// ExportDocument is the fixed four-level wrapper around the vouchers.
type ExportDocument struct {
	Envelope Envelope
}

// Envelope is the outermost level of the document.
type Envelope struct {
	Body Body
}

// Body holds the import block.
type Body struct {
	ImportData ImportData
}

// ImportData holds the request block.
type ImportData struct {
	RequestData RequestData
}

// RequestData carries one Message per input voucher, in input order.
type RequestData struct {
	Messages []Message
}

// Message wraps a single voucher.
type Message struct {
	Voucher []Voucher
}

// Vouchers flattens the document back into its vouchers, in order.
func (d *ExportDocument) Vouchers() []Voucher {
	var out []Voucher
	for _, msg := range d.Envelope.Body.ImportData.RequestData.Messages {
		out = append(out, msg.Voucher...)
	}
	return out
}
