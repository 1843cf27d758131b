package voucher

import (
	"fmt"
)

// NewDocument wraps vouchers, in order, into the export envelope.
func NewDocument(vouchers []Voucher) ExportDocument {
	messages := make([]Message, len(vouchers))
	for i, v := range vouchers {
		messages[i] = Message{Voucher: []Voucher{v}}
	}

	return ExportDocument{
		Envelope: Envelope{
			Body: Body{
				ImportData: ImportData{
					RequestData: RequestData{Messages: messages},
				},
			},
		},
	}
}

// CheckConsistency verifies the invariants every assembled voucher must
// hold. A failure is a bug in the pipeline, not a data problem.
func CheckConsistency(v Voucher, legCount int) error {
	if legCount > 0 && len(v.LedgerEntries) == 0 {
		return fmt.Errorf("%w: %d legs produced no ledger entries", ErrConsistencyViolation, legCount)
	}
	if v.PartyLedgerName != "" && !v.HasLedger(v.PartyLedgerName) {
		return fmt.Errorf("%w: party ledger %q is not among the voucher's entries", ErrConsistencyViolation, v.PartyLedgerName)
	}
	return nil
}

// AssembleDocument checks every voucher and wraps them. It is the strict
// variant of NewDocument for callers that have not checked each voucher.
func AssembleDocument(vouchers []Voucher) (ExportDocument, error) {
	for i := range vouchers {
		if err := CheckConsistency(vouchers[i], len(vouchers[i].LedgerEntries)); err != nil {
			return ExportDocument{}, fmt.Errorf("voucher %d: %w", i+1, err)
		}
	}
	return NewDocument(vouchers), nil
}
