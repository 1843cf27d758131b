package voucher

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// PartyLeg is a ledger entry together with the account type of the leg it
// came from. Party resolution needs both.
type PartyLeg struct {
	Entry       LedgerEntry
	AccountType AccountType
}

// ResolveParty selects the party ledger name of a voucher. typeName is the
// alias-resolved voucher-type name; the rules match it against the canonical
// names. legs must be in source leg order, before any display sorting.
//
// RULES (applied in this order, a later rule overwrites an earlier one):
//  1. Contra, Receipt: the last leg with a positive amount.
//  2. Payment: the last leg with a negative amount.
//  3. Journal: the first leg.
//  4. Sales, Purchase, Credit Note, Debit Note: among account/bank/cash-like
//     legs, the one with the largest absolute amount; ties keep leg order.
//     No such leg is an ErrNoPartyCandidate.
//
// Any other name, including one renamed by an alias, leaves the party empty.
func ResolveParty(typeName string, legs []PartyLeg) (string, error) {
	vt, ok := voucherTypeByName(typeName)
	if !ok {
		return "", nil
	}

	var party string

	// Rules 1 and 2 are a single fold in which every qualifying leg
	// overwrites the previous selection.
	for _, leg := range legs {
		amount := leg.Entry.Amount
		switch vt {
		case ContraVoucher, ReceiptVoucher:
			if amount.IsPositive() {
				party = leg.Entry.LedgerName
			}
		case PaymentVoucher:
			if amount.IsNegative() {
				party = leg.Entry.LedgerName
			}
		}
	}

	if vt == JournalVoucher && len(legs) > 0 {
		party = legs[0].Entry.LedgerName
	}

	if vt.IsTradeFamily() {
		name, err := largestCandidate(legs)
		if err != nil {
			return "", err
		}
		party = name
	}

	return party, nil
}

// largestCandidate implements rule 4.
func largestCandidate(legs []PartyLeg) (string, error) {
	type candidate struct {
		name   string
		amount decimal.Decimal
	}

	var candidates []candidate
	for _, leg := range legs {
		if leg.AccountType.IsPartyCandidate() {
			candidates = append(candidates, candidate{
				name:   leg.Entry.LedgerName,
				amount: leg.Entry.Amount.Abs(),
			})
		}
	}

	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no trade, bank or cash leg among %d legs", ErrNoPartyCandidate, len(legs))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].amount.GreaterThan(candidates[j].amount)
	})

	return candidates[0].name, nil
}
