// =============================================================================
// Voucher Export - Voucher Assembly
// =============================================================================
//
// This file turns one RawVoucher into one Voucher.
//
// PIPELINE (per voucher):
//   1. Classify the voucher type (alias-resolved display name)
//   2. For each leg, in leg order:
//      a. Look up the account name in the directory
//      b. Rename it through the account alias table
//      c. Classify the leg's account type
//      d. Build the ledger entry
//   3. Resolve the party ledger on leg order
//   4. Sort the entries for display (all types except Journal)
//
// Steps 3 and 4 key on the alias-resolved type name, so a voucher type
// renamed by an alias gets an empty party and sorted entries.
//
// The Transformer holds only read-only reference data, so one instance can
// serve any number of goroutines.
//
// =============================================================================

package voucher

import (
	"fmt"
	"sort"
)

// Transformer converts raw vouchers using the reference data of one run.
type Transformer struct {
	accounts     Directory
	accountNames Resolver
	accountTypes *AccountTypeClassifier
	voucherTypes *VoucherTypeClassifier
}

// TransformerOptions carries the alias tables of a run. Nil tables are
// allowed and mean "no renames".
type TransformerOptions struct {
	AccountAliases     Resolver
	AccountTypeAliases Resolver
	VoucherTypeAliases Resolver
}

// NewTransformer creates a Transformer over an account directory.
func NewTransformer(accounts Directory, opts TransformerOptions) *Transformer {
	return &Transformer{
		accounts:     accounts,
		accountNames: opts.AccountAliases,
		accountTypes: NewAccountTypeClassifier(opts.AccountTypeAliases),
		voucherTypes: NewVoucherTypeClassifier(opts.VoucherTypeAliases),
	}
}

// Transform runs the full per-voucher pipeline. Every error wraps one of the
// package sentinels so callers can report it with KindOf.
func (t *Transformer) Transform(raw RawVoucher) (Voucher, error) {
	_, typeName, err := t.voucherTypes.Classify(raw.VoucherTypeCode)
	if err != nil {
		return Voucher{}, err
	}

	legs := make([]PartyLeg, 0, len(raw.Legs))
	for i, trn := range raw.Legs {
		leg, err := t.buildLeg(trn)
		if err != nil {
			return Voucher{}, fmt.Errorf("leg %d: %w", i+1, err)
		}
		legs = append(legs, leg)
	}

	return Assemble(raw, typeName, legs)
}

// buildLeg resolves and classifies a single leg.
func (t *Transformer) buildLeg(trn Transaction) (PartyLeg, error) {
	account, ok := t.accounts[trn.AccountID]
	if !ok {
		return PartyLeg{}, fmt.Errorf("%w: %q", ErrUnknownAccount, trn.AccountID)
	}

	accountType, err := ParseAccountType(trn.AccountTypeCode)
	if err != nil {
		return PartyLeg{}, fmt.Errorf("account %q: %w", account.Name, err)
	}

	name := resolve(t.accountNames, account.Name)

	return PartyLeg{
		Entry:       NewLedgerEntry(name, trn.Amount),
		AccountType: accountType,
	}, nil
}

// ClassifyAccountType exposes the run's account-type classifier, used by the
// ledger master export.
func (t *Transformer) ClassifyAccountType(code string) (string, error) {
	return t.accountTypes.Classify(code)
}

// LedgerName returns the ledger name an account is exported under.
func (t *Transformer) LedgerName(account Account) string {
	return resolve(t.accountNames, account.Name)
}

// Assemble resolves the party on leg order and then applies the display
// ordering.
//
// PARAMETERS:
//   - raw: The source voucher; only its header fields are read.
//   - typeName: The alias-resolved voucher-type name, which drives the party
//     rules and the Journal ordering exemption.
//   - legs: Ledger entries with their account types, in leg order.
func Assemble(raw RawVoucher, typeName string, legs []PartyLeg) (Voucher, error) {
	party, err := ResolveParty(typeName, legs)
	if err != nil {
		return Voucher{}, err
	}

	entries := make([]LedgerEntry, len(legs))
	for i, leg := range legs {
		entries[i] = leg.Entry
	}

	if typeName != JournalVoucher.Name() {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Amount.GreaterThan(entries[j].Amount)
		})
	}

	return Voucher{
		Date:            raw.Date,
		Reference:       raw.RefNo,
		ReferenceDate:   raw.RefDate,
		VoucherTypeName: typeName,
		PartyLedgerName: party,
		VoucherNumber:   raw.VoucherNo,
		LedgerEntries:   entries,
	}, nil
}
