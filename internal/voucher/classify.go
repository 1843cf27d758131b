package voucher

import (
	"fmt"
)

// Resolver renames a canonical name into the target vocabulary. *alias.Table
// implements it.
type Resolver interface {
	Resolve(name string) string
}

// =============================================================================
// ACCOUNT TYPES
// =============================================================================

// AccountType is the closed set of internal account-type codes.
type AccountType string

const (
	DirectIncome      AccountType = "DIRECT_INCOME"
	IndirectIncome    AccountType = "INDIRECT_INCOME"
	Sale              AccountType = "SALE"
	DirectExpense     AccountType = "DIRECT_EXPENSE"
	IndirectExpense   AccountType = "INDIRECT_EXPENSE"
	PurchaseAccount   AccountType = "PURCHASE"
	FixedAsset        AccountType = "FIXED_ASSET"
	CurrentAsset      AccountType = "CURRENT_ASSET"
	LongTermLiability AccountType = "LONGTERM_LIABILITY"
	CurrentLiability  AccountType = "CURRENT_LIABILITY"
	Equity            AccountType = "EQUITY"
	Cash              AccountType = "CASH"
	Stock             AccountType = "STOCK"
	UndepositedFunds  AccountType = "UNDEPOSITED_FUNDS"
	BankAccount       AccountType = "BANK_ACCOUNT"
	BankODAccount     AccountType = "BANK_OD_ACCOUNT"
	GSTPayable        AccountType = "GST_PAYABLE"
	GSTReceivable     AccountType = "GST_RECEIVABLE"
	EFTAccount        AccountType = "EFT_ACCOUNT"
	Payable           AccountType = "PAYABLE"
	Receivable        AccountType = "RECEIVABLE"
	AccountPayable    AccountType = "ACCOUNT_PAYABLE"
	AccountReceivable AccountType = "ACCOUNT_RECEIVABLE"
	TradePayable      AccountType = "TRADE_PAYABLE"
	TradeReceivable   AccountType = "TRADE_RECEIVABLE"
	BranchTransfer    AccountType = "BRANCH_TRANSFER"
)

var accountTypeNames = map[AccountType]string{
	DirectIncome:      "Direct Income",
	IndirectIncome:    "Indirect Income",
	Sale:              "Sale",
	DirectExpense:     "Direct Expense",
	IndirectExpense:   "Indirect Expense",
	PurchaseAccount:   "Purchase",
	FixedAsset:        "Fixed Asset",
	CurrentAsset:      "Current Asset",
	LongTermLiability: "LongTerm Liability",
	CurrentLiability:  "Current Liability",
	Equity:            "Equity",
	Cash:              "Cash",
	Stock:             "Stock",
	UndepositedFunds:  "Undeposited Funds",
	BankAccount:       "Bank Account",
	BankODAccount:     "Bank OD Account",
	GSTPayable:        "GST Payable",
	GSTReceivable:     "GST Receivable",
	EFTAccount:        "EFT Account",
	Payable:           "Payable",
	Receivable:        "Receivable",
	AccountPayable:    "Account Payable",
	AccountReceivable: "Account Receivable",
	TradePayable:      "Trade Payable",
	TradeReceivable:   "Trade Receivable",
	BranchTransfer:    "Branch Transfer",
}

// ParseAccountType validates code against the closed set.
func ParseAccountType(code string) (AccountType, error) {
	t := AccountType(code)
	if _, ok := accountTypeNames[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAccountType, code)
	}
	return t, nil
}

// Name returns the canonical display name of a known account type.
func (t AccountType) Name() string {
	return accountTypeNames[t]
}

// IsPartyCandidate reports whether legs of this type can be the party of a
// sales/purchase family voucher.
func (t AccountType) IsPartyCandidate() bool {
	switch t {
	case TradeReceivable, TradePayable, AccountReceivable, AccountPayable,
		Cash, BankAccount, BankODAccount, EFTAccount:
		return true
	}
	return false
}

// AccountTypeClassifier maps account-type codes to alias-resolved names.
type AccountTypeClassifier struct {
	aliases Resolver
}

// NewAccountTypeClassifier creates a classifier. aliases may be nil.
func NewAccountTypeClassifier(aliases Resolver) *AccountTypeClassifier {
	return &AccountTypeClassifier{aliases: aliases}
}

// Classify returns the target name for code, or an error wrapping
// ErrUnknownAccountType.
func (c *AccountTypeClassifier) Classify(code string) (string, error) {
	t, err := ParseAccountType(code)
	if err != nil {
		return "", err
	}
	return resolve(c.aliases, t.Name()), nil
}

// =============================================================================
// VOUCHER TYPES
// =============================================================================

// VoucherType is the closed set of internal voucher-type codes.
type VoucherType string

const (
	SaleVoucher       VoucherType = "SALE"
	CreditNoteVoucher VoucherType = "CREDIT_NOTE"
	PurchaseVoucher   VoucherType = "PURCHASE"
	DebitNoteVoucher  VoucherType = "DEBIT_NOTE"
	PaymentVoucher    VoucherType = "PAYMENT"
	ReceiptVoucher    VoucherType = "RECEIPT"
	JournalVoucher    VoucherType = "JOURNAL"
	ContraVoucher     VoucherType = "CONTRA"
)

var voucherTypeNames = map[VoucherType]string{
	SaleVoucher:       "Sales",
	CreditNoteVoucher: "Credit Note",
	PurchaseVoucher:   "Purchase",
	DebitNoteVoucher:  "Debit Note",
	PaymentVoucher:    "Payment",
	ReceiptVoucher:    "Receipt",
	JournalVoucher:    "Journal",
	ContraVoucher:     "Contra",
}

// ParseVoucherType validates code against the closed set.
func ParseVoucherType(code string) (VoucherType, error) {
	t := VoucherType(code)
	if _, ok := voucherTypeNames[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownVoucherType, code)
	}
	return t, nil
}

// Name returns the canonical display name of a known voucher type.
func (t VoucherType) Name() string {
	return voucherTypeNames[t]
}

// voucherTypeByName maps a canonical display name back to its type. Names
// changed by a voucher-type alias do not match.
func voucherTypeByName(name string) (VoucherType, bool) {
	for t, n := range voucherTypeNames {
		if n == name {
			return t, true
		}
	}
	return "", false
}

// IsTradeFamily reports whether the voucher type selects its party from the
// account/bank/cash-like legs (rule 4 of party resolution).
func (t VoucherType) IsTradeFamily() bool {
	switch t {
	case SaleVoucher, PurchaseVoucher, CreditNoteVoucher, DebitNoteVoucher:
		return true
	}
	return false
}

// VoucherTypeClassifier maps voucher-type codes to alias-resolved names.
type VoucherTypeClassifier struct {
	aliases Resolver
}

// NewVoucherTypeClassifier creates a classifier. aliases may be nil.
func NewVoucherTypeClassifier(aliases Resolver) *VoucherTypeClassifier {
	return &VoucherTypeClassifier{aliases: aliases}
}

// Classify returns the parsed type and its target name, or an error
// wrapping ErrUnknownVoucherType.
func (c *VoucherTypeClassifier) Classify(code string) (VoucherType, string, error) {
	t, err := ParseVoucherType(code)
	if err != nil {
		return "", "", err
	}
	return t, resolve(c.aliases, t.Name()), nil
}

func resolve(r Resolver, name string) string {
	if r == nil {
		return name
	}
	return r.Resolve(name)
}
