package masters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/tally-voucher-export/internal/alias"
	"github.com/ginjaninja78/tally-voucher-export/internal/voucher"
)

func TestBuild(t *testing.T) {
	accounts := []voucher.Account{
		{ID: "1", Name: "Cash", TypeCode: "CASH"},
		{ID: "2", Name: "Sales A/c", TypeCode: "SALE"},
		{ID: "3", Name: "Output GST", TypeCode: "GST_PAYABLE"},
		{ID: "4", Name: "Suspense"},
		{ID: "5", Name: "Broken", TypeCode: "WHATEVER"},
	}

	transformer := voucher.NewTransformer(voucher.NewDirectory(accounts), voucher.TransformerOptions{
		AccountAliases:     alias.New([]alias.Entry{{SourceName: "Cash", TargetName: "Cash-in-Hand"}}),
		AccountTypeAliases: alias.New([]alias.Entry{{SourceName: "Sale", TargetName: "Sales Accounts"}}),
	})

	result := Build(accounts, transformer)

	assert.Equal(t, []Ledger{
		{Name: "Cash-in-Hand", Parent: "Cash"},
		{Name: "Sales A/c", Parent: "Sales Accounts"},
		{Name: "Output GST", Parent: "GST Payable"},
	}, result.Document.Ledgers)
	assert.Equal(t, 1, result.Skipped)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "5", result.Failures[0].AccountID)
	assert.Equal(t, voucher.KindUnknownAccountType, result.Failures[0].Kind)
	assert.ErrorIs(t, result.Failures[0].Err, voucher.ErrUnknownAccountType)
}

func TestBuildNameFilter(t *testing.T) {
	accounts := []voucher.Account{
		{ID: "1", Name: "Cash", TypeCode: "CASH"},
		{ID: "2", Name: "Bank", TypeCode: "BANK_ACCOUNT"},
	}
	transformer := voucher.NewTransformer(voucher.NewDirectory(accounts), voucher.TransformerOptions{})

	result := Build(accounts, transformer, "Bank")

	assert.Equal(t, []Ledger{{Name: "Bank", Parent: "Bank Account"}}, result.Document.Ledgers)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Failures)
}
