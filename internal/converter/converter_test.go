package converter

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/tally-voucher-export/internal/voucher"
)

func testTransformer() *voucher.Transformer {
	return voucher.NewTransformer(voucher.NewDirectory([]voucher.Account{
		{ID: "cust", Name: "Acme Traders"},
		{ID: "sales", Name: "Sales"},
		{ID: "gst", Name: "Output GST"},
		{ID: "cap", Name: "Capital"},
		{ID: "bank", Name: "HDFC Bank"},
	}), voucher.TransformerOptions{})
}

func leg(account, accountType, amount string) voucher.Transaction {
	return voucher.Transaction{
		AccountID:       account,
		Amount:          decimal.RequireFromString(amount),
		AccountTypeCode: accountType,
	}
}

func raw(no, voucherType string, legs ...voucher.Transaction) voucher.RawVoucher {
	return voucher.RawVoucher{
		Date:            "2022-04-01",
		VoucherTypeCode: voucherType,
		VoucherNo:       &no,
		Legs:            legs,
	}
}

func sale(no string) voucher.RawVoucher {
	return raw(no, "SALE",
		leg("cust", "TRADE_RECEIVABLE", "-118"),
		leg("sales", "SALE", "100"),
		leg("gst", "GST_PAYABLE", "18"),
	)
}

func journal(no string) voucher.RawVoucher {
	return raw(no, "JOURNAL",
		leg("cap", "EQUITY", "50"),
		leg("bank", "BANK_ACCOUNT", "-50"),
	)
}

func newConverter(concurrency int, continueOnError bool) *Converter {
	return New(testTransformer(), nil, Options{MaxConcurrency: concurrency, ContinueOnError: continueOnError}, nil)
}

func TestRunKeepsInputOrder(t *testing.T) {
	var raws []voucher.RawVoucher
	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			raws = append(raws, sale(fmt.Sprintf("S-%03d", i)))
		} else {
			raws = append(raws, journal(fmt.Sprintf("J-%03d", i)))
		}
	}

	result, err := newConverter(16, true).Run(context.Background(), raws)
	require.NoError(t, err)
	require.Equal(t, 200, result.Succeeded)

	vouchers := result.Document.Vouchers()
	require.Len(t, vouchers, 200)
	for i, v := range vouchers {
		assert.Equal(t, *raws[i].VoucherNo, *v.VoucherNumber)
		assert.Equal(t, i+1, result.Results[i].Position)
	}
}

func TestRunTransformsVouchers(t *testing.T) {
	result, err := newConverter(2, true).Run(context.Background(), []voucher.RawVoucher{sale("S-1"), journal("J-1")})
	require.NoError(t, err)

	vouchers := result.Document.Vouchers()
	require.Len(t, vouchers, 2)

	s := vouchers[0]
	assert.Equal(t, "Sales", s.VoucherTypeName)
	assert.Equal(t, "Acme Traders", s.PartyLedgerName)
	require.Len(t, s.LedgerEntries, 3)
	assert.Equal(t, "Sales", s.LedgerEntries[0].LedgerName)
	assert.Equal(t, "Output GST", s.LedgerEntries[1].LedgerName)
	assert.Equal(t, "Acme Traders", s.LedgerEntries[2].LedgerName)

	j := vouchers[1]
	assert.Equal(t, "Journal", j.VoucherTypeName)
	assert.Equal(t, "Capital", j.PartyLedgerName)
	assert.Equal(t, "Capital", j.LedgerEntries[0].LedgerName)

	assert.Equal(t, 5, result.Stats.LegsProcessed)
	assert.Equal(t, 5, result.Stats.EntriesCreated)
	assert.NotEmpty(t, result.RunID)
}

func TestRunPartialFailure(t *testing.T) {
	raws := []voucher.RawVoucher{
		sale("S-1"),
		raw("S-2", "SALE", leg("ghost", "TRADE_RECEIVABLE", "-10"), leg("sales", "SALE", "10")),
		raw("S-3", "SALE", leg("sales", "SALE", "10"), leg("gst", "GST_PAYABLE", "-10")),
		journal("J-1"),
	}

	result, err := newConverter(4, true).Run(context.Background(), raws)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 2, result.Failed)

	failures := result.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, 2, failures[0].Position)
	assert.Equal(t, "S-2", failures[0].VoucherNo)
	assert.Equal(t, "2022-04-01", failures[0].Date)
	assert.Equal(t, voucher.KindUnknownAccount, failures[0].Kind)
	assert.True(t, errors.Is(failures[0].Err, voucher.ErrUnknownAccount))
	assert.Equal(t, "NoPartyCandidate", failures[1].KindName())

	vouchers := result.Document.Vouchers()
	require.Len(t, vouchers, 2)
	assert.Equal(t, "S-1", *vouchers[0].VoucherNumber)
	assert.Equal(t, "J-1", *vouchers[1].VoucherNumber)
}

func TestRunStopsWhenErrorsAreNotTolerated(t *testing.T) {
	raws := []voucher.RawVoucher{sale("S-1"), raw("X-1", "BARTER", leg("cap", "EQUITY", "1"))}

	result, err := newConverter(2, false).Run(context.Background(), raws)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVouchersFailed))
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, voucher.KindUnknownVoucherType, result.Failures()[0].Kind)
}

func TestRunReportsWarnings(t *testing.T) {
	unbalanced := raw("J-9", "JOURNAL", leg("cap", "EQUITY", "50"), leg("bank", "BANK_ACCOUNT", "-40"))

	result, err := newConverter(1, true).Run(context.Background(), []voucher.RawVoucher{unbalanced})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Warnings)
	require.Len(t, result.Results[0].Warnings(), 1)
	assert.Equal(t, "balanced", result.Results[0].Warnings()[0].Rule)
}

func TestRunIsDeterministic(t *testing.T) {
	raws := []voucher.RawVoucher{sale("S-1"), journal("J-1"), sale("S-2")}

	first, err := newConverter(3, true).Run(context.Background(), raws)
	require.NoError(t, err)
	second, err := newConverter(1, true).Run(context.Background(), raws)
	require.NoError(t, err)

	assert.Equal(t, first.Document, second.Document)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunEmptyInput(t *testing.T) {
	result, err := newConverter(4, false).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, result.Total)
	assert.Empty(t, result.Document.Vouchers())
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newConverter(2, true).Run(ctx, []voucher.RawVoucher{sale("S-1"), journal("J-1")})
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, context.Canceled))
}
