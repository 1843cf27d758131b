package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/tally-voucher-export/internal/config"
	"github.com/ginjaninja78/tally-voucher-export/internal/voucher"
)

func TestPeriodContains(t *testing.T) {
	p := Period{From: "2022-04-01", To: "2022-04-30"}

	tests := []struct {
		date string
		want bool
	}{
		{"2022-04-01", true},
		{"2022-04-30", true},
		{"2022-03-31", false},
		{"2022-05-01", false},
		{"20220415", true},
		{"20220430", true},
		{"20220501", false},
		{"20220331", false},
	}
	for _, tt := range tests {
		got, err := p.Contains(tt.date)
		require.NoError(t, err, tt.date)
		assert.Equal(t, tt.want, got, tt.date)
	}

	_, err := p.Contains("15/04/2022")
	assert.Error(t, err)

	ok, err := Period{}.Contains("not a date")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Period{From: "2022-04-01"}.Contains("20991231")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "start_2022-04-30", Period{To: "2022-04-30"}.String())
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2022-04-01", "2022-05-31")
	require.NoError(t, err)
	assert.Equal(t, Period{From: "2022-04-01", To: "2022-05-31"}, p)

	_, err = ParsePeriod("2022-13-01", "")
	assert.ErrorContains(t, err, "invalid from date")

	_, err = ParsePeriod("2022-05-01", "2022-04-01")
	assert.ErrorContains(t, err, "before")
}

func TestSplitMonths(t *testing.T) {
	periods, err := SplitMonths(Period{From: "2022-04-15", To: "2022-06-10"})
	require.NoError(t, err)
	assert.Equal(t, []Period{
		{From: "2022-04-15", To: "2022-04-30"},
		{From: "2022-05-01", To: "2022-05-31"},
		{From: "2022-06-01", To: "2022-06-10"},
	}, periods)

	periods, err = SplitMonths(Period{From: "2023-02-01", To: "2023-02-28"})
	require.NoError(t, err)
	assert.Equal(t, []Period{{From: "2023-02-01", To: "2023-02-28"}}, periods)

	periods, err = SplitMonths(Period{From: "2022-12-20", To: "2023-01-05"})
	require.NoError(t, err)
	assert.Len(t, periods, 2)
	assert.Equal(t, "2022-12-31", periods[0].To)

	_, err = SplitMonths(Period{From: "2022-04-01"})
	assert.Error(t, err)
}

func TestFilterLegs(t *testing.T) {
	input := []voucher.RawVoucher{{
		VoucherTypeCode: "SALE",
		Legs: []voucher.Transaction{
			{AccountID: "cash", Amount: decimal.NewFromInt(-10), AccountTypeCode: "CASH"},
			{AccountID: "item", Amount: decimal.NewFromInt(10), AccountTypeCode: "STOCK"},
		},
	}}

	filtered := FilterLegs(input, []string{"STOCK"})
	require.Len(t, filtered, 1)
	require.Len(t, filtered[0].Legs, 1)
	assert.Equal(t, "cash", filtered[0].Legs[0].AccountID)
	assert.Len(t, input[0].Legs, 2, "input untouched")

	assert.Equal(t, input, FilterLegs(input, nil))
}

func TestCSVSource(t *testing.T) {
	dir := t.TempDir()
	legs := filepath.Join(dir, "legs.csv")
	accounts := filepath.Join(dir, "accounts.csv")

	require.NoError(t, os.WriteFile(legs, []byte(
		"voucher_id,date,voucher_type,account_id,account_type,amount\n"+
			"1,2022-03-31,SALE,cash,CASH,-1\n"+
			"2,2022-04-01,SALE,cash,CASH,-5\n"+
			"2,2022-04-01,SALE,stock,STOCK,0\n"+
			"2,2022-04-01,SALE,sales,SALE,5\n"), 0o644))
	require.NoError(t, os.WriteFile(accounts, []byte("id,name\ncash,Cash\nsales,Sales\n"), 0o644))

	src := NewCSV(config.SourceConfig{
		ExcludeAccountTypes: []string{"STOCK"},
		CSV:                 config.CSVSourceConfig{VouchersFile: legs, AccountsFile: accounts, GroupByField: "voucher_id"},
	})
	ctx := context.Background()

	accs, err := src.Accounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accs, 2)

	vouchers, err := src.Vouchers(ctx, Period{From: "2022-04-01", To: "2022-04-30"})
	require.NoError(t, err)
	require.Len(t, vouchers, 1)
	assert.Len(t, vouchers[0].Legs, 2)
	assert.NoError(t, src.Close(ctx))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = src.Vouchers(cancelled, Period{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCSVSourceCompactDates(t *testing.T) {
	dir := t.TempDir()
	legs := filepath.Join(dir, "legs.csv")

	require.NoError(t, os.WriteFile(legs, []byte(
		"voucher_id,date,voucher_type,account_id,account_type,amount\n"+
			"1,20220331,SALE,cash,CASH,-1\n"+
			"2,20220415,SALE,cash,CASH,-5\n"+
			"2,20220415,SALE,sales,SALE,5\n"), 0o644))

	src := NewCSV(config.SourceConfig{
		CSV: config.CSVSourceConfig{VouchersFile: legs, GroupByField: "voucher_id"},
	})
	ctx := context.Background()

	vouchers, err := src.Vouchers(ctx, Period{From: "2022-04-01", To: "2022-04-30"})
	require.NoError(t, err)
	require.Len(t, vouchers, 1)
	assert.Equal(t, "20220415", vouchers[0].Date)

	all, err := src.Vouchers(ctx, Period{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCSVSourceUnreadableDate(t *testing.T) {
	dir := t.TempDir()
	legs := filepath.Join(dir, "legs.csv")

	require.NoError(t, os.WriteFile(legs, []byte(
		"voucher_id,date,voucher_type,account_id,account_type,amount\n"+
			"1,2022-04-01,SALE,cash,CASH,-5\n"+
			"2,15/04/2022,SALE,cash,CASH,-5\n"), 0o644))

	src := NewCSV(config.SourceConfig{
		CSV: config.CSVSourceConfig{VouchersFile: legs, GroupByField: "voucher_id"},
	})

	_, err := src.Vouchers(context.Background(), Period{From: "2022-04-01", To: "2022-04-30"})
	assert.ErrorContains(t, err, "voucher 2")
}
