package mongo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ginjaninja78/tally-voucher-export/internal/config"
	"github.com/ginjaninja78/tally-voucher-export/internal/source"
)

func decode[T any](t *testing.T, doc bson.D) T {
	t.Helper()
	data, err := bson.Marshal(doc)
	require.NoError(t, err)
	var out T
	require.NoError(t, bson.Unmarshal(data, &out))
	return out
}

func trn(account any, accountType string, credit, debit any) bson.D {
	return bson.D{
		{Key: "account", Value: account},
		{Key: "accountType", Value: accountType},
		{Key: "credit", Value: credit},
		{Key: "debit", Value: debit},
	}
}

func TestVoucherDocToRaw(t *testing.T) {
	oid := primitive.NewObjectID()
	price, err := primitive.ParseDecimal128("118.00")
	require.NoError(t, err)

	doc := decode[voucherDoc](t, bson.D{
		{Key: "date", Value: "2022-04-01"},
		{Key: "voucherType", Value: "SALE"},
		{Key: "voucherNo", Value: "S-7"},
		{Key: "billDate", Value: primitive.NewDateTimeFromTime(time.Date(2022, 3, 30, 0, 0, 0, 0, time.UTC))},
		{Key: "acTrns", Value: bson.A{
			trn(oid, "TRADE_RECEIVABLE", 0.0, price),
			trn("sales", "SALE", 100.0, 0.0),
			trn(int32(9), "GST_PAYABLE", int64(18), nil),
		}},
	})

	raw, err := doc.toRaw()
	require.NoError(t, err)

	assert.Equal(t, "2022-04-01", raw.Date)
	assert.Equal(t, "SALE", raw.VoucherTypeCode)
	require.NotNil(t, raw.VoucherNo)
	assert.Equal(t, "S-7", *raw.VoucherNo)
	assert.Nil(t, raw.RefNo)
	require.NotNil(t, raw.RefDate)
	assert.Equal(t, "20220330", *raw.RefDate)

	require.Len(t, raw.Legs, 3)
	assert.Equal(t, oid.Hex(), raw.Legs[0].AccountID)
	assert.True(t, raw.Legs[0].Amount.Equal(decimal.RequireFromString("-118")))
	assert.Equal(t, "sales", raw.Legs[1].AccountID)
	assert.True(t, raw.Legs[1].Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "9", raw.Legs[2].AccountID)
	assert.True(t, raw.Legs[2].Amount.Equal(decimal.NewFromInt(18)))
}

func TestVoucherDocUnsupportedAmount(t *testing.T) {
	doc := decode[voucherDoc](t, bson.D{
		{Key: "date", Value: "2022-04-01"},
		{Key: "voucherType", Value: "SALE"},
		{Key: "acTrns", Value: bson.A{trn("a", "CASH", true, 0.0)}},
	})

	_, err := doc.toRaw()
	assert.ErrorContains(t, err, "acTrns[0]: credit")
}

func TestAccountDoc(t *testing.T) {
	oid := primitive.NewObjectID()
	doc := decode[accountDoc](t, bson.D{
		{Key: "_id", Value: oid},
		{Key: "name", Value: "Cash"},
		{Key: "accountType", Value: "CASH"},
	})

	account := doc.toAccount()
	assert.Equal(t, oid.Hex(), account.ID)
	assert.Equal(t, "Cash", account.Name)
	assert.Equal(t, "CASH", account.TypeCode)
}

func TestSplitAndMergeCashSales(t *testing.T) {
	sale := func(date string, regType string, trns ...bson.D) voucherDoc {
		legs := bson.A{}
		for _, leg := range trns {
			legs = append(legs, leg)
		}
		fields := bson.D{
			{Key: "date", Value: date},
			{Key: "voucherType", Value: "SALE"},
			{Key: "acTrns", Value: legs},
		}
		if regType != "" {
			fields = append(fields, bson.E{Key: "partyGst", Value: bson.D{{Key: "regType", Value: regType}}})
		}
		return decode[voucherDoc](t, fields)
	}

	docs := []voucherDoc{
		sale("2022-04-02", "", trn("cash", "CASH", 0.0, 10.105), trn("sales", "SALE", 10.105, 0.0)),
		sale("2022-04-01", "", trn("cash", "CASH", 0.0, 5.0), trn("sales", "SALE", 5.0, 0.0)),
		sale("2022-04-01", "", trn("cash", "CASH", 0.0, 7.5), trn("sales", "SALE", 7.5, 0.0)),
		sale("2022-04-01", "", trn("bank", "BANK_ACCOUNT", 0.0, 3.0), trn("sales", "SALE", 3.0, 0.0)),
		sale("2022-04-01", "REGULAR", trn("cash", "CASH", 0.0, 4.0), trn("sales", "SALE", 4.0, 0.0)),
	}

	cash, credit := splitCashSales(docs)
	assert.Len(t, cash, 3)
	assert.Len(t, credit, 2)

	merged, err := mergeCashSales(cash)
	require.NoError(t, err)
	require.Len(t, merged, 2)

	assert.Equal(t, "2022-04-01", merged[0].Date)
	assert.Nil(t, merged[0].VoucherNo)
	require.Len(t, merged[0].Legs, 2)
	assert.Equal(t, "cash", merged[0].Legs[0].AccountID)
	assert.Equal(t, "-12.5", merged[0].Legs[0].Amount.String())
	assert.Equal(t, "12.5", merged[0].Legs[1].Amount.String())

	assert.Equal(t, "2022-04-02", merged[1].Date)
	assert.Equal(t, "-10.11", merged[1].Legs[0].Amount.String())
}

func TestDateFilter(t *testing.T) {
	assert.Equal(t, bson.D{}, dateFilter(source.Period{}))
	assert.Equal(t,
		bson.D{{Key: "date", Value: bson.D{
			{Key: "$gte", Value: "2022-04-01"},
			{Key: "$lte", Value: "2022-04-30"},
		}}},
		dateFilter(source.Period{From: "2022-04-01", To: "2022-04-30"}),
	)
	assert.Equal(t,
		bson.D{{Key: "date", Value: bson.D{{Key: "$lte", Value: "2022-04-30"}}}},
		dateFilter(source.Period{To: "2022-04-30"}),
	)
}

func configWith(uri, database string) config.SourceConfig {
	return config.SourceConfig{Mongo: config.MongoSourceConfig{URI: uri, Database: database}}
}

func TestNewRequiresURIAndDatabase(t *testing.T) {
	_, err := New(t.Context(), configWith("", "acme"), nil)
	assert.ErrorIs(t, err, ErrEmptyURI)

	_, err = New(t.Context(), configWith("mongodb://localhost:27017", ""), nil)
	assert.ErrorIs(t, err, ErrEmptyDatabaseName)
}
