package mongo

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ginjaninja78/tally-voucher-export/internal/voucher"
)

// accountDoc is a document of the accounts collection.
type accountDoc struct {
	ID          bson.RawValue `bson:"_id"`
	Name        string        `bson:"name"`
	AccountType string        `bson:"accountType"`
}

func (d accountDoc) toAccount() voucher.Account {
	return voucher.Account{
		ID:       idString(d.ID),
		Name:     d.Name,
		TypeCode: d.AccountType,
	}
}

// voucherDoc is a voucher document. Sales, purchases and plain vouchers
// share this shape.
type voucherDoc struct {
	Date        string        `bson:"date"`
	VoucherType string        `bson:"voucherType"`
	VoucherNo   *string       `bson:"voucherNo"`
	RefNo       *string       `bson:"refNo"`
	BillDate    bson.RawValue `bson:"billDate"`
	PartyGST    *partyGSTDoc  `bson:"partyGst"`
	AcTrns      []trnDoc      `bson:"acTrns"`
}

type partyGSTDoc struct {
	RegType string `bson:"regType"`
}

// trnDoc is one account transaction of a voucher.
type trnDoc struct {
	Account     bson.RawValue `bson:"account"`
	AccountType string        `bson:"accountType"`
	Credit      bson.RawValue `bson:"credit"`
	Debit       bson.RawValue `bson:"debit"`
}

func (d voucherDoc) toRaw() (voucher.RawVoucher, error) {
	legs := make([]voucher.Transaction, 0, len(d.AcTrns))
	for i, trn := range d.AcTrns {
		amount, err := trn.amount()
		if err != nil {
			return voucher.RawVoucher{}, fmt.Errorf("acTrns[%d]: %w", i, err)
		}
		legs = append(legs, voucher.Transaction{
			AccountID:       idString(trn.Account),
			Amount:          amount,
			AccountTypeCode: trn.AccountType,
		})
	}

	return voucher.RawVoucher{
		Date:            d.Date,
		RefNo:           d.RefNo,
		RefDate:         billDate(d.BillDate),
		VoucherTypeCode: d.VoucherType,
		VoucherNo:       d.VoucherNo,
		Legs:            legs,
	}, nil
}

func (t trnDoc) amount() (decimal.Decimal, error) {
	credit, err := decimalOf(t.Credit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("credit: %w", err)
	}
	debit, err := decimalOf(t.Debit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("debit: %w", err)
	}
	return amountOf(credit, debit), nil
}

// =============================================================================
// CASH SALES
// =============================================================================

// Legs of these types make a sale a credit sale.
var creditSaleAccountTypes = map[string]bool{
	"BANK_ACCOUNT":       true,
	"BANK_OD_ACCOUNT":    true,
	"EFT_ACCOUNT":        true,
	"TRADE_RECEIVABLE":   true,
	"ACCOUNT_RECEIVABLE": true,
}

// Parties with these GST registrations are always billed individually.
var registeredGSTTypes = map[string]bool{
	"REGULAR":               true,
	"SPECIAL_ECONOMIC_ZONE": true,
	"OVERSEAS":              true,
	"DEEMED_EXPORT":         true,
}

func (d voucherDoc) isCashSale() bool {
	if d.PartyGST != nil && registeredGSTTypes[d.PartyGST.RegType] {
		return false
	}
	for _, trn := range d.AcTrns {
		if creditSaleAccountTypes[trn.AccountType] {
			return false
		}
	}
	return true
}

// splitCashSales partitions sales into cash-only and credit sales,
// keeping order inside each part.
func splitCashSales(docs []voucherDoc) (cash, credit []voucherDoc) {
	for _, doc := range docs {
		if doc.isCashSale() {
			cash = append(cash, doc)
		} else {
			credit = append(credit, doc)
		}
	}
	return cash, credit
}

// mergeCashSales builds one voucher per date from cash-only sales. Legs are
// summed per account and rounded to two places; the account type and the
// voucher type of the last contributing sale win. Days come out in date
// order; accounts keep first-seen order.
func mergeCashSales(docs []voucherDoc) ([]voucher.RawVoucher, error) {
	type accountTotal struct {
		id          string
		accountType string
		amount      decimal.Decimal
	}
	type day struct {
		date        string
		voucherType string
		accounts    []*accountTotal
		index       map[string]*accountTotal
	}

	var days []*day
	byDate := make(map[string]*day)

	for i, doc := range docs {
		d, ok := byDate[doc.Date]
		if !ok {
			d = &day{date: doc.Date, index: make(map[string]*accountTotal)}
			byDate[doc.Date] = d
			days = append(days, d)
		}
		d.voucherType = doc.VoucherType

		for j, trn := range doc.AcTrns {
			amount, err := trn.amount()
			if err != nil {
				return nil, fmt.Errorf("document %d: acTrns[%d]: %w", i, j, err)
			}
			id := idString(trn.Account)
			total, ok := d.index[id]
			if !ok {
				total = &accountTotal{id: id}
				d.index[id] = total
				d.accounts = append(d.accounts, total)
			}
			total.accountType = trn.AccountType
			total.amount = total.amount.Add(amount)
		}
	}

	sort.SliceStable(days, func(i, j int) bool { return days[i].date < days[j].date })

	merged := make([]voucher.RawVoucher, 0, len(days))
	for _, d := range days {
		legs := make([]voucher.Transaction, 0, len(d.accounts))
		for _, total := range d.accounts {
			legs = append(legs, voucher.Transaction{
				AccountID:       total.id,
				Amount:          total.amount.Round(2),
				AccountTypeCode: total.accountType,
			})
		}
		merged = append(merged, voucher.RawVoucher{
			Date:            d.date,
			VoucherTypeCode: d.voucherType,
			Legs:            legs,
		})
	}

	return merged, nil
}

// =============================================================================
// VALUE CONVERSION
// =============================================================================

// idString renders an account reference. Object ids become their hex form.
func idString(v bson.RawValue) string {
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	if n, ok := v.Int32OK(); ok {
		return strconv.FormatInt(int64(n), 10)
	}
	if n, ok := v.Int64OK(); ok {
		return strconv.FormatInt(n, 10)
	}
	if v.IsZero() {
		return ""
	}
	return v.String()
}

// decimalOf converts a numeric BSON value. Missing and null are zero.
func decimalOf(v bson.RawValue) (decimal.Decimal, error) {
	if v.IsZero() {
		return decimal.Zero, nil
	}
	if d, ok := v.DoubleOK(); ok {
		return decimal.NewFromFloat(d), nil
	}
	if n, ok := v.Int32OK(); ok {
		return decimal.NewFromInt32(n), nil
	}
	if n, ok := v.Int64OK(); ok {
		return decimal.NewFromInt(n), nil
	}
	if d, ok := v.Decimal128OK(); ok {
		return decimal.NewFromString(d.String())
	}
	if s, ok := v.StringValueOK(); ok {
		return decimal.NewFromString(s)
	}
	if v.Type == bson.TypeNull {
		return decimal.Zero, nil
	}
	return decimal.Zero, fmt.Errorf("unsupported amount type %s", v.Type)
}

// billDate renders the bill date as YYYYMMDD.
func billDate(v bson.RawValue) *string {
	var s string
	if ms, ok := v.DateTimeOK(); ok {
		s = time.UnixMilli(ms).UTC().Format("20060102")
	} else if str, ok := v.StringValueOK(); ok && str != "" {
		s = str
	} else {
		return nil
	}
	return &s
}
