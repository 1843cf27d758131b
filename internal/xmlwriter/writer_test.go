package xmlwriter

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/tally-voucher-export/internal/masters"
	"github.com/ginjaninja78/tally-voucher-export/internal/voucher"
)

// decoded mirrors the import format for reading generated output back.
type decoded struct {
	XMLName  xml.Name `xml:"ENVELOPE"`
	Messages []struct {
		Vouchers []struct {
			Date          string  `xml:"DATE"`
			Reference     *string `xml:"REFERENCE"`
			ReferenceDate *string `xml:"REFERENCEDATE"`
			TypeName      string  `xml:"VOUCHERTYPENAME"`
			Party         string  `xml:"PARTYLEDGERNAME"`
			Number        *string `xml:"VOUCHERNUMBER"`
			Entries       []struct {
				LedgerName     string `xml:"LEDGERNAME"`
				DeemedPositive string `xml:"ISDEEMEDPOSITIVE"`
				Amount         string `xml:"AMOUNT"`
			} `xml:"ALLLEDGERENTRIES.LIST"`
		} `xml:"VOUCHER"`
		Ledgers []struct {
			Name     string `xml:"NAME,attr"`
			Parent   string `xml:"PARENT"`
			LangName string `xml:"LANGUAGENAME.LIST>NAME.LIST>NAME"`
		} `xml:"LEDGER"`
	} `xml:"BODY>IMPORTDATA>REQUESTDATA>TALLYMESSAGE"`
}

func strPtr(s string) *string { return &s }

func entry(name, amount string) voucher.LedgerEntry {
	return voucher.NewLedgerEntry(name, decimal.RequireFromString(amount))
}

func TestGenerateVoucherDocument(t *testing.T) {
	doc := voucher.NewDocument([]voucher.Voucher{
		{
			Date:            "2022-04-01",
			Reference:       strPtr("INV-9"),
			ReferenceDate:   strPtr("20220331"),
			VoucherTypeName: "Sales",
			PartyLedgerName: "Cash",
			VoucherNumber:   strPtr("S-1"),
			LedgerEntries: []voucher.LedgerEntry{
				entry("Sales", "100.50"),
				entry("Cash", "-100.50"),
			},
		},
		{
			Date:            "2022-04-02",
			VoucherTypeName: "Journal",
			LedgerEntries:   []voucher.LedgerEntry{entry("A & B", "5")},
		},
	})

	out, err := Generate(doc)
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, `<?xml version="1.0" encoding="UTF-8"?>`+"\n<ENVELOPE>"))
	assert.Contains(t, text, "<LEDGERNAME>A &amp; B</LEDGERNAME>")
	assert.Contains(t, text, "<PARTYLEDGERNAME/>")

	var got decoded
	require.NoError(t, xml.Unmarshal(out, &got))
	require.Len(t, got.Messages, 2)

	first := got.Messages[0].Vouchers
	require.Len(t, first, 1)
	assert.Equal(t, "2022-04-01", first[0].Date)
	assert.Equal(t, "INV-9", *first[0].Reference)
	assert.Equal(t, "20220331", *first[0].ReferenceDate)
	assert.Equal(t, "Sales", first[0].TypeName)
	assert.Equal(t, "Cash", first[0].Party)
	assert.Equal(t, "S-1", *first[0].Number)
	require.Len(t, first[0].Entries, 2)
	assert.Equal(t, "Sales", first[0].Entries[0].LedgerName)
	assert.Equal(t, "No", first[0].Entries[0].DeemedPositive)
	assert.Equal(t, "100.50", first[0].Entries[0].Amount)
	assert.Equal(t, "Yes", first[0].Entries[1].DeemedPositive)
	assert.Equal(t, "-100.50", first[0].Entries[1].Amount)

	second := got.Messages[1].Vouchers[0]
	assert.Nil(t, second.Reference)
	assert.Nil(t, second.ReferenceDate)
	assert.Nil(t, second.Number)
	assert.Equal(t, "", second.Party)
	assert.Equal(t, "A & B", second.Entries[0].LedgerName)
}

func TestOptionalFieldsAreOmitted(t *testing.T) {
	doc := voucher.NewDocument([]voucher.Voucher{{
		Date:            "2022-04-02",
		VoucherTypeName: "Payment",
		PartyLedgerName: "Bank",
		LedgerEntries:   []voucher.LedgerEntry{entry("Bank", "-1")},
	}})

	out, err := GenerateWithOptions(doc, GenerateOptions{Indent: ""})
	require.NoError(t, err)

	text := string(out)
	assert.False(t, strings.HasPrefix(text, "<?xml"))
	assert.NotContains(t, text, TagReference)
	assert.NotContains(t, text, TagVoucherNumber)
	assert.Contains(t, text, "<VOUCHER>\n<DATE>2022-04-02</DATE>\n<VOUCHERTYPENAME>Payment</VOUCHERTYPENAME>\n<PARTYLEDGERNAME>Bank</PARTYLEDGERNAME>\n<ALLLEDGERENTRIES.LIST>")
}

func TestGenerateEmptyDocument(t *testing.T) {
	out, err := Generate(voucher.NewDocument(nil))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<REQUESTDATA/>")

	var got decoded
	require.NoError(t, xml.Unmarshal(out, &got))
	assert.Empty(t, got.Messages)
}

func TestGenerateLedgers(t *testing.T) {
	out, err := GenerateLedgers(masters.Document{Ledgers: []masters.Ledger{
		{Name: "Cash-in-Hand", Parent: "Cash"},
		{Name: "Sales", Parent: "Sales Accounts"},
	}})
	require.NoError(t, err)

	var got decoded
	require.NoError(t, xml.Unmarshal(out, &got))
	require.Len(t, got.Messages, 2)
	require.Len(t, got.Messages[0].Ledgers, 1)

	ledger := got.Messages[0].Ledgers[0]
	assert.Equal(t, "Cash-in-Hand", ledger.Name)
	assert.Equal(t, "Cash", ledger.Parent)
	assert.Equal(t, "Cash-in-Hand", ledger.LangName)
	assert.Equal(t, "Sales Accounts", got.Messages[1].Ledgers[0].Parent)
}

func TestFormatAmount(t *testing.T) {
	tests := map[string]string{
		"100.50":  "100.50",
		"-0.10":   "-0.10",
		"7":       "7",
		"1.23456": "1.23456",
		"-250":    "-250",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatAmount(decimal.RequireFromString(in)), in)
	}

	sum := decimal.RequireFromString("10.25").Sub(decimal.RequireFromString("0.25"))
	assert.Equal(t, "10.00", FormatAmount(sum))
}
