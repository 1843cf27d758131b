// =============================================================================
// Voucher Export - CSV Parser Module
// =============================================================================
//
// This module reads vouchers and the account directory from CSV exports.
//
// LEG FILE FORMAT:
//   One row per leg. The first row is the header row. Column names are
//   matched case-insensitively.
//
//     voucher_id,date,voucher_type,voucher_no,ref_no,ref_date,account_id,account_type,amount
//
//   Either "amount" (positive = credit) or the pair "credit"/"debit" must
//   be present. voucher_no, ref_no and ref_date are optional; empty cells
//   are treated as absent.
//
//   Rows are grouped into vouchers by the group-by column (default
//   "voucher_id"). Vouchers come out in the order their first leg appears,
//   and legs keep file order inside each voucher.
//
// ACCOUNT FILE FORMAT:
//     id,name[,account_type]
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/tally-voucher-export/internal/config"
	"github.com/ginjaninja78/tally-voucher-export/internal/voucher"
)

// Column names of the leg and account files.
const (
	ColDate        = "date"
	ColVoucherType = "voucher_type"
	ColVoucherNo   = "voucher_no"
	ColRefNo       = "ref_no"
	ColRefDate     = "ref_date"
	ColAccountID   = "account_id"
	ColAccountType = "account_type"
	ColAmount      = "amount"
	ColCredit      = "credit"
	ColDebit       = "debit"

	ColID   = "id"
	ColName = "name"
)

// ErrMissingColumn is returned when a required column is not in the header.
var ErrMissingColumn = errors.New("missing required column")

// =============================================================================
// LEG FILE
// =============================================================================

// ParseLegsFile opens a leg file and parses it with ParseLegs.
func ParseLegsFile(filePath string, settings config.CSVSourceConfig) ([]voucher.RawVoucher, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	vouchers, err := ParseLegs(bufio.NewReader(file), settings)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return vouchers, nil
}

// ParseLegs reads leg rows and groups them into raw vouchers.
//
// PARAMETERS:
//   - r: The CSV input, header row first.
//   - settings: Delimiter and group-by column.
//
// RETURNS:
//   - The vouchers in first-seen order.
//   - An error naming the row when a cell cannot be parsed or a required
//     column is missing.
func ParseLegs(r io.Reader, settings config.CSVSourceConfig) ([]voucher.RawVoucher, error) {
	table, err := readTable(r, settings.Delimiter)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, nil
	}

	groupBy := strings.ToLower(strings.TrimSpace(settings.GroupByField))
	if groupBy == "" {
		groupBy = "voucher_id"
	}

	required := []string{groupBy, ColDate, ColVoucherType, ColAccountID, ColAccountType}
	if err := table.require(required...); err != nil {
		return nil, err
	}

	_, hasAmount := table.columns[ColAmount]
	_, hasCredit := table.columns[ColCredit]
	_, hasDebit := table.columns[ColDebit]
	if !hasAmount && !(hasCredit && hasDebit) {
		return nil, fmt.Errorf("%w: %q or %q and %q", ErrMissingColumn, ColAmount, ColCredit, ColDebit)
	}

	var vouchers []voucher.RawVoucher
	index := make(map[string]int)

	for _, row := range table.rows {
		id := row.get(groupBy)
		if id == "" {
			return nil, fmt.Errorf("row %d: empty %s", row.number, groupBy)
		}

		var amount decimal.Decimal
		if hasAmount {
			cell := row.get(ColAmount)
			if cell == "" {
				return nil, fmt.Errorf("row %d: empty %s", row.number, ColAmount)
			}
			amount, err = parseAmount(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid %s: %w", row.number, ColAmount, err)
			}
		} else {
			credit, err := parseAmount(row.get(ColCredit))
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid %s: %w", row.number, ColCredit, err)
			}
			debit, err := parseAmount(row.get(ColDebit))
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid %s: %w", row.number, ColDebit, err)
			}
			amount = credit.Sub(debit)
		}

		leg := voucher.Transaction{
			AccountID:       row.get(ColAccountID),
			Amount:          amount,
			AccountTypeCode: row.get(ColAccountType),
		}

		if i, ok := index[id]; ok {
			vouchers[i].Legs = append(vouchers[i].Legs, leg)
			continue
		}

		index[id] = len(vouchers)
		vouchers = append(vouchers, voucher.RawVoucher{
			Date:            row.get(ColDate),
			RefNo:           optional(row.get(ColRefNo)),
			RefDate:         optional(row.get(ColRefDate)),
			VoucherTypeCode: row.get(ColVoucherType),
			VoucherNo:       optional(row.get(ColVoucherNo)),
			Legs:            []voucher.Transaction{leg},
		})
	}

	return vouchers, nil
}

// =============================================================================
// ACCOUNT FILE
// =============================================================================

// ParseAccountsFile opens an account file and parses it with ParseAccounts.
func ParseAccountsFile(filePath string, settings config.CSVSourceConfig) ([]voucher.Account, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	accounts, err := ParseAccounts(bufio.NewReader(file), settings)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return accounts, nil
}

// ParseAccounts reads the account directory. The account_type column is
// optional and only used by the ledger master export.
func ParseAccounts(r io.Reader, settings config.CSVSourceConfig) ([]voucher.Account, error) {
	table, err := readTable(r, settings.Delimiter)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, nil
	}

	if err := table.require(ColID, ColName); err != nil {
		return nil, err
	}

	accounts := make([]voucher.Account, 0, len(table.rows))
	for _, row := range table.rows {
		account := voucher.Account{
			ID:       row.get(ColID),
			Name:     row.get(ColName),
			TypeCode: row.get(ColAccountType),
		}
		if account.ID == "" {
			return nil, fmt.Errorf("row %d: empty %s", row.number, ColID)
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// =============================================================================
// TABLE READING
// =============================================================================

// table is a header-indexed view of a CSV file.
type table struct {
	columns map[string]int
	rows    []row
}

// row is one non-empty data row with its 1-indexed line number.
type row struct {
	number  int
	cells   []string
	columns map[string]int
}

func (r row) get(column string) string {
	i, ok := r.columns[column]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (t *table) require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if _, ok := t.columns[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// readTable reads the whole input. It returns nil for an empty input.
func readTable(r io.Reader, delimiter string) (*table, error) {
	csvReader := csv.NewReader(r)
	configureReader(csvReader, delimiter)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(allRows) == 0 {
		return nil, nil
	}

	columns := make(map[string]int, len(allRows[0]))
	for i, header := range allRows[0] {
		name := strings.ToLower(strings.TrimSpace(header))
		if name == "" {
			continue
		}
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}

	t := &table{columns: columns}
	for i, cells := range allRows[1:] {
		if isRowEmpty(cells) {
			continue
		}
		t.rows = append(t.rows, row{number: i + 2, cells: cells, columns: columns})
	}

	return t, nil
}

// configureReader configures the CSV reader for the given delimiter.
func configureReader(reader *csv.Reader, delimiter string) {
	switch delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(delimiter) > 0 {
			reader.Comma = rune(delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Short rows are allowed; missing cells read as empty.
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseAmount parses a decimal cell. An empty cell is zero, which only the
// credit and debit columns allow.
func parseAmount(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
