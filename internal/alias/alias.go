// =============================================================================
// Voucher Export - Alias Tables
// =============================================================================
//
// An alias table renames source-system names (account names, voucher type
// names, account group names) into the names the target accounting product
// expects. Tables are optional: a name without an alias passes through
// unchanged.
//
// TABLE FORMAT:
//   Two columns, first row is a header, one alias per row:
//
//   | Column A        | Column B         |
//   |-----------------|------------------|
//   | source_name     | target_name      |
//   | Direct Income   | Sales Revenue    |
//   | Cash            | Cash-in-Hand     |
//
//   Both CSV (.csv) and Excel (.xlsx) inputs are accepted. For Excel the
//   first sheet is read.
//
// RESOLUTION:
//   Exact, case-sensitive match on the source name. The first matching row
//   wins, so duplicate source names are allowed but only the first counts.
//
// =============================================================================

package alias

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/tally-voucher-export/internal/xlsxparser"
)

// ErrMalformedTable is returned at load time when a row of an alias table
// cannot be used. A broken table invalidates the whole run.
var ErrMalformedTable = errors.New("malformed alias table")

// =============================================================================
// TABLE
// =============================================================================

// Entry is a single source -> target rename.
type Entry struct {
	SourceName string
	TargetName string
}

// Table is an immutable, ordered set of aliases. The zero value and a nil
// *Table are both valid and resolve every name to itself.
type Table struct {
	entries []Entry
	index   map[string]string
}

// New builds a Table from entries, keeping the first target of any
// duplicated source name.
func New(entries []Entry) *Table {
	t := &Table{
		entries: make([]Entry, len(entries)),
		index:   make(map[string]string, len(entries)),
	}
	copy(t.entries, entries)
	for _, e := range entries {
		if _, exists := t.index[e.SourceName]; !exists {
			t.index[e.SourceName] = e.TargetName
		}
	}
	return t
}

// Resolve returns the target name for name, or name itself when the table
// has no alias for it.
func (t *Table) Resolve(name string) string {
	if t == nil {
		return name
	}
	if target, ok := t.index[name]; ok {
		return target
	}
	return name
}

// Len returns the number of rows loaded, duplicates included.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the rows in load order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads an alias table from path. An empty path yields an empty table,
// which is how "no alias table configured" is expressed.
//
// PARAMETERS:
//   - path: .csv or .xlsx file; the extension selects the reader.
//
// RETURNS:
//   - The loaded table.
//   - An error wrapping ErrMalformedTable for bad rows, or an I/O error.
func Load(path string) (*Table, error) {
	if path == "" {
		return New(nil), nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err := xlsxparser.ReadRows(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read alias table %s: %w", path, err)
		}
		table, err := fromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return table, nil
	default:
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open alias table: %w", err)
		}
		defer file.Close()

		table, err := LoadCSV(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return table, nil
	}
}

// LoadCSV reads a CSV alias table. The first record is the header.
func LoadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)

	// Field counts are checked per row so that a short or long row is
	// reported as a malformed alias rather than a generic CSV error.
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	return fromRows(rows)
}

// fromRows validates header-prefixed rows and builds the table.
func fromRows(rows [][]string) (*Table, error) {
	if len(rows) <= 1 {
		return New(nil), nil
	}

	entries := make([]Entry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		// Row numbers in messages are 1-based and count the header.
		rowNumber := i + 2

		if len(row) != 2 {
			return nil, fmt.Errorf("%w: row %d has %d fields, want 2", ErrMalformedTable, rowNumber, len(row))
		}

		source := strings.TrimSpace(row[0])
		target := strings.TrimSpace(row[1])
		if source == "" {
			return nil, fmt.Errorf("%w: row %d has an empty source name", ErrMalformedTable, rowNumber)
		}
		if target == "" {
			return nil, fmt.Errorf("%w: row %d has an empty target name", ErrMalformedTable, rowNumber)
		}

		entries = append(entries, Entry{SourceName: source, TargetName: target})
	}

	return New(entries), nil
}
