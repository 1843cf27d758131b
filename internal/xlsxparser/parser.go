// =============================================================================
// Voucher Export - XLSX Table Reader
// =============================================================================
//
// This module reads tabular inputs (alias tables, account directories) that
// back-office users maintain in Excel rather than CSV. It returns plain
// string rows so the callers can apply the same validation as for CSV.
//
// SHEET SELECTION:
//   By default the first sheet is read. Sheets whose name starts with "_"
//   are treated as scratch sheets and are never selected.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadRows returns the non-empty rows of the first usable sheet of an XLSX
// workbook.
//
// PARAMETERS:
//   - path: The path to the .xlsx file.
//
// RETURNS:
//   - The rows as string slices, header row included.
//   - An error if the file cannot be opened or has no usable sheet.
func ReadRows(path string) ([][]string, error) {
	return ReadSheetRows(path, "")
}

// ReadSheetRows returns the non-empty rows of the named sheet. An empty
// sheet name selects the first sheet not prefixed with "_".
func ReadSheetRows(path, sheetName string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = firstSheet(f)
		if sheetName == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet '%s': %w", sheetName, err)
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if isRowEmpty(row) {
			continue
		}
		out = append(out, trimRow(row))
	}

	return out, nil
}

// firstSheet returns the first sheet that is not a scratch sheet.
func firstSheet(f *excelize.File) string {
	for _, name := range f.GetSheetList() {
		if strings.HasPrefix(name, "_") {
			continue
		}
		return name
	}
	return ""
}

// isRowEmpty checks if all cells in a row are empty.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// trimRow trims every cell and drops trailing empty cells, which excelize
// can report for formatted but blank columns.
func trimRow(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = strings.TrimSpace(cell)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}
