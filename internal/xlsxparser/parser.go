// =============================================================================
// CSV Reconciler - Spreadsheet Parser
// =============================================================================
//
// This module reads a worksheet of an XLSX workbook into a types.Table.
//
// SHEET LAYOUT:
//   The sheet is read like a CSV export: header row(s) first, data rows
//   from the configured data start row. The sheet is chosen by name from
//   CSVSettings.Sheet, or the first sheet when no name is configured.
//
//   | Column A | Column B |
//   |----------|----------|
//   | name     | amount   |
//   | Alice    | 1000     |
//   | Bob      | 1,250.50 |
//
// CELL VALUES:
//   - Numeric cells become number values (no text round trip)
//   - String, boolean, date and error cells become text values, as displayed
//   - Empty cells become empty values
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/csv-reconciler/internal/config"
	"github.com/ginjaninja78/csv-reconciler/internal/csvparser"
	"github.com/ginjaninja78/csv-reconciler/internal/types"
)

// ErrSheetNotFound is returned when the configured sheet does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseFile reads a worksheet from an XLSX file.
//
// PARAMETERS:
//   - filePath: The path to the workbook.
//   - label: The dataset label stored on the table.
//   - settings: The parsing settings (header rows, data start row, sheet).
//
// RETURNS:
//   - The parsed table.
//   - An error if the workbook cannot be opened or the sheet is missing.
func ParseFile(filePath, label string, settings config.CSVSettings) (*types.Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	table, err := parseWorkbook(f, label, settings)
	if err != nil {
		return nil, err
	}
	table.SourceFile = filePath
	return table, nil
}

// Parse reads a worksheet from an XLSX stream.
func Parse(r io.Reader, label string, settings config.CSVSettings) (*types.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseWorkbook(f, label, settings)
}

// parseWorkbook reads the configured sheet of an open workbook.
func parseWorkbook(f *excelize.File, label string, settings config.CSVSettings) (*types.Table, error) {
	sheetName, err := resolveSheet(f, settings.Sheet)
	if err != nil {
		return nil, err
	}

	// Displayed values for headers and text cells, raw values for numbers.
	displayed, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	raw, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read raw rows: %w", err)
	}

	headers, err := csvparser.ExtractHeaders(displayed, settings)
	if err != nil {
		return nil, err
	}

	startIndex := settings.DataStartRow - 1
	if startIndex < settings.HeaderRows {
		startIndex = max(settings.HeaderRows, 1)
	}

	rows := [][]types.Value{}
	for r := startIndex; r < len(raw); r++ {
		if isRowEmpty(raw[r]) {
			continue
		}

		values := make([]types.Value, len(raw[r]))
		for c, rawValue := range raw[r] {
			shown := rawValue
			if r < len(displayed) && c < len(displayed[r]) {
				shown = displayed[r][c]
			}
			values[c] = cellValue(f, sheetName, r, c, rawValue, shown)
		}
		rows = append(rows, values)
	}

	return &types.Table{
		Label:   label,
		Headers: headers,
		Rows:    rows,
	}, nil
}

// resolveSheet returns the named sheet, or the first sheet when name is empty.
func resolveSheet(f *excelize.File, name string) (string, error) {
	if name == "" {
		first := f.GetSheetName(0)
		if first == "" {
			return "", ErrSheetNotFound
		}
		return first, nil
	}

	idx, err := f.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return "", fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	return name, nil
}

// cellValue types a single cell. Cells without an explicit type attribute
// are numeric in OOXML, so both unset and number cells parse as numbers.
func cellValue(f *excelize.File, sheet string, row, col int, raw, shown string) types.Value {
	if raw == "" {
		return types.Empty()
	}

	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return types.Text(shown)
	}

	cellType, err := f.GetCellType(sheet, axis)
	if err != nil {
		return types.Text(shown)
	}

	switch cellType {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return types.Number(n)
		}
	}

	return types.Text(shown)
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
