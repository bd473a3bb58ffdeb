// =============================================================================
// CSV Reconciler - Legacy Workbook Parser
// =============================================================================
//
// This module reads the first sheet of a BIFF (.xls) workbook with the same
// header and data row rules as the XLSX parser.
//
// =============================================================================

package xlsxparser

import (
	"fmt"

	"github.com/shakinm/xlsReader/xls"

	"github.com/ginjaninja78/csv-reconciler/internal/config"
	"github.com/ginjaninja78/csv-reconciler/internal/csvparser"
	"github.com/ginjaninja78/csv-reconciler/internal/types"
)

// ParseXLSFile reads the first sheet of a legacy BIFF (.xls) workbook. Every
// non-empty cell is read as text; the amount normalizer parses numbers from
// their displayed form.
func ParseXLSFile(filePath, label string, settings config.CSVSettings) (*types.Table, error) {
	book, err := xls.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open xls workbook: %w", err)
	}

	sheet, err := book.GetSheet(0)
	if err != nil || sheet == nil {
		return nil, fmt.Errorf("%w: xls workbook has no sheets", ErrSheetNotFound)
	}

	var allRows [][]string
	for _, row := range sheet.GetRows() {
		var cells []string
		for _, col := range row.GetCols() {
			cells = append(cells, col.GetString())
		}
		allRows = append(allRows, cells)
	}

	headers, err := csvparser.ExtractHeaders(allRows, settings)
	if err != nil {
		return nil, err
	}

	startIndex := settings.DataStartRow - 1
	if startIndex < settings.HeaderRows {
		startIndex = max(settings.HeaderRows, 1)
	}

	rows := [][]types.Value{}
	for r := startIndex; r < len(allRows); r++ {
		if isRowEmpty(allRows[r]) {
			continue
		}
		values := make([]types.Value, len(allRows[r]))
		for c, cell := range allRows[r] {
			if cell == "" {
				values[c] = types.Empty()
			} else {
				values[c] = types.Text(cell)
			}
		}
		rows = append(rows, values)
	}

	return &types.Table{
		Label:      label,
		SourceFile: filePath,
		Headers:    headers,
		Rows:       rows,
	}, nil
}
