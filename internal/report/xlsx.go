// =============================================================================
// CSV Reconciler - XLSX Report
// =============================================================================
//
// This module writes the discrepancy report as a single-sheet Excel workbook
// using excelize.
//
// =============================================================================

package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/csv-reconciler/internal/reconciler"
)

// DefaultSheetName is the worksheet the XLSX report is written to.
const DefaultSheetName = "Discrepancies"

// XLSXFormatter outputs an Excel workbook with one sheet: a header row, one
// row per discrepancy and a total row.
type XLSXFormatter struct {
	SheetName string
}

// Format implements the Formatter interface for XLSX output.
func (f *XLSXFormatter) Format(w io.Writer, res *reconciler.Result) error {
	sheet := f.SheetName
	if sheet == "" {
		sheet = DefaultSheetName
	}

	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName(book.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range res.Discrepancies {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{row.Name, row.FinTotal, row.SpoTotal, row.Difference}
		if err := book.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	totalRow := len(res.Discrepancies) + 2
	totalCell, err := excelize.CoordinatesToCellName(1, totalRow)
	if err != nil {
		return err
	}
	total := []any{"total_difference", nil, nil, res.TotalDifference}
	if err := book.SetSheetRow(sheet, totalCell, &total); err != nil {
		return fmt.Errorf("failed to write total: %w", err)
	}

	bold, err := book.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCell, err := excelize.CoordinatesToCellName(len(columns), totalRow)
	if err != nil {
		return err
	}
	if err := book.SetCellStyle(sheet, "A1", "D1", bold); err != nil {
		return err
	}
	if err := book.SetCellStyle(sheet, totalCell, lastCell, bold); err != nil {
		return err
	}
	if err := book.SetColWidth(sheet, "A", "A", 30); err != nil {
		return err
	}
	if err := book.SetColWidth(sheet, "B", "D", 20); err != nil {
		return err
	}

	return book.Write(w)
}
