// =============================================================================
// CSV Reconciler - Tabular Reports
// =============================================================================
//
// This module renders the discrepancy report as an aligned text table for
// terminals, or as CSV.
//
// =============================================================================

package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/ginjaninja78/csv-reconciler/internal/reconciler"
)

// Column headers shared by the tabular formats.
var columns = []string{"name", "amount_numeric_fin", "amount_numeric_spo", "difference"}

// TableFormatter outputs an aligned text table with a total row.
type TableFormatter struct{}

// Format implements the Formatter interface for table output.
func (f *TableFormatter) Format(w io.Writer, res *reconciler.Result) error {
	if res.Balanced() {
		_, err := fmt.Fprintln(w, "No discrepancies found.")
		return err
	}

	right := []tw.Align{tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignRight}
	config := tablewriter.Config{}
	config.Row.Alignment = tw.CellAlignment{PerColumn: right}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(config))
	table.Header("Name", "Fin", "Spo", "Difference")

	for _, row := range res.Discrepancies {
		if err := table.Append(
			row.Name,
			formatAmount(row.FinTotal),
			formatAmount(row.SpoTotal),
			formatAmount(row.Difference),
		); err != nil {
			return err
		}
	}
	if err := table.Append("TOTAL", "", "", formatAmount(res.TotalDifference)); err != nil {
		return err
	}

	return table.Render()
}

// writeCSV outputs a header line, one line per discrepancy and no total; the
// total is recomputable from the difference column.
func writeCSV(w io.Writer, res *reconciler.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, row := range res.Discrepancies {
		record := []string{
			row.Name,
			formatAmount(row.FinTotal),
			formatAmount(row.SpoTotal),
			formatAmount(row.Difference),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
