// =============================================================================
// CSV Reconciler - Reconciliation Engine
// =============================================================================
//
// This module compares two tabular datasets ("fin" and "spo") per customer.
//
// PIPELINE:
//   1. Check that both tables carry the name and amount columns
//   2. Normalize every amount; rows with an unusable amount are dropped
//   3. Sum the remaining amounts per exact customer name
//   4. Outer-join both sides, absent totals count as zero
//   5. Keep customers whose difference (fin - spo) is nonzero
//
// A structural failure on either table aborts before any row is processed, so
// there is never a partial result.
//
// =============================================================================

package reconciler

import (
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/csv-reconciler/internal/logging"
	"github.com/ginjaninja78/csv-reconciler/internal/types"
	"github.com/ginjaninja78/csv-reconciler/internal/validation"
)

// Default column names.
const (
	DefaultNameColumn   = "name"
	DefaultAmountColumn = "amount"
)

// Reconciler compares fin and spo tables.
type Reconciler struct {
	nameColumn   string
	amountColumn string
	arithmetic   Arithmetic
	logger       *zerolog.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithColumns overrides the customer-name and amount headers.
func WithColumns(name, amount string) Option {
	return func(r *Reconciler) {
		if name != "" {
			r.nameColumn = name
		}
		if amount != "" {
			r.amountColumn = amount
		}
	}
}

// WithArithmetic selects float or decimal arithmetic.
func WithArithmetic(a Arithmetic) Option {
	return func(r *Reconciler) {
		r.arithmetic = a
	}
}

// WithLogger sets the logger used for row-level warnings.
func WithLogger(l *zerolog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Reconciler using the "name" and "amount" columns and float
// arithmetic unless overridden.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{
		nameColumn:   DefaultNameColumn,
		amountColumn: DefaultAmountColumn,
		arithmetic:   Float,
		logger:       logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile runs a default Reconciler over the two tables.
func Reconcile(fin, spo *types.Table) (*Result, error) {
	return New().Reconcile(fin, spo)
}

// Reconcile compares the fin and spo tables.
//
// PARAMETERS:
//   - fin: The financial-system table.
//   - spo: The sales/payment-operations table.
//
// RETURNS:
//   - The discrepancy report, or a *validation.ColumnError when either table
//     lacks a required column.
func (r *Reconciler) Reconcile(fin, spo *types.Table) (*Result, error) {
	if err := r.Check(fin); err != nil {
		return nil, err
	}
	if err := r.Check(spo); err != nil {
		return nil, err
	}

	finRecords, finReport := r.records(fin)
	spoRecords, spoReport := r.records(spo)

	finTotals := Group(FilterValid(finRecords), r.arithmetic)
	spoTotals := Group(FilterValid(spoRecords), r.arithmetic)

	res := Diff(finTotals, spoTotals, r.arithmetic)
	res.Diagnostics = Diagnostics{
		Arithmetic: r.arithmetic,
		Fin:        DatasetDiagnostics{Report: finReport, Customers: len(finTotals)},
		Spo:        DatasetDiagnostics{Report: spoReport, Customers: len(spoTotals)},
	}

	r.logger.Debug().
		Str("arithmetic", r.arithmetic.String()).
		Int("fin_customers", len(finTotals)).
		Int("spo_customers", len(spoTotals)).
		Int("discrepancies", len(res.Discrepancies)).
		Float64("total_difference", res.TotalDifference).
		Msg("Computed discrepancies")

	return res, nil
}

// Check verifies that a table carries the name and amount columns.
func (r *Reconciler) Check(table *types.Table) error {
	return validation.RequireColumns(table, r.nameColumn, r.amountColumn)
}

// records extracts one Record per data row and reports the unusable ones.
func (r *Reconciler) records(table *types.Table) ([]Record, *validation.Report) {
	nameIdx := table.ColumnIndex(r.nameColumn)
	amountIdx := table.ColumnIndex(r.amountColumn)

	report := validation.NewReport(table.Label)
	records := make([]Record, 0, table.RowCount())

	for i := 0; i < table.RowCount(); i++ {
		row := i + 1
		name := table.Cell(i, nameIdx).String()
		rec := NewRecord(name, table.Cell(i, amountIdx), row)

		if !rec.Valid {
			report.InvalidAmount(row, r.amountColumn, rec.Raw)
			r.logger.Debug().
				Str("dataset", table.Label).
				Int("row", row).
				Str("value", rec.Raw.String()).
				Msg("Dropping row with non-numeric amount")
		} else if name == "" {
			report.EmptyName(row, r.nameColumn)
			r.logger.Warn().
				Str("dataset", table.Label).
				Int("row", row).
				Msg("Row has an empty customer name")
		}

		records = append(records, rec)
	}
	report.RowsRead = len(records)

	if report.RowsDropped > 0 {
		r.logger.Warn().
			Str("dataset", table.Label).
			Int("dropped", report.RowsDropped).
			Int("rows", report.RowsRead).
			Msg("Dropped rows with non-numeric amounts")
	}

	return records, report
}
