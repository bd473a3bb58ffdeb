// =============================================================================
// CSV Reconciler - Validation Engine
// =============================================================================
//
// This module checks the structure of the input tables and collects the
// row-level anomalies found while reconciling them.
//
// VALIDATION STRATEGY:
//   Validation is performed at two levels:
//   1. Table-level: the required columns must be present (structural, fatal)
//   2. Row-level: unusable amounts are recorded as warnings (never fatal)
//
// ERROR HANDLING:
//   - Structural errors are returned immediately as a single *ColumnError
//   - Row-level warnings are collected on a Report, not returned
//   - Each warning carries the dataset, row number, field and value
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ginjaninja78/csv-reconciler/internal/types"
)

// =============================================================================
// STRUCTURAL ERRORS
// =============================================================================

// ErrMissingColumn is matched by every *ColumnError.
var ErrMissingColumn = errors.New("missing required column")

// ColumnError reports the required columns a table does not have.
type ColumnError struct {
	// Dataset is the label of the table ("fin" or "spo").
	Dataset string

	// Missing lists the required headers that were not found.
	Missing []string

	// Headers lists the headers the table does have.
	Headers []string
}

// Error implements the error interface.
func (e *ColumnError) Error() string {
	quoted := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		quoted[i] = fmt.Sprintf("%q", m)
	}
	return fmt.Sprintf("%s dataset is missing required column %s (found: %s)",
		e.Dataset, strings.Join(quoted, ", "), strings.Join(e.Headers, ", "))
}

// Is implements errors.Is support.
func (e *ColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// RequireColumns checks that the table has every column, by exact,
// case-sensitive header match.
//
// PARAMETERS:
//   - table: The parsed input table.
//   - columns: The required headers.
//
// RETURNS:
//   - nil, or a *ColumnError naming every missing column.
func RequireColumns(table *types.Table, columns ...string) error {
	var missing []string
	for _, col := range columns {
		if table.ColumnIndex(col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ColumnError{
		Dataset: table.Label,
		Missing: missing,
		Headers: append([]string(nil), table.Headers...),
	}
}

// =============================================================================
// ROW-LEVEL WARNINGS
// =============================================================================

// Severity levels.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Rules recorded on warnings.
const (
	RuleInvalidAmount = "invalid_amount"
	RuleEmptyName     = "empty_name"
)

// ValidationError represents a single row-level finding.
type ValidationError struct {
	// Severity is "warning" or "error".
	Severity string

	// Dataset is the label of the table the row belongs to.
	Dataset string

	// RowNumber is the 1-indexed data row number.
	RowNumber int

	// Field is the column that triggered the finding.
	Field string

	// Value is the raw cell value.
	Value string

	// Rule is the rule that was violated.
	Rule string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s row %d, field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.Dataset,
		e.RowNumber,
		e.Field,
		e.Message,
		e.Value,
	)
}

// Report collects the row-level findings for one dataset.
type Report struct {
	// Dataset is the label of the table.
	Dataset string

	// RowsRead is the number of data rows seen.
	RowsRead int

	// RowsDropped is the number of rows discarded for an invalid amount.
	RowsDropped int

	// Warnings holds every finding in row order.
	Warnings []*ValidationError
}

// NewReport creates an empty report for a dataset.
func NewReport(dataset string) *Report {
	return &Report{Dataset: dataset}
}

// InvalidAmount records a row dropped for an unusable amount.
func (r *Report) InvalidAmount(row int, field string, value types.Value) {
	r.RowsDropped++
	r.Warnings = append(r.Warnings, &ValidationError{
		Severity:  SeverityWarning,
		Dataset:   r.Dataset,
		RowNumber: row,
		Field:     field,
		Value:     value.String(),
		Rule:      RuleInvalidAmount,
		Message:   fmt.Sprintf("amount is not numeric (%s cell), row dropped", value.Kind),
	})
}

// EmptyName records a row grouped under the empty customer name.
func (r *Report) EmptyName(row int, field string) {
	r.Warnings = append(r.Warnings, &ValidationError{
		Severity:  SeverityWarning,
		Dataset:   r.Dataset,
		RowNumber: row,
		Field:     field,
		Rule:      RuleEmptyName,
		Message:   "customer name is empty, row grouped under the empty name",
	})
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats findings for display or logging.
func FormatErrors(errs []*ValidationError) string {
	if len(errs) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d finding(s):\n\n", len(errs)))

	for i, err := range errs {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
