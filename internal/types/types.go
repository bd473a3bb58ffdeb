// =============================================================================
// CSV Reconciler - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - csvparser / xlsxparser (producers of Tables)
//   - pipeline (field transformations)
//   - reconciler (consumer of Tables)
//
// =============================================================================

package types

import (
	"strconv"
)

// =============================================================================
// CELL VALUES
// =============================================================================

// Kind tags the variant held by a Value.
type Kind int

const (
	// KindEmpty is a missing cell or a cell type the parsers do not support.
	KindEmpty Kind = iota

	// KindText is a cell read as text (every CSV cell, XLSX string cells).
	KindText

	// KindNumber is a cell the source already typed as numeric (XLSX number
	// cells).
	KindNumber
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "empty"
	}
}

// Value is a single cell of a tabular source. Exactly one of Text or Number
// is meaningful, selected by Kind.
type Value struct {
	Kind   Kind
	Text   string
	Number float64
}

// Text returns a text Value.
func Text(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{Kind: KindNumber, Number: f}
}

// Empty returns the empty Value.
func Empty() Value {
	return Value{}
}

// IsEmpty reports whether the value carries nothing.
func (v Value) IsEmpty() bool {
	return v.Kind == KindEmpty
}

// String renders the value the way it would appear in a text source.
// Empty values render as "".
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// =============================================================================
// TABLES
// =============================================================================

// Table is one tabular source after parsing: a header row and the data rows
// below it. Rows may be shorter than Headers; missing cells read as empty.
type Table struct {
	// Label names the dataset this table plays in a reconciliation
	// ("fin" or "spo").
	Label string

	// SourceFile is the path the table was read from, if any.
	SourceFile string

	// Headers contains the column headers in source order.
	Headers []string

	// Rows contains the data rows. Rows[i][j] is the cell under Headers[j].
	Rows [][]Value
}

// ColumnIndex returns the position of the header that equals name exactly,
// or -1 if the table has no such column.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns the cell at row, col, or the empty Value when the row is
// shorter than col.
func (t *Table) Cell(row, col int) Value {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return Empty()
	}
	return t.Rows[row][col]
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}
