// =============================================================================
// CSV Reconciler - Result Types
// =============================================================================
//
// This module defines the arithmetic modes and the reconciliation result.
//
// =============================================================================

package reconciler

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/csv-reconciler/internal/validation"
)

// Arithmetic selects how amounts are summed and compared.
type Arithmetic int

const (
	// Float sums and subtracts float64 values.
	Float Arithmetic = iota

	// Decimal sums and subtracts exact decimal values.
	Decimal
)

// String returns the configuration name of the mode.
func (a Arithmetic) String() string {
	if a == Decimal {
		return "decimal"
	}
	return "float"
}

// ParseArithmetic maps "float" or "decimal" to a mode. The empty string is
// float.
func ParseArithmetic(s string) (Arithmetic, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "float":
		return Float, nil
	case "decimal":
		return Decimal, nil
	default:
		return Float, fmt.Errorf("unknown arithmetic mode %q (want float or decimal)", s)
	}
}

// DiscrepancyRow is one customer whose totals disagree.
type DiscrepancyRow struct {
	Name       string  `json:"name" yaml:"name" xml:"name"`
	FinTotal   float64 `json:"amount_numeric_fin" yaml:"amount_numeric_fin" xml:"amount_numeric_fin"`
	SpoTotal   float64 `json:"amount_numeric_spo" yaml:"amount_numeric_spo" xml:"amount_numeric_spo"`
	Difference float64 `json:"difference" yaml:"difference" xml:"difference"`
}

// Result is the reconciliation outcome. Discrepancies is never nil so that it
// serializes as an empty list.
type Result struct {
	Discrepancies   []DiscrepancyRow `json:"discrepancies" yaml:"discrepancies" xml:"discrepancy"`
	TotalDifference float64          `json:"total_difference" yaml:"total_difference" xml:"total_difference"`

	// Diagnostics is kept out of every serialized form.
	Diagnostics Diagnostics `json:"-" yaml:"-" xml:"-"`
}

// Diagnostics describes how each dataset was processed.
type Diagnostics struct {
	Arithmetic Arithmetic
	Fin        DatasetDiagnostics
	Spo        DatasetDiagnostics
}

// DatasetDiagnostics holds the row-level findings and the number of distinct
// customers for one dataset.
type DatasetDiagnostics struct {
	Report    *validation.Report
	Customers int
}

// Balanced reports whether no discrepancy was found.
func (r *Result) Balanced() bool {
	return len(r.Discrepancies) == 0
}
