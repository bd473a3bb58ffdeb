// =============================================================================
// CSV Reconciler - Amount Normalization
// =============================================================================
//
// This module coerces a raw amount cell into a usable number.
//
// ACCEPTED INPUT:
//   - Numeric cells, when finite
//   - Text holding a decimal number, with any ',' thousands separators
//
// Everything else (words, currency symbols, NaN, infinities, hex floats)
// marks the row as invalid.
//
// =============================================================================

package reconciler

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/csv-reconciler/internal/types"
)

// Amount is a normalized, usable monetary amount. Float drives float
// arithmetic; Exact drives decimal arithmetic.
type Amount struct {
	Float float64
	Exact decimal.Decimal
}

// NormalizeAmount coerces a raw cell into an Amount. The second result is
// false when the cell holds no usable number; that is the "invalid" outcome
// and not an error.
//
// Text cells are trimmed, stripped of every ',' thousands separator and
// parsed as a float. Number cells pass through unchanged. Empty cells, NaN and
// infinities are invalid.
func NormalizeAmount(v types.Value) (Amount, bool) {
	switch v.Kind {
	case types.KindNumber:
		if !finite(v.Number) {
			return Amount{}, false
		}
		return Amount{Float: v.Number, Exact: decimal.NewFromFloat(v.Number)}, true
	case types.KindText:
		return parseAmountText(v.Text)
	default:
		return Amount{}, false
	}
}

func parseAmountText(s string) (Amount, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if cleaned == "" || isHexFloat(cleaned) {
		return Amount{}, false
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || !finite(f) {
		return Amount{}, false
	}

	// Fall back to the float for any spelling decimal rejects.
	exact, err := decimal.NewFromString(cleaned)
	if err != nil {
		exact = decimal.NewFromFloat(f)
	}

	return Amount{Float: f, Exact: exact}, true
}

// isHexFloat reports whether s uses Go's 0x float syntax, which spreadsheet
// exports never produce.
func isHexFloat(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
