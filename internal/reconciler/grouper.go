// =============================================================================
// CSV Reconciler - Record Grouping
// =============================================================================
//
// This module filters records to those with a usable amount and sums the
// amounts per distinct customer name.
//
// =============================================================================

package reconciler

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/csv-reconciler/internal/types"
)

// Record is one row of a dataset: the customer name, the raw amount cell and
// the 1-indexed data row it came from. Amount and Valid are filled by
// NewRecord.
type Record struct {
	Name   string
	Raw    types.Value
	Row    int
	Amount Amount
	Valid  bool
}

// NewRecord builds a record and normalizes its amount.
func NewRecord(name string, raw types.Value, row int) Record {
	amount, ok := NormalizeAmount(raw)
	return Record{Name: name, Raw: raw, Row: row, Amount: amount, Valid: ok}
}

// FilterValid returns the records whose amount normalized to a usable value.
// Order among the kept records is preserved.
func FilterValid(records []Record) []Record {
	kept := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.Valid {
			kept = append(kept, rec)
		}
	}
	return kept
}

// CustomerTotal is the sum of one customer's valid amounts within a dataset.
type CustomerTotal struct {
	Name  string
	Total float64

	// Exact is the same sum computed with decimal arithmetic.
	Exact decimal.Decimal
}

// Group sums the valid amounts per distinct name. Names match by exact string
// equality, including the empty name. The result is sorted by name and holds
// one entry per name.
//
// Float arithmetic adds float64 values in record order. Decimal arithmetic
// adds exactly and Total is the nearest float64 to the exact sum.
func Group(records []Record, arithmetic Arithmetic) []CustomerTotal {
	index := make(map[string]int)
	totals := make([]CustomerTotal, 0)

	for _, rec := range records {
		if !rec.Valid {
			continue
		}
		i, ok := index[rec.Name]
		if !ok {
			i = len(totals)
			index[rec.Name] = i
			totals = append(totals, CustomerTotal{Name: rec.Name})
		}
		totals[i].Total += rec.Amount.Float
		totals[i].Exact = totals[i].Exact.Add(rec.Amount.Exact)
	}

	if arithmetic == Decimal {
		for i := range totals {
			totals[i].Total = totals[i].Exact.InexactFloat64()
		}
	}

	sort.Slice(totals, func(i, j int) bool { return totals[i].Name < totals[j].Name })
	return totals
}
