// =============================================================================
// CSV Reconciler - Total Comparison
// =============================================================================
//
// This module outer-joins the per-customer totals of both datasets and
// keeps every name whose difference (fin - spo) is nonzero.
//
// =============================================================================

package reconciler

import (
	"sort"

	"github.com/shopspring/decimal"
)

// joined is one name with each side's total; a side is nil when absent.
type joined struct {
	name string
	fin  *CustomerTotal
	spo  *CustomerTotal
}

// outerJoin matches the two per-customer totals by exact name. Names present
// on only one side keep an absent counterpart. Rows are ordered by name.
func outerJoin(fin, spo []CustomerTotal) []joined {
	index := make(map[string]int, len(fin)+len(spo))
	rows := make([]joined, 0, len(fin)+len(spo))

	for i := range fin {
		index[fin[i].Name] = len(rows)
		rows = append(rows, joined{name: fin[i].Name, fin: &fin[i]})
	}
	for i := range spo {
		if j, ok := index[spo[i].Name]; ok {
			rows[j].spo = &spo[i]
			continue
		}
		index[spo[i].Name] = len(rows)
		rows = append(rows, joined{name: spo[i].Name, spo: &spo[i]})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })
	return rows
}

// totals returns the side's float and exact totals, treating absence as zero.
func totals(ct *CustomerTotal) (float64, decimal.Decimal) {
	if ct == nil {
		return 0, decimal.Zero
	}
	return ct.Total, ct.Exact
}

// Diff compares the per-customer totals of both datasets. For every name on
// either side the difference is fin minus spo, with an absent side counting as
// zero. Only names with a nonzero difference are reported, ordered by name,
// and TotalDifference is the sum of the reported differences.
//
// Each input must hold at most one entry per name, which Group guarantees.
func Diff(fin, spo []CustomerTotal, arithmetic Arithmetic) *Result {
	res := &Result{Discrepancies: []DiscrepancyRow{}}
	exactTotal := decimal.Zero

	for _, row := range outerJoin(fin, spo) {
		finTotal, finExact := totals(row.fin)
		spoTotal, spoExact := totals(row.spo)

		var diff float64
		if arithmetic == Decimal {
			d := finExact.Sub(spoExact)
			if d.IsZero() {
				continue
			}
			exactTotal = exactTotal.Add(d)
			diff = d.InexactFloat64()
		} else {
			diff = finTotal - spoTotal
			if diff == 0 {
				continue
			}
			res.TotalDifference += diff
		}

		res.Discrepancies = append(res.Discrepancies, DiscrepancyRow{
			Name:       row.name,
			FinTotal:   finTotal,
			SpoTotal:   spoTotal,
			Difference: diff,
		})
	}

	if arithmetic == Decimal {
		res.TotalDifference = exactTotal.InexactFloat64()
	}

	return res
}
