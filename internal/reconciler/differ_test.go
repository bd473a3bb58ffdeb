package reconciler

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/csv-reconciler/internal/types"
)

func TestFilterValid(t *testing.T) {
	records := []Record{
		NewRecord("a", types.Text("1"), 1),
		NewRecord("b", types.Text("nope"), 2),
		NewRecord("c", types.Empty(), 3),
		NewRecord("d", types.Number(4), 4),
	}

	kept := FilterValid(records)
	require.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].Name)
	assert.Equal(t, "d", kept[1].Name)
}

func TestGroup(t *testing.T) {
	records := []Record{
		NewRecord("b", types.Text("2"), 1),
		NewRecord("a", types.Text("1"), 2),
		NewRecord("b", types.Text("3"), 3),
		NewRecord("a", types.Text("x"), 4),
	}

	totals := Group(records, Float)
	require.Len(t, totals, 2)
	assert.Equal(t, "a", totals[0].Name)
	assert.Equal(t, 1.0, totals[0].Total)
	assert.Equal(t, "b", totals[1].Name)
	assert.Equal(t, 5.0, totals[1].Total)
	assert.True(t, totals[1].Exact.Equal(decimal.NewFromInt(5)))
}

func TestGroupEmpty(t *testing.T) {
	assert.Empty(t, Group(nil, Float))
}

func TestDiffOuterJoin(t *testing.T) {
	fin := []CustomerTotal{
		{Name: "both", Total: 10, Exact: decimal.NewFromInt(10)},
		{Name: "fin-only", Total: 3, Exact: decimal.NewFromInt(3)},
	}
	spo := []CustomerTotal{
		{Name: "both", Total: 4, Exact: decimal.NewFromInt(4)},
		{Name: "spo-only", Total: 2, Exact: decimal.NewFromInt(2)},
	}

	for _, mode := range []Arithmetic{Float, Decimal} {
		t.Run(mode.String(), func(t *testing.T) {
			res := Diff(fin, spo, mode)
			assert.Equal(t, []DiscrepancyRow{
				{Name: "both", FinTotal: 10, SpoTotal: 4, Difference: 6},
				{Name: "fin-only", FinTotal: 3, SpoTotal: 0, Difference: 3},
				{Name: "spo-only", FinTotal: 0, SpoTotal: 2, Difference: -2},
			}, res.Discrepancies)
			assert.Equal(t, 7.0, res.TotalDifference)
		})
	}
}

func TestDiffExcludesZero(t *testing.T) {
	fin := []CustomerTotal{{Name: "z", Total: 0, Exact: decimal.Zero}}
	res := Diff(fin, nil, Float)
	assert.NotNil(t, res.Discrepancies)
	assert.Empty(t, res.Discrepancies)
	assert.Equal(t, 0.0, res.TotalDifference)
}
