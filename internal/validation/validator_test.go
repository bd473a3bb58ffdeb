package validation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/csv-reconciler/internal/types"
)

func TestRequireColumns(t *testing.T) {
	table := &types.Table{Label: "spo", Headers: []string{"name", "Amount"}}

	assert.NoError(t, RequireColumns(table, "name", "Amount"))

	err := RequireColumns(table, "name", "amount", "region")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", err), ErrMissingColumn))

	var colErr *ColumnError
	require.True(t, errors.As(err, &colErr))
	assert.Equal(t, "spo", colErr.Dataset)
	assert.Equal(t, []string{"amount", "region"}, colErr.Missing)
	assert.Equal(t, []string{"name", "Amount"}, colErr.Headers)
	assert.Contains(t, err.Error(), `"amount"`)
}

func TestReport(t *testing.T) {
	r := NewReport("fin")
	r.InvalidAmount(3, "amount", types.Text("n/a"))
	r.InvalidAmount(4, "amount", types.Empty())
	r.EmptyName(5, "name")

	assert.Equal(t, 2, r.RowsDropped)
	require.Len(t, r.Warnings, 3)

	assert.Equal(t, RuleInvalidAmount, r.Warnings[0].Rule)
	assert.Equal(t, "n/a", r.Warnings[0].Value)
	assert.Equal(t, 3, r.Warnings[0].RowNumber)
	assert.Equal(t, SeverityWarning, r.Warnings[0].Severity)
	assert.Equal(t, RuleEmptyName, r.Warnings[2].Rule)
	assert.Contains(t, r.Warnings[0].Error(), "fin row 3")
}

func TestFormatErrors(t *testing.T) {
	assert.Equal(t, "No validation errors.", FormatErrors(nil))

	r := NewReport("spo")
	r.InvalidAmount(1, "amount", types.Text("x"))
	out := FormatErrors(r.Warnings)
	assert.Contains(t, out, "1 finding(s)")
	assert.Contains(t, out, "1. [WARNING] spo row 1, field 'amount'")
}
