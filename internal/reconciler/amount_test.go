package reconciler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ginjaninja78/csv-reconciler/internal/types"
)

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		name  string
		input types.Value
		want  float64
		valid bool
	}{
		{"thousands separator and whitespace", types.Text(" 1,234.50 "), 1234.50, true},
		{"plain integer text", types.Text("100"), 100, true},
		{"negative", types.Text("-40.25"), -40.25, true},
		{"several separators", types.Text("1,000,000"), 1000000, true},
		{"leading dot", types.Text(".5"), 0.5, true},
		{"exponent", types.Text("1e3"), 1000, true},
		{"number passes through", types.Number(42.5), 42.5, true},
		{"zero number", types.Number(0), 0, true},
		{"word", types.Text("abc"), 0, false},
		{"empty string", types.Text(""), 0, false},
		{"only whitespace", types.Text("   "), 0, false},
		{"only commas", types.Text(",,"), 0, false},
		{"trailing garbage", types.Text("12abc"), 0, false},
		{"currency symbol", types.Text("$12"), 0, false},
		{"empty cell", types.Empty(), 0, false},
		{"nan text", types.Text("NaN"), 0, false},
		{"inf text", types.Text("inf"), 0, false},
		{"hex float", types.Text("0x1p4"), 0, false},
		{"signed hex", types.Text("-0X10"), 0, false},
		{"leading zero", types.Text("0012.5"), 12.5, true},
		{"nan number", types.Number(math.NaN()), 0, false},
		{"inf number", types.Number(math.Inf(-1)), 0, false},
		{"overflow", types.Text("1e400"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeAmount(tt.input)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.want, got.Float)
				assert.Equal(t, tt.want, got.Exact.InexactFloat64())
			}
		})
	}
}

func TestNormalizeAmountExactDecimal(t *testing.T) {
	got, ok := NormalizeAmount(types.Text("0.1"))
	assert.True(t, ok)
	assert.Equal(t, "0.1", got.Exact.String())
}
