package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/ginjaninja78/csv-reconciler/internal/config"
	"github.com/ginjaninja78/csv-reconciler/internal/types"
)

func TestParse(t *testing.T) {
	input := "name,amount\nAlice,\"1,000\"\n Bob , 50 \n,\n\nCarol,\n"

	table, err := Parse(strings.NewReader(input), "fin", config.DefaultCSVSettings())
	require.NoError(t, err)

	assert.Equal(t, "fin", table.Label)
	assert.Equal(t, []string{"name", "amount"}, table.Headers)
	require.Equal(t, 3, table.RowCount())

	assert.Equal(t, types.Text("Alice"), table.Cell(0, 0))
	assert.Equal(t, types.Text("1,000"), table.Cell(0, 1))
	// Cells are kept verbatim.
	assert.Equal(t, types.Text(" Bob "), table.Cell(1, 0))
	assert.Equal(t, types.Text(" 50 "), table.Cell(1, 1))
	assert.Equal(t, types.Empty(), table.Cell(2, 1))
}

func TestParseHeaderOnly(t *testing.T) {
	table, err := Parse(strings.NewReader("name,amount\n"), "spo", config.DefaultCSVSettings())
	require.NoError(t, err)
	assert.Equal(t, 0, table.RowCount())
	assert.NotNil(t, table.Rows)
}

func TestParseEmptyInput(t *testing.T) {
	_, err := Parse(strings.NewReader(""), "spo", config.DefaultCSVSettings())
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestParseStripsBOM(t *testing.T) {
	table, err := Parse(strings.NewReader("\ufeffname,amount\nA,1\n"), "fin", config.DefaultCSVSettings())
	require.NoError(t, err)
	assert.Equal(t, "name", table.Headers[0])
	assert.Equal(t, 0, table.ColumnIndex("name"))
}

func TestParseDelimiters(t *testing.T) {
	tests := []struct {
		delimiter string
		input     string
	}{
		{"|", "name|amount\nA|1\n"},
		{"pipe", "name|amount\nA|1\n"},
		{"tab", "name\tamount\nA\t1\n"},
		{"\\t", "name\tamount\nA\t1\n"},
		{";", "name;amount\nA;1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.delimiter, func(t *testing.T) {
			settings := config.DefaultCSVSettings()
			settings.Delimiter = tt.delimiter

			table, err := Parse(strings.NewReader(tt.input), "fin", settings)
			require.NoError(t, err)
			assert.Equal(t, []string{"name", "amount"}, table.Headers)
			assert.Equal(t, types.Text("1"), table.Cell(0, 1))
		})
	}
}

func TestParseMultiLineHeader(t *testing.T) {
	settings := config.DefaultCSVSettings()
	settings.HeaderRows = 2
	settings.DataStartRow = 3

	input := "Customer,,Extra\nname,amount,\nA,5,x\n"
	table, err := Parse(strings.NewReader(input), "fin", settings)
	require.NoError(t, err)

	assert.Equal(t, []string{"Customer name", "amount", "Extra"}, table.Headers)
	require.Equal(t, 1, table.RowCount())
}

func TestParseDataStartRow(t *testing.T) {
	settings := config.DefaultCSVSettings()
	settings.DataStartRow = 4

	input := "name,amount\nnotes,ignored\n---,---\nA,1\n"
	table, err := Parse(strings.NewReader(input), "fin", settings)
	require.NoError(t, err)
	require.Equal(t, 1, table.RowCount())
	assert.Equal(t, types.Text("A"), table.Cell(0, 0))
}

func TestParseEmptyHeaderNamed(t *testing.T) {
	table, err := Parse(strings.NewReader("name,,amount\nA,x,1\n"), "fin", config.DefaultCSVSettings())
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "Column_2", "amount"}, table.Headers)
}

func TestParseWindows1252(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String("name,amount\nCafé Noël,12\n")
	require.NoError(t, err)

	settings := config.DefaultCSVSettings()
	settings.Encoding = "windows-1252"

	table, err := Parse(strings.NewReader(encoded), "spo", settings)
	require.NoError(t, err)
	assert.Equal(t, types.Text("Café Noël"), table.Cell(0, 0))
}

func TestParseUnknownEncoding(t *testing.T) {
	settings := config.DefaultCSVSettings()
	settings.Encoding = "klingon-8"

	_, err := Parse(strings.NewReader("name,amount\n"), "fin", settings)
	assert.ErrorContains(t, err, "unsupported encoding")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fin.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,amount\nA,1\n"), 0644))

	table, err := ParseFile(path, "fin", config.DefaultCSVSettings())
	require.NoError(t, err)
	assert.Equal(t, path, table.SourceFile)
	assert.Equal(t, 1, table.RowCount())

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.csv"), "fin", config.DefaultCSVSettings())
	assert.Error(t, err)
}
