package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/csv-reconciler/internal/config"
	"github.com/ginjaninja78/csv-reconciler/internal/types"
)

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"fin.csv":    FormatCSV,
		"FIN.CSV":    FormatCSV,
		"export.txt": FormatCSV,
		"spo.xlsx":   FormatXLSX,
		"spo.xlsm":   FormatXLSX,
		"old.xls":    FormatXLS,
	}
	for name, want := range tests {
		got, err := DetectFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := DetectFormat("report.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = DetectFormat("noextension")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadFileCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fin.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,amount\nAlice,10\n"), 0644))

	table, err := LoadFile(path, "fin", config.DefaultCSVSettings())
	require.NoError(t, err)
	assert.Equal(t, "fin", table.Label)
	assert.Equal(t, types.Text("10"), table.Cell(0, 1))
}

func TestLoadFileXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"name", "amount"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Bob", 7.5}))

	path := filepath.Join(t.TempDir(), "spo.xlsx")
	require.NoError(t, f.SaveAs(path))

	table, err := LoadFile(path, "spo", config.DefaultCSVSettings())
	require.NoError(t, err)
	assert.Equal(t, types.Number(7.5), table.Cell(0, 1))
}

func TestLoadFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := LoadFile(path, "spo", config.DefaultCSVSettings())
	assert.ErrorIs(t, err, ErrEmptyFile)
	assert.Contains(t, err.Error(), "spo")
}

func TestLoadFileUnsupported(t *testing.T) {
	_, err := LoadFile("data.json", "fin", config.DefaultCSVSettings())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
