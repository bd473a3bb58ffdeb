// =============================================================================
// CSV Reconciler - Input Loader
// =============================================================================
//
// This module turns an input file into a types.Table, choosing the parser
// from the file extension.
//
// SUPPORTED FORMATS:
//   .csv, .txt    -> csvparser (delimiter and encoding from CSVSettings)
//   .xlsx, .xlsm  -> xlsxparser (excelize)
//   .xls          -> xlsxparser (legacy BIFF reader)
//
// Any other extension fails with ErrUnsupportedFormat.
//
// =============================================================================

// Package ingest turns an input file into a types.Table.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/csv-reconciler/internal/config"
	"github.com/ginjaninja78/csv-reconciler/internal/csvparser"
	"github.com/ginjaninja78/csv-reconciler/internal/types"
	"github.com/ginjaninja78/csv-reconciler/internal/xlsxparser"
)

var (
	// ErrUnsupportedFormat is returned for extensions no parser handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyFile is returned when an input has no header row.
	ErrEmptyFile = csvparser.ErrNoHeader
)

// Format is an input file family.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// SupportedExtensions lists the accepted input extensions.
var SupportedExtensions = []string{".csv", ".txt", ".xlsx", ".xlsm", ".xls"}

// DetectFormat maps a file name to its input format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	default:
		return "", fmt.Errorf("%w: %q (want one of %s)",
			ErrUnsupportedFormat, filepath.Base(path), strings.Join(SupportedExtensions, ", "))
	}
}

// LoadFile parses the file at path into a table labelled with the dataset.
func LoadFile(path, label string, settings config.CSVSettings) (*types.Table, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	var table *types.Table
	switch format {
	case FormatXLSX:
		table, err = xlsxparser.ParseFile(path, label, settings)
	case FormatXLS:
		table, err = xlsxparser.ParseXLSFile(path, label, settings)
	default:
		table, err = csvparser.ParseFile(path, label, settings)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s file %s: %w", label, filepath.Base(path), err)
	}

	return table, nil
}
