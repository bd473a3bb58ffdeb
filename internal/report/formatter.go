// =============================================================================
// CSV Reconciler - Report Formatters
// =============================================================================
//
// This module selects an output formatter for a reconciliation result.
//
// SUPPORTED FORMATS:
//   table, json, yaml, xml, csv, xlsx
//
// =============================================================================

// Package report renders a reconciliation result in the supported output
// formats.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/csv-reconciler/internal/reconciler"
)

// Format is an output format.
type Format string

const (
	// FormatTable renders an aligned text table.
	FormatTable Format = "table"
	// FormatJSON renders the JSON document served over HTTP.
	FormatJSON Format = "json"
	// FormatYAML renders the same document as YAML.
	FormatYAML Format = "yaml"
	// FormatXML renders an XML document.
	FormatXML Format = "xml"
	// FormatCSV renders one line per discrepancy.
	FormatCSV Format = "csv"
	// FormatXLSX renders an Excel workbook.
	FormatXLSX Format = "xlsx"
)

// Formats lists every supported format.
var Formats = []Format{FormatTable, FormatJSON, FormatYAML, FormatXML, FormatCSV, FormatXLSX}

// Formatter writes a result to w.
type Formatter interface {
	Format(w io.Writer, res *reconciler.Result) error
}

// FormatterFunc allows functions to implement Formatter.
type FormatterFunc func(io.Writer, *reconciler.Result) error

// Format implements the Formatter interface.
func (f FormatterFunc) Format(w io.Writer, res *reconciler.Result) error {
	return f(w, res)
}

// NewFormatter returns the formatter for format. Unknown formats get JSON.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatTable:
		return &TableFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatXML:
		return &XMLFormatter{Indent: "  "}
	case FormatCSV:
		return FormatterFunc(writeCSV)
	case FormatXLSX:
		return &XLSXFormatter{SheetName: DefaultSheetName}
	default:
		return &JSONFormatter{Indent: "  "}
	}
}

// ParseFormat converts a string to a Format. The empty string is allowed and
// means "detect".
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(s)))
	if format == "" {
		return format, nil
	}
	for _, f := range Formats {
		if f == format {
			return format, nil
		}
	}
	return "", fmt.Errorf("invalid output format %q (valid: %s)", s, joinFormats())
}

// DetectFormat returns the explicit format if set, otherwise table on a
// terminal and JSON for pipes and redirects.
func DetectFormat(explicit Format) Format {
	if explicit != "" {
		return explicit
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}
	return FormatJSON
}

// Extension returns the file extension for a format, including the dot.
func Extension(format Format) string {
	if format == FormatTable {
		return ".txt"
	}
	if format == "" {
		return ".json"
	}
	return "." + string(format)
}

func joinFormats() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// formatAmount renders a float with the fewest digits that round-trip.
func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// JSONFormatter outputs the JSON document.
type JSONFormatter struct {
	Indent string
}

// Format implements the Formatter interface for JSON output.
func (f *JSONFormatter) Format(w io.Writer, res *reconciler.Result) error {
	encoder := json.NewEncoder(w)
	if f.Indent != "" {
		encoder.SetIndent("", f.Indent)
	}
	return encoder.Encode(res)
}

// YAMLFormatter outputs YAML.
type YAMLFormatter struct{}

// Format implements the Formatter interface for YAML output.
func (f *YAMLFormatter) Format(w io.Writer, res *reconciler.Result) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(res); err != nil {
		return err
	}
	return encoder.Close()
}

// WriteFile renders res in format to path, replacing any existing file and
// creating missing parent directories.
func WriteFile(path string, format Format, res *reconciler.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}

	if err := NewFormatter(format).Format(file, res); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s report: %w", format, err)
	}

	return file.Close()
}
