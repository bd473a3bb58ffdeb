// =============================================================================
// CSV Reconciler - CSV Parser Module
// =============================================================================
//
// This module parses delimited text exports into a types.Table. It handles:
//   - Different delimiters (comma, pipe, tab, semicolon)
//   - Multi-line headers
//   - Custom data start rows
//   - Non UTF-8 encodings and byte-order marks
//   - Quoted fields and rows with a varying number of fields
//
// CELL VALUES:
//   Every non-empty cell is read as text, verbatim. Empty cells become
//   empty values. No trimming happens here: customer names must match
//   exactly, and the amount normalizer trims amounts itself.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/csv-reconciler/internal/config"
	"github.com/ginjaninja78/csv-reconciler/internal/types"
)

// ErrNoHeader is returned when the input holds fewer rows than the header
// needs.
var ErrNoHeader = errors.New("file has no header row")

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseFile reads a delimited text file into a table.
//
// PARAMETERS:
//   - filePath: The path to the file.
//   - label: The dataset label stored on the table ("fin" or "spo").
//   - settings: The parsing settings for this dataset.
//
// RETURNS:
//   - The parsed table.
//   - An error if the file cannot be read or parsed.
func ParseFile(filePath, label string, settings config.CSVSettings) (*types.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	table, err := Parse(file, label, settings)
	if err != nil {
		return nil, err
	}
	table.SourceFile = filePath
	return table, nil
}

// Parse reads delimited text from r into a table.
//
// PARSING PROCESS:
//   1. Decode the input to UTF-8, dropping any byte-order mark
//   2. Configure the CSV reader with the delimiter
//   3. Read and merge header rows (for multi-line headers)
//   4. Read data rows starting from the configured data start row
//   5. Skip rows whose cells are all empty
func Parse(r io.Reader, label string, settings config.CSVSettings) (*types.Table, error) {
	decoded, err := decodingReader(r, settings.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(bufio.NewReader(decoded))
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	headers, err := ExtractHeaders(allRows, settings)
	if err != nil {
		return nil, err
	}

	return &types.Table{
		Label:   label,
		Headers: headers,
		Rows:    extractDataRows(allRows, settings),
	}, nil
}

// decodingReader wraps r so that it yields UTF-8. A UTF-8 or UTF-16
// byte-order mark always wins over the configured encoding and is removed.
func decodingReader(r io.Reader, name string) (io.Reader, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

// lookupEncoding resolves an encoding name. The names legacy exports use most
// are matched directly; anything else goes through the WHATWG index.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-")) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15, nil
	case "cp437", "ibm437":
		return charmap.CodePage437, nil
	case "cp850", "ibm850":
		return charmap.CodePage850, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}
	return enc, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Exports are not always rectangular.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
}

// ExtractHeaders builds the header row from the first settings.HeaderRows rows.
//
// MULTI-LINE HEADER HANDLING:
//   Some exports have headers that span multiple rows. Non-empty values in a
//   column are joined with a space.
//
//   Example:
//   Row 1: "Customer", "", "Invoice", ""
//   Row 2: "name", "amount", "Number", "Date"
//   Result: "Customer name", "amount", "Invoice Number", "Date"
//
// A single header row is kept verbatim apart from naming empty headers.
func ExtractHeaders(allRows [][]string, settings config.CSVSettings) ([]string, error) {
	headerRows := settings.HeaderRows
	if headerRows <= 0 {
		headerRows = 1
	}

	if len(allRows) < headerRows {
		return nil, ErrNoHeader
	}

	if headerRows == 1 {
		return nameEmptyHeaders(append([]string(nil), allRows[0]...)), nil
	}

	maxCols := 0
	for i := 0; i < headerRows; i++ {
		if len(allRows[i]) > maxCols {
			maxCols = len(allRows[i])
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string
		for row := 0; row < headerRows; row++ {
			if col < len(allRows[row]) {
				value := strings.TrimSpace(allRows[row][col])
				if value != "" {
					parts = append(parts, value)
				}
			}
		}
		headers[col] = strings.Join(parts, " ")
	}

	return nameEmptyHeaders(headers), nil
}

// nameEmptyHeaders gives blank headers a positional name.
func nameEmptyHeaders(headers []string) []string {
	for i, header := range headers {
		if strings.TrimSpace(header) == "" {
			headers[i] = fmt.Sprintf("Column_%d", i+1)
		}
	}
	return headers
}

// extractDataRows converts the data rows to cell values.
func extractDataRows(allRows [][]string, settings config.CSVSettings) [][]types.Value {
	// DataStartRow is 1-indexed.
	startIndex := settings.DataStartRow - 1
	if startIndex < settings.HeaderRows {
		startIndex = max(settings.HeaderRows, 1)
	}

	if startIndex >= len(allRows) {
		return [][]types.Value{}
	}

	dataRows := make([][]types.Value, 0, len(allRows)-startIndex)
	for _, row := range allRows[startIndex:] {
		if isRowEmpty(row) {
			continue
		}

		values := make([]types.Value, len(row))
		for i, cell := range row {
			if cell == "" {
				values[i] = types.Empty()
			} else {
				values[i] = types.Text(cell)
			}
		}
		dataRows = append(dataRows, values)
	}

	return dataRows
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
