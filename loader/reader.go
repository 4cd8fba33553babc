package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ============================================================================
// CSV READER — Raw bytes → header + string cells
// ============================================================================
// The caller reads the sheet from wherever it lives (file, export, upload).
// This only splits it into cells; typing happens in Normalize.
// ============================================================================

// ErrEmptyInput is returned when the input has no header row.
var ErrEmptyInput = errors.New("empty input: no header row")

// RawTable is an untyped sheet: one header row and string cells.
type RawTable struct {
	Headers []string
	Rows    [][]string
	Skipped int // malformed rows dropped by the reader
}

// ReadCSV reads comma-delimited UTF-8 text. A leading BOM is dropped and rows
// may have any number of cells. Malformed rows are skipped and counted.
func ReadCSV(r io.Reader) (RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return RawTable{}, ErrEmptyInput
	}
	if err != nil {
		return RawTable{}, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	table := RawTable{Headers: headers}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				table.Skipped++
				continue
			}
			return RawTable{}, fmt.Errorf("failed to read CSV row: %w", err)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
