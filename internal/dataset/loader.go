package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ParseCSV parses CSV text with a header row into a Table.
// Ragged rows are tolerated and padded to the header width; a malformed
// file (for example unbalanced quotes) propagates a parse error.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse csv: input has no header row")
	}

	header := records[0]
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}
	// Excel exports commonly lead with a UTF-8 BOM
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	table := &Table{Columns: header}
	for _, record := range records[1:] {
		table.Rows = append(table.Rows, padRow(record, len(header)))
	}

	return table, nil
}

// padRow pads or truncates a record to the header width
func padRow(record []string, width int) []string {
	row := make([]string, width)
	copy(row, record)
	return row
}
