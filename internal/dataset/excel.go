package dataset

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseExcel reads the first sheet of an .xlsx workbook that carries the
// monthly revenue header into a Table. When no sheet carries the month
// column the first sheet is used as-is, so schema problems surface in the
// enrichment step the same way they do for CSV input.
func ParseExcel(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := sheetRows(f, sheets)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("workbook has no header row")
	}

	header := rows[0]
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	table := &Table{Columns: header}
	for _, row := range rows[1:] {
		table.Rows = append(table.Rows, padRow(row, len(header)))
	}

	return table, nil
}

// sheetRows picks the first sheet whose header row contains the month
// column, falling back to the first sheet.
func sheetRows(f *excelize.File, sheets []string) ([][]string, error) {
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) == 0 {
			continue
		}
		for _, cell := range rows[0] {
			if strings.TrimSpace(cell) == ColMonth {
				return rows, nil
			}
		}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}
