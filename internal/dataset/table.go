// Package dataset loads raw tabular input for the dashboard. It performs no
// semantic validation: missing or malformed columns only surface later, when
// the enrichment pipeline accesses them.
package dataset

// Recognized column labels. The input schema uses Korean headers.
const (
	ColMonth     = "월"    // YYYY-MM month label
	ColRevenue   = "매출액"  // revenue, currency units
	ColPriorYear = "전년동월" // same month prior year revenue
	ColYoY       = "증감률"  // optional year-over-year change percent
	ColQuarter   = "분기"   // derived, never read from input
)

// Table is a raw tabular structure: an ordered header plus string cell rows.
// Cells keep whatever text the source contained.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Index returns the position of the named column, or -1 when absent
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists
func (t *Table) HasColumn(name string) bool {
	return t.Index(name) >= 0
}

// Cell returns the cell at (row, column name). The second return is false
// when the column does not exist; out-of-range rows yield an empty cell.
func (t *Table) Cell(row int, name string) (string, bool) {
	idx := t.Index(name)
	if idx < 0 {
		return "", false
	}
	if row < 0 || row >= len(t.Rows) || idx >= len(t.Rows[row]) {
		return "", true
	}
	return t.Rows[row][idx], true
}

// ExtraColumns returns the columns that are not part of the recognized schema,
// in input order. These pass through untouched into the preview table.
func (t *Table) ExtraColumns() []string {
	recognized := map[string]bool{
		ColMonth:     true,
		ColRevenue:   true,
		ColPriorYear: true,
		ColYoY:       true,
	}
	var extras []string
	for _, c := range t.Columns {
		if !recognized[c] {
			extras = append(extras, c)
		}
	}
	return extras
}
