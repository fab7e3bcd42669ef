// Package enrich implements the pure data-enrichment pipeline: type
// coercion, month parsing and ordering, year-over-year backfill, and
// quarter derivation. It is deterministic and never mutates its input.
package enrich

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"salesdash/internal/dataset"
)

// monthLayout is the fixed month pattern: 4-digit year, dash, 2-digit month
const monthLayout = "2006-01"

// SchemaError reports a required column missing from the input. It is the
// data-shape error surfaced when the pipeline accesses a column the upload
// does not carry.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("required column %q not found in input", e.Column)
}

// Record is one enriched monthly row.
//
// Revenue and PriorYear are nil when the source cell failed numeric
// coercion; that distinction matters because the backfill step must tell
// "missing percentage" apart from "missing revenue". YoYChangePct is always
// set once enrichment completes. Quarter is 0 when the month label did not
// parse.
type Record struct {
	Month        string
	Date         time.Time
	Revenue      *float64
	PriorYear    *float64
	YoYChangePct float64
	Quarter      int
	Extra        []string
}

// HasDate reports whether the month label parsed
func (r *Record) HasDate() bool {
	return !r.Date.IsZero()
}

// Dataset is the enriched table: sorted records plus the column order of
// the input and its pass-through columns, preserved for the preview.
type Dataset struct {
	Records      []Record
	InputColumns []string
	ExtraColumns []string
}

// Enrich transforms a raw table into the enriched dataset.
//
// Rows are sorted ascending by parsed month with unparseable months last
// (kept, not dropped). Revenue and prior-year cells are coerced best-effort;
// an explicit numeric year-over-year value wins over the computed one, a
// missing or garbage one is backfilled from (revenue-prior)/prior*100 when
// the prior-year figure is nonzero, and anything still unresolved defaults
// to 0. The quarter is always derived from the parsed month, never read
// from input.
func Enrich(t *dataset.Table) (*Dataset, error) {
	for _, col := range []string{dataset.ColMonth, dataset.ColRevenue, dataset.ColPriorYear} {
		if !t.HasColumn(col) {
			return nil, &SchemaError{Column: col}
		}
	}

	extraCols := t.ExtraColumns()
	hasYoY := t.HasColumn(dataset.ColYoY)

	records := make([]Record, len(t.Rows))
	for i := range t.Rows {
		cell, _ := t.Cell(i, dataset.ColMonth)
		month := strings.TrimSpace(cell)

		rec := Record{Month: month}
		if d, err := time.Parse(monthLayout, month); err == nil {
			rec.Date = d
		}

		revCell, _ := t.Cell(i, dataset.ColRevenue)
		rec.Revenue = coerceNumber(revCell)

		priorCell, _ := t.Cell(i, dataset.ColPriorYear)
		rec.PriorYear = coerceNumber(priorCell)

		var yoy *float64
		if hasYoY {
			yoyCell, _ := t.Cell(i, dataset.ColYoY)
			yoy = coerceNumber(yoyCell)
		}
		if yoy == nil && rec.PriorYear != nil && *rec.PriorYear != 0 && rec.Revenue != nil {
			computed := (*rec.Revenue - *rec.PriorYear) / *rec.PriorYear * 100
			yoy = &computed
		}
		if yoy != nil {
			rec.YoYChangePct = *yoy
		}

		if rec.HasDate() {
			rec.Quarter = (int(rec.Date.Month())-1)/3 + 1
		}

		for _, col := range extraCols {
			cell, _ := t.Cell(i, col)
			rec.Extra = append(rec.Extra, cell)
		}

		records[i] = rec
	}

	// Stable sort: parseable months ascending, unparseable months last
	sort.SliceStable(records, func(i, j int) bool {
		switch {
		case records[i].HasDate() && records[j].HasDate():
			return records[i].Date.Before(records[j].Date)
		case records[i].HasDate():
			return true
		default:
			return false
		}
	})

	inputCols := make([]string, len(t.Columns))
	copy(inputCols, t.Columns)

	return &Dataset{Records: records, InputColumns: inputCols, ExtraColumns: extraCols}, nil
}

// coerceNumber converts a cell to a float, best effort. Thousands
// separators are stripped; a blank or non-numeric cell yields nil, not
// zero, so later steps can tell coercion failure from a real zero.
func coerceNumber(cell string) *float64 {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
