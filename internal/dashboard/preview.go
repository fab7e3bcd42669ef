package dashboard

import (
	"strconv"

	"salesdash/internal/dataset"
	"salesdash/internal/enrich"
)

// Preview is the enriched table rendered for display: the input columns in
// their original order, the change-percent column ensured, and the derived
// quarter appended. The internal parsed date is never exposed.
type Preview struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func buildPreview(ds *enrich.Dataset) Preview {
	columns := append([]string(nil), ds.InputColumns...)
	hadYoY := false
	for _, c := range columns {
		if c == dataset.ColYoY {
			hadYoY = true
		}
	}
	if !hadYoY {
		columns = append(columns, dataset.ColYoY)
	}
	columns = append(columns, dataset.ColQuarter)

	extraIndex := map[string]int{}
	for i, c := range ds.ExtraColumns {
		extraIndex[c] = i
	}

	p := Preview{Columns: columns}
	for _, rec := range ds.Records {
		row := make([]string, 0, len(columns))
		for _, col := range columns {
			row = append(row, previewCell(&rec, col, extraIndex))
		}
		p.Rows = append(p.Rows, row)
	}
	return p
}

func previewCell(rec *enrich.Record, col string, extraIndex map[string]int) string {
	switch col {
	case dataset.ColMonth:
		return rec.Month
	case dataset.ColRevenue:
		return formatNumber(rec.Revenue)
	case dataset.ColPriorYear:
		return formatNumber(rec.PriorYear)
	case dataset.ColYoY:
		return strconv.FormatFloat(rec.YoYChangePct, 'f', -1, 64)
	case dataset.ColQuarter:
		if rec.Quarter == 0 {
			return ""
		}
		return strconv.Itoa(rec.Quarter)
	default:
		if i, ok := extraIndex[col]; ok && i < len(rec.Extra) {
			return rec.Extra[i]
		}
		return ""
	}
}

// formatNumber renders a coerced numeric cell; failed coercions display empty
func formatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
