package enrich

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/dataset"
)

func mustTable(t *testing.T, csvText string) *dataset.Table {
	t.Helper()
	table, err := dataset.ParseCSV(strings.NewReader(csvText))
	require.NoError(t, err)
	return table
}

func TestEnrich_Sample(t *testing.T) {
	ds, err := Enrich(dataset.Sample())
	require.NoError(t, err)
	require.Len(t, ds.Records, 12)

	first := ds.Records[0]
	assert.Equal(t, "2024-01", first.Month)
	require.NotNil(t, first.Revenue)
	assert.Equal(t, float64(12_000_000), *first.Revenue)
	require.NotNil(t, first.PriorYear)
	assert.Equal(t, float64(10_500_000), *first.PriorYear)
	// Explicit numeric value wins over the computed one
	assert.Equal(t, 14.3, first.YoYChangePct)
	assert.Equal(t, 1, first.Quarter)

	last := ds.Records[11]
	assert.Equal(t, "2024-12", last.Month)
	assert.Equal(t, 4, last.Quarter)
}

func TestEnrich_BackfillWhenColumnAbsent(t *testing.T) {
	table := mustTable(t, "월,매출액,전년동월\n2024-01,11000,10000\n2024-02,9000,10000\n")

	ds, err := Enrich(table)
	require.NoError(t, err)
	require.Len(t, ds.Records, 2)

	assert.InDelta(t, 10.0, ds.Records[0].YoYChangePct, 1e-9)
	assert.InDelta(t, -10.0, ds.Records[1].YoYChangePct, 1e-9)
}

func TestEnrich_BackfillWhenCellBlankOrGarbage(t *testing.T) {
	// A blank or non-numeric cell in the percentage column behaves like an
	// absent one and falls through to the computed value
	table := mustTable(t, "월,매출액,전년동월,증감률\n2024-01,11000,10000,\n2024-02,12000,10000,n/a\n2024-03,13000,10000,5.5\n")

	ds, err := Enrich(table)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, ds.Records[0].YoYChangePct, 1e-9)
	assert.InDelta(t, 20.0, ds.Records[1].YoYChangePct, 1e-9)
	assert.Equal(t, 5.5, ds.Records[2].YoYChangePct)
}

func TestEnrich_ZeroPriorYearDefaultsToZero(t *testing.T) {
	table := mustTable(t, "월,매출액,전년동월\n2024-01,11000,0\n")

	ds, err := Enrich(table)
	require.NoError(t, err)

	assert.Equal(t, float64(0), ds.Records[0].YoYChangePct)
}

func TestEnrich_NonNumericRevenueSurvives(t *testing.T) {
	table := mustTable(t, "월,매출액,전년동월\n2024-01,abc,10000\n2024-02,12000,10000\n")

	ds, err := Enrich(table)
	require.NoError(t, err)
	require.Len(t, ds.Records, 2)

	bad := ds.Records[0]
	assert.Nil(t, bad.Revenue)
	require.NotNil(t, bad.PriorYear)
	// Backfill needs a numeric revenue; the row degrades to zero instead
	assert.Equal(t, float64(0), bad.YoYChangePct)
	assert.Equal(t, 1, bad.Quarter)
}

func TestEnrich_SortsByParsedMonth(t *testing.T) {
	table := mustTable(t, "월,매출액,전년동월\n2024-03,1,1\nnot-a-month,2,1\n2024-01,3,1\n2024-02,4,1\n")

	ds, err := Enrich(table)
	require.NoError(t, err)
	require.Len(t, ds.Records, 4)

	assert.Equal(t, "2024-01", ds.Records[0].Month)
	assert.Equal(t, "2024-02", ds.Records[1].Month)
	assert.Equal(t, "2024-03", ds.Records[2].Month)
	// Unparseable months sort last and are kept, not excluded
	assert.Equal(t, "not-a-month", ds.Records[3].Month)
	assert.False(t, ds.Records[3].HasDate())
	assert.Equal(t, 0, ds.Records[3].Quarter)

	for i := 0; i < 2; i++ {
		assert.True(t, ds.Records[i].Date.Before(ds.Records[i+1].Date) ||
			ds.Records[i].Date.Equal(ds.Records[i+1].Date))
	}
}

func TestEnrich_QuarterDerivation(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("월,매출액,전년동월\n")
	for m := 1; m <= 12; m++ {
		sb.WriteString("2024-")
		if m < 10 {
			sb.WriteString("0")
		}
		sb.WriteString(strconv.Itoa(m))
		sb.WriteString(",100,100\n")
	}

	ds, err := Enrich(mustTable(t, sb.String()))
	require.NoError(t, err)
	require.Len(t, ds.Records, 12)

	for i, rec := range ds.Records {
		month := i + 1
		want := (month-1)/3 + 1
		assert.Equal(t, want, rec.Quarter, "month %d", month)
		assert.GreaterOrEqual(t, rec.Quarter, 1)
		assert.LessOrEqual(t, rec.Quarter, 4)
	}
}

func TestEnrich_MonthTrimmed(t *testing.T) {
	table := mustTable(t, "월,매출액,전년동월\n  2024-01  ,100,90\n")

	ds, err := Enrich(table)
	require.NoError(t, err)

	assert.Equal(t, "2024-01", ds.Records[0].Month)
	assert.True(t, ds.Records[0].HasDate())
}

func TestEnrich_ThousandsSeparators(t *testing.T) {
	table := mustTable(t, "월,매출액,전년동월\n2024-01,\"12,000,000\",\"10,500,000\"\n")

	ds, err := Enrich(table)
	require.NoError(t, err)

	require.NotNil(t, ds.Records[0].Revenue)
	assert.Equal(t, float64(12_000_000), *ds.Records[0].Revenue)
}

func TestEnrich_MissingRequiredColumn(t *testing.T) {
	tests := []struct {
		name    string
		csvText string
		wantCol string
	}{
		{"missing month", "매출액,전년동월\n100,90\n", "월"},
		{"missing revenue", "월,전년동월\n2024-01,90\n", "매출액"},
		{"missing prior year", "월,매출액\n2024-01,100\n", "전년동월"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Enrich(mustTable(t, tt.csvText))
			require.Error(t, err)

			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr))
			assert.Equal(t, tt.wantCol, schemaErr.Column)
			assert.Contains(t, err.Error(), tt.wantCol)
		})
	}
}

func TestEnrich_ExtraColumnsPassThrough(t *testing.T) {
	table := mustTable(t, "월,지역,매출액,전년동월,메모\n2024-02,서울,100,90,a\n2024-01,부산,110,95,b\n")

	ds, err := Enrich(table)
	require.NoError(t, err)

	assert.Equal(t, []string{"지역", "메모"}, ds.ExtraColumns)
	// Extras travel with their row through the sort
	assert.Equal(t, []string{"부산", "b"}, ds.Records[0].Extra)
	assert.Equal(t, []string{"서울", "a"}, ds.Records[1].Extra)
}

func TestEnrich_DoesNotMutateInput(t *testing.T) {
	table := mustTable(t, "월,매출액,전년동월\n2024-02,100,90\n2024-01,110,95\n")

	_, err := Enrich(table)
	require.NoError(t, err)

	assert.Equal(t, "2024-02", table.Rows[0][0])
	assert.Equal(t, "2024-01", table.Rows[1][0])
}

func TestEnrich_RederivingIsStable(t *testing.T) {
	ds, err := Enrich(dataset.Sample())
	require.NoError(t, err)

	// Strip the enriched dataset back to raw columns and enrich again: the
	// derived values must come out identical.
	raw := &dataset.Table{Columns: []string{"월", "매출액", "전년동월", "증감률"}}
	for _, rec := range ds.Records {
		raw.Rows = append(raw.Rows, []string{
			rec.Month,
			strconv.FormatFloat(*rec.Revenue, 'f', -1, 64),
			strconv.FormatFloat(*rec.PriorYear, 'f', -1, 64),
			strconv.FormatFloat(rec.YoYChangePct, 'f', -1, 64),
		})
	}

	again, err := Enrich(raw)
	require.NoError(t, err)
	require.Len(t, again.Records, len(ds.Records))

	for i := range ds.Records {
		assert.Equal(t, ds.Records[i].Month, again.Records[i].Month)
		assert.Equal(t, *ds.Records[i].Revenue, *again.Records[i].Revenue)
		assert.InDelta(t, ds.Records[i].YoYChangePct, again.Records[i].YoYChangePct, 1e-9)
		assert.Equal(t, ds.Records[i].Quarter, again.Records[i].Quarter)
	}
}
