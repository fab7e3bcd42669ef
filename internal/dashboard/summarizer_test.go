package dashboard

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/dataset"
	"salesdash/internal/enrich"
)

func sampleDataset(t *testing.T) *enrich.Dataset {
	t.Helper()
	ds, err := enrich.Enrich(dataset.Sample())
	require.NoError(t, err)
	return ds
}

func enrichCSV(t *testing.T, csvText string) *enrich.Dataset {
	t.Helper()
	table, err := dataset.ParseCSV(strings.NewReader(csvText))
	require.NoError(t, err)
	ds, err := enrich.Enrich(table)
	require.NoError(t, err)
	return ds
}

func TestBuildSummary_Sample(t *testing.T) {
	s := buildSummary(sampleDataset(t))

	assert.Equal(t, float64(234_000_000), s.TotalRevenue)
	assert.Equal(t, "2024-08", s.MaxRevenueMonth)
	assert.Equal(t, float64(28_000_000), s.MaxRevenue)
	assert.Equal(t, "2024-03", s.MinRevenueMonth)
	assert.Equal(t, float64(11_000_000), s.MinRevenue)
	// Mean of the twelve explicit sample percentages
	assert.InDelta(t, 12.366666, s.AvgYoYChangePct, 1e-4)
}

func TestBuildSummary_SkipsUndefinedRevenue(t *testing.T) {
	ds := enrichCSV(t, "월,매출액,전년동월\n2024-01,abc,100\n2024-02,200,100\n2024-03,50,100\n")

	s := buildSummary(ds)

	// The undefined cell contributes nothing to the sum and is not a
	// candidate for max or min
	assert.Equal(t, float64(250), s.TotalRevenue)
	assert.Equal(t, "2024-02", s.MaxRevenueMonth)
	assert.Equal(t, "2024-03", s.MinRevenueMonth)
}

func TestBuildSummary_Empty(t *testing.T) {
	ds := enrichCSV(t, "월,매출액,전년동월\n")

	s := buildSummary(ds)
	assert.Zero(t, s.TotalRevenue)
	assert.Zero(t, s.AvgYoYChangePct)
	assert.Empty(t, s.MaxRevenueMonth)
}

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder(slog.Default(), DefaultTheme())
	payload := b.Build(context.Background(), sampleDataset(t), 20_000_000)

	assert.Equal(t, float64(234_000_000), payload.Summary.TotalRevenue)
	assert.Len(t, payload.Charts.Trend.Months, 12)
	assert.Len(t, payload.Charts.YoY.Values, 12)
	assert.Len(t, payload.Charts.Quarters.Boxes, 4)
	assert.Len(t, payload.Charts.KPI.Rates, 12)
	assert.Equal(t, float64(20_000_000), payload.Target)
	assert.Equal(t, DefaultTheme().Colorway, payload.Theme.Colorway)
}
