// Package dashboard turns an enriched dataset into the visual bindings the
// frontend renders: KPI summary cards, four charts, and a table preview.
// Everything here is a pure read-only consumer of the enriched table.
package dashboard

import (
	"context"
	"log/slog"

	"salesdash/internal/enrich"
)

// Summary holds the four KPI cards
type Summary struct {
	TotalRevenue    float64 `json:"total_revenue"`
	AvgYoYChangePct float64 `json:"avg_yoy_change_pct"`
	MaxRevenueMonth string  `json:"max_revenue_month"`
	MaxRevenue      float64 `json:"max_revenue"`
	MinRevenueMonth string  `json:"min_revenue_month"`
	MinRevenue      float64 `json:"min_revenue"`
}

// Charts bundles the four chart bindings
type Charts struct {
	Trend    TrendChart   `json:"trend"`
	YoY      YoYChart     `json:"yoy"`
	Quarters QuarterChart `json:"quarters"`
	KPI      KPIChart     `json:"kpi"`
}

// Payload is the complete per-cycle render output
type Payload struct {
	Summary Summary `json:"summary"`
	Charts  Charts  `json:"charts"`
	Preview Preview `json:"preview"`
	Theme   Theme   `json:"theme"`
	Target  float64 `json:"target"`
}

// Builder constructs dashboard payloads with an explicit theme
type Builder struct {
	logger *slog.Logger
	theme  Theme
}

// NewBuilder creates a payload builder. A nil logger falls back to the
// default slog logger.
func NewBuilder(logger *slog.Logger, theme Theme) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger, theme: theme}
}

// Build produces the full payload for one render cycle
func (b *Builder) Build(ctx context.Context, ds *enrich.Dataset, target float64) *Payload {
	b.logger.DebugContext(ctx, "building dashboard payload",
		slog.Int("rows", len(ds.Records)),
		slog.Float64("target", target))

	return &Payload{
		Summary: buildSummary(ds),
		Charts: Charts{
			Trend:    buildTrendChart(ds, b.theme),
			YoY:      buildYoYChart(ds, b.theme),
			Quarters: buildQuarterChart(ds, b.theme),
			KPI:      buildKPIChart(ds, target, b.theme),
		},
		Preview: buildPreview(ds),
		Theme:   b.theme,
		Target:  target,
	}
}

// buildSummary computes the KPI cards. Cells that failed numeric coercion
// do not contribute to the sum and are skipped for max/min, matching
// skip-missing aggregation semantics. The mean change runs over every row
// because the pipeline guarantees the percentage is always set.
func buildSummary(ds *enrich.Dataset) Summary {
	var s Summary
	var yoySum float64
	first := true

	for _, rec := range ds.Records {
		yoySum += rec.YoYChangePct

		if rec.Revenue == nil {
			continue
		}
		rev := *rec.Revenue
		s.TotalRevenue += rev

		if first || rev > s.MaxRevenue {
			s.MaxRevenue = rev
			s.MaxRevenueMonth = rec.Month
		}
		if first || rev < s.MinRevenue {
			s.MinRevenue = rev
			s.MinRevenueMonth = rec.Month
		}
		first = false
	}

	if n := len(ds.Records); n > 0 {
		s.AvgYoYChangePct = yoySum / float64(n)
	}

	return s
}
