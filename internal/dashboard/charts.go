package dashboard

import (
	"math"
	"sort"

	"salesdash/internal/enrich"
)

// TrendChart is the monthly revenue line against the prior-year line.
// Nil entries render as gaps (JSON null), not zeros.
type TrendChart struct {
	Months     []string   `json:"months"`
	Revenue    []*float64 `json:"revenue"`
	PriorYear  []*float64 `json:"prior_year"`
	LineColor  string     `json:"line_color"`
	PriorColor string     `json:"prior_color"`
}

// YoYChart is the year-over-year bar chart. Bars carry one of exactly two
// colors chosen by sign: non-negative gets the primary tone, negative the
// secondary.
type YoYChart struct {
	Months []string  `json:"months"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors"`
}

// QuarterBox is the box-plot summary of one quarter's revenue figures
type QuarterBox struct {
	Quarter int       `json:"quarter"`
	Count   int       `json:"count"`
	Min     float64   `json:"min"`
	Q1      float64   `json:"q1"`
	Median  float64   `json:"median"`
	Q3      float64   `json:"q3"`
	Max     float64   `json:"max"`
	Points  []float64 `json:"points"`
}

// QuarterChart is the quarterly revenue distribution
type QuarterChart struct {
	Boxes    []QuarterBox `json:"boxes"`
	BoxColor string       `json:"box_color"`
}

// KPIChart is the monthly target-achievement ratio with a fixed 100% line
type KPIChart struct {
	Months          []string   `json:"months"`
	Rates           []*float64 `json:"rates"`
	TargetLine      float64    `json:"target_line"`
	LineColor       string     `json:"line_color"`
	TargetLineColor string     `json:"target_line_color"`
}

func buildTrendChart(ds *enrich.Dataset, theme Theme) TrendChart {
	c := TrendChart{
		LineColor:  theme.Primary(),
		PriorColor: theme.Secondary(),
	}
	for _, rec := range ds.Records {
		c.Months = append(c.Months, rec.Month)
		c.Revenue = append(c.Revenue, rec.Revenue)
		c.PriorYear = append(c.PriorYear, rec.PriorYear)
	}
	return c
}

func buildYoYChart(ds *enrich.Dataset, theme Theme) YoYChart {
	var c YoYChart
	for _, rec := range ds.Records {
		c.Months = append(c.Months, rec.Month)
		c.Values = append(c.Values, rec.YoYChangePct)
		if rec.YoYChangePct >= 0 {
			c.Colors = append(c.Colors, theme.Primary())
		} else {
			c.Colors = append(c.Colors, theme.Secondary())
		}
	}
	return c
}

// buildQuarterChart groups revenue by derived quarter. Rows with an
// undefined quarter or a non-numeric revenue carry nothing to distribute
// and are left out.
func buildQuarterChart(ds *enrich.Dataset, theme Theme) QuarterChart {
	grouped := map[int][]float64{}
	for _, rec := range ds.Records {
		if rec.Quarter < 1 || rec.Quarter > 4 || rec.Revenue == nil {
			continue
		}
		grouped[rec.Quarter] = append(grouped[rec.Quarter], *rec.Revenue)
	}

	c := QuarterChart{BoxColor: theme.Secondary()}
	for q := 1; q <= 4; q++ {
		points, ok := grouped[q]
		if !ok {
			continue
		}
		sorted := append([]float64(nil), points...)
		sort.Float64s(sorted)

		c.Boxes = append(c.Boxes, QuarterBox{
			Quarter: q,
			Count:   len(sorted),
			Min:     sorted[0],
			Q1:      quantile(sorted, 0.25),
			Median:  quantile(sorted, 0.5),
			Q3:      quantile(sorted, 0.75),
			Max:     sorted[len(sorted)-1],
			Points:  points,
		})
	}
	return c
}

// buildKPIChart computes revenue/target*100 per month. A zero target uses
// a denominator of 1 instead; that is deliberate policy, not a bug.
func buildKPIChart(ds *enrich.Dataset, target float64, theme Theme) KPIChart {
	denominator := target
	if denominator == 0 {
		denominator = 1
	}

	c := KPIChart{
		TargetLine:      100,
		LineColor:       theme.Secondary(),
		TargetLineColor: theme.TargetLineColor,
	}
	for _, rec := range ds.Records {
		c.Months = append(c.Months, rec.Month)
		if rec.Revenue == nil {
			c.Rates = append(c.Rates, nil)
			continue
		}
		rate := *rec.Revenue / denominator * 100
		c.Rates = append(c.Rates, &rate)
	}
	return c
}

// quantile computes the p-quantile of sorted values with linear
// interpolation between closest ranks.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
